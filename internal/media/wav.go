package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
)

// Minimal RIFF/WAVE support for the PCM16 files the toolkit and the TTS
// collaborator exchange. Multi-channel input is downmixed to mono on decode
// because the analysis stages operate on a single channel.

var errNotWAV = errors.New("not a RIFF/WAVE file")

const wavHeaderSize = 44

// DecodeWAV parses a PCM16 WAV byte buffer into a Track.
func DecodeWAV(b []byte) (Track, error) {
	if len(b) < wavHeaderSize || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return Track{}, errNotWAV
	}

	var (
		sampleRate    int
		channels      int
		bitsPerSample int
		data          []byte
	)

	// Chunk walk: files in the wild carry LIST/fact chunks between fmt and data.
	off := 12
	for off+8 <= len(b) {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		body := off + 8
		if body+size > len(b) {
			size = len(b) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return Track{}, fmt.Errorf("wav: short fmt chunk (%d bytes)", size)
			}
			format := binary.LittleEndian.Uint16(b[body : body+2])
			if format != 1 {
				return Track{}, fmt.Errorf("wav: unsupported audio format %d (want PCM)", format)
			}
			channels = int(binary.LittleEndian.Uint16(b[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(b[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(b[body+14 : body+16]))
		case "data":
			data = b[body : body+size]
		}
		off = body + size
		if size%2 == 1 {
			off++ // chunks are word-aligned
		}
	}

	if sampleRate <= 0 || channels <= 0 {
		return Track{}, errors.New("wav: missing fmt chunk")
	}
	if bitsPerSample != 16 {
		return Track{}, fmt.Errorf("wav: unsupported bit depth %d (want 16)", bitsPerSample)
	}
	if data == nil {
		return Track{}, errors.New("wav: missing data chunk")
	}

	frameBytes := 2 * channels
	frames := len(data) / frameBytes
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var acc float64
		for c := 0; c < channels; c++ {
			v := int16(binary.LittleEndian.Uint16(data[i*frameBytes+2*c:]))
			acc += float64(v) / 32768.0
		}
		samples[i] = acc / float64(channels)
	}
	return Track{Samples: samples, SampleRate: sampleRate, Channels: 1}, nil
}

// DecodeWAVFile reads and decodes a PCM16 WAV file.
func DecodeWAVFile(path string) (Track, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Track{}, err
	}
	t, err := DecodeWAV(b)
	if err != nil {
		return Track{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return t, nil
}

// EncodeWAV renders a Track as a mono PCM16 WAV byte buffer.
func EncodeWAV(t Track) []byte {
	dataSize := len(t.Samples) * 2
	out := make([]byte, wavHeaderSize+dataSize)

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], 1) // mono
	binary.LittleEndian.PutUint32(out[24:28], uint32(t.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(t.SampleRate*2))
	binary.LittleEndian.PutUint16(out[32:34], 2)
	binary.LittleEndian.PutUint16(out[34:36], 16)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))

	for i, s := range t.Samples {
		v := int16(math.Round(clamp(s, -1, 1) * 32767))
		binary.LittleEndian.PutUint16(out[wavHeaderSize+2*i:], uint16(v))
	}
	return out
}

// EncodeWAVFile writes a Track to disk as mono PCM16 WAV.
func EncodeWAVFile(path string, t Track) error {
	return os.WriteFile(path, EncodeWAV(t), 0o644)
}

func clamp(x, a, b float64) float64 {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}
