package media

import (
	"math"
	"testing"
	"time"
)

func toneTrack(rate int, d time.Duration, freq float64) Track {
	n := int(d.Seconds() * float64(rate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return Track{Samples: samples, SampleRate: rate, Channels: 1}
}

func TestTrackDuration(t *testing.T) {
	tr := toneTrack(16000, 2*time.Second, 440)
	if got := tr.Duration(); got != 2*time.Second {
		t.Fatalf("duration = %v, want 2s", got)
	}
}

func TestTrimAndPadSilence(t *testing.T) {
	tr := toneTrack(16000, 2*time.Second, 440)

	trimmed := tr.Trim(250*time.Millisecond, 250*time.Millisecond)
	if got := trimmed.Duration(); got != 1500*time.Millisecond {
		t.Fatalf("trimmed duration = %v, want 1.5s", got)
	}

	padded := tr.PadSilence(100*time.Millisecond, 400*time.Millisecond)
	if got := padded.Duration(); got != 2500*time.Millisecond {
		t.Fatalf("padded duration = %v, want 2.5s", got)
	}
	for i := 0; i < padded.sampleIndex(100*time.Millisecond); i++ {
		if padded.Samples[i] != 0 {
			t.Fatalf("expected silence in lead pad at sample %d", i)
		}
	}
}

func TestTrimLargerThanTrack(t *testing.T) {
	tr := toneTrack(16000, time.Second, 440)
	got := tr.Trim(time.Second, time.Second)
	if len(got.Samples) != 0 {
		t.Fatalf("expected empty track, got %d samples", len(got.Samples))
	}
	if got.SampleRate != 16000 {
		t.Fatalf("sample rate lost on empty trim")
	}
}

func TestEncodeDecodeWAV(t *testing.T) {
	tr := toneTrack(24000, time.Second, 440)
	decoded, err := DecodeWAV(EncodeWAV(tr))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.SampleRate != 24000 || len(decoded.Samples) != len(tr.Samples) {
		t.Fatalf("got rate=%d n=%d, want rate=24000 n=%d", decoded.SampleRate, len(decoded.Samples), len(tr.Samples))
	}
	for i := range tr.Samples {
		if math.Abs(decoded.Samples[i]-tr.Samples[i]) > 1.0/32000 {
			t.Fatalf("sample %d drifted: %f vs %f", i, decoded.Samples[i], tr.Samples[i])
		}
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	if _, err := DecodeWAV([]byte("definitely not a wav file, far too short anyway")); err == nil {
		t.Fatal("expected error for non-WAV input")
	}
}

func TestDecodeWAVDownmixesStereo(t *testing.T) {
	// Hand-build a tiny stereo file: L = 0.5, R = -0.5 should average to ~0.
	mono := Track{Samples: []float64{0}, SampleRate: 8000, Channels: 1}
	b := EncodeWAV(mono)
	// Patch channels to 2 and duplicate the frame with opposing values.
	b[22] = 2
	data := []byte{0xFF, 0x3F, 0x01, 0xC0} // ~0.5, ~-0.5
	b = append(b[:wavHeaderSize], data...)
	putLE32 := func(off int, v uint32) {
		b[off] = byte(v)
		b[off+1] = byte(v >> 8)
		b[off+2] = byte(v >> 16)
		b[off+3] = byte(v >> 24)
	}
	putLE32(40, uint32(len(data)))
	putLE32(4, uint32(36+len(data)))

	tr, err := DecodeWAV(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tr.Samples) != 1 || tr.Channels != 1 {
		t.Fatalf("expected 1 mono sample, got %d samples %d channels", len(tr.Samples), tr.Channels)
	}
	if math.Abs(tr.Samples[0]) > 0.001 {
		t.Fatalf("expected downmix near zero, got %f", tr.Samples[0])
	}
}
