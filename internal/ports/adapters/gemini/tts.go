package gemini

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrSynthesis marks a failed speech synthesis. The pipeline retries a
// bounded number of times before failing the owning idea.
var ErrSynthesis = errors.New("speech synthesis failed")

// Synthesize renders the script as speech and writes a mono PCM16 WAV file.
// The API returns raw linear PCM (typically 24 kHz); the WAV header is added
// here.
func (a *Adapter) Synthesize(ctx context.Context, script, voiceStyle, outWav string) error {
	text := script
	if voiceStyle != "" {
		text = voiceStyle + "\n\n" + script
	}
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: text}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{PrebuiltVoiceConfig: prebuiltVoice{VoiceName: a.voice}},
			},
		},
	}

	resp, err := a.generate(ctx, a.ttsModel, req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSynthesis, err)
	}

	for _, c := range resp.Candidates {
		for _, p := range c.Content.Parts {
			if p.InlineData == nil || !strings.HasPrefix(p.InlineData.MimeType, "audio/") {
				continue
			}
			pcm, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return fmt.Errorf("%w: decode audio payload: %w", ErrSynthesis, err)
			}
			rate := sampleRateFromMime(p.InlineData.MimeType)
			return os.WriteFile(outWav, wrapPCM16(pcm, rate), 0o644)
		}
	}
	return fmt.Errorf("%w: response carried no audio part", ErrSynthesis)
}

// sampleRateFromMime parses "audio/L16;codec=pcm;rate=24000" style MIME
// parameters. The API default is 24 kHz.
func sampleRateFromMime(mime string) int {
	rate := 24000
	for _, p := range strings.Split(mime, ";") {
		p = strings.TrimSpace(p)
		if v, ok := strings.CutPrefix(p, "rate="); ok {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				rate = n
			}
		}
	}
	return rate
}

// wrapPCM16 prepends a RIFF header to raw mono PCM16 data.
func wrapPCM16(data []byte, rate int) []byte {
	out := make([]byte, 44+len(data))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(data)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1)
	binary.LittleEndian.PutUint16(out[22:24], 1)
	binary.LittleEndian.PutUint32(out[24:28], uint32(rate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(rate*2))
	binary.LittleEndian.PutUint16(out[32:34], 2)
	binary.LittleEndian.PutUint16(out[34:36], 16)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(data)))
	copy(out[44:], data)
	return out
}
