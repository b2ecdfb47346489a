package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"voclip/internal/media"
)

func TestSampleRateFromMime(t *testing.T) {
	tests := map[string]int{
		"audio/L16;codec=pcm;rate=24000": 24000,
		"audio/L16; rate=16000":          16000,
		"audio/L16":                      24000,
		"audio/L16;rate=bogus":           24000,
	}
	for mime, want := range tests {
		if got := sampleRateFromMime(mime); got != want {
			t.Fatalf("sampleRateFromMime(%q) = %d, want %d", mime, got, want)
		}
	}
}

func TestSynthesizeWritesDecodableWAV(t *testing.T) {
	pcm := make([]byte, 48000) // 1s of silence at 24kHz PCM16
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{
						"inlineData": map[string]any{
							"mimeType": "audio/L16;codec=pcm;rate=24000",
							"data":     base64.StdEncoding.EncodeToString(pcm),
						},
					}},
				},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	a := New("test-key", "", "", "", srv.URL)
	out := filepath.Join(t.TempDir(), "voice.wav")
	if err := a.Synthesize(context.Background(), "hello world", "", out); err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	tr, err := media.DecodeWAVFile(out)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if tr.SampleRate != 24000 || len(tr.Samples) != 24000 {
		t.Fatalf("got rate=%d n=%d, want 24000/24000", tr.SampleRate, len(tr.Samples))
	}
}

func TestSynthesizeNoAudioPart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer srv.Close()

	a := New("test-key", "", "", "", srv.URL)
	err := a.Synthesize(context.Background(), "hello", "", filepath.Join(t.TempDir(), "x.wav"))
	if err == nil {
		t.Fatal("expected error when response has no audio")
	}
}

func TestIdeasParsesAndFilters(t *testing.T) {
	ideasJSON := `[
		{"title":"A","description":"d","script":"buy it now","start_sec":0,"end_sec":8},
		{"title":"bad","description":"d","script":"","start_sec":0,"end_sec":5},
		{"title":"B","description":"d","script":"great value","start_sec":10,"end_sec":18}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/upload/v1beta/files" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"file": map[string]any{"name": "files/abc", "uri": "https://x/files/abc", "state": "ACTIVE"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]any{{"text": ideasJSON}}},
			}},
		})
	}))
	defer srv.Close()

	video := filepath.Join(t.TempDir(), "in.mp4")
	if err := os.WriteFile(video, []byte("fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := New("test-key", "", "", "", srv.URL)
	got, err := a.Ideas(context.Background(), video, 5)
	if err != nil {
		t.Fatalf("ideas: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected the blank-script idea filtered out, got %d ideas", len(got))
	}
	if got[0].Title != "A" || got[1].Title != "B" {
		t.Fatalf("unexpected ideas: %+v", got)
	}
}
