package subtitles

import (
	"strings"
	"testing"
	"time"

	"voclip/internal/domain/phrase"
)

func testMap(t *testing.T) phrase.TimingMap {
	t.Helper()
	phrases := []phrase.Phrase{
		{
			Text:  "grab this deal",
			Start: 0,
			End:   2 * time.Second,
			Words: []phrase.WordMark{
				{Ordinal: 0, Offset: 0},
				{Ordinal: 1, Offset: 700 * time.Millisecond},
				{Ordinal: 2, Offset: 1400 * time.Millisecond},
			},
		},
		{
			Text:  "right now",
			Start: 2600 * time.Millisecond,
			End:   4 * time.Second,
			Words: []phrase.WordMark{
				{Ordinal: 3, Offset: 0},
				{Ordinal: 4, Offset: 600 * time.Millisecond},
			},
		},
	}
	m, err := phrase.BuildTimingMap(phrases, 5*time.Second)
	if err != nil {
		t.Fatalf("build timing map: %v", err)
	}
	return m
}

func TestRenderASSLayers(t *testing.T) {
	ass := RenderASS(testMap(t))
	if !strings.Contains(ass, "Dialogue: 0,0:00:00.00,0:00:02.60,Voclip,,0,0,0,,GRAB THIS DEAL") {
		t.Fatalf("phrase layer should persist until next phrase start:\n%s", ass)
	}
	if !strings.Contains(ass, `{\c&H00FFFF&}GRAB{\c&HFFFFFF&} THIS DEAL`) {
		t.Fatalf("expected first word highlight line:\n%s", ass)
	}
	if got := strings.Count(ass, "Dialogue: 1,"); got != 5 {
		t.Fatalf("expected 5 highlight lines (one per word), got %d", got)
	}
}

func TestRenderASSLastPhraseEndsAtOwnEnd(t *testing.T) {
	ass := RenderASS(testMap(t))
	if !strings.Contains(ass, "Dialogue: 0,0:00:02.60,0:00:04.00,Voclip,,0,0,0,,RIGHT NOW") {
		t.Fatalf("last phrase must end at its own end time:\n%s", ass)
	}
}

func TestAssTimeFormat(t *testing.T) {
	got := assTime(61*time.Second + 234*time.Millisecond)
	if got != "0:01:01.23" {
		t.Fatalf("assTime = %s, want 0:01:01.23", got)
	}
	if assTime(-time.Second) != "0:00:00.00" {
		t.Fatal("negative times must clamp to zero")
	}
}

func TestSanitizeASS(t *testing.T) {
	if got := sanitizeASS(`ok {\b1} done`); strings.ContainsAny(got, "{}") {
		t.Fatalf("braces must be stripped, got %q", got)
	}
}
