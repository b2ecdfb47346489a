package phrase

import (
	"errors"
	"testing"
	"time"
)

func ph(start, end time.Duration, firstOrdinal int, words ...string) Phrase {
	marks := make([]WordMark, len(words))
	span := end - start
	for i := range words {
		marks[i] = WordMark{
			Ordinal: firstOrdinal + i,
			Offset:  span * time.Duration(i) / time.Duration(len(words)),
		}
	}
	return Phrase{Text: join(words), Start: start, End: end, Words: marks}
}

func join(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += " "
		}
		out += w
	}
	return out
}

func TestBuildTimingMapClampsBoundaries(t *testing.T) {
	phrases := []Phrase{
		ph(-50*time.Millisecond, 2*time.Second, 0, "hello", "there"),
		ph(3*time.Second, 5200*time.Millisecond, 2, "again"),
	}
	m, err := BuildTimingMap(phrases, 5*time.Second)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if m.Phrases[0].Start != 0 {
		t.Fatalf("first start = %v, want clamped to 0", m.Phrases[0].Start)
	}
	if m.Phrases[1].End != 5*time.Second {
		t.Fatalf("last end = %v, want clamped to 5s", m.Phrases[1].End)
	}
}

func TestBuildTimingMapAllowsGaps(t *testing.T) {
	phrases := []Phrase{
		ph(0, 2*time.Second, 0, "one"),
		ph(2600*time.Millisecond, 4*time.Second, 1, "two"),
	}
	if _, err := BuildTimingMap(phrases, 5*time.Second); err != nil {
		t.Fatalf("gaps between phrases must be allowed: %v", err)
	}
}

func TestBuildTimingMapRejectsOverlap(t *testing.T) {
	phrases := []Phrase{
		ph(0, 2*time.Second, 0, "one"),
		ph(1900*time.Millisecond, 3*time.Second, 1, "two"),
	}
	_, err := BuildTimingMap(phrases, 5*time.Second)
	if !errors.Is(err, ErrInvalidTimingMap) {
		t.Fatalf("expected ErrInvalidTimingMap, got %v", err)
	}
}

func TestBuildTimingMapRejectsNonPositiveSpan(t *testing.T) {
	phrases := []Phrase{ph(2*time.Second, 2*time.Second, 0, "stuck")}
	if _, err := BuildTimingMap(phrases, 5*time.Second); !errors.Is(err, ErrInvalidTimingMap) {
		t.Fatalf("expected ErrInvalidTimingMap, got %v", err)
	}
}

func TestBuildTimingMapRejectsOrdinalRegression(t *testing.T) {
	phrases := []Phrase{
		ph(0, time.Second, 3, "late"),
		ph(time.Second, 2*time.Second, 1, "early"),
	}
	if _, err := BuildTimingMap(phrases, 5*time.Second); !errors.Is(err, ErrInvalidTimingMap) {
		t.Fatalf("expected ErrInvalidTimingMap, got %v", err)
	}
}

func TestBuildTimingMapEmpty(t *testing.T) {
	m, err := BuildTimingMap(nil, 5*time.Second)
	if err != nil {
		t.Fatalf("empty phrase list must build an empty map: %v", err)
	}
	if got := m.Cues(); got != nil {
		t.Fatalf("expected no cues, got %v", got)
	}
}

func TestCuesSerialization(t *testing.T) {
	phrases := []Phrase{
		ph(0, 2*time.Second, 0, "grab", "this", "deal"),
		ph(2500*time.Millisecond, 4*time.Second, 3, "right", "now"),
	}
	m, err := BuildTimingMap(phrases, 5*time.Second)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	cues := m.Cues()
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	first := cues[0]
	if first.StartMS != 0 || first.EndMS != 2000 {
		t.Fatalf("cue 0 spans [%d, %d]ms, want [0, 2000]", first.StartMS, first.EndMS)
	}
	if first.Text != "grab this deal" {
		t.Fatalf("cue 0 text = %q", first.Text)
	}
	if first.HighlightedWordIndex != 0 || cues[1].HighlightedWordIndex != 3 {
		t.Fatalf("highlighted word indexes = %d, %d; want 0, 3", first.HighlightedWordIndex, cues[1].HighlightedWordIndex)
	}
	if len(first.WordHighlightOffsets) != 3 || first.WordHighlightOffsets[0] != 0 {
		t.Fatalf("unexpected highlight offsets: %v", first.WordHighlightOffsets)
	}
	for i := 1; i < len(cues); i++ {
		if cues[i].StartMS < cues[i-1].EndMS {
			t.Fatalf("cues overlap: %v then %v", cues[i-1], cues[i])
		}
	}
}
