package phrase

import (
	"errors"
	"fmt"
	"time"

	"voclip/internal/types"
)

// ErrInvalidTimingMap marks an internal invariant violation. It indicates a
// defect in an upstream stage and is surfaced, never silently corrected.
var ErrInvalidTimingMap = errors.New("invalid timing map")

// TimingMap is the ordered, non-overlapping cue sequence driving subtitle
// burn-in and word highlighting. Gaps between phrases are allowed and mean
// "no subtitle shown".
type TimingMap struct {
	Phrases  []Phrase
	Duration time.Duration
}

// BuildTimingMap clamps the phrase sequence to [0, trackDur] and verifies
// the ordering invariants.
func BuildTimingMap(phrases []Phrase, trackDur time.Duration) (TimingMap, error) {
	if trackDur <= 0 {
		return TimingMap{}, fmt.Errorf("%w: track duration %v", ErrInvalidTimingMap, trackDur)
	}
	if len(phrases) == 0 {
		return TimingMap{Duration: trackDur}, nil
	}

	out := make([]Phrase, len(phrases))
	copy(out, phrases)
	if out[0].Start < 0 {
		out[0].Start = 0
	}
	if last := len(out) - 1; out[last].End > trackDur {
		out[last].End = trackDur
	}

	lastOrdinal := -1
	for i, ph := range out {
		if ph.End <= ph.Start {
			return TimingMap{}, fmt.Errorf("%w: phrase %d has non-positive span [%v, %v]", ErrInvalidTimingMap, i, ph.Start, ph.End)
		}
		if ph.Start < 0 || ph.End > trackDur {
			return TimingMap{}, fmt.Errorf("%w: phrase %d [%v, %v] outside track [0, %v]", ErrInvalidTimingMap, i, ph.Start, ph.End, trackDur)
		}
		if i > 0 && ph.Start < out[i-1].End {
			return TimingMap{}, fmt.Errorf("%w: phrase %d starts at %v before previous end %v", ErrInvalidTimingMap, i, ph.Start, out[i-1].End)
		}
		if len(ph.Words) == 0 {
			return TimingMap{}, fmt.Errorf("%w: phrase %d has no words", ErrInvalidTimingMap, i)
		}
		for _, w := range ph.Words {
			if w.Ordinal <= lastOrdinal {
				return TimingMap{}, fmt.Errorf("%w: word ordinal %d not increasing in phrase %d", ErrInvalidTimingMap, w.Ordinal, i)
			}
			lastOrdinal = w.Ordinal
			if w.Offset < 0 || ph.Start+w.Offset > ph.End {
				return TimingMap{}, fmt.Errorf("%w: highlight offset %v outside phrase %d", ErrInvalidTimingMap, w.Offset, i)
			}
		}
	}
	return TimingMap{Phrases: out, Duration: trackDur}, nil
}

// Cues serializes the map to the downstream wire form. Each cue carries the
// global index of the first word spoken in the phrase plus per-word highlight
// offsets relative to the cue start.
func (m TimingMap) Cues() []types.Cue {
	if len(m.Phrases) == 0 {
		return nil
	}
	cues := make([]types.Cue, len(m.Phrases))
	for i, ph := range m.Phrases {
		offsets := make([]int64, len(ph.Words))
		for j, w := range ph.Words {
			offsets[j] = w.Offset.Milliseconds()
		}
		cues[i] = types.Cue{
			StartMS:              ph.Start.Milliseconds(),
			EndMS:                ph.End.Milliseconds(),
			Text:                 ph.Text,
			HighlightedWordIndex: ph.Words[0].Ordinal,
			WordHighlightOffsets: offsets,
		}
	}
	return cues
}
