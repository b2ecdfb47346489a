package phrase

import (
	"strings"
	"time"

	"voclip/internal/domain/silence"
	"voclip/internal/domain/timing"
)

// WordMark ties a script word to its highlight moment inside a phrase.
// Offset is relative to the phrase start.
type WordMark struct {
	Ordinal int
	Offset  time.Duration
}

// Phrase is a run of words displayed together as one subtitle.
type Phrase struct {
	Text  string
	Start time.Duration
	End   time.Duration
	Words []WordMark
}

// Params tunes segmentation. Zero values pick the defaults below.
type Params struct {
	// HardBreak is the minimum silence duration that ends a phrase. Shorter
	// pauses are absorbed so the caption does not flicker.
	HardBreak time.Duration
	// MaxWords caps the words shown at once.
	MaxWords int
	// MaxSpan caps how long a single phrase may stay on screen.
	MaxSpan time.Duration
}

const (
	DefaultHardBreak = 300 * time.Millisecond
	DefaultMaxWords  = 9
	DefaultMaxSpan   = 6 * time.Second
)

func (p Params) withDefaults() Params {
	if p.HardBreak <= 0 {
		p.HardBreak = DefaultHardBreak
	}
	if p.MaxWords <= 0 {
		p.MaxWords = DefaultMaxWords
	}
	if p.MaxSpan <= 0 {
		p.MaxSpan = DefaultMaxSpan
	}
	return p
}

// Segment merges estimated word spans with detected silences into display
// phrases. A silence at least HardBreak long closes the phrase at the
// boundary of the token it starts in (a silence sitting exactly on two
// tokens' shared boundary is attributed to the earlier token); the next
// phrase begins after the silence, clamped into the next token when the
// silence outlasts it. Shorter silences never produce a boundary. Phrases
// also close at the readability caps.
func Segment(tokens []timing.Token, silences []silence.Interval, p Params) []Phrase {
	p = p.withDefaults()
	if len(tokens) == 0 {
		return nil
	}

	hard := make([]silence.Interval, 0, len(silences))
	for _, iv := range silences {
		if iv.Duration() >= p.HardBreak {
			hard = append(hard, iv)
		}
	}

	var (
		out       []Phrase
		cur       []timing.Token
		curStart  time.Duration
		nextStart time.Duration // earliest start for the phrase after a hard break
		si        int
	)

	open := func(tok timing.Token) {
		start := tok.Start
		// After a hard break the caption reappears when the silence ends.
		// A silence outlasting the whole token clamps to just before the
		// token's end so the phrase keeps a positive span.
		if nextStart > start {
			start = max(tok.Start, min(nextStart, tok.End-time.Millisecond))
		}
		nextStart = 0
		curStart = start
		cur = cur[:0]
	}
	flush := func(end time.Duration) {
		out = append(out, buildPhrase(cur, curStart, end))
		cur = cur[:0]
	}

	for _, tok := range tokens {
		if len(cur) == 0 {
			open(tok)
		} else if len(cur)+1 > p.MaxWords || tok.End-curStart > p.MaxSpan {
			flush(cur[len(cur)-1].End)
			open(tok)
		}
		cur = append(cur, tok)

		// Hard silences starting within this token's span (or exactly at its
		// end) close the phrase here.
		for si < len(hard) && hard[si].Start <= tok.End {
			s := hard[si]
			si++
			if s.Start < curStart {
				continue // already consumed by an earlier break
			}
			flush(tok.End)
			nextStart = s.End
			break
		}
	}
	if len(cur) > 0 {
		flush(cur[len(cur)-1].End)
	}
	return out
}

func buildPhrase(tokens []timing.Token, start, end time.Duration) Phrase {
	words := make([]string, len(tokens))
	marks := make([]WordMark, len(tokens))
	for i, tok := range tokens {
		words[i] = tok.Text
		off := tok.Start - start
		if off < 0 {
			off = 0
		}
		marks[i] = WordMark{Ordinal: tok.Index, Offset: off}
	}
	return Phrase{
		Text:  strings.Join(words, " "),
		Start: start,
		End:   end,
		Words: marks,
	}
}
