package timing

import (
	"strings"
	"time"
)

// Token is one script word with its estimated span. Token spans tile the
// track duration exactly: token i ends where token i+1 starts, the first
// starts at 0 and the last ends at the track duration.
type Token struct {
	Text  string
	Start time.Duration
	End   time.Duration
	Index int
}

// EstimateWords assigns an estimated span to every word of the script,
// proportional to the word's character length and scaled to cover the full
// track duration. This is the fallback model used when no forced-alignment
// signal is available.
func EstimateWords(script string, total time.Duration) []Token {
	words := strings.Fields(script)
	if len(words) == 0 || total <= 0 {
		return nil
	}

	weights := make([]int64, len(words))
	var totalWeight int64
	for i, w := range words {
		weights[i] = wordWeight(w)
		totalWeight += weights[i]
	}

	// Boundaries are computed from cumulative weights in one integer
	// expression each, so rounding can never open a gap or an overlap.
	tokens := make([]Token, len(words))
	var cum int64
	prev := time.Duration(0)
	for i, w := range words {
		cum += weights[i]
		end := time.Duration(int64(total) / totalWeight * cum)
		if rem := int64(total) % totalWeight; rem != 0 {
			end += time.Duration(rem * cum / totalWeight)
		}
		if i == len(words)-1 {
			end = total
		}
		tokens[i] = Token{Text: w, Start: prev, End: end, Index: i}
		prev = end
	}
	return tokens
}

// wordWeight rates a word's speaking time by its rune count. Punctuation-only
// tokens still get a minimum weight so they occupy a span.
func wordWeight(w string) int64 {
	n := int64(len([]rune(w)))
	if n < 1 {
		n = 1
	}
	return n
}
