package timing

import (
	"strings"
	"testing"
	"time"
)

func TestEstimateWordsCoversDurationExactly(t *testing.T) {
	total := 5 * time.Second
	tokens := EstimateWords("The quick brown fox jumps", total)
	if len(tokens) != 5 {
		t.Fatalf("expected 5 tokens, got %d", len(tokens))
	}
	if tokens[0].Start != 0 {
		t.Fatalf("first token starts at %v, want 0", tokens[0].Start)
	}
	if tokens[len(tokens)-1].End != total {
		t.Fatalf("last token ends at %v, want %v", tokens[len(tokens)-1].End, total)
	}
	for i, tok := range tokens {
		if tok.End <= tok.Start {
			t.Fatalf("token %d has non-positive span: %+v", i, tok)
		}
		if tok.Index != i {
			t.Fatalf("token %d carries ordinal %d", i, tok.Index)
		}
		if i > 0 && tok.Start != tokens[i-1].End {
			t.Fatalf("gap or overlap between token %d and %d: %v vs %v", i-1, i, tokens[i-1].End, tok.Start)
		}
	}
}

func TestEstimateWordsProportionalToLength(t *testing.T) {
	tokens := EstimateWords("a extraordinarily", 6*time.Second)
	short := tokens[0].End - tokens[0].Start
	long := tokens[1].End - tokens[1].Start
	if long <= short {
		t.Fatalf("longer word should get more time: short=%v long=%v", short, long)
	}
	// 1 vs 17 runes: shares should match the weights.
	wantShort := 6 * time.Second / 18
	if absDur(short-wantShort) > time.Millisecond {
		t.Fatalf("short token span = %v, want ~%v", short, wantShort)
	}
}

func TestEstimateWordsPreservesScript(t *testing.T) {
	script := "Grab this deal before the clock runs out"
	tokens := EstimateWords(script, 7*time.Second)
	var words []string
	for _, tok := range tokens {
		words = append(words, tok.Text)
	}
	if got := strings.Join(words, " "); got != script {
		t.Fatalf("token texts = %q, want %q", got, script)
	}
}

func TestEstimateWordsEmptyInput(t *testing.T) {
	if got := EstimateWords("   ", 5*time.Second); got != nil {
		t.Fatalf("expected nil for blank script, got %v", got)
	}
	if got := EstimateWords("hello", 0); got != nil {
		t.Fatalf("expected nil for zero duration, got %v", got)
	}
}

func TestEstimateWordsAwkwardDivisions(t *testing.T) {
	// A duration that does not divide evenly by the weight sum must still
	// tile exactly.
	total := 3333333333 * time.Nanosecond
	tokens := EstimateWords("uneven split of seven words right here", total)
	if tokens[len(tokens)-1].End != total {
		t.Fatalf("last end = %v, want %v", tokens[len(tokens)-1].End, total)
	}
	for i := 1; i < len(tokens); i++ {
		if tokens[i].Start != tokens[i-1].End {
			t.Fatalf("tiling broken at token %d", i)
		}
	}
}
