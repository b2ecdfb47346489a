package ffmpeg

import (
	"strings"
	"testing"
	"time"
)

func TestCutArgsCropToVertical(t *testing.T) {
	args := cutArgs("in.mp4", 2*time.Second, 7*time.Second, "out.mp4")
	var filter string
	for i, a := range args {
		if a == "-vf" && i+1 < len(args) {
			filter = args[i+1]
		}
	}
	if filter == "" {
		t.Fatalf("no -vf filter in %v", args)
	}
	// Clips must come out 9:16 at the subtitle canvas resolution.
	if !strings.Contains(filter, "crop=ih*9/16:ih") {
		t.Fatalf("missing vertical crop in %q", filter)
	}
	if !strings.Contains(filter, "scale=1080:1920") {
		t.Fatalf("missing canvas scale in %q", filter)
	}
}

func TestAtempoChainInRange(t *testing.T) {
	if got := atempoChain(1.2); got != "atempo=1.200000" {
		t.Fatalf("atempoChain(1.2) = %q", got)
	}
}

func TestAtempoChainAboveRange(t *testing.T) {
	got := atempoChain(3.0)
	if !strings.HasPrefix(got, "atempo=2.0,") {
		t.Fatalf("expected leading atempo=2.0 stage, got %q", got)
	}
	if !strings.Contains(got, "atempo=1.500000") {
		t.Fatalf("expected 1.5 residual stage, got %q", got)
	}
}

func TestAtempoChainBelowRange(t *testing.T) {
	got := atempoChain(0.3)
	if !strings.HasPrefix(got, "atempo=0.5,") {
		t.Fatalf("expected leading atempo=0.5 stage, got %q", got)
	}
	if !strings.Contains(got, "atempo=0.600000") {
		t.Fatalf("expected 0.6 residual stage, got %q", got)
	}
}

func TestEscapeFilterPath(t *testing.T) {
	got := escapeFilterPath(`C:\subs\a.ass`)
	if !strings.Contains(got, `\\`) || !strings.Contains(got, `\:`) {
		t.Fatalf("unexpected escape: %q", got)
	}
}
