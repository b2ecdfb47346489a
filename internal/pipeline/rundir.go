package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// buildRunOutDir derives a collision-free per-run output directory from the
// source name, a UTC timestamp and the short run ID.
func buildRunOutDir(outRoot, source, runID string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	name = normalizePathSegment(name)
	if name == "" {
		name = "source"
	}
	ts := now.UTC().Format("20060102-150405Z")
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, shortID(runID)))
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 6 {
		id = id[:6]
	}
	return id
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
