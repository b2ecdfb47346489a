package silence

import (
	"errors"
	"math"
	"time"

	"voclip/internal/media"
)

// ErrInconclusive is returned by Detect when a track yields no silent
// intervals at all. Callers treat it as advisory: phrase segmentation falls
// back to readability-cap-only breaking.
var ErrInconclusive = errors.New("silence detection inconclusive: no silence found")

// Interval is one silent span of a track. Start < End always holds for
// detector output, and returned intervals are sorted and non-overlapping.
type Interval struct {
	Start time.Duration
	End   time.Duration
}

func (iv Interval) Duration() time.Duration { return iv.End - iv.Start }

// Params tunes detection. Zero values pick the defaults below.
type Params struct {
	// ThresholdDB classifies a window as silent when its RMS level in dBFS
	// falls below this value.
	ThresholdDB float64
	// MinDuration discards silent runs shorter than this; brief energy dips
	// inside words must not register as pauses.
	MinDuration time.Duration
	// Window is the analysis window size.
	Window time.Duration
}

const (
	DefaultThresholdDB = -40.0
	DefaultMinDuration = 200 * time.Millisecond
	defaultWindow      = 10 * time.Millisecond
)

func (p Params) withDefaults() Params {
	if p.ThresholdDB == 0 {
		p.ThresholdDB = DefaultThresholdDB
	}
	if p.MinDuration <= 0 {
		p.MinDuration = DefaultMinDuration
	}
	if p.Window <= 0 {
		p.Window = defaultWindow
	}
	return p
}

// Detect scans the track in fixed windows and returns the silent intervals.
// A track producing no qualifying interval yields ErrInconclusive. The scan
// is fully deterministic: identical track and params always produce an
// identical interval list.
func Detect(t media.Track, p Params) ([]Interval, error) {
	p = p.withDefaults()
	if t.SampleRate <= 0 || len(t.Samples) == 0 {
		return nil, ErrInconclusive
	}

	winSamples := int(p.Window.Seconds() * float64(t.SampleRate))
	if winSamples < 1 {
		winSamples = 1
	}

	var (
		out       []Interval
		inSilence bool
		runStart  int
	)
	flush := func(endSample int) {
		iv := Interval{
			Start: sampleTime(runStart, t.SampleRate),
			End:   sampleTime(endSample, t.SampleRate),
		}
		if iv.Duration() >= p.MinDuration {
			out = append(out, iv)
		}
	}

	for off := 0; off < len(t.Samples); off += winSamples {
		end := off + winSamples
		if end > len(t.Samples) {
			end = len(t.Samples)
		}
		silent := rmsDB(t.Samples[off:end]) < p.ThresholdDB
		switch {
		case silent && !inSilence:
			inSilence = true
			runStart = off
		case !silent && inSilence:
			inSilence = false
			flush(off)
		}
	}
	if inSilence {
		flush(len(t.Samples))
	}
	if len(out) == 0 {
		return nil, ErrInconclusive
	}
	return out, nil
}

// rmsDB computes the window level in dBFS. An all-zero window maps to the
// floor value rather than -Inf.
func rmsDB(samples []float64) float64 {
	const floorDB = -120.0
	var acc float64
	for _, s := range samples {
		acc += s * s
	}
	rms := math.Sqrt(acc / float64(len(samples)))
	if rms <= 0 {
		return floorDB
	}
	db := 20 * math.Log10(rms)
	if db < floorDB {
		return floorDB
	}
	return db
}

func sampleTime(i, rate int) time.Duration {
	return time.Duration(float64(i) / float64(rate) * float64(time.Second))
}
