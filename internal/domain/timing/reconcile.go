package timing

import (
	"errors"
	"fmt"
	"time"

	"voclip/internal/media"
)

// ErrDurationUnreconcilable is returned when the stretch factor needed to fit
// the voiceover into the target window falls outside the extended band. The
// owning idea is failed; the batch continues.
var ErrDurationUnreconcilable = errors.New("duration unreconcilable")

// Tolerance is the maximum deviation a reconciled track may show against the
// target duration.
const Tolerance = 20 * time.Millisecond

// Bands bound the pitch-preserving stretch. Factors inside the acceptable
// band are applied as-is; factors inside the extended band are clamped to the
// acceptable edge and the remainder is trimmed or padded symmetrically.
type Bands struct {
	AcceptMin   float64
	AcceptMax   float64
	ExtendedMin float64
	ExtendedMax float64
}

// DefaultBands mirror what a pitch-preserving atempo stretch tolerates
// without audible artifacts.
func DefaultBands() Bands {
	return Bands{AcceptMin: 0.85, AcceptMax: 1.25, ExtendedMin: 0.50, ExtendedMax: 1.80}
}

func (b Bands) validate() error {
	if b.AcceptMin <= 0 || b.AcceptMax < b.AcceptMin {
		return fmt.Errorf("acceptable band [%v, %v] is invalid", b.AcceptMin, b.AcceptMax)
	}
	if b.ExtendedMin > b.AcceptMin || b.ExtendedMax < b.AcceptMax {
		return fmt.Errorf("extended band [%v, %v] must contain acceptable band", b.ExtendedMin, b.ExtendedMax)
	}
	return nil
}

// Plan describes how to turn a raw voiceover into a track of exactly the
// target duration: stretch by Factor via the external toolkit, then trim or
// pad the stretched result symmetrically.
type Plan struct {
	Factor   float64
	TrimLead time.Duration
	TrimTail time.Duration
	PadLead  time.Duration
	PadTail  time.Duration
}

// Exact reports whether the stretch alone hits the target, with no trim or
// pad step needed.
func (p Plan) Exact() bool {
	return p.TrimLead == 0 && p.TrimTail == 0 && p.PadLead == 0 && p.PadTail == 0
}

// Reconcile computes the plan for fitting raw into target.
func Reconcile(raw, target time.Duration, b Bands) (Plan, error) {
	if raw <= 0 || target <= 0 {
		return Plan{}, fmt.Errorf("reconcile: durations must be positive (raw=%v target=%v)", raw, target)
	}
	if err := b.validate(); err != nil {
		return Plan{}, fmt.Errorf("reconcile: %w", err)
	}

	factor := raw.Seconds() / target.Seconds()
	switch {
	case factor >= b.AcceptMin && factor <= b.AcceptMax:
		return Plan{Factor: factor}, nil
	case factor < b.ExtendedMin || factor > b.ExtendedMax:
		return Plan{}, fmt.Errorf("%w: factor %.3f outside extended band [%.2f, %.2f]",
			ErrDurationUnreconcilable, factor, b.ExtendedMin, b.ExtendedMax)
	}

	clamped := b.AcceptMax
	if factor < b.AcceptMin {
		clamped = b.AcceptMin
	}
	stretched := time.Duration(float64(raw) / clamped)
	delta := stretched - target

	p := Plan{Factor: clamped}
	if delta > 0 {
		p.TrimLead = delta / 2
		p.TrimTail = delta - p.TrimLead
	} else if delta < 0 {
		pad := -delta
		p.PadLead = pad / 2
		p.PadTail = pad - p.PadLead
	}
	return p, nil
}

// Finalize applies the plan's trim/pad step to the already-stretched track
// and verifies the result lands within tolerance of the target.
func (p Plan) Finalize(stretched media.Track, target time.Duration) (media.Track, error) {
	out := stretched
	if p.TrimLead > 0 || p.TrimTail > 0 {
		out = out.Trim(p.TrimLead, p.TrimTail)
	}
	if p.PadLead > 0 || p.PadTail > 0 {
		out = out.PadSilence(p.PadLead, p.PadTail)
	}

	// The external stretch is approximate; absorb any residual drift so the
	// final track meets the target exactly within tolerance.
	if drift := out.Duration() - target; drift > Tolerance {
		out = out.Trim(0, drift)
	} else if drift < -Tolerance {
		out = out.PadSilence(0, -drift)
	}

	if diff := absDur(out.Duration() - target); diff > Tolerance {
		return media.Track{}, fmt.Errorf("reconcile: final duration %v misses target %v by %v", out.Duration(), target, diff)
	}
	return out, nil
}

func absDur(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
