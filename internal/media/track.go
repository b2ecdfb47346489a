package media

import "time"

// Track holds decoded PCM audio. Samples are mono float64 in [-1, 1].
// A Track is immutable once produced by a pipeline stage; transformations
// return a new Track.
type Track struct {
	Samples    []float64
	SampleRate int
	Channels   int
}

// Duration derives the playback length from the sample count.
func (t Track) Duration() time.Duration {
	if t.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(t.Samples)) / float64(t.SampleRate) * float64(time.Second))
}

// Trim returns a copy with lead and tail durations removed. Trims larger
// than the track collapse to an empty track rather than panicking.
func (t Track) Trim(lead, tail time.Duration) Track {
	start := t.sampleIndex(lead)
	end := len(t.Samples) - t.sampleIndex(tail)
	if start < 0 {
		start = 0
	}
	if end > len(t.Samples) {
		end = len(t.Samples)
	}
	if start >= end {
		return Track{Samples: nil, SampleRate: t.SampleRate, Channels: t.Channels}
	}
	out := make([]float64, end-start)
	copy(out, t.Samples[start:end])
	return Track{Samples: out, SampleRate: t.SampleRate, Channels: t.Channels}
}

// PadSilence returns a copy with silent samples prepended and appended.
func (t Track) PadSilence(lead, tail time.Duration) Track {
	nLead := t.sampleIndex(lead)
	nTail := t.sampleIndex(tail)
	if nLead < 0 {
		nLead = 0
	}
	if nTail < 0 {
		nTail = 0
	}
	out := make([]float64, nLead+len(t.Samples)+nTail)
	copy(out[nLead:], t.Samples)
	return Track{Samples: out, SampleRate: t.SampleRate, Channels: t.Channels}
}

func (t Track) sampleIndex(d time.Duration) int {
	return int(d.Seconds() * float64(t.SampleRate))
}
