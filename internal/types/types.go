package types

import "time"

// ClipIdea is one AI-proposed short-form clip candidate. It is produced by
// the upstream idea generator and is read-only input to the pipeline.
type ClipIdea struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Script      string  `json:"script"`
	StartSec    float64 `json:"start_sec"`
	EndSec      float64 `json:"end_sec"`
	VoiceStyle  string  `json:"voice_style,omitempty"`
}

func (c ClipIdea) Start() time.Duration { return dur(c.StartSec) }
func (c ClipIdea) End() time.Duration   { return dur(c.EndSec) }

// Cue is one serialized subtitle entry of a timing map. Times are absolute
// milliseconds from clip start; highlight offsets are relative to StartMS.
type Cue struct {
	StartMS              int64   `json:"start_ms"`
	EndMS                int64   `json:"end_ms"`
	Text                 string  `json:"text"`
	HighlightedWordIndex int     `json:"highlighted_word_index"`
	WordHighlightOffsets []int64 `json:"word_highlight_offsets_ms"`
}

// ClipResult is the terminal artifact of one successfully processed idea.
type ClipResult struct {
	Ordinal  int
	Idea     ClipIdea
	VideoRef string
	AudioRef string
	Cues     []Cue
}

// SidecarEntry is the per-clip delivery metadata written alongside the
// rendered video.
type SidecarEntry struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Manifest struct {
	Source string         `json:"source"`
	RunID  string         `json:"run_id"`
	Output string         `json:"output"`
	Clips  []ManifestClip `json:"clips"`
}

type ManifestClip struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
	File     string  `json:"file"`
	Cues     string  `json:"cues"`
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
