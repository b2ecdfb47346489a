package ports

import (
	"context"
	"time"

	"voclip/internal/types"
)

// MediaToolkit is the external audio/video collaborator. All operations work
// on files; the engine never re-encodes media itself.
type MediaToolkit interface {
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
	CutClip(ctx context.Context, inPath string, start, end time.Duration, outPath string) error
	// StretchAudio performs a pitch-preserving time stretch by factor
	// (factor > 1 speeds up, < 1 slows down).
	StretchAudio(ctx context.Context, inWav string, factor float64, outWav string) error
	MergeAudio(ctx context.Context, videoPath, wavPath, outPath string) error
	BurnSubtitles(ctx context.Context, videoPath, assPath, outPath string) error
	ConcatClips(ctx context.Context, clipPaths []string, outPath string) error
}

// SpeechSynthesizer turns a script into a spoken WAV file.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, script, voiceStyle, outWav string) error
}

// IdeaSource is the upstream generator proposing clip ideas for a source
// video.
type IdeaSource interface {
	Ideas(ctx context.Context, videoPath string, n int) ([]types.ClipIdea, error)
}

// SourceFetcher downloads a remote source video and returns the local path.
type SourceFetcher interface {
	Fetch(ctx context.Context, url, outDir string) (string, error)
}
