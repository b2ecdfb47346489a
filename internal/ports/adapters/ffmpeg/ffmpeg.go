package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// cropVertical takes the widest centered 9:16 window and scales it onto the
// 1080x1920 canvas the subtitle styles are laid out for.
const cropVertical = "crop=ih*9/16:ih,scale=1080:1920,format=yuv420p"

func (a *Adapter) CutClip(ctx context.Context, inPath string, start, end time.Duration, outPath string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, cutArgs(inPath, start, end, outPath)...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg cut clip: %w\n%s", err, string(b))
	}
	return nil
}

func cutArgs(inPath string, start, end time.Duration, outPath string) []string {
	return []string{
		"-y",
		"-ss", fmtSeconds(start),
		"-to", fmtSeconds(end),
		"-i", inPath,
		"-vf", cropVertical,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-an",
		outPath,
	}
}

// StretchAudio applies a pitch-preserving tempo change. atempo only accepts
// factors in [0.5, 2.0] per filter instance, so out-of-range factors are
// decomposed into a chain.
func (a *Adapter) StretchAudio(ctx context.Context, inWav string, factor float64, outWav string) error {
	if factor <= 0 {
		return fmt.Errorf("ffmpeg stretch: non-positive factor %f", factor)
	}
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inWav,
		"-filter:a", atempoChain(factor),
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg stretch audio: %w\n%s", err, string(b))
	}
	return nil
}

func atempoChain(factor float64) string {
	var parts []string
	for factor > 2.0 {
		parts = append(parts, "atempo=2.0")
		factor /= 2.0
	}
	for factor < 0.5 {
		parts = append(parts, "atempo=0.5")
		factor /= 0.5
	}
	parts = append(parts, "atempo="+strconv.FormatFloat(factor, 'f', 6, 64))
	return strings.Join(parts, ",")
}

func (a *Adapter) MergeAudio(ctx context.Context, videoPath, wavPath, outPath string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", videoPath,
		"-i", wavPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		outPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg merge audio: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) BurnSubtitles(ctx context.Context, videoPath, assPath, outPath string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", videoPath,
		"-vf", "ass="+escapeFilterPath(assPath),
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "copy",
		outPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg burn subtitles: %w\n%s", err, string(b))
	}
	return nil
}

// ConcatClips joins clips via the concat demuxer. Inputs must share codec
// parameters, which holds because every clip comes out of the same render
// settings.
func (a *Adapter) ConcatClips(ctx context.Context, clipPaths []string, outPath string) error {
	if len(clipPaths) == 0 {
		return fmt.Errorf("ffmpeg concat: no clips")
	}
	listPath := outPath + ".concat.txt"
	var b strings.Builder
	for _, p := range clipPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	if err := os.WriteFile(listPath, []byte(b.String()), 0o644); err != nil {
		return err
	}
	defer os.Remove(listPath)

	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg concat clips: %w\n%s", err, string(out))
	}
	return nil
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	return p
}
