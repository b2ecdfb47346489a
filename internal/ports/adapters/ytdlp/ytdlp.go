package ytdlp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lrstanley/go-ytdlp"
)

// Adapter downloads source videos with yt-dlp, installing the binary on
// first use when it is not already present.
type Adapter struct {
	installOnce sync.Once
}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Fetch(ctx context.Context, url, outDir string) (string, error) {
	a.installOnce.Do(func() {
		ytdlp.MustInstall(ctx, nil)
	})

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	outPath := filepath.Join(outDir, "source.mp4")

	dl := ytdlp.New().
		FormatSort("res,ext:mp4:m4a").
		RecodeVideo("mp4").
		ForceOverwrites().
		Output(outPath)

	if _, err := dl.Run(ctx, url); err != nil {
		return "", fmt.Errorf("yt-dlp fetch %s: %w", url, err)
	}
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("yt-dlp fetch %s: no output file: %w", url, err)
	}
	return outPath, nil
}
