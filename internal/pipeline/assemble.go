package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"voclip/internal/ports"
	"voclip/internal/types"
)

// assemble concatenates the successful clips in their original idea order and
// writes the manifest and delivery sidecar next to the final video.
func assemble(ctx context.Context, media ports.MediaToolkit, outDir, source, runID string, results []*types.ClipResult) (finalVideo, manifestPath string, err error) {
	finalVideo = filepath.Join(outDir, "final.mp4")

	clips := make([]string, len(results))
	for i, r := range results {
		clips[i] = r.VideoRef
	}
	if err := media.ConcatClips(ctx, clips, finalVideo); err != nil {
		return "", "", err
	}

	manifest := types.Manifest{
		Source: source,
		RunID:  runID,
		Output: finalVideo,
		Clips:  make([]types.ManifestClip, 0, len(results)),
	}
	sidecar := make([]types.SidecarEntry, 0, len(results))
	for _, r := range results {
		id := filepath.Base(r.VideoRef)
		id = id[:len(id)-len(filepath.Ext(id))]
		manifest.Clips = append(manifest.Clips, types.ManifestClip{
			ID:       id,
			Title:    r.Idea.Title,
			StartSec: r.Idea.StartSec,
			EndSec:   r.Idea.EndSec,
			File:     r.VideoRef,
			Cues:     filepath.Join(outDir, "cues", id+".json"),
		})
		sidecar = append(sidecar, types.SidecarEntry{
			Title:       r.Idea.Title,
			Description: r.Idea.Description,
		})
	}

	manifestPath = filepath.Join(outDir, "manifest.json")
	if err := writeJSON(manifestPath, manifest); err != nil {
		return "", "", err
	}
	if err := writeJSON(filepath.Join(outDir, "sidecar.json"), sidecar); err != nil {
		return "", "", err
	}
	return finalVideo, manifestPath, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
