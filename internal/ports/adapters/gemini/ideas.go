package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"voclip/internal/types"
)

const ideasPrompt = `You are given a product video. Propose up to %d short-form
micro clips worth publishing. For each clip return: a punchy title, a one or
two sentence description, a voiceover script of 15-40 words, the source time
range to cut, and an optional voice style hint. Respond as a JSON array of
objects with keys: title, description, script, start_sec, end_sec,
voice_style. Time ranges must not overlap and must lie within the video.`

// Ideas uploads the source video and asks the model for clip proposals.
func (a *Adapter) Ideas(ctx context.Context, videoPath string, n int) ([]types.ClipIdea, error) {
	fileURI, mimeType, err := a.uploadFile(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("upload video: %w", err)
	}

	req := generateRequest{
		Contents: []content{{Parts: []part{
			{Text: fmt.Sprintf(ideasPrompt, n)},
			{FileData: &fileData{MimeType: mimeType, FileURI: fileURI}},
		}}},
		GenerationConfig: &generationConfig{ResponseMimeType: "application/json"},
	}
	resp, err := a.generate(ctx, a.model, req)
	if err != nil {
		return nil, err
	}

	text := resp.firstText()
	if text == "" {
		return nil, fmt.Errorf("gemini ideas: empty response")
	}
	var ideas []types.ClipIdea
	if err := json.Unmarshal([]byte(text), &ideas); err != nil {
		return nil, fmt.Errorf("gemini ideas: parse response: %w", err)
	}
	out := ideas[:0]
	for _, idea := range ideas {
		if strings.TrimSpace(idea.Script) == "" || idea.EndSec <= idea.StartSec {
			continue
		}
		out = append(out, idea)
	}
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

type fileInfo struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	State    string `json:"state"`
	MimeType string `json:"mimeType"`
}

// uploadFile pushes the video through the media upload endpoint and waits
// for the file to become ACTIVE before it can be referenced in a prompt.
func (a *Adapter) uploadFile(ctx context.Context, path string) (uri, mimeType string, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	mimeType = "video/mp4"

	url := a.baseURL + "/upload/v1beta/files?uploadType=media"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("x-goog-api-key", a.key)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("upload: status %d: %s", resp.StatusCode, truncate(string(body), 300))
	}

	var wrapper struct {
		File fileInfo `json:"file"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return "", "", fmt.Errorf("upload: decode response: %w", err)
	}
	info := wrapper.File
	if info.URI == "" {
		return "", "", fmt.Errorf("upload: response carried no file URI")
	}

	for info.State == "PROCESSING" {
		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-time.After(2 * time.Second):
		}
		info, err = a.fileState(ctx, info.Name)
		if err != nil {
			return "", "", err
		}
	}
	if info.State != "" && info.State != "ACTIVE" {
		return "", "", fmt.Errorf("upload: file state %s", info.State)
	}
	return info.URI, mimeType, nil
}

func (a *Adapter) fileState(ctx context.Context, name string) (fileInfo, error) {
	var info fileInfo
	url := a.baseURL + "/v1beta/" + strings.TrimPrefix(name, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return info, err
	}
	req.Header.Set("x-goog-api-key", a.key)
	resp, err := a.client.Do(req)
	if err != nil {
		return info, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return info, err
	}
	if resp.StatusCode != http.StatusOK {
		return info, fmt.Errorf("file state: status %d: %s", resp.StatusCode, truncate(string(b), 300))
	}
	if err := json.Unmarshal(b, &info); err != nil {
		return info, err
	}
	return info, nil
}
