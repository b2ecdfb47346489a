package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Adapter talks to the Gemini API over plain HTTP. It implements both the
// idea-source and speech-synthesizer ports.
type Adapter struct {
	key      string
	model    string
	ttsModel string
	voice    string
	baseURL  string
	client   *http.Client
}

func New(apiKey, model, ttsModel, voice, baseURL string) *Adapter {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if ttsModel == "" {
		ttsModel = "gemini-2.5-flash-preview-tts"
	}
	if voice == "" {
		voice = "Kore"
	}
	baseURL = normalizeBaseURL(baseURL)
	return &Adapter{
		key:      apiKey,
		model:    model,
		ttsModel: ttsModel,
		voice:    voice,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 5 * time.Minute},
	}
}

func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
	FileData   *fileData   `json:"fileData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type fileData struct {
	MimeType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

type generationConfig struct {
	ResponseMimeType   string        `json:"responseMimeType,omitempty"`
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoice `json:"prebuiltVoiceConfig"`
}

type prebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (a *Adapter) generate(ctx context.Context, model string, req generateRequest) (generateResponse, error) {
	var resp generateResponse
	body, err := json.Marshal(req)
	if err != nil {
		return resp, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", a.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return resp, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", a.key)

	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		return resp, err
	}
	defer httpResp.Body.Close()

	b, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return resp, err
	}
	if httpResp.StatusCode != http.StatusOK {
		return resp, fmt.Errorf("gemini %s: status %d: %s", model, httpResp.StatusCode, truncate(string(b), 300))
	}
	if err := json.Unmarshal(b, &resp); err != nil {
		return resp, fmt.Errorf("gemini %s: decode response: %w", model, err)
	}
	return resp, nil
}

func (r generateResponse) firstText() string {
	for _, c := range r.Candidates {
		for _, p := range c.Content.Parts {
			if p.Text != "" {
				return p.Text
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
