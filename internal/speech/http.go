package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"
)

type HTTPConfig struct {
	TranscribeURL string
	SynthesizeURL string
	APIKey        string
	Timeout       time.Duration
}

// HTTPAdapter talks to a speech gateway: multipart audio upload for
// transcription, JSON in / audio out for synthesis.
type HTTPAdapter struct {
	cfg    HTTPConfig
	client *http.Client
}

func NewHTTPAdapter(cfg HTTPConfig) *HTTPAdapter {
	return NewHTTPAdapterWithClient(cfg, &http.Client{})
}

func NewHTTPAdapterWithClient(cfg HTTPConfig, client *http.Client) *HTTPAdapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &HTTPAdapter{cfg: cfg, client: client}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (a *HTTPAdapter) Transcribe(ctx context.Context, audio []byte, opts TranscribeOptions) (string, error) {
	text, err := a.transcribe(ctx, audio, opts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranscriptionUnavailable, err)
	}
	return text, nil
}

func (a *HTTPAdapter) transcribe(ctx context.Context, audio []byte, opts TranscribeOptions) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "audio.raw")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("write audio data: %w", err)
	}
	if opts.Language != "" {
		if err := mw.WriteField("language", opts.Language); err != nil {
			return "", fmt.Errorf("write language field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	u, err := url.Parse(a.cfg.TranscribeURL)
	if err != nil {
		return "", fmt.Errorf("parse transcribe url: %w", err)
	}
	q := u.Query()
	if opts.Encoding != "" {
		q.Set("encoding", opts.Encoding)
	}
	if opts.SampleRate > 0 {
		q.Set("sample_rate", strconv.Itoa(opts.SampleRate))
	}
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	a.authorize(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("transcribe error %d: %s", resp.StatusCode, string(body))
	}

	var out transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	return out.Text, nil
}

type synthesisRequest struct {
	Text     string `json:"text"`
	Voice    string `json:"voice,omitempty"`
	Format   string `json:"format,omitempty"`
	Language string `json:"language,omitempty"`
}

func (a *HTTPAdapter) Synthesize(ctx context.Context, text string, opts SynthesizeOptions) ([]byte, error) {
	audio, err := a.synthesize(ctx, text, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSynthesisUnavailable, err)
	}
	return audio, nil
}

func (a *HTTPAdapter) synthesize(ctx context.Context, text string, opts SynthesizeOptions) ([]byte, error) {
	body, err := json.Marshal(synthesisRequest{Text: text, Voice: opts.Voice, Format: opts.Format, Language: opts.Language})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.SynthesizeURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	a.authorize(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("synthesize error %d: %s", resp.StatusCode, string(msg))
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, nil
}

func (a *HTTPAdapter) authorize(req *http.Request) {
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}
}
