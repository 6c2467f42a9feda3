// Package transcription turns a session's audio track into a stored caption
// document through a speech-to-text provider.
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dmitrijs2005/recviewer/internal/common"
)

// Granularity is a timestamp resolution a provider can report.
type Granularity string

const (
	GranularityWord    Granularity = "word"
	GranularitySegment Granularity = "segment"
)

// Options tune one transcription request.
type Options struct {
	Language      string
	Granularities []Granularity
}

// Segment is a time-aligned piece of recognized speech, in seconds.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type Result struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// Provider is the speech-to-text capability.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, filename string, opts Options) (Result, error)
}

const (
	DefaultTimeout = 5 * time.Minute
	DefaultModel   = "whisper-1"
)

// HTTPProvider talks to an OpenAI-compatible /audio/transcriptions endpoint.
type HTTPProvider struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewHTTPProvider(url, apiKey, model string, timeout time.Duration) *HTTPProvider {
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPProvider{
		url:        url,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Transcribe(ctx context.Context, audio []byte, filename string, opts Options) (Result, error) {
	body, contentType, err := p.encode(audio, filename, opts)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Result{}, common.NewTransportError("transcribe", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, common.NewTransportError("transcribe", fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, common.NewTransportError("transcribe", fmt.Errorf("provider error (status %d): %s", resp.StatusCode, bytes.TrimSpace(raw)))
	}

	var out Result
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{}, common.NewTransportError("transcribe", fmt.Errorf("failed to parse response: %w", err))
	}
	return out, nil
}

func (p *HTTPProvider) encode(audio []byte, filename string, opts Options) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"model", p.model},
		{"response_format", "verbose_json"},
	}
	if opts.Language != "" {
		fields = append(fields, [2]string{"language", opts.Language})
	}
	for _, g := range opts.Granularities {
		fields = append(fields, [2]string{"timestamp_granularities[]", string(g)})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
