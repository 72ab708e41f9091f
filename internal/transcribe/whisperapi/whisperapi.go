// Package whisperapi is the hosted Whisper adapter: it calls OpenAI's
// audio transcription endpoint with word-level timestamp granularity.
package whisperapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/spectralab/spectral-server/internal/model/segment"
)

const (
	defaultBaseURL = "https://api.openai.com"
	modelName      = "whisper-1"
)

var ErrMissingAPIKey = errors.New("no api key for whisper is found")

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type Opt func(c *Client)

func WithBaseURL(url string) Opt {
	return func(c *Client) { c.baseURL = url }
}

func WithHTTPClient(hc *http.Client) Opt {
	return func(c *Client) { c.httpClient = hc }
}

func New(logger *slog.Logger, opts ...Opt) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type response struct {
	Language string `json:"language"`
	Text     string `json:"text"`
	Words    []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

// Transcribe uploads the WAV payload and maps the verbose response's word
// list into segments.
func (c *Client) Transcribe(ctx context.Context, data []byte, apiKey string) (segment.Transcription, error) {
	if apiKey == "" {
		return segment.Transcription{}, ErrMissingAPIKey
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("model", modelName); err != nil {
		return segment.Transcription{}, err
	}
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return segment.Transcription{}, err
	}
	if err := mw.WriteField("timestamp_granularities[]", "word"); err != nil {
		return segment.Transcription{}, err
	}

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return segment.Transcription{}, err
	}
	if _, err := fw.Write(data); err != nil {
		return segment.Transcription{}, err
	}
	if err := mw.Close(); err != nil {
		return segment.Transcription{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return segment.Transcription{}, fmt.Errorf("build whisper request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return segment.Transcription{}, fmt.Errorf("call whisper: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return segment.Transcription{}, fmt.Errorf("whisper http %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return segment.Transcription{}, fmt.Errorf("decode whisper response: %w", err)
	}

	segments := make([]segment.Segment, 0, len(parsed.Words))
	for _, w := range parsed.Words {
		segments = append(segments, segment.New(w.Word, w.Start, w.End))
	}

	c.logger.DebugContext(ctx, "whisper transcription received",
		"words", len(segments),
		"language", parsed.Language,
	)

	return segment.Transcription{
		Language: parsed.Language,
		Segments: segments,
	}, nil
}
