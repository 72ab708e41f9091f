// Package deepgram is the cloud ASR adapter. It maps Deepgram's prerecorded
// word-level response into the segment model and surfaces the detected
// language code.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/spectralab/spectral-server/internal/model/segment"
)

const defaultBaseURL = "https://api.deepgram.com"

// ErrMissingAPIKey is reported when no credential is available for the
// request. Earlier revisions of this service printed the failure and
// returned an empty transcription, which downstream read as silence.
var ErrMissingAPIKey = errors.New("no api key for deepgram is found")

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type Opt func(c *Client)

// WithBaseURL points the client at a different endpoint, used by tests.
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

// response mirrors the subset of Deepgram's prerecorded schema this adapter
// reads.
type response struct {
	Results struct {
		Channels []struct {
			DetectedLanguage string `json:"detected_language"`
			Alternatives     []struct {
				Transcript string `json:"transcript"`
				Words      []struct {
					Word  string  `json:"word"`
					Start float64 `json:"start"`
					End   float64 `json:"end"`
				} `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe sends the raw audio to the prerecorded listen endpoint and
// returns word-level segments. The model and formatting options are fixed:
// nova with smart formatting, no profanity filter, language detection on.
func (c *Client) Transcribe(ctx context.Context, data []byte, apiKey string) (segment.Transcription, error) {
	if apiKey == "" {
		return segment.Transcription{}, ErrMissingAPIKey
	}

	url := c.baseURL + "/v1/listen?model=nova&smart_format=true&profanity_filter=false&detect_language=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return segment.Transcription{}, fmt.Errorf("build deepgram request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+apiKey)
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return segment.Transcription{}, fmt.Errorf("call deepgram: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return segment.Transcription{}, fmt.Errorf("deepgram http %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return segment.Transcription{}, fmt.Errorf("decode deepgram response: %w", err)
	}

	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return segment.Transcription{}, fmt.Errorf("deepgram response has no alternatives")
	}

	channel := parsed.Results.Channels[0]
	alt := channel.Alternatives[0]

	segments := make([]segment.Segment, 0, len(alt.Words))
	for _, w := range alt.Words {
		segments = append(segments, segment.New(w.Word, w.Start, w.End))
	}

	c.logger.DebugContext(ctx, "deepgram transcription received",
		"words", len(segments),
		"language", channel.DetectedLanguage,
	)

	return segment.Transcription{
		Language: channel.DetectedLanguage,
		Segments: segments,
	}, nil
}
