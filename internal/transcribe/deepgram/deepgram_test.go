package deepgram

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectralab/spectral-server/internal/model/segment"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTranscribe(t *testing.T) {
	var gotReq *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"results": {"channels": [{"detected_language": "nl", "alternatives": [{
				"transcript": "hallo wereld",
				"words": [
					{"word": "hallo", "start": 0.2, "end": 0.6},
					{"word": "wereld", "start": 0.7, "end": 1.3}
				]
			}]}]}
		}`)
	}))
	defer srv.Close()

	client := New(testLogger(), WithBaseURL(srv.URL))

	got, err := client.Transcribe(context.Background(), []byte("fake-wav"), "key123")
	require.NoError(t, err)

	assert.Equal(t, "nl", got.Language)
	assert.Equal(t, []segment.Segment{
		segment.New("hallo", 0.2, 0.6),
		segment.New("wereld", 0.7, 1.3),
	}, got.Segments)

	require.NotNil(t, gotReq)
	assert.Equal(t, http.MethodPost, gotReq.Method)
	assert.Equal(t, "/v1/listen", gotReq.URL.Path)
	assert.Equal(t, "Token key123", gotReq.Header.Get("Authorization"))
	assert.Equal(t, "audio/wav", gotReq.Header.Get("Content-Type"))

	query := gotReq.URL.Query()
	assert.Equal(t, "nova", query.Get("model"))
	assert.Equal(t, "true", query.Get("smart_format"))
	assert.Equal(t, "false", query.Get("profanity_filter"))
	assert.Equal(t, "true", query.Get("detect_language"))
}

func TestTranscribeMissingKey(t *testing.T) {
	client := New(testLogger())

	_, err := client.Transcribe(context.Background(), []byte("fake-wav"), "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestTranscribeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := New(testLogger(), WithBaseURL(srv.URL))

	_, err := client.Transcribe(context.Background(), []byte("fake-wav"), "key123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestTranscribeNoAlternatives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"results": {"channels": []}}`)
	}))
	defer srv.Close()

	client := New(testLogger(), WithBaseURL(srv.URL))

	_, err := client.Transcribe(context.Background(), []byte("fake-wav"), "key123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no alternatives")
}
