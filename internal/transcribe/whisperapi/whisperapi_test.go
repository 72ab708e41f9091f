package whisperapi

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
	type upload struct {
		auth     string
		model    string
		format   string
		grain    string
		filename string
		payload  []byte
	}
	var got upload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		got.auth = r.Header.Get("Authorization")
		got.model = r.FormValue("model")
		got.format = r.FormValue("response_format")
		got.grain = r.FormValue("timestamp_granularities[]")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		got.filename = header.Filename
		got.payload, err = io.ReadAll(file)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"language": "english",
			"text": "hello there",
			"words": [
				{"word": "hello", "start": 0.0, "end": 0.4},
				{"word": "there", "start": 0.5, "end": 0.9}
			]
		}`)
	}))
	defer srv.Close()

	client := New(testLogger(), WithBaseURL(srv.URL))

	result, err := client.Transcribe(context.Background(), []byte("fake-wav"), "sk-test")
	require.NoError(t, err)

	assert.Equal(t, "english", result.Language)
	assert.Equal(t, []segment.Segment{
		segment.New("hello", 0.0, 0.4),
		segment.New("there", 0.5, 0.9),
	}, result.Segments)

	assert.Equal(t, "Bearer sk-test", got.auth)
	assert.Equal(t, "whisper-1", got.model)
	assert.Equal(t, "verbose_json", got.format)
	assert.Equal(t, "word", got.grain)
	assert.Equal(t, "audio.wav", got.filename)
	assert.Equal(t, []byte("fake-wav"), got.payload)
}

func TestTranscribeMissingKey(t *testing.T) {
	client := New(testLogger())

	_, err := client.Transcribe(context.Background(), []byte("fake-wav"), "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestTranscribeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := New(testLogger(), WithBaseURL(srv.URL))

	_, err := client.Transcribe(context.Background(), []byte("fake-wav"), "sk-test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
