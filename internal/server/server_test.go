package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectralab/spectral-server/internal/analysis"
	"github.com/spectralab/spectral-server/internal/filestore"
	"github.com/spectralab/spectral-server/internal/health"
	"github.com/spectralab/spectral-server/internal/monitor"
	"github.com/spectralab/spectral-server/internal/transcribe"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	checker := health.NewChecker(monitor.NewSemaphoreLoadMonitor(2, 1.0))

	return New(log, nil, nil, nil, nil, checker, ":0")
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := testServer(t)

	rec := do(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"SERVING"`)
}

func TestHealthzOverloaded(t *testing.T) {
	lm := monitor.NewSemaphoreLoadMonitor(1, 0.5)
	require.True(t, lm.TryAcquire())

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(log, nil, nil, nil, nil, health.NewChecker(lm), ":0")

	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"NOT_SERVING"`)
}

func TestTextGridEndpoint(t *testing.T) {
	s := testServer(t)

	body := `{"transcriptions": [{
		"id": "t1",
		"name": "words",
		"captions": [
			{"value": "hi", "start": 0, "end": 0.5},
			{"value": "", "start": 0.5, "end": 1}
		]
	}]}`

	rec := do(t, s, http.MethodPost, "/api/transcription/textgrid", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ooTextFile")
	assert.Contains(t, rec.Body.String(), "words")
}

func TestTextGridEmptyReturnsNull(t *testing.T) {
	s := testServer(t)

	rec := do(t, s, http.MethodPost, "/api/transcription/textgrid", `{"transcriptions": []}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

func TestAnalyzeUnknownMode(t *testing.T) {
	s := testServer(t)

	rec := do(t, s, http.MethodPost, "/api/signals/modes/histogram", `{"fileState": {"id": "x"}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Mode not found")
}

func TestAnalyzeRejectsBadBody(t *testing.T) {
	s := testServer(t)

	rec := do(t, s, http.MethodPost, "/api/signals/modes/simple-info", `{not json`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTranscribeStatusMapping(t *testing.T) {
	cases := []struct {
		code    transcribe.Code
		status  int
		message string
	}{
		{transcribe.CodeModelNotFound, http.StatusNotFound, "Model was not found"},
		{transcribe.CodeAuthMissing, http.StatusUnauthorized, "Missing API key for model"},
		{transcribe.CodeBackendUnavailable, http.StatusBadGateway, "Transcription backend unavailable"},
		{transcribe.CodeMalformedSegments, http.StatusUnprocessableEntity, "Backend returned malformed segments"},
		{transcribe.CodeUnsupportedCheckpoint, http.StatusInternalServerError, "Model checkpoint is not configured"},
	}

	for _, tc := range cases {
		err := &transcribe.Error{Code: tc.code, Message: "test"}
		status, message := transcribeStatus(err)
		assert.Equal(t, tc.status, status, string(tc.code))
		assert.Equal(t, tc.message, message, string(tc.code))
	}

	status, _ := transcribeStatus(errors.New("plain"))
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestAnalysisStatusMapping(t *testing.T) {
	status, message := analysisStatus(filestore.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "File not found", message)

	status, _ = analysisStatus(analysis.ErrMissingID)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = analysisStatus(analysis.ErrInvalidFrame)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = analysisStatus(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
}
