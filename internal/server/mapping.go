package server

import (
	"errors"
	"net/http"

	"github.com/spectralab/spectral-server/internal/analysis"
	"github.com/spectralab/spectral-server/internal/filestore"
	"github.com/spectralab/spectral-server/internal/transcribe"
)

// transcribeStatus maps a transcription failure onto an HTTP status and a
// client-facing detail message.
func transcribeStatus(err error) (int, string) {
	code, ok := transcribe.CodeOf(err)
	if !ok {
		return http.StatusInternalServerError, "Transcription failed"
	}

	switch code {
	case transcribe.CodeModelNotFound:
		return http.StatusNotFound, "Model was not found"
	case transcribe.CodeAuthMissing:
		return http.StatusUnauthorized, "Missing API key for model"
	case transcribe.CodeBackendUnavailable:
		return http.StatusBadGateway, "Transcription backend unavailable"
	case transcribe.CodeMalformedSegments:
		return http.StatusUnprocessableEntity, "Backend returned malformed segments"
	case transcribe.CodeUnsupportedCheckpoint:
		return http.StatusInternalServerError, "Model checkpoint is not configured"
	default:
		return http.StatusInternalServerError, "Transcription failed"
	}
}

func analysisStatus(err error) (int, string) {
	switch {
	case errors.Is(err, filestore.ErrNotFound):
		return http.StatusNotFound, "File not found"
	case errors.Is(err, analysis.ErrMissingID):
		return http.StatusNotFound, "file state did not include id"
	case errors.Is(err, analysis.ErrInvalidFrame):
		return http.StatusBadRequest, "Invalid frame index"
	default:
		return http.StatusInternalServerError, "Analysis failed"
	}
}
