package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spectralab/spectral-server/internal/analysis"
	"github.com/spectralab/spectral-server/internal/filestore"
	"github.com/spectralab/spectral-server/internal/health"
	"github.com/spectralab/spectral-server/internal/textgrid"
)

type fileStateBody struct {
	FileState analysis.FileState `json:"fileState"`
}

type textGridBody struct {
	Transcriptions []textgrid.Track `json:"transcriptions"`
}

func (s *Server) handleTranscribe(c *gin.Context) {
	ctx := c.Request.Context()
	model := c.Param("model")
	fileID := c.Param("fileId")
	apiKey := c.Param("apiKey")

	file, err := s.store.Fetch(ctx, fileID)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			detail(c, http.StatusNotFound, "File not found")
			return
		}
		s.log.Error("fetch file failed", "file_id", fileID, "error", err)
		detail(c, http.StatusInternalServerError, "Could not fetch file")
		return
	}

	wavData, err := s.transcoder.ConvertToWAV(ctx, file.Data)
	if err != nil {
		s.log.Error("transcode failed", "file_id", fileID, "error", err)
		detail(c, http.StatusBadGateway, "Could not convert recording")
		return
	}

	result, err := s.transcriber.GetTranscription(ctx, model, wavData, apiKey)
	if err != nil {
		s.log.Warn("transcription failed", "model", model, "file_id", fileID, "error", err)
		status, message := transcribeStatus(err)
		detail(c, status, message)
		return
	}

	if err := s.store.StoreTranscription(ctx, fileID, result.Segments); err != nil {
		s.log.Error("store transcription failed", "file_id", fileID, "error", err)
		detail(c, http.StatusInternalServerError, "Could not store transcription")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	mode, err := analysis.ParseMode(c.Param("mode"))
	if err != nil {
		detail(c, http.StatusUnprocessableEntity, "Mode not found")
		return
	}

	var body fileStateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		detail(c, http.StatusUnprocessableEntity, "Invalid file state")
		return
	}

	result, err := s.analyzer.Analyze(c.Request.Context(), mode, &body.FileState)
	if err != nil {
		status, message := analysisStatus(err)
		if status == http.StatusInternalServerError {
			s.log.Error("analysis failed", "mode", mode, "error", err)
		}
		detail(c, status, message)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleTextGrid(c *gin.Context) {
	var body textGridBody
	if err := c.ShouldBindJSON(&body); err != nil {
		detail(c, http.StatusUnprocessableEntity, "Invalid transcriptions")
		return
	}

	grid := textgrid.Convert(body.Transcriptions)
	if grid == "" {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, grid)
}

func (s *Server) handleHealth(c *gin.Context) {
	status := s.checker.Check()
	metrics := s.checker.Metrics()

	code := http.StatusOK
	if status != health.StatusServing {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":         status,
		"activeTasks":    metrics.ActiveTasks,
		"maxTasks":       metrics.MaxTasks,
		"loadPercentage": metrics.LoadPercentage,
	})
}

func detail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"detail": message})
}
