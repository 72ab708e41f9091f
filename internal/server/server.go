// Package server exposes the analysis and transcription services over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spectralab/spectral-server/internal/analysis"
	"github.com/spectralab/spectral-server/internal/audio"
	"github.com/spectralab/spectral-server/internal/filestore"
	"github.com/spectralab/spectral-server/internal/health"
	"github.com/spectralab/spectral-server/internal/transcribe"
)

type Server struct {
	log         *slog.Logger
	transcriber *transcribe.Service
	analyzer    *analysis.Service
	store       *filestore.Store
	transcoder  *audio.Transcoder
	checker     *health.Checker

	httpServer *http.Server
}

func New(
	log *slog.Logger,
	transcriber *transcribe.Service,
	analyzer *analysis.Service,
	store *filestore.Store,
	transcoder *audio.Transcoder,
	checker *health.Checker,
	address string,
) *Server {
	s := &Server{
		log:         log,
		transcriber: transcriber,
		analyzer:    analyzer,
		store:       store,
		transcoder:  transcoder,
		checker:     checker,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	api := router.Group("/api")
	api.GET("/transcription/:model/:fileId", s.handleTranscribe)
	api.GET("/transcription/:model/:fileId/:apiKey", s.handleTranscribe)
	api.POST("/signals/modes/:mode", s.handleAnalyze)
	api.POST("/transcription/textgrid", s.handleTextGrid)

	router.GET("/healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.log.Info("http server listening", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
