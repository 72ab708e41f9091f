// Package app wires configuration, storage, engines, and the HTTP server
// into one runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spectralab/spectral-server/internal/acoustics"
	"github.com/spectralab/spectral-server/internal/analysis"
	"github.com/spectralab/spectral-server/internal/audio"
	"github.com/spectralab/spectral-server/internal/config"
	"github.com/spectralab/spectral-server/internal/filestore"
	"github.com/spectralab/spectral-server/internal/health"
	"github.com/spectralab/spectral-server/internal/monitor"
	"github.com/spectralab/spectral-server/internal/server"
	"github.com/spectralab/spectral-server/internal/telemetry"
	"github.com/spectralab/spectral-server/internal/transcribe"
	"github.com/spectralab/spectral-server/internal/transcribe/allosaurus"
	"github.com/spectralab/spectral-server/internal/transcribe/deepgram"
	"github.com/spectralab/spectral-server/internal/transcribe/localmodel"
	"github.com/spectralab/spectral-server/internal/transcribe/whisperapi"
)

type Application struct {
	Config config.Config
	Log    *slog.Logger
	Server *server.Server

	localEngine *localmodel.Engine
	analyzer    *acoustics.Praat
	telemetry   *telemetry.SDK
}

func New(ctx context.Context, configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))

	sdk, err := telemetry.InitFromConfig(ctx, "otel.yaml", log)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	store, err := filestore.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open file store: %w", err)
	}

	loadMonitor := monitor.NewSemaphoreLoadMonitor(
		int64(cfg.Transcribe.MaxConcurrency),
		cfg.Health.LoadThreshold,
	)

	localEngine := localmodel.NewEngine(cfg.Transcribe.Checkpoints, loadMonitor, log)

	transcriber := transcribe.NewService(
		deepgram.New(log),
		whisperapi.New(log),
		localEngine,
		allosaurus.NewCLIRecognizer(cfg.Transcribe.Allosaurus, log),
		transcribe.Keys{
			Deepgram: cfg.Transcribe.DeepgramAPIKey,
			OpenAI:   cfg.Transcribe.OpenAIAPIKey,
		},
		cfg.Transcribe.Timeout.Std(),
		log,
	)

	praat, err := acoustics.NewPraat(log, acoustics.WithCommand(cfg.Tools.Praat))
	if err != nil {
		return nil, fmt.Errorf("init praat analyzer: %w", err)
	}

	transcoder := audio.NewTranscoder(cfg.Tools.FFmpeg)
	analyzer := analysis.NewService(store, transcoder, praat, log)
	checker := health.NewChecker(loadMonitor)

	srv := server.New(log, transcriber, analyzer, store, transcoder, checker, cfg.Server.Address)

	return &Application{
		Config:      cfg,
		Log:         log,
		Server:      srv,
		localEngine: localEngine,
		analyzer:    praat,
		telemetry:   sdk,
	}, nil
}

func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.localEngine != nil {
		errs = append(errs, a.localEngine.Close())
	}
	if a.analyzer != nil {
		errs = append(errs, a.analyzer.Close())
	}
	if a.telemetry != nil {
		errs = append(errs, a.telemetry.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
