package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spectralab/spectral-server/internal/app"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config.yaml")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, *cfgPath)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Server.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("serve: %v", err)
		}
	case <-ctx.Done():
		application.Log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		application.Log.Error("shutdown failed", "error", err)
	}
	if err := application.Close(shutdownCtx); err != nil {
		application.Log.Error("close failed", "error", err)
	}
}
