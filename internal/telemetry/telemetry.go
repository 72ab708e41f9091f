package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	otelconf "go.opentelemetry.io/contrib/otelconf/v0.3.0"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
)

// SDK wraps the OpenTelemetry SDK initialized from a configuration file.
type SDK struct {
	sdk otelconf.SDK
}

// InitFromConfig initializes the OpenTelemetry SDK from a YAML file using the
// opentelemetry-configuration schema. Returns a nil SDK when telemetry is
// disabled or the config file does not exist.
func InitFromConfig(ctx context.Context, configPath string, logger *slog.Logger) (*SDK, error) {
	if os.Getenv("OTEL_SDK_DISABLED") == "true" {
		return nil, nil
	}

	configBytes, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read otel config file: %w", err)
	}

	config, err := otelconf.ParseYAML(configBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse otel config: %w", err)
	}

	if config.Disabled != nil && *config.Disabled {
		return nil, nil
	}

	sdk, err := otelconf.NewSDK(
		otelconf.WithOpenTelemetryConfiguration(*config),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create otel SDK: %w", err)
	}

	otel.SetTracerProvider(sdk.TracerProvider())
	otel.SetMeterProvider(sdk.MeterProvider())
	global.SetLoggerProvider(sdk.LoggerProvider())

	logger.Info("opentelemetry initialized", "config", configPath)

	return &SDK{sdk: sdk}, nil
}

// Shutdown gracefully shuts down the OpenTelemetry SDK.
func (s *SDK) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.sdk.Shutdown(ctx)
}
