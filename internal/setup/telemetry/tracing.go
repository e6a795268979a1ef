package telemetry

import (
	"context"

	"github.com/openkeyhub/governance/internal/setup/config"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.uber.org/zap"
)

// SetupTracing configures the OpenTelemetry exporter when a DSN is set.
// The returned function flushes and stops the exporter.
func SetupTracing(cfg *config.Telemetry, version string, logger *zap.Logger) func(context.Context) error {
	if cfg.UptraceDSN == "" {
		logger.Debug("Tracing disabled, no uptrace DSN configured")
		return func(context.Context) error { return nil }
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(version),
		uptrace.WithDeploymentEnvironment(cfg.Environment),
	)

	logger.Info("Tracing enabled",
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment))

	return uptrace.Shutdown
}
