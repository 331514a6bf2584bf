package observability

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// FlushTelemetry runs at the end of every invocation: it writes the metrics
// textfile when metricsPath is non-empty, then flushes the logger.
// Failures are logged and returned but never change the command's outcome.
func FlushTelemetry(ctx context.Context, logger *zap.Logger, metricsPath string) error {
	if err := ctx.Err(); err != nil && logger != nil {
		logger.Debug("flushing telemetry after cancellation", zap.Error(err))
	}
	var first error
	if metricsPath != "" {
		if err := WriteTextfile(metricsPath); err != nil {
			first = err
			if logger != nil {
				logger.Warn("metrics not written", zap.String("path", metricsPath), zap.Error(err))
			}
		}
	}
	if logger != nil {
		// Sync on a console core backed by a terminal returns EINVAL on some platforms.
		if err := logger.Sync(); err != nil && first == nil {
			first = fmt.Errorf("flush logs: %w", err)
		}
	}
	return first
}
