package kanon

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with kanon-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithRun adds a run identifier field to the logger.
func (l *Logger) WithRun(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run", id),
	}
}

// WithK adds a k (minimum cluster size) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithRecords adds a record count field to the logger.
func (l *Logger) WithRecords(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("records", n),
	}
}

// LogPhase logs the end of an optimizer phase.
func (l *Logger) LogPhase(ctx context.Context, p Progress, changed bool, duration time.Duration) {
	l.DebugContext(ctx, "phase completed",
		"phase", p.Phase.String(),
		"round", p.Round,
		"changed", changed,
		"clusters", p.Clusters,
		"loss", p.Loss,
		"duration", duration,
	)
}

// LogRun logs the outcome of an Execute call.
func (l *Logger) LogRun(ctx context.Context, stats *Statistics, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "run failed",
			"error", err,
		)
	case !stats.Converged:
		l.WarnContext(ctx, "run stopped before a fixpoint",
			"reason", stats.StopReason,
			"clusters", stats.NumberOfClusters,
			"rounds", stats.Rounds,
			"final_loss", stats.FinalLoss,
		)
	case stats.TooFewRecords:
		l.WarnContext(ctx, "run completed with fewer records than k",
			"clusters", stats.NumberOfClusters,
			"final_loss", stats.FinalLoss,
		)
	default:
		l.InfoContext(ctx, "run completed",
			"clusters", stats.NumberOfClusters,
			"rounds", stats.Rounds,
			"moved", stats.RecordsMoved,
			"split", stats.ClustersSplit,
			"merged", stats.ClustersMerged,
			"initial_loss", stats.InitialLoss,
			"final_loss", stats.FinalLoss,
			"duration", stats.ExecutionTime,
		)
	}
}
