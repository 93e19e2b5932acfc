package reidset

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with reidset-specific helpers so that dataset
// events use consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, a text handler writing to stderr at info level is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger creates a Logger that writes JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, nil))
}

// WithDataset tags subsequent records with a dataset name.
func (l *Logger) WithDataset(name string) *Logger {
	return &Logger{Logger: l.Logger.With("dataset", name)}
}

// LogSummary logs the per-split counts of a dataset.
func (l *Logger) LogSummary(ctx context.Context, s Summary) {
	for _, name := range splitNames {
		st := s.Split(name)
		l.InfoContext(ctx, "dataset split",
			"kind", s.Kind.String(),
			"split", string(name),
			"ids", st.Identities,
			"items", st.Items,
			"cameras", st.Cameras,
		)
	}
}

// LogCombine logs the outcome of a combination.
func (l *Logger) LogCombine(ctx context.Context, op string, added int, index IdentityIndex) {
	l.DebugContext(ctx, "splits combined",
		"op", op,
		"added", added,
		"ids", index.TotalIdentities(),
		"cameras", index.TotalCameras(),
	)
}

// LogSkipped logs an input entry that a loader ignored.
func (l *Logger) LogSkipped(ctx context.Context, source, entry, reason string) {
	l.WarnContext(ctx, "entry skipped",
		"source", source,
		"entry", entry,
		"reason", reason,
	)
}
