package agent

import (
	"context"
	"log/slog"
)

// Reporter is notified once when a session reaches the completed stage.
type Reporter interface {
	Completed(ctx context.Context, st State, result Result) error
}

type NopReporter struct{}

func (NopReporter) Completed(ctx context.Context, st State, result Result) error {
	return nil
}

// LogReporter writes the final score to a structured logger.
type LogReporter struct {
	Logger *slog.Logger
}

func (r LogReporter) Completed(ctx context.Context, st State, result Result) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Intake completed",
		"session", st.SessionID,
		"total", result.Total,
		"severity", result.Severity,
		"answered", result.Answered,
		"items", result.Items,
		"turns", len(st.History),
	)
	return nil
}
