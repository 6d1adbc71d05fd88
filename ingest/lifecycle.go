package ingest

import (
	"context"
	"log/slog"
)

// Lifecycle sends best-effort scan start/completion notifications for a
// source. Notification failures are logged and never affect the ingestion
// result. Disabled entirely without a source id or in dry-run mode.
type Lifecycle struct {
	client   *Client
	sourceID string
	enabled  bool
	logger   *slog.Logger
}

func NewLifecycle(client *Client, sourceID string, dryRun bool, logger *slog.Logger) *Lifecycle {
	return &Lifecycle{
		client:   client,
		sourceID: sourceID,
		enabled:  sourceID != "" && !dryRun,
		logger:   logger,
	}
}

// Start marks the source as processing, carrying the total message count.
func (l *Lifecycle) Start(ctx context.Context, total int) {
	if !l.enabled {
		return
	}
	if err := l.client.SourceStart(ctx, l.sourceID, total); err != nil && l.logger != nil {
		l.logger.Warn("source start notification failed", "sourceID", l.sourceID, "err", err)
	}
}

// Complete marks the source scan as finished.
func (l *Lifecycle) Complete(ctx context.Context) {
	if !l.enabled {
		return
	}
	if err := l.client.SourceComplete(ctx, l.sourceID, "completed"); err != nil && l.logger != nil {
		l.logger.Warn("source complete notification failed", "sourceID", l.sourceID, "err", err)
	}
}
