// Package runner wires the archive adapter, normalizer and dispatcher into
// the single-threaded ingestion pipeline.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mhollis/mailingest/archive"
	"github.com/mhollis/mailingest/config"
	"github.com/mhollis/mailingest/emlx"
	"github.com/mhollis/mailingest/filter"
	"github.com/mhollis/mailingest/ingest"
	"github.com/mhollis/mailingest/mbox"
	"github.com/mhollis/mailingest/model"
	"github.com/mhollis/mailingest/normalize"
	"github.com/mhollis/mailingest/progress"
	"github.com/mhollis/mailingest/stats"
)

type Runner struct {
	cfg    config.Config
	logger *slog.Logger
}

func New(cfg config.Config, logger *slog.Logger) *Runner {
	return &Runner{cfg: cfg, logger: logger}
}

// Run executes the full pipeline: count pass, lifecycle start, the
// sequential scan-normalize-dispatch loop, final flush and lifecycle
// completion. Messages are processed strictly in archive order, one at a
// time. Only archive-level failures return an error; per-message faults are
// absorbed into the summary.
func (r *Runner) Run(ctx context.Context) (stats.Summary, error) {
	f, err := filter.New(filter.Options{
		IncludeHeader: r.cfg.IncludeHeader,
		IncludeBody:   r.cfg.IncludeBody,
		ExcludeHeader: r.cfg.ExcludeHeader,
		ExcludeBody:   r.cfg.ExcludeBody,
	})
	if err != nil {
		return stats.Summary{}, fmt.Errorf("build filter: %w", err)
	}

	adapter, err := r.openAdapter(f)
	if err != nil {
		return stats.Summary{}, err
	}

	total, err := adapter.Count(ctx)
	if err != nil {
		return stats.Summary{}, fmt.Errorf("count archive: %w", err)
	}
	r.logger.Info("archive opened", "path", r.cfg.ArchivePath, "messages", total, "dryRun", r.cfg.DryRun)

	collector := stats.NewCollector()
	bar := progress.New(total, r.cfg.LogLevel)
	sink := stats.Multi(collector, bar)

	client := ingest.NewClient(r.cfg.APIURL, r.cfg.Token, r.logger)
	lifecycle := ingest.NewLifecycle(client, r.cfg.SourceID, r.cfg.DryRun, r.logger)
	dispatcher := ingest.NewDispatcher(client, r.cfg.SourceID, r.cfg.BatchSize, r.cfg.DryRun, sink, r.logger)
	norm := normalize.New(r.logger)

	lifecycle.Start(ctx, total)

	scanErr := adapter.Scan(ctx, func(env archive.Envelope) error {
		sink.Record(stats.Event{Type: stats.EventScanned})

		switch {
		case env.Filtered:
			sink.Record(stats.Event{Type: stats.EventFiltered})
			return nil
		case env.Err != nil:
			sink.Record(stats.Event{Type: stats.EventError, Err: env.Err})
			return nil
		}

		msg, err := norm.Message(env.Raw)
		if err != nil {
			if errors.Is(err, normalize.ErrNoSender) {
				sink.Record(stats.Event{Type: stats.EventDropped})
				return nil
			}
			r.logger.Warn("normalization failed", "err", err)
			sink.Record(stats.Event{Type: stats.EventError, Err: err})
			return nil
		}

		if r.cfg.SkipAttachments {
			msg.Attachments = []model.Attachment{}
		}

		sink.Record(stats.Event{Type: stats.EventNormalized, MessageID: msg.MessageID})
		return dispatcher.Add(ctx, *msg)
	})
	if scanErr == nil {
		scanErr = dispatcher.Flush(ctx)
	}

	lifecycle.Complete(ctx)

	summary := collector.Summary()
	bar.Stop(summary)
	r.logger.Info("run finished", summary.LogAttrs()...)

	if scanErr != nil {
		return summary, fmt.Errorf("scan archive: %w", scanErr)
	}
	return summary, nil
}

func (r *Runner) openAdapter(f *filter.Filter) (archive.Adapter, error) {
	format, err := archive.DetectFormat(r.cfg.ArchivePath, r.cfg.Format)
	if err != nil {
		return nil, err
	}

	switch format {
	case archive.FormatMbox:
		return mbox.NewReader(mbox.Options{Path: r.cfg.ArchivePath, Filter: f}, r.logger)
	case archive.FormatEmlx:
		return emlx.Open(r.cfg.ArchivePath, f, r.logger)
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", format)
	}
}
