package ingest

import (
	"context"
	"log/slog"

	"github.com/mhollis/mailingest/model"
	"github.com/mhollis/mailingest/stats"
)

// DefaultBatchSize is the number of records per submission when none is
// configured.
const DefaultBatchSize = 50

// Dispatcher accumulates canonical records and submits them in fixed-size
// batches, in archive order. A transport-level failure counts the entire
// batch as failed and the run continues with the next batch; there is no
// retry, so a transient endpoint outage loses at most the batches it
// overlaps. In dry-run mode nothing is sent and every record counts as
// processed.
type Dispatcher struct {
	client    *Client
	sourceID  string
	batchSize int
	dryRun    bool
	sink      stats.Sink
	logger    *slog.Logger

	batch     []model.CanonicalMessage
	processed int
	failed    int
}

func NewDispatcher(client *Client, sourceID string, batchSize int, dryRun bool, sink stats.Sink, logger *slog.Logger) *Dispatcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if sink == nil {
		sink = stats.Nop
	}
	return &Dispatcher{
		client:    client,
		sourceID:  sourceID,
		batchSize: batchSize,
		dryRun:    dryRun,
		sink:      sink,
		logger:    logger,
		batch:     make([]model.CanonicalMessage, 0, batchSize),
	}
}

// Add appends one record, submitting the batch when it is full. The only
// error returned is context cancellation; batch failures are absorbed into
// the failed total.
func (d *Dispatcher) Add(ctx context.Context, msg model.CanonicalMessage) error {
	d.batch = append(d.batch, msg)
	if len(d.batch) >= d.batchSize {
		return d.submit(ctx)
	}
	return nil
}

// Flush submits the remaining partial batch, if any. Call once after the
// archive is exhausted.
func (d *Dispatcher) Flush(ctx context.Context) error {
	if len(d.batch) == 0 {
		return nil
	}
	return d.submit(ctx)
}

// Totals reports the accumulated processed and failed counts.
func (d *Dispatcher) Totals() (processed, failed int) {
	return d.processed, d.failed
}

func (d *Dispatcher) submit(ctx context.Context) error {
	size := len(d.batch)
	defer func() { d.batch = d.batch[:0] }()

	if d.dryRun {
		d.processed += size
		d.sink.Record(stats.Event{Type: stats.EventBatchSent, Count: size, Processed: size})
		if d.logger != nil {
			d.logger.Debug("dry-run batch", "size", size)
		}
		return nil
	}

	result, err := d.client.Ingest(ctx, d.batch, d.sourceID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.failed += size
		d.sink.Record(stats.Event{Type: stats.EventBatchFailed, Count: size, Err: err})
		if d.logger != nil {
			d.logger.Error("batch submission failed", "size", size, "err", err)
		}
		return nil
	}

	d.processed += result.Processed
	d.failed += result.Failed
	d.sink.Record(stats.Event{
		Type:      stats.EventBatchSent,
		Count:     size,
		Processed: result.Processed,
		Failed:    result.Failed,
	})
	if d.logger != nil {
		d.logger.Debug("batch submitted", "size", size, "processed", result.Processed, "failed", result.Failed)
	}
	return nil
}
