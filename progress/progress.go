// Package progress renders a terminal progress bar over pipeline events.
package progress

import (
	"time"

	"github.com/pterm/pterm"

	"github.com/mhollis/mailingest/stats"
)

// Bar tracks archive processing on a pterm progress bar. It implements
// stats.Sink. The bar is only enabled at info level so debug output and
// scripted runs stay clean.
type Bar struct {
	pb      *pterm.ProgressbarPrinter
	total   int
	enabled bool
	started time.Time
}

func New(total int, logLevel string) *Bar {
	bar := &Bar{
		total:   total,
		enabled: logLevel == "info",
		started: time.Now(),
	}

	if bar.enabled {
		pb, _ := pterm.DefaultProgressbar.
			WithTotal(total).
			WithTitle("Processing messages").
			Start()
		bar.pb = pb

		pterm.Info.Printf("Total messages in archive: %d\n", total)
		pterm.Println()
	}

	return bar
}

func (b *Bar) Record(evt stats.Event) {
	if !b.enabled || b.pb == nil {
		return
	}

	switch evt.Type {
	case stats.EventScanned:
		b.pb.Increment()
	case stats.EventNormalized:
		if evt.MessageID != "" {
			displayID := evt.MessageID
			if len(displayID) > 40 {
				displayID = displayID[:37] + "..."
			}
			b.pb.UpdateTitle("Processing: " + displayID)
		}
	case stats.EventError:
		if evt.Err != nil {
			pterm.Error.Printf("Error: %v\n", evt.Err)
		}
	case stats.EventBatchFailed:
		pterm.Error.Printf("Batch of %d failed: %v\n", evt.Count, evt.Err)
	}
}

// Stop finalizes the bar and prints the run summary.
func (b *Bar) Stop(summary stats.Summary) {
	if !b.enabled || b.pb == nil {
		return
	}

	if b.pb.Current < b.total {
		b.pb.Current = b.total
	}
	b.pb.Stop()

	pterm.Println()
	pterm.DefaultSection.Println("Summary")
	pterm.Info.Printf("Duration: %v\n", time.Since(b.started).Round(time.Millisecond))
	pterm.Info.Printf("Scanned: %d\n", summary.Scanned)
	if summary.Filtered > 0 {
		pterm.Info.Printf("Filtered out: %d\n", summary.Filtered)
	}
	pterm.Info.Printf("Normalized: %d\n", summary.Normalized)
	pterm.Info.Printf("Dropped (no sender): %d\n", summary.Dropped)
	pterm.Info.Printf("Processed: %d\n", summary.Processed)
	pterm.Info.Printf("Failed: %d\n", summary.Failed)
	if summary.LastError != nil {
		pterm.Error.Printf("Last error: %v\n", summary.LastError)
	}
}
