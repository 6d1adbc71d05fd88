// Package stats is the event sink for the ingestion pipeline. The core
// emits events instead of printing, so normalization and dispatch stay free
// of output side effects and observers (collector, progress bar) are
// swappable in tests.
package stats

import (
	"fmt"
	"sort"
)

type EventType string

const (
	// EventScanned fires once per message the archive yields, including
	// messages that are later filtered, dropped or failed.
	EventScanned EventType = "scanned"

	// EventFiltered marks a message excluded by the configured filters.
	EventFiltered EventType = "filtered"

	// EventNormalized marks a message converted to a canonical record.
	EventNormalized EventType = "normalized"

	// EventDropped marks a message silently dropped for lack of a sender.
	EventDropped EventType = "dropped"

	// EventError marks a message lost to a decode or normalization fault.
	EventError EventType = "error"

	// EventBatchSent marks one accepted batch submission.
	EventBatchSent EventType = "batch_sent"

	// EventBatchFailed marks a batch whose submission failed in transport;
	// every message in it counts as failed.
	EventBatchFailed EventType = "batch_failed"
)

type Event struct {
	Type      EventType
	MessageID string
	Count     int // batch size for batch events
	Processed int
	Failed    int
	Err       error
}

// Sink receives pipeline events. The pipeline is strictly sequential, so
// implementations need no locking.
type Sink interface {
	Record(Event)
}

// Multi fans events out to several sinks in order.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

type multiSink []Sink

func (m multiSink) Record(evt Event) {
	for _, s := range m {
		s.Record(evt)
	}
}

// Summary is the aggregate outcome of a run.
type Summary struct {
	Scanned    int
	Filtered   int
	Normalized int
	Dropped    int
	Errors     int
	Batches    int
	Processed  int
	Failed     int
	LastError  error
}

func (s Summary) LogAttrs() []any {
	attrs := []any{
		"scanned", s.Scanned,
		"filtered", s.Filtered,
		"normalized", s.Normalized,
		"dropped", s.Dropped,
		"errors", s.Errors,
		"batches", s.Batches,
		"processed", s.Processed,
		"failed", s.Failed,
	}
	if s.LastError != nil {
		attrs = append(attrs, "lastError", s.LastError.Error())
	}
	return attrs
}

// Collector accumulates events into a Summary.
type Collector struct {
	summary Summary
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Record(evt Event) {
	switch evt.Type {
	case EventScanned:
		c.summary.Scanned++
	case EventFiltered:
		c.summary.Filtered++
	case EventNormalized:
		c.summary.Normalized++
	case EventDropped:
		c.summary.Dropped++
	case EventError:
		c.summary.Errors++
		if evt.Err != nil {
			c.summary.LastError = evt.Err
		}
	case EventBatchSent:
		c.summary.Batches++
		c.summary.Processed += evt.Processed
		c.summary.Failed += evt.Failed
	case EventBatchFailed:
		c.summary.Batches++
		c.summary.Failed += evt.Count
		if evt.Err != nil {
			c.summary.LastError = evt.Err
		}
	}
}

func (c *Collector) Summary() Summary {
	return c.summary
}

// PrettyPrintTop prints the top N most frequent items in a map.
func PrettyPrintTop(m map[string]int, limit int) {
	type pair struct {
		Key   string
		Value int
	}

	var pairs []pair
	for k, v := range m {
		pairs = append(pairs, pair{k, v})
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Value > pairs[j].Value
	})

	for i := 0; i < limit && i < len(pairs); i++ {
		fmt.Printf("%d. %s (%d)\n", i+1, pairs[i].Key, pairs[i].Value)
	}
}

// Nop is a Sink that discards all events.
var Nop Sink = nopSink{}

type nopSink struct{}

func (nopSink) Record(Event) {}
