// Package mbox reads mailbox-style flat-file archives: whole RFC 5322
// messages concatenated with From-line delimiters.
package mbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	mboxlib "github.com/emersion/go-mbox"
	"github.com/jhillyerd/enmime"

	"github.com/mhollis/mailingest/archive"
	"github.com/mhollis/mailingest/filter"
)

// SourceTag namespaces generated message identifiers for flat-file sources.
const SourceTag = "mbox-import"

type Options struct {
	Path   string
	Filter *filter.Filter
}

// Reader enumerates an mbox file. It implements archive.Adapter.
type Reader struct {
	path   string
	filter *filter.Filter
	logger *slog.Logger
}

func NewReader(opts Options, logger *slog.Logger) (*Reader, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return nil, fmt.Errorf("mbox path is empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open mbox: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("mbox path %s is a directory", path)
	}

	return &Reader{path: path, filter: opts.Filter, logger: logger}, nil
}

// Count enumerates the archive once without parsing, returning the total
// message count. Used for the progress total and the lifecycle start
// notification.
func (r *Reader) Count(ctx context.Context) (int, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return 0, fmt.Errorf("open mbox: %w", err)
	}
	defer file.Close()

	reader := mboxlib.NewReader(file)
	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		msgReader, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return 0, fmt.Errorf("count message %d: %w", count, err)
		}

		// Consume without parsing; a message we cannot read still counts.
		_, _ = io.Copy(io.Discard, msgReader)
		count++
	}
}

// Scan walks the archive in order, invoking fn once per message. Broken
// messages are delivered as error envelopes; only container-level read
// failures abort the scan.
func (r *Reader) Scan(ctx context.Context, fn func(archive.Envelope) error) error {
	file, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("open mbox: %w", err)
	}
	defer file.Close()

	reader := mboxlib.NewReader(file)
	for idx := 0; ; idx++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		msgReader, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("message %d: %w", idx, err)
		}

		raw, err := io.ReadAll(msgReader)
		if err != nil {
			return fmt.Errorf("message %d read: %w", idx, err)
		}

		if r.filter != nil && r.filter.Active() {
			header, body := archive.SplitRaw(raw)
			if !r.filter.Allows(header, body) {
				if err := fn(archive.Envelope{Filtered: true}); err != nil {
					return err
				}
				continue
			}
		}

		env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
		if err != nil {
			if r.logger != nil {
				r.logger.Warn("undecodable mbox message", "index", idx, "err", err)
			}
			if err := fn(archive.Envelope{Err: fmt.Errorf("message %d: %w", idx, err)}); err != nil {
				return err
			}
			continue
		}

		// Flat files carry no delivery metadata; the Date header rules.
		if err := fn(archive.Envelope{Raw: archive.NewMIMEMessage(env, SourceTag, time.Time{})}); err != nil {
			return err
		}
	}
}
