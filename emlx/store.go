package emlx

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhillyerd/enmime"

	"github.com/mhollis/mailingest/archive"
	"github.com/mhollis/mailingest/filter"
)

// SourceTag namespaces generated message identifiers for compound-store
// sources.
const SourceTag = "emlx-import"

// Store enumerates an emlx store directory. It implements archive.Adapter.
// Traversal order is the lexical walk order of the directory tree, so two
// scans of the same store yield the same sequence.
type Store struct {
	root   string
	filter *filter.Filter
	logger *slog.Logger
}

func Open(path string, f *filter.Filter, logger *slog.Logger) (*Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open emlx store: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("emlx store %s is not a directory", path)
	}
	return &Store{root: path, filter: f, logger: logger}, nil
}

// Count walks the store once, counting message files.
func (s *Store) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.walk(ctx, func(string) error {
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Scan walks the store, invoking fn once per message. A message file that
// fails to parse is delivered as an error envelope; failures reading the
// store itself abort the scan.
func (s *Store) Scan(ctx context.Context, fn func(archive.Envelope) error) error {
	return s.walk(ctx, func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		name := filepath.Base(path)
		msg, err := Parse(data)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("undecodable emlx file", "file", name, "err", err)
			}
			return fn(archive.Envelope{Err: fmt.Errorf("%s: %w", name, err)})
		}

		if s.filter != nil && s.filter.Active() {
			header, body := archive.SplitRaw(msg.Raw)
			if !s.filter.Allows(header, body) {
				return fn(archive.Envelope{Filtered: true})
			}
		}

		env, err := enmime.ReadEnvelope(bytes.NewReader(msg.Raw))
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("undecodable emlx message", "file", name, "err", err)
			}
			return fn(archive.Envelope{Err: fmt.Errorf("%s: %w", name, err)})
		}

		return fn(archive.Envelope{Raw: archive.NewMIMEMessage(env, SourceTag, msg.DateSent)})
	})
}

func (s *Store) walk(ctx context.Context, fn func(path string) error) error {
	return filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk emlx store: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".emlx") {
			return nil
		}
		return fn(path)
	})
}
