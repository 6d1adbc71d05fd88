// Package archive defines the boundary between format-specific archive
// readers and the shared normalization engine. Each reader yields opaque
// RawMessage handles; the format-specific decoding stays inside the adapter.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"
)

// Part is one node of a message's MIME part tree, with its payload already
// transfer-decoded and charset-converted by the adapter.
type Part struct {
	ContentType string
	Disposition string
	Filename    string
	Charset     string
	Content     []byte
}

// RawMessage exposes a single archived message to the normalizer. Header
// returns the raw (still encoded-word) header value, or "" when absent.
// Parts returns leaf parts in depth-first order; a non-multipart message
// yields exactly one part.
type RawMessage interface {
	Header(name string) string
	Parts() []Part
	Multipart() bool

	// DeliveredAt reports the format-specific delivery timestamp, when the
	// container records one outside the message headers.
	DeliveredAt() (time.Time, bool)

	// SourceTag names the archive format, used to namespace generated
	// message identifiers (e.g. "mbox-import").
	SourceTag() string
}

// Envelope wraps a message alongside an error encountered while decoding it,
// so a single broken message never stops the scan. Filtered marks a message
// excluded by the configured filters before decoding.
type Envelope struct {
	Raw      RawMessage
	Err      error
	Filtered bool
}

// Adapter is the capability set every archive format implements.
type Adapter interface {
	// Count enumerates the archive once, returning the total message count.
	Count(ctx context.Context) (int, error)

	// Scan enumerates the archive again, invoking fn once per message in
	// archive order. Scan stops only on a traversal-level failure or when
	// fn returns an error.
	Scan(ctx context.Context, fn func(Envelope) error) error
}

// Format selects an archive adapter implementation.
type Format string

const (
	FormatAuto Format = "auto"
	FormatMbox Format = "mbox"
	FormatEmlx Format = "emlx"
)

// DetectFormat resolves FormatAuto by inspecting the path: a directory is
// treated as an emlx store, a regular file as an mbox archive.
func DetectFormat(path string, format Format) (Format, error) {
	if format != FormatAuto {
		return format, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat archive: %w", err)
	}
	if info.IsDir() {
		return FormatEmlx, nil
	}
	return FormatMbox, nil
}

// SplitRaw splits a raw RFC 5322 message into header and body sections.
func SplitRaw(raw []byte) (header, body []byte) {
	if len(raw) == 0 {
		return nil, nil
	}

	if idx := bytes.Index(raw, []byte("\r\n\r\n")); idx >= 0 {
		return raw[:idx], raw[idx+4:]
	}
	if idx := bytes.Index(raw, []byte("\n\n")); idx >= 0 {
		return raw[:idx], raw[idx+2:]
	}

	return raw, nil
}
