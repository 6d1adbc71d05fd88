// Package emlx reads Apple Mail compound stores: a folder hierarchy holding
// one framed message per file, each with trailing plist metadata.
//
// The .emlx frame is:
//   - line 1: decimal byte count of the raw MIME content
//   - next N bytes: the raw RFC 5322 message
//   - remainder (optional): an XML plist with mail-store metadata
package emlx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// appleEpoch is the reference date plist timestamps count from.
var appleEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// Message is one parsed .emlx file.
type Message struct {
	// Raw is the framed RFC 5322 MIME content.
	Raw []byte

	// DateSent is the delivery timestamp from the plist metadata, zero when
	// the plist is missing or lacks the field.
	DateSent time.Time

	// Mailbox is the original-mailbox value from the plist, when present.
	Mailbox string
}

// Parse decodes one .emlx file from its raw bytes.
func Parse(data []byte) (*Message, error) {
	newline := bytes.IndexByte(data, '\n')
	if newline < 0 {
		return nil, fmt.Errorf("emlx: missing byte-count line")
	}

	count, err := strconv.ParseInt(strings.TrimSpace(string(data[:newline])), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("emlx: invalid byte count: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("emlx: negative byte count %d", count)
	}

	// Compare before computing start+count; a huge count would overflow the
	// sum and slip past the bounds check.
	start := newline + 1
	if count > int64(len(data)-start) {
		return nil, fmt.Errorf("emlx: byte count %d exceeds file size %d", count, len(data)-start)
	}
	end := start + int(count)

	msg := &Message{Raw: data[start:end]}
	if end < len(data) {
		readPlist(data[end:], msg)
	}
	return msg, nil
}

// readPlist extracts metadata from the trailing XML plist. Best-effort:
// malformed metadata is ignored, never fatal.
func readPlist(data []byte, msg *Message) {
	start := bytes.Index(data, []byte("<?xml"))
	if start < 0 {
		start = bytes.Index(data, []byte("<plist"))
	}
	if start < 0 {
		return
	}

	decoder := xml.NewDecoder(bytes.NewReader(data[start:]))
	decoder.Strict = false

	var key string
	for {
		tok, err := decoder.Token()
		if err != nil {
			return
		}

		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		// Only decode leaf elements; decoding a container element would
		// consume its entire subtree.
		switch el.Name.Local {
		case "key", "real", "integer", "string":
		default:
			continue
		}

		var value string
		if err := decoder.DecodeElement(&value, &el); err != nil {
			return
		}

		switch el.Name.Local {
		case "key":
			key = value
		case "real", "integer":
			if key == "date-sent" {
				if seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
					msg.DateSent = appleEpoch.Add(time.Duration(seconds * float64(time.Second)))
				}
			}
			key = ""
		case "string":
			if key == "original-mailbox" {
				msg.Mailbox = value
			}
			key = ""
		}
	}
}
