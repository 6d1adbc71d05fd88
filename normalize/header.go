package normalize

import (
	"mime"

	"github.com/emersion/go-message/charset"
)

// wordDecoder handles RFC 2047 encoded-words. The charset reader from
// go-message covers the legacy encodings (iso-8859-*, windows-125x, koi8-r,
// ...) that stdlib mime alone rejects.
var wordDecoder = &mime.WordDecoder{CharsetReader: charset.Reader}

// DecodeHeader decodes encoded-word segments of a header value with their
// declared charsets, concatenating in order. Plain segments pass through
// unchanged. Decoding is best-effort: on any failure the raw input is
// returned so a bad header never aborts message processing.
func DecodeHeader(value string) string {
	if value == "" {
		return value
	}

	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}
