package normalize

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// InReplyTo normalizes an In-Reply-To header value, stripping surrounding
// angle brackets. Returns "" when the header is absent.
func InReplyTo(value string) string {
	return strings.Trim(strings.TrimSpace(value), "<>")
}

// References splits a References header on whitespace, stripping angle
// brackets from each token. Order is preserved from the header.
func References(value string) []string {
	fields := strings.Fields(value)
	refs := make([]string, 0, len(fields))
	for _, f := range fields {
		refs = append(refs, strings.Trim(f, "<>"))
	}
	return refs
}

// GenerateMessageID synthesizes a deterministic identifier for a message
// that carries none, hashing the (from, subject, date) tuple. Identical
// inputs always yield the identical identifier, including across runs; the
// source tag keeps identifiers from colliding across archive formats.
func GenerateMessageID(from, subject, date, sourceTag string) string {
	sum := sha256.Sum256([]byte(from + "\x00" + subject + "\x00" + date))
	return fmt.Sprintf("generated-%x@%s", sum[:16], sourceTag)
}
