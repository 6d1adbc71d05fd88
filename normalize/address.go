package normalize

import (
	"regexp"
	"strings"

	"github.com/mhollis/mailingest/model"
)

var (
	angleAddrPattern = regexp.MustCompile(`<([^>]+@[^>]+)>`)
	bareAddrPattern  = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
)

// ExtractEmail pulls an email address out of header text like
// `"Jane Doe" <jane@example.com>`. It prefers the angle-bracket form, falls
// back to a bare address pattern, and as a last resort returns the lowercased
// whole input. It never fails.
func ExtractEmail(text string) string {
	text = DecodeHeader(text)

	if m := angleAddrPattern.FindStringSubmatch(text); m != nil {
		return strings.ToLower(m[1])
	}
	if m := bareAddrPattern.FindString(text); m != "" {
		return strings.ToLower(m)
	}
	return strings.ToLower(text)
}

// ExtractName returns the display name preceding an angle-bracket address,
// trimmed and with surrounding quotes stripped, or "" when absent.
func ExtractName(text string) string {
	text = DecodeHeader(text)

	idx := strings.Index(text, "<")
	if idx <= 0 {
		return ""
	}

	name := strings.TrimSpace(text[:idx])
	return strings.Trim(name, `"`)
}

// ParseRecipients splits a To/Cc/Bcc header into recipients, preserving input
// order. Commas inside double-quoted display names (`"Doe, John"`) are not
// split points. Segments yielding no address are discarded.
func ParseRecipients(header string) []model.Recipient {
	recipients := []model.Recipient{}
	if strings.TrimSpace(header) == "" {
		return recipients
	}

	header = DecodeHeader(header)
	for _, segment := range splitOutsideQuotes(header) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		email := ExtractEmail(segment)
		if email == "" {
			continue
		}
		recipients = append(recipients, model.Recipient{
			Email: email,
			Name:  ExtractName(segment),
		})
	}

	return recipients
}

// splitOutsideQuotes splits s on commas, tracking double-quote state so
// quoted substrings stay intact.
func splitOutsideQuotes(s string) []string {
	var (
		parts   []string
		start   int
		inQuote bool
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
