package normalize

import (
	"regexp"
	"strings"

	"github.com/mhollis/mailingest/archive"
)

var (
	scriptBlockPattern = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleBlockPattern  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagPattern         = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// ExtractBodies selects the canonical plain-text and HTML bodies from a
// message's parts. For a single-part message the sole part becomes the body,
// with text derived from HTML when the part is HTML. For multipart messages
// the first text/plain part and the first text/html part win; parts disposed
// as attachments are never body candidates. When only HTML exists, text is
// derived from it.
func ExtractBodies(multipart bool, parts []archive.Part) (text, html string) {
	if !multipart {
		if len(parts) == 0 {
			return "", ""
		}
		content := toUTF8(parts[0].Content)
		if isHTMLType(parts[0].ContentType) {
			return StripHTML(content), content
		}
		return content, ""
	}

	for _, p := range parts {
		if IsAttachment(p) {
			continue
		}
		switch {
		case isPlainType(p.ContentType) && text == "":
			text = toUTF8(p.Content)
		case isHTMLType(p.ContentType) && html == "":
			html = toUTF8(p.Content)
		}
	}

	if text == "" && html != "" {
		text = StripHTML(html)
	}
	return text, html
}

// StripHTML is a lossy, intentionally simple HTML-to-text conversion: script
// and style blocks are removed, every remaining tag becomes a single space,
// and runs of whitespace collapse to one space.
func StripHTML(html string) string {
	text := scriptBlockPattern.ReplaceAllString(html, "")
	text = styleBlockPattern.ReplaceAllString(text, "")
	text = tagPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// IsAttachment reports whether a part is disposed as an attachment and so
// excluded from body selection.
func IsAttachment(p archive.Part) bool {
	return strings.Contains(strings.ToLower(p.Disposition), "attachment")
}

func isPlainType(contentType string) bool {
	return strings.EqualFold(contentType, "text/plain")
}

func isHTMLType(contentType string) bool {
	return strings.EqualFold(contentType, "text/html")
}

// toUTF8 guards against payloads whose charset conversion left invalid
// bytes, substituting the replacement character.
func toUTF8(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
