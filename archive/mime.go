package archive

import (
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
)

// mimeMessage adapts a decoded MIME envelope to the RawMessage interface.
// Both archive formats ultimately carry RFC 5322 content, so the part-tree
// flattening is shared here; what differs per format is the container
// traversal and the delivery metadata.
type mimeMessage struct {
	env       *enmime.Envelope
	parts     []Part
	multipart bool
	tag       string
	delivered time.Time
}

// NewMIMEMessage wraps a parsed envelope. deliveredAt may be the zero time
// when the container records no delivery timestamp.
func NewMIMEMessage(env *enmime.Envelope, sourceTag string, deliveredAt time.Time) RawMessage {
	m := &mimeMessage{
		env:       env,
		tag:       sourceTag,
		delivered: deliveredAt,
	}
	if root := env.Root; root != nil {
		m.parts = flattenParts(root)
		m.multipart = root.FirstChild != nil ||
			strings.HasPrefix(strings.ToLower(root.ContentType), "multipart/")
	}
	return m
}

func (m *mimeMessage) Header(name string) string {
	if m.env.Root == nil {
		return ""
	}
	return m.env.Root.Header.Get(name)
}

func (m *mimeMessage) Parts() []Part { return m.parts }

func (m *mimeMessage) Multipart() bool { return m.multipart }

func (m *mimeMessage) DeliveredAt() (time.Time, bool) {
	return m.delivered, !m.delivered.IsZero()
}

func (m *mimeMessage) SourceTag() string { return m.tag }

// flattenParts collects leaf parts depth-first. A message without children
// yields its root as the single part.
func flattenParts(root *enmime.Part) []Part {
	var parts []Part

	var walk func(p *enmime.Part)
	walk = func(p *enmime.Part) {
		if p.FirstChild != nil {
			for child := p.FirstChild; child != nil; child = child.NextSibling {
				walk(child)
			}
			return
		}
		parts = append(parts, Part{
			ContentType: p.ContentType,
			Disposition: p.Disposition,
			Filename:    p.FileName,
			Charset:     p.Charset,
			Content:     p.Content,
		})
	}
	walk(root)

	return parts
}
