// Package normalize reconciles raw archive messages into the canonical
// record shape, regardless of which archive format produced them. Every
// per-field failure degrades to a documented fallback; only a missing sender
// drops a message, and that is signalled with ErrNoSender rather than
// counted as a failure.
package normalize

import (
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/mhollis/mailingest/archive"
	"github.com/mhollis/mailingest/model"
)

// ErrNoSender marks a message with no resolvable sender address. Callers
// drop such messages silently instead of counting them as failures.
var ErrNoSender = errors.New("message has no sender address")

const noSubjectPlaceholder = "(No Subject)"

// Normalizer builds canonical records from raw archive messages.
type Normalizer struct {
	logger *slog.Logger
	now    func() time.Time
}

func New(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger, now: time.Now}
}

// Message normalizes one raw message. It never panics out of the call: any
// structural fault surfaces as an error so the archive scan can continue
// with the next message.
func (n *Normalizer) Message(raw archive.RawMessage) (msg *model.CanonicalMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg = nil
			err = fmt.Errorf("normalize message: %v", r)
		}
	}()

	fromHeader := raw.Header("From")
	var fromEmail string
	if strings.TrimSpace(fromHeader) != "" {
		fromEmail = ExtractEmail(fromHeader)
	}
	if fromEmail == "" {
		return nil, ErrNoSender
	}

	subject := DecodeHeader(raw.Header("Subject"))
	if strings.TrimSpace(subject) == "" {
		subject = noSubjectPlaceholder
	}

	parts := raw.Parts()
	bodyText, bodyHTML := ExtractBodies(raw.Multipart(), parts)

	attachments := []model.Attachment{}
	for _, p := range parts {
		if !IsAttachment(p) {
			continue
		}
		if a := ExtractAttachment(p, n.logger); a != nil {
			attachments = append(attachments, *a)
		}
	}

	messageID := strings.Trim(strings.TrimSpace(raw.Header("Message-ID")), "<>")
	if messageID == "" {
		messageID = GenerateMessageID(fromHeader, raw.Header("Subject"), n.rawDate(raw), raw.SourceTag())
	}

	return &model.CanonicalMessage{
		MessageID:   messageID,
		Subject:     subject,
		BodyText:    bodyText,
		BodyHTML:    bodyHTML,
		SentAt:      n.sentAt(raw),
		FromEmail:   fromEmail,
		FromName:    ExtractName(fromHeader),
		To:          ParseRecipients(raw.Header("To")),
		Cc:          ParseRecipients(raw.Header("Cc")),
		Bcc:         ParseRecipients(raw.Header("Bcc")),
		InReplyTo:   InReplyTo(raw.Header("In-Reply-To")),
		References:  References(raw.Header("References")),
		Attachments: attachments,
	}, nil
}

// sentAt resolves the send timestamp: container delivery metadata first,
// then the Date header, then ingestion time.
func (n *Normalizer) sentAt(raw archive.RawMessage) string {
	if t, ok := raw.DeliveredAt(); ok {
		return t.Format(time.RFC3339)
	}

	if date := raw.Header("Date"); date != "" {
		t, err := mail.ParseDate(date)
		if err == nil {
			return t.Format(time.RFC3339)
		}
		if n.logger != nil {
			n.logger.Debug("unparseable date header", "date", date, "err", err)
		}
	}

	return n.now().Format(time.RFC3339)
}

// rawDate is the date input to identifier generation: the raw header value
// when present, else the delivery metadata. It must be stable across runs
// for identical input, so ingestion time is never used here.
func (n *Normalizer) rawDate(raw archive.RawMessage) string {
	if date := raw.Header("Date"); date != "" {
		return date
	}
	if t, ok := raw.DeliveredAt(); ok {
		return t.Format(time.RFC3339)
	}
	return ""
}
