package model

// Recipient is a single parsed address from a To/Cc/Bcc header.
type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Attachment carries one extracted attachment payload, base64-encoded for
// transport.
type Attachment struct {
	Filename      string `json:"filename"`
	ContentType   string `json:"content_type"`
	Size          int    `json:"size"`
	ContentBase64 string `json:"content_base64"`
}

// CanonicalMessage is the normalized, format-independent representation of a
// single archived email. FromEmail is always lowercase and non-empty in any
// emitted record; MessageID is stable across re-runs on identical input.
type CanonicalMessage struct {
	MessageID   string       `json:"message_id"`
	Subject     string       `json:"subject"`
	BodyText    string       `json:"body_text"`
	BodyHTML    string       `json:"body_html,omitempty"`
	SentAt      string       `json:"sent_at"`
	FromEmail   string       `json:"from_email"`
	FromName    string       `json:"from_name,omitempty"`
	To          []Recipient  `json:"to"`
	Cc          []Recipient  `json:"cc"`
	Bcc         []Recipient  `json:"bcc"`
	InReplyTo   string       `json:"in_reply_to,omitempty"`
	References  []string     `json:"references"`
	Attachments []Attachment `json:"attachments"`
}
