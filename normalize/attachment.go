package normalize

import (
	"encoding/base64"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mhollis/mailingest/archive"
	"github.com/mhollis/mailingest/model"
)

// extensionTypes maps filename extensions to MIME types for source formats
// that record attachments without an explicit content-type.
var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".zip":  "application/zip",
	".txt":  "text/plain",
}

// AttachmentContentType returns the declared content-type, or one derived
// from the filename extension when the source format lacks it.
func AttachmentContentType(filename, declared string) string {
	if declared != "" {
		return declared
	}
	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return t
	}
	return "application/octet-stream"
}

// ExtractAttachment converts one attachment-disposed part into a transport
// record. A part whose payload could not be read is skipped with a warning;
// the failure is attachment-scoped, never message-scoped. Returns nil when
// the part yields no attachment.
func ExtractAttachment(p archive.Part, logger *slog.Logger) *model.Attachment {
	if p.Filename == "" {
		return nil
	}
	if len(p.Content) == 0 {
		if logger != nil {
			logger.Warn("skipping unreadable attachment", "filename", p.Filename)
		}
		return nil
	}

	// Decode before deriving the content-type; an encoded-word filename
	// hides its extension until decoded.
	filename := DecodeHeader(p.Filename)

	return &model.Attachment{
		Filename:      filename,
		ContentType:   AttachmentContentType(filename, p.ContentType),
		Size:          len(p.Content),
		ContentBase64: base64.StdEncoding.EncodeToString(p.Content),
	}
}
