package emlx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mhollis/mailingest/archive"
	"github.com/mhollis/mailingest/filter"
)

func frame(raw string, plist string) []byte {
	return []byte(fmt.Sprintf("%d\n%s%s", len(raw), raw, plist))
}

const sampleRaw = "From: jane@example.com\r\n" +
	"To: team@example.com\r\n" +
	"Subject: Store message\r\n" +
	"Message-ID: <store@example.com>\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Body from the store.\r\n"

const samplePlist = `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
	<key>date-sent</key>
	<real>788961600</real>
	<key>flags</key>
	<integer>0</integer>
	<key>original-mailbox</key>
	<string>INBOX</string>
</dict>
</plist>
`

func TestParse(t *testing.T) {
	msg, err := Parse(frame(sampleRaw, samplePlist))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if string(msg.Raw) != sampleRaw {
		t.Errorf("raw content does not round-trip")
	}

	// 788961600 seconds after 2001-01-01 UTC.
	want := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC).Add(788961600 * time.Second)
	if !msg.DateSent.Equal(want) {
		t.Errorf("date sent = %v, want %v", msg.DateSent, want)
	}
	if msg.Mailbox != "INBOX" {
		t.Errorf("mailbox = %q, want INBOX", msg.Mailbox)
	}
}

func TestParseWithoutPlist(t *testing.T) {
	msg, err := Parse(frame(sampleRaw, ""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !msg.DateSent.IsZero() {
		t.Errorf("expected zero date without plist, got %v", msg.DateSent)
	}
}

func TestParseIntegerDate(t *testing.T) {
	plist := `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
	<key>date-sent</key>
	<integer>100</integer>
</dict>
</plist>
`
	msg, err := Parse(frame(sampleRaw, plist))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := time.Date(2001, 1, 1, 0, 1, 40, 0, time.UTC)
	if !msg.DateSent.Equal(want) {
		t.Errorf("date sent = %v, want %v", msg.DateSent, want)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"no newline", []byte("1234")},
		{"non-numeric count", []byte("abc\ndata")},
		{"count exceeds size", []byte("9999\nshort")},
		{"count near max int64", []byte("9223372036854775800\nrest of file")},
		{"negative count", []byte("-5\ndata")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.data); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func writeStore(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	messages := filepath.Join(root, "Messages")
	if err := os.MkdirAll(messages, 0o755); err != nil {
		t.Fatal(err)
	}

	for i, subject := range []string{"Alpha", "Beta"} {
		raw := fmt.Sprintf("From: jane@example.com\r\nSubject: %s\r\n\r\nBody %d.\r\n", subject, i)
		path := filepath.Join(messages, fmt.Sprintf("%d.emlx", i+1))
		if err := os.WriteFile(path, frame(raw, samplePlist), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	// Non-message files are ignored by the walk.
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatal(err)
	}

	return root
}

func TestStoreCountAndScan(t *testing.T) {
	root := writeStore(t)

	store, err := Open(root, nil, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}

	var subjects []string
	err = store.Scan(context.Background(), func(env archive.Envelope) error {
		if env.Err != nil {
			t.Errorf("unexpected envelope error: %v", env.Err)
			return nil
		}
		subjects = append(subjects, env.Raw.Header("Subject"))
		if env.Raw.SourceTag() != SourceTag {
			t.Errorf("source tag = %q, want %q", env.Raw.SourceTag(), SourceTag)
		}
		if _, ok := env.Raw.DeliveredAt(); !ok {
			t.Error("expected delivery metadata from the plist")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := []string{"Alpha", "Beta"}
	if len(subjects) != len(want) {
		t.Fatalf("expected %d messages, got %d: %v", len(want), len(subjects), subjects)
	}
	for i, w := range want {
		if subjects[i] != w {
			t.Errorf("message %d subject = %q, want %q", i, subjects[i], w)
		}
	}
}

func TestStoreBrokenFile(t *testing.T) {
	root := writeStore(t)
	broken := filepath.Join(root, "Messages", "3.emlx")
	if err := os.WriteFile(broken, []byte("not a frame"), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := Open(root, nil, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	good := 0
	bad := 0
	err = store.Scan(context.Background(), func(env archive.Envelope) error {
		if env.Err != nil {
			bad++
		} else {
			good++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if good != 2 || bad != 1 {
		t.Errorf("good/bad = %d/%d, want 2/1", good, bad)
	}
}

func TestStoreFiltered(t *testing.T) {
	f, err := filter.New(filter.Options{ExcludeHeader: []string{"Subject: Alpha"}})
	if err != nil {
		t.Fatalf("filter.New() error = %v", err)
	}

	store, err := Open(writeStore(t), f, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	filtered := 0
	delivered := 0
	err = store.Scan(context.Background(), func(env archive.Envelope) error {
		if env.Filtered {
			filtered++
		} else if env.Err == nil {
			delivered++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if filtered != 1 || delivered != 1 {
		t.Errorf("filtered/delivered = %d/%d, want 1/1", filtered, delivered)
	}
}

func TestOpenValidation(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing"), nil, nil); err == nil {
		t.Error("expected error for missing path")
	}

	file := filepath.Join(t.TempDir(), "plain.mbox")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(file, nil, nil); err == nil {
		t.Error("expected error for non-directory path")
	}
}
