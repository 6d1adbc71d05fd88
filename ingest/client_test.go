package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mhollis/mailingest/model"
)

func TestClientIngest(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBody ingestRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Result{Processed: 2, Failed: 1})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret", nil)
	emails := []model.CanonicalMessage{
		{MessageID: "a@x", FromEmail: "a@x.com"},
		{MessageID: "b@x", FromEmail: "b@x.com"},
		{MessageID: "c@x", FromEmail: "c@x.com"},
	}

	result, err := client.Ingest(context.Background(), emails, "src-1")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if gotPath != "/api/ingest" {
		t.Errorf("path = %q, want /api/ingest", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("authorization = %q, want Bearer secret", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q", gotContentType)
	}
	if len(gotBody.Emails) != 3 {
		t.Errorf("expected 3 emails in payload, got %d", len(gotBody.Emails))
	}
	if gotBody.SourceID != "src-1" {
		t.Errorf("source id = %q, want src-1", gotBody.SourceID)
	}
	if result.Processed != 2 || result.Failed != 1 {
		t.Errorf("result = %+v, want processed 2 failed 1", result)
	}
}

func TestClientNoTokenOmitsAuthorization(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(Result{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", nil)
	if _, err := client.Ingest(context.Background(), nil, ""); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if gotAuth != "" {
		t.Errorf("authorization = %q, want empty", gotAuth)
	}
}

func TestClientIngestErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", nil)
	if _, err := client.Ingest(context.Background(), nil, ""); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestClientSourceLifecyclePaths(t *testing.T) {
	var paths []string
	var starts []map[string]int
	var completes []map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/api/sources/box-1/start":
			var payload map[string]int
			json.NewDecoder(r.Body).Decode(&payload)
			starts = append(starts, payload)
		case "/api/sources/box-1/complete":
			var payload map[string]string
			json.NewDecoder(r.Body).Decode(&payload)
			completes = append(completes, payload)
		}
		// Lifecycle responses carry a body the client ignores but must drain.
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "", nil)

	if err := client.SourceStart(context.Background(), "box-1", 42); err != nil {
		t.Fatalf("SourceStart() error = %v", err)
	}
	if err := client.SourceComplete(context.Background(), "box-1", "completed"); err != nil {
		t.Fatalf("SourceComplete() error = %v", err)
	}

	if len(starts) != 1 || starts[0]["emails_total"] != 42 {
		t.Errorf("unexpected start payloads: %v (paths %v)", starts, paths)
	}
	if len(completes) != 1 || completes[0]["status"] != "completed" {
		t.Errorf("unexpected complete payloads: %v (paths %v)", completes, paths)
	}
}
