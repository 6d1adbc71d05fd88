// Package ingest speaks the remote ingestion API: batched message uploads
// plus best-effort source lifecycle notifications.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mhollis/mailingest/model"
)

const (
	ingestTimeout    = 60 * time.Second
	lifecycleTimeout = 10 * time.Second
)

// Result is the endpoint's accounting for one accepted batch.
type Result struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// Client is a thin JSON-over-HTTP client with bearer-token auth.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{},
		logger:  logger,
	}
}

type ingestRequest struct {
	Emails   []model.CanonicalMessage `json:"emails"`
	SourceID string                   `json:"source_id,omitempty"`
}

// Ingest submits one batch of canonical records and returns the endpoint's
// processed/failed counts.
func (c *Client) Ingest(ctx context.Context, emails []model.CanonicalMessage, sourceID string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, ingestTimeout)
	defer cancel()

	var result Result
	if err := c.post(ctx, "/api/ingest", ingestRequest{Emails: emails, SourceID: sourceID}, &result); err != nil {
		return Result{}, err
	}
	return result, nil
}

// SourceStart notifies the endpoint that a scan is beginning and how many
// messages it will cover.
func (c *Client) SourceStart(ctx context.Context, sourceID string, total int) error {
	ctx, cancel := context.WithTimeout(ctx, lifecycleTimeout)
	defer cancel()

	path := "/api/sources/" + url.PathEscape(sourceID) + "/start"
	return c.post(ctx, path, map[string]int{"emails_total": total}, nil)
}

// SourceComplete notifies the endpoint that the scan ended.
func (c *Client) SourceComplete(ctx context.Context, sourceID, status string) error {
	ctx, cancel := context.WithTimeout(ctx, lifecycleTimeout)
	defer cancel()

	path := "/api/sources/" + url.PathEscape(sourceID) + "/complete"
	return c.post(ctx, path, map[string]string{"status": status}, nil)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("post %s: unexpected status %s", path, resp.Status)
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
