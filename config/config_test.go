package config

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/mhollis/mailingest/archive"
)

func parse(t *testing.T, args ...string) (*cobra.Command, []string) {
	t.Helper()

	var positional []string
	cmd := &cobra.Command{
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			positional = args
			return nil
		},
	}
	RegisterFlags(cmd)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return cmd, positional
}

func TestLoadConfigDefaults(t *testing.T) {
	cmd, args := parse(t, "archive.mbox")

	cfg, err := LoadConfig(cmd, args)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.ArchivePath != "archive.mbox" {
		t.Errorf("archive path = %q", cfg.ArchivePath)
	}
	if cfg.APIURL != "http://localhost:8787" {
		t.Errorf("api url = %q, want http://localhost:8787", cfg.APIURL)
	}
	if cfg.BatchSize != 50 {
		t.Errorf("batch size = %d, want 50", cfg.BatchSize)
	}
	if cfg.Format != archive.FormatAuto {
		t.Errorf("format = %q, want auto", cfg.Format)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.LogLevel)
	}
	if cfg.DryRun || cfg.SkipAttachments {
		t.Error("boolean flags must default to false")
	}
}

func TestLoadConfigTokenPrecedence(t *testing.T) {
	cmd, args := parse(t, "--token", "tok", "--api-key", "key", "archive.mbox")
	cfg, err := LoadConfig(cmd, args)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Token != "tok" {
		t.Errorf("token = %q, want tok (--token wins over --api-key)", cfg.Token)
	}

	cmd, args = parse(t, "--api-key", "key", "archive.mbox")
	cfg, err = LoadConfig(cmd, args)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Token != "key" {
		t.Errorf("token = %q, want key (--api-key fallback)", cfg.Token)
	}
}

func TestLoadConfigTokenFromEnv(t *testing.T) {
	t.Setenv("INGEST_TOKEN", "env-token")

	cmd, args := parse(t, "archive.mbox")
	cfg, err := LoadConfig(cmd, args)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Token != "env-token" {
		t.Errorf("token = %q, want env-token", cfg.Token)
	}
}

func TestLoadConfigTrimsAPIURL(t *testing.T) {
	cmd, args := parse(t, "--api-url", "http://api.example.com/", "archive.mbox")
	cfg, err := LoadConfig(cmd, args)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.APIURL != "http://api.example.com" {
		t.Errorf("api url = %q, want trailing slash trimmed", cfg.APIURL)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero batch size", []string{"--batch-size", "0", "archive.mbox"}},
		{"negative batch size", []string{"--batch-size", "-5", "archive.mbox"}},
		{"bad format", []string{"--format", "maildir", "archive.mbox"}},
		{"bad log level", []string{"--log-level", "verbose", "archive.mbox"}},
		{"mixed filters", []string{"--include-header", "a", "--exclude-header", "b", "archive.mbox"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := parse(t, tt.args...)
			if _, err := LoadConfig(cmd, args); err == nil {
				t.Errorf("expected validation error for %v", tt.args)
			}
		})
	}
}

func TestLoadConfigNoArgs(t *testing.T) {
	cmd := &cobra.Command{}
	RegisterFlags(cmd)
	if _, err := LoadConfig(cmd, nil); err == nil {
		t.Error("expected error without archive path")
	}
}

func TestLoadConfigNormalizesLevels(t *testing.T) {
	cmd, args := parse(t, "--log-level", "WARNING", "--format", "MBOX", "archive.mbox")
	cfg, err := LoadConfig(cmd, args)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log level = %q, want warn", cfg.LogLevel)
	}
	if cfg.Format != archive.FormatMbox {
		t.Errorf("format = %q, want mbox", cfg.Format)
	}
}
