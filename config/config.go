package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mhollis/mailingest/archive"
)

// Config captures all command-line options required to run the importer.
type Config struct {
	ArchivePath     string
	APIURL          string
	Token           string
	SourceID        string
	BatchSize       int
	SkipAttachments bool
	DryRun          bool
	Format          archive.Format
	LogLevel        string
	LogDir          string
	IncludeHeader   []string
	IncludeBody     []string
	ExcludeHeader   []string
	ExcludeBody     []string
}

// RegisterFlags attaches all CLI flags to the provided command. The archive
// path itself is the positional argument.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("api-url", "http://localhost:8787", "Base URL of the ingestion API")
	flags.String("token", "", "Bearer token for the ingestion API (falls back to --api-key, then INGEST_TOKEN env var)")
	flags.String("api-key", "", "Alias for --token")
	flags.String("source-id", "", "Source ID for lifecycle tracking")
	flags.Int("batch-size", 50, "Number of messages per ingestion request")
	flags.Bool("skip-attachments", false, "Drop attachments after normalization, before dispatch")
	flags.Bool("dry-run", false, "Normalize and count without calling the ingestion API")
	flags.String("format", "auto", "Archive format: auto, mbox or emlx")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("log-dir", "", "Directory for log files (logs to stdout only when empty)")
	flags.StringArray("include-header", nil, "Regex allow-list applied to raw message headers (mutually exclusive with exclude flags)")
	flags.StringArray("include-body", nil, "Regex allow-list applied to raw message bodies (mutually exclusive with exclude flags)")
	flags.StringArray("exclude-header", nil, "Regex block-list applied to raw message headers (mutually exclusive with include flags)")
	flags.StringArray("exclude-body", nil, "Regex block-list applied to raw message bodies (mutually exclusive with include flags)")
}

// LoadConfig converts the parsed Cobra flags and the positional archive path
// into a validated Config.
func LoadConfig(cmd *cobra.Command, args []string) (Config, error) {
	if len(args) != 1 {
		return Config{}, fmt.Errorf("exactly one archive path is required")
	}

	flags := cmd.Flags()

	apiURL, err := flags.GetString("api-url")
	if err != nil {
		return Config{}, err
	}
	token, err := flags.GetString("token")
	if err != nil {
		return Config{}, err
	}
	apiKey, err := flags.GetString("api-key")
	if err != nil {
		return Config{}, err
	}
	sourceID, err := flags.GetString("source-id")
	if err != nil {
		return Config{}, err
	}
	batchSize, err := flags.GetInt("batch-size")
	if err != nil {
		return Config{}, err
	}
	skipAttachments, err := flags.GetBool("skip-attachments")
	if err != nil {
		return Config{}, err
	}
	dryRun, err := flags.GetBool("dry-run")
	if err != nil {
		return Config{}, err
	}
	format, err := flags.GetString("format")
	if err != nil {
		return Config{}, err
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return Config{}, err
	}
	logDir, err := flags.GetString("log-dir")
	if err != nil {
		return Config{}, err
	}
	includeHeader, err := flags.GetStringArray("include-header")
	if err != nil {
		return Config{}, err
	}
	includeBody, err := flags.GetStringArray("include-body")
	if err != nil {
		return Config{}, err
	}
	excludeHeader, err := flags.GetStringArray("exclude-header")
	if err != nil {
		return Config{}, err
	}
	excludeBody, err := flags.GetStringArray("exclude-body")
	if err != nil {
		return Config{}, err
	}

	if token == "" {
		token = apiKey
	}
	if token == "" {
		token = os.Getenv("INGEST_TOKEN")
	}

	logLevel = strings.ToLower(logLevel)
	if logLevel == "warning" {
		logLevel = "warn"
	}

	cfg := Config{
		ArchivePath:     args[0],
		APIURL:          strings.TrimRight(apiURL, "/"),
		Token:           token,
		SourceID:        sourceID,
		BatchSize:       batchSize,
		SkipAttachments: skipAttachments,
		DryRun:          dryRun,
		Format:          archive.Format(strings.ToLower(format)),
		LogLevel:        logLevel,
		LogDir:          logDir,
		IncludeHeader:   includeHeader,
		IncludeBody:     includeBody,
		ExcludeHeader:   excludeHeader,
		ExcludeBody:     excludeBody,
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	if cfg.ArchivePath == "" {
		return fmt.Errorf("archive path is required")
	}
	if cfg.APIURL == "" {
		return fmt.Errorf("--api-url must not be empty")
	}
	if cfg.BatchSize < 1 {
		return fmt.Errorf("--batch-size must be at least 1")
	}

	switch cfg.Format {
	case archive.FormatAuto, archive.FormatMbox, archive.FormatEmlx:
	default:
		return fmt.Errorf("invalid --format: %s", cfg.Format)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %s", cfg.LogLevel)
	}

	includeActive := len(cfg.IncludeHeader) > 0 || len(cfg.IncludeBody) > 0
	excludeActive := len(cfg.ExcludeHeader) > 0 || len(cfg.ExcludeBody) > 0
	if includeActive && excludeActive {
		return fmt.Errorf("include and exclude flags are mutually exclusive")
	}

	return nil
}
