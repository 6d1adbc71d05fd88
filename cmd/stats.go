// Package cmd holds auxiliary subcommands of the importer CLI.
package cmd

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mhollis/mailingest/archive"
	"github.com/mhollis/mailingest/emlx"
	"github.com/mhollis/mailingest/filter"
	"github.com/mhollis/mailingest/mbox"
	"github.com/mhollis/mailingest/normalize"
	"github.com/mhollis/mailingest/stats"
)

var (
	reportDir     string
	topN          int
	statsFormat   string
	includeHeader []string
	includeBody   []string
	excludeHeader []string
	excludeBody   []string
)

var statsCmd = &cobra.Command{
	Use:   "stats [archive]",
	Short: "Analyse an archive and show header statistics without ingesting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		archivePath := args[0]

		fmt.Println("Analyzing archive:", archivePath)

		f, err := filter.New(filter.Options{
			IncludeHeader: includeHeader,
			IncludeBody:   includeBody,
			ExcludeHeader: excludeHeader,
			ExcludeBody:   excludeBody,
		})
		if err != nil {
			return fmt.Errorf("create filter: %w", err)
		}

		adapter, err := openAdapter(archivePath, archive.Format(strings.ToLower(statsFormat)), f)
		if err != nil {
			return err
		}

		counter := make(map[string]map[string]int)
		headersToTrack := []string{"Subject", "From", "To", "Message-ID"}
		for _, h := range headersToTrack {
			counter[h] = make(map[string]int)
		}

		messageCount := 0
		skippedCount := 0
		brokenCount := 0
		printStats := func() {
			// ANSI escape code to clear screen and move cursor to top-left
			fmt.Print("\033[H\033[2J")
			totalMessages := messageCount + skippedCount
			var filterPercent float64
			if totalMessages > 0 {
				filterPercent = float64(skippedCount) / float64(totalMessages) * 100
			}
			fmt.Printf("Processed %d messages (skipped %d by filters, %.2f%%, %d undecodable)...\n\n",
				messageCount, skippedCount, filterPercent, brokenCount)

			for _, header := range headersToTrack {
				fmt.Printf("Top %d %s:\n", topN, header)
				stats.PrettyPrintTop(counter[header], topN)
				fmt.Println()
			}
		}

		err = adapter.Scan(cmd.Context(), func(env archive.Envelope) error {
			if env.Filtered {
				skippedCount++
				return nil
			}
			if env.Err != nil {
				brokenCount++
				return nil
			}

			messageCount++
			for _, headerName := range headersToTrack {
				if value := normalize.DecodeHeader(env.Raw.Header(headerName)); value != "" {
					counter[headerName][value]++
				}
			}

			if messageCount%250 == 0 {
				printStats()
			}

			return nil
		})
		if err != nil {
			return fmt.Errorf("error reading archive: %w", err)
		}

		// Final print
		printStats()

		if err := saveCSVReports(counter, headersToTrack, reportDir, 1000); err != nil {
			return fmt.Errorf("error saving CSV reports: %w", err)
		}

		fmt.Printf("\nReports saved to directory: %s\n", reportDir)

		return nil
	},
}

// Register adds the stats subcommand to the root command.
func Register(root *cobra.Command) {
	statsCmd.Flags().StringVarP(&reportDir, "output", "o", ".", "Output directory for CSV reports")
	statsCmd.Flags().IntVarP(&topN, "top", "t", 10, "Number of top items to display in statistics")
	statsCmd.Flags().StringVar(&statsFormat, "format", "auto", "Archive format: auto, mbox or emlx")
	statsCmd.Flags().StringArrayVar(&includeHeader, "include-header", nil, "Regex allow-list applied to message headers (mutually exclusive with exclude flags)")
	statsCmd.Flags().StringArrayVar(&includeBody, "include-body", nil, "Regex allow-list applied to message bodies (mutually exclusive with exclude flags)")
	statsCmd.Flags().StringArrayVar(&excludeHeader, "exclude-header", nil, "Regex block-list applied to message headers (mutually exclusive with include flags)")
	statsCmd.Flags().StringArrayVar(&excludeBody, "exclude-body", nil, "Regex block-list applied to message bodies (mutually exclusive with include flags)")
	root.AddCommand(statsCmd)
}

func openAdapter(path string, format archive.Format, f *filter.Filter) (archive.Adapter, error) {
	format, err := archive.DetectFormat(path, format)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	switch format {
	case archive.FormatMbox:
		return mbox.NewReader(mbox.Options{Path: path, Filter: f}, logger)
	case archive.FormatEmlx:
		return emlx.Open(path, f, logger)
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", format)
	}
}

func saveCSVReports(counter map[string]map[string]int, headers []string, dir string, limit int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// Write data for each header category to a separate file
	for _, header := range headers {
		counts := counter[header]

		filename := fmt.Sprintf("report_%s.csv", normalizeHeaderName(header))
		filePath := filepath.Join(dir, filename)

		file, err := os.Create(filePath)
		if err != nil {
			return err
		}

		writer := csv.NewWriter(file)

		if err := writer.Write([]string{"Value", "Count"}); err != nil {
			file.Close()
			return err
		}

		// Sort by count descending
		type pair struct {
			Key   string
			Value int
		}
		var pairs []pair
		for k, v := range counts {
			pairs = append(pairs, pair{k, v})
		}
		sort.Slice(pairs, func(i, j int) bool {
			return pairs[i].Value > pairs[j].Value
		})

		for i := 0; i < limit && i < len(pairs); i++ {
			record := []string{
				pairs[i].Key,
				strconv.Itoa(pairs[i].Value),
			}
			if err := writer.Write(record); err != nil {
				file.Close()
				return err
			}
		}

		writer.Flush()
		file.Close()

		if err := writer.Error(); err != nil {
			return err
		}
	}

	return nil
}

func normalizeHeaderName(header string) string {
	name := strings.ToLower(header)
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, " ", "_")
	return name
}
