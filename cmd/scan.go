package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nexscan/nexscan-cli/internal/history"
	"github.com/nexscan/nexscan-cli/internal/scanner"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a single target for web and transport-layer weaknesses",
	Long: `Scan runs the selected probe modules (ports, headers, ssl, dirs) against
one target. With no module flags every applicable module runs. Only scan
hosts you are authorized to test.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rawTarget, _ := cmd.Flags().GetString("target")
		outputFile, _ := cmd.Flags().GetString("output")
		save, _ := cmd.Flags().GetBool("save")

		cfg := loadCLIConfig()
		applyScanFlags(cmd.Flags(), &cfg)

		scanCfg := cfg.scannerConfig()
		scanCfg.Logger = logger
		if cfg.Dir.WordlistPath != "" {
			words, err := scanner.LoadWordlist(cfg.Dir.WordlistPath)
			if err != nil {
				return fmt.Errorf("failed to load wordlist: %w", err)
			}
			scanCfg.Wordlist = words
		}

		target, err := scanner.NewResolver().Resolve(cmd.Context(), rawTarget)
		if err != nil {
			var verr *scanner.ValidationError
			if errors.As(err, &verr) {
				return fmt.Errorf("invalid target: %w", err)
			}
			return err
		}

		sel := selectionFromFlags(cmd)
		started := time.Now()
		fmt.Printf("%s Scanning %s ...\n", colorInfo("→"), target.Host)

		report := scanner.New(scanCfg).RunScan(cmd.Context(), target, sel)

		renderReport(os.Stdout, report)
		fmt.Printf("\n%s Scan finished in %s\n", colorSuccess("✓"), time.Since(started).Round(time.Millisecond))

		if outputFile != "" {
			data, err := scanner.ExportJSON(report)
			if err != nil {
				return fmt.Errorf("failed to export report: %w", err)
			}
			path := outputFile
			if !filepath.IsAbs(path) {
				path = filepath.Join(resultsDir, path)
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			fmt.Printf("%s Report written to %s\n", colorSuccess("✓"), path)
		}

		if save {
			store, err := history.Open(historyPath(cfg))
			if err != nil {
				return fmt.Errorf("failed to open history store: %w", err)
			}
			defer store.Close()
			rec, err := store.Save(report)
			if err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
			fmt.Printf("%s Saved as %s\n", colorSuccess("✓"), rec.ID)
		}

		return nil
	},
}

// selectionFromFlags maps module flags to a selection. No module flag (or
// --full) means everything.
func selectionFromFlags(cmd *cobra.Command) scanner.Selection {
	full, _ := cmd.Flags().GetBool("full")
	ports, _ := cmd.Flags().GetBool("ports")
	headers, _ := cmd.Flags().GetBool("headers")
	ssl, _ := cmd.Flags().GetBool("ssl")
	dirs, _ := cmd.Flags().GetBool("dirs")

	sel := scanner.Selection{Ports: ports, Headers: headers, TLS: ssl, Directories: dirs}
	if full || sel == (scanner.Selection{}) {
		return scanner.FullSelection()
	}
	return sel
}

// applyScanFlags layers explicitly-set flags over config file values.
func applyScanFlags(flags *pflag.FlagSet, cfg *CLIConfig) {
	if flags.Changed("timeout") {
		cfg.HTTPTimeoutSecs, _ = flags.GetInt("timeout")
	}
	if flags.Changed("scan-type") {
		cfg.Ports.ScanType, _ = flags.GetString("scan-type")
	}
	if flags.Changed("workers") {
		cfg.Dir.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("rate-limit") {
		cfg.Dir.RateLimit, _ = flags.GetInt("rate-limit")
	}
	if flags.Changed("wordlist") {
		cfg.Dir.WordlistPath, _ = flags.GetString("wordlist")
	}
}

// historyPath picks the history database location: config value, or a
// default under the results directory.
func historyPath(cfg CLIConfig) string {
	if cfg.HistoryPath != "" {
		return cfg.HistoryPath
	}
	return filepath.Join(resultsDir, "history.db")
}

func init() {
	scanCmd.Flags().StringP("target", "t", "", "target host or URL (required)")
	_ = scanCmd.MarkFlagRequired("target")

	scanCmd.Flags().Bool("full", false, "run every module (default when no module flag is set)")
	scanCmd.Flags().Bool("ports", false, "run the port scan module")
	scanCmd.Flags().Bool("headers", false, "run the security header audit")
	scanCmd.Flags().Bool("ssl", false, "run the TLS inspection module")
	scanCmd.Flags().Bool("dirs", false, "run the path brute-force module")

	scanCmd.Flags().Int("timeout", defaultHTTPTimeoutSeconds, "per-request timeout in seconds")
	scanCmd.Flags().String("scan-type", scanner.ScanTypeFast, "port scan breadth (fast or full)")
	scanCmd.Flags().Int("workers", defaultDirWorkers, "path brute-force worker count")
	scanCmd.Flags().Int("rate-limit", defaultDirRateLimit, "path brute-force requests per second (0 = unlimited)")
	scanCmd.Flags().StringP("wordlist", "w", "", "wordlist file for the path brute-force module")

	scanCmd.Flags().StringP("output", "o", "", "write the JSON report to this file")
	scanCmd.Flags().Bool("save", false, "save the report to the scan history")
}
