package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/spf13/cobra"

	"github.com/nexscan/nexscan-cli/internal/history"
	"github.com/nexscan/nexscan-cli/internal/scanner"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a stored scan run as JSON or PDF",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		format, _ := cmd.Flags().GetString("format")
		outputFile, _ := cmd.Flags().GetString("output")

		if format != "json" && format != "pdf" {
			return fmt.Errorf("invalid format: %s (must be json or pdf)", format)
		}

		store, err := history.Open(historyPath(loadCLIConfig()))
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer store.Close()

		rec, err := store.Get(id)
		if err != nil {
			return err
		}
		report, err := decodeRecordReport(rec)
		if err != nil {
			return err
		}

		var data []byte
		switch format {
		case "json":
			if data, err = scanner.ExportJSON(report); err != nil {
				return fmt.Errorf("failed to render JSON report: %w", err)
			}
		case "pdf":
			if data, err = generatePDFReportBytes(rec, report); err != nil {
				return fmt.Errorf("failed to render PDF report: %w", err)
			}
		}

		if outputFile == "" {
			outputFile = fmt.Sprintf("report-%s.%s", rec.ID, format)
		}
		path := outputFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(resultsDir, path)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("%s Report written to %s\n", colorSuccess("✓"), path)
		return nil
	},
}

func generatePDFReportBytes(rec *history.Record, report *scanner.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Scan Report: %s", report.Target.Host), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Scan ID: %s", rec.ID), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Target: %s", report.Target.URL()), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Started: %s", report.StartedAt.Format("2006-01-02 15:04:05 MST")), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Modules: %s", strings.Join(rec.Modules, ", ")), "", 1, "", false, 0, "")
	pdf.Ln(5)

	for _, res := range report.Results {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, fmt.Sprintf("%s (%s)", res.Module, res.Status), "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 9)

		if res.Status == scanner.StatusError {
			pdf.MultiCell(0, 5, fmt.Sprintf("Module failed: %s", res.Err), "", "", false)
			pdf.Ln(3)
			continue
		}

		switch res.Module {
		case scanner.ModulePorts:
			for _, p := range res.Ports {
				pdf.CellFormat(0, 5, fmt.Sprintf("%d/%s %s %s %s", p.Port, p.Protocol, p.State, p.Service, p.Product), "", 1, "", false, 0, "")
			}
			if len(res.Ports) == 0 {
				pdf.CellFormat(0, 5, "No open ports found.", "", 1, "", false, 0, "")
			}
		case scanner.ModuleDirectories:
			for _, p := range res.Paths {
				pdf.CellFormat(0, 5, fmt.Sprintf("/%s  [%d %s]  %d bytes", p.Path, p.StatusCode, p.Classification, p.SizeBytes), "", 1, "", false, 0, "")
			}
			if len(res.Paths) == 0 {
				pdf.CellFormat(0, 5, "No interesting paths found.", "", 1, "", false, 0, "")
			}
		default:
			for _, f := range res.Findings {
				pdf.MultiCell(0, 5, fmt.Sprintf("[%s] %s: %s", f.Severity, f.ID, f.Evidence), "", "", false)
			}
			if len(res.Findings) == 0 {
				pdf.CellFormat(0, 5, "Nothing to report.", "", 1, "", false, 0, "")
			}
		}
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func init() {
	reportCmd.Flags().String("id", "", "stored scan ID (see 'history list')")
	_ = reportCmd.MarkFlagRequired("id")
	reportCmd.Flags().String("format", "json", "report format (json or pdf)")
	reportCmd.Flags().StringP("output", "o", "", "output file (default report-<id>.<format> in the results dir)")
}
