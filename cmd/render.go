package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nexscan/nexscan-cli/internal/scanner"
)

// renderReport prints a scan report as a console summary, one section per
// module that ran.
func renderReport(w io.Writer, report *scanner.Report) {
	fmt.Fprintf(w, "\nTarget: %s (%s)\n", report.Target.Host, report.Target.URL())
	fmt.Fprintf(w, "Started: %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))

	for _, res := range report.Results {
		fmt.Fprintf(w, "\n[%s] %s\n", res.Module, formatStatusWithColor(string(res.Status)))
		if res.Status == scanner.StatusError {
			fmt.Fprintf(w, "  %s %s\n", colorError("!"), res.Err)
			continue
		}
		renderModule(w, res)
	}
}

func renderModule(w io.Writer, res scanner.ModuleResult) {
	switch res.Module {
	case scanner.ModulePorts:
		renderPorts(w, res.Ports)
	case scanner.ModuleDirectories:
		renderPaths(w, res.Paths)
	default:
		renderFindings(w, res.Findings)
	}
}

func renderPorts(w io.Writer, ports []scanner.PortInfo) {
	if len(ports) == 0 {
		fmt.Fprintf(w, "  %s no open ports found\n", colorSuccess("✓"))
		return
	}
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  PORT\tSTATE\tSERVICE\tVERSION")
	for _, p := range ports {
		version := p.Product
		if p.Version != "" {
			version += " " + p.Version
		}
		fmt.Fprintf(tw, "  %d/%s\t%s\t%s\t%s\n", p.Port, p.Protocol, p.State, p.Service, version)
	}
	tw.Flush()
}

func renderPaths(w io.Writer, paths []scanner.PathProbeResult) {
	if len(paths) == 0 {
		fmt.Fprintf(w, "  %s no interesting paths found\n", colorSuccess("✓"))
		return
	}
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  PATH\tCODE\tCLASS\tSIZE")
	for _, p := range paths {
		fmt.Fprintf(tw, "  /%s\t%d\t%s\t%d\n", p.Path, p.StatusCode, p.Classification, p.SizeBytes)
	}
	tw.Flush()
}

func renderFindings(w io.Writer, findings []scanner.Finding) {
	if len(findings) == 0 {
		fmt.Fprintf(w, "  %s nothing to report\n", colorSuccess("✓"))
		return
	}
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	for _, f := range findings {
		marker := colorSuccess("✓")
		if f.Severity != scanner.SeverityInfo {
			marker = colorWarn("•")
		}
		fmt.Fprintf(tw, "  %s %s\t%s\t%s\n", marker, f.ID,
			formatSeverityWithColor(string(f.Severity)), f.Evidence)
	}
	tw.Flush()
}
