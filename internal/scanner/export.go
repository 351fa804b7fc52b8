package scanner

import (
	"encoding/json"
	"time"
)

// legacyReport is the stable export shape consumed by downstream tooling.
// Each section is either its payload or {"error": ...}; sections for modules
// that did not run are omitted.
type legacyReport struct {
	Target        Target `json:"target"`
	ScanDate      string `json:"scan_date"`
	PortScan      any    `json:"port_scan,omitempty"`
	HeaderScan    any    `json:"header_scan,omitempty"`
	SSLScan       any    `json:"ssl_scan,omitempty"`
	DirectoryScan any    `json:"directory_scan,omitempty"`
}

type sectionError struct {
	Error string `json:"error"`
}

// headerEntry mirrors one header finding in the export shape.
type headerEntry struct {
	Header      string `json:"header"`
	Present     bool   `json:"present"`
	Value       string `json:"value"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// ExportJSON renders the report in the legacy shape, indented.
func ExportJSON(r *Report) ([]byte, error) {
	out := legacyReport{
		Target:   r.Target,
		ScanDate: r.StartedAt.Format(time.RFC3339),
	}

	for i := range r.Results {
		res := &r.Results[i]
		switch res.Module {
		case ModulePorts:
			if res.Status == StatusError {
				out.PortScan = sectionError{res.Err}
			} else {
				out.PortScan = res.Ports
			}
		case ModuleHeaders:
			out.HeaderScan = headerSection(res)
		case ModuleTLS:
			if res.Status == StatusError {
				out.SSLScan = sectionError{res.Err}
			} else {
				out.SSLScan = res.TLS
			}
		case ModuleDirectories:
			if res.Status == StatusError {
				out.DirectoryScan = sectionError{res.Err}
			} else {
				paths := res.Paths
				if paths == nil {
					paths = []PathProbeResult{}
				}
				out.DirectoryScan = paths
			}
		}
	}

	return json.MarshalIndent(out, "", "  ")
}

// headerSection keeps every policy finding even for an errored run, so the
// export shape does not depend on reachability.
func headerSection(res *ModuleResult) []headerEntry {
	entries := make([]headerEntry, 0, len(res.Findings))
	for _, f := range res.Findings {
		status := "Missing"
		switch {
		case f.Evidence == headerError:
			status = "Error"
		case f.Present:
			status = "Present"
		}
		entries = append(entries, headerEntry{
			Header:      f.ID,
			Present:     f.Present,
			Value:       f.Evidence,
			Severity:    string(f.Severity),
			Description: f.Description,
			Status:      status,
		})
	}
	return entries
}
