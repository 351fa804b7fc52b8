// Package scanner implements the core scan modules: target resolution,
// TLS/certificate inspection, security-header auditing, path discovery,
// and the orchestration that ties their results into a single report.
package scanner

import (
	"time"
)

// Severity ranks how serious a finding is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ModuleName identifies one scan module.
type ModuleName string

const (
	ModulePorts       ModuleName = "ports"
	ModuleHeaders     ModuleName = "headers"
	ModuleTLS         ModuleName = "tls"
	ModuleDirectories ModuleName = "directories"
)

// RunStatus is the terminal state of one module invocation.
type RunStatus string

const (
	StatusOK    RunStatus = "ok"
	StatusError RunStatus = "error"
)

// Finding is a single detected condition: a missing header, a weak cipher,
// an expired certificate, a discovered path. Findings are never mutated
// after creation.
type Finding struct {
	Category    string   `json:"category"`
	ID          string   `json:"id"`
	Severity    Severity `json:"severity"`
	Present     bool     `json:"present"`
	Evidence    string   `json:"evidence,omitempty"`
	Description string   `json:"description,omitempty"`
}

// ModuleResult is the outcome of running one scan module once. Exactly one
// of the detail fields is populated, matching Module. Findings preserve the
// evaluation order of the underlying policy or wordlist table.
type ModuleResult struct {
	Module   ModuleName `json:"module"`
	Status   RunStatus  `json:"status"`
	Findings []Finding  `json:"findings,omitempty"`
	Err      string     `json:"error,omitempty"`

	Ports []PortInfo        `json:"ports,omitempty"`
	TLS   *TLSDetails       `json:"tls,omitempty"`
	Paths []PathProbeResult `json:"paths,omitempty"`
}

func errorResult(m ModuleName, err error) ModuleResult {
	return ModuleResult{Module: m, Status: StatusError, Err: err.Error()}
}

// Report is the aggregated output of one orchestrated scan run. It is owned
// by the orchestrator while the run is in flight and immutable once returned.
type Report struct {
	Target    Target         `json:"target"`
	StartedAt time.Time      `json:"started_at"`
	Results   []ModuleResult `json:"results"`
}

// Result returns the entry for the given module, or nil when that module
// was not part of the run.
func (r *Report) Result(m ModuleName) *ModuleResult {
	for i := range r.Results {
		if r.Results[i].Module == m {
			return &r.Results[i]
		}
	}
	return nil
}
