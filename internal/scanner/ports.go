package scanner

import (
	"context"
	"fmt"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
)

const portsCategory = "ports"

// Port scan breadth. Fast covers the common service ports; full walks the
// whole range.
const (
	ScanTypeFast = "fast"
	ScanTypeFull = "full"
)

const (
	fastPorts = "21,22,23,25,53,80,110,111,135,139,143,443,445,993,995,1723,3306,3389,5432,5900,8080,8443"
	fullPorts = "1-65535"
)

// PortInfo describes one open port as reported by the external scanner.
type PortInfo struct {
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	State    string `json:"state"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Product  string `json:"product"`
}

// PortScanner consumes the structured output of the external nmap tool. The
// scan itself is delegated; this module only shapes the results into the
// shared report model.
type PortScanner struct {
	ScanType string // fast or full
	Timeout  time.Duration
}

// Scan runs nmap with service detection against the target host. A missing
// binary or failed run is a module error; the rest of the report is
// unaffected.
func (ps *PortScanner) Scan(ctx context.Context, target Target) ModuleResult {
	if ps.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ps.Timeout)
		defer cancel()
	}

	ports := fastPorts
	if ps.ScanType == ScanTypeFull {
		ports = fullPorts
	}

	sc, err := nmap.NewScanner(ctx,
		nmap.WithTargets(target.Host),
		nmap.WithPorts(ports),
		nmap.WithServiceInfo(),
	)
	if err != nil {
		return errorResult(ModulePorts, fmt.Errorf("create nmap scanner: %w", err))
	}

	result, _, err := sc.Run()
	if err != nil {
		return errorResult(ModulePorts, fmt.Errorf("run nmap: %w", err))
	}

	return portResult(result.Hosts)
}

// Name implements Module.
func (ps *PortScanner) Name() ModuleName { return ModulePorts }

// Run implements Module.
func (ps *PortScanner) Run(ctx context.Context, target Target) ModuleResult {
	return ps.Scan(ctx, target)
}

// portResult converts nmap host entries into the module result, one info
// finding per open port.
func portResult(hosts []nmap.Host) ModuleResult {
	res := ModuleResult{Module: ModulePorts, Status: StatusOK, Ports: []PortInfo{}}

	for _, h := range hosts {
		for _, p := range h.Ports {
			if p.State.State != "open" {
				continue
			}
			info := PortInfo{
				Port:     int(p.ID),
				Protocol: p.Protocol,
				State:    p.State.State,
				Service:  p.Service.Name,
				Version:  p.Service.Version,
				Product:  p.Service.Product,
			}
			res.Ports = append(res.Ports, info)
			res.Findings = append(res.Findings, Finding{
				Category: portsCategory,
				ID:       fmt.Sprintf("%d/%s", info.Port, info.Protocol),
				Severity: SeverityInfo,
				Present:  true,
				Evidence: fmt.Sprintf("%s %s %s", info.Service, info.Product, info.Version),
				Description: fmt.Sprintf("Open port %d/%s", info.Port, info.Protocol),
			})
		}
	}
	return res
}
