package scanner

import (
	"context"
	"io"
	"net/http"
	"time"
)

const headersCategory = "headers"

// Sentinel evidence values for headers that were absent or unreachable.
const (
	headerMissing = "MISSING"
	headerError   = "ERROR"
)

// HeaderPolicy is one entry of the security-header policy table.
type HeaderPolicy struct {
	Name        string
	Severity    Severity
	Description string
}

// securityHeaderPolicies is the fixed, ordered policy table. Findings are
// emitted in this order on every run.
var securityHeaderPolicies = []HeaderPolicy{
	{"Content-Security-Policy", SeverityHigh, "Prevents XSS attacks by controlling resource loading"},
	{"X-Frame-Options", SeverityMedium, "Prevents clickjacking attacks"},
	{"X-XSS-Protection", SeverityLow, "Enables XSS filter in browsers (deprecated but still used)"},
	{"Strict-Transport-Security", SeverityHigh, "Forces HTTPS connections (HSTS)"},
	{"X-Content-Type-Options", SeverityMedium, "Prevents MIME type sniffing"},
	{"Referrer-Policy", SeverityLow, "Controls referrer information sent with requests"},
}

// disclosureHeaders expose implementation details when present. Presence is
// the finding; the value is recorded as evidence.
var disclosureHeaders = []HeaderPolicy{
	{"Server", SeverityInfo, "Server information disclosure"},
	{"X-Powered-By", SeverityLow, "Technology stack disclosure"},
}

// HeaderAuditor evaluates one HTTP response against the security-header
// policy table.
type HeaderAuditor struct {
	Timeout time.Duration
}

// Audit issues a single GET request (redirects followed, certificate
// verification disabled, https falling back to http on a TLS handshake
// failure) and produces one finding per policy entry. On total connection
// failure the module reports status=error but still emits every policy
// finding with the ERROR sentinel, so the report shape stays uniform.
func (ha *HeaderAuditor) Audit(ctx context.Context, target Target) ModuleResult {
	res := ModuleResult{Module: ModuleHeaders, Status: StatusOK}

	client := newInsecureClient(ha.Timeout)
	url := target.URL()

	resp, err := getWithContext(ctx, client, url)
	if err != nil && target.Scheme == SchemeHTTPS && isTLSHandshakeError(err) {
		resp, err = getWithContext(ctx, client, httpsToHTTP(url))
	}
	if err != nil {
		res.Status = StatusError
		res.Err = err.Error()
		for _, policy := range securityHeaderPolicies {
			res.Findings = append(res.Findings, Finding{
				Category: headersCategory, ID: policy.Name, Severity: policy.Severity,
				Present: false, Evidence: headerError, Description: policy.Description,
			})
		}
		return res
	}
	defer resp.Body.Close()
	defer func() { _, _ = io.Copy(io.Discard, resp.Body) }()

	res.Findings = auditHeaders(resp.Header)
	return res
}

// Name implements Module.
func (ha *HeaderAuditor) Name() ModuleName { return ModuleHeaders }

// Run implements Module.
func (ha *HeaderAuditor) Run(ctx context.Context, target Target) ModuleResult {
	return ha.Audit(ctx, target)
}

// auditHeaders walks the policy table in order, then the disclosure list.
func auditHeaders(headers http.Header) []Finding {
	findings := make([]Finding, 0, len(securityHeaderPolicies))

	for _, policy := range securityHeaderPolicies {
		value := headers.Get(policy.Name)
		f := Finding{
			Category: headersCategory, ID: policy.Name, Severity: policy.Severity,
			Present: value != "", Evidence: value, Description: policy.Description,
		}
		if value == "" {
			f.Evidence = headerMissing
		}
		findings = append(findings, f)
	}

	for _, policy := range disclosureHeaders {
		if value := headers.Get(policy.Name); value != "" {
			findings = append(findings, Finding{
				Category: headersCategory, ID: policy.Name, Severity: policy.Severity,
				Present: true, Evidence: value, Description: policy.Description,
			})
		}
	}

	return findings
}
