package scanner

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"math"
	"net"
	"strings"
	"time"
)

const tlsCategory = "tls"

// expiryWarningDays is the window in which a still-valid certificate is
// reported as expiring soon.
const expiryWarningDays = 30

// CertificateInfo summarizes the leaf certificate presented by the target.
type CertificateInfo struct {
	Subject         string `json:"subject"`
	Issuer          string `json:"issuer"`
	NotBefore       string `json:"not_before"`
	NotAfter        string `json:"not_after"`
	DaysUntilExpiry int    `json:"days_until_expiry"`
	Expired         bool   `json:"expired"`
	ExpiringSoon    bool   `json:"expiring_soon"`
}

// TLSVersionReport records which protocol versions the server negotiated
// during the per-version probes.
type TLSVersionReport struct {
	Supported []string `json:"supported"`
	Weak      []string `json:"weak_versions"`
}

// WeakCipher describes a negotiated cipher suite matching the denylist.
type WeakCipher struct {
	Cipher      string   `json:"cipher"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// TLSVulnerability is one confirmed transport-layer weakness.
type TLSVulnerability struct {
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// TLSDetails is the tls module's structured payload, shaped for the legacy
// JSON export.
type TLSDetails struct {
	Certificate      *CertificateInfo   `json:"certificate,omitempty"`
	CertificateError string             `json:"certificate_error,omitempty"`
	Versions         TLSVersionReport   `json:"tls_versions"`
	WeakCiphers      []WeakCipher       `json:"weak_ciphers"`
	Vulnerabilities  []TLSVulnerability `json:"vulnerabilities"`
}

// probeVersions is the fixed protocol table, oldest first. Findings and the
// supported list follow this order.
var probeVersions = []struct {
	id   uint16
	name string
}{
	{tls.VersionTLS10, "TLSv1.0"},
	{tls.VersionTLS11, "TLSv1.1"},
	{tls.VersionTLS12, "TLSv1.2"},
	{tls.VersionTLS13, "TLSv1.3"},
}

// weakVersions are deprecated protocol versions with known cryptographic
// weaknesses.
var weakVersions = map[string]bool{
	"TLSv1.0": true,
	"TLSv1.1": true,
}

// weakCipherMarkers flags legacy stream ciphers, export-grade suites, null
// and anonymous key exchange, weak block ciphers and deprecated hashes by
// substring match on the negotiated suite name.
var weakCipherMarkers = []string{
	"RC4", "DES", "3DES", "MD5", "SHA1", "NULL", "EXPORT", "ANON", "ADH", "LOW",
}

// TLSInspector probes a host:port for certificate validity, supported
// protocol versions and negotiated cipher strength. The orchestrator decides
// whether a target is https-eligible; the inspector itself does not.
type TLSInspector struct {
	Timeout time.Duration

	// RootCAs overrides the trust store for the verifying certificate
	// check. Nil means system roots.
	RootCAs *x509.CertPool
}

// Inspect runs the three sub-checks against the target. Each uses its own
// time-bounded connection; only a connectivity failure on the initial
// certificate check surfaces as a module error.
func (ti *TLSInspector) Inspect(ctx context.Context, target Target) ModuleResult {
	res := ModuleResult{
		Module: ModuleTLS,
		Status: StatusOK,
		TLS: &TLSDetails{
			Versions:        TLSVersionReport{Supported: []string{}, Weak: []string{}},
			WeakCiphers:     []WeakCipher{},
			Vulnerabilities: []TLSVulnerability{},
		},
	}

	if err := ti.checkCertificate(ctx, target, &res); err != nil {
		return errorResult(ModuleTLS, fmt.Errorf("connect %s: %w", target.Addr(), err))
	}
	ti.checkVersions(ctx, target, &res)
	ti.checkCipher(ctx, target, &res)

	return res
}

// Name implements Module.
func (ti *TLSInspector) Name() ModuleName { return ModuleTLS }

// Run implements Module.
func (ti *TLSInspector) Run(ctx context.Context, target Target) ModuleResult {
	return ti.Inspect(ctx, target)
}

// checkCertificate performs a verifying handshake and parses the leaf
// certificate. A TCP connect failure is returned to the caller; a handshake
// or validation failure is itself a finding, not an error.
func (ti *TLSInspector) checkCertificate(ctx context.Context, target Target, res *ModuleResult) error {
	conn, err := ti.dial(ctx, target)
	if err != nil {
		return err
	}
	defer conn.Close()

	tc := tls.Client(conn, &tls.Config{ServerName: target.Host, RootCAs: ti.RootCAs})
	if err := tc.HandshakeContext(ctx); err != nil {
		res.TLS.CertificateError = err.Error()
		desc := fmt.Sprintf("Certificate validation failed: %v", err)
		res.TLS.Vulnerabilities = append(res.TLS.Vulnerabilities, TLSVulnerability{
			Type: "Invalid Certificate", Severity: SeverityHigh, Description: desc,
		})
		res.Findings = append(res.Findings, Finding{
			Category: tlsCategory, ID: "Invalid Certificate", Severity: SeverityHigh,
			Present: true, Evidence: err.Error(), Description: desc,
		})
		return nil
	}

	state := tc.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		res.TLS.CertificateError = "no peer certificate presented"
		return nil
	}

	info, finding, vuln := summarizeCertificate(state.PeerCertificates[0], time.Now())
	res.TLS.Certificate = info
	if vuln != nil {
		res.TLS.Vulnerabilities = append(res.TLS.Vulnerabilities, *vuln)
	}
	res.Findings = append(res.Findings, finding)
	return nil
}

// summarizeCertificate classifies a leaf certificate against the clock: a
// finding for the report, plus a vulnerability entry when it has expired.
func summarizeCertificate(cert *x509.Certificate, now time.Time) (*CertificateInfo, Finding, *TLSVulnerability) {
	days := daysUntil(cert.NotAfter, now)
	info := &CertificateInfo{
		Subject:         cert.Subject.CommonName,
		Issuer:          cert.Issuer.CommonName,
		NotBefore:       cert.NotBefore.Format(time.RFC3339),
		NotAfter:        cert.NotAfter.Format(time.RFC3339),
		DaysUntilExpiry: days,
		Expired:         days < 0,
		ExpiringSoon:    days >= 0 && days <= expiryWarningDays,
	}

	if info.Expired {
		desc := fmt.Sprintf("Certificate expired %d days ago", -days)
		return info, Finding{
			Category: tlsCategory, ID: "Invalid Certificate", Severity: SeverityHigh,
			Present: true, Evidence: info.NotAfter, Description: desc,
		}, &TLSVulnerability{Type: "Invalid Certificate", Severity: SeverityHigh, Description: desc}
	}

	severity := SeverityInfo
	desc := fmt.Sprintf("Certificate valid, expires in %d days", days)
	if info.ExpiringSoon {
		severity = SeverityLow
		desc = fmt.Sprintf("Certificate expires soon, in %d days", days)
	}
	return info, Finding{
		Category: tlsCategory, ID: "Certificate", Severity: severity,
		Present: true, Evidence: info.Subject, Description: desc,
	}, nil
}

// checkVersions attempts one handshake per protocol version, pinned to
// exactly that version with verification disabled. Handshake failure means
// "not supported", never an error.
func (ti *TLSInspector) checkVersions(ctx context.Context, target Target, res *ModuleResult) {
	for _, v := range probeVersions {
		conn, err := ti.dial(ctx, target)
		if err != nil {
			continue
		}
		tc := tls.Client(conn, &tls.Config{
			ServerName:         target.Host,
			MinVersion:         v.id,
			MaxVersion:         v.id,
			InsecureSkipVerify: true,
		})
		if err := tc.HandshakeContext(ctx); err == nil {
			res.TLS.Versions.Supported = append(res.TLS.Versions.Supported, v.name)
			if weakVersions[v.name] {
				res.TLS.Versions.Weak = append(res.TLS.Versions.Weak, v.name)
			}
		}
		tc.Close()
	}

	if weak := res.TLS.Versions.Weak; len(weak) > 0 {
		desc := fmt.Sprintf("Server supports deprecated TLS versions: %s", strings.Join(weak, ", "))
		res.TLS.Vulnerabilities = append(res.TLS.Vulnerabilities, TLSVulnerability{
			Type: "Weak TLS Version", Severity: SeverityHigh, Description: desc,
		})
		res.Findings = append(res.Findings, Finding{
			Category: tlsCategory, ID: "Weak TLS Version", Severity: SeverityHigh,
			Present: true, Evidence: strings.Join(weak, ", "), Description: desc,
		})
	}
}

// checkCipher inspects the cipher suite negotiated by a default handshake.
func (ti *TLSInspector) checkCipher(ctx context.Context, target Target, res *ModuleResult) {
	conn, err := ti.dial(ctx, target)
	if err != nil {
		return
	}
	defer conn.Close()

	tc := tls.Client(conn, &tls.Config{ServerName: target.Host, InsecureSkipVerify: true})
	if err := tc.HandshakeContext(ctx); err != nil {
		return
	}

	name := tls.CipherSuiteName(tc.ConnectionState().CipherSuite)
	if !isWeakCipher(name) {
		return
	}

	desc := fmt.Sprintf("Weak cipher in use: %s", name)
	res.TLS.WeakCiphers = append(res.TLS.WeakCiphers, WeakCipher{
		Cipher: name, Severity: SeverityMedium, Description: "Weak cipher suite detected",
	})
	res.TLS.Vulnerabilities = append(res.TLS.Vulnerabilities, TLSVulnerability{
		Type: "Weak Cipher Suite", Severity: SeverityMedium, Description: desc,
	})
	res.Findings = append(res.Findings, Finding{
		Category: tlsCategory, ID: "Weak Cipher Suite", Severity: SeverityMedium,
		Present: true, Evidence: name, Description: desc,
	})
}

func (ti *TLSInspector) dial(ctx context.Context, target Target) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: ti.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", target.Addr())
	if err != nil {
		return nil, err
	}
	_ = conn.SetDeadline(time.Now().Add(ti.Timeout))
	return conn, nil
}

// daysUntil converts the time remaining before notAfter into whole days,
// rounding down so an expired certificate yields a negative count.
func daysUntil(notAfter, now time.Time) int {
	return int(math.Floor(notAfter.Sub(now).Hours() / 24))
}

// isWeakCipher reports whether the suite name contains any denylisted
// substring.
func isWeakCipher(name string) bool {
	upper := strings.ToUpper(name)
	for _, marker := range weakCipherMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
