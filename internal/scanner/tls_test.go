package scanner

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		notAfter time.Time
		want     int
	}{
		{now.Add(45 * 24 * time.Hour), 45},
		{now.Add(30 * 24 * time.Hour), 30},
		{now.Add(12 * time.Hour), 0},
		{now.Add(-2 * time.Hour), -1},
		{now.Add(-24 * time.Hour), -1},
		{now.Add(-10 * 24 * time.Hour), -10},
	}
	for _, tc := range cases {
		if got := daysUntil(tc.notAfter, now); got != tc.want {
			t.Errorf("daysUntil(%v) = %d, want %d", tc.notAfter, got, tc.want)
		}
	}
}

func TestIsWeakCipher(t *testing.T) {
	weak := []string{
		"TLS_RSA_WITH_RC4_128_SHA",
		"TLS_RSA_WITH_3DES_EDE_CBC_SHA",
		"TLS_NULL_WITH_NULL_NULL",
		"SSL_DH_anon_EXPORT_WITH_RC4_40_MD5",
		"TLS_RSA_WITH_DES_CBC_SHA",
	}
	for _, name := range weak {
		if !isWeakCipher(name) {
			t.Errorf("expected %s to be classified weak", name)
		}
	}

	strong := []string{
		"TLS_AES_256_GCM_SHA384",
		"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256",
		"TLS_CHACHA20_POLY1305_SHA256",
	}
	for _, name := range strong {
		if isWeakCipher(name) {
			t.Errorf("expected %s to be classified strong", name)
		}
	}
}

func TestInspect_SelfSignedCertificateFinding(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ti := &TLSInspector{Timeout: 5 * time.Second}
	res := ti.Inspect(context.Background(), targetFromURL(t, srv.URL))

	if res.Status != StatusOK {
		t.Fatalf("expected status ok, got %s (%s)", res.Status, res.Err)
	}
	if res.TLS == nil {
		t.Fatal("expected TLS details")
	}
	if res.TLS.CertificateError == "" {
		t.Error("expected a certificate error for a self-signed server")
	}

	found := false
	for _, f := range res.Findings {
		if f.ID == "Invalid Certificate" && f.Severity == SeverityHigh {
			found = true
		}
	}
	if !found {
		t.Errorf("expected high-severity Invalid Certificate finding, got %+v", res.Findings)
	}
}

func TestInspect_TrustedCertificateInfo(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())

	ti := &TLSInspector{Timeout: 5 * time.Second, RootCAs: pool}
	res := ti.Inspect(context.Background(), targetFromURL(t, srv.URL))

	if res.Status != StatusOK {
		t.Fatalf("expected status ok, got %s (%s)", res.Status, res.Err)
	}
	cert := res.TLS.Certificate
	if cert == nil {
		t.Fatal("expected certificate info")
	}
	if cert.Expired {
		t.Error("test server certificate should not be expired")
	}
	if cert.Expired && cert.ExpiringSoon {
		t.Error("expired and expiring-soon are mutually exclusive")
	}
	for _, f := range res.Findings {
		if f.ID == "Invalid Certificate" {
			t.Errorf("unexpected Invalid Certificate finding with trusted roots: %+v", f)
		}
	}
}

func TestInspect_VersionProbes(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ti := &TLSInspector{Timeout: 5 * time.Second}
	res := ti.Inspect(context.Background(), targetFromURL(t, srv.URL))

	supported := res.TLS.Versions.Supported
	if len(supported) == 0 {
		t.Fatal("expected at least one supported TLS version")
	}
	has12 := false
	for _, v := range supported {
		if v == "TLSv1.2" {
			has12 = true
		}
	}
	if !has12 {
		t.Errorf("expected TLSv1.2 support, got %v", supported)
	}
	// Go's test server refuses the deprecated versions.
	if len(res.TLS.Versions.Weak) != 0 {
		t.Errorf("expected no weak versions, got %v", res.TLS.Versions.Weak)
	}
	for _, f := range res.Findings {
		if f.ID == "Weak TLS Version" {
			t.Errorf("unexpected weak version finding: %+v", f)
		}
	}
}

func TestInspect_DeprecatedVersionsYieldOneHighFinding(t *testing.T) {
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.TLS = &tls.Config{MinVersion: tls.VersionTLS10}
	srv.StartTLS()
	defer srv.Close()

	ti := &TLSInspector{Timeout: 5 * time.Second}
	res := ti.Inspect(context.Background(), targetFromURL(t, srv.URL))

	if res.Status != StatusOK {
		t.Fatalf("expected status ok, got %s (%s)", res.Status, res.Err)
	}
	weak := res.TLS.Versions.Weak
	if len(weak) != 2 || weak[0] != "TLSv1.0" || weak[1] != "TLSv1.1" {
		t.Fatalf("expected weak versions [TLSv1.0 TLSv1.1], got %v", weak)
	}

	var versionFindings []Finding
	for _, f := range res.Findings {
		if f.ID == "Weak TLS Version" {
			versionFindings = append(versionFindings, f)
		}
	}
	if len(versionFindings) != 1 {
		t.Fatalf("expected exactly one weak version finding, got %d", len(versionFindings))
	}
	f := versionFindings[0]
	if f.Severity != SeverityHigh {
		t.Errorf("expected high severity, got %s", f.Severity)
	}
	if f.Evidence != "TLSv1.0, TLSv1.1" {
		t.Errorf("expected the finding to list every accepted weak version, got %q", f.Evidence)
	}
}

func testCertificate(t *testing.T, notBefore, notAfter time.Time) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "example.com"},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return cert
}

func TestSummarizeCertificate_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cert := testCertificate(t, now.Add(-400*24*time.Hour), now.Add(-10*24*time.Hour))

	info, finding, vuln := summarizeCertificate(cert, now)

	if !info.Expired || info.DaysUntilExpiry != -10 {
		t.Fatalf("expected expired cert with -10 days, got %+v", info)
	}
	if finding.ID != "Invalid Certificate" || finding.Severity != SeverityHigh {
		t.Errorf("expected high Invalid Certificate finding, got %+v", finding)
	}
	if vuln == nil || vuln.Type != "Invalid Certificate" || vuln.Severity != SeverityHigh {
		t.Errorf("expected high Invalid Certificate vulnerability, got %+v", vuln)
	}
}

func TestSummarizeCertificate_ExpiringSoon(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cert := testCertificate(t, now.Add(-30*24*time.Hour), now.Add(15*24*time.Hour))

	info, finding, vuln := summarizeCertificate(cert, now)

	if info.Expired || !info.ExpiringSoon {
		t.Fatalf("expected expiring-soon cert, got %+v", info)
	}
	if finding.ID != "Certificate" || finding.Severity != SeverityLow {
		t.Errorf("expected low Certificate finding, got %+v", finding)
	}
	if vuln != nil {
		t.Errorf("a still-valid certificate is not a vulnerability: %+v", vuln)
	}
}

func TestInspect_ModernCipherNotFlagged(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ti := &TLSInspector{Timeout: 5 * time.Second}
	res := ti.Inspect(context.Background(), targetFromURL(t, srv.URL))

	if len(res.TLS.WeakCiphers) != 0 {
		t.Errorf("expected no weak ciphers against the test server, got %+v", res.TLS.WeakCiphers)
	}
}

func TestInspect_UnreachableHostIsModuleError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	target := targetFromURL(t, "https://"+ln.Addr().String())
	ln.Close()

	ti := &TLSInspector{Timeout: time.Second}
	res := ti.Inspect(context.Background(), target)

	if res.Status != StatusError {
		t.Fatalf("expected status error, got %s", res.Status)
	}
	if res.Err == "" {
		t.Error("expected an error message")
	}
}
