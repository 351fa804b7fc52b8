package scanner

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"strings"
	"time"
)

// newInsecureClient builds an HTTP client that follows redirects and skips
// certificate verification. The header and path modules assess server
// configuration, not trust, so an invalid certificate must not hide the
// response they are inspecting.
func newInsecureClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
}

func getWithContext(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}

// isTLSHandshakeError reports whether an HTTP request failed during the TLS
// handshake, which is the signal to fall back from https to http. Connection
// refused, timeouts and the like are not handshake failures.
func isTLSHandshakeError(err error) bool {
	if err == nil {
		return false
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	return strings.Contains(err.Error(), "tls:")
}

// httpsToHTTP rewrites an https URL to its http equivalent.
func httpsToHTTP(url string) string {
	return "http://" + strings.TrimPrefix(url, "https://")
}
