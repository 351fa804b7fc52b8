package scanner

import (
	"net/url"
	"strconv"
	"testing"
)

// targetFromURL builds a Target pointing at a test server.
func targetFromURL(t *testing.T, raw string) Target {
	t.Helper()

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse test server URL %q: %v", raw, err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse test server port %q: %v", u.Port(), err)
	}
	scheme := SchemeHTTP
	if u.Scheme == "https" {
		scheme = SchemeHTTPS
	}
	return Target{Host: u.Hostname(), Port: port, Scheme: scheme}
}
