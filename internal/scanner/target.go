package scanner

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Scheme is the protocol used to talk to the target's web surface.
type Scheme string

const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
)

// Target is a validated, normalized scan target. Immutable once resolved.
type Target struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	Scheme Scheme `json:"scheme"`
}

// Addr returns the host:port dial address.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// URL returns the base URL for HTTP requests, omitting default ports.
func (t Target) URL() string {
	if (t.Scheme == SchemeHTTP && t.Port == 80) || (t.Scheme == SchemeHTTPS && t.Port == 443) {
		return fmt.Sprintf("%s://%s", t.Scheme, t.Host)
	}
	return fmt.Sprintf("%s://%s", t.Scheme, t.Addr())
}

// Resolver validates raw target strings. LookupHost may be replaced in
// tests; the default performs a real forward lookup, which is the
// reachability precondition the scan modules rely on.
type Resolver struct {
	LookupHost func(ctx context.Context, host string) ([]string, error)
}

// NewResolver returns a Resolver backed by the default net resolver.
func NewResolver() *Resolver {
	return &Resolver{LookupHost: net.DefaultResolver.LookupHost}
}

// Resolve normalizes a user-supplied target string into a Target.
// A missing scheme defaults to http for resolution purposes; the default
// port follows the scheme unless the raw string carries an explicit one.
// Resolve is idempotent for the same input.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Target, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Target{}, &ValidationError{Target: raw, Err: ErrEmptyHost}
	}

	in := trimmed
	if !strings.Contains(in, "://") {
		in = "http://" + in
	}

	u, err := url.Parse(in)
	if err != nil || u.Hostname() == "" {
		return Target{}, &ValidationError{Target: raw, Err: ErrEmptyHost}
	}

	scheme := SchemeHTTP
	if u.Scheme == "https" {
		scheme = SchemeHTTPS
	}

	port := 80
	if scheme == SchemeHTTPS {
		port = 443
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return Target{}, &ValidationError{Target: raw, Err: ErrEmptyHost}
		}
		port = n
	}

	if _, err := r.LookupHost(ctx, u.Hostname()); err != nil {
		return Target{}, &ValidationError{Target: raw, Err: fmt.Errorf("%w: %v", ErrUnresolvableHost, err)}
	}

	return Target{Host: u.Hostname(), Port: port, Scheme: scheme}, nil
}
