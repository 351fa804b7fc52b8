package scanner

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const dirsCategory = "directories"

// PathClass buckets HTTP status codes for brute-force discovery.
type PathClass string

const (
	ClassFound        PathClass = "found"
	ClassRedirect     PathClass = "redirect"
	ClassForbidden    PathClass = "forbidden"
	ClassUnauthorized PathClass = "unauthorized"
)

// pathClassifications is the fixed status-code table. Codes outside it,
// including 5xx, are deliberately not recorded: absence of a finding means
// "not found", not "error".
var pathClassifications = map[int]PathClass{
	200: ClassFound,
	201: ClassFound,
	202: ClassFound,
	204: ClassFound,
	301: ClassRedirect,
	302: ClassRedirect,
	307: ClassRedirect,
	401: ClassUnauthorized,
	403: ClassForbidden,
}

// PathProbeResult records one discovered path with its evidence.
type PathProbeResult struct {
	URL            string    `json:"url"`
	Path           string    `json:"path"`
	StatusCode     int       `json:"status_code"`
	Classification PathClass `json:"status"`
	SizeBytes      int64     `json:"content_length"`
	LatencySeconds float64   `json:"response_time"`
}

// PathProbe issues one GET per wordlist entry and classifies the responses.
// Requests run on a fixed-size worker pool under a global rate limit sized
// to avoid overwhelming the target; results are reassembled in wordlist
// order so reports stay deterministic.
type PathProbe struct {
	Timeout   time.Duration // per request
	Workers   int           // pool size; <=0 means 1
	RateLimit int           // requests per second; <=0 means unlimited
	Wordlist  []string
}

// Probe scans the target with the configured wordlist. The base URL is
// normalized to a trailing separator; a TLS handshake failure against the
// https variant switches the whole run to http.
func (pp *PathProbe) Probe(ctx context.Context, target Target) ModuleResult {
	res := ModuleResult{Module: ModuleDirectories, Status: StatusOK}

	client := newInsecureClient(pp.Timeout)
	base := target.URL()
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	// Initial reachability check, mirroring the https->http fallback of the
	// header module but sticky for the rest of the run.
	resp, err := getWithContext(ctx, client, base)
	if err != nil && target.Scheme == SchemeHTTPS && isTLSHandshakeError(err) {
		base = httpsToHTTP(base)
		resp, err = getWithContext(ctx, client, base)
	}
	if err != nil {
		return errorResult(ModuleDirectories, fmt.Errorf("connect %s: %w", base, err))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	workers := pp.Workers
	if workers <= 0 {
		workers = 1
	}
	var limiter *rate.Limiter
	if pp.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(pp.RateLimit), pp.RateLimit)
	}

	// Indexed by wordlist position; compacted afterwards to preserve order.
	hits := make([]*PathProbeResult, len(pp.Wordlist))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, entry := range pp.Wordlist {
		wg.Add(1)
		go func(i int, entry string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
			}

			hits[i] = pp.probeOne(ctx, client, base, entry)
		}(i, entry)
	}
	wg.Wait()

	for _, hit := range hits {
		if hit == nil {
			continue
		}
		res.Paths = append(res.Paths, *hit)
		res.Findings = append(res.Findings, Finding{
			Category: dirsCategory, ID: hit.Path, Severity: pathSeverity(hit.Classification),
			Present:  true,
			Evidence: fmt.Sprintf("%d %s", hit.StatusCode, hit.Classification),
			Description: fmt.Sprintf("Accessible path discovered at %s", hit.URL),
		})
	}
	return res
}

// Name implements Module.
func (pp *PathProbe) Name() ModuleName { return ModuleDirectories }

// Run implements Module.
func (pp *PathProbe) Run(ctx context.Context, target Target) ModuleResult {
	return pp.Probe(ctx, target)
}

// probeOne requests base+entry and classifies the response. Unlisted status
// codes and request errors return nil.
func (pp *PathProbe) probeOne(ctx context.Context, client *http.Client, base, entry string) *PathProbeResult {
	reqCtx, cancel := context.WithTimeout(ctx, pp.Timeout)
	defer cancel()

	url := base + entry
	start := time.Now()
	resp, err := getWithContext(reqCtx, client, url)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	size, _ := io.Copy(io.Discard, resp.Body)
	elapsed := time.Since(start).Seconds()

	class, ok := pathClassifications[resp.StatusCode]
	if !ok {
		return nil
	}

	return &PathProbeResult{
		URL:            url,
		Path:           entry,
		StatusCode:     resp.StatusCode,
		Classification: class,
		SizeBytes:      size,
		LatencySeconds: elapsed,
	}
}

func pathSeverity(class PathClass) Severity {
	switch class {
	case ClassForbidden, ClassUnauthorized:
		return SeverityLow
	default:
		return SeverityInfo
	}
}
