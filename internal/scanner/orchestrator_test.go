package scanner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeModule struct {
	name   ModuleName
	delay  time.Duration
	panics bool
	status RunStatus
}

func (f *fakeModule) Name() ModuleName { return f.name }

func (f *fakeModule) Run(ctx context.Context, target Target) ModuleResult {
	if f.panics {
		panic("fake module exploded")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}
	return ModuleResult{Module: f.name, Status: f.status}
}

func testOrchestrator(concurrency int) *Orchestrator {
	return &Orchestrator{cfg: Config{
		Concurrency: concurrency,
		Logger:      zap.NewNop().Sugar(),
	}}
}

func TestRun_PanicIsIsolated(t *testing.T) {
	o := testOrchestrator(4)
	mods := []Module{
		&fakeModule{name: ModuleHeaders, panics: true},
		&fakeModule{name: ModuleDirectories, status: StatusOK},
	}

	report := o.run(context.Background(), Target{Host: "example.com"}, mods)

	if len(report.Results) != 2 {
		t.Fatalf("expected 2 module results, got %d", len(report.Results))
	}
	headers := report.Result(ModuleHeaders)
	if headers == nil || headers.Status != StatusError {
		t.Errorf("expected headers module error, got %+v", headers)
	}
	dirs := report.Result(ModuleDirectories)
	if dirs == nil || dirs.Status != StatusOK {
		t.Errorf("expected directories module ok, got %+v", dirs)
	}
}

func TestRun_ReportOrderIsFixed(t *testing.T) {
	o := testOrchestrator(4)
	// The first module finishes last; order must not depend on timing.
	mods := []Module{
		&fakeModule{name: ModulePorts, delay: 50 * time.Millisecond, status: StatusOK},
		&fakeModule{name: ModuleHeaders, status: StatusOK},
		&fakeModule{name: ModuleTLS, status: StatusError},
	}

	report := o.run(context.Background(), Target{Host: "example.com"}, mods)

	want := []ModuleName{ModulePorts, ModuleHeaders, ModuleTLS}
	if len(report.Results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(report.Results))
	}
	for i, name := range want {
		if report.Results[i].Module != name {
			t.Errorf("result %d: expected %s, got %s", i, name, report.Results[i].Module)
		}
	}
}

func TestRun_CancelledBeforeStartYieldsNoResults(t *testing.T) {
	o := testOrchestrator(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := o.run(ctx, Target{Host: "example.com"}, []Module{
		&fakeModule{name: ModuleHeaders, status: StatusOK},
		&fakeModule{name: ModuleTLS, status: StatusOK},
	})

	if len(report.Results) != 0 {
		t.Errorf("expected no results after pre-run cancellation, got %d", len(report.Results))
	}
}

func TestRunScan_TLSOnlyForEligibleTargets(t *testing.T) {
	o := New(Config{Logger: zap.NewNop().Sugar()})

	sel := Selection{TLS: true}
	plain := Target{Host: "example.com", Port: 8080, Scheme: SchemeHTTP}

	report := o.RunScan(context.Background(), plain, sel)
	if len(report.Results) != 0 {
		t.Errorf("tls must not run against a plain-http target, got %+v", report.Results)
	}
}

func TestRunScan_SelectiveHeadersOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	o := New(Config{RequestTimeout: 5 * time.Second, Logger: zap.NewNop().Sugar()})
	report := o.RunScan(context.Background(), targetFromURL(t, srv.URL), Selection{Headers: true})

	if len(report.Results) != 1 {
		t.Fatalf("expected exactly the headers result, got %d", len(report.Results))
	}
	if report.Results[0].Module != ModuleHeaders {
		t.Errorf("expected headers module, got %s", report.Results[0].Module)
	}
	if report.Result(ModuleTLS) != nil || report.Result(ModulePorts) != nil {
		t.Error("unselected modules must be absent from the report")
	}
}

func TestRun_ModuleErrorDoesNotAbortOthers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	target := targetFromURL(t, srv.URL)

	o := testOrchestrator(4)
	mods := []Module{
		&TLSInspector{Timeout: time.Second}, // handshake fails against the plain listener
		&HeaderAuditor{Timeout: 5 * time.Second},
		&PathProbe{Timeout: 5 * time.Second, Wordlist: []string{"admin"}},
	}

	report := o.run(context.Background(), target, mods)

	if len(report.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(report.Results))
	}
	if headers := report.Result(ModuleHeaders); headers == nil || headers.Status != StatusOK {
		t.Errorf("expected headers ok, got %+v", headers)
	}
	if dirs := report.Result(ModuleDirectories); dirs == nil || dirs.Status != StatusOK {
		t.Errorf("expected directories ok, got %+v", dirs)
	}
}
