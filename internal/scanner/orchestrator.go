package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Module is one independent scan probe. Run must return exactly one
// ModuleResult and never panic across the boundary; the orchestrator
// converts residual panics into error results.
type Module interface {
	Name() ModuleName
	Run(ctx context.Context, target Target) ModuleResult
}

// moduleOrder fixes the report layout regardless of completion order.
var moduleOrder = []ModuleName{ModulePorts, ModuleHeaders, ModuleTLS, ModuleDirectories}

// Selection names the modules a caller wants to run. Unselected modules are
// absent from the report, not present with an error.
type Selection struct {
	Ports       bool
	Headers     bool
	TLS         bool
	Directories bool
}

// FullSelection selects every module.
func FullSelection() Selection {
	return Selection{Ports: true, Headers: true, TLS: true, Directories: true}
}

func (s Selection) includes(m ModuleName) bool {
	switch m {
	case ModulePorts:
		return s.Ports
	case ModuleHeaders:
		return s.Headers
	case ModuleTLS:
		return s.TLS
	case ModuleDirectories:
		return s.Directories
	}
	return false
}

// Config sizes the orchestrator and its modules for one scan run.
type Config struct {
	ModuleTimeout  time.Duration // cap per module, 0 = no cap
	RequestTimeout time.Duration // per network operation inside a module
	Concurrency    int           // concurrently running modules
	DirWorkers     int           // path probe pool size
	DirRateLimit   int           // path probe requests per second
	Wordlist       []string      // nil = built-in list
	ScanType       string        // port scan breadth
	Logger         *zap.SugaredLogger
}

// Orchestrator sequences the scan modules against a resolved target,
// isolates per-module failure, and assembles the report. Modules never
// touch the report themselves; the orchestrator is its sole writer until
// the run completes.
type Orchestrator struct {
	cfg     Config
	modules map[ModuleName]Module
}

// New builds an orchestrator with the standard module set.
func New(cfg Config) *Orchestrator {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = len(moduleOrder)
	}
	if cfg.Wordlist == nil {
		cfg.Wordlist = DefaultWordlist()
	}
	if cfg.ScanType == "" {
		cfg.ScanType = ScanTypeFast
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	return &Orchestrator{
		cfg: cfg,
		modules: map[ModuleName]Module{
			ModulePorts:   &PortScanner{ScanType: cfg.ScanType, Timeout: cfg.ModuleTimeout},
			ModuleHeaders: &HeaderAuditor{Timeout: cfg.RequestTimeout},
			ModuleTLS:     &TLSInspector{Timeout: cfg.RequestTimeout},
			ModuleDirectories: &PathProbe{
				Timeout:   cfg.RequestTimeout,
				Workers:   cfg.DirWorkers,
				RateLimit: cfg.DirRateLimit,
				Wordlist:  cfg.Wordlist,
			},
		},
	}
}

// RunFull scans the target with every applicable module.
func (o *Orchestrator) RunFull(ctx context.Context, target Target) *Report {
	return o.RunScan(ctx, target, FullSelection())
}

// RunScan runs the selected, applicable modules. The tls module only applies
// to https-eligible targets (https scheme or port 443); that decision lives
// here, not in the inspector.
func (o *Orchestrator) RunScan(ctx context.Context, target Target, sel Selection) *Report {
	var mods []Module
	for _, name := range moduleOrder {
		if !sel.includes(name) {
			continue
		}
		if name == ModuleTLS && !httpsEligible(target) {
			continue
		}
		mods = append(mods, o.modules[name])
	}
	return o.run(ctx, target, mods)
}

// run executes the modules concurrently under a bounded semaphore. Each slot
// of results corresponds to one module; a module that never starts (the run
// was cancelled first) leaves its slot nil and is absent from the report.
// Completed results survive cancellation.
func (o *Orchestrator) run(ctx context.Context, target Target, mods []Module) *Report {
	report := &Report{Target: target, StartedAt: time.Now().UTC()}

	sem := make(chan struct{}, o.cfg.Concurrency)
	results := make([]*ModuleResult, len(mods))
	var wg sync.WaitGroup

	for i, m := range mods {
		wg.Add(1)
		go func(i int, m Module) {
			defer wg.Done()

			if ctx.Err() != nil {
				return
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			mctx := ctx
			if o.cfg.ModuleTimeout > 0 {
				var cancel context.CancelFunc
				mctx, cancel = context.WithTimeout(ctx, o.cfg.ModuleTimeout)
				defer cancel()
			}

			start := time.Now()
			o.cfg.Logger.Infow("module start", "module", m.Name(), "target", target.Host)
			res := o.runModule(mctx, m, target)
			o.cfg.Logger.Infow("module done",
				"module", m.Name(), "status", res.Status, "elapsed", time.Since(start))
			results[i] = &res
		}(i, m)
	}
	wg.Wait()

	for _, res := range results {
		if res != nil {
			report.Results = append(report.Results, *res)
		}
	}
	return report
}

// runModule is the module fault boundary: any panic becomes an error result
// so one module can never take down the run.
func (o *Orchestrator) runModule(ctx context.Context, m Module, target Target) (res ModuleResult) {
	defer func() {
		if r := recover(); r != nil {
			o.cfg.Logger.Errorw("module panic", "module", m.Name(), "panic", r)
			res = errorResult(m.Name(), fmt.Errorf("module panic: %v", r))
		}
	}()
	return m.Run(ctx, target)
}

func httpsEligible(target Target) bool {
	return target.Scheme == SchemeHTTPS || target.Port == 443
}
