package cmd

import (
	"time"

	"github.com/spf13/viper"

	"github.com/nexscan/nexscan-cli/internal/scanner"
)

const (
	defaultHTTPTimeoutSeconds   = 10
	defaultModuleTimeoutSeconds = 120
	defaultDirWorkers           = 10
	defaultDirRateLimit         = 0 // unlimited
)

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	HTTPTimeoutSecs   int
	ModuleTimeoutSecs int
	Concurrency       int
	Dir               DirConfig
	Ports             PortsConfig
	HistoryPath       string
}

// DirConfig groups path brute-force runtime options.
type DirConfig struct {
	Workers      int
	RateLimit    int
	WordlistPath string
}

// PortsConfig captures port scan runtime options.
type PortsConfig struct {
	ScanType string
}

func setConfigDefaults() {
	viper.SetDefault("http_timeout", defaultHTTPTimeoutSeconds)
	viper.SetDefault("module_timeout", defaultModuleTimeoutSeconds)
	viper.SetDefault("concurrency", 4)
	viper.SetDefault("dir.workers", defaultDirWorkers)
	viper.SetDefault("dir.rate_limit", defaultDirRateLimit)
	viper.SetDefault("dir.wordlist", "")
	viper.SetDefault("ports.scan_type", scanner.ScanTypeFast)
	viper.SetDefault("history_path", "")
	viper.SetDefault("results_dir", "./results")
}

// loadCLIConfig materializes the active configuration from viper (config
// file values layered over defaults).
func loadCLIConfig() CLIConfig {
	return CLIConfig{
		HTTPTimeoutSecs:   viper.GetInt("http_timeout"),
		ModuleTimeoutSecs: viper.GetInt("module_timeout"),
		Concurrency:       viper.GetInt("concurrency"),
		Dir: DirConfig{
			Workers:      viper.GetInt("dir.workers"),
			RateLimit:    viper.GetInt("dir.rate_limit"),
			WordlistPath: viper.GetString("dir.wordlist"),
		},
		Ports: PortsConfig{
			ScanType: viper.GetString("ports.scan_type"),
		},
		HistoryPath: viper.GetString("history_path"),
	}
}

// scannerConfig translates CLI configuration into the orchestrator's config.
func (c CLIConfig) scannerConfig() scanner.Config {
	return scanner.Config{
		ModuleTimeout:  time.Duration(c.ModuleTimeoutSecs) * time.Second,
		RequestTimeout: time.Duration(c.HTTPTimeoutSecs) * time.Second,
		Concurrency:    c.Concurrency,
		DirWorkers:     c.Dir.Workers,
		DirRateLimit:   c.Dir.RateLimit,
		ScanType:       c.Ports.ScanType,
	}
}
