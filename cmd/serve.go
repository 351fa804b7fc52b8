package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nexscan/nexscan-cli/internal/api"
	"github.com/nexscan/nexscan-cli/internal/history"
	"github.com/nexscan/nexscan-cli/internal/scanner"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run nexscan as a REST API service",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		authToken, _ := cmd.Flags().GetString("auth-token")
		shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")
		corsOrigins, _ := cmd.Flags().GetStringSlice("cors-origins")
		rateLimit, _ := cmd.Flags().GetInt("rate-limit")
		rateBurst, _ := cmd.Flags().GetInt("rate-burst")

		cfg := loadCLIConfig()

		zlog, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer func() { _ = zlog.Sync() }()

		store, err := history.Open(historyPath(cfg))
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer store.Close()

		server := api.NewServer(api.Config{
			Scans:       &scanAPIService{cfg: cfg, store: store, logger: zlog.Sugar()},
			History:     &historyAPIService{store: store},
			AuthToken:   authToken,
			Logger:      zlog,
			CORSOrigins: corsOrigins,
			RateLimit:   rateLimit,
			RateBurst:   rateBurst,
		})

		httpServer := &http.Server{
			Addr:         addr,
			Handler:      server,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 5 * time.Minute, // scans run synchronously inside the request
			IdleTimeout:  120 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Printf("%s API server listening on %s (history: %s)\n", colorInfo("→"), addr, historyPath(cfg))
			fmt.Printf("%s Press Ctrl+C to gracefully shutdown\n", colorInfo("→"))
			serverErrors <- httpServer.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
		case sig := <-shutdown:
			fmt.Printf("\n%s Received signal %v, initiating graceful shutdown...\n", colorInfo("→"), sig)

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(ctx); err != nil {
				if closeErr := httpServer.Close(); closeErr != nil {
					return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
				}
				return fmt.Errorf("failed to gracefully shutdown server: %w", err)
			}

			fmt.Printf("%s Server shutdown complete\n", colorSuccess("✓"))
		}

		return nil
	},
}

// scanAPIService runs scans for API callers and stores the results.
type scanAPIService struct {
	cfg    CLIConfig
	store  *history.Store
	logger *zap.SugaredLogger
}

func (s *scanAPIService) StartScan(ctx context.Context, rawTarget string, modules []string) (*history.Record, error) {
	target, err := scanner.NewResolver().Resolve(ctx, rawTarget)
	if err != nil {
		return nil, err
	}
	sel, err := selectionFromNames(rawTarget, modules)
	if err != nil {
		return nil, err
	}

	scanCfg := s.cfg.scannerConfig()
	scanCfg.Logger = s.logger
	if s.cfg.Dir.WordlistPath != "" {
		words, err := scanner.LoadWordlist(s.cfg.Dir.WordlistPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load wordlist: %w", err)
		}
		scanCfg.Wordlist = words
	}

	report := scanner.New(scanCfg).RunScan(ctx, target, sel)
	return s.store.Save(report)
}

// selectionFromNames maps request module names to a selection. Bad names are
// a request validation failure, not a server fault.
func selectionFromNames(rawTarget string, modules []string) (scanner.Selection, error) {
	if len(modules) == 0 {
		return scanner.FullSelection(), nil
	}
	var sel scanner.Selection
	for _, name := range modules {
		switch name {
		case "ports":
			sel.Ports = true
		case "headers":
			sel.Headers = true
		case "tls", "ssl":
			sel.TLS = true
		case "dirs", "directories":
			sel.Directories = true
		default:
			return scanner.Selection{}, &scanner.ValidationError{
				Target: rawTarget,
				Err:    fmt.Errorf("unknown module %q", name),
			}
		}
	}
	return sel, nil
}

// historyAPIService adapts the history store to the API's read interface.
type historyAPIService struct {
	store *history.Store
}

func (h *historyAPIService) ListRecords(target string) ([]*history.Record, error) {
	return h.store.List(target)
}

func (h *historyAPIService) GetRecord(id string) (*history.Record, error) {
	return h.store.Get(id)
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Address for the API server")
	serveCmd.Flags().String("auth-token", "", "Optional shared secret for API requests")
	serveCmd.Flags().Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	serveCmd.Flags().StringSlice("cors-origins", nil, "Allowed CORS origins (empty = allow all)")
	serveCmd.Flags().Int("rate-limit", 0, "Requests per second per client IP (0 = disabled)")
	serveCmd.Flags().Int("rate-burst", 0, "Burst size for the rate limiter")
}
