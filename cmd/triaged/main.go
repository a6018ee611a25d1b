// Triaged is the property-maintenance triage daemon.
//
// It watches an inbox directory for dropped documents, registers each as an
// event in the shared ledger, and routes subscribed events through the
// classification engine: repair type, vendor selection, notification
// drafts, all recorded in a durable case record. An HTTP API exposes the
// case and event views plus a manual scan trigger.
//
// Configuration is loaded from an optional YAML file and environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults
//	COMPLETION_API_KEY=... triaged
//
//	# Configure via file and environment
//	triaged -config ./triaged.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/parkrow-labs/triaged/internal/agent"
	"github.com/parkrow-labs/triaged/internal/casefile"
	"github.com/parkrow-labs/triaged/internal/completion"
	"github.com/parkrow-labs/triaged/internal/config"
	"github.com/parkrow-labs/triaged/internal/extract"
	"github.com/parkrow-labs/triaged/internal/httpapi"
	"github.com/parkrow-labs/triaged/internal/inbox"
	"github.com/parkrow-labs/triaged/internal/intake"
	"github.com/parkrow-labs/triaged/internal/ledger"
	"github.com/parkrow-labs/triaged/internal/logging"
	"github.com/parkrow-labs/triaged/internal/metrics"
	"github.com/parkrow-labs/triaged/internal/orchestrator"
	"github.com/parkrow-labs/triaged/internal/roster"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("triaged %s (%s)\n", version, gitCommit)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("triaged: %v", err)
	}
}

func run(ctx context.Context, configPath string) error {
	// Configuration problems, including a missing completion API key, are
	// fatal before any event is touched.
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	led, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer led.Close()

	cases, err := casefile.NewStore(cfg.Cases.Dir)
	if err != nil {
		return err
	}

	client, err := completion.NewClient(completion.Config{
		APIKey:     cfg.Completion.APIKey.Value(),
		Model:      cfg.Completion.Model,
		BaseURL:    cfg.Completion.BaseURL,
		Timeout:    cfg.Completion.Timeout.Duration(),
		MaxRetries: cfg.Completion.MaxRetries,
		RateLimit:  cfg.Completion.RateLimit,
		RateBurst:  cfg.Completion.RateBurst,
	})
	if err != nil {
		return err
	}
	completer := m.WrapCompleter(client)

	extractor := extract.New(completer, logger.Named("extract"))
	creator := intake.New(extractor, led, cfg.Agent.ID, logger.Named("intake"))
	engine := agent.New(completer, cases, led,
		func() ([]roster.Vendor, error) { return roster.Load(cfg.Roster.Path) },
		logger.Named("agent"))

	var sources []orchestrator.Source
	var box *inbox.Inbox
	if cfg.Inbox.Enabled {
		box, err = inbox.New(cfg.Inbox.Dir, logger.Named("inbox"))
		if err != nil {
			return err
		}
		sources = append(sources, box)
	}

	runner := orchestrator.New(sources, creator, led, cases, engine,
		cfg.Agent.ID, logger.Named("orchestrator"), m)

	server, err := httpapi.NewServer(cases, led, runner, creator, registry,
		logger.Named("http"), httpapi.Config{
			Host: cfg.Server.Host,
			Port: cfg.Server.Port,
		})
	if err != nil {
		return err
	}

	// Polling loop: a pass on every tick, plus an immediate pass whenever
	// the inbox watcher sees a file land.
	kick := make(chan struct{}, 1)
	nudge := func() {
		select {
		case kick <- struct{}{}:
		default:
		}
	}
	if box != nil {
		go func() {
			if err := box.Watch(ctx, nudge); err != nil && ctx.Err() == nil {
				logger.Warn("inbox watcher stopped", zap.Error(err))
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(cfg.Inbox.ScanInterval.Duration())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			case <-kick:
			}
			runner.RunOnce(ctx)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("triaged started",
		zap.String("version", version),
		zap.String("agent_id", cfg.Agent.ID),
		zap.Bool("inbox_enabled", cfg.Inbox.Enabled),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
