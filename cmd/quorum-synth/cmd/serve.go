package cmd

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/api"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/config"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/events"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/service"
)

const defaultRequestTimeout = 60 * time.Second

type serveOptions struct {
	addr    string
	noStore bool
}

func newServeCmd(g *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API for synthesizing and retrieving results.

Endpoints:
  POST /api/v1/consensus        synthesize a request body
  GET  /api/v1/consensus        list stored results
  GET  /api/v1/consensus/{id}   fetch one stored result
  GET  /api/v1/events           server-sent lifecycle events
  GET  /health                  readiness
  GET  /metrics                 Prometheus metrics

Examples:
  # Start with the configured address (default 127.0.0.1:8088)
  quorum-synth serve

  # Listen on all interfaces without persisting results
  quorum-synth serve --addr 0.0.0.0:8088 --no-store`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "do not persist results")
	return cmd
}

func runServe(cmd *cobra.Command, g *globalOptions, opts *serveOptions) error {
	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := g.newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	bus := events.New(256)
	defer bus.Close()

	engine, err := buildEngine(cfg, logger,
		service.NewMetricsObserver(reg),
		events.NewBusObserver(bus),
	)
	if err != nil {
		return err
	}

	serverOpts := []api.ServerOption{
		api.WithLogger(logger.Logger),
		api.WithEventBus(bus),
		api.WithMetrics(reg),
		api.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		api.WithRequestTimeout(config.ParseDuration(cfg.Server.RequestTimeout, defaultRequestTimeout)),
	}
	if !opts.noStore {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
			serverOpts = append(serverOpts, api.WithResultStore(store))
		}
	}

	addr := cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	// /health reports "initializing" until warm-up finishes.
	go func() { _ = engine.Initialize(ctx) }()

	return api.NewServer(engine, serverOpts...).ListenAndServe(ctx, addr)
}
