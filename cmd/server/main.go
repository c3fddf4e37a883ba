// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

// Package main is the entry point for the Boxbox server.
//
// Boxbox is an aggregation and insight layer over a public motorsport
// telemetry API. It resolves human phrasing ("2024 vegas quali",
// "verstappen") to concrete session and driver keys, computes derived
// insights (position changes, pit stop summaries, gaps to the leader,
// fastest laps), renders lap charts, and proxies raw upstream resources
// with parameter aliasing and post-filters.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered Koanf v2 load (defaults, config.yaml, env)
//  2. Logging: zerolog with level/format from configuration
//  3. Upstream client: token cache, rate-limited HTTP client, circuit breaker
//  4. Resolver: session/location/driver resolution with per-year alias maps
//  5. Insights: registry of insight handlers over the resolver and client
//  6. Charts: PNG line renderer and image-host uploader (optional)
//  7. HTTP server: Chi router with rate limiting, CORS and Prometheus metrics
//  8. Supervisor tree: suture-managed HTTP server with restart backoff
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mclarke-dev/boxbox/internal/api"
	"github.com/mclarke-dev/boxbox/internal/charts"
	"github.com/mclarke-dev/boxbox/internal/config"
	"github.com/mclarke-dev/boxbox/internal/insights"
	"github.com/mclarke-dev/boxbox/internal/logging"
	"github.com/mclarke-dev/boxbox/internal/openf1"
	"github.com/mclarke-dev/boxbox/internal/resolve"
	"github.com/mclarke-dev/boxbox/internal/supervisor"
	"github.com/mclarke-dev/boxbox/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Str("version", api.Version).Msg("Starting Boxbox")
	logging.Info().
		Str("upstream", cfg.Upstream.BaseURL).
		Bool("authenticated", cfg.Upstream.Username != "").
		Bool("charts_enabled", cfg.Charts.UploadURL != "").
		Msg("Configuration loaded")

	// Upstream client with bearer token exchange (optional), outbound rate
	// limiting and a circuit breaker so upstream outages fail fast.
	var tokens *openf1.TokenCache
	if cfg.Upstream.Username != "" {
		tokens = openf1.NewTokenCache(cfg.Upstream.TokenURL, cfg.Upstream.Timeout)
		logging.Info().Msg("Upstream authentication enabled")
	} else {
		logging.Info().Msg("Upstream authentication disabled - public resources only")
	}
	client := openf1.NewClient(&cfg.Upstream, tokens)
	breaker := openf1.NewBreakerClient(client)

	resolver := resolve.NewResolver(breaker, cfg.Upstream.MetaTimeout)

	// Chart pipeline is optional: without an upload endpoint the chart
	// insight types answer with a client error instead of rendering.
	var renderer charts.Renderer
	var uploader charts.Uploader
	if cfg.Charts.UploadURL != "" {
		line := charts.NewLineRenderer()
		if cfg.Charts.Width > 0 {
			line.Width = cfg.Charts.Width
		}
		if cfg.Charts.Height > 0 {
			line.Height = cfg.Charts.Height
		}
		renderer = line
		uploader = charts.NewHTTPUploader(cfg.Charts.UploadURL, "").
			WithKey(cfg.Charts.UploadKey).
			WithTimeout(cfg.Charts.Timeout)
		logging.Info().Str("upload_url", cfg.Charts.UploadURL).Msg("Chart pipeline enabled")
	} else {
		logging.Info().Msg("Chart pipeline disabled (CHARTS_UPLOAD_URL not set)")
	}

	service := insights.NewService(breaker, resolver, renderer, uploader)
	registry := insights.NewRegistry(service)
	logging.Info().Strs("insights", registry.Names()).Msg("Insight registry built")

	handler := api.NewHandler(breaker, resolver, registry, cfg.API)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor closes the channel.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Server stopped gracefully")
}
