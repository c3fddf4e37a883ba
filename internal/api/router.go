// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mclarke-dev/boxbox/internal/config"
	"github.com/mclarke-dev/boxbox/internal/middleware"
)

// healthRateLimit allows frequent monitoring probes without opening the
// endpoint to abuse.
const healthRateLimit = 1000

// Router wires handlers into the chi mux.
type Router struct {
	handler *Handler
	cfg     *config.Config
}

// NewRouter creates a router over the handler set.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler so the request-ID and metrics
// middleware work with r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.cfg.Security.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health endpoints: permissive rate limiting for monitoring probes.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(healthRateLimit, time.Minute))
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Prometheus scrape endpoint, outside the API rate limit.
	r.Handle("/metrics", promhttp.Handler())

	// Data endpoints.
	r.Route("/api/v1", func(r chi.Router) {
		if !router.cfg.Security.RateLimitDisabled {
			r.Use(httprate.LimitByIP(
				router.cfg.Security.RateLimitReqs,
				router.cfg.Security.RateLimitWindow,
			))
		}
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Get("/resolve/session", router.handler.ResolveSession)
		r.Get("/drivers", router.handler.Drivers)
		r.Post("/insights", router.handler.Insights)
		r.Get("/proxy/{resource}", router.handler.Proxy)
	})

	return r
}
