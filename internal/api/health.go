// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/mclarke-dev/boxbox/internal/openf1"
)

// readyTimeout bounds the upstream probe of the readiness check.
const readyTimeout = 5 * time.Second

// Version is stamped at build time via -ldflags.
var Version = "dev"

// HealthStatus is the GET /api/v1/health payload.
type HealthStatus struct {
	Status        string       `json:"status"`
	Version       string       `json:"version"`
	UptimeSeconds float64      `json:"uptime_seconds"`
	Upstream      string       `json:"upstream"`
	ResultCache   *CacheHealth `json:"result_cache,omitempty"`
}

// CacheHealth reports the insight-result cache counters, present only when
// the cache is enabled.
type CacheHealth struct {
	Keys       int64   `json:"keys"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRatePct float64 `json:"hit_rate_pct"`
}

// Health handles GET /api/v1/health: overall status with uptime and the
// upstream's reachability as observed by a cheap probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := &HealthStatus{
		Status:        "ok",
		Version:       Version,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Upstream:      "ok",
	}
	if err := h.probeUpstream(r.Context()); err != nil {
		status.Status = "degraded"
		status.Upstream = err.Error()
	}
	if h.results != nil {
		stats := h.results.GetStats()
		status.ResultCache = &CacheHealth{
			Keys:       stats.TotalKeys,
			Hits:       stats.Hits,
			Misses:     stats.Misses,
			HitRatePct: h.results.HitRate(),
		}
	}
	rw.Success(status)
}

// HealthLive handles GET /api/v1/health/live. The process is serving, so
// the answer is yes.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]string{"status": "alive"})
}

// HealthReady handles GET /api/v1/health/ready: ready once the upstream
// answers a probe.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := h.probeUpstream(r.Context()); err != nil {
		rw.ServiceUnavailable("upstream not reachable: " + err.Error())
		return
	}
	rw.Success(map[string]string{"status": "ready"})
}

// probeUpstream issues the cheapest possible upstream read.
func (h *Handler) probeUpstream(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	_, err := h.api.SessionByKey(ctx, openf1.LatestSessionKey)
	return err
}
