// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mclarke-dev/boxbox/internal/config"
)

// proxyRouter mounts the proxy handler behind chi so URL parameters work.
func proxyRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/v1/proxy/{resource}", h.Proxy)
	return r
}

func TestProxyParamAliasing(t *testing.T) {
	api := &fakeAPI{raw: []byte(`[{"driver_number":1,"speed":301}]`)}
	h := newTestHandler(api)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/proxy/laps?driver_id=1&session=9010&year=2024", nil)
	rec := httptest.NewRecorder()
	proxyRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if api.lastRawResource != "laps" {
		t.Errorf("resource = %q, want laps", api.lastRawResource)
	}
	if got := api.lastRawParams.Get("driver_number"); got != "1" {
		t.Errorf("driver_id alias not applied: %v", api.lastRawParams)
	}
	if got := api.lastRawParams.Get("session_key"); got != "9010" {
		t.Errorf("session alias not applied: %v", api.lastRawParams)
	}
	if api.lastRawParams.Get("year") != "2024" {
		t.Errorf("unaliased param dropped: %v", api.lastRawParams)
	}
}

func TestProxyUnknownResource(t *testing.T) {
	h := newTestHandler(&fakeAPI{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/proxy/secrets", nil)
	rec := httptest.NewRecorder()
	proxyRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestProxyInvalidMonth(t *testing.T) {
	api := &fakeAPI{raw: []byte(`[]`)}
	h := newTestHandler(api)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/proxy/sessions?month=smarch", nil)
	rec := httptest.NewRecorder()
	proxyRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if api.lastRawResource != "" {
		t.Error("upstream was called despite the rejected month parameter")
	}
}

func TestProxyPostFilters(t *testing.T) {
	api := &fakeAPI{raw: []byte(`[
		{"session_key":1,"date_start":"2024-05-26T13:00:00Z"},
		{"session_key":2,"date_start":"2024-07-07T14:00:00Z"},
		{"session_key":3,"date_start":"2024-07-05T11:30:00Z"}
	]`)}
	h := newTestHandler(api)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/proxy/sessions?month=july&sort=recent&limit=1", nil)
	rec := httptest.NewRecorder()
	proxyRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	list := resp.Data.([]any)
	if len(list) != 1 {
		t.Fatalf("post-filtered list = %d entries, want 1", len(list))
	}
	rec0 := list[0].(map[string]any)
	// July only, newest first, capped at one: session 2 wins.
	if rec0["session_key"].(float64) != 2 {
		t.Errorf("kept session %v, want 2", rec0["session_key"])
	}
	// Post-filter params never reach the upstream.
	for _, p := range []string{"month", "sort", "limit"} {
		if api.lastRawParams.Get(p) != "" {
			t.Errorf("post-filter param %q forwarded upstream", p)
		}
	}
}

func TestProxyNonListPassthrough(t *testing.T) {
	api := &fakeAPI{raw: []byte(`{"note":"not a list"}`)}
	h := newTestHandler(api)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/proxy/sessions?limit=1", nil)
	rec := httptest.NewRecorder()
	proxyRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	if data["note"] != "not a list" {
		t.Errorf("non-list payload mangled: %v", resp.Data)
	}
}

func TestRouterEndToEnd(t *testing.T) {
	api := &fakeAPI{sessions: silverstone2024()}
	h := newTestHandler(api)
	router := NewRouter(h, &config.Config{
		Security: config.SecurityConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
	})
	srv := httptest.NewServer(router.Setup())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/resolve/session?year=2024&location=silverstone&session_type=R")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("resolve status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" && resp.Header.Get("X-Request-ID") == "" {
		t.Error("response carries no request ID header")
	}

	live, err := http.Get(srv.URL + "/api/v1/health/live")
	if err != nil {
		t.Fatalf("GET live: %v", err)
	}
	defer live.Body.Close()
	if live.StatusCode != http.StatusOK {
		t.Errorf("live status = %d", live.StatusCode)
	}

	metricsResp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer metricsResp.Body.Close()
	if metricsResp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d", metricsResp.StatusCode)
	}
}
