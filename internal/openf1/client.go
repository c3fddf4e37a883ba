// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

// Package openf1 provides the typed HTTP client for the upstream telemetry
// API. All resources are read-only JSON arrays of flat records, filterable
// by query parameters (year, country_name, session_key, driver_number,
// date>=/date<= operators).
//
// The client performs no retries: a single upstream failure propagates
// immediately to the caller. Resilience is layered on top via BreakerClient
// and an outbound rate limiter shared by all calls.
package openf1

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/mclarke-dev/boxbox/internal/config"
	"github.com/mclarke-dev/boxbox/internal/logging"
	"github.com/mclarke-dev/boxbox/internal/metrics"
)

// maxErrorBodySize limits how much of an error response body is read for
// diagnostics, preventing unbounded allocation on large error pages.
const maxErrorBodySize = 64 * 1024

// LatestSessionKey is the upstream shortcut value selecting the most recent
// session regardless of filters.
const LatestSessionKey = "latest"

// Resources lists the upstream resource paths reachable through the generic
// proxy endpoint. Requests for anything else are rejected before an
// outbound call is made.
var Resources = map[string]bool{
	"sessions":       true,
	"meetings":       true,
	"drivers":        true,
	"laps":           true,
	"car_data":       true,
	"pit":            true,
	"stints":         true,
	"weather":        true,
	"race_control":   true,
	"team_radio":     true,
	"session_result": true,
	"starting_grid":  true,
	"overtakes":      true,
	"position":       true,
	"intervals":      true,
	"location":       true,
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Resource string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned HTTP %d: %s", e.Resource, e.Code, e.Body)
}

// API is the read-only surface of the upstream telemetry service consumed
// by the resolvers and insight handlers. Implemented by Client for
// production, by BreakerClient for circuit-breaker protection, and by test
// fakes.
type API interface {
	Sessions(ctx context.Context, year int, countryName, sessionName string) ([]Session, error)
	SessionByKey(ctx context.Context, sessionKey string) ([]Session, error)
	Meetings(ctx context.Context, year int) ([]Meeting, error)
	Drivers(ctx context.Context, sessionKey string) ([]Driver, error)
	Laps(ctx context.Context, sessionKey string, driverNumber, lapNumber int) ([]Lap, error)
	CarData(ctx context.Context, sessionKey string, driverNumber int, from, to time.Time) ([]CarData, error)
	PitStops(ctx context.Context, sessionKey string, driverNumber int) ([]PitStop, error)
	Stints(ctx context.Context, sessionKey string, driverNumber int) ([]Stint, error)
	Weather(ctx context.Context, sessionKey string) ([]Weather, error)
	RaceControl(ctx context.Context, sessionKey string) ([]RaceControlMessage, error)
	TeamRadio(ctx context.Context, sessionKey string, driverNumber int) ([]TeamRadio, error)
	SessionResult(ctx context.Context, sessionKey string) ([]SessionResult, error)
	StartingGrid(ctx context.Context, sessionKey string) ([]GridPosition, error)
	Positions(ctx context.Context, sessionKey string, driverNumber int) ([]PositionSnapshot, error)
	Overtakes(ctx context.Context, sessionKey string) ([]Overtake, error)
	Raw(ctx context.Context, resource string, params url.Values) (json.RawMessage, error)
}

// Client talks to the upstream telemetry API.
//
// Thread safety: all methods are safe for concurrent use; each request
// creates its own *http.Request.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	tokens  *TokenCache

	username string
	password string
}

// NewClient creates an upstream client from configuration. When credentials
// are configured, a bearer token is attached to every call via the token
// cache; otherwise the client runs anonymously.
func NewClient(cfg *config.UpstreamConfig, tokens *TokenCache) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		tokens:   tokens,
		username: cfg.Username,
		password: cfg.Password,
	}
}

// readBodyForError reads up to maxErrorBodySize of a response body for
// error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("... (truncated)")...)
	}
	return body
}

// bearer returns the current bearer token, refreshing it through the token
// cache when needed. Token acquisition failure degrades to an anonymous
// call rather than failing the request; only elevated-tier resources will
// then error upstream.
func (c *Client) bearer(ctx context.Context) string {
	if c.tokens == nil || c.username == "" {
		return ""
	}
	token, err := c.tokens.Token(ctx, c.username, c.password)
	if err != nil {
		logger := logging.Ctx(ctx)
		logger.Warn().Err(err).Msg("bearer token unavailable, calling upstream anonymously")
		return ""
	}
	return token
}

// makeRequest performs one GET against an upstream resource and decodes the
// JSON array response into result. The shared rate limiter gates the call.
func (c *Client) makeRequest(ctx context.Context, resource string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s", c.baseURL, resource)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.bearer(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.RecordUpstreamRequest(resource, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("upstream %s request failed: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		metrics.UpstreamRequestErrors.WithLabelValues(resource, strconv.Itoa(resp.StatusCode)).Inc()
		return &StatusError{Resource: resource, Code: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", resource, err)
	}
	return nil
}

// query builds url.Values, omitting zero values.
func query(pairs ...[2]string) url.Values {
	v := url.Values{}
	for _, p := range pairs {
		if p[1] != "" && p[1] != "0" {
			v.Set(p[0], p[1])
		}
	}
	return v
}

// Sessions queries the session list. Zero/empty filter values are omitted
// from the upstream query.
func (c *Client) Sessions(ctx context.Context, year int, countryName, sessionName string) ([]Session, error) {
	var out []Session
	err := c.makeRequest(ctx, "sessions", query(
		[2]string{"year", strconv.Itoa(year)},
		[2]string{"country_name", countryName},
		[2]string{"session_name", sessionName},
	), &out)
	return out, err
}

// SessionByKey fetches sessions by key; accepts the "latest" shortcut.
func (c *Client) SessionByKey(ctx context.Context, sessionKey string) ([]Session, error) {
	var out []Session
	err := c.makeRequest(ctx, "sessions", query([2]string{"session_key", sessionKey}), &out)
	return out, err
}

// Meetings fetches the season's event weekends.
func (c *Client) Meetings(ctx context.Context, year int) ([]Meeting, error) {
	var out []Meeting
	err := c.makeRequest(ctx, "meetings", query([2]string{"year", strconv.Itoa(year)}), &out)
	return out, err
}

// Drivers fetches the full roster for a session.
func (c *Client) Drivers(ctx context.Context, sessionKey string) ([]Driver, error) {
	var out []Driver
	err := c.makeRequest(ctx, "drivers", query([2]string{"session_key", sessionKey}), &out)
	return out, err
}

// Laps fetches laps for a session; driverNumber and lapNumber of 0 are
// omitted from the filter.
func (c *Client) Laps(ctx context.Context, sessionKey string, driverNumber, lapNumber int) ([]Lap, error) {
	var out []Lap
	err := c.makeRequest(ctx, "laps", query(
		[2]string{"session_key", sessionKey},
		[2]string{"driver_number", strconv.Itoa(driverNumber)},
		[2]string{"lap_number", strconv.Itoa(lapNumber)},
	), &out)
	return out, err
}

// CarData fetches telemetry samples for a driver inside a time window,
// using the upstream date-range operators.
func (c *Client) CarData(ctx context.Context, sessionKey string, driverNumber int, from, to time.Time) ([]CarData, error) {
	params := query(
		[2]string{"session_key", sessionKey},
		[2]string{"driver_number", strconv.Itoa(driverNumber)},
	)
	if !from.IsZero() {
		params.Set("date>", from.UTC().Format(time.RFC3339Nano))
	}
	if !to.IsZero() {
		params.Set("date<", to.UTC().Format(time.RFC3339Nano))
	}

	var out []CarData
	err := c.makeRequest(ctx, "car_data", params, &out)
	return out, err
}

// PitStops fetches pit lane visits.
func (c *Client) PitStops(ctx context.Context, sessionKey string, driverNumber int) ([]PitStop, error) {
	var out []PitStop
	err := c.makeRequest(ctx, "pit", query(
		[2]string{"session_key", sessionKey},
		[2]string{"driver_number", strconv.Itoa(driverNumber)},
	), &out)
	return out, err
}

// Stints fetches tyre stints.
func (c *Client) Stints(ctx context.Context, sessionKey string, driverNumber int) ([]Stint, error) {
	var out []Stint
	err := c.makeRequest(ctx, "stints", query(
		[2]string{"session_key", sessionKey},
		[2]string{"driver_number", strconv.Itoa(driverNumber)},
	), &out)
	return out, err
}

// Weather fetches trackside weather samples.
func (c *Client) Weather(ctx context.Context, sessionKey string) ([]Weather, error) {
	var out []Weather
	err := c.makeRequest(ctx, "weather", query([2]string{"session_key", sessionKey}), &out)
	return out, err
}

// RaceControl fetches all race control messages for a session.
func (c *Client) RaceControl(ctx context.Context, sessionKey string) ([]RaceControlMessage, error) {
	var out []RaceControlMessage
	err := c.makeRequest(ctx, "race_control", query([2]string{"session_key", sessionKey}), &out)
	return out, err
}

// TeamRadio fetches radio exchanges.
func (c *Client) TeamRadio(ctx context.Context, sessionKey string, driverNumber int) ([]TeamRadio, error) {
	var out []TeamRadio
	err := c.makeRequest(ctx, "team_radio", query(
		[2]string{"session_key", sessionKey},
		[2]string{"driver_number", strconv.Itoa(driverNumber)},
	), &out)
	return out, err
}

// SessionResult fetches the final classification.
func (c *Client) SessionResult(ctx context.Context, sessionKey string) ([]SessionResult, error) {
	var out []SessionResult
	err := c.makeRequest(ctx, "session_result", query([2]string{"session_key", sessionKey}), &out)
	return out, err
}

// StartingGrid fetches the starting grid.
func (c *Client) StartingGrid(ctx context.Context, sessionKey string) ([]GridPosition, error) {
	var out []GridPosition
	err := c.makeRequest(ctx, "starting_grid", query([2]string{"session_key", sessionKey}), &out)
	return out, err
}

// Positions fetches running-order snapshots.
func (c *Client) Positions(ctx context.Context, sessionKey string, driverNumber int) ([]PositionSnapshot, error) {
	var out []PositionSnapshot
	err := c.makeRequest(ctx, "position", query(
		[2]string{"session_key", sessionKey},
		[2]string{"driver_number", strconv.Itoa(driverNumber)},
	), &out)
	return out, err
}

// Overtakes fetches on-track passes. Elevated tier: fails upstream without
// a bearer token.
func (c *Client) Overtakes(ctx context.Context, sessionKey string) ([]Overtake, error) {
	var out []Overtake
	err := c.makeRequest(ctx, "overtakes", query([2]string{"session_key", sessionKey}), &out)
	return out, err
}

// Raw forwards arbitrary filter parameters to a named resource and returns
// the undecoded JSON. The resource must be in the Resources allowlist.
func (c *Client) Raw(ctx context.Context, resource string, params url.Values) (json.RawMessage, error) {
	if !Resources[resource] {
		return nil, fmt.Errorf("unknown upstream resource %q", resource)
	}
	var out json.RawMessage
	if err := c.makeRequest(ctx, resource, params, &out); err != nil {
		return nil, err
	}
	return out, nil
}
