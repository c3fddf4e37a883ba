// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package insights

import (
	"context"
	"sort"
	"strings"

	"github.com/mclarke-dev/boxbox/internal/charts"
	"github.com/mclarke-dev/boxbox/internal/openf1"
	"github.com/mclarke-dev/boxbox/internal/resolve"
)

// Handler computes one insight for an already-resolved session.
type Handler func(ctx context.Context, sessionKey string, req Request) (any, error)

// Service owns the upstream client and the chart pipeline shared by all
// handlers.
type Service struct {
	api      openf1.API
	resolver *resolve.Resolver
	renderer charts.Renderer
	uploader charts.Uploader
}

// NewService wires the handlers' dependencies. uploader may be nil, in
// which case chart handlers report a client error instead of uploading.
func NewService(api openf1.API, resolver *resolve.Resolver, renderer charts.Renderer, uploader charts.Uploader) *Service {
	return &Service{api: api, resolver: resolver, renderer: renderer, uploader: uploader}
}

// entry pairs a handler with its canonical insight-type name.
type entry struct {
	name    string
	handler Handler
}

// Registry maps normalized insight-type keys to handlers. The table is
// built once at startup; per-request resolution is a single map lookup.
type Registry struct {
	handlers map[string]entry
	names    []string
}

// NewRegistry builds the dispatch table over the service's handlers.
func NewRegistry(s *Service) *Registry {
	r := &Registry{handlers: map[string]entry{}}
	for name, h := range map[string]Handler{
		"race_control_summary": s.RaceControlSummary,
		"position_changes":     s.PositionChanges,
		"pit_stop_summary":     s.PitStopSummary,
		"gap_to_leader":        s.GapToLeader,
		"fastest_lap":          s.FastestLap,
		"weather_summary":      s.WeatherSummary,
		"team_radio":           s.TeamRadioList,
		"leaderboard":          s.Leaderboard,
		"gap_to_leader_chart":  s.GapToLeaderChart,
		"lap_time_chart":       s.LapTimeChart,
	} {
		r.handlers[normalizeKey(name)] = entry{name: name, handler: h}
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r
}

// Resolve finds the handler for a fuzzy insight-type string, returning its
// canonical name alongside. Spacing, punctuation, and case differences are
// ignored; there is no partial matching.
func (r *Registry) Resolve(input string) (string, Handler, bool) {
	e, ok := r.handlers[normalizeKey(input)]
	return e.name, e.handler, ok
}

// Names lists the registered insight types in their canonical spelling.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// normalizeKey lowercases and strips every non-alphanumeric character, so
// "Race Control Summary", "race-control-summary", and "RACECONTROLSUMMARY"
// share one key.
func normalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
