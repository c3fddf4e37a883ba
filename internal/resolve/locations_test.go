// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mclarke-dev/boxbox/internal/openf1"
)

func TestResolveLocationDefaults(t *testing.T) {
	r := newTestResolver(&fakeAPI{})

	tests := []struct {
		in   string
		want string
	}{
		{"monaco", "Monaco"},
		{"COTA", "United States"},
		{"cota", "United States"},
		{"vegas", "United States"},
		{"silverstone", "Great Britain"},
		{"uk", "Great Britain"},
		{"abu dhabi", "United Arab Emirates"},
		{"abu_dhabi", "United Arab Emirates"},
		{"UAE", "United Arab Emirates"},
	}
	for _, tt := range tests {
		got, ok := r.ResolveLocation(context.Background(), 2024, tt.in)
		if !ok {
			t.Errorf("ResolveLocation(%q) not found", tt.in)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveLocation(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveLocationMeetingEnrichment(t *testing.T) {
	api := &fakeAPI{meetings: []openf1.Meeting{
		{MeetingKey: 201, MeetingName: "Madring Grand Prix", Location: "Madrid",
			CountryName: "Spain", Year: 2026},
	}}
	r := newTestResolver(api)

	// Live meeting data registers venue names the static table predates.
	got, ok := r.ResolveLocation(context.Background(), 2026, "madrid")
	if !ok || got != "Spain" {
		t.Errorf("ResolveLocation(madrid) = %q, %v; want Spain, true", got, ok)
	}

	// First token of the meeting name resolves too.
	got, ok = r.ResolveLocation(context.Background(), 2026, "madring")
	if !ok || got != "Spain" {
		t.Errorf("ResolveLocation(madring) = %q, %v; want Spain, true", got, ok)
	}
}

func TestResolveLocationEnrichmentFailureDegrades(t *testing.T) {
	api := &fakeAPI{meetingsErr: errors.New("upstream down")}
	r := newTestResolver(api)

	// Static aliases still work when the meeting fetch fails.
	got, ok := r.ResolveLocation(context.Background(), 2024, "monaco")
	if !ok || got != "Monaco" {
		t.Errorf("ResolveLocation(monaco) = %q, %v; want Monaco, true", got, ok)
	}

	if _, ok := r.ResolveLocation(context.Background(), 2024, "atlantis"); ok {
		t.Error("unknown location resolved unexpectedly")
	}
}

func TestResolveLocationMapCached(t *testing.T) {
	api := &fakeAPI{}
	r := newTestResolver(api)

	r.ResolveLocation(context.Background(), 2024, "monaco")
	r.ResolveLocation(context.Background(), 2024, "vegas")
	r.ResolveLocation(context.Background(), 2024, "cota")
	if api.meetingCalls != 1 {
		t.Errorf("meeting fetches = %d, want 1 (per-year map cached)", api.meetingCalls)
	}
}

func TestResolveLocationAny(t *testing.T) {
	api := &fakeAPI{meetings: []openf1.Meeting{
		{MeetingKey: 301, MeetingName: "Heritage Grand Prix", Location: "Adelaide",
			CountryName: "Australia", Year: 2023},
	}}
	r := newTestResolver(api)

	// 2025 map misses Adelaide; the lookback walks into 2023.
	got, ok := r.ResolveLocationAny(context.Background(), 2025, "adelaide")
	if !ok || got != "Australia" {
		t.Errorf("ResolveLocationAny(adelaide) = %q, %v; want Australia, true", got, ok)
	}
}

func TestLocationMapLookupFirstToken(t *testing.T) {
	m := newLocationMap()
	m.add("JEDDAH", "Saudi Arabia")

	if got, ok := m.Lookup(Normalize("Jeddah Corniche Circuit")); !ok || got != "Saudi Arabia" {
		t.Errorf("Lookup via first token = %q, %v; want Saudi Arabia, true", got, ok)
	}
}

func TestLocationMapEnrichTimeout(t *testing.T) {
	// The meeting fetch must respect the meta timeout so a slow upstream
	// cannot stall resolution.
	api := &slowMeetingsAPI{}
	r := NewResolver(api, 50*time.Millisecond)

	start := time.Now()
	_, _ = r.ResolveLocation(context.Background(), 2024, "monaco")
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("location resolution blocked for %v", elapsed)
	}
}

type slowMeetingsAPI struct {
	openf1.API
}

func (s *slowMeetingsAPI) Meetings(ctx context.Context, _ int) ([]openf1.Meeting, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
