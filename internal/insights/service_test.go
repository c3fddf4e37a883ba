// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package insights

import (
	"context"
	"time"

	"github.com/mclarke-dev/boxbox/internal/openf1"
	"github.com/mclarke-dev/boxbox/internal/resolve"
)

// fakeAPI implements the parts of openf1.API the handlers touch.
type fakeAPI struct {
	openf1.API

	drivers     []openf1.Driver
	laps        []openf1.Lap
	pitStops    []openf1.PitStop
	stints      []openf1.Stint
	stintsErr   error
	weather     []openf1.Weather
	raceControl []openf1.RaceControlMessage
	teamRadio   []openf1.TeamRadio
	results     []openf1.SessionResult
	grid        []openf1.GridPosition
}

func (f *fakeAPI) Drivers(_ context.Context, _ string) ([]openf1.Driver, error) {
	return f.drivers, nil
}

func (f *fakeAPI) Laps(_ context.Context, _ string, driverNumber, lapNumber int) ([]openf1.Lap, error) {
	var out []openf1.Lap
	for _, lap := range f.laps {
		if driverNumber != 0 && lap.DriverNumber != driverNumber {
			continue
		}
		if lapNumber != 0 && lap.LapNumber != lapNumber {
			continue
		}
		out = append(out, lap)
	}
	return out, nil
}

func (f *fakeAPI) PitStops(_ context.Context, _ string, driverNumber int) ([]openf1.PitStop, error) {
	var out []openf1.PitStop
	for _, p := range f.pitStops {
		if driverNumber == 0 || p.DriverNumber == driverNumber {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeAPI) Stints(_ context.Context, _ string, driverNumber int) ([]openf1.Stint, error) {
	if f.stintsErr != nil {
		return nil, f.stintsErr
	}
	var out []openf1.Stint
	for _, s := range f.stints {
		if driverNumber == 0 || s.DriverNumber == driverNumber {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeAPI) Weather(_ context.Context, _ string) ([]openf1.Weather, error) {
	return f.weather, nil
}

func (f *fakeAPI) RaceControl(_ context.Context, _ string) ([]openf1.RaceControlMessage, error) {
	return f.raceControl, nil
}

func (f *fakeAPI) TeamRadio(_ context.Context, _ string, driverNumber int) ([]openf1.TeamRadio, error) {
	var out []openf1.TeamRadio
	for _, r := range f.teamRadio {
		if driverNumber == 0 || r.DriverNumber == driverNumber {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAPI) SessionResult(_ context.Context, _ string) ([]openf1.SessionResult, error) {
	return f.results, nil
}

func (f *fakeAPI) StartingGrid(_ context.Context, _ string) ([]openf1.GridPosition, error) {
	return f.grid, nil
}

func newTestService(api *fakeAPI) *Service {
	return NewService(api, resolve.NewResolver(api, time.Second), nil, nil)
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func tptr(t time.Time) *time.Time {
	return &t
}

func at(minute, second int) time.Time {
	return time.Date(2024, time.July, 7, 15, minute, second, 0, time.UTC)
}
