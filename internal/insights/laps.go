// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package insights

import (
	"context"
	"fmt"
	"sort"

	"github.com/mclarke-dev/boxbox/internal/logging"
	"github.com/mclarke-dev/boxbox/internal/openf1"
)

// FastestLapResult is the fastest-lap payload.
type FastestLapResult struct {
	Session     string    `json:"session_key"`
	Driver      DriverRef `json:"driver"`
	LapNumber   int       `json:"lap_number"`
	LapDuration float64   `json:"lap_duration"`
	LapTime     string    `json:"lap_time"`
	Compound    string    `json:"compound"`
	TyreAge     int       `json:"tyre_age,omitempty"`
}

// FastestLap finds the minimum recorded lap duration, optionally scoped to
// one driver, and enriches it with the covering stint's compound and the
// tyre's in-stint age. Stint lookup failure degrades to unknown.
func (s *Service) FastestLap(ctx context.Context, sessionKey string, req Request) (any, error) {
	driverNumber := 0
	if req.Driver != "" {
		driver, err := s.resolver.ResolveDriver(ctx, sessionKey, req.Driver)
		if err != nil {
			return nil, err
		}
		driverNumber = driver.DriverNumber
	}

	laps, err := s.api.Laps(ctx, sessionKey, driverNumber, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching laps: %w", err)
	}

	var fastest *openf1.Lap
	for i := range laps {
		lap := &laps[i]
		if lap.LapDuration == nil {
			continue
		}
		if fastest == nil || *lap.LapDuration < *fastest.LapDuration {
			fastest = lap
		}
	}
	if fastest == nil {
		return nil, &NotFoundError{Detail: "no timed laps recorded for session " + sessionKey}
	}

	roster, err := s.rosterIndex(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	result := &FastestLapResult{
		Session:     sessionKey,
		Driver:      rosterRef(roster, fastest.DriverNumber),
		LapNumber:   fastest.LapNumber,
		LapDuration: *fastest.LapDuration,
		LapTime:     formatLapTime(*fastest.LapDuration),
		Compound:    compoundUnknown,
	}

	stints, err := s.api.Stints(ctx, sessionKey, fastest.DriverNumber)
	if err != nil {
		logger := logging.Ctx(ctx)
		logger.Warn().Err(err).Str("session", sessionKey).
			Msg("stint lookup failed, reporting compound as unknown")
		return result, nil
	}
	for _, stint := range stints {
		if stint.DriverNumber != fastest.DriverNumber {
			continue
		}
		if fastest.LapNumber >= stint.LapStart && fastest.LapNumber <= stint.LapEnd {
			result.Compound = stint.Compound
			result.TyreAge = fastest.LapNumber - stint.LapStart + 1
			break
		}
	}
	return result, nil
}

func sortLapsByNumber(laps []openf1.Lap) {
	sort.Slice(laps, func(i, j int) bool {
		return laps[i].LapNumber < laps[j].LapNumber
	})
}
