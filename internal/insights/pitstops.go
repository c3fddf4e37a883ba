// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package insights

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mclarke-dev/boxbox/internal/logging"
	"github.com/mclarke-dev/boxbox/internal/openf1"
)

// compoundUnknown is reported when no stint covers a stop's lap.
const compoundUnknown = "UNKNOWN"

// stintTolerance widens the stint lap range when joining stops to stints.
// Stop and stint lap numbering disagree by one around the pit entry lap.
const stintTolerance = 1

// PitStopEntry is one pit visit joined to the tyre stint it started.
type PitStopEntry struct {
	Driver      DriverRef `json:"driver"`
	LapNumber   int       `json:"lap_number"`
	PitDuration *float64  `json:"pit_duration,omitempty"`
	Compound    string    `json:"compound"`
	StintNumber int       `json:"stint_number,omitempty"`
	Date        time.Time `json:"date"`
}

// PitStopsResult is the pit-stop summary payload.
type PitStopsResult struct {
	Session string         `json:"session_key"`
	Driver  *DriverRef     `json:"driver,omitempty"`
	Count   int            `json:"count"`
	Stops   []PitStopEntry `json:"stops"`
}

// PitStopSummary joins each pit stop to the stint whose lap range contains
// the stop's lap within the tolerance. Stops no stint covers report the
// compound as unknown rather than failing the request.
func (s *Service) PitStopSummary(ctx context.Context, sessionKey string, req Request) (any, error) {
	driverNumber := 0
	result := &PitStopsResult{Session: sessionKey}
	if req.Driver != "" {
		driver, err := s.resolver.ResolveDriver(ctx, sessionKey, req.Driver)
		if err != nil {
			return nil, err
		}
		driverNumber = driver.DriverNumber
		result.Driver = driverRef(driver)
	}

	stops, err := s.api.PitStops(ctx, sessionKey, driverNumber)
	if err != nil {
		return nil, fmt.Errorf("fetching pit stops: %w", err)
	}
	if len(stops) == 0 {
		return nil, &NotFoundError{Detail: "no pit stops recorded for session " + sessionKey}
	}

	stints, err := s.api.Stints(ctx, sessionKey, driverNumber)
	if err != nil {
		// Stint correlation is enrichment; degrade to unknown compounds.
		logger := logging.Ctx(ctx)
		logger.Warn().Err(err).Str("session", sessionKey).
			Msg("stint lookup failed, reporting compounds as unknown")
		stints = nil
	}

	roster, err := s.rosterIndex(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	entries := make([]PitStopEntry, 0, len(stops))
	for _, stop := range stops {
		entry := PitStopEntry{
			Driver:      rosterRef(roster, stop.DriverNumber),
			LapNumber:   stop.LapNumber,
			PitDuration: stop.PitDuration,
			Compound:    compoundUnknown,
			Date:        stop.Date,
		}
		if stint, ok := stintForLap(stints, stop.DriverNumber, stop.LapNumber); ok {
			entry.Compound = stint.Compound
			entry.StintNumber = stint.StintNumber
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LapNumber != entries[j].LapNumber {
			return entries[i].LapNumber < entries[j].LapNumber
		}
		return entries[i].Driver.DriverNumber < entries[j].Driver.DriverNumber
	})

	result.Stops = entries
	result.Count = len(entries)
	return result, nil
}

// stintForLap finds the driver's stint whose [lap_start-1, lap_end+1]
// range contains the lap. The first stint in upstream order wins when
// tolerance makes two adjacent stints overlap.
func stintForLap(stints []openf1.Stint, driverNumber, lapNumber int) (openf1.Stint, bool) {
	for _, stint := range stints {
		if stint.DriverNumber != driverNumber {
			continue
		}
		if lapNumber >= stint.LapStart-stintTolerance && lapNumber <= stint.LapEnd+stintTolerance {
			return stint, true
		}
	}
	return openf1.Stint{}, false
}
