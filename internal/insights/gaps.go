// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package insights

import (
	"context"
	"fmt"

	"github.com/mclarke-dev/boxbox/internal/openf1"
)

// missingLapPlaceholder substitutes for a lap with no recorded duration so
// every driver's cumulative series stays the same length.
const missingLapPlaceholder = 120.0

// defaultTopN drivers appear in a gap series when the request does not
// set a bound.
const defaultTopN = 5

// GapSeries is one driver's per-lap gap to the reference driver, in
// seconds. Gaps[i] is the gap at lap index i; the reference driver's own
// series is all zeros.
type GapSeries struct {
	Driver DriverRef `json:"driver"`
	Gaps   []float64 `json:"gaps"`
}

// GapToLeaderResult is the gap-to-leader payload.
type GapToLeaderResult struct {
	Session   string      `json:"session_key"`
	Reference DriverRef   `json:"reference"`
	Laps      int         `json:"laps"`
	Series    []GapSeries `json:"series"`
}

// GapToLeader builds per-lap cumulative-time gaps for the top-N roster
// drivers against the first of them. Laps without a recorded duration
// contribute a fixed placeholder so series stay index-aligned; the
// subtraction is by lap index, not lap number.
func (s *Service) GapToLeader(ctx context.Context, sessionKey string, req Request) (any, error) {
	result, _, err := s.gapToLeader(ctx, sessionKey, req)
	return result, err
}

func (s *Service) gapToLeader(ctx context.Context, sessionKey string, req Request) (*GapToLeaderResult, []DriverRef, error) {
	topN := req.TopN
	if topN <= 0 {
		topN = defaultTopN
	}

	drivers, err := s.api.Drivers(ctx, sessionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching driver roster: %w", err)
	}
	if len(drivers) == 0 {
		return nil, nil, &NotFoundError{Detail: "no drivers in session " + sessionKey}
	}
	if topN > len(drivers) {
		topN = len(drivers)
	}
	drivers = drivers[:topN]

	laps, err := s.api.Laps(ctx, sessionKey, 0, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching laps: %w", err)
	}
	if len(laps) == 0 {
		return nil, nil, &NotFoundError{Detail: "no lap data recorded for session " + sessionKey}
	}
	byDriver := map[int][]openf1.Lap{}
	for _, lap := range laps {
		byDriver[lap.DriverNumber] = append(byDriver[lap.DriverNumber], lap)
	}

	cumulative := make([][]float64, len(drivers))
	maxLaps := 0
	for i, d := range drivers {
		cumulative[i] = cumulativeTimes(byDriver[d.DriverNumber])
		if len(cumulative[i]) > maxLaps {
			maxLaps = len(cumulative[i])
		}
	}
	if maxLaps == 0 {
		return nil, nil, &NotFoundError{Detail: fmt.Sprintf(
			"none of the top %d drivers have lap data in session %s", topN, sessionKey)}
	}

	reference := cumulative[0]
	refDriver := drivers[0]

	series := make([]GapSeries, 0, len(drivers))
	refs := make([]DriverRef, 0, len(drivers))
	for i, d := range drivers {
		n := len(cumulative[i])
		if len(reference) < n {
			n = len(reference)
		}
		gaps := make([]float64, n)
		for j := 0; j < n; j++ {
			gaps[j] = cumulative[i][j] - reference[j]
		}
		ref := DriverRef{
			DriverNumber: d.DriverNumber,
			NameAcronym:  d.NameAcronym,
			FullName:     d.FullName,
			TeamName:     d.TeamName,
		}
		series = append(series, GapSeries{Driver: ref, Gaps: gaps})
		refs = append(refs, ref)
	}

	result := &GapToLeaderResult{
		Session: sessionKey,
		Reference: DriverRef{
			DriverNumber: refDriver.DriverNumber,
			NameAcronym:  refDriver.NameAcronym,
			FullName:     refDriver.FullName,
			TeamName:     refDriver.TeamName,
		},
		Laps:   maxLaps,
		Series: series,
	}
	return result, refs, nil
}

// cumulativeTimes sums a driver's lap durations in lap order, substituting
// the placeholder for laps without a recorded time.
func cumulativeTimes(laps []openf1.Lap) []float64 {
	ordered := make([]openf1.Lap, len(laps))
	copy(ordered, laps)
	sortLapsByNumber(ordered)

	out := make([]float64, 0, len(ordered))
	total := 0.0
	for _, lap := range ordered {
		d := missingLapPlaceholder
		if lap.LapDuration != nil {
			d = *lap.LapDuration
		}
		total += d
		out = append(out, total)
	}
	return out
}
