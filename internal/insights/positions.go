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

	"github.com/mclarke-dev/boxbox/internal/openf1"
)

// PositionChange is one driver's movement between two laps or between
// grid and finish. Positive Gained means places won.
type PositionChange struct {
	Driver       DriverRef `json:"driver"`
	PositionFrom int       `json:"position_from"`
	PositionTo   int       `json:"position_to"`
	Gained       int       `json:"positions_gained"`
}

// PositionChangesResult is the position-change payload.
type PositionChangesResult struct {
	Session   string           `json:"session_key"`
	LapNumber int              `json:"lap_number,omitempty"`
	Basis     string           `json:"basis"`
	Changes   []PositionChange `json:"changes"`
}

// PositionChanges reports how many places each driver gained or lost.
//
// With a lap number N (N > 1), each driver's running finish time is
// reconstructed at laps N-1 and N, drivers are ranked by it per lap, and
// gained = position(N-1) - position(N). A driver missing from either
// snapshot is excluded. Without a lap number, gained is derived once from
// final classification as grid position minus finish position.
func (s *Service) PositionChanges(ctx context.Context, sessionKey string, req Request) (any, error) {
	if req.LapNumber == 1 {
		return nil, &ClientError{Detail: "lap_number must be greater than 1 for lap-to-lap position changes"}
	}
	if req.LapNumber > 1 {
		return s.positionChangesAtLap(ctx, sessionKey, req.LapNumber)
	}
	return s.positionChangesFromClassification(ctx, sessionKey)
}

func (s *Service) positionChangesAtLap(ctx context.Context, sessionKey string, lapNumber int) (any, error) {
	laps, err := s.api.Laps(ctx, sessionKey, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching laps: %w", err)
	}
	if len(laps) == 0 {
		return nil, &NotFoundError{Detail: "no lap data recorded for session " + sessionKey}
	}

	byDriver := map[int][]openf1.Lap{}
	for _, lap := range laps {
		byDriver[lap.DriverNumber] = append(byDriver[lap.DriverNumber], lap)
	}

	prev := rankAtLap(byDriver, lapNumber-1)
	curr := rankAtLap(byDriver, lapNumber)
	if len(curr) == 0 {
		return nil, &NotFoundError{Detail: fmt.Sprintf(
			"no driver has a usable lap %d in session %s", lapNumber, sessionKey)}
	}

	roster, err := s.rosterIndex(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	var changes []PositionChange
	for number, posCurr := range curr {
		posPrev, ok := prev[number]
		if !ok {
			continue
		}
		changes = append(changes, PositionChange{
			Driver:       rosterRef(roster, number),
			PositionFrom: posPrev,
			PositionTo:   posCurr,
			Gained:       posPrev - posCurr,
		})
	}
	sortChanges(changes)

	return &PositionChangesResult{
		Session:   sessionKey,
		LapNumber: lapNumber,
		Basis:     fmt.Sprintf("running order at lap %d vs lap %d", lapNumber, lapNumber-1),
		Changes:   changes,
	}, nil
}

func (s *Service) positionChangesFromClassification(ctx context.Context, sessionKey string) (any, error) {
	results, err := s.api.SessionResult(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("fetching session result: %w", err)
	}
	if len(results) == 0 {
		return nil, &NotFoundError{Detail: "no classification available for session " + sessionKey}
	}
	grid, err := s.api.StartingGrid(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("fetching starting grid: %w", err)
	}

	gridByDriver := map[int]int{}
	for _, g := range grid {
		gridByDriver[g.DriverNumber] = g.Position
	}

	roster, err := s.rosterIndex(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	var changes []PositionChange
	for _, r := range results {
		if r.Position == nil {
			continue
		}
		start, ok := gridByDriver[r.DriverNumber]
		if !ok {
			continue
		}
		changes = append(changes, PositionChange{
			Driver:       rosterRef(roster, r.DriverNumber),
			PositionFrom: start,
			PositionTo:   *r.Position,
			Gained:       start - *r.Position,
		})
	}
	sortChanges(changes)

	return &PositionChangesResult{
		Session: sessionKey,
		Basis:   "grid position vs final classification",
		Changes: changes,
	}, nil
}

// rankAtLap ranks drivers by their reconstructed finish time at one lap,
// ascending, returning driver number to position. Drivers without a
// determinable finish time at that lap are absent from the map.
func rankAtLap(byDriver map[int][]openf1.Lap, lapNumber int) map[int]int {
	type finisher struct {
		number int
		at     time.Time
	}
	var finishers []finisher
	for number, laps := range byDriver {
		at, ok := finishTimeAtLap(laps, lapNumber)
		if ok {
			finishers = append(finishers, finisher{number: number, at: at})
		}
	}
	sort.Slice(finishers, func(i, j int) bool {
		if finishers[i].at.Equal(finishers[j].at) {
			return finishers[i].number < finishers[j].number
		}
		return finishers[i].at.Before(finishers[j].at)
	})

	positions := make(map[int]int, len(finishers))
	for i, f := range finishers {
		positions[f.number] = i + 1
	}
	return positions
}

// finishTimeAtLap derives the instant a driver completed the given lap:
// the lap's own start timestamp plus its duration when both are recorded,
// otherwise an earlier timed lap's finish plus the durations in between.
func finishTimeAtLap(laps []openf1.Lap, lapNumber int) (time.Time, bool) {
	byNumber := map[int]openf1.Lap{}
	for _, lap := range laps {
		byNumber[lap.LapNumber] = lap
	}

	lap, ok := byNumber[lapNumber]
	if !ok {
		return time.Time{}, false
	}
	if lap.DateStart != nil && lap.LapDuration != nil {
		return lap.DateStart.Add(secondsToDuration(*lap.LapDuration)), true
	}

	// Walk back to the nearest anchored lap and sum forward.
	for anchor := lapNumber - 1; anchor >= 1; anchor-- {
		a, ok := byNumber[anchor]
		if !ok || a.DateStart == nil || a.LapDuration == nil {
			continue
		}
		at := a.DateStart.Add(secondsToDuration(*a.LapDuration))
		complete := true
		for n := anchor + 1; n <= lapNumber; n++ {
			next, ok := byNumber[n]
			if !ok || next.LapDuration == nil {
				complete = false
				break
			}
			at = at.Add(secondsToDuration(*next.LapDuration))
		}
		if complete {
			return at, true
		}
	}
	return time.Time{}, false
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// sortChanges orders by biggest gain first, then by finish position for a
// stable presentation.
func sortChanges(changes []PositionChange) {
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Gained != changes[j].Gained {
			return changes[i].Gained > changes[j].Gained
		}
		return changes[i].PositionTo < changes[j].PositionTo
	})
}

// rosterIndex fetches the session's roster keyed by driver number.
func (s *Service) rosterIndex(ctx context.Context, sessionKey string) (map[int]openf1.Driver, error) {
	drivers, err := s.api.Drivers(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("fetching driver roster: %w", err)
	}
	index := make(map[int]openf1.Driver, len(drivers))
	for _, d := range drivers {
		index[d.DriverNumber] = d
	}
	return index, nil
}

// rosterRef builds a DriverRef, falling back to the bare number when the
// roster does not cover the driver.
func rosterRef(roster map[int]openf1.Driver, number int) DriverRef {
	if d, ok := roster[number]; ok {
		return DriverRef{
			DriverNumber: d.DriverNumber,
			NameAcronym:  d.NameAcronym,
			FullName:     d.FullName,
			TeamName:     d.TeamName,
		}
	}
	return DriverRef{DriverNumber: number}
}
