// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package insights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mclarke-dev/boxbox/internal/openf1"
)

// timedLap anchors every lap with a start timestamp and duration so the
// finish-time reconstruction has no gaps to bridge.
func timedLap(driver, lap int, start time.Time, duration float64) openf1.Lap {
	return openf1.Lap{
		DriverNumber: driver,
		LapNumber:    lap,
		DateStart:    tptr(start),
		LapDuration:  fptr(duration),
	}
}

func TestPositionChangesBetweenLaps(t *testing.T) {
	// Lap 4 order: A(1), B(2), C(3). Lap 5 order: B, A, C.
	// A loses one place, B gains one, C holds.
	base := at(0, 0)
	api := &fakeAPI{
		drivers: []openf1.Driver{
			{DriverNumber: 1, NameAcronym: "AAA"},
			{DriverNumber: 2, NameAcronym: "BBB"},
			{DriverNumber: 3, NameAcronym: "CCC"},
		},
		laps: []openf1.Lap{
			timedLap(1, 4, base, 90),
			timedLap(2, 4, base.Add(time.Second), 90),
			timedLap(3, 4, base.Add(2*time.Second), 90),
			timedLap(1, 5, base.Add(90*time.Second), 95),
			timedLap(2, 5, base.Add(91*time.Second), 90),
			timedLap(3, 5, base.Add(92*time.Second), 92),
		},
	}
	s := newTestService(api)

	res, err := s.PositionChanges(context.Background(), "9002", Request{LapNumber: 5})
	if err != nil {
		t.Fatalf("PositionChanges: %v", err)
	}
	r := res.(*PositionChangesResult)

	gained := map[int]int{}
	for _, c := range r.Changes {
		gained[c.Driver.DriverNumber] = c.Gained
	}
	want := map[int]int{1: -1, 2: 1, 3: 0}
	for number, g := range want {
		if gained[number] != g {
			t.Errorf("driver %d gained = %d, want %d", number, gained[number], g)
		}
	}
}

func TestPositionChangesExcludesPartialDrivers(t *testing.T) {
	base := at(0, 0)
	api := &fakeAPI{
		drivers: []openf1.Driver{{DriverNumber: 1}, {DriverNumber: 2}},
		laps: []openf1.Lap{
			timedLap(1, 4, base, 90),
			timedLap(1, 5, base.Add(90*time.Second), 90),
			// Driver 2 only has lap 5; absent from the lap 4 snapshot.
			timedLap(2, 5, base.Add(91*time.Second), 90),
		},
	}
	s := newTestService(api)

	res, err := s.PositionChanges(context.Background(), "9002", Request{LapNumber: 5})
	if err != nil {
		t.Fatalf("PositionChanges: %v", err)
	}
	r := res.(*PositionChangesResult)
	if len(r.Changes) != 1 || r.Changes[0].Driver.DriverNumber != 1 {
		t.Errorf("want only driver 1 in changes, got %+v", r.Changes)
	}
}

func TestPositionChangesLapOneRejected(t *testing.T) {
	s := newTestService(&fakeAPI{})
	_, err := s.PositionChanges(context.Background(), "9002", Request{LapNumber: 1})
	var ce *ClientError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ClientError for lap 1, got %v", err)
	}
}

func TestPositionChangesFromClassification(t *testing.T) {
	api := &fakeAPI{
		drivers: []openf1.Driver{
			{DriverNumber: 1, NameAcronym: "VER"},
			{DriverNumber: 44, NameAcronym: "HAM"},
		},
		results: []openf1.SessionResult{
			{DriverNumber: 1, Position: iptr(1)},
			{DriverNumber: 44, Position: iptr(2)},
		},
		grid: []openf1.GridPosition{
			{DriverNumber: 1, Position: 3},
			{DriverNumber: 44, Position: 1},
		},
	}
	s := newTestService(api)

	res, err := s.PositionChanges(context.Background(), "9002", Request{})
	if err != nil {
		t.Fatalf("PositionChanges: %v", err)
	}
	r := res.(*PositionChangesResult)
	gained := map[int]int{}
	for _, c := range r.Changes {
		gained[c.Driver.DriverNumber] = c.Gained
	}
	if gained[1] != 2 || gained[44] != -1 {
		t.Errorf("classification changes = %v, want driver1 +2, driver44 -1", gained)
	}
	// Biggest gainer first.
	if r.Changes[0].Driver.DriverNumber != 1 {
		t.Errorf("changes not sorted by gain: %+v", r.Changes)
	}
}

func TestFinishTimeAtLapBridgesUntimedlaps(t *testing.T) {
	base := at(0, 0)
	laps := []openf1.Lap{
		timedLap(1, 3, base, 90),
		// Lap 4 has a duration but no start; lap 5 likewise. The walk
		// anchors at lap 3 and sums forward.
		{DriverNumber: 1, LapNumber: 4, LapDuration: fptr(91)},
		{DriverNumber: 1, LapNumber: 5, LapDuration: fptr(92)},
	}
	got, ok := finishTimeAtLap(laps, 5)
	if !ok {
		t.Fatal("finishTimeAtLap failed")
	}
	want := base.Add(time.Duration((90 + 91 + 92) * float64(time.Second)))
	if !got.Equal(want) {
		t.Errorf("finish time = %v, want %v", got, want)
	}

	// An untimed lap in the chain blocks reconstruction.
	laps[1].LapDuration = nil
	if _, ok := finishTimeAtLap(laps, 5); ok {
		t.Error("expected failure with an untimed lap in the chain")
	}
}
