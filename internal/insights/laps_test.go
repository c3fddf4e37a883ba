// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package insights

import (
	"context"
	"errors"
	"testing"

	"github.com/mclarke-dev/boxbox/internal/openf1"
)

func TestFastestLap(t *testing.T) {
	api := &fakeAPI{
		drivers: []openf1.Driver{
			{DriverNumber: 1, NameAcronym: "VER", FullName: "Max VERSTAPPEN"},
			{DriverNumber: 44, NameAcronym: "HAM", FullName: "Lewis HAMILTON"},
		},
		laps: []openf1.Lap{
			lapOf(1, 10, fptr(92.3)),
			lapOf(1, 30, fptr(89.132)),
			lapOf(44, 20, fptr(89.5)),
			lapOf(44, 1, nil), // untimed laps never win
		},
		stints: []openf1.Stint{
			{DriverNumber: 1, StintNumber: 2, Compound: "SOFT", LapStart: 25, LapEnd: 40},
		},
	}
	s := newTestService(api)

	res, err := s.FastestLap(context.Background(), "9002", Request{})
	if err != nil {
		t.Fatalf("FastestLap: %v", err)
	}
	r := res.(*FastestLapResult)

	if r.Driver.NameAcronym != "VER" || r.LapNumber != 30 {
		t.Errorf("fastest = %s lap %d, want VER lap 30", r.Driver.NameAcronym, r.LapNumber)
	}
	if r.LapDuration != 89.132 {
		t.Errorf("duration = %v, want 89.132", r.LapDuration)
	}
	if r.LapTime != "1:29.132" {
		t.Errorf("formatted time = %q, want 1:29.132", r.LapTime)
	}
	if r.Compound != "SOFT" {
		t.Errorf("compound = %q, want SOFT", r.Compound)
	}
	if r.TyreAge != 6 {
		t.Errorf("tyre age = %d, want 6 (lap 30 on a lap-25 stint)", r.TyreAge)
	}
}

func TestFastestLapDriverScoped(t *testing.T) {
	api := &fakeAPI{
		drivers: []openf1.Driver{
			{DriverNumber: 1, NameAcronym: "VER", LastName: "Verstappen", FullName: "Max VERSTAPPEN"},
			{DriverNumber: 44, NameAcronym: "HAM", LastName: "Hamilton", FullName: "Lewis HAMILTON"},
		},
		laps: []openf1.Lap{
			lapOf(1, 30, fptr(89.132)),
			lapOf(44, 20, fptr(89.5)),
		},
	}
	s := newTestService(api)

	res, err := s.FastestLap(context.Background(), "9002", Request{Driver: "hamilton"})
	if err != nil {
		t.Fatalf("FastestLap: %v", err)
	}
	r := res.(*FastestLapResult)
	if r.Driver.DriverNumber != 44 || r.LapDuration != 89.5 {
		t.Errorf("scoped fastest = %+v, want HAM 89.5", r)
	}
	// No stint data: compound degrades rather than erroring.
	if r.Compound != compoundUnknown {
		t.Errorf("compound = %q, want %q", r.Compound, compoundUnknown)
	}
}

func TestFastestLapNoTimedLaps(t *testing.T) {
	api := &fakeAPI{
		drivers: []openf1.Driver{{DriverNumber: 1}},
		laps:    []openf1.Lap{lapOf(1, 1, nil)},
	}
	s := newTestService(api)

	_, err := s.FastestLap(context.Background(), "9002", Request{})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestFormatLapTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{89.132, "1:29.132"},
		{60, "1:00.000"},
		{125.5, "2:05.500"},
		{59.999, "0:59.999"},
	}
	for _, tt := range tests {
		if got := formatLapTime(tt.seconds); got != tt.want {
			t.Errorf("formatLapTime(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
