// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package insights

import (
	"context"
	"strings"
	"testing"

	"github.com/mclarke-dev/boxbox/internal/openf1"
)

func rcGrid() []openf1.Driver {
	return []openf1.Driver{
		{DriverNumber: 1, NameAcronym: "VER", LastName: "Verstappen", FullName: "Max VERSTAPPEN"},
		{DriverNumber: 18, NameAcronym: "STR", LastName: "Stroll", FullName: "Lance STROLL"},
	}
}

func TestRaceControlCarNumberWordBoundary(t *testing.T) {
	api := &fakeAPI{
		drivers: rcGrid(),
		raceControl: []openf1.RaceControlMessage{
			{Message: "CAR 18 yellow flag in sector 2", DriverNumber: iptr(1), Date: at(10, 0)},
			{Message: "CAR 1 track limits warning", Date: at(11, 0)},
		},
	}
	s := newTestService(api)

	// The first message carries driver_number 1, so it survives a
	// driver-1 filter by attribution; the interesting direction is the
	// driver-18 filter, where "CAR 18" in the text must match even though
	// the record is attributed to car 1, and "CAR 1" must not pull in the
	// car 18 message.
	res, err := s.RaceControlSummary(context.Background(), "9002", Request{Driver: "18"})
	if err != nil {
		t.Fatalf("RaceControlSummary: %v", err)
	}
	r := res.(*RaceControlResult)
	if r.Count != 1 || !strings.Contains(r.Messages[0].Message, "CAR 18") {
		t.Errorf("driver 18 filter kept %d message(s): %+v", r.Count, r.Messages)
	}

	// Word boundary regression: a pure-text "CAR 18" mention must not
	// match a filter for car 1.
	api.raceControl = []openf1.RaceControlMessage{
		{Message: "CAR 18 yellow flag in sector 2", Date: at(10, 0)},
	}
	res, err = s.RaceControlSummary(context.Background(), "9002", Request{Driver: "1"})
	if err != nil {
		t.Fatalf("RaceControlSummary: %v", err)
	}
	r = res.(*RaceControlResult)
	if r.Count != 0 {
		t.Errorf("\"CAR 18\" matched a car 1 filter: %+v", r.Messages)
	}
}

func TestRaceControlAttributionPaths(t *testing.T) {
	api := &fakeAPI{
		drivers: rcGrid(),
		raceControl: []openf1.RaceControlMessage{
			{Message: "Incident noted", DriverNumber: iptr(1), Date: at(1, 0)},
			{Message: "CAR 1 off track", Date: at(2, 0)},
			{Message: "PENALTY FOR VERSTAPPEN (VER)", Date: at(3, 0)},
			{Message: "STROLL under investigation", Date: at(4, 0)},
		},
	}
	s := newTestService(api)

	res, err := s.RaceControlSummary(context.Background(), "9002", Request{Driver: "VER"})
	if err != nil {
		t.Fatalf("RaceControlSummary: %v", err)
	}
	r := res.(*RaceControlResult)
	if r.Count != 3 {
		t.Fatalf("driver VER filter kept %d message(s), want 3: %+v", r.Count, r.Messages)
	}
	for _, m := range r.Messages {
		if strings.Contains(m.Message, "STROLL") {
			t.Errorf("another driver's message leaked through: %q", m.Message)
		}
	}
}

func TestRaceControlGlobalEventPassthrough(t *testing.T) {
	api := &fakeAPI{
		drivers: rcGrid(),
		raceControl: []openf1.RaceControlMessage{
			{Category: "SafetyCar", Message: "SAFETY CAR DEPLOYED", Date: at(1, 0)},
			{Flag: "CHEQUERED", Message: "CHEQUERED FLAG", Date: at(2, 0)},
			{Flag: "BLUE", Message: "WAVED BLUE FLAG FOR CAR 44", Date: at(3, 0)},
			{Message: "DRS ENABLED", Date: at(4, 0)},
		},
	}
	s := newTestService(api)

	res, err := s.RaceControlSummary(context.Background(), "9002", Request{Driver: "1"})
	if err != nil {
		t.Fatalf("RaceControlSummary: %v", err)
	}
	r := res.(*RaceControlResult)
	if r.Count != 3 {
		t.Fatalf("kept %d message(s), want 3 global events: %+v", r.Count, r.Messages)
	}
	for _, m := range r.Messages {
		if strings.Contains(m.Message, "BLUE FLAG") {
			t.Errorf("undirected blue flag survived a driver filter: %q", m.Message)
		}
	}
}

func TestRaceControlLapWindow(t *testing.T) {
	api := &fakeAPI{
		drivers: rcGrid(),
		laps: []openf1.Lap{
			{DriverNumber: 1, LapNumber: 5, DateStart: tptr(at(10, 0)), LapDuration: fptr(90)},
		},
		raceControl: []openf1.RaceControlMessage{
			{Message: "Tagged to lap five", LapNumber: iptr(5), Date: at(0, 0)},
			{Message: "Inside the window", Date: at(10, 30)},
			{Message: "Well outside", Date: at(20, 0)},
		},
	}
	s := newTestService(api)

	// No driver filter: the reference lap comes from the roster head
	// since the fake has no classification.
	res, err := s.RaceControlSummary(context.Background(), "9002", Request{LapNumber: 5})
	if err != nil {
		t.Fatalf("RaceControlSummary: %v", err)
	}
	r := res.(*RaceControlResult)
	if r.Count != 2 {
		t.Errorf("lap filter kept %d message(s), want 2: %+v", r.Count, r.Messages)
	}
}

func TestRaceControlKeywordRespacing(t *testing.T) {
	api := &fakeAPI{
		raceControl: []openf1.RaceControlMessage{
			{Category: "SafetyCar", Message: "SAFETY CAR DEPLOYED", Date: at(1, 0)},
			{Message: "TRACK CLEAR", Date: at(2, 0)},
		},
	}
	s := newTestService(api)

	res, err := s.RaceControlSummary(context.Background(), "9002", Request{Keyword: "safetycar"})
	if err != nil {
		t.Fatalf("RaceControlSummary: %v", err)
	}
	r := res.(*RaceControlResult)
	if r.Count != 1 || !strings.Contains(r.Messages[0].Message, "SAFETY CAR") {
		t.Errorf("respaced keyword kept %d message(s): %+v", r.Count, r.Messages)
	}
}

func TestRaceControlZeroMatchesIsValid(t *testing.T) {
	api := &fakeAPI{
		drivers:     rcGrid(),
		raceControl: []openf1.RaceControlMessage{{Message: "STROLL penalty", Date: at(1, 0)}},
	}
	s := newTestService(api)

	res, err := s.RaceControlSummary(context.Background(), "9002", Request{Driver: "VER", Keyword: "rain"})
	if err != nil {
		t.Fatalf("zero matches should not error: %v", err)
	}
	r := res.(*RaceControlResult)
	if r.Count != 0 || r.Messages == nil {
		t.Errorf("want empty but non-nil message list, got %+v", r)
	}
	if !strings.Contains(r.Explanation, "No race control messages") {
		t.Errorf("explanation does not describe the zero count: %q", r.Explanation)
	}
	if !strings.Contains(r.Explanation, "VER") || !strings.Contains(r.Explanation, "rain") {
		t.Errorf("explanation does not echo active filters: %q", r.Explanation)
	}
}
