// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/mclarke-dev/boxbox/internal/openf1"
)

func testGrid() []openf1.Driver {
	return []openf1.Driver{
		{DriverNumber: 1, NameAcronym: "VER", FirstName: "Max", LastName: "Verstappen",
			FullName: "Max VERSTAPPEN", TeamName: "Red Bull Racing"},
		{DriverNumber: 44, NameAcronym: "HAM", FirstName: "Lewis", LastName: "Hamilton",
			FullName: "Lewis HAMILTON", TeamName: "Ferrari"},
		{DriverNumber: 4, NameAcronym: "NOR", FirstName: "Lando", LastName: "Norris",
			FullName: "Lando NORRIS", TeamName: "McLaren"},
		{DriverNumber: 18, NameAcronym: "STR", FirstName: "Lance", LastName: "Stroll",
			FullName: "Lance STROLL", TeamName: "Aston Martin"},
	}
}

func TestResolveDriver(t *testing.T) {
	api := &fakeAPI{drivers: testGrid()}
	r := newTestResolver(api)

	tests := []struct {
		ident string
		want  int
	}{
		{"VER", 1},
		{"ver", 1},
		{"1", 1},
		{"verstappen", 1},
		{"verstap", 1},
		{"Max Verstappen", 1},
		{"44", 44},
		{"HAM", 44},
		{"hamilton", 44},
		{"nor", 4},
		{"stroll", 18},
	}
	for _, tt := range tests {
		d, err := r.ResolveDriver(context.Background(), "9002", tt.ident)
		if err != nil {
			t.Errorf("ResolveDriver(%q): %v", tt.ident, err)
			continue
		}
		if d.DriverNumber != tt.want {
			t.Errorf("ResolveDriver(%q) = #%d, want #%d", tt.ident, d.DriverNumber, tt.want)
		}
	}
}

func TestResolveDriverPredicateRank(t *testing.T) {
	// An acronym that is also a substring of another driver's surname
	// must resolve by the acronym: predicates run to completion across
	// all drivers before the next rank is tried.
	grid := []openf1.Driver{
		{DriverNumber: 10, NameAcronym: "GAS", LastName: "Gasly", FullName: "Pierre GASLY"},
		{DriverNumber: 4, NameAcronym: "NOR", LastName: "Norgas", FullName: "Test NORGAS"},
	}
	api := &fakeAPI{drivers: grid}
	r := newTestResolver(api)

	d, err := r.ResolveDriver(context.Background(), "9002", "gas")
	if err != nil {
		t.Fatalf("ResolveDriver: %v", err)
	}
	if d.DriverNumber != 10 {
		t.Errorf("acronym match lost to surname substring: got #%d", d.DriverNumber)
	}
}

func TestResolveDriverNumberNotSubstring(t *testing.T) {
	// "1" is a car number, never a substring query: it must not match
	// car 18 even though that entry comes first in the list.
	grid := []openf1.Driver{
		{DriverNumber: 18, NameAcronym: "STR", LastName: "Stroll", FullName: "Lance STROLL"},
		{DriverNumber: 1, NameAcronym: "VER", LastName: "Verstappen", FullName: "Max VERSTAPPEN"},
	}
	api := &fakeAPI{drivers: grid}
	r := newTestResolver(api)

	d, err := r.ResolveDriver(context.Background(), "9002", "1")
	if err != nil {
		t.Fatalf("ResolveDriver: %v", err)
	}
	if d.DriverNumber != 1 {
		t.Errorf("ResolveDriver(\"1\") = #%d, want #1", d.DriverNumber)
	}
}

func TestResolveDriverErrors(t *testing.T) {
	r := newTestResolver(&fakeAPI{drivers: testGrid()})

	_, err := r.ResolveDriver(context.Background(), "9002", "zzz")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("unknown driver: expected NotFoundError, got %v", err)
	}

	_, err = r.ResolveDriver(context.Background(), "9002", "  ")
	var bad *BadInputError
	if !errors.As(err, &bad) {
		t.Errorf("blank identifier: expected BadInputError, got %v", err)
	}

	rErr := newTestResolver(&fakeAPI{driversErr: errors.New("boom")})
	if _, err := rErr.ResolveDriver(context.Background(), "9002", "VER"); err == nil {
		t.Error("expected error from failing upstream")
	}
}

func TestDriverByNumber(t *testing.T) {
	r := newTestResolver(&fakeAPI{drivers: testGrid()})

	d, err := r.DriverByNumber(context.Background(), "9002", 44)
	if err != nil {
		t.Fatalf("DriverByNumber: %v", err)
	}
	if d.NameAcronym != "HAM" {
		t.Errorf("DriverByNumber(44) = %s, want HAM", d.NameAcronym)
	}

	if _, err := r.DriverByNumber(context.Background(), "9002", 99); err == nil {
		t.Error("expected error for unknown car number")
	}
}
