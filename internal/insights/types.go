// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

// Package insights implements the analysis handlers layered over the raw
// upstream telemetry: race-control summaries, position changes, pit-stop
// and tyre correlation, gap-to-leader series, fastest laps, and the chart
// variants that render a series and publish it as an image.
package insights

import (
	"fmt"
)

// Request carries the handler-specific parameters of one insight call.
// Session resolution parameters live at the API layer; by the time a
// handler runs the session key is already resolved.
type Request struct {
	// Driver is a fuzzy driver identifier (acronym, car number, surname
	// fragment, full name). Empty means session-wide scope.
	Driver string `json:"driver" validate:"omitempty,max=64"`

	// LapNumber scopes lap-window handlers; zero means no lap filter.
	LapNumber int `json:"lap_number" validate:"omitempty,gte=1,lte=200"`

	// Keyword is a case-insensitive substring filter for race control.
	Keyword string `json:"keyword" validate:"omitempty,max=64"`

	// Limit caps list-shaped results; zero applies the handler default.
	Limit int `json:"limit" validate:"omitempty,gte=1,lte=100"`

	// TopN bounds multi-driver series handlers; zero applies the default.
	TopN int `json:"top_n" validate:"omitempty,gte=2,lte=20"`
}

// ClientError reports a request the handler cannot serve because required
// input is missing or malformed.
type ClientError struct {
	Detail string
}

func (e *ClientError) Error() string {
	return "invalid insight request: " + e.Detail
}

// NotFoundError reports a mandatory upstream dataset that came back empty.
type NotFoundError struct {
	Detail string
}

func (e *NotFoundError) Error() string {
	return e.Detail
}

// DriverRef is the resolved driver echoed back in handler results.
type DriverRef struct {
	DriverNumber int    `json:"driver_number"`
	NameAcronym  string `json:"name_acronym"`
	FullName     string `json:"full_name"`
	TeamName     string `json:"team_name,omitempty"`
}

// formatLapTime renders a duration in seconds as m:ss.mmm.
func formatLapTime(seconds float64) string {
	minutes := int(seconds) / 60
	rem := seconds - float64(minutes*60)
	return fmt.Sprintf("%d:%06.3f", minutes, rem)
}
