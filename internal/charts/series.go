// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

// Package charts turns insight data into rendered PNG images and publishes
// them to an image host, returning a public URL.
package charts

// Point is one sample in a series. X is usually a lap number.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is one labeled line on a chart.
type Series struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

// LapSeries builds a series from per-lap values, with lap numbers starting
// at 1 on the X axis.
func LapSeries(label string, values []float64) Series {
	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{X: float64(i + 1), Y: v}
	}
	return Series{Label: label, Points: points}
}
