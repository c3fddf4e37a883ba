// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package insights

import (
	"context"
	"fmt"
	"math"
)

// TemperatureRange summarizes one temperature channel over the session.
type TemperatureRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// WeatherSummaryResult is the weather payload.
type WeatherSummaryResult struct {
	Session   string           `json:"session_key"`
	Samples   int              `json:"samples"`
	AirTemp   TemperatureRange `json:"air_temperature"`
	TrackTemp TemperatureRange `json:"track_temperature"`
	Rained    bool             `json:"rained"`
	MaxWind   float64          `json:"max_wind_speed"`
}

// WeatherSummary aggregates the session's trackside weather samples. An
// empty weather feed is a not-found condition, not an empty success.
func (s *Service) WeatherSummary(ctx context.Context, sessionKey string, _ Request) (any, error) {
	samples, err := s.api.Weather(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("fetching weather: %w", err)
	}
	if len(samples) == 0 {
		return nil, &NotFoundError{Detail: "no weather data recorded for session " + sessionKey}
	}

	air := newRange()
	track := newRange()
	rained := false
	maxWind := 0.0
	for _, w := range samples {
		air.observe(w.AirTemperature)
		track.observe(w.TrackTemperature)
		if w.Rainfall > 0 {
			rained = true
		}
		if w.WindSpeed > maxWind {
			maxWind = w.WindSpeed
		}
	}

	return &WeatherSummaryResult{
		Session:   sessionKey,
		Samples:   len(samples),
		AirTemp:   air.result(),
		TrackTemp: track.result(),
		Rained:    rained,
		MaxWind:   maxWind,
	}, nil
}

type runningRange struct {
	min, max, sum float64
	n             int
}

func newRange() *runningRange {
	return &runningRange{min: math.Inf(1), max: math.Inf(-1)}
}

func (r *runningRange) observe(v float64) {
	r.min = math.Min(r.min, v)
	r.max = math.Max(r.max, v)
	r.sum += v
	r.n++
}

func (r *runningRange) result() TemperatureRange {
	mean := r.sum / float64(r.n)
	return TemperatureRange{
		Min:  r.min,
		Max:  r.max,
		Mean: math.Round(mean*10) / 10,
	}
}
