// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package openf1

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mclarke-dev/boxbox/internal/logging"
	"github.com/mclarke-dev/boxbox/internal/metrics"
)

// BreakerClient wraps an API with a circuit breaker so a struggling
// upstream sheds load fast instead of queueing requests behind timeouts.
// Individual call failures still propagate unchanged; the breaker only
// short-circuits once the failure rate crosses the trip threshold.
type BreakerClient struct {
	api  API
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewBreakerClient wraps api with circuit breaker protection.
// Configuration: max 3 concurrent half-open probes, 1 minute measurement
// window, 2 minute open period, trips at a 60% failure rate over at least
// 10 requests.
func NewBreakerClient(api API) *BreakerClient {
	cbName := "openf1-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening upstream circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("upstream circuit state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerClient{api: api, cb: cb, name: cbName}
}

// execute runs one upstream call through the breaker, recording metrics.
func execute[T any](bc *BreakerClient, fn func() (T, error)) (T, error) {
	result, err := bc.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "rejected").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "failure").Inc()
		}
		return zero, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "success").Inc()
	out, _ := result.(T)
	return out, nil
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func (bc *BreakerClient) Sessions(ctx context.Context, year int, countryName, sessionName string) ([]Session, error) {
	return execute(bc, func() ([]Session, error) { return bc.api.Sessions(ctx, year, countryName, sessionName) })
}

func (bc *BreakerClient) SessionByKey(ctx context.Context, sessionKey string) ([]Session, error) {
	return execute(bc, func() ([]Session, error) { return bc.api.SessionByKey(ctx, sessionKey) })
}

func (bc *BreakerClient) Meetings(ctx context.Context, year int) ([]Meeting, error) {
	return execute(bc, func() ([]Meeting, error) { return bc.api.Meetings(ctx, year) })
}

func (bc *BreakerClient) Drivers(ctx context.Context, sessionKey string) ([]Driver, error) {
	return execute(bc, func() ([]Driver, error) { return bc.api.Drivers(ctx, sessionKey) })
}

func (bc *BreakerClient) Laps(ctx context.Context, sessionKey string, driverNumber, lapNumber int) ([]Lap, error) {
	return execute(bc, func() ([]Lap, error) { return bc.api.Laps(ctx, sessionKey, driverNumber, lapNumber) })
}

func (bc *BreakerClient) CarData(ctx context.Context, sessionKey string, driverNumber int, from, to time.Time) ([]CarData, error) {
	return execute(bc, func() ([]CarData, error) { return bc.api.CarData(ctx, sessionKey, driverNumber, from, to) })
}

func (bc *BreakerClient) PitStops(ctx context.Context, sessionKey string, driverNumber int) ([]PitStop, error) {
	return execute(bc, func() ([]PitStop, error) { return bc.api.PitStops(ctx, sessionKey, driverNumber) })
}

func (bc *BreakerClient) Stints(ctx context.Context, sessionKey string, driverNumber int) ([]Stint, error) {
	return execute(bc, func() ([]Stint, error) { return bc.api.Stints(ctx, sessionKey, driverNumber) })
}

func (bc *BreakerClient) Weather(ctx context.Context, sessionKey string) ([]Weather, error) {
	return execute(bc, func() ([]Weather, error) { return bc.api.Weather(ctx, sessionKey) })
}

func (bc *BreakerClient) RaceControl(ctx context.Context, sessionKey string) ([]RaceControlMessage, error) {
	return execute(bc, func() ([]RaceControlMessage, error) { return bc.api.RaceControl(ctx, sessionKey) })
}

func (bc *BreakerClient) TeamRadio(ctx context.Context, sessionKey string, driverNumber int) ([]TeamRadio, error) {
	return execute(bc, func() ([]TeamRadio, error) { return bc.api.TeamRadio(ctx, sessionKey, driverNumber) })
}

func (bc *BreakerClient) SessionResult(ctx context.Context, sessionKey string) ([]SessionResult, error) {
	return execute(bc, func() ([]SessionResult, error) { return bc.api.SessionResult(ctx, sessionKey) })
}

func (bc *BreakerClient) StartingGrid(ctx context.Context, sessionKey string) ([]GridPosition, error) {
	return execute(bc, func() ([]GridPosition, error) { return bc.api.StartingGrid(ctx, sessionKey) })
}

func (bc *BreakerClient) Positions(ctx context.Context, sessionKey string, driverNumber int) ([]PositionSnapshot, error) {
	return execute(bc, func() ([]PositionSnapshot, error) { return bc.api.Positions(ctx, sessionKey, driverNumber) })
}

func (bc *BreakerClient) Overtakes(ctx context.Context, sessionKey string) ([]Overtake, error) {
	return execute(bc, func() ([]Overtake, error) { return bc.api.Overtakes(ctx, sessionKey) })
}

func (bc *BreakerClient) Raw(ctx context.Context, resource string, params url.Values) (json.RawMessage, error) {
	return execute(bc, func() (json.RawMessage, error) { return bc.api.Raw(ctx, resource, params) })
}
