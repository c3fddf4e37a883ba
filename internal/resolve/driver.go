// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package resolve

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mclarke-dev/boxbox/internal/metrics"
	"github.com/mclarke-dev/boxbox/internal/openf1"
)

// driverPredicate tests one driver against an already-normalized query.
type driverPredicate func(d openf1.Driver, query string) bool

// driverPredicates in ranked order. All drivers are tested against one
// predicate before the next predicate is tried, so an exact acronym match
// always beats a substring match even when the substring match comes
// first in the entry list.
var driverPredicates = []driverPredicate{
	func(d openf1.Driver, q string) bool {
		return Normalize(d.NameAcronym) == q
	},
	func(d openf1.Driver, q string) bool {
		n, err := strconv.Atoi(strings.TrimSpace(q))
		return err == nil && d.DriverNumber == n
	},
	func(d openf1.Driver, q string) bool {
		return strings.Contains(Normalize(d.LastName), q)
	},
	func(d openf1.Driver, q string) bool {
		return strings.Contains(Normalize(d.FullName), q)
	},
}

// ResolveDriver finds the driver in a session that a fuzzy identifier
// refers to. The identifier may be an acronym ("VER"), a car number
// ("1"), a surname fragment ("verstap"), or a full name.
func (r *Resolver) ResolveDriver(ctx context.Context, sessionKey string, ident string) (*openf1.Driver, error) {
	query := Normalize(ident)
	if query == "" && strings.TrimSpace(ident) == "" {
		return nil, &BadInputError{Detail: "empty driver identifier"}
	}

	drivers, err := r.api.Drivers(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("driver lookup failed for session %s: %w", sessionKey, err)
	}

	if d, ok := matchDriver(drivers, query, strings.TrimSpace(ident)); ok {
		metrics.RecordResolution("driver", true)
		return d, nil
	}

	metrics.RecordResolution("driver", false)
	return nil, &NotFoundError{Kind: "driver", Detail: fmt.Sprintf(
		"no entry in session %s matches %q", sessionKey, ident)}
}

// DriverByNumber finds a session entry by car number without fuzzy
// matching. Insight handlers use it to attribute upstream records that
// carry only a driver_number.
func (r *Resolver) DriverByNumber(ctx context.Context, sessionKey string, number int) (*openf1.Driver, error) {
	drivers, err := r.api.Drivers(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("driver lookup failed for session %s: %w", sessionKey, err)
	}
	for i := range drivers {
		if drivers[i].DriverNumber == number {
			return &drivers[i], nil
		}
	}
	return nil, &NotFoundError{Kind: "driver", Detail: fmt.Sprintf(
		"no entry in session %s has car number %d", sessionKey, number)}
}

// matchDriver runs the ranked predicates. The numeric predicate uses the
// raw identifier since normalization strips digits.
func matchDriver(drivers []openf1.Driver, query, raw string) (*openf1.Driver, bool) {
	for i, pred := range driverPredicates {
		q := query
		if i == 1 {
			q = raw
		}
		if q == "" {
			continue
		}
		for j := range drivers {
			if pred(drivers[j], q) {
				return &drivers[j], true
			}
		}
	}
	return nil, false
}
