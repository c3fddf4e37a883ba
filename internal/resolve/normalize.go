// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

// Package resolve implements the session/entity resolution pipeline: the
// fuzzy matching that turns a human-supplied event name ("Abu Dhabi",
// "Vegas", "COTA") plus a year and session-type code into the correct
// upstream session key, and a free-text driver token into a driver number.
package resolve

import (
	"strings"
	"time"
)

// Normalize canonicalizes a free-text venue/country string into a
// comparison key: underscores and hyphens become spaces, the result is
// upper-cased, every character that is not an uppercase letter or space is
// stripped, and runs of whitespace collapse to single spaces.
//
// Normalize is pure, total, and idempotent; empty input yields "".
func Normalize(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	s = strings.ToUpper(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// firstToken returns the first whitespace-delimited token of s, or s
// itself when it has no whitespace.
func firstToken(s string) string {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i]
	}
	return s
}

// monthsByName maps month names and 3-letter abbreviations (lowercase) to
// their calendar month.
var monthsByName = map[string]time.Month{}

//nolint:gochecknoinits // builds the static month lookup once
func init() {
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		monthsByName[name] = m
		monthsByName[name[:3]] = m
	}
}

// ParseMonth accepts a month as a name ("September"), an abbreviation
// ("sep"), or a 1- or 2-digit number ("9", "09"), case-insensitively.
func ParseMonth(s string) (time.Month, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	if m, ok := monthsByName[s]; ok {
		return m, true
	}

	if len(s) <= 2 {
		n := 0
		for _, r := range s {
			if r < '0' || r > '9' {
				return 0, false
			}
			n = n*10 + int(r-'0')
		}
		if n >= 1 && n <= 12 {
			return time.Month(n), true
		}
	}
	return 0, false
}
