// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package insights

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mclarke-dev/boxbox/internal/logging"
	"github.com/mclarke-dev/boxbox/internal/openf1"
)

// globalEventKeywords marks undirected messages that describe the whole
// session rather than one car. These pass a driver filter.
var globalEventKeywords = []string{
	"safety car",
	"virtual safety car",
	"red flag",
	"chequered flag",
	"drs enabled",
	"drs disabled",
	"green light",
	"track clear",
}

// globalEventCategories by upstream category code.
var globalEventCategories = map[string]bool{
	"safetycar":        true,
	"virtualsafetycar": true,
	"redflag":          true,
	"drs":              true,
}

// globalFlags are flag colors that apply session-wide.
var globalFlags = map[string]bool{
	"GREEN":     true,
	"CHEQUERED": true,
	"RED":       true,
	"YELLOW":    true,
}

// RaceControlResult is the race-control summary payload.
type RaceControlResult struct {
	Session     string                      `json:"session_key"`
	Driver      *DriverRef                  `json:"driver,omitempty"`
	LapNumber   int                         `json:"lap_number,omitempty"`
	Keyword     string                      `json:"keyword,omitempty"`
	Count       int                         `json:"count"`
	Explanation string                      `json:"explanation"`
	Messages    []openf1.RaceControlMessage `json:"messages"`
}

// RaceControlSummary filters the session's race-control feed.
//
// With a driver filter, a message survives only when it is attributed to
// that driver (its own driver_number, a whole-word "car N" mention, the
// acronym in parentheses, or the surname) or when it is an undirected
// session-wide event (safety car, flags, DRS). Undirected car-specific
// noise such as another driver's blue flags is dropped. Zero matches is a
// valid result, explained in the payload rather than reported as an error.
func (s *Service) RaceControlSummary(ctx context.Context, sessionKey string, req Request) (any, error) {
	messages, err := s.api.RaceControl(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("fetching race control feed: %w", err)
	}

	result := &RaceControlResult{Session: sessionKey, Keyword: req.Keyword}

	var driver *openf1.Driver
	if req.Driver != "" {
		driver, err = s.resolver.ResolveDriver(ctx, sessionKey, req.Driver)
		if err != nil {
			return nil, err
		}
		result.Driver = driverRef(driver)
		messages = filterByDriver(messages, driver)
	}

	if req.LapNumber > 0 {
		result.LapNumber = req.LapNumber
		window, err := s.lapWindow(ctx, sessionKey, driver, req.LapNumber)
		if err != nil {
			return nil, err
		}
		messages = filterByLap(messages, req.LapNumber, window)
	}

	if req.Keyword != "" {
		messages = filterByKeyword(messages, req.Keyword)
	}

	if messages == nil {
		messages = []openf1.RaceControlMessage{}
	}
	result.Messages = messages
	result.Count = len(messages)
	result.Explanation = explainCount(result)
	return result, nil
}

// carMentionRe matches a whole-word "car N" so "car 1" never matches
// "car 18". Built per target number.
func carMentionRe(number int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?i)\bcar %d\b`, number))
}

// filterByDriver keeps messages attributed to the driver plus undirected
// session-wide events.
func filterByDriver(messages []openf1.RaceControlMessage, d *openf1.Driver) []openf1.RaceControlMessage {
	carRe := carMentionRe(d.DriverNumber)
	acronym := "(" + strings.ToUpper(d.NameAcronym) + ")"
	surname := strings.ToUpper(d.LastName)

	var kept []openf1.RaceControlMessage
	for _, m := range messages {
		switch {
		case m.DriverNumber != nil && *m.DriverNumber == d.DriverNumber:
			kept = append(kept, m)
		case carRe.MatchString(m.Message):
			kept = append(kept, m)
		case acronym != "()" && strings.Contains(strings.ToUpper(m.Message), acronym):
			kept = append(kept, m)
		case surname != "" && strings.Contains(strings.ToUpper(m.Message), surname):
			kept = append(kept, m)
		case m.DriverNumber == nil && isGlobalEvent(m):
			kept = append(kept, m)
		}
	}
	return kept
}

// isGlobalEvent recognizes undirected messages that describe the session
// as a whole, by keyword, category code, or flag color.
func isGlobalEvent(m openf1.RaceControlMessage) bool {
	text := strings.ToLower(m.Message)
	for _, kw := range globalEventKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	if globalEventCategories[normalizeKey(m.Category)] {
		return true
	}
	return globalFlags[strings.ToUpper(m.Flag)]
}

// timeWindow is one lap's on-track interval.
type timeWindow struct {
	start time.Time
	end   time.Time
}

// lapWindow computes the [lap_start, lap_start+duration] interval for the
// requested lap, using the filtered driver's lap record when one is set,
// otherwise the session leader's, otherwise the first roster entry's.
func (s *Service) lapWindow(ctx context.Context, sessionKey string, driver *openf1.Driver, lapNumber int) (*timeWindow, error) {
	number := 0
	if driver != nil {
		number = driver.DriverNumber
	} else if leader, err := s.leaderNumber(ctx, sessionKey); err == nil {
		number = leader
	} else {
		drivers, err := s.api.Drivers(ctx, sessionKey)
		if err != nil || len(drivers) == 0 {
			return nil, &NotFoundError{Detail: fmt.Sprintf(
				"no reference driver available for lap %d window", lapNumber)}
		}
		number = drivers[0].DriverNumber
	}

	laps, err := s.api.Laps(ctx, sessionKey, number, lapNumber)
	if err != nil {
		return nil, fmt.Errorf("fetching reference lap %d: %w", lapNumber, err)
	}
	for _, lap := range laps {
		if lap.LapNumber == lapNumber && lap.DateStart != nil && lap.LapDuration != nil {
			return &timeWindow{
				start: *lap.DateStart,
				end:   lap.DateStart.Add(time.Duration(*lap.LapDuration * float64(time.Second))),
			}, nil
		}
	}
	// No usable reference record. Lap-number equality still applies.
	logger := logging.Ctx(ctx)
	logger.Debug().Int("lap", lapNumber).Int("driver", number).
		Msg("no timed reference lap, filtering by lap number only")
	return nil, nil
}

// leaderNumber returns the driver number classified first in the session.
func (s *Service) leaderNumber(ctx context.Context, sessionKey string) (int, error) {
	results, err := s.api.SessionResult(ctx, sessionKey)
	if err != nil {
		return 0, err
	}
	for _, r := range results {
		if r.Position != nil && *r.Position == 1 {
			return r.DriverNumber, nil
		}
	}
	return 0, &NotFoundError{Detail: "no classified leader"}
}

// filterByLap keeps messages whose own lap number equals the target or
// whose timestamp falls inside the lap's time window.
func filterByLap(messages []openf1.RaceControlMessage, lapNumber int, window *timeWindow) []openf1.RaceControlMessage {
	var kept []openf1.RaceControlMessage
	for _, m := range messages {
		if m.LapNumber != nil && *m.LapNumber == lapNumber {
			kept = append(kept, m)
			continue
		}
		if window != nil && !m.Date.Before(window.start) && !m.Date.After(window.end) {
			kept = append(kept, m)
		}
	}
	return kept
}

// keywordRespacings maps squashed filter terms to the two-word forms the
// upstream feed actually uses.
var keywordRespacings = map[string]string{
	"safetycar":        "safety car",
	"virtualsafetycar": "virtual safety car",
}

// filterByKeyword keeps messages whose category+flag+text contains the
// term, trying the raw term and its re-spaced form.
func filterByKeyword(messages []openf1.RaceControlMessage, keyword string) []openf1.RaceControlMessage {
	terms := []string{strings.ToLower(strings.TrimSpace(keyword))}
	if respaced, ok := keywordRespacings[normalizeKey(keyword)]; ok {
		terms = append(terms, respaced)
	}

	var kept []openf1.RaceControlMessage
	for _, m := range messages {
		haystack := strings.ToLower(m.Category + " " + m.Flag + " " + m.Message)
		for _, term := range terms {
			if term != "" && strings.Contains(haystack, term) {
				kept = append(kept, m)
				break
			}
		}
	}
	return kept
}

// explainCount renders the human-readable summary line, naming the active
// filters so a zero count is self-explanatory.
func explainCount(r *RaceControlResult) string {
	var filters []string
	if r.Driver != nil {
		filters = append(filters, fmt.Sprintf("driver %s (#%d)", r.Driver.NameAcronym, r.Driver.DriverNumber))
	}
	if r.LapNumber > 0 {
		filters = append(filters, fmt.Sprintf("lap %d", r.LapNumber))
	}
	if r.Keyword != "" {
		filters = append(filters, fmt.Sprintf("keyword %q", r.Keyword))
	}

	scope := "for the session"
	if len(filters) > 0 {
		scope = "matching " + strings.Join(filters, ", ")
	}
	if r.Count == 0 {
		return "No race control messages " + scope + "."
	}
	return fmt.Sprintf("%d race control message(s) %s.", r.Count, scope)
}

func driverRef(d *openf1.Driver) *DriverRef {
	return &DriverRef{
		DriverNumber: d.DriverNumber,
		NameAcronym:  d.NameAcronym,
		FullName:     d.FullName,
		TeamName:     d.TeamName,
	}
}
