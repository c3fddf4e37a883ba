// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package resolve

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mclarke-dev/boxbox/internal/cache"
	"github.com/mclarke-dev/boxbox/internal/logging"
	"github.com/mclarke-dev/boxbox/internal/metrics"
	"github.com/mclarke-dev/boxbox/internal/openf1"
)

// currentWindow is how close a type-matched session must be to the most
// recent session of any type to count as "current" in latest-mode
// resolution. A race weekend spans at most five days.
const currentWindow = 5 * 24 * time.Hour

// sessionTypeNames maps session-type codes to the canonical session names
// used by the upstream API. Already-canonical names map to themselves.
var sessionTypeNames = map[string]string{
	"R":                 "Race",
	"RACE":              "Race",
	"Q":                 "Qualifying",
	"QUALI":             "Qualifying",
	"QUALIFYING":        "Qualifying",
	"S":                 "Sprint",
	"SPRINT":            "Sprint",
	"SQ":                "Sprint Qualifying",
	"SPRINT QUALIFYING": "Sprint Qualifying",
	"FP1":               "Practice 1",
	"PRACTICE 1":        "Practice 1",
	"FP2":               "Practice 2",
	"PRACTICE 2":        "Practice 2",
	"FP3":               "Practice 3",
	"PRACTICE 3":        "Practice 3",
}

// CanonicalSessionName maps a session-type code to the upstream canonical
// session name. Unrecognized or absent codes default to the race session.
func CanonicalSessionName(code string) string {
	key := strings.ToUpper(strings.TrimSpace(code))
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	if name, ok := sessionTypeNames[key]; ok {
		return name
	}
	return "Race"
}

// Resolver turns fuzzy (year, location, session type, month) tuples into
// upstream session keys. It owns the per-year location alias maps.
type Resolver struct {
	api         openf1.API
	maps        *cache.Cache
	metaTimeout time.Duration
	now         func() time.Time
}

// NewResolver creates a resolver. metaTimeout bounds the meeting-list
// enrichment fetch used to build location alias maps.
func NewResolver(api openf1.API, metaTimeout time.Duration) *Resolver {
	return &Resolver{
		api:         api,
		maps:        mapsCache(),
		metaTimeout: metaTimeout,
		now:         time.Now,
	}
}

// Query is one resolution request.
type Query struct {
	Year int

	// Location is a fuzzy venue/country name; empty switches the resolver
	// into latest-mode (recency over exact type match).
	Location string

	// SessionType is a code (R, Q, S, FP1..FP3) or canonical name; empty
	// defaults to the race.
	SessionType string

	// Month optionally restricts candidates to one calendar month, given
	// as a name, abbreviation, or 1-2 digit number.
	Month string
}

// Resolution is the outcome of a session resolution: the upstream key plus
// the canonical names the fuzzy inputs resolved to.
type Resolution struct {
	SessionKey  int       `json:"session_key"`
	CountryName string    `json:"country_name"`
	SessionName string    `json:"session_name"`
	Location    string    `json:"location"`
	MeetingKey  int       `json:"meeting_key"`
	DateStart   time.Time `json:"date_start"`
	Year        int       `json:"year"`
}

// ResolveSession determines the single session a query refers to.
//
// A (year, location, session-type, month) tuple resolves to the most
// recent candidate matching the type; when strict filtering leaves no
// candidate the resolver widens the query (no country filter, then the
// upstream latest-session shortcut) before failing with an error naming
// the attempted combination.
func (r *Resolver) ResolveSession(ctx context.Context, q Query) (*Resolution, error) {
	sessionName := CanonicalSessionName(q.SessionType)

	if strings.TrimSpace(q.Location) == "" {
		return r.resolveLatest(ctx, q.Year, sessionName, q.Month)
	}

	country, ok := r.ResolveLocation(ctx, q.Year, q.Location)
	if !ok {
		// Best effort: pass the raw input through as a literal country
		// filter rather than failing outright.
		country = q.Location
		logger := logging.Ctx(ctx)
		logger.Debug().Str("location", q.Location).
			Msg("location did not resolve, querying with raw value")
	}

	sessions, err := r.api.Sessions(ctx, q.Year, country, sessionName)
	if err != nil {
		return nil, fmt.Errorf("session lookup failed for %d/%s/%s: %w",
			q.Year, country, sessionName, err)
	}

	if len(sessions) == 0 {
		sessions, err = r.widen(ctx, q.Year, sessionName)
		if err != nil {
			return nil, err
		}
	}

	sessions, err = filterByMonth(sessions, q.Month)
	if err != nil {
		return nil, err
	}

	if len(sessions) == 0 {
		metrics.RecordResolution("session", false)
		return nil, &NotFoundError{Kind: "session", Detail: fmt.Sprintf(
			"no session matches year=%d country=%q type=%q month=%q",
			q.Year, country, sessionName, q.Month)}
	}

	session := latestByStart(sessions)
	metrics.RecordResolution("session", true)
	return resolutionFrom(session), nil
}

// widen is the fallback ladder for empty strict queries: a global search
// across the year, then the upstream "latest known session" shortcut.
func (r *Resolver) widen(ctx context.Context, year int, sessionName string) ([]openf1.Session, error) {
	sessions, err := r.api.Sessions(ctx, year, "", sessionName)
	if err != nil {
		return nil, fmt.Errorf("global session lookup failed for %d/%s: %w", year, sessionName, err)
	}
	if len(sessions) > 0 {
		return sessions, nil
	}

	sessions, err = r.api.SessionByKey(ctx, openf1.LatestSessionKey)
	if err != nil {
		return nil, fmt.Errorf("latest-session lookup failed: %w", err)
	}
	return sessions, nil
}

// resolveLatest handles locationless queries: recency wins over exact type
// match. The latest session of the requested type is accepted only if it
// started within currentWindow of the single most recent session of any
// type; a type match from months ago is stale and the absolute latest
// session is returned instead.
func (r *Resolver) resolveLatest(ctx context.Context, year int, sessionName, month string) (*Resolution, error) {
	sessions, err := r.api.Sessions(ctx, year, "", "")
	if err != nil {
		return nil, fmt.Errorf("session lookup failed for year %d: %w", year, err)
	}

	sessions, err = filterByMonth(sessions, month)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		metrics.RecordResolution("session", false)
		return nil, &NotFoundError{Kind: "session", Detail: fmt.Sprintf(
			"no sessions found for year=%d month=%q", year, month)}
	}

	sortByStartDesc(sessions)

	newest := sessions[0]
	for _, s := range sessions {
		if s.SessionName == sessionName {
			if newest.DateStart.Sub(s.DateStart) <= currentWindow {
				metrics.RecordResolution("session", true)
				return resolutionFrom(s), nil
			}
			break
		}
	}

	metrics.RecordResolution("session", true)
	return resolutionFrom(newest), nil
}

// filterByMonth restricts sessions to one calendar month. An unparseable
// month spec, or a filter that empties the list, is an error.
func filterByMonth(sessions []openf1.Session, monthSpec string) ([]openf1.Session, error) {
	if strings.TrimSpace(monthSpec) == "" {
		return sessions, nil
	}

	month, ok := ParseMonth(monthSpec)
	if !ok {
		return nil, &BadInputError{Detail: fmt.Sprintf("unrecognized month %q", monthSpec)}
	}

	filtered := sessions[:0:0]
	for _, s := range sessions {
		if s.DateStart.Month() == month {
			filtered = append(filtered, s)
		}
	}
	if len(sessions) > 0 && len(filtered) == 0 {
		return nil, &NotFoundError{Kind: "session", Detail: fmt.Sprintf(
			"no candidate session falls in month %q", monthSpec)}
	}
	return filtered, nil
}

// latestByStart picks the candidate with the latest start timestamp. The
// stable sort makes ties deterministic in input order.
func latestByStart(sessions []openf1.Session) openf1.Session {
	sorted := make([]openf1.Session, len(sessions))
	copy(sorted, sessions)
	sortByStartDesc(sorted)
	return sorted[0]
}

func sortByStartDesc(sessions []openf1.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].DateStart.After(sessions[j].DateStart)
	})
}

func resolutionFrom(s openf1.Session) *Resolution {
	return &Resolution{
		SessionKey:  s.SessionKey,
		CountryName: s.CountryName,
		SessionName: s.SessionName,
		Location:    s.Location,
		MeetingKey:  s.MeetingKey,
		DateStart:   s.DateStart,
		Year:        s.Year,
	}
}

// SessionKeyString formats a session key for upstream query parameters.
func SessionKeyString(key int) string {
	return strconv.Itoa(key)
}
