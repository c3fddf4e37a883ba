// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package insights

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// defaultLimit caps list-shaped insight results when the request does not
// set one.
const defaultLimit = 20

// LeaderboardEntry is one classified driver.
type LeaderboardEntry struct {
	Position    int       `json:"position"`
	Driver      DriverRef `json:"driver"`
	Laps        int       `json:"laps"`
	GapToLeader any       `json:"gap_to_leader,omitempty"`
	Status      string    `json:"status,omitempty"`
}

// LeaderboardResult is the classification payload.
type LeaderboardResult struct {
	Session string             `json:"session_key"`
	Entries []LeaderboardEntry `json:"entries"`
}

// Leaderboard returns the session classification enriched with roster
// names, classified drivers first, then DNF/DNS/DSQ entries.
func (s *Service) Leaderboard(ctx context.Context, sessionKey string, req Request) (any, error) {
	results, err := s.api.SessionResult(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("fetching session result: %w", err)
	}
	if len(results) == 0 {
		return nil, &NotFoundError{Detail: "no classification available for session " + sessionKey}
	}

	roster, err := s.rosterIndex(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for _, r := range results {
		entry := LeaderboardEntry{
			Driver:      rosterRef(roster, r.DriverNumber),
			Laps:        r.NumberOfLaps,
			GapToLeader: r.GapToLeader,
		}
		if r.Position != nil {
			entry.Position = *r.Position
		}
		switch {
		case r.DSQ:
			entry.Status = "DSQ"
		case r.DNS:
			entry.Status = "DNS"
		case r.DNF:
			entry.Status = "DNF"
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		// Unclassified entries sink to the bottom.
		pi, pj := entries[i].Position, entries[j].Position
		if (pi == 0) != (pj == 0) {
			return pj == 0
		}
		return pi < pj
	})

	limit := req.Limit
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}
	return &LeaderboardResult{Session: sessionKey, Entries: entries[:limit]}, nil
}

// RadioMessage is one pit-to-car exchange.
type RadioMessage struct {
	Driver       DriverRef `json:"driver"`
	RecordingURL string    `json:"recording_url"`
	Date         time.Time `json:"date"`
}

// TeamRadioResult is the team-radio payload.
type TeamRadioResult struct {
	Session  string         `json:"session_key"`
	Driver   *DriverRef     `json:"driver,omitempty"`
	Count    int            `json:"count"`
	Messages []RadioMessage `json:"messages"`
}

// TeamRadioList returns the session's radio exchanges, optionally scoped
// to one resolved driver, most recent first.
func (s *Service) TeamRadioList(ctx context.Context, sessionKey string, req Request) (any, error) {
	driverNumber := 0
	result := &TeamRadioResult{Session: sessionKey}
	if req.Driver != "" {
		driver, err := s.resolver.ResolveDriver(ctx, sessionKey, req.Driver)
		if err != nil {
			return nil, err
		}
		driverNumber = driver.DriverNumber
		result.Driver = driverRef(driver)
	}

	radio, err := s.api.TeamRadio(ctx, sessionKey, driverNumber)
	if err != nil {
		return nil, fmt.Errorf("fetching team radio: %w", err)
	}
	if len(radio) == 0 {
		return nil, &NotFoundError{Detail: "no team radio recorded for session " + sessionKey}
	}

	roster, err := s.rosterIndex(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	sort.Slice(radio, func(i, j int) bool {
		return radio[i].Date.After(radio[j].Date)
	})

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > len(radio) {
		limit = len(radio)
	}

	messages := make([]RadioMessage, 0, limit)
	for _, r := range radio[:limit] {
		messages = append(messages, RadioMessage{
			Driver:       rosterRef(roster, r.DriverNumber),
			RecordingURL: r.RecordingURL,
			Date:         r.Date,
		})
	}
	result.Messages = messages
	result.Count = len(messages)
	return result, nil
}
