// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package resolve

import (
	"context"
	"strconv"

	"github.com/mclarke-dev/boxbox/internal/cache"
	"github.com/mclarke-dev/boxbox/internal/logging"
	"github.com/mclarke-dev/boxbox/internal/metrics"
)

// historicalLookback is how many seasons before the requested year the
// year-agnostic location lookup will scan.
const historicalLookback = 3

// defaultAliases is the static safety net covering current-era venues:
// city, circuit, country code, and colloquial abbreviations, each mapped to
// the upstream API's canonical country name. Keys are pre-normalized.
// Upstream event naming shifts season to season and user input is free
// text, so the live meeting list enriches this table per year; the static
// set keeps resolution working through upstream outages.
var defaultAliases = map[string]string{
	"BAHRAIN": "Bahrain",
	"SAKHIR":  "Bahrain",

	"SAUDI ARABIA": "Saudi Arabia",
	"SAUDI":        "Saudi Arabia",
	"JEDDAH":       "Saudi Arabia",
	"KSA":          "Saudi Arabia",

	"AUSTRALIA":   "Australia",
	"AUS":         "Australia",
	"MELBOURNE":   "Australia",
	"ALBERT PARK": "Australia",

	"JAPAN":  "Japan",
	"SUZUKA": "Japan",

	"CHINA":    "China",
	"SHANGHAI": "China",

	"UNITED STATES": "United States",
	"USA":           "United States",
	"US":            "United States",
	"MIAMI":         "United States",
	"AUSTIN":        "United States",
	"COTA":          "United States",
	"TEXAS":         "United States",
	"VEGAS":         "United States",
	"LAS VEGAS":     "United States",

	"ITALY":          "Italy",
	"IMOLA":          "Italy",
	"EMILIA ROMAGNA": "Italy",
	"MONZA":          "Italy",

	"MONACO":      "Monaco",
	"MONTE CARLO": "Monaco",

	"CANADA":     "Canada",
	"MONTREAL":   "Canada",
	"VILLENEUVE": "Canada",

	"SPAIN":     "Spain",
	"BARCELONA": "Spain",
	"CATALUNYA": "Spain",
	"MADRID":    "Spain",

	"AUSTRIA":       "Austria",
	"SPIELBERG":     "Austria",
	"RED BULL RING": "Austria",

	"GREAT BRITAIN": "Great Britain",
	"BRITAIN":       "Great Britain",
	"UK":            "Great Britain",
	"ENGLAND":       "Great Britain",
	"SILVERSTONE":   "Great Britain",

	"HUNGARY":     "Hungary",
	"BUDAPEST":    "Hungary",
	"HUNGARORING": "Hungary",

	"BELGIUM":           "Belgium",
	"SPA":               "Belgium",
	"SPA FRANCORCHAMPS": "Belgium",

	"NETHERLANDS": "Netherlands",
	"DUTCH":       "Netherlands",
	"ZANDVOORT":   "Netherlands",

	"AZERBAIJAN": "Azerbaijan",
	"BAKU":       "Azerbaijan",

	"SINGAPORE":  "Singapore",
	"MARINA BAY": "Singapore",

	"MEXICO":      "Mexico",
	"MEXICO CITY": "Mexico",

	"BRAZIL":     "Brazil",
	"SAO PAULO":  "Brazil",
	"INTERLAGOS": "Brazil",

	"QATAR":  "Qatar",
	"LUSAIL": "Qatar",
	"LOSAIL": "Qatar",

	"UNITED ARAB EMIRATES": "United Arab Emirates",
	"UAE":                  "United Arab Emirates",
	"ABU DHABI":            "United Arab Emirates",
	"YAS MARINA":           "United Arab Emirates",
}

// LocationMap is the many-to-one mapping from normalized venue aliases to
// the upstream API's canonical country name for one season. Aliases are
// only ever added, never pruned.
type LocationMap struct {
	aliases map[string]string
}

// newLocationMap returns a map seeded with the static default aliases.
func newLocationMap() *LocationMap {
	m := &LocationMap{aliases: make(map[string]string, len(defaultAliases)*2)}
	for alias, country := range defaultAliases {
		m.aliases[alias] = country
	}
	return m
}

// add registers an alias under its normalized form. Empty normalized keys
// are dropped.
func (m *LocationMap) add(alias, country string) {
	key := Normalize(alias)
	if key == "" || country == "" {
		return
	}
	m.aliases[key] = country
}

// Lookup resolves a fuzzy venue name. On a direct miss it retries with the
// input's first whitespace-delimited token ("Silverstone GP" -> "Silverstone").
func (m *LocationMap) Lookup(fuzzy string) (string, bool) {
	key := Normalize(fuzzy)
	if key == "" {
		return "", false
	}
	if country, ok := m.aliases[key]; ok {
		return country, true
	}
	if country, ok := m.aliases[firstToken(key)]; ok {
		return country, true
	}
	return "", false
}

// Len reports the number of registered aliases.
func (m *LocationMap) Len() int { return len(m.aliases) }

// locationMap returns the alias map for a year, building and caching it on
// first use. The live enrichment fetch is bounded by the resolver's
// metadata timeout. On failure the static defaults stand alone; degraded
// resolution is not an error.
//
// Concurrent requests for an unbuilt year may each perform the meetings
// fetch; the resulting maps are equivalent and the last write wins.
func (r *Resolver) locationMap(ctx context.Context, year int) *LocationMap {
	key := strconv.Itoa(year)
	if cached, ok := r.maps.Get(key); ok {
		metrics.CacheHits.WithLabelValues("location_map").Inc()
		return cached.(*LocationMap)
	}
	metrics.CacheMisses.WithLabelValues("location_map").Inc()

	m := newLocationMap()

	metaCtx, cancel := context.WithTimeout(ctx, r.metaTimeout)
	defer cancel()

	meetings, err := r.api.Meetings(metaCtx, year)
	if err != nil {
		logger := logging.Ctx(ctx)
		logger.Warn().Err(err).Int("year", year).
			Msg("meeting enrichment failed, using static aliases only")
	} else {
		for _, meeting := range meetings {
			m.add(meeting.CountryName, meeting.CountryName)
			m.add(meeting.Location, meeting.CountryName)
			m.add(meeting.MeetingName, meeting.CountryName)
			m.add(firstToken(meeting.MeetingName), meeting.CountryName)
		}
	}

	r.maps.Set(key, m)
	return m
}

// ResolveLocation resolves a fuzzy venue name against one season's map.
func (r *Resolver) ResolveLocation(ctx context.Context, year int, fuzzy string) (string, bool) {
	country, ok := r.locationMap(ctx, year).Lookup(fuzzy)
	metrics.RecordResolution("location", ok)
	return country, ok
}

// ResolveLocationAny scans the given year and the preceding three seasons'
// maps in order, returning the first match. Tolerates year-scoping mistakes
// by callers when no year-specific resolution is required.
func (r *Resolver) ResolveLocationAny(ctx context.Context, year int, fuzzy string) (string, bool) {
	for y := year; y >= year-historicalLookback; y-- {
		if country, ok := r.locationMap(ctx, y).Lookup(fuzzy); ok {
			metrics.RecordResolution("location", true)
			return country, true
		}
	}
	metrics.RecordResolution("location", false)
	return "", false
}

// mapsCache builds the process-lifetime store for per-year alias maps.
func mapsCache() *cache.Cache {
	return cache.New(0)
}
