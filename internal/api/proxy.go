// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package api

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/mclarke-dev/boxbox/internal/openf1"
	"github.com/mclarke-dev/boxbox/internal/resolve"
)

// paramAliases maps accepted parameter spellings to the upstream's names.
var paramAliases = map[string]string{
	"driver_id": "driver_number",
	"driver":    "driver_number",
	"car":       "driver_number",
	"session":   "session_key",
	"meeting":   "meeting_key",
	"country":   "country_name",
	"gp":        "country_name",
	"lap":       "lap_number",
}

// postFilterParams are consumed by this layer, never forwarded upstream.
var postFilterParams = map[string]bool{
	"month": true,
	"sort":  true,
	"limit": true,
}

// Proxy handles GET /api/v1/proxy/{resource}: a passthrough to the named
// upstream resource with parameter aliasing, plus generic post-filters
// (month, recency sort, result cap) for list-shaped responses.
func (h *Handler) Proxy(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	resource := chi.URLParam(r, "resource")
	if !openf1.Resources[resource] {
		rw.BadRequest("unknown upstream resource: " + resource)
		return
	}
	if monthSpec := r.URL.Query().Get("month"); monthSpec != "" {
		if _, ok := resolve.ParseMonth(monthSpec); !ok {
			rw.BadRequest("invalid month: " + monthSpec)
			return
		}
	}

	upstream := url.Values{}
	for key, values := range r.URL.Query() {
		if postFilterParams[key] {
			continue
		}
		name := key
		if alias, ok := paramAliases[key]; ok {
			name = alias
		}
		for _, v := range values {
			upstream.Add(name, v)
		}
	}

	raw, err := h.api.Raw(r.Context(), resource, upstream)
	if err != nil {
		h.writeResolutionError(rw, err)
		return
	}

	filtered, count, filteredOut := applyPostFilters(raw, r)
	if !filteredOut {
		rw.Success(json.RawMessage(raw))
		return
	}
	rw.SuccessWithPagination(filtered, &PaginationMeta{Count: count})
}

// applyPostFilters decodes a list-shaped payload and applies the generic
// month / sort / limit filters. Non-list payloads pass through untouched.
func applyPostFilters(raw json.RawMessage, r *http.Request) (any, int, bool) {
	monthSpec := r.URL.Query().Get("month")
	sortSpec := r.URL.Query().Get("sort")
	limitSpec := r.URL.Query().Get("limit")
	if monthSpec == "" && sortSpec == "" && limitSpec == "" {
		return nil, 0, false
	}

	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, 0, false
	}

	if monthSpec != "" {
		// Unparseable months were rejected before the upstream call.
		month, _ := resolve.ParseMonth(monthSpec)
		var kept []map[string]any
		for _, rec := range records {
			if t, ok := recordDate(rec); ok && t.Month() == month {
				kept = append(kept, rec)
			}
		}
		records = kept
	}

	if sortSpec == "recent" || sortSpec == "date" {
		sort.SliceStable(records, func(i, j int) bool {
			ti, oki := recordDate(records[i])
			tj, okj := recordDate(records[j])
			if oki != okj {
				return oki
			}
			return ti.After(tj)
		})
	}

	if limitSpec != "" {
		if limit, err := strconv.Atoi(limitSpec); err == nil && limit > 0 && limit < len(records) {
			records = records[:limit]
		}
	}

	if records == nil {
		records = []map[string]any{}
	}
	return records, len(records), true
}

// recordDate extracts the timestamp a list record sorts by: "date" for
// sample-shaped resources, "date_start" for sessions and meetings.
func recordDate(rec map[string]any) (time.Time, bool) {
	for _, field := range []string{"date", "date_start"} {
		raw, ok := rec[field].(string)
		if !ok {
			continue
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, true
		}
		if t, err := time.Parse("2006-01-02T15:04:05.999999", raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
