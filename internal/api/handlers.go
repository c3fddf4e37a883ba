// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/mclarke-dev/boxbox/internal/cache"
	"github.com/mclarke-dev/boxbox/internal/config"
	"github.com/mclarke-dev/boxbox/internal/insights"
	"github.com/mclarke-dev/boxbox/internal/logging"
	"github.com/mclarke-dev/boxbox/internal/openf1"
	"github.com/mclarke-dev/boxbox/internal/resolve"
)

// maxInsightBody caps the insights request body.
const maxInsightBody = 64 * 1024

// Handler holds the dependencies of all HTTP handlers.
type Handler struct {
	api       openf1.API
	resolver  *resolve.Resolver
	registry  *insights.Registry
	validate  *validator.Validate
	apiCfg    config.APIConfig
	results   *cache.Cache
	startTime time.Time
}

// NewHandler creates the handler set. A positive apiCfg.CacheTTL enables
// the insight-result cache; zero disables it.
func NewHandler(api openf1.API, resolver *resolve.Resolver, registry *insights.Registry, apiCfg config.APIConfig) *Handler {
	if apiCfg.DefaultPageSize <= 0 {
		apiCfg.DefaultPageSize = 20
	}
	if apiCfg.MaxPageSize <= 0 {
		apiCfg.MaxPageSize = 100
	}
	var results *cache.Cache
	if apiCfg.CacheTTL > 0 {
		results = cache.New(apiCfg.CacheTTL)
	}
	return &Handler{
		api:       api,
		resolver:  resolver,
		registry:  registry,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		apiCfg:    apiCfg,
		results:   results,
		startTime: time.Now(),
	}
}

// ResolveSession handles GET /api/v1/resolve/session.
func (h *Handler) ResolveSession(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q := resolve.Query{
		Location:    r.URL.Query().Get("location"),
		SessionType: r.URL.Query().Get("session_type"),
		Month:       r.URL.Query().Get("month"),
	}
	year, err := yearParam(r, time.Now().Year())
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	q.Year = year

	res, err := h.resolver.ResolveSession(r.Context(), q)
	if err != nil {
		h.writeResolutionError(rw, err)
		return
	}
	rw.Success(res)
}

// insightRequest is the POST /api/v1/insights body: resolution parameters
// plus the handler-specific ones.
type insightRequest struct {
	InsightType string `json:"insight_type" validate:"required,max=64"`

	// SessionKey short-circuits resolution; "latest" is accepted.
	SessionKey  string `json:"session_key" validate:"omitempty,max=16"`
	Year        int    `json:"year" validate:"omitempty,gte=2018,lte=2100"`
	Location    string `json:"location" validate:"omitempty,max=64"`
	SessionType string `json:"session_type" validate:"omitempty,max=32"`
	Month       string `json:"month" validate:"omitempty,max=16"`

	insights.Request
}

// Insights handles POST /api/v1/insights: resolve the insight type and the
// session, then dispatch.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req insightRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInsightBody))
	if err := decoder.Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body: " + err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		rw.ValidationError("request validation failed", validationDetails(err))
		return
	}

	name, handler, ok := h.registry.Resolve(req.InsightType)
	if !ok {
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeBadRequest,
			"unknown insight type: "+req.InsightType,
			map[string]any{"available": h.registry.Names()})
		return
	}

	sessionKey, err := h.sessionKeyFor(r, &req)
	if err != nil {
		h.writeResolutionError(rw, err)
		return
	}

	// Equivalent requests share one entry: the key covers the resolved
	// session, not the fuzzy location phrasing. "latest" may point at a
	// live session, so it is never cached.
	var cacheKey string
	if h.results != nil && sessionKey != openf1.LatestSessionKey {
		cacheKey = cache.GenerateKey(name, struct {
			SessionKey string
			Request    insights.Request
		}{sessionKey, req.Request})
		if cached, ok := h.results.Get(cacheKey); ok {
			rw.Success(cached)
			return
		}
	}

	result, err := handler(r.Context(), sessionKey, req.Request)
	if err != nil {
		h.writeResolutionError(rw, err)
		return
	}
	if cacheKey != "" {
		h.results.Set(cacheKey, result)
	}
	rw.Success(result)
}

// Drivers handles GET /api/v1/drivers: a bounded roster page with an
// optional name filter.
func (h *Handler) Drivers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	sessionKey := r.URL.Query().Get("session_key")
	if sessionKey == "" {
		year, err := yearParam(r, time.Now().Year())
		if err != nil {
			rw.BadRequest(err.Error())
			return
		}
		res, err := h.resolver.ResolveSession(r.Context(), resolve.Query{
			Year:        year,
			Location:    r.URL.Query().Get("location"),
			SessionType: r.URL.Query().Get("session_type"),
			Month:       r.URL.Query().Get("month"),
		})
		if err != nil {
			h.writeResolutionError(rw, err)
			return
		}
		sessionKey = resolve.SessionKeyString(res.SessionKey)
	}

	drivers, err := h.api.Drivers(r.Context(), sessionKey)
	if err != nil {
		rw.UpstreamError(err)
		return
	}

	if search := resolve.Normalize(r.URL.Query().Get("search")); search != "" {
		var filtered []openf1.Driver
		for _, d := range drivers {
			haystack := resolve.Normalize(d.FullName + " " + d.NameAcronym + " " + d.TeamName)
			if strings.Contains(haystack, search) {
				filtered = append(filtered, d)
			}
		}
		drivers = filtered
	}

	limit := limitParam(r, h.apiCfg.DefaultPageSize, h.apiCfg.MaxPageSize)
	hasMore := len(drivers) > limit
	if hasMore {
		drivers = drivers[:limit]
	}
	rw.SuccessWithPagination(drivers, &PaginationMeta{
		Count:   len(drivers),
		Limit:   limit,
		HasMore: hasMore,
	})
}

// sessionKeyFor resolves the session an insight request targets.
func (h *Handler) sessionKeyFor(r *http.Request, req *insightRequest) (string, error) {
	if req.SessionKey != "" {
		return req.SessionKey, nil
	}
	year := req.Year
	if year == 0 {
		year = time.Now().Year()
	}
	res, err := h.resolver.ResolveSession(r.Context(), resolve.Query{
		Year:        year,
		Location:    req.Location,
		SessionType: req.SessionType,
		Month:       req.Month,
	})
	if err != nil {
		return "", err
	}
	return resolve.SessionKeyString(res.SessionKey), nil
}

// writeResolutionError maps the error taxonomy onto HTTP statuses:
// resolution and input failures are client errors, empty-mandatory sets
// are 404s, everything else is an upstream failure.
func (h *Handler) writeResolutionError(rw *ResponseWriter, err error) {
	var badInput *resolve.BadInputError
	var clientErr *insights.ClientError
	var notFound *resolve.NotFoundError
	var insightNotFound *insights.NotFoundError
	var status *openf1.StatusError

	switch {
	case errors.As(err, &badInput), errors.As(err, &clientErr):
		rw.BadRequest(err.Error())
	case errors.As(err, &notFound), errors.As(err, &insightNotFound):
		rw.NotFound(err.Error())
	case errors.As(err, &status):
		rw.UpstreamError(err)
	default:
		logger := logging.Ctx(rw.r.Context())
		logger.Error().Err(err).Msg("Request failed")
		rw.UpstreamError(err)
	}
}

// validationDetails flattens validator errors into field/tag pairs.
func validationDetails(err error) []map[string]string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []map[string]string{{"error": err.Error()}}
	}
	details := make([]map[string]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, map[string]string{
			"field": fe.Field(),
			"tag":   fe.Tag(),
			"param": fe.Param(),
		})
	}
	return details
}

// yearParam reads the year query parameter, defaulting when absent.
func yearParam(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return def, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1950 || year > 2100 {
		return 0, errors.New("invalid year: " + raw)
	}
	return year, nil
}

// limitParam reads the limit query parameter, clamped to max.
func limitParam(r *http.Request, def, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
