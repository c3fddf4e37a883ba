// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package insights

import (
	"context"
	"fmt"

	"github.com/mclarke-dev/boxbox/internal/charts"
	"github.com/mclarke-dev/boxbox/internal/metrics"
)

// ChartResult is the payload of chart-producing handlers: the public image
// URL plus the labels the image itself cannot carry.
type ChartResult struct {
	Session  string   `json:"session_key"`
	Title    string   `json:"title"`
	ImageURL string   `json:"image_url"`
	Labels   []string `json:"labels"`
}

// GapToLeaderChart renders the gap-to-leader series as a line chart and
// uploads it.
func (s *Service) GapToLeaderChart(ctx context.Context, sessionKey string, req Request) (any, error) {
	data, refs, err := s.gapToLeader(ctx, sessionKey, req)
	if err != nil {
		return nil, err
	}

	series := make([]charts.Series, 0, len(data.Series))
	labels := make([]string, 0, len(refs))
	for i, gs := range data.Series {
		series = append(series, charts.LapSeries(refs[i].NameAcronym, gs.Gaps))
		labels = append(labels, refs[i].NameAcronym)
	}

	title := "Gap to leader, session " + sessionKey
	url, err := s.publishChart(ctx, sessionKey, title, series)
	if err != nil {
		return nil, err
	}
	return &ChartResult{Session: sessionKey, Title: title, ImageURL: url, Labels: labels}, nil
}

// LapTimeChart renders one driver's lap-time trend. The driver filter is
// required: a session-wide spaghetti of twenty lap-time traces is not a
// readable chart.
func (s *Service) LapTimeChart(ctx context.Context, sessionKey string, req Request) (any, error) {
	if req.Driver == "" {
		return nil, &ClientError{Detail: "driver is required for a lap time chart"}
	}
	driver, err := s.resolver.ResolveDriver(ctx, sessionKey, req.Driver)
	if err != nil {
		return nil, err
	}

	laps, err := s.api.Laps(ctx, sessionKey, driver.DriverNumber, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching laps: %w", err)
	}
	sortLapsByNumber(laps)

	values := make([]float64, 0, len(laps))
	for _, lap := range laps {
		if lap.LapDuration != nil {
			values = append(values, *lap.LapDuration)
		}
	}
	if len(values) == 0 {
		return nil, &NotFoundError{Detail: fmt.Sprintf(
			"no timed laps for %s in session %s", driver.NameAcronym, sessionKey)}
	}

	title := fmt.Sprintf("Lap times for %s, session %s", driver.NameAcronym, sessionKey)
	url, err := s.publishChart(ctx, sessionKey, title,
		[]charts.Series{charts.LapSeries(driver.NameAcronym, values)})
	if err != nil {
		return nil, err
	}
	return &ChartResult{
		Session:  sessionKey,
		Title:    title,
		ImageURL: url,
		Labels:   []string{driver.NameAcronym},
	}, nil
}

// publishChart renders and uploads, recording the outcome.
func (s *Service) publishChart(ctx context.Context, sessionKey, title string, series []charts.Series) (string, error) {
	if s.renderer == nil || s.uploader == nil {
		return "", &ClientError{Detail: "chart rendering is not configured"}
	}

	img, err := s.renderer.Render(title, series)
	if err != nil {
		return "", fmt.Errorf("rendering chart: %w", err)
	}

	url, err := s.uploader.Upload(ctx, "boxbox-"+sessionKey+".png", img)
	if err != nil {
		metrics.ChartUploads.WithLabelValues("error").Inc()
		return "", fmt.Errorf("uploading chart: %w", err)
	}
	metrics.ChartUploads.WithLabelValues("ok").Inc()
	return url, nil
}
