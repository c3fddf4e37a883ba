// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package insights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mclarke-dev/boxbox/internal/charts"
	"github.com/mclarke-dev/boxbox/internal/openf1"
	"github.com/mclarke-dev/boxbox/internal/resolve"
)

type stubRenderer struct {
	calls int
	err   error
}

func (r *stubRenderer) Render(_ string, _ []charts.Series) ([]byte, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []byte("png"), nil
}

type stubUploader struct {
	url      string
	err      error
	lastName string
}

func (u *stubUploader) Upload(_ context.Context, filename string, _ []byte) (string, error) {
	u.lastName = filename
	if u.err != nil {
		return "", u.err
	}
	return u.url, nil
}

func chartService(api *fakeAPI, r charts.Renderer, u charts.Uploader) *Service {
	return NewService(api, resolve.NewResolver(api, time.Second), r, u)
}

func TestLapTimeChart(t *testing.T) {
	api := &fakeAPI{
		drivers: []openf1.Driver{{DriverNumber: 1, NameAcronym: "VER", LastName: "Verstappen", FullName: "Max VERSTAPPEN"}},
		laps:    []openf1.Lap{lapOf(1, 1, fptr(92)), lapOf(1, 2, fptr(91))},
	}
	renderer := &stubRenderer{}
	uploader := &stubUploader{url: "https://img.example/abc.png"}
	s := chartService(api, renderer, uploader)

	res, err := s.LapTimeChart(context.Background(), "9002", Request{Driver: "VER"})
	if err != nil {
		t.Fatalf("LapTimeChart: %v", err)
	}
	r := res.(*ChartResult)

	if r.ImageURL != "https://img.example/abc.png" {
		t.Errorf("image URL = %q", r.ImageURL)
	}
	if renderer.calls != 1 {
		t.Errorf("renderer calls = %d, want 1", renderer.calls)
	}
	if uploader.lastName == "" {
		t.Error("uploader received no filename")
	}
}

func TestLapTimeChartRequiresDriver(t *testing.T) {
	s := chartService(&fakeAPI{}, &stubRenderer{}, &stubUploader{url: "u"})

	_, err := s.LapTimeChart(context.Background(), "9002", Request{})
	var ce *ClientError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ClientError, got %v", err)
	}
}

func TestGapToLeaderChartUploadFailure(t *testing.T) {
	api := &fakeAPI{
		drivers: []openf1.Driver{{DriverNumber: 1, NameAcronym: "VER"}},
		laps:    []openf1.Lap{lapOf(1, 1, fptr(90))},
	}
	s := chartService(api, &stubRenderer{}, &stubUploader{err: errors.New("host down")})

	if _, err := s.GapToLeaderChart(context.Background(), "9002", Request{}); err == nil {
		t.Error("expected upload failure to propagate")
	}
}

func TestChartHandlersUnconfigured(t *testing.T) {
	api := &fakeAPI{
		drivers: []openf1.Driver{{DriverNumber: 1, NameAcronym: "VER"}},
		laps:    []openf1.Lap{lapOf(1, 1, fptr(90))},
	}
	s := newTestService(api)

	_, err := s.GapToLeaderChart(context.Background(), "9002", Request{})
	var ce *ClientError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ClientError without an uploader, got %v", err)
	}
}
