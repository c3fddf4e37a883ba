// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf, Timestamp: true})

	Info().Str("session_key", "9158").Msg("session resolved")

	out := buf.String()
	if !strings.Contains(out, `"session_key":"9158"`) {
		t.Errorf("expected structured field in output, got %q", out)
	}
	if !strings.Contains(out, `"message":"session resolved"`) {
		t.Errorf("expected message in output, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})

	Info().Msg("should be filtered")
	Warn().Msg("should appear")

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Error("info message emitted despite warn level")
	}
	if !strings.Contains(out, "should appear") {
		t.Error("warn message missing")
	}
}

func TestCtxEnrichment(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})

	ctx := ContextWithRequestID(context.Background(), "req-123")
	ctx = ContextWithCorrelationID(ctx, "corr-456")

	logger := Ctx(ctx)
	logger.Info().Msg("enriched")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-123"`) {
		t.Errorf("expected request_id field, got %q", out)
	}
	if !strings.Contains(out, `"correlation_id":"corr-456"`) {
		t.Errorf("expected correlation_id field, got %q", out)
	}
}

func TestCtxWithoutIDs(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})

	logger := Ctx(context.Background())
	logger.Info().Msg("bare")

	out := buf.String()
	if strings.Contains(out, "request_id") {
		t.Errorf("unexpected request_id field in %q", out)
	}
}

func TestGenerateCorrelationID(t *testing.T) {
	id := GenerateCorrelationID()
	if len(id) != 8 {
		t.Errorf("expected 8-character correlation ID, got %q", id)
	}
	if id == GenerateCorrelationID() {
		t.Error("expected unique correlation IDs")
	}
}
