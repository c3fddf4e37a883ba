// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package resolve

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Monaco", "MONACO"},
		{"  monaco  ", "MONACO"},
		{"SAO_PAULO", "SAO PAULO"},
		{"sao-paulo", "SAO PAULO"},
		{"Emilia-Romagna", "EMILIA ROMAGNA"},
		{"Abu Dhabi!", "ABU DHABI"},
		{"C.O.T.A.", "COTA"},
		{"2024 Vegas", "VEGAS"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Monaco", "SAO_PAULO", "great-britain", "Abu Dhabi", "mixed_Case-Input 42"}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeEquivalentSpellings(t *testing.T) {
	groups := [][]string{
		{"sao paulo", "SAO_PAULO", "Sao-Paulo", "  sao  paulo "},
		{"great britain", "Great_Britain", "GREAT-BRITAIN"},
	}
	for _, group := range groups {
		want := Normalize(group[0])
		for _, in := range group[1:] {
			if got := Normalize(in); got != want {
				t.Errorf("Normalize(%q) = %q, want %q (same as %q)", in, got, want, group[0])
			}
		}
	}
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in   string
		want time.Month
		ok   bool
	}{
		{"march", time.March, true},
		{"MARCH", time.March, true},
		{"mar", time.March, true},
		{"3", time.March, true},
		{"03", time.March, true},
		{"12", time.December, true},
		{"september", time.September, true},
		{"sep", time.September, true},
		{"13", 0, false},
		{"0", 0, false},
		{"marchest", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseMonth(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseMonth(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseMonthEquivalence(t *testing.T) {
	for _, forms := range [][]string{
		{"May", "may", "5", "05"},
		{"November", "nov", "11"},
	} {
		want, ok := ParseMonth(forms[0])
		if !ok {
			t.Fatalf("ParseMonth(%q) failed", forms[0])
		}
		for _, form := range forms[1:] {
			got, ok := ParseMonth(form)
			if !ok || got != want {
				t.Errorf("ParseMonth(%q) = %v, %v; want %v", form, got, ok, want)
			}
		}
	}
}
