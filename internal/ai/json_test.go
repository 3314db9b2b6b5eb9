package ai

import (
	"math"
	"testing"
)

func TestDecodeObjectStripsFences(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
	}{
		{name: "bare", raw: `{"is_investor": true}`},
		{name: "fenced", raw: "```json\n{\"is_investor\": true}\n```"},
		{name: "fenced without language", raw: "```\n{\"is_investor\": true}\n```"},
		{name: "surrounding prose trimmed", raw: "  {\"is_investor\": true}  "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := DecodeObject(tc.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !CoerceBool(data["is_investor"]) {
				t.Fatalf("expected is_investor to decode as true")
			}
		})
	}
}

func TestDecodeObjectRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := DecodeObject("the model apologizes instead of answering"); err == nil {
		t.Fatalf("expected an error for non-JSON input")
	}
}

func TestCoerceBool(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input    any
		expected bool
	}{
		{true, true},
		{"true", true},
		{"Yes", true},
		{"no", false},
		{float64(1), true},
		{float64(0), false},
		{nil, false},
	}

	for _, tc := range cases {
		if got := CoerceBool(tc.input); got != tc.expected {
			t.Fatalf("CoerceBool(%v) = %v, expected %v", tc.input, got, tc.expected)
		}
	}
}

func TestCoerceFloatAbsentIsNaN(t *testing.T) {
	t.Parallel()

	if !math.IsNaN(CoerceFloat(nil)) {
		t.Fatalf("expected NaN for nil")
	}
	if !math.IsNaN(CoerceFloat("not a number")) {
		t.Fatalf("expected NaN for unparseable string")
	}
	if got := CoerceFloat("0.75"); got != 0.75 {
		t.Fatalf("expected 0.75, got %v", got)
	}
}

func TestCoerceStringSlice(t *testing.T) {
	t.Parallel()

	got := CoerceStringSlice([]any{"fintech", "  healthtech ", "", float64(3)})
	expected := []string{"fintech", "healthtech", "3"}

	if len(got) != len(expected) {
		t.Fatalf("expected %d items, got %d: %v", len(expected), len(got), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("item %d: expected %q, got %q", i, expected[i], got[i])
		}
	}

	if got := CoerceStringSlice("solo"); len(got) != 1 || got[0] != "solo" {
		t.Fatalf("expected a scalar to wrap into a single-item slice, got %v", got)
	}
}
