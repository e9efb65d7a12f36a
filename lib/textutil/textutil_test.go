package textutil

import (
	"testing"
)

func TestNormalizeLabel(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "Date & Time", expected: "date&time"},
		{input: "  Calories, cals ", expected: "calories,cals"},
		{input: "Net\tCarbs", expected: "netcarbs"},
		{input: "", expected: ""},
	}

	for _, test := range testCases {
		got := NormalizeLabel(test.input)
		if got != test.expected {
			t.Fatalf("NormalizeLabel(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestCleanCell(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		// non-breaking spaces from the report renderer
		{input: "Calories, cals", expected: "Calories, cals"},
		{input: "  1,234.5   mg \n", expected: "1,234.5 mg"},
		{input: "  ", expected: ""},
	}

	for _, test := range testCases {
		got := CleanCell(test.input)
		if got != test.expected {
			t.Fatalf("CleanCell(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestExtractNumber(t *testing.T) {
	testCases := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{input: "200", expected: 200, ok: true},
		{input: "1,234.5 mg", expected: 1234.5, ok: true},
		{input: "12.5 g", expected: 12.5, ok: true},
		{input: "< 1", expected: 1, ok: true},
		{input: "N/A", ok: false},
		{input: "trace", ok: false},
		{input: "", ok: false},
	}

	for _, test := range testCases {
		got, ok := ExtractNumber(test.input)
		if ok != test.ok {
			t.Fatalf("ExtractNumber(%q) ok = %v, expected %v", test.input, ok, test.ok)
		}
		if ok && got != test.expected {
			t.Fatalf("ExtractNumber(%q) = %v, expected %v", test.input, got, test.expected)
		}
	}
}
