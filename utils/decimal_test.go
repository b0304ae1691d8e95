package utils

import (
	"encoding/json"
	"testing"
)

func TestParseDecimal_AcceptsFormattedStrings(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"20000", "20000"},
		{"20,000", "20000"},
		{"MMK 20,000", "20000"},
		{"MMK -20,000", "-20000"},
		{"  ks 1,234.50  ", "1234.5"},
	}
	for _, tc := range cases {
		d, err := ParseDecimal(tc.in)
		if err != nil {
			t.Fatalf("ParseDecimal(%q) error: %v", tc.in, err)
		}
		if d.String() != tc.expected {
			t.Fatalf("ParseDecimal(%q) expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}
}

func TestParseDecimal_RejectsEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "MMK", "abc"} {
		if _, err := ParseDecimal(in); err == nil {
			t.Fatalf("ParseDecimal(%q) expected error", in)
		}
	}
}

func TestAmount_UnmarshalJSON(t *testing.T) {
	type payload struct {
		PackageCost Amount `json:"package_cost"`
	}
	cases := []struct {
		in       string
		expected string
	}{
		{`{"package_cost":"MMK 20,000"}`, "20000"},
		{`{"package_cost":"1,234.50"}`, "1234.5"},
		{`{"package_cost":"60000.01"}`, "60000.01"},
		{`{"package_cost":20000}`, "20000"},
		{`{"package_cost":20000.5}`, "20000.5"},
	}
	for _, tc := range cases {
		var body payload
		if err := json.Unmarshal([]byte(tc.in), &body); err != nil {
			t.Fatalf("unmarshal %s error: %v", tc.in, err)
		}
		if body.PackageCost.String() != tc.expected {
			t.Fatalf("unmarshal %s expected %s, got %s", tc.in, tc.expected, body.PackageCost.String())
		}
	}

	var body payload
	if err := json.Unmarshal([]byte(`{"package_cost":"MMK"}`), &body); err == nil {
		t.Fatal("expected error for a string with no digits")
	}
}
