package decide

import (
	"math"
	"testing"
)

func TestParseUSDBillions(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$600B", 600, true},
		{"600 billion", 600, true},
		{"market size of $1.3 trillion by 2030", 1300, true},
		{"$500M", 0.5, true},
		{"2.5bn TAM", 2.5, true},
		{"1,200 billion won", 1200, true},
		{"no figures here", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseUSDBillions(tc.in)
		if ok != tc.ok || math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("ParseUSDBillions(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseUSDMillions(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$25M ARR", 25, true},
		{"2.5 billion revenue", 2500, true},
		{"roughly 40 million annually", 40, true},
		{"subscription", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseUSDMillions(tc.in)
		if ok != tc.ok || math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("ParseUSDMillions(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParsePercent(t *testing.T) {
	if v, ok := ParsePercent("17.3% CAGR through 2030"); !ok || v != 17.3 {
		t.Fatalf("ParsePercent = (%v, %v)", v, ok)
	}
	if _, ok := ParsePercent("high growth"); ok {
		t.Fatal("expected no match")
	}
}

func TestParseDeltaPct(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"+12% over baseline", 12, true},
		{"-4% behind the leader", -4, true},
		{"15% faster inference", 15, true},
		{"scores 92% on the benchmark", 0, false}, // absolute, not a delta
		{"no numbers", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseDeltaPct(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseDeltaPct(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
