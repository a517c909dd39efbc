package model

import "testing"

func TestSuggestTokensPerDay(t *testing.T) {
	cases := []struct {
		value    float64
		category string
		want     int
	}{
		{1000, CategoryElectronics, 50},
		{1000, CategoryTools, 30},
		{1000, CategoryBooks, 10},
		// Floor and cap of the clamp.
		{5, CategoryBooks, 1},
		{100000, CategoryEventGear, 500},
		// Unknown categories fall back to the default rate.
		{1000, "Unknown", 30},
	}
	for _, tc := range cases {
		if got := SuggestTokensPerDay(tc.value, tc.category); got != tc.want {
			t.Errorf("SuggestTokensPerDay(%v, %s) = %d, want %d", tc.value, tc.category, got, tc.want)
		}
	}
}
