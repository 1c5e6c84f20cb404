package search

import "testing"

func TestParseDuration(t *testing.T) {
	cases := []struct {
		token string
		want  int
	}{
		{"PT", 0},
		{"PT1S", 1},
		{"PT45S", 45},
		{"PT3M", 180},
		{"PT1M30S", 90},
		{"PT2H", 7200},
		{"PT1H2M3S", 3723},
		{"PT1H30S", 3630},
		{"PT10H", 36000},
		{"PT0S", 0},
	}

	for _, tc := range cases {
		got, err := ParseDuration(tc.token)
		if err != nil {
			t.Errorf("ParseDuration(%q) returned error: %v", tc.token, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDuration(%q) = %d, want %d", tc.token, got, tc.want)
		}
	}
}

func TestParseDurationMalformed(t *testing.T) {
	for _, token := range []string{"", "1M30S", "PTXS", "PT1", "PTM", "P1DT1S"} {
		if _, err := ParseDuration(token); err == nil {
			t.Errorf("ParseDuration(%q) should have failed", token)
		}
	}
}
