package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		name string
		s    string
		def  int
		want int
	}{
		{"empty falls back", "", 25, 25},
		{"valid", "100", 0, 100},
		{"negative passes through", "-1", 10, -1},
		{"leading zeros", "007", 3, 7},
		{"garbage falls back", "limit", 50, 50},
		{"no trimming", " 8", 4, 4},
		{"overflow falls back", "99999999999999999999", -1, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AtoiDefault(tc.s, tc.def); got != tc.want {
				t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
			}
		})
	}
}
