package importer

import "testing"

func TestShouldFailFast(t *testing.T) {
	tests := []struct {
		name      string
		inspected int
		invalid   int
		threshold float64
		sample    int
		eof       bool
		want      bool
	}{
		{"nothing inspected", 0, 0, 10, 100, false, false},
		{"nothing inspected at eof", 0, 0, 10, 100, true, false},
		{"below sample not evaluated", 50, 50, 10, 100, false, false},
		{"below sample evaluated at eof", 50, 10, 10, 100, true, true},
		{"sample full under threshold", 100, 9, 10, 100, false, false},
		{"sample full at threshold", 100, 10, 10, 100, false, true},
		{"sample full over threshold", 100, 25, 10, 100, false, true},
		{"past sample under threshold", 500, 40, 10, 100, false, false},
		{"eof clean file", 1000, 0, 10, 100, true, false},
		{"eof exactly at threshold", 1000, 100, 10, 100, true, true},
		{"single bad row at eof", 1, 1, 10, 100, true, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ShouldFailFast(tc.inspected, tc.invalid, tc.threshold, tc.sample, tc.eof)
			if got != tc.want {
				t.Errorf("ShouldFailFast(%d, %d, %v, %d, %v) = %v, want %v",
					tc.inspected, tc.invalid, tc.threshold, tc.sample, tc.eof, got, tc.want)
			}
		})
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		processed, failed, total int
		want                     int
	}{
		{0, 0, 0, 0},
		{10, 0, 0, 0},
		{50, 0, 100, 50},
		{40, 10, 100, 50},
		{100, 0, 100, 100},
		{150, 0, 100, 100}, // clamped
		{1, 0, 3, 33},
		{2, 0, 3, 67},
	}
	for _, tc := range tests {
		if got := ProgressPercent(tc.processed, tc.failed, tc.total); got != tc.want {
			t.Errorf("ProgressPercent(%d, %d, %d) = %d, want %d",
				tc.processed, tc.failed, tc.total, got, tc.want)
		}
	}
}
