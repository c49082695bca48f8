package model

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2026, 7, d, 0, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"disjoint ranges", day(1), day(3), day(5), day(8), false},
		{"identical ranges", day(1), day(3), day(1), day(3), true},
		{"contained range", day(1), day(10), day(3), day(5), true},
		{"partial overlap", day(1), day(5), day(4), day(8), true},
		{"shared boundary day", day(1), day(3), day(3), day(6), true},
		{"single day versus itself", day(2), day(2), day(2), day(2), true},
		{"adjacent but not touching", day(1), day(3), day(4), day(6), false},
		{"reversed argument order", day(5), day(8), day(1), day(3), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.s1, tc.e1, tc.s2, tc.e2); got != tc.want {
				t.Errorf("Overlaps(%v, %v, %v, %v) = %v, want %v",
					tc.s1.Format("01-02"), tc.e1.Format("01-02"),
					tc.s2.Format("01-02"), tc.e2.Format("01-02"),
					got, tc.want)
			}
		})
	}
}

func TestOverlapsIsSymmetric(t *testing.T) {
	if Overlaps(day(1), day(5), day(4), day(8)) != Overlaps(day(4), day(8), day(1), day(5)) {
		t.Error("overlap must not depend on argument order")
	}
}
