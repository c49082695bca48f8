package model

import "time"

// Overlaps reports whether two inclusive date ranges share at least one day.
// Boundary dates count: a rental ending on a day conflicts with one starting
// that same day (same-day handover is a conflict).
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return !start1.After(end2) && !start2.After(end1)
}
