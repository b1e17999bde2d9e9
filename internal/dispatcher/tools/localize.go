package tools

import "time"

// localizeNaive re-reads dt's wall clock in loc when dt is in UTC, so a
// "10:00" the voice agent produced is read as 10:00 local time instead of
// 10:00 UTC. Go keeps no trace of an explicit "Z" or "+00:00" suffix, so such
// timestamps are re-read in loc as well; timestamps with a non-zero offset
// are returned unchanged.
func localizeNaive(dt time.Time, loc *time.Location) time.Time {
	if dt.Location() != time.UTC || isExplicitlyZoned(dt) {
		return dt
	}
	y, mo, d := dt.Date()
	h, mi, s := dt.Clock()
	return time.Date(y, mo, d, h, mi, s, dt.Nanosecond(), loc)
}

// isExplicitlyZoned reports whether dt's zone offset is non-zero, the only
// signal Go's time.Time carries for "this timestamp had an explicit offset"
// once parsed from RFC3339.
func isExplicitlyZoned(dt time.Time) bool {
	_, offset := dt.Zone()
	return offset != 0
}

// fixPastDate bumps start/end forward by whole years until start is no
// longer before today, correcting a voice agent that names a past year by
// mistake.
func fixPastDate(start, end time.Time, now time.Time) (time.Time, time.Time) {
	for start.Before(truncateToDay(now)) {
		start = start.AddDate(1, 0, 0)
		end = end.AddDate(1, 0, 0)
	}
	return start, end
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func resolveLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
