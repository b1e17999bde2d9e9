package calendar

import (
	"context"
	"crypto/sha256"
	"time"
)

// lunchStartHour and lunchEndHour bound the fixed daily busy block every mock day carries.
const (
	lunchStartHour = 12
	lunchEndHour   = 13
)

// extraBlockPalette is the set of candidate start-of-day minute offsets the
// mock picks one extra busy block from, per day, so that different days look
// different without needing any external calendar state: 08:00, 09:30,
// 10:00, 14:00, 15:30, 16:00.
var extraBlockPalette = []int{8 * 60, 9*60 + 30, 10 * 60, 14 * 60, 15*60 + 30, 16 * 60}

// MockEngine is a deterministic, dependency-free calendar used for demos and
// tests. Every calendar day carries a fixed lunch block plus one extra
// 1-hour busy block whose position is derived from a hash of the date, so
// repeated queries against the same day are stable.
type MockEngine struct{}

// NewMockEngine returns a ready-to-use MockEngine.
func NewMockEngine() *MockEngine { return &MockEngine{} }

var _ Engine = (*MockEngine)(nil)

// dateHash derives a stable per-day seed from the calendar date: the whole
// SHA-256 digest of the ISO date, read as one big-endian integer, reduced
// modulo len(extraBlockPalette). Time-of-day and location are ignored so the
// same wall-clock day always hashes the same.
func dateHash(day time.Time) uint64 {
	key := day.Format("2006-01-02")
	sum := sha256.Sum256([]byte(key))
	n := uint64(len(extraBlockPalette))
	var r uint64
	for _, b := range sum {
		r = (r*256 + uint64(b)) % n
	}
	return r
}

// busyBlocksFor returns the fixed lunch block plus one hash-selected extra
// block for the calendar day containing t, expressed in t's location.
func busyBlocksFor(t time.Time) []Window {
	loc := t.Location()
	y, m, d := t.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)

	lunch := Window{
		Start: dayStart.Add(lunchStartHour * time.Hour),
		End:   dayStart.Add(lunchEndHour * time.Hour),
	}

	seed := dateHash(dayStart)
	extraMinutes := extraBlockPalette[int(seed%uint64(len(extraBlockPalette)))]
	extraStart := dayStart.Add(time.Duration(extraMinutes) * time.Minute)
	extra := Window{
		Start: extraStart,
		End:   extraStart.Add(time.Hour),
	}

	return []Window{lunch, extra}
}

// FreeWindows implements Engine.
func (m *MockEngine) FreeWindows(_ context.Context, start, end time.Time, minDuration time.Duration) ([]Window, error) {
	var all []Window
	for day := dayStart(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		all = append(all, busyBlocksFor(day)...)
	}
	return computeFreeWindows(start, end, all, minDuration), nil
}

// IsFree implements Engine.
func (m *MockEngine) IsFree(_ context.Context, start, end time.Time) (bool, error) {
	for day := dayStart(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		for _, b := range busyBlocksFor(day) {
			if intervalsOverlap(start, end, b.Start, b.End) {
				return false, nil
			}
		}
	}
	return true, nil
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
