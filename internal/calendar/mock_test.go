package calendar

import (
	"context"
	"testing"
	"time"
)

func TestMockEngine_IsFree_LunchBlocked(t *testing.T) {
	t.Parallel()

	loc := time.UTC
	day := time.Date(2026, 8, 3, 0, 0, 0, 0, loc)
	m := NewMockEngine()

	free, err := m.IsFree(context.Background(), day.Add(12*time.Hour+15*time.Minute), day.Add(12*time.Hour+45*time.Minute))
	if err != nil {
		t.Fatalf("IsFree: %v", err)
	}
	if free {
		t.Fatal("expected lunch window to be busy")
	}
}

func TestMockEngine_FreeWindows_Deterministic(t *testing.T) {
	t.Parallel()

	loc := time.UTC
	day := time.Date(2026, 8, 3, 0, 0, 0, 0, loc)
	m := NewMockEngine()

	a, err := m.FreeWindows(context.Background(), day, day.Add(24*time.Hour), 30*time.Minute)
	if err != nil {
		t.Fatalf("FreeWindows: %v", err)
	}
	b, err := m.FreeWindows(context.Background(), day, day.Add(24*time.Hour), 30*time.Minute)
	if err != nil {
		t.Fatalf("FreeWindows: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("non-deterministic window count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Start.Equal(b[i].Start) || !a[i].End.Equal(b[i].End) {
			t.Fatalf("non-deterministic window %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestMockEngine_FreeWindows_ExcludesLunch(t *testing.T) {
	t.Parallel()

	loc := time.UTC
	day := time.Date(2026, 8, 3, 0, 0, 0, 0, loc)
	m := NewMockEngine()

	windows, err := m.FreeWindows(context.Background(), day, day.Add(24*time.Hour), 15*time.Minute)
	if err != nil {
		t.Fatalf("FreeWindows: %v", err)
	}
	lunchStart := day.Add(lunchStartHour * time.Hour)
	lunchEnd := day.Add(lunchEndHour * time.Hour)
	for _, w := range windows {
		if intervalsOverlap(w.Start, w.End, lunchStart, lunchEnd) {
			t.Fatalf("window %v overlaps lunch block", w)
		}
	}
}

func TestComputeFreeWindows_MinDurationFilter(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC)
	busy := []Window{
		{Start: start.Add(20 * time.Minute), End: start.Add(40 * time.Minute)},
	}

	windows := computeFreeWindows(start, end, busy, 30*time.Minute)
	if len(windows) != 1 {
		t.Fatalf("expected 1 window >= 30min, got %d: %v", len(windows), windows)
	}
	if !windows[0].Start.Equal(start.Add(40 * time.Minute)) {
		t.Fatalf("unexpected window start: %v", windows[0].Start)
	}
}
