package calendar

import (
	"context"
	"fmt"
	"time"
)

// bufferDuration widens the range of an IsFree query sent to the backend on
// both sides; the busy blocks themselves are not extended by it.
const bufferDuration = 15 * time.Minute

// FreeBusyClient is the external collaborator that answers free/busy queries
// against a real calendar backend. An implementation lives outside this
// module; callswarm only depends on this narrow interface.
type FreeBusyClient interface {
	// Busy returns the busy intervals overlapping [start, end) for calendarID.
	Busy(ctx context.Context, calendarID string, start, end time.Time) ([]Window, error)
}

// RemoteEngine queries a FreeBusyClient for a fixed calendar ID. It never
// falls back to treating an error as "free": a client error becomes
// ErrUnavailable so callers fail closed.
type RemoteEngine struct {
	client     FreeBusyClient
	calendarID string
}

// NewRemoteEngine returns an Engine backed by client for the given calendar.
func NewRemoteEngine(client FreeBusyClient, calendarID string) *RemoteEngine {
	return &RemoteEngine{client: client, calendarID: calendarID}
}

var _ Engine = (*RemoteEngine)(nil)

// FreeWindows implements Engine. No buffer is applied here: the reference
// available-slots algorithm works from the raw busy blocks only.
func (r *RemoteEngine) FreeWindows(ctx context.Context, start, end time.Time, minDuration time.Duration) ([]Window, error) {
	busy, err := r.client.Busy(ctx, r.calendarID, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return computeFreeWindows(start, end, busy, minDuration), nil
}

// IsFree implements Engine. The query range sent to the client is expanded
// by bufferDuration on both sides so blocks that start or end within the
// buffer of start/end are fetched at all; the overlap test itself still
// runs against the unexpanded start/end and the blocks' raw bounds.
func (r *RemoteEngine) IsFree(ctx context.Context, start, end time.Time) (bool, error) {
	busy, err := r.client.Busy(ctx, r.calendarID, start.Add(-bufferDuration), end.Add(bufferDuration))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	for _, b := range busy {
		if intervalsOverlap(start, end, b.Start, b.End) {
			return false, nil
		}
	}
	return true, nil
}
