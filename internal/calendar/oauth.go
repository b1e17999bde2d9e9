package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnauthorized is returned by a FreeBusyClient when the access token it
// was given has expired or been revoked. OAuthEngine treats this as a signal
// to refresh the token and retry exactly once.
var ErrUnauthorized = errors.New("calendar: access token rejected")

// TokenSource resolves and refreshes a user's delegated calendar access
// token. It is implemented by the oauth package; calendar only depends on
// this narrow interface to avoid a dependency cycle.
type TokenSource interface {
	AccessToken(ctx context.Context, userID string) (string, error)
	Refresh(ctx context.Context, userID string) (string, error)
}

// FreeBusyClientFactory builds a FreeBusyClient bound to a specific access
// token, scoped to the user's own primary calendar.
type FreeBusyClientFactory func(accessToken string) FreeBusyClient

// OAuthEngine is a UserEngine that calls a real calendar backend on behalf
// of a client who has linked their own calendar. A 401 from the backend
// triggers exactly one token refresh and retry before giving up.
type OAuthEngine struct {
	userID    string
	tokens    TokenSource
	newClient FreeBusyClientFactory
}

// NewOAuthEngine returns a UserEngine scoped to userID.
func NewOAuthEngine(userID string, tokens TokenSource, newClient FreeBusyClientFactory) *OAuthEngine {
	return &OAuthEngine{userID: userID, tokens: tokens, newClient: newClient}
}

var _ UserEngine = (*OAuthEngine)(nil)

// UserID implements UserEngine.
func (o *OAuthEngine) UserID() string { return o.userID }

// busy fetches the raw busy windows overlapping [start, end), refreshing the
// access token and retrying exactly once on a 401.
func (o *OAuthEngine) busy(ctx context.Context, start, end time.Time) ([]Window, error) {
	token, err := o.tokens.AccessToken(ctx, o.userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	windows, err := o.newClient(token).Busy(ctx, "primary", start, end)
	if errors.Is(err, ErrUnauthorized) {
		token, refreshErr := o.tokens.Refresh(ctx, o.userID)
		if refreshErr != nil {
			return nil, fmt.Errorf("%w: refresh failed: %v", ErrUnavailable, refreshErr)
		}
		windows, err = o.newClient(token).Busy(ctx, "primary", start, end)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return windows, nil
}

// FreeWindows implements Engine. No buffer is applied: the reference
// available-slots algorithm works from the raw busy blocks only.
func (o *OAuthEngine) FreeWindows(ctx context.Context, start, end time.Time, minDuration time.Duration) ([]Window, error) {
	busy, err := o.busy(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return computeFreeWindows(start, end, busy, minDuration), nil
}

// IsFree implements Engine. The query range is expanded by bufferDuration on
// both sides so blocks starting or ending within the buffer of start/end are
// fetched at all; the overlap test itself still runs against the unexpanded
// start/end and the blocks' raw bounds.
func (o *OAuthEngine) IsFree(ctx context.Context, start, end time.Time) (bool, error) {
	busy, err := o.busy(ctx, start.Add(-bufferDuration), end.Add(bufferDuration))
	if err != nil {
		return false, err
	}
	for _, b := range busy {
		if intervalsOverlap(start, end, b.Start, b.End) {
			return false, nil
		}
	}
	return true, nil
}
