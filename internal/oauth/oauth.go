// Package oauth resolves and refreshes per-user calendar OAuth grants,
// serializing concurrent refreshes for the same user so two calls hitting
// a stale access token at once only trigger a single refresh round-trip.
package oauth

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/MrWong99/callswarm/internal/calendar"
	"github.com/MrWong99/callswarm/internal/store"
)

// RefreshClient exchanges a refresh token for a new access token against
// the external identity provider.
type RefreshClient interface {
	Refresh(ctx context.Context, refreshToken string) (accessToken string, err error)
}

// Client is a calendar.TokenSource backed by a store.TokenStore and a
// RefreshClient, deduplicating concurrent refreshes per user.
type Client struct {
	tokens  store.TokenStore
	refresh RefreshClient
	group   singleflight.Group
}

// New returns a Client that resolves tokens from tokens and refreshes
// through refresh.
func New(tokens store.TokenStore, refresh RefreshClient) *Client {
	return &Client{tokens: tokens, refresh: refresh}
}

// AccessToken returns the user's current access token without refreshing.
func (c *Client) AccessToken(_ context.Context, userID string) (string, error) {
	token, err := c.tokens.Get(userID)
	if err != nil {
		return "", fmt.Errorf("oauth: %w", err)
	}
	return token.AccessToken, nil
}

// Refresh exchanges the user's stored refresh token for a new access token,
// persists it, and returns it. Concurrent Refresh calls for the same userID
// share a single in-flight exchange.
func (c *Client) Refresh(ctx context.Context, userID string) (string, error) {
	v, err, _ := c.group.Do(userID, func() (any, error) {
		token, err := c.tokens.Get(userID)
		if err != nil {
			return "", fmt.Errorf("oauth: %w", err)
		}

		newAccessToken, err := c.refresh.Refresh(ctx, token.RefreshToken)
		if err != nil {
			return "", fmt.Errorf("oauth: refresh: %w", err)
		}

		token.AccessToken = newAccessToken
		if err := c.tokens.Put(token); err != nil {
			return "", fmt.Errorf("oauth: store refreshed token: %w", err)
		}
		return newAccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ResolveCalendar picks the calendar TokenSource user to query on behalf of
// userID, falling back to the first stored token when userID is empty or
// unlinked. This mirrors the reference backend's behavior of letting any
// single-tenant demo deployment work without per-call user context.
func ResolveCalendar(tokens store.TokenStore, userID string) (string, bool) {
	if userID != "" {
		if _, err := tokens.Get(userID); err == nil {
			return userID, true
		}
	}
	first, err := tokens.First()
	if err != nil {
		return "", false
	}
	return first.UserID, true
}

// ResolveEngine picks the calendar engine to use on behalf of userID: the
// user's own linked calendar when available, otherwise an arbitrary stored
// token (see ResolveCalendar), otherwise the resolver's server-wide engine.
func ResolveEngine(resolver *calendar.Resolver, tokens store.TokenStore, userID string) calendar.Engine {
	if tokens != nil {
		if resolved, ok := ResolveCalendar(tokens, userID); ok {
			return resolver.For(resolved)
		}
	}
	return resolver.For("")
}
