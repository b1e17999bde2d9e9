package oauth

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MrWong99/callswarm/internal/store"
	"github.com/MrWong99/callswarm/pkg/types"
)

type stubRefreshClient struct {
	calls int32
}

func (s *stubRefreshClient) Refresh(context.Context, string) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	return "new-access-token", nil
}

func TestClient_RefreshUpdatesStore(t *testing.T) {
	t.Parallel()

	tokens, err := store.NewMemTokenStore("")
	if err != nil {
		t.Fatalf("NewMemTokenStore: %v", err)
	}
	if err := tokens.Put(types.OAuthToken{UserID: "u1", AccessToken: "old", RefreshToken: "r1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	refresher := &stubRefreshClient{}
	c := New(tokens, refresher)

	got, err := c.Refresh(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got != "new-access-token" {
		t.Fatalf("unexpected token: %s", got)
	}

	stored, err := tokens.Get("u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.AccessToken != "new-access-token" {
		t.Fatalf("expected store to be updated, got %s", stored.AccessToken)
	}
}

func TestClient_RefreshDedupesConcurrentCalls(t *testing.T) {
	t.Parallel()

	tokens, err := store.NewMemTokenStore("")
	if err != nil {
		t.Fatalf("NewMemTokenStore: %v", err)
	}
	if err := tokens.Put(types.OAuthToken{UserID: "u1", RefreshToken: "r1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	refresher := &stubRefreshClient{}
	c := New(tokens, refresher)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Refresh(context.Background(), "u1"); err != nil {
				t.Errorf("Refresh: %v", err)
			}
		}()
	}
	wg.Wait()

	if refresher.calls != 1 {
		t.Fatalf("expected exactly one refresh call, got %d", refresher.calls)
	}
}

func TestResolveCalendar_FallsBackToFirstStoredToken(t *testing.T) {
	t.Parallel()

	tokens, err := store.NewMemTokenStore("")
	if err != nil {
		t.Fatalf("NewMemTokenStore: %v", err)
	}
	if err := tokens.Put(types.OAuthToken{UserID: "u1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	userID, ok := ResolveCalendar(tokens, "")
	if !ok || userID != "u1" {
		t.Fatalf("expected fallback to u1, got %q ok=%v", userID, ok)
	}
}

func TestResolveCalendar_NoTokensAtAll(t *testing.T) {
	t.Parallel()

	tokens, err := store.NewMemTokenStore("")
	if err != nil {
		t.Fatalf("NewMemTokenStore: %v", err)
	}
	if _, ok := ResolveCalendar(tokens, "anyone"); ok {
		t.Fatal("expected no resolution with an empty token store")
	}
}
