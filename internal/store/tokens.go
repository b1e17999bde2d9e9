package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/MrWong99/callswarm/pkg/types"
)

// ErrTokenNotFound is returned when no OAuth token is stored for a user.
var ErrTokenNotFound = errors.New("store: oauth token not found")

// TokenStore persists per-user calendar OAuth grants.
type TokenStore interface {
	Get(userID string) (types.OAuthToken, error)
	// First returns an arbitrary stored token, used when a call has no
	// user context of its own but a linked calendar should still be
	// preferred over the mock engine.
	First() (types.OAuthToken, error)
	Put(token types.OAuthToken) error
}

// MemTokenStore is a thread-safe in-memory TokenStore, optionally backed by
// a JSON file for persistence across restarts.
type MemTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]types.OAuthToken
	// order preserves insertion order so First is deterministic across a run.
	order []string
	path  string
}

// NewMemTokenStore returns a MemTokenStore. If path is non-empty, tokens are
// loaded from it at startup and rewritten to it on every Put.
func NewMemTokenStore(path string) (*MemTokenStore, error) {
	s := &MemTokenStore{tokens: make(map[string]types.OAuthToken), path: path}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("store: read token file: %w", err)
	}

	var tokens []types.OAuthToken
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("store: decode token file: %w", err)
	}
	for _, t := range tokens {
		s.tokens[t.UserID] = t
		s.order = append(s.order, t.UserID)
	}
	return s, nil
}

var _ TokenStore = (*MemTokenStore)(nil)

// Get implements TokenStore.
func (s *MemTokenStore) Get(userID string) (types.OAuthToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[userID]
	if !ok {
		return types.OAuthToken{}, ErrTokenNotFound
	}
	return t, nil
}

// First implements TokenStore.
func (s *MemTokenStore) First() (types.OAuthToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return types.OAuthToken{}, ErrTokenNotFound
	}
	return s.tokens[s.order[0]], nil
}

// Put implements TokenStore.
func (s *MemTokenStore) Put(token types.OAuthToken) error {
	s.mu.Lock()
	if _, exists := s.tokens[token.UserID]; !exists {
		s.order = append(s.order, token.UserID)
	}
	s.tokens[token.UserID] = token
	snapshot := make([]types.OAuthToken, 0, len(s.order))
	for _, id := range s.order {
		snapshot = append(snapshot, s.tokens[id])
	}
	s.mu.Unlock()

	if s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal tokens: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("store: write token file: %w", err)
	}
	return nil
}
