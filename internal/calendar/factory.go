package calendar

// Mode selects which calendar backend a campaign should use.
type Mode string

const (
	// ModeMock uses the deterministic, dependency-free MockEngine.
	ModeMock Mode = "mock"
	// ModeRemote uses a single shared calendar via RemoteEngine.
	ModeRemote Mode = "remote"
	// ModeUserDelegated resolves a per-user OAuthEngine, falling back to
	// ModeMock when the user has no linked calendar.
	ModeUserDelegated Mode = "user_delegated"
)

// Resolver selects the Engine a campaign should validate its offers
// against, based on the server's configured Mode and the request's user.
type Resolver struct {
	mode      Mode
	mock      Engine
	remote    Engine
	tokens    TokenSource
	newClient FreeBusyClientFactory
}

// NewResolver builds a Resolver. remote and tokens/newClient may be nil when
// mode is ModeMock; the resolver never dereferences them in that case.
func NewResolver(mode Mode, remote Engine, tokens TokenSource, newClient FreeBusyClientFactory) *Resolver {
	return &Resolver{
		mode:      mode,
		mock:      NewMockEngine(),
		remote:    remote,
		tokens:    tokens,
		newClient: newClient,
	}
}

// For returns the Engine to use for a request on behalf of userID. An empty
// userID always resolves to the server-wide engine (remote or mock).
func (r *Resolver) For(userID string) Engine {
	switch r.mode {
	case ModeRemote:
		if r.remote != nil {
			return r.remote
		}
		return r.mock
	case ModeUserDelegated:
		if userID != "" && r.tokens != nil && r.newClient != nil {
			return NewOAuthEngine(userID, r.tokens, r.newClient)
		}
		return r.mock
	default:
		return r.mock
	}
}
