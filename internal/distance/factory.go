package distance

// Mode selects which distance backend campaigns use to estimate travel time.
type Mode string

const (
	// ModeMock uses the deterministic, dependency-free MockEstimator.
	ModeMock Mode = "mock"
	// ModeRemote uses a real routing backend, cached and with a mock fallback.
	ModeRemote Mode = "remote"
)

// New returns the Estimator configured for mode. client may be nil when mode
// is ModeMock.
func New(mode Mode, client Client) Estimator {
	if mode == ModeRemote && client != nil {
		return NewRemoteEstimator(client)
	}
	return NewMockEstimator()
}
