// Package call implements the collaborators that place one provider call and
// return its outcome: a deterministic simulated driver for demos and tests,
// and a real driver that dials through telephony and waits for the media
// bridge to report a result.
package call

import (
	"context"

	"github.com/MrWong99/callswarm/pkg/types"
)

// Driver places a single call to provider on behalf of campaign and blocks
// until the call concludes or ctx is done.
type Driver interface {
	Call(ctx context.Context, provider types.Provider, campaign *types.Campaign) (types.CallResult, error)
}

// DriverFunc adapts a plain function to the Driver interface.
type DriverFunc func(ctx context.Context, provider types.Provider, campaign *types.Campaign) (types.CallResult, error)

// Call implements Driver.
func (f DriverFunc) Call(ctx context.Context, provider types.Provider, campaign *types.Campaign) (types.CallResult, error) {
	return f(ctx, provider, campaign)
}
