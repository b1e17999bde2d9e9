// Package telephony places outbound provider calls through a real PSTN
// carrier and generates the call-control markup that connects an answered
// call into the bidirectional media stream the voice agent bridges against.
package telephony

import "context"

// Dialer places an outbound call and returns the carrier's call identifier,
// used later to correlate status callbacks and media-stream frames back to
// the campaign/provider that placed the call.
type Dialer interface {
	Dial(ctx context.Context, toPhone, campaignID, providerID string) (callID string, err error)
}
