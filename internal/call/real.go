package call

import (
	"context"
	"fmt"

	"github.com/MrWong99/callswarm/internal/store"
	"github.com/MrWong99/callswarm/internal/telephony"
	"github.com/MrWong99/callswarm/pkg/types"
)

// RealDriver places a provider call through a telephony.Dialer and blocks
// until the media bridge reports a result for that call.
type RealDriver struct {
	Dialer telephony.Dialer
	Store  *store.MemStore
}

// Call implements Driver.
func (d *RealDriver) Call(ctx context.Context, provider types.Provider, campaign *types.Campaign) (types.CallResult, error) {
	callID, err := d.Dialer.Dial(ctx, provider.Phone, campaign.CampaignID, provider.ID)
	if err != nil {
		return types.CallResult{
			ProviderID: provider.ID,
			Outcome:    types.OutcomeFailed,
			Notes:      fmt.Sprintf("dial failed: %v", err),
		}, nil
	}

	mapping := d.Store.RegisterCall(callID, campaign.CampaignID, provider.ID)
	result, err := mapping.Wait(ctx)
	if err != nil {
		return types.CallResult{
			ProviderID: provider.ID,
			CallID:     callID,
			Outcome:    types.OutcomeFailed,
			Notes:      fmt.Sprintf("call timed out waiting for bridge: %v", err),
		}, nil
	}
	if result == nil {
		return types.CallResult{
			ProviderID: provider.ID,
			CallID:     callID,
			Outcome:    types.OutcomeFailed,
			Notes:      "call completed with no recorded result",
		}, nil
	}
	result.CallID = callID
	return *result, nil
}
