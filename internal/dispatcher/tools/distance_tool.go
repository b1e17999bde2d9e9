package tools

import (
	"context"
	"encoding/json"

	"github.com/MrWong99/callswarm/internal/dispatcher"
)

type distanceCheckArgs struct {
	ProviderID string `json:"provider_id"`
}

// distanceCheckTool estimates travel time from the client's origin to a
// provider already resolved for this campaign.
func distanceCheckTool(deps Deps) dispatcher.Tool {
	return dispatcher.Tool{
		Definition: toolDefinition("distance_check", "Estimate travel time in minutes from the client to a provider already associated with this campaign.", map[string]any{
			"provider_id": "the provider's ID",
		}),
		Handler: func(ctx context.Context, call dispatcher.CallContext, args json.RawMessage) (any, error) {
			var a distanceCheckArgs
			if err := json.Unmarshal(args, &a); err != nil {
				a.ProviderID = call.ProviderID
			}
			if a.ProviderID == "" {
				a.ProviderID = call.ProviderID
			}

			campaign, ok := deps.Store.GetCampaign(ctx, call.CampaignID)
			if !ok {
				return map[string]any{"minutes": -1, "error": "campaign not found"}, nil
			}

			for _, p := range campaign.Providers {
				if p.ID != a.ProviderID {
					continue
				}
				originLat, originLng := 0.0, 0.0
				if campaign.Request.OriginLat != nil {
					originLat = *campaign.Request.OriginLat
				}
				if campaign.Request.OriginLng != nil {
					originLng = *campaign.Request.OriginLng
				}
				minutes, err := deps.Distance.TravelMinutes(ctx, originLat, originLng, p.Lat, p.Lng)
				if err != nil {
					return nil, err
				}
				return map[string]any{"minutes": minutes}, nil
			}
			return map[string]any{"minutes": -1, "error": "provider not found"}, nil
		},
	}
}
