package tools

import (
	"context"
	"encoding/json"

	"github.com/MrWong99/callswarm/internal/dispatcher"
	"github.com/MrWong99/callswarm/pkg/types"
)

type providerLookupArgs struct {
	Service    string   `json:"service"`
	Location   string   `json:"location"`
	ExcludeIDs []string `json:"exclude_ids"`
}

// providerLookupTool searches the directory for providers offering service
// near location, falling back to the campaign's own service/location when
// either is omitted, and excludes any IDs already ruled out by the agent.
func providerLookupTool(deps Deps) dispatcher.Tool {
	return dispatcher.Tool{
		Definition: toolDefinition("provider_lookup", "Search for providers offering a service near a location.", map[string]any{
			"service":     "service to search for, defaults to the campaign's service",
			"location":    "location to search near, defaults to the campaign's location",
			"exclude_ids": "provider IDs to exclude from the results",
		}),
		Handler: func(ctx context.Context, call dispatcher.CallContext, args json.RawMessage) (any, error) {
			var a providerLookupArgs
			_ = json.Unmarshal(args, &a)

			var originLat, originLng *float64
			if campaign, ok := deps.Store.GetCampaign(ctx, call.CampaignID); ok {
				if a.Service == "" {
					a.Service = campaign.Request.Service
				}
				if a.Location == "" {
					a.Location = campaign.Request.Location
				}
				originLat = campaign.Request.OriginLat
				originLng = campaign.Request.OriginLng
			}

			results, err := deps.Directory.Resolve(ctx, a.Service, a.Location, originLat, originLng, nil)
			if err != nil {
				return nil, err
			}

			exclude := make(map[string]bool, len(a.ExcludeIDs))
			for _, id := range a.ExcludeIDs {
				exclude[id] = true
			}

			providers := make([]map[string]any, 0, len(results))
			for _, p := range results {
				if exclude[p.ID] {
					continue
				}
				providers = append(providers, providerSummary(p))
				if len(providers) == 5 {
					break
				}
			}
			return map[string]any{"providers": providers}, nil
		},
	}
}

type proposeAlternativesArgs struct {
	Constraints struct {
		Service          string   `json:"service"`
		Location         string   `json:"location"`
		ExcludeProviders []string `json:"exclude_providers"`
	} `json:"constraints"`
}

// proposeAlternativesTool suggests alternative providers when the current
// one has no slots, scoped by a constraints object the agent supplies.
func proposeAlternativesTool(deps Deps) dispatcher.Tool {
	return dispatcher.Tool{
		Definition: toolDefinition("propose_alternatives", "Suggest alternative providers when the current one has no availability.", map[string]any{
			"constraints": "object with service, location, and exclude_providers",
		}),
		Handler: func(ctx context.Context, call dispatcher.CallContext, args json.RawMessage) (any, error) {
			var a proposeAlternativesArgs
			_ = json.Unmarshal(args, &a)

			service := a.Constraints.Service
			location := a.Constraints.Location
			var originLat, originLng *float64
			if campaign, ok := deps.Store.GetCampaign(ctx, call.CampaignID); ok {
				if service == "" {
					service = campaign.Request.Service
				}
				if location == "" {
					location = campaign.Request.Location
				}
				originLat = campaign.Request.OriginLat
				originLng = campaign.Request.OriginLng
			}

			results, err := deps.Directory.Resolve(ctx, service, location, originLat, originLng, nil)
			if err != nil {
				return nil, err
			}

			exclude := make(map[string]bool, len(a.Constraints.ExcludeProviders))
			for _, id := range a.Constraints.ExcludeProviders {
				exclude[id] = true
			}

			suggestions := make([]map[string]any, 0, 3)
			for _, p := range results {
				if exclude[p.ID] {
					continue
				}
				suggestions = append(suggestions, map[string]any{
					"provider_name":           p.Name,
					"provider_id":             p.ID,
					"rating":                  p.Rating,
					"estimated_availability": "Call to check",
				})
				if len(suggestions) == 3 {
					break
				}
			}
			return map[string]any{"suggestions": suggestions}, nil
		},
	}
}

func providerSummary(p types.Provider) map[string]any {
	return map[string]any{
		"id":      p.ID,
		"name":    p.Name,
		"phone":   p.Phone,
		"address": p.Address,
		"rating":  p.Rating,
	}
}
