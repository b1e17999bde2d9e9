package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MrWong99/callswarm/internal/dispatcher"
	"github.com/MrWong99/callswarm/pkg/types"
)

type logEventArgs struct {
	Message string `json:"message"`
}

// logEventTool lets the voice agent record a free-form note against the
// call's campaign, surfaced later in the campaign's debug trail.
func logEventTool(deps Deps) dispatcher.Tool {
	return dispatcher.Tool{
		Definition: toolDefinition("log_event", "Record a note about this call for later review.", map[string]any{
			"message": "free-form note text",
		}),
		Handler: func(ctx context.Context, call dispatcher.CallContext, args json.RawMessage) (any, error) {
			var a logEventArgs
			if err := json.Unmarshal(args, &a); err != nil || a.Message == "" {
				return map[string]any{"error": "invalid arguments"}, nil
			}
			if call.CampaignID == "" {
				return map[string]any{"logged": false}, nil
			}

			entry := map[string]any{
				"provider_id": call.ProviderID,
				"message":     a.Message,
				"at":          time.Now().UTC().Format(time.RFC3339),
			}

			err := deps.Store.UpdateCampaign(ctx, call.CampaignID, func(c *types.Campaign) {
				if c.Debug == nil {
					c.Debug = make(map[string]any)
				}
				events, _ := c.Debug["events"].([]any)
				c.Debug["events"] = append(events, entry)
			})
			if err != nil {
				return nil, err
			}
			return map[string]any{"logged": true}, nil
		},
	}
}
