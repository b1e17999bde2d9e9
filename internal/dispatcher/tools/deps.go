// Package tools implements the individual tool handlers a voice agent may
// call mid-conversation: checking the client's calendar, estimating travel
// time, searching for alternative providers, and logging structured events
// back to the campaign.
package tools

import (
	"context"

	"github.com/MrWong99/callswarm/internal/calendar"
	"github.com/MrWong99/callswarm/internal/directory"
	"github.com/MrWong99/callswarm/internal/distance"
	"github.com/MrWong99/callswarm/internal/dispatcher"
	"github.com/MrWong99/callswarm/internal/oauth"
	"github.com/MrWong99/callswarm/internal/store"
)

// Deps are the collaborators every tool handler needs. A single Deps value
// is shared by all handlers registered for a call.
type Deps struct {
	Calendar        *calendar.Resolver
	Tokens          store.TokenStore
	Distance        distance.Estimator
	Directory       *directory.Directory
	Store           *store.MemStore
	DefaultTimezone string
}

// resolveEngine picks the calendar engine to validate against for a call
// within campaignID: the campaign's own linked user if any, otherwise an
// arbitrary linked user so single-tenant demo deployments still benefit
// from a real calendar, otherwise the server-wide engine.
func (d Deps) resolveEngine(ctx context.Context, campaignID string) calendar.Engine {
	userID := ""
	if campaignID != "" {
		if campaign, ok := d.Store.GetCampaign(ctx, campaignID); ok {
			userID = campaign.Request.UserID
		}
	}
	return oauth.ResolveEngine(d.Calendar, d.Tokens, userID)
}

// Register builds the full tool set wired against deps, ready to pass to
// dispatcher.New.
func Register(deps Deps) []dispatcher.Tool {
	return []dispatcher.Tool{
		calendarCheckTool(deps),
		validateSlotTool(deps),
		availableSlotsTool(deps),
		distanceCheckTool(deps),
		logEventTool(deps),
		providerLookupTool(deps),
		proposeAlternativesTool(deps),
	}
}
