package tools

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MrWong99/callswarm/internal/calendar"
	"github.com/MrWong99/callswarm/internal/dispatcher"
	"github.com/MrWong99/callswarm/pkg/types"
)

type timeRangeArgs struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func parseRange(args json.RawMessage, loc *time.Location, now time.Time) (start, end time.Time, err error) {
	var a timeRangeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid arguments")
	}
	start, err = time.Parse(time.RFC3339, a.Start)
	if err != nil {
		start, err = time.ParseInLocation("2006-01-02T15:04:05", a.Start, loc)
	}
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid datetime format")
	}
	end, err = time.Parse(time.RFC3339, a.End)
	if err != nil {
		end, err = time.ParseInLocation("2006-01-02T15:04:05", a.End, loc)
	}
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid datetime format")
	}
	start = localizeNaive(start, loc)
	end = localizeNaive(end, loc)
	start, end = fixPastDate(start, end, now)
	return start, end, nil
}

func calendarCheckTool(deps Deps) dispatcher.Tool {
	return dispatcher.Tool{
		Definition: toolDefinition("calendar_check", "Check whether a time slot is free on the client's calendar.", map[string]any{
			"start": "ISO-8601 start timestamp",
			"end":   "ISO-8601 end timestamp",
		}),
		Handler: func(ctx context.Context, call dispatcher.CallContext, args json.RawMessage) (any, error) {
			loc := resolveLocation(deps.DefaultTimezone)
			start, end, err := parseRange(args, loc, time.Now().In(loc))
			if err != nil {
				return map[string]any{"free": false, "error": err.Error()}, nil
			}

			engine := deps.resolveEngine(ctx, call.CampaignID)
			free, err := engine.IsFree(ctx, start, end)
			if errors.Is(err, calendar.ErrUnavailable) {
				return map[string]any{"free": false, "error": "Calendar unavailable, cannot verify"}, nil
			}
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"free":          free,
				"checked_start": start.Format(time.Kitchen),
				"checked_end":   end.Format(time.Kitchen),
				"timezone":      deps.DefaultTimezone,
			}, nil
		},
	}
}

func validateSlotTool(deps Deps) dispatcher.Tool {
	return dispatcher.Tool{
		Definition: toolDefinition("validate_slot", "Validate a slot is calendar-free and within the campaign's requested date range.", map[string]any{
			"start": "ISO-8601 start timestamp",
			"end":   "ISO-8601 end timestamp",
		}),
		Handler: func(ctx context.Context, call dispatcher.CallContext, args json.RawMessage) (any, error) {
			loc := resolveLocation(deps.DefaultTimezone)
			start, end, err := parseRange(args, loc, time.Now().In(loc))
			if err != nil {
				return map[string]any{"ok": false, "reason": err.Error()}, nil
			}

			if call.CampaignID != "" {
				if campaign, ok := deps.Store.GetCampaign(ctx, call.CampaignID); ok {
					rangeStart := localizeNaive(campaign.Request.DateRangeStart, loc)
					rangeEnd := localizeNaive(campaign.Request.DateRangeEnd, loc)
					if start.Before(rangeStart) || end.After(rangeEnd) {
						return map[string]any{"ok": false, "reason": "Slot is outside the requested date range"}, nil
					}
				}
			}

			engine := deps.resolveEngine(ctx, call.CampaignID)
			free, err := engine.IsFree(ctx, start, end)
			if errors.Is(err, calendar.ErrUnavailable) {
				return map[string]any{"ok": false, "reason": "Calendar unavailable, cannot verify availability"}, nil
			}
			if err != nil {
				return nil, err
			}
			if !free {
				return map[string]any{"ok": false, "reason": "Conflicts with client calendar"}, nil
			}
			return map[string]any{"ok": true}, nil
		},
	}
}

type availableSlotsArgs struct {
	Date          string `json:"date"`
	BusinessStart int    `json:"business_start"`
	BusinessEnd   int    `json:"business_end"`
}

func availableSlotsTool(deps Deps) dispatcher.Tool {
	return dispatcher.Tool{
		Definition: toolDefinition("available_slots", "Return the client's free windows on a given date within business hours.", map[string]any{
			"date":           "ISO-8601 date (YYYY-MM-DD)",
			"business_start": "business day start hour, default 9",
			"business_end":   "business day end hour, default 17",
		}),
		Handler: func(ctx context.Context, call dispatcher.CallContext, args json.RawMessage) (any, error) {
			loc := resolveLocation(deps.DefaultTimezone)

			var a availableSlotsArgs
			if err := json.Unmarshal(args, &a); err != nil {
				return map[string]any{"slots": []any{}, "error": "Invalid date format. Use YYYY-MM-DD."}, nil
			}
			day, err := time.ParseInLocation("2006-01-02", a.Date, loc)
			if err != nil {
				return map[string]any{"slots": []any{}, "error": "Invalid date format. Use YYYY-MM-DD."}, nil
			}
			now := time.Now().In(loc)
			for day.Before(truncateToDay(now)) {
				day = day.AddDate(1, 0, 0)
			}

			bizStart := a.BusinessStart
			if bizStart == 0 {
				bizStart = 9
			}
			bizEnd := a.BusinessEnd
			if bizEnd == 0 {
				bizEnd = 17
			}

			windowStart := day.Add(time.Duration(bizStart) * time.Hour)
			windowEnd := day.Add(time.Duration(bizEnd) * time.Hour)

			engine := deps.resolveEngine(ctx, call.CampaignID)
			windows, err := engine.FreeWindows(ctx, windowStart, windowEnd, 30*time.Minute)
			if errors.Is(err, calendar.ErrUnavailable) {
				return map[string]any{"slots": []any{}, "error": "Calendar unavailable, cannot fetch availability"}, nil
			}
			if err != nil {
				return nil, err
			}

			slots := make([]map[string]any, 0, len(windows))
			for _, w := range windows {
				slots = append(slots, map[string]any{
					"start":       w.Start.Format(time.RFC3339),
					"end":         w.End.Format(time.RFC3339),
					"start_local": w.Start.Format(time.Kitchen),
					"end_local":   w.End.Format(time.Kitchen),
					"date":        w.Start.Format("Monday, January 2, 2006"),
				})
			}
			return map[string]any{"slots": slots, "timezone": deps.DefaultTimezone}, nil
		},
	}
}

func toolDefinition(name, description string, parameters map[string]any) types.ToolDefinition {
	return types.ToolDefinition{
		Name:        name,
		Description: description,
		Parameters:  parameters,
	}
}
