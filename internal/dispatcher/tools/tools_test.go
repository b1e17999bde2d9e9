package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/MrWong99/callswarm/internal/calendar"
	"github.com/MrWong99/callswarm/internal/directory"
	"github.com/MrWong99/callswarm/internal/distance"
	"github.com/MrWong99/callswarm/internal/dispatcher"
	"github.com/MrWong99/callswarm/internal/store"
	"github.com/MrWong99/callswarm/pkg/types"
)

func testDeps(t *testing.T) Deps {
	t.Helper()
	return Deps{
		Calendar:        calendar.NewResolver(calendar.ModeMock, nil, nil, nil),
		Distance:        distance.New(distance.ModeMock, nil),
		Directory:       directory.New(directory.ModeDemo, nil),
		Store:           store.New(nil),
		DefaultTimezone: "UTC",
	}
}

func TestCalendarCheckTool_FreeSlot(t *testing.T) {
	t.Parallel()
	deps := testDeps(t)
	tool := calendarCheckTool(deps)

	start := time.Date(2026, 9, 2, 7, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	args, _ := json.Marshal(map[string]string{
		"start": start.Format(time.RFC3339),
		"end":   end.Format(time.RFC3339),
	})

	result, err := tool.Handler(context.Background(), dispatcher.CallContext{}, args)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	m := result.(map[string]any)
	if m["free"] != true {
		t.Fatalf("expected free slot, got %+v", m)
	}
}

func TestCalendarCheckTool_InvalidArgs(t *testing.T) {
	t.Parallel()
	deps := testDeps(t)
	tool := calendarCheckTool(deps)

	result, err := tool.Handler(context.Background(), dispatcher.CallContext{}, json.RawMessage(`{"start":"nope","end":"nope"}`))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	m := result.(map[string]any)
	if m["free"] != false {
		t.Fatalf("expected free=false on bad input, got %+v", m)
	}
}

func TestValidateSlotTool_OutsideCampaignRange(t *testing.T) {
	t.Parallel()
	deps := testDeps(t)

	campaign, err := deps.Store.CreateCampaign(context.Background(), types.AppointmentRequest{
		Service:        "dentist",
		DateRangeStart: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		DateRangeEnd:   time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}

	tool := validateSlotTool(deps)
	start := time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	args, _ := json.Marshal(map[string]string{
		"start": start.Format(time.RFC3339),
		"end":   end.Format(time.RFC3339),
	})

	result, err := tool.Handler(context.Background(), dispatcher.CallContext{CampaignID: campaign.CampaignID}, args)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	m := result.(map[string]any)
	if m["ok"] != false {
		t.Fatalf("expected out-of-range slot to be rejected, got %+v", m)
	}
}

func TestAvailableSlotsTool_ReturnsSlotsWithinBusinessHours(t *testing.T) {
	t.Parallel()
	deps := testDeps(t)
	tool := availableSlotsTool(deps)

	args, _ := json.Marshal(map[string]string{"date": "2026-09-02"})
	result, err := tool.Handler(context.Background(), dispatcher.CallContext{}, args)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	m := result.(map[string]any)
	slots := m["slots"].([]map[string]any)
	if len(slots) == 0 {
		t.Fatal("expected at least one available slot")
	}
}

func TestDistanceCheckTool_ReturnsMinutes(t *testing.T) {
	t.Parallel()
	deps := testDeps(t)

	lat, lng := 40.0, -75.0
	campaign, err := deps.Store.CreateCampaign(context.Background(), types.AppointmentRequest{
		Service:   "dentist",
		OriginLat: &lat,
		OriginLng: &lng,
	})
	if err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}
	err = deps.Store.UpdateCampaign(context.Background(), campaign.CampaignID, func(c *types.Campaign) {
		c.Providers = []types.Provider{{ID: "p1", Lat: 40.1, Lng: -75.1}}
	})
	if err != nil {
		t.Fatalf("UpdateCampaign: %v", err)
	}

	tool := distanceCheckTool(deps)
	args, _ := json.Marshal(map[string]string{"provider_id": "p1"})
	result, err := tool.Handler(context.Background(), dispatcher.CallContext{CampaignID: campaign.CampaignID}, args)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	m := result.(map[string]any)
	minutes, ok := m["minutes"].(int)
	if !ok || minutes < 5 || minutes > 40 {
		t.Fatalf("unexpected minutes: %+v", m)
	}
}

func TestLogEventTool_AppendsToCampaignDebug(t *testing.T) {
	t.Parallel()
	deps := testDeps(t)

	campaign, err := deps.Store.CreateCampaign(context.Background(), types.AppointmentRequest{Service: "dentist"})
	if err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}

	tool := logEventTool(deps)
	args, _ := json.Marshal(map[string]string{"message": "left voicemail"})
	result, err := tool.Handler(context.Background(), dispatcher.CallContext{CampaignID: campaign.CampaignID, ProviderID: "p1"}, args)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.(map[string]any)["logged"] != true {
		t.Fatalf("expected logged=true, got %+v", result)
	}

	updated, ok := deps.Store.GetCampaign(context.Background(), campaign.CampaignID)
	if !ok {
		t.Fatal("expected campaign to exist")
	}
	events, ok := updated.Debug["events"].([]any)
	if !ok || len(events) != 1 {
		t.Fatalf("expected one logged event, got %+v", updated.Debug)
	}
}

func TestProviderLookupTool_UsesCampaignServiceWhenArgsOmitted(t *testing.T) {
	t.Parallel()
	deps := testDeps(t)

	campaign, err := deps.Store.CreateCampaign(context.Background(), types.AppointmentRequest{
		Service:  "dentist",
		Location: "Springfield",
	})
	if err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}

	tool := providerLookupTool(deps)
	result, err := tool.Handler(context.Background(), dispatcher.CallContext{CampaignID: campaign.CampaignID}, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	providers, ok := result.(map[string]any)["providers"].([]map[string]any)
	if !ok {
		t.Fatalf("unexpected result shape: %+v", result)
	}
	if len(providers) == 0 {
		t.Fatal("expected at least one provider from the demo directory")
	}
}

func TestProposeAlternativesTool_ExcludesContactedProviders(t *testing.T) {
	t.Parallel()
	deps := testDeps(t)

	campaign, err := deps.Store.CreateCampaign(context.Background(), types.AppointmentRequest{
		Service:  "dentist",
		Location: "Springfield",
	})
	if err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}

	tool := proposeAlternativesTool(deps)
	args := json.RawMessage(`{"constraints":{"exclude_providers":["demo-dental-downtown"]}}`)
	result, err := tool.Handler(context.Background(), dispatcher.CallContext{CampaignID: campaign.CampaignID}, args)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	suggestions, ok := result.(map[string]any)["suggestions"].([]map[string]any)
	if !ok {
		t.Fatalf("unexpected result shape: %+v", result)
	}
	for _, s := range suggestions {
		if s["provider_id"] == "" {
			t.Fatal("suggestion missing provider_id")
		}
		if s["provider_id"] == "demo-dental-downtown" {
			t.Fatalf("excluded provider was suggested: %+v", s)
		}
	}
}
