package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/MrWong99/callswarm/internal/swarm"
	"github.com/MrWong99/callswarm/pkg/types"
)

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// campaignHandlers exposes the campaign manager over a small JSON API. The
// wire format here is deliberately minimal — campaign state and progress
// already marshal via their own json tags in pkg/types.
type campaignHandlers struct {
	manager *swarm.Manager
}

func (h *campaignHandlers) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /campaigns", h.create)
	mux.HandleFunc("GET /campaigns/{id}", h.get)
	mux.HandleFunc("POST /campaigns/{id}/confirm", h.confirm)
}

func (h *campaignHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req types.AppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	campaign, err := h.manager.Store.CreateCampaign(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// RunCampaign outlives this request — r.Context() is canceled the
	// instant ServeHTTP returns, which happens right after the 202 below.
	go h.manager.RunCampaign(context.Background(), campaign.CampaignID)

	writeJSON(w, http.StatusAccepted, campaign)
}

func (h *campaignHandlers) get(w http.ResponseWriter, r *http.Request) {
	campaign, ok := h.manager.Store.GetCampaign(r.Context(), r.PathValue("id"))
	if !ok {
		http.Error(w, "campaign not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

type confirmRequest struct {
	ProviderID string `json:"provider_id"`
	Start      string `json:"start"`
}

func (h *campaignHandlers) confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	start, err := parseTime(req.Start)
	if err != nil {
		http.Error(w, "invalid start timestamp: "+err.Error(), http.StatusBadRequest)
		return
	}

	confirmation, err := h.manager.ConfirmSlot(r.Context(), r.PathValue("id"), req.ProviderID, start)
	if err != nil {
		http.Error(w, err.Error(), confirmStatusCode(err))
		return
	}
	writeJSON(w, http.StatusOK, confirmation)
}

// confirmStatusCode maps a ConfirmSlot error to the HTTP status that best
// describes it: not-found, a malformed slot reference, a genuine booking
// conflict, or the calendar being unreachable (treated as a 503-equivalent
// since it's a transient upstream failure, not a client error).
func confirmStatusCode(err error) int {
	switch {
	case errors.Is(err, swarm.ErrCampaignNotFound):
		return http.StatusNotFound
	case errors.Is(err, swarm.ErrSlotNotInRanked):
		return http.StatusBadRequest
	case errors.Is(err, swarm.ErrSlotConflict):
		return http.StatusConflict
	case errors.Is(err, swarm.ErrCalendarUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
