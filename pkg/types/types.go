// Package types defines the shared domain types used across all callswarm
// packages: the appointment request, provider directory, slot offers, call
// results, and the campaign aggregate. These types are intentionally
// persistence- and transport-agnostic — each package that needs to move them
// over the wire or into storage marshals them independently to avoid
// circular imports.
package types

import "time"

// CallMode selects how a campaign's provider calls are placed.
type CallMode string

const (
	// CallModeAuto defers to the server-wide simulated/real setting.
	CallModeAuto CallMode = "auto"
	// CallModeReal places every call through the real telephony collaborator.
	CallModeReal CallMode = "real"
	// CallModeSimulated places every call through the deterministic simulated driver.
	CallModeSimulated CallMode = "simulated"
	// CallModeHybrid places the first call for real and the rest simulated.
	CallModeHybrid CallMode = "hybrid"
)

// AppointmentRequest describes the scheduling goal for one campaign.
// It is immutable once a campaign starts.
type AppointmentRequest struct {
	Service           string       `json:"service"`
	Location          string       `json:"location"`
	OriginLat         *float64     `json:"origin_lat,omitempty"`
	OriginLng         *float64     `json:"origin_lng,omitempty"`
	DateRangeStart    time.Time    `json:"date_range_start"`
	DateRangeEnd      time.Time    `json:"date_range_end"`
	DurationMinutes   int          `json:"duration_minutes"`
	MaxProviders      int          `json:"max_providers"`
	MaxParallel       int          `json:"max_parallel"`
	MaxTravelMinutes  int          `json:"max_travel_minutes"`
	ProviderAllowList []string     `json:"provider_allow_list,omitempty"`
	UserID            string       `json:"user_id,omitempty"`
	Timezone          string       `json:"timezone"`
	CallMode          CallMode     `json:"call_mode"`
	AutoBook          bool         `json:"auto_book"`
	ClientName        string       `json:"client_name,omitempty"`
	ClientPhone       string       `json:"client_phone,omitempty"`
	Weights           ScoreWeights `json:"weights,omitempty"`
}

// Provider is a single scheduling target (dentist, salon, garage, ...).
type Provider struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Address  string   `json:"address"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Rating   float64  `json:"rating"`
	Services []string `json:"services"`
}

// ProviderPreview is a Provider enriched with an estimated travel time,
// returned from the search-providers-preview surface.
type ProviderPreview struct {
	Provider
	TravelMinutes int `json:"travel_minutes"`
}

// SlotOffer is a time window a provider has tentatively offered.
type SlotOffer struct {
	ProviderID string    `json:"provider_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Notes      string    `json:"notes,omitempty"`
	Confidence float64   `json:"confidence"`

	// Score is nil until the scoring engine has ranked the offer.
	Score *float64 `json:"score,omitempty"`
}

// CallOutcome is the terminal result of one provider call.
type CallOutcome string

const (
	OutcomeSuccess          CallOutcome = "SUCCESS"
	OutcomeNoAnswer         CallOutcome = "NO_ANSWER"
	OutcomeBusy             CallOutcome = "BUSY"
	OutcomeFailed           CallOutcome = "FAILED"
	OutcomeNoSlots          CallOutcome = "NO_SLOTS"
	OutcomeCompletedNoMatch CallOutcome = "COMPLETED_NO_MATCH"
	OutcomeBookingConfirmed CallOutcome = "BOOKING_CONFIRMED"
	OutcomeBookingRejected  CallOutcome = "BOOKING_REJECTED"
)

// CallResult is the outcome of one provider call, successful or not.
type CallResult struct {
	ProviderID        string      `json:"provider_id"`
	CallID            string      `json:"call_id,omitempty"`
	Outcome           CallOutcome `json:"outcome"`
	Offers            []SlotOffer `json:"offers,omitempty"`
	TranscriptSnippet string      `json:"transcript_snippet,omitempty"`
	Notes             string      `json:"notes,omitempty"`
}

// CampaignStatus is the campaign's position in the discovery/booking state machine.
type CampaignStatus string

const (
	StatusRunning   CampaignStatus = "running"
	StatusBooking   CampaignStatus = "booking"
	StatusBooked    CampaignStatus = "booked"
	StatusCompleted CampaignStatus = "completed"
	StatusFailed    CampaignStatus = "failed"
)

// CampaignProgress is a point-in-time snapshot of call progress counters.
type CampaignProgress struct {
	TotalProviders int `json:"total_providers"`
	InProgress     int `json:"calls_in_progress"`
	Completed      int `json:"completed_calls"`
	Successful     int `json:"successful_calls"`
	Failed         int `json:"failed_calls"`
}

// BookingConfirmation records the outcome of a successful Phase-2 booking call.
type BookingConfirmation struct {
	ProviderID      string    `json:"provider_id"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	ConfirmationRef string    `json:"confirmation_ref"`
	ConfirmedAt     time.Time `json:"confirmed_at"`
	Notes           string    `json:"notes,omitempty"`
	ClientName      string    `json:"client_name,omitempty"`
	ClientPhone     string    `json:"client_phone,omitempty"`
}

// Campaign is one end-to-end attempt to schedule a single appointment.
type Campaign struct {
	CampaignID string             `json:"campaign_id"`
	Request    AppointmentRequest `json:"request"`
	Status     CampaignStatus     `json:"status"`
	Progress   CampaignProgress   `json:"progress"`

	// Providers is the snapshot captured at discovery start; never mutated afterward.
	Providers []Provider `json:"providers"`

	// CallResults is append-only, in completion order.
	CallResults []CallResult `json:"call_results"`

	Ranked              []SlotOffer          `json:"ranked"`
	Best                *SlotOffer           `json:"best,omitempty"`
	BookingConfirmation *BookingConfirmation `json:"booking_confirmation,omitempty"`

	Debug map[string]any `json:"debug,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScoreWeights overrides the scoring engine's default per-criterion weights.
type ScoreWeights struct {
	Earliest   float64 `json:"earliest_weight,omitempty"`
	Rating     float64 `json:"rating_weight,omitempty"`
	Distance   float64 `json:"distance_weight,omitempty"`
	Preference float64 `json:"preference_weight,omitempty"`
}

// OAuthToken is the stored per-user calendar delegation grant.
type OAuthToken struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Scopes       []string  `json:"scopes"`
	LinkedAt     time.Time `json:"linked_at"`
}
