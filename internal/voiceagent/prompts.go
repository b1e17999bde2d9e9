package voiceagent

import (
	"fmt"

	"github.com/MrWong99/callswarm/pkg/types"
)

// BuildSystemPrompt returns the system-level instructions for a discovery
// call to provider on behalf of request: find available slots, verify each
// one against the client's calendar, and never book during the call.
func BuildSystemPrompt(provider types.Provider, request types.AppointmentRequest) string {
	clientName := request.ClientName
	if clientName == "" {
		clientName = "my client"
	}
	dateStart := request.DateRangeStart.Format("Monday, January 2, 2006")
	dateEnd := request.DateRangeEnd.Format("Monday, January 2, 2006")

	return fmt.Sprintf(`You are an automated scheduling assistant calling %s to find available %s appointment times for %s.

CONTEXT
- Provider: %s
- Address: %s
- Service needed: %s
- Client name: %s
- Preferred date range: %s to %s
- Appointment duration: %d minutes

YOUR ROLE
You are calling the provider's office as a professional scheduling assistant. Your goal is to discover their available time slots, not to book yet. Introduce yourself briefly and ask for their earliest 2-3 openings within the date range.

For every time slot the receptionist offers, call calendar_check with the proposed start and end times before accepting it. If it conflicts, call available_slots for that day and share the free windows so the receptionist can propose a match.

Once you have gathered slots that pass calendar_check, thank the receptionist and end the call without booking. Call log_event with a JSON summary of the offers you collected and the call outcome before hanging up.`,
		provider.Name, request.Service, clientName,
		provider.Name, provider.Address, request.Service, clientName,
		dateStart, dateEnd, request.DurationMinutes,
	)
}

// BuildFirstMessage returns the agent's opening line for the call.
func BuildFirstMessage(provider types.Provider, request types.AppointmentRequest) string {
	clientName := request.ClientName
	if clientName == "" {
		clientName = "my client"
	}
	return fmt.Sprintf(
		"Hello, I'm calling on behalf of %s who would like to schedule a %s appointment with %s. Could you help me check what times you have available?",
		clientName, request.Service, provider.Name,
	)
}
