// Package voiceagent wraps the external conversational-agent backend that
// actually talks to a provider's receptionist: it streams audio in both
// directions over one session and surfaces the agent's tool calls so the
// media bridge can dispatch them into campaign logic.
package voiceagent

import (
	"context"

	"github.com/MrWong99/callswarm/pkg/types"
)

// TranscriptEntry is one line of a call's transcript, in speaker order.
type TranscriptEntry struct {
	Speaker string // "agent" or "receptionist"
	Text    string
}

// ToolCallEvent is a tool invocation requested by the voice agent mid-call.
type ToolCallEvent struct {
	CallID    string
	Name      string
	Arguments []byte // raw JSON object
}

// SessionConfig configures a new conversational session for one call.
type SessionConfig struct {
	// Provider is the office being called, or nil if unknown at connect time.
	Provider *types.Provider
	// Request is the appointment request driving this campaign.
	Request types.AppointmentRequest
	// Tools is the set of tool definitions the agent may call during the session.
	Tools []types.ToolDefinition
}

// Session is one open conversational-agent session, bridging audio and tool
// calls for the lifetime of a single provider call. Implementations must be
// safe for concurrent use; SendAudio and the returned channels are read/written
// from different goroutines in the media bridge.
type Session interface {
	// SendAudio delivers one chunk of raw 16-bit PCM audio from the caller side.
	SendAudio(pcm []byte) error

	// Audio emits synthesized PCM audio chunks for playback to the caller.
	// Closed when the session ends.
	Audio() <-chan []byte

	// Transcripts emits transcript lines as the conversation proceeds. Closed
	// when the session ends.
	Transcripts() <-chan TranscriptEntry

	// ToolCalls emits tool invocations requested by the agent. Closed when
	// the session ends.
	ToolCalls() <-chan ToolCallEvent

	// SendToolResult delivers the outcome of a dispatched tool call back to
	// the agent, keyed by the ToolCallEvent's CallID.
	SendToolResult(callID string, resultJSON string, isError bool) error

	// Interrupted emits a value whenever the agent wants buffered caller-side
	// audio discarded (barge-in).
	Interrupted() <-chan struct{}

	// Err returns the error that ended the session prematurely, or nil for a
	// clean close. Only meaningful after Audio/Transcripts/ToolCalls close.
	Err() error

	// Close ends the session. Safe to call more than once.
	Close() error
}

// Provider opens conversational-agent sessions.
type Provider interface {
	Connect(ctx context.Context, cfg SessionConfig) (Session, error)
}
