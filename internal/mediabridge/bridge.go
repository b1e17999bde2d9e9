// Package mediabridge connects an answered Twilio call's bidirectional media
// stream to a voiceagent.Session: audio from the caller flows into the
// session, synthesized audio flows back to the caller, and tool calls the
// agent makes mid-call are routed through a dispatcher.Dispatcher. When the
// stream ends, the bridge derives a types.CallResult and hands it back to
// the store so any goroutine blocked in call.RealDriver.Call can proceed.
package mediabridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/callswarm/internal/dispatcher"
	"github.com/MrWong99/callswarm/internal/store"
	"github.com/MrWong99/callswarm/internal/telephony"
	"github.com/MrWong99/callswarm/internal/transcript"
	"github.com/MrWong99/callswarm/internal/transcript/phonetic"
	"github.com/MrWong99/callswarm/internal/voiceagent"
	"github.com/MrWong99/callswarm/pkg/types"
)

// transcriptLineLimit and snippetByteLimit match the finalized call result
// the reference backend records: the last 10 transcript lines, truncated to
// 500 bytes.
const (
	transcriptLineLimit = 10
	snippetByteLimit    = 500
)

// Bridge supervises Twilio Media Stream WebSocket connections and pairs
// each one with a voiceagent.Session for the lifetime of a single call.
type Bridge struct {
	Agent      voiceagent.Provider
	Dispatcher *dispatcher.Dispatcher
	Store      *store.MemStore

	// Transcript corrects mishearings of provider business names in the
	// recorded transcript snippet before it's stored. Never nil once built
	// via New.
	Transcript transcript.Pipeline
}

// New returns a Bridge wired to the given collaborators.
func New(agent voiceagent.Provider, disp *dispatcher.Dispatcher, st *store.MemStore) *Bridge {
	return &Bridge{
		Agent:      agent,
		Dispatcher: disp,
		Store:      st,
		Transcript: transcript.NewPipeline(transcript.WithPhoneticMatcher(phonetic.New())),
	}
}

// Handler returns the HTTP handler Twilio connects to once a call is
// answered with the TwiML from telephony.BuildTwiML: it upgrades to a
// WebSocket and runs the bridge for the connection's lifetime.
func (b *Bridge) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaignID := r.URL.Query().Get("campaign_id")
		providerID := r.URL.Query().Get("provider_id")

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			slog.Error("mediabridge: websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		b.run(r.Context(), conn, campaignID, providerID)
	}
}

// VoiceHandler returns the HTTP handler Twilio requests when an outbound
// call is answered: it responds with TwiML that plays a brief disclosure
// and connects the call into this bridge's media stream.
func (b *Bridge) VoiceHandler(streamBaseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		streamURL := fmt.Sprintf("%s?campaign_id=%s&provider_id=%s",
			streamBaseURL, r.URL.Query().Get("campaign_id"), r.URL.Query().Get("provider_id"))
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(telephony.BuildTwiML(streamURL)))
	}
}

// StatusHandler returns the HTTP handler Twilio posts call-status callbacks
// to. It only needs to act on terminal statuses that end a call before the
// media stream ever starts (no answer, busy, a dial failure, or the caller
// cancelling) — a call that reaches "completed" is finalized by the bridge
// itself once the stream closes.
func (b *Bridge) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		providerID := r.URL.Query().Get("provider_id")
		callSID := r.FormValue("CallSid")
		status := r.FormValue("CallStatus")

		outcome, terminal := preBridgeOutcome(status)
		if terminal {
			if _, ok := b.Store.GetCall(callSID); ok {
				b.Store.CompleteCall(callSID, types.CallResult{
					ProviderID: providerID,
					CallID:     callSID,
					Outcome:    outcome,
					Notes:      fmt.Sprintf("call ended before media stream started: %s", status),
				})
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}

// preBridgeOutcome maps a Twilio CallStatus to a CallResult outcome for
// calls that never reached the media stream. The second return value is
// false for statuses that don't end the call (e.g. "ringing").
func preBridgeOutcome(status string) (types.CallOutcome, bool) {
	switch status {
	case "no-answer":
		return types.OutcomeNoAnswer, true
	case "busy":
		return types.OutcomeBusy, true
	case "failed", "canceled":
		return types.OutcomeFailed, true
	default:
		return "", false
	}
}

// bridgeState accumulates everything the handler observes over one call so
// the deferred finalization step can derive an outcome from it.
type bridgeState struct {
	streamSID  string
	callSID    string
	transcript []string
	offers     []types.SlotOffer
}

// run drives one Twilio connection end to end: resolving campaign/provider
// context, opening the agent session, bridging audio and tools in both
// directions, and finalizing the call result once the stream ends.
func (b *Bridge) run(ctx context.Context, conn *websocket.Conn, campaignID, providerID string) {
	campaign, ok := b.Store.GetCampaign(ctx, campaignID)
	if !ok {
		slog.Error("mediabridge: campaign not found", "campaign_id", campaignID)
		conn.Close(websocket.StatusPolicyViolation, "unknown campaign")
		return
	}

	var provider *types.Provider
	for i := range campaign.Providers {
		if campaign.Providers[i].ID == providerID {
			provider = &campaign.Providers[i]
			break
		}
	}

	session, err := b.Agent.Connect(ctx, voiceagent.SessionConfig{
		Provider: provider,
		Request:  campaign.Request,
		Tools:    b.Dispatcher.Definitions(),
	})
	if err != nil {
		slog.Error("mediabridge: agent session failed", "error", err, "campaign_id", campaignID, "provider_id", providerID)
		conn.Close(websocket.StatusInternalError, "agent session failed")
		return
	}
	defer session.Close()

	state := &bridgeState{}
	callCtx := dispatcher.CallContext{CampaignID: campaignID, ProviderID: providerID}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return b.twilioToAgent(groupCtx, conn, session, state) })
	group.Go(func() error { return b.agentToTwilio(groupCtx, conn, session, callCtx, state) })

	bridgeErr := group.Wait()
	b.finalize(ctx, providerID, providerNames(campaign.Providers), state, bridgeErr)
}

// providerNames collects every provider business name in a campaign, used as
// the known-entity list for transcript correction.
func providerNames(providers []types.Provider) []string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name
	}
	return names
}

// twilioToAgent reads Twilio Media Stream frames and forwards caller audio
// into the agent session. It returns when Twilio sends a stop event, the
// connection drops, or ctx is cancelled by the other bridge direction.
func (b *Bridge) twilioToAgent(ctx context.Context, conn *websocket.Conn, session voiceagent.Session, state *bridgeState) error {
	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("mediabridge: read twilio frame: %w", err)
		}

		var msg twilioEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		switch msg.Event {
		case "start":
			state.streamSID = msg.StreamSID
			state.callSID = msg.Start.CallSID
			slog.Info("mediabridge: twilio stream started", "stream_sid", state.streamSID, "call_sid", state.callSID)
		case "media":
			if msg.Media.Payload == "" {
				continue
			}
			mulaw, err := base64.StdEncoding.DecodeString(msg.Media.Payload)
			if err != nil {
				continue
			}
			if err := session.SendAudio(telephony.MulawToPCM16(mulaw)); err != nil {
				return fmt.Errorf("mediabridge: forward audio to agent: %w", err)
			}
		case "stop":
			slog.Info("mediabridge: twilio stream stopped", "stream_sid", state.streamSID)
			return nil
		case "connected", "mark":
			// no action required
		}
	}
}

// agentToTwilio reads the agent's synthesized audio, transcripts, and tool
// calls, forwarding audio back to the caller and dispatching tools through
// the campaign's dispatcher. It returns when the session closes or ctx is
// cancelled by the other bridge direction.
func (b *Bridge) agentToTwilio(ctx context.Context, conn *websocket.Conn, session voiceagent.Session, call dispatcher.CallContext, state *bridgeState) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case pcm, ok := <-session.Audio():
			if !ok {
				return session.Err()
			}
			if state.streamSID == "" {
				continue
			}
			payload := base64.StdEncoding.EncodeToString(telephony.PCM16ToMulaw(pcm))
			frame, _ := json.Marshal(twilioMediaOut{Event: "media", StreamSID: state.streamSID, Media: twilioMediaPayload{Payload: payload}})
			if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
				return fmt.Errorf("mediabridge: write twilio frame: %w", err)
			}

		case entry, ok := <-session.Transcripts():
			if !ok {
				continue
			}
			state.transcript = append(state.transcript, fmt.Sprintf("%s: %s", entry.Speaker, entry.Text))

		case tc, ok := <-session.ToolCalls():
			if !ok {
				continue
			}
			resultJSON, isError := b.Dispatcher.Dispatch(ctx, call, tc.Name, tc.Arguments)
			if tc.Name == "log_event" && !isError {
				state.offers = append(state.offers, extractOffers(tc.Arguments, call.ProviderID)...)
			}
			if err := session.SendToolResult(tc.CallID, resultJSON, isError); err != nil {
				return fmt.Errorf("mediabridge: send tool result: %w", err)
			}

		case <-session.Interrupted():
			if state.streamSID == "" {
				continue
			}
			clear, _ := json.Marshal(map[string]string{"event": "clear", "streamSid": state.streamSID})
			_ = conn.Write(ctx, websocket.MessageText, clear)
		}
	}
}

// finalize derives the call's outcome from what the bridge observed and
// records it against the call's store mapping, matching the reference
// backend's rule: a bridge error with no collected offers fails the call,
// any collected offers count as success, otherwise the call completed
// without a match.
func (b *Bridge) finalize(ctx context.Context, providerID string, providerNames []string, state *bridgeState, bridgeErr error) {
	outcome := types.OutcomeCompletedNoMatch
	switch {
	case bridgeErr != nil && len(state.offers) == 0:
		outcome = types.OutcomeFailed
	case len(state.offers) > 0:
		outcome = types.OutcomeSuccess
	}

	if bridgeErr != nil {
		slog.Warn("mediabridge: bridge ended with error", "error", bridgeErr, "call_sid", state.callSID)
	}

	transcriptSnippet := snippet(state.transcript)
	if corrected, err := b.Transcript.Correct(ctx, transcriptSnippet, providerNames); err != nil {
		slog.Warn("mediabridge: transcript correction failed", "error", err, "call_sid", state.callSID)
	} else {
		transcriptSnippet = corrected.Corrected
	}

	result := types.CallResult{
		ProviderID:        providerID,
		CallID:            state.callSID,
		Outcome:           outcome,
		Offers:            state.offers,
		TranscriptSnippet: transcriptSnippet,
		Notes:             fmt.Sprintf("call completed at %s", time.Now().UTC().Format(time.RFC3339)),
	}

	if _, ok := b.Store.GetCall(state.callSID); ok {
		b.Store.CompleteCall(state.callSID, result)
	} else {
		slog.Info("mediabridge: call complete with no mapping", "call_sid", state.callSID, "outcome", outcome, "offers", len(state.offers))
	}
}

// snippet joins the last transcriptLineLimit transcript lines and truncates
// the result to snippetByteLimit bytes.
func snippet(lines []string) string {
	if len(lines) > transcriptLineLimit {
		lines = lines[len(lines)-transcriptLineLimit:]
	}
	joined := strings.Join(lines, "\n")
	if len(joined) > snippetByteLimit {
		joined = joined[:snippetByteLimit]
	}
	return joined
}

// extractOffers pulls a data.offers array out of a log_event tool call's
// raw JSON arguments, tolerating the field being entirely absent.
func extractOffers(args []byte, providerID string) []types.SlotOffer {
	var payload struct {
		Data struct {
			Offers []struct {
				Start      time.Time `json:"start"`
				End        time.Time `json:"end"`
				Notes      string    `json:"notes"`
				Confidence float64   `json:"confidence"`
			} `json:"offers"`
		} `json:"data"`
	}
	if err := json.Unmarshal(args, &payload); err != nil {
		return nil
	}

	offers := make([]types.SlotOffer, 0, len(payload.Data.Offers))
	for _, o := range payload.Data.Offers {
		confidence := o.Confidence
		if confidence == 0 {
			confidence = 0.8
		}
		offers = append(offers, types.SlotOffer{
			ProviderID: providerID,
			Start:      o.Start,
			End:        o.End,
			Notes:      o.Notes,
			Confidence: confidence,
		})
	}
	return offers
}

// twilioEvent is the subset of Twilio Media Stream message fields the
// bridge reads from inbound frames.
type twilioEvent struct {
	Event     string `json:"event"`
	StreamSID string `json:"streamSid"`
	Start     struct {
		CallSID string `json:"callSid"`
	} `json:"start"`
	Media struct {
		Payload string `json:"payload"`
	} `json:"media"`
}

type twilioMediaOut struct {
	Event     string             `json:"event"`
	StreamSID string             `json:"streamSid"`
	Media     twilioMediaPayload `json:"media"`
}

type twilioMediaPayload struct {
	Payload string `json:"payload"`
}
