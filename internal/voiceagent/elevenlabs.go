package voiceagent

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	convaiWSEndpoint  = "wss://api.elevenlabs.io/v1/convai/conversation"
	signedURLEndpoint = "https://api.elevenlabs.io/v1/convai/conversation/get-signed-url"
	signedURLTimeout  = 10 * time.Second
)

// ElevenLabsProvider opens Conversational AI sessions against ElevenLabs'
// Convai WebSocket API.
type ElevenLabsProvider struct {
	agentID    string
	apiKey     string
	httpClient *http.Client
}

// NewElevenLabsProvider returns a Provider backed by the given agent/API key.
func NewElevenLabsProvider(agentID, apiKey string) *ElevenLabsProvider {
	return &ElevenLabsProvider{agentID: agentID, apiKey: apiKey, httpClient: &http.Client{Timeout: signedURLTimeout}}
}

// Connect implements Provider.
func (p *ElevenLabsProvider) Connect(ctx context.Context, cfg SessionConfig) (Session, error) {
	if p.agentID == "" || p.apiKey == "" {
		return nil, errors.New("voiceagent: elevenlabs credentials not configured")
	}

	wsURL := p.signedURL(ctx)
	if wsURL == "" {
		wsURL = fmt.Sprintf("%s?agent_id=%s", convaiWSEndpoint, url.QueryEscape(p.agentID))
		slog.Warn("voiceagent: using unsigned elevenlabs websocket URL, signed URL request failed")
	}

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"https://callswarm.app"}},
	})
	if err != nil {
		return nil, fmt.Errorf("voiceagent: dial convai: %w", err)
	}

	s := newElevenLabsSession(conn)
	if err := s.initiate(ctx, cfg); err != nil {
		conn.Close(websocket.StatusInternalError, "init failed")
		return nil, err
	}

	go s.readLoop(ctx)
	return s, nil
}

func (p *ElevenLabsProvider) signedURL(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signedURLEndpoint+"?agent_id="+url.QueryEscape(p.agentID), nil)
	if err != nil {
		return ""
	}
	req.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var body struct {
		SignedURL string `json:"signed_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ""
	}
	return body.SignedURL
}

type elevenLabsSession struct {
	conn *websocket.Conn

	audio       chan []byte
	transcripts chan TranscriptEntry
	toolCalls   chan ToolCallEvent
	interrupted chan struct{}

	mu     sync.Mutex
	err    error
	closed bool
	done   chan struct{}
}

func newElevenLabsSession(conn *websocket.Conn) *elevenLabsSession {
	return &elevenLabsSession{
		conn:        conn,
		audio:       make(chan []byte, 256),
		transcripts: make(chan TranscriptEntry, 64),
		toolCalls:   make(chan ToolCallEvent, 16),
		interrupted: make(chan struct{}, 4),
		done:        make(chan struct{}),
	}
}

func (s *elevenLabsSession) initiate(ctx context.Context, cfg SessionConfig) error {
	dynamicVars := map[string]string{}
	if cfg.Provider != nil {
		dynamicVars["provider_name"] = cfg.Provider.Name
		dynamicVars["provider_address"] = cfg.Provider.Address
		dynamicVars["system_prompt"] = BuildSystemPrompt(*cfg.Provider, cfg.Request)
		dynamicVars["first_message"] = BuildFirstMessage(*cfg.Provider, cfg.Request)
	}
	dynamicVars["service"] = cfg.Request.Service
	dynamicVars["duration_min"] = fmt.Sprintf("%d", cfg.Request.DurationMinutes)

	init := map[string]any{
		"type":              "conversation_initiation_client_data",
		"dynamic_variables": dynamicVars,
	}
	data, err := json.Marshal(init)
	if err != nil {
		return fmt.Errorf("voiceagent: encode init message: %w", err)
	}
	return s.conn.Write(ctx, websocket.MessageText, data)
}

func (s *elevenLabsSession) readLoop(ctx context.Context) {
	defer close(s.audio)
	defer close(s.transcripts)
	defer close(s.toolCalls)
	defer close(s.done)

	for {
		_, raw, err := s.conn.Read(ctx)
		if err != nil {
			if !s.isClosed() {
				s.setErr(fmt.Errorf("voiceagent: read: %w", err))
			}
			return
		}

		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "audio":
			s.handleAudio(raw)
		case "user_transcript":
			s.handleTranscript(raw, "receptionist", "user_transcription_event", "user_transcript")
		case "agent_response":
			s.handleTranscript(raw, "agent", "agent_response_event", "agent_response")
		case "client_tool_call":
			s.handleToolCall(raw)
		case "ping":
			s.handlePing(ctx, raw)
		case "interruption":
			select {
			case s.interrupted <- struct{}{}:
			default:
			}
		}
	}
}

func (s *elevenLabsSession) handleAudio(raw []byte) {
	var payload struct {
		AudioEvent struct {
			AudioBase64 string `json:"audio_base_64"`
		} `json:"audio_event"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.AudioEvent.AudioBase64 == "" {
		return
	}
	pcm, err := base64.StdEncoding.DecodeString(payload.AudioEvent.AudioBase64)
	if err != nil {
		return
	}
	select {
	case s.audio <- pcm:
	case <-s.done:
	}
}

func (s *elevenLabsSession) handleTranscript(raw []byte, speaker, eventKey, fieldKey string) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	var event map[string]string
	if err := json.Unmarshal(payload[eventKey], &event); err != nil {
		return
	}
	text := event[fieldKey]
	if text == "" {
		return
	}
	select {
	case s.transcripts <- TranscriptEntry{Speaker: speaker, Text: text}:
	case <-s.done:
	}
}

func (s *elevenLabsSession) handleToolCall(raw []byte) {
	var payload struct {
		ClientToolCall struct {
			ToolName   string          `json:"tool_name"`
			ToolCallID string          `json:"tool_call_id"`
			Parameters json.RawMessage `json:"parameters"`
		} `json:"client_tool_call"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	select {
	case s.toolCalls <- ToolCallEvent{
		CallID:    payload.ClientToolCall.ToolCallID,
		Name:      payload.ClientToolCall.ToolName,
		Arguments: payload.ClientToolCall.Parameters,
	}:
	case <-s.done:
	}
}

func (s *elevenLabsSession) handlePing(ctx context.Context, raw []byte) {
	var payload struct {
		PingEvent struct {
			EventID int `json:"event_id"`
			PingMs  int `json:"ping_ms"`
		} `json:"ping_event"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	if payload.PingEvent.PingMs > 0 {
		time.Sleep(time.Duration(payload.PingEvent.PingMs) * time.Millisecond)
	}
	pong, _ := json.Marshal(map[string]any{"type": "pong", "event_id": payload.PingEvent.EventID})
	_ = s.conn.Write(ctx, websocket.MessageText, pong)
}

func (s *elevenLabsSession) SendAudio(pcm []byte) error {
	msg, err := json.Marshal(map[string]string{"user_audio_chunk": base64.StdEncoding.EncodeToString(pcm)})
	if err != nil {
		return err
	}
	return s.conn.Write(context.Background(), websocket.MessageText, msg)
}

func (s *elevenLabsSession) Audio() <-chan []byte                { return s.audio }
func (s *elevenLabsSession) Transcripts() <-chan TranscriptEntry { return s.transcripts }
func (s *elevenLabsSession) ToolCalls() <-chan ToolCallEvent     { return s.toolCalls }
func (s *elevenLabsSession) Interrupted() <-chan struct{}        { return s.interrupted }

func (s *elevenLabsSession) SendToolResult(callID string, resultJSON string, isError bool) error {
	msg, err := json.Marshal(map[string]any{
		"type":         "client_tool_result",
		"tool_call_id": callID,
		"result":       resultJSON,
		"is_error":     isError,
	})
	if err != nil {
		return err
	}
	return s.conn.Write(context.Background(), websocket.MessageText, msg)
}

func (s *elevenLabsSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *elevenLabsSession) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *elevenLabsSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *elevenLabsSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.conn.Close(websocket.StatusNormalClosure, "done")
}
