package voiceagent

import (
	"context"
	"sync"
)

// MockProvider is a test double for Provider. If Session is nil, Connect
// returns a fresh MockSession with buffered channels.
type MockProvider struct {
	mu sync.Mutex

	Session     Session
	ConnectErr  error
	ConnectCfgs []SessionConfig
}

func (p *MockProvider) Connect(_ context.Context, cfg SessionConfig) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ConnectCfgs = append(p.ConnectCfgs, cfg)
	if p.ConnectErr != nil {
		return nil, p.ConnectErr
	}
	if p.Session != nil {
		return p.Session, nil
	}
	return NewMockSession(), nil
}

// MockSession is a test double for Session. Callers can pre-populate the
// buffered channels to script a conversation, then close them to end it.
type MockSession struct {
	mu sync.Mutex

	AudioCh       chan []byte
	TranscriptsCh chan TranscriptEntry
	ToolCallsCh   chan ToolCallEvent
	InterruptedCh chan struct{}

	SendAudioCalls    [][]byte
	ToolResultCalls   []MockToolResult
	CloseCallCount    int
	SendAudioErr      error
	SendToolResultErr error
	CloseErr          error
	SessionErr        error
}

// MockToolResult records one SendToolResult invocation.
type MockToolResult struct {
	CallID     string
	ResultJSON string
	IsError    bool
}

// NewMockSession returns a MockSession with buffered channels ready to use.
func NewMockSession() *MockSession {
	return &MockSession{
		AudioCh:       make(chan []byte, 64),
		TranscriptsCh: make(chan TranscriptEntry, 16),
		ToolCallsCh:   make(chan ToolCallEvent, 16),
		InterruptedCh: make(chan struct{}, 4),
	}
}

func (s *MockSession) SendAudio(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(pcm))
	copy(cp, pcm)
	s.SendAudioCalls = append(s.SendAudioCalls, cp)
	return s.SendAudioErr
}

func (s *MockSession) Audio() <-chan []byte                { return s.AudioCh }
func (s *MockSession) Transcripts() <-chan TranscriptEntry { return s.TranscriptsCh }
func (s *MockSession) ToolCalls() <-chan ToolCallEvent     { return s.ToolCallsCh }
func (s *MockSession) Interrupted() <-chan struct{}        { return s.InterruptedCh }

func (s *MockSession) SendToolResult(callID string, resultJSON string, isError bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ToolResultCalls = append(s.ToolResultCalls, MockToolResult{CallID: callID, ResultJSON: resultJSON, IsError: isError})
	return s.SendToolResultErr
}

func (s *MockSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.SessionErr
}

func (s *MockSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCallCount++
	return s.CloseErr
}

var (
	_ Provider = (*MockProvider)(nil)
	_ Session  = (*MockSession)(nil)
)
