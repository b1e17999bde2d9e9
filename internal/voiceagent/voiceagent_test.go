package voiceagent

import (
	"context"
	"strings"
	"testing"

	"github.com/MrWong99/callswarm/pkg/types"
)

func TestMockProvider_ConnectReturnsDefaultSession(t *testing.T) {
	t.Parallel()
	p := &MockProvider{}
	sess, err := p.Connect(context.Background(), SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if sess == nil {
		t.Fatal("expected a non-nil session")
	}
	if len(p.ConnectCfgs) != 1 {
		t.Fatalf("expected one recorded config, got %d", len(p.ConnectCfgs))
	}
}

func TestMockSession_SendToolResultRecordsCall(t *testing.T) {
	t.Parallel()
	sess := NewMockSession()
	if err := sess.SendToolResult("call-1", `{"ok":true}`, false); err != nil {
		t.Fatalf("SendToolResult: %v", err)
	}
	if len(sess.ToolResultCalls) != 1 || sess.ToolResultCalls[0].CallID != "call-1" {
		t.Fatalf("unexpected tool result calls: %+v", sess.ToolResultCalls)
	}
}

func TestBuildSystemPrompt_IncludesProviderAndClient(t *testing.T) {
	t.Parallel()
	provider := types.Provider{Name: "Bright Smile Dental", Address: "1 Main St"}
	req := types.AppointmentRequest{Service: "dentist", ClientName: "Alex", DurationMinutes: 30}

	prompt := BuildSystemPrompt(provider, req)
	if prompt == "" {
		t.Fatal("expected non-empty prompt")
	}
	if !strings.Contains(prompt, "Bright Smile Dental") || !strings.Contains(prompt, "Alex") {
		t.Fatalf("prompt is missing the provider or client name: %q", prompt)
	}
}

func TestBuildFirstMessage_DefaultsClientName(t *testing.T) {
	t.Parallel()
	provider := types.Provider{Name: "Bright Smile Dental"}
	req := types.AppointmentRequest{Service: "dentist"}

	msg := BuildFirstMessage(provider, req)
	if msg == "" {
		t.Fatal("expected non-empty message")
	}
	if !strings.Contains(msg, "on behalf of my client") {
		t.Fatalf("expected the default client name in %q", msg)
	}
}
