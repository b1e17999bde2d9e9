// Package dispatcher routes tool calls made by the voice agent during a
// live call to the handler registered for that tool name, the same
// host/bridge split used elsewhere in this codebase for routing calls
// into domain logic with a bounded timeout per call.
package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrWong99/callswarm/pkg/types"
)

// defaultToolTimeout bounds how long a single tool call may run before the
// dispatcher gives up and reports an error back to the voice agent.
const defaultToolTimeout = 30 * time.Second

// CallContext carries the campaign/provider identity a tool call was made
// within, so handlers can resolve campaign state without threading extra
// parameters through every call site.
type CallContext struct {
	CampaignID string
	ProviderID string
}

// Handler implements one tool's behavior. args is the raw JSON object the
// voice agent supplied as tool parameters; the return value is marshaled
// to JSON and sent back as the tool result.
type Handler func(ctx context.Context, call CallContext, args json.RawMessage) (any, error)

// Tool pairs a tool's wire definition with its handler.
type Tool struct {
	Definition types.ToolDefinition
	Handler    Handler
}

// Dispatcher holds the registered tool set for a campaign's calls and
// enforces a timeout on every dispatch.
type Dispatcher struct {
	tools       map[string]Tool
	toolTimeout time.Duration
}

// Option configures a Dispatcher during construction.
type Option func(*Dispatcher)

// WithToolTimeout overrides the default per-call timeout.
func WithToolTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) { disp.toolTimeout = d }
}

// New returns a Dispatcher with the given tools registered.
func New(tools []Tool, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		tools:       make(map[string]Tool, len(tools)),
		toolTimeout: defaultToolTimeout,
	}
	for _, t := range tools {
		d.tools[t.Definition.Name] = t
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Definitions returns the wire definitions for every registered tool, in
// the shape the voice agent session expects at call start.
func (d *Dispatcher) Definitions() []types.ToolDefinition {
	defs := make([]types.ToolDefinition, 0, len(d.tools))
	for _, t := range d.tools {
		defs = append(defs, t.Definition)
	}
	return defs
}

// Dispatch runs the named tool against args, enforcing the dispatcher's
// timeout. It returns the JSON-marshaled result and whether the call
// errored, matching the shape the telephony bridge sends back to the voice
// agent as a tool result.
func (d *Dispatcher) Dispatch(ctx context.Context, call CallContext, name string, args json.RawMessage) (resultJSON string, isError bool) {
	tool, ok := d.tools[name]
	if !ok {
		slog.Warn("dispatcher: unknown tool called", "tool", name)
		return encodeError(fmt.Errorf("unknown tool: %s", name)), true
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("dispatcher: tool panicked", "tool", name, "panic", r)
			resultJSON, isError = encodeError(fmt.Errorf("tool %s encountered an error", name)), true
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.toolTimeout)
	defer cancel()

	result, err := tool.Handler(ctx, call, args)
	if err != nil {
		slog.Warn("dispatcher: tool failed", "tool", name, "error", err)
		return encodeError(fmt.Errorf("tool %s encountered an error", name)), true
	}

	data, err := json.Marshal(result)
	if err != nil {
		slog.Warn("dispatcher: tool result marshal failed", "tool", name, "error", err)
		return encodeError(fmt.Errorf("tool %s produced an unencodable result", name)), true
	}
	return string(data), false
}

func encodeError(err error) string {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(data)
}
