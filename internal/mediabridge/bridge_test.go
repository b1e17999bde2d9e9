package mediabridge

import (
	"testing"

	"github.com/MrWong99/callswarm/pkg/types"
)

func TestPreBridgeOutcome(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status       string
		wantOutcome  types.CallOutcome
		wantTerminal bool
	}{
		{"no-answer", types.OutcomeNoAnswer, true},
		{"busy", types.OutcomeBusy, true},
		{"failed", types.OutcomeFailed, true},
		{"canceled", types.OutcomeFailed, true},
		{"ringing", "", false},
		{"in-progress", "", false},
		{"completed", "", false},
	}

	for _, c := range cases {
		outcome, terminal := preBridgeOutcome(c.status)
		if outcome != c.wantOutcome || terminal != c.wantTerminal {
			t.Errorf("preBridgeOutcome(%q) = (%q, %v), want (%q, %v)", c.status, outcome, terminal, c.wantOutcome, c.wantTerminal)
		}
	}
}

func TestSnippet_TruncatesToLastLines(t *testing.T) {
	t.Parallel()

	lines := make([]string, transcriptLineLimit+5)
	for i := range lines {
		lines[i] = "line"
	}
	lines[len(lines)-1] = "last"

	got := snippet(lines)
	wantLines := transcriptLineLimit
	if gotLines := len(splitLines(got)); gotLines != wantLines {
		t.Errorf("snippet kept %d lines, want %d", gotLines, wantLines)
	}
	if got == "" || got[len(got)-4:] != "last" {
		t.Errorf("snippet() = %q, want it to end with the most recent line", got)
	}
}

func TestSnippet_TruncatesToByteLimit(t *testing.T) {
	t.Parallel()

	long := make([]byte, snippetByteLimit*2)
	for i := range long {
		long[i] = 'x'
	}
	got := snippet([]string{string(long)})
	if len(got) != snippetByteLimit {
		t.Errorf("snippet byte length = %d, want %d", len(got), snippetByteLimit)
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func TestExtractOffers(t *testing.T) {
	t.Parallel()

	args := []byte(`{"message": "booked", "data": {"offers": [
		{"start": "2026-08-01T09:00:00Z", "end": "2026-08-01T09:30:00Z", "notes": "morning slot", "confidence": 0.9},
		{"start": "2026-08-01T14:00:00Z", "end": "2026-08-01T14:30:00Z", "notes": "afternoon slot"}
	]}}`)

	offers := extractOffers(args, "provider-1")
	if len(offers) != 2 {
		t.Fatalf("got %d offers, want 2", len(offers))
	}
	if offers[0].Confidence != 0.9 {
		t.Errorf("offers[0].Confidence = %v, want 0.9", offers[0].Confidence)
	}
	if offers[1].Confidence != 0.8 {
		t.Errorf("offers[1].Confidence = %v, want default 0.8", offers[1].Confidence)
	}
	for _, o := range offers {
		if o.ProviderID != "provider-1" {
			t.Errorf("offer.ProviderID = %q, want provider-1", o.ProviderID)
		}
	}
}

func TestExtractOffers_NoOffersField(t *testing.T) {
	t.Parallel()

	offers := extractOffers([]byte(`{"message": "just chatting"}`), "provider-1")
	if len(offers) != 0 {
		t.Errorf("got %d offers, want 0", len(offers))
	}
}

func TestExtractOffers_MalformedJSON(t *testing.T) {
	t.Parallel()

	offers := extractOffers([]byte(`not json`), "provider-1")
	if offers != nil {
		t.Errorf("got %v, want nil for malformed arguments", offers)
	}
}

func TestProviderNames(t *testing.T) {
	t.Parallel()

	providers := []types.Provider{
		{ID: "p1", Name: "Riverside Clinic"},
		{ID: "p2", Name: "Sunrise Dental"},
	}
	names := providerNames(providers)
	want := []string{"Riverside Clinic", "Sunrise Dental"}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d", len(names), len(want))
	}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("names[%d] = %q, want %q", i, names[i], n)
		}
	}
}
