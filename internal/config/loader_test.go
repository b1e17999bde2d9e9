package config_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/callswarm/internal/config"
)

func TestValidate_RejectsBadLogLevel(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("server:\n  log_level: verbose\n"))
	if err == nil {
		t.Fatal("expected an error for an invalid log_level")
	}
}

func TestValidate_RejectsUnknownCalendarMode(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("calendar:\n  mode: outlook\n"))
	if err == nil {
		t.Fatal("expected an error for an unknown calendar mode")
	}
}

func TestValidate_RequiresTelephonyCredentialsForRealCalls(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("server:\n  default_call_mode: real\n"))
	if err == nil {
		t.Fatal("expected an error when real calls are requested without telephony credentials")
	}
}

func TestValidate_RequiresJSONDirForJSONStore(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("store:\n  backend: json\n"))
	if err == nil {
		t.Fatal("expected an error for json store backend with no json_dir")
	}
}

func TestValidate_RejectsInvertedBusinessHours(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("swarm:\n  business_start_hour: 18\n  business_end_hour: 9\n"))
	if err == nil {
		t.Fatal("expected an error for inverted business hours")
	}
}

func TestValidate_AcceptsMinimalSimulatedConfig(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("server:\n  default_call_mode: simulated\n"))
	if err != nil {
		t.Fatalf("expected a minimal simulated config to validate, got: %v", err)
	}
}
