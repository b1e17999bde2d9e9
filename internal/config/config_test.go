package config_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/callswarm/internal/config"
)

func TestLoadFromReader_AppliesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("expected default listen_addr, got %q", cfg.Server.ListenAddr)
	}
	if cfg.Calendar.Mode != "mock" {
		t.Errorf("expected default calendar mode mock, got %q", cfg.Calendar.Mode)
	}
	if cfg.Swarm.MaxParallel != 4 {
		t.Errorf("expected default max_parallel 4, got %d", cfg.Swarm.MaxParallel)
	}
	if cfg.Swarm.BusinessStart != 9 || cfg.Swarm.BusinessEnd != 17 {
		t.Errorf("unexpected default business hours: %d-%d", cfg.Swarm.BusinessStart, cfg.Swarm.BusinessEnd)
	}
}

func TestLoadFromReader_RejectsUnknownFields(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("server:\n  bogus_field: true\n"))
	if err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}

func TestLoadFromReader_OverridesDefaults(t *testing.T) {
	t.Parallel()
	yamlDoc := `
server:
  listen_addr: ":9999"
  default_call_mode: simulated
calendar:
  mode: mock
swarm:
  max_parallel: 10
`
	cfg, err := config.LoadFromReader(strings.NewReader(yamlDoc))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":9999" {
		t.Errorf("expected overridden listen_addr, got %q", cfg.Server.ListenAddr)
	}
	if cfg.Swarm.MaxParallel != 10 {
		t.Errorf("expected overridden max_parallel, got %d", cfg.Swarm.MaxParallel)
	}
}
