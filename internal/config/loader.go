package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// validModes lists the known mode values per configurable backend, used by
// [Validate] to reject unrecognised names.
var validModes = map[string][]string{
	"calendar":  {"mock", "remote", "user_delegated"},
	"distance":  {"mock", "remote"},
	"directory": {"demo", "remote"},
	"store":     {"none", "json", "postgres"},
	"call_mode": {"simulated", "real"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in zero-valued fields with sane operating defaults,
// so a near-empty config file still runs a usable demo server.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Server.DefaultCallMode == "" {
		cfg.Server.DefaultCallMode = "simulated"
	}
	if cfg.Server.DefaultTimezone == "" {
		cfg.Server.DefaultTimezone = "America/New_York"
	}
	if cfg.Calendar.Mode == "" {
		cfg.Calendar.Mode = "mock"
	}
	if cfg.Distance.Mode == "" {
		cfg.Distance.Mode = "mock"
	}
	if cfg.Distance.CacheSize == 0 {
		cfg.Distance.CacheSize = 512
	}
	if cfg.Directory.Mode == "" {
		cfg.Directory.Mode = "demo"
	}
	if cfg.Directory.CacheSize == 0 {
		cfg.Directory.CacheSize = 256
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "none"
	}
	if cfg.Swarm.MaxProviders == 0 {
		cfg.Swarm.MaxProviders = 8
	}
	if cfg.Swarm.MaxParallel == 0 {
		cfg.Swarm.MaxParallel = 4
	}
	if cfg.Swarm.MaxTravelMinutes == 0 {
		cfg.Swarm.MaxTravelMinutes = 45
	}
	if cfg.Swarm.BusinessStart == 0 {
		cfg.Swarm.BusinessStart = 9
	}
	if cfg.Swarm.BusinessEnd == 0 {
		cfg.Swarm.BusinessEnd = 17
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !validLogLevel(cfg.Server.LogLevel) {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	validateMode("calendar", cfg.Calendar.Mode, &errs)
	validateMode("distance", cfg.Distance.Mode, &errs)
	validateMode("directory", cfg.Directory.Mode, &errs)
	validateMode("store", cfg.Store.Backend, &errs)
	validateMode("call_mode", cfg.Server.DefaultCallMode, &errs)

	if cfg.Server.DefaultCallMode == "real" {
		if cfg.Telephony.AccountSID == "" || cfg.Telephony.AuthToken == "" {
			errs = append(errs, errors.New("telephony.account_sid and telephony.auth_token are required when server.default_call_mode is real"))
		}
		if cfg.Server.PublicBaseURL == "" {
			errs = append(errs, errors.New("server.public_base_url is required when server.default_call_mode is real"))
		}
	}

	if cfg.Calendar.Mode == "remote" || cfg.Calendar.Mode == "user_delegated" {
		if cfg.Calendar.GoogleClientID == "" || cfg.Calendar.GoogleClientSecret == "" {
			slog.Warn("calendar.mode requires OAuth credentials but none are configured", "mode", cfg.Calendar.Mode)
		}
	}
	if cfg.Distance.Mode == "remote" && cfg.Distance.GoogleAPIKey == "" {
		slog.Warn("distance.mode is remote but distance.google_api_key is empty")
	}
	if cfg.Directory.Mode == "remote" && cfg.Directory.GoogleAPIKey == "" {
		slog.Warn("directory.mode is remote but directory.google_api_key is empty")
	}
	if cfg.Store.Backend == "json" && cfg.Store.JSONDir == "" {
		errs = append(errs, errors.New("store.json_dir is required when store.backend is json"))
	}
	if cfg.Store.Backend == "postgres" && cfg.Store.PostgresDSN == "" {
		errs = append(errs, errors.New("store.postgres_dsn is required when store.backend is postgres"))
	}
	if cfg.VoiceAgent.AgentID == "" && cfg.Server.DefaultCallMode == "real" {
		slog.Warn("voice_agent.agent_id is empty; real calls will have no conversational agent to bridge to")
	}

	if cfg.Swarm.BusinessStart < 0 || cfg.Swarm.BusinessStart > 23 {
		errs = append(errs, fmt.Errorf("swarm.business_start_hour %d is out of range [0, 23]", cfg.Swarm.BusinessStart))
	}
	if cfg.Swarm.BusinessEnd < 0 || cfg.Swarm.BusinessEnd > 23 {
		errs = append(errs, fmt.Errorf("swarm.business_end_hour %d is out of range [0, 23]", cfg.Swarm.BusinessEnd))
	}
	if cfg.Swarm.BusinessStart >= cfg.Swarm.BusinessEnd {
		errs = append(errs, fmt.Errorf("swarm.business_start_hour %d must be before business_end_hour %d", cfg.Swarm.BusinessStart, cfg.Swarm.BusinessEnd))
	}
	if cfg.Swarm.MaxParallel <= 0 {
		errs = append(errs, fmt.Errorf("swarm.max_parallel %d must be positive", cfg.Swarm.MaxParallel))
	}

	return errors.Join(errs...)
}

func validLogLevel(level string) bool {
	switch level {
	case "", "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateMode appends an error to *errs if name is non-empty and not
// found in the validModes list for the given kind.
func validateMode(kind, name string, errs *[]error) {
	if name == "" {
		return
	}
	known, ok := validModes[kind]
	if !ok {
		return
	}
	for _, m := range known {
		if m == name {
			return
		}
	}
	field := "mode"
	switch kind {
	case "store":
		field = "backend"
	case "call_mode":
		field = "default_call_mode"
		kind = "server"
	}
	*errs = append(*errs, fmt.Errorf("%s.%s %q is invalid; valid values: %v", kind, field, name, known))
}
