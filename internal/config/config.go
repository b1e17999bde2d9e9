// Package config provides the configuration schema, loader, and
// hot-reload watcher for the callswarm server.
package config

import "github.com/MrWong99/callswarm/pkg/types"

// Config is the root configuration structure for callswarm.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Calendar   CalendarConfig   `yaml:"calendar"`
	Distance   DistanceConfig   `yaml:"distance"`
	Directory  DirectoryConfig  `yaml:"directory"`
	Telephony  TelephonyConfig  `yaml:"telephony"`
	VoiceAgent VoiceAgentConfig `yaml:"voice_agent"`
	Store      StoreConfig      `yaml:"store"`
	Swarm      SwarmConfig      `yaml:"swarm"`
}

// ServerConfig holds network, logging, and call-mode settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Valid values: "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`

	// PublicBaseURL is the externally reachable base URL used to build
	// Twilio voice-webhook and media-stream callback URLs.
	PublicBaseURL string `yaml:"public_base_url"`

	// DefaultCallMode resolves a campaign's CallModeAuto request: "simulated"
	// routes to the deterministic stand-in driver, "real" to the telephony
	// driver. Defaults to "simulated" so a bare config runs a usable demo.
	DefaultCallMode string `yaml:"default_call_mode"`

	// DefaultTimezone is the IANA zone the simulated driver uses when a
	// campaign leaves timezone unset. The voice agent's calendar tools always
	// read timestamps in this zone; they do not consult the campaign's timezone.
	DefaultTimezone string `yaml:"default_timezone"`
}

// CalendarConfig selects and configures the calendar engine.
type CalendarConfig struct {
	// Mode selects the engine implementation: "mock", "remote", or "user_delegated".
	Mode string `yaml:"mode"`

	// GoogleClientID/GoogleClientSecret configure the OAuth app used to
	// refresh per-user Google Calendar access tokens. Ignored in mock mode.
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
}

// DistanceConfig selects and configures the travel-time estimator.
type DistanceConfig struct {
	// Mode selects the estimator implementation: "mock" or "remote".
	Mode string `yaml:"mode"`

	// GoogleAPIKey authenticates requests to the Google Distance Matrix API.
	// Ignored in mock mode.
	GoogleAPIKey string `yaml:"google_api_key"`

	// CacheSize is loaded and defaulted but not read by the estimator; the
	// remote estimator's LRU cache has a fixed size of 2048 entries.
	CacheSize int `yaml:"cache_size"`
}

// DirectoryConfig selects and configures the provider search backend.
type DirectoryConfig struct {
	// Mode selects the search implementation: "demo" or "remote".
	Mode string `yaml:"mode"`

	// GoogleAPIKey authenticates requests to the Google Places API.
	// Ignored in demo mode.
	GoogleAPIKey string `yaml:"google_api_key"`

	// CacheSize is loaded and defaulted but not read by the searcher; the
	// remote searcher's LRU cache has a fixed size of 512 entries.
	CacheSize int `yaml:"cache_size"`
}

// TelephonyConfig configures the real (Twilio) call driver. The dialer is
// built whenever AccountSID is set, whatever the default call mode; the
// credentials are required only when the default call mode is "real".
type TelephonyConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	CallerID   string `yaml:"caller_id"`
}

// VoiceAgentConfig configures the conversational voice-agent session provider.
type VoiceAgentConfig struct {
	AgentID string `yaml:"agent_id"`
	APIKey  string `yaml:"api_key"`
}

// StoreConfig selects the durable persistence backend mirrored behind the
// in-memory campaign store.
type StoreConfig struct {
	// Backend selects the persister implementation: "none", "json", or "postgres".
	Backend string `yaml:"backend"`

	// JSONDir is the directory campaign documents are written to when
	// Backend is "json".
	JSONDir string `yaml:"json_dir"`

	// PostgresDSN is the connection string used when Backend is "postgres".
	PostgresDSN string `yaml:"postgres_dsn"`
}

// SwarmConfig holds the campaign manager's default tunables. These are
// overridden per-campaign by AppointmentRequest fields when present, and are
// safe to hot-reload via [Watcher] since they only affect campaigns started
// after the change.
type SwarmConfig struct {
	MaxProviders     int                `yaml:"max_providers"`
	MaxParallel      int                `yaml:"max_parallel"`
	MaxTravelMinutes int                `yaml:"max_travel_minutes"`
	BusinessStart    int                `yaml:"business_start_hour"`
	BusinessEnd      int                `yaml:"business_end_hour"`
	Weights          types.ScoreWeights `yaml:"weights"`
}
