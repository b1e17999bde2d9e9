package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked — changes to
// telephony/calendar/directory credentials require a process restart since
// the collaborators built from them are constructed once at startup.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     string

	SwarmChanged bool
	NewSwarm     SwarmConfig
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Swarm != new.Swarm {
		d.SwarmChanged = true
		d.NewSwarm = new.Swarm
	}

	return d
}
