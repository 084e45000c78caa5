package config

import (
	"net"
	"strconv"
)

// Config is the full server configuration, parsed from a single TOML file.
// It is constructed once at startup and never mutated afterwards.
type Config struct {
	// Addr is the listen address (default "0.0.0.0").
	Addr string `toml:"addr"`

	// Port is the TCP port to bind. Required.
	Port int `toml:"port"`

	// LogLevel is one of debug, info, warn, error (default "info").
	LogLevel string `toml:"log_level"`

	// Journal optionally enables the SQLite dispatch journal.
	Journal JournalConfig `toml:"journal"`

	// Hooks is the ordered list of hook entries.
	Hooks []HookConfig `toml:"hooks"`

	// Fingerprint is the BLAKE3 hash of the raw config file, computed at
	// load time. Not part of the TOML schema.
	Fingerprint string `toml:"-"`
}

// JournalConfig configures the optional dispatch journal. An empty Path
// disables recording.
type JournalConfig struct {
	Path string `toml:"path"`
}

// HookConfig is one raw [[hooks]] entry.
type HookConfig struct {
	// Type is "github" or "rook".
	Type string `toml:"type"`

	// URL is the request path this hook listens on.
	URL string `toml:"url"`

	// SecretFile points at a file whose trimmed contents are the shared
	// HMAC secret. Relative paths resolve against the config file's
	// directory.
	SecretFile string `toml:"secret_file"`

	// CommandPath is the executable to launch on a verified match.
	CommandPath string `toml:"command_path"`

	// Repo is the exact repository full name to match (github hooks only).
	Repo string `toml:"repo"`

	// Events is the set of accepted event types (github hooks only).
	Events []string `toml:"events"`
}

// ListenAddr returns the host:port string to bind.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Addr, strconv.Itoa(c.Port))
}
