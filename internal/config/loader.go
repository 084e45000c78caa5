package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/rookhook/rook/internal/hook"
)

// Load reads and parses configuration from a TOML file, validates it, and
// loads every referenced secret file. Any error here is fatal: the server
// refuses to start on a bad config.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.Fingerprint = fingerprint(data)

	return &cfg, nil
}

// applyDefaults fills in values the file may omit.
func applyDefaults(cfg *Config) {
	if cfg.Addr == "" {
		cfg.Addr = "0.0.0.0"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// validate performs schema validation on the configuration. Secret file
// readability is checked later, in BuildHooks.
func validate(cfg *Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535 (got %d)", cfg.Port)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("log_level must be one of: debug, info, warn, error (got %q)", cfg.LogLevel)
	}

	if len(cfg.Hooks) == 0 {
		return fmt.Errorf("no hooks configured")
	}

	pathTypes := make(map[string]string)
	for i, h := range cfg.Hooks {
		if h.URL == "" || h.URL[0] != '/' {
			return fmt.Errorf("hooks[%d]: url must be a non-empty path starting with '/' (got %q)", i, h.URL)
		}
		if h.SecretFile == "" {
			return fmt.Errorf("hooks[%d] (%s): secret_file is required", i, h.URL)
		}
		if h.CommandPath == "" {
			return fmt.Errorf("hooks[%d] (%s): command_path is required", i, h.URL)
		}

		switch h.Type {
		case "github":
			if h.Repo == "" {
				return fmt.Errorf("hooks[%d] (%s): repo is required for github hooks", i, h.URL)
			}
			if len(h.Events) == 0 {
				return fmt.Errorf("hooks[%d] (%s): events is required for github hooks", i, h.URL)
			}
			for _, e := range h.Events {
				if !hook.SupportedEvents[e] {
					return fmt.Errorf("hooks[%d] (%s): unsupported event %q (supported: push, deploy)", i, h.URL, e)
				}
			}
		case "rook":
			if h.Repo != "" || len(h.Events) > 0 {
				return fmt.Errorf("hooks[%d] (%s): repo/events are not valid for rook hooks", i, h.URL)
			}
		default:
			return fmt.Errorf("hooks[%d] (%s): type must be github or rook (got %q)", i, h.URL, h.Type)
		}

		if prev, ok := pathTypes[h.URL]; ok && prev != h.Type {
			return fmt.Errorf("hook path type conflict: %q", h.URL)
		}
		pathTypes[h.URL] = h.Type
	}

	return nil
}

// BuildHooks converts the raw hook entries into hook definitions, reading
// each secret file exactly once. Relative secret file paths resolve against
// the config file's directory.
func BuildHooks(cfg *Config, configPath string) ([]*hook.Hook, error) {
	baseDir := filepath.Dir(configPath)
	if abs, err := filepath.Abs(configPath); err == nil {
		baseDir = filepath.Dir(abs)
	}

	hooks := make([]*hook.Hook, 0, len(cfg.Hooks))
	for i, h := range cfg.Hooks {
		secret, err := readSecret(h.SecretFile, baseDir)
		if err != nil {
			return nil, fmt.Errorf("hooks[%d] (%s): %w", i, h.URL, err)
		}

		def := &hook.Hook{
			URL:     h.URL,
			Secret:  secret,
			Command: h.CommandPath,
		}
		switch h.Type {
		case "github":
			def.Type = hook.TypeGitHub
			def.Repo = h.Repo
			def.Events = make(map[string]bool, len(h.Events))
			for _, e := range h.Events {
				def.Events[e] = true
			}
		case "rook":
			def.Type = hook.TypeRook
		default:
			return nil, fmt.Errorf("hooks[%d] (%s): unknown hook type %q", i, h.URL, h.Type)
		}
		hooks = append(hooks, def)
	}
	return hooks, nil
}

// readSecret loads and trims a shared secret file.
func readSecret(path, baseDir string) ([]byte, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret at %q: %w", path, err)
	}
	secret := bytes.TrimSpace(data)
	if len(secret) == 0 {
		return nil, fmt.Errorf("secret at %q is empty", path)
	}
	return secret, nil
}
