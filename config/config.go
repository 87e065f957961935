// Package config loads espx-ls.toml, the workspace-local
// configuration file, applying documented defaults for anything the
// file omits. A missing file is valid and yields pure defaults.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/lexcodex/espxls/espxerr"
)

// FileName is the configuration file's name inside a workspace root.
const FileName = "espx-ls.toml"

// ModelConfig is the `[model]` table.
type ModelConfig struct {
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
}

// DatabaseConfig is the `[database]` table. The field names follow
// the document-database surface the persistence layer models, even
// though the concrete engine is sqlite.
type DatabaseConfig struct {
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	User      string `toml:"user"`
	Pass      string `toml:"pass"`
}

// ScopeConfig is one `[scopes.<char>]` entry.
type ScopeConfig struct {
	SysPrompt string `toml:"sys_prompt"`
}

// Config mirrors espx-ls.toml exactly.
type Config struct {
	Model    ModelConfig            `toml:"model"`
	Database DatabaseConfig         `toml:"database"`
	Scopes   map[string]ScopeConfig `toml:"scopes"`
}

// MaxCustomScopes is the registry's hard ceiling: the 4-bit scope
// field holds 16 slots, two of which are reserved for Global and
// Document.
const MaxCustomScopes = 14

// Defaults returns a Config with every optional field at its
// documented default.
func Defaults() Config {
	return Config{
		Database: DatabaseConfig{
			Namespace: "default_namespace",
			Database:  "default_database",
			User:      "root",
			Pass:      "root",
		},
		Scopes: map[string]ScopeConfig{},
	}
}

// Load reads and parses path, filling in documented defaults for any
// field the file omits. A missing file is not an error: Load returns
// Defaults() so the server can still boot without a configured
// provider until one is needed.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("%w: %v", espxerr.ErrConfig, err)
	}

	// Parse into a copy seeded with defaults so TOML's decoder only
	// overwrites fields the file actually sets.
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", espxerr.ErrConfig, err)
	}
	return cfg, validate(cfg)
}

func validate(cfg Config) error {
	switch cfg.Model.Provider {
	case "", "OpenAi", "Anthropic":
	default:
		return fmt.Errorf("%w: unknown provider %q", espxerr.ErrConfig, cfg.Model.Provider)
	}
	if len(cfg.Scopes) > MaxCustomScopes {
		return fmt.Errorf("%w: %d custom scopes configured, max %d", espxerr.ErrConfig, len(cfg.Scopes), MaxCustomScopes)
	}
	for ch := range cfg.Scopes {
		if len([]rune(ch)) != 1 {
			return fmt.Errorf("%w: scope key %q must be a single character", espxerr.ErrConfig, ch)
		}
	}
	return nil
}
