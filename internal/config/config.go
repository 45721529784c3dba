// Package config handles configuration loading and spdb home resolution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// PasswordEnv overrides Database.Password when set.
const PasswordEnv = "SPDB_DB_PASSWORD"

// ---------------------------------------------------------------------------
// Config types
// ---------------------------------------------------------------------------

// DatabaseConfig holds the connection settings of the account database.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "mysql" | "sqlite3"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"` // #nosec G117 -- database credential, redacted before display
	Schema   string `yaml:"schema"`
	Path     string `yaml:"path"` // sqlite3 only; relative paths resolve against the home dir
}

// LogConfig controls the slog default logger.
type LogConfig struct {
	Level string `yaml:"level"` // "debug" | "info" | "warn" | "error"
}

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: DriverMySQL,
			Host:   "localhost",
			Port:   3306,
			User:   "sp",
			Schema: "sp",
			Path:   "spdb.db",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Validate reports settings that cannot produce a connection.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL:
		if c.Database.Host == "" {
			return fmt.Errorf("config: database.host is required for %s", DriverMySQL)
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("config: database.port %d is out of range", c.Database.Port)
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("config: database.path is required for %s", DriverSQLite)
		}
	default:
		return fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver)
	}
	return nil
}

// Load reads config.yaml from path.
// If the file does not exist it returns Default() with no error.
// Missing keys retain their default values. PasswordEnv, when set, wins
// over the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	if err == nil {
		// Unmarshal into a plain map so we can apply only the keys that are present.
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		applyRaw(cfg, raw)
	}

	if pw, ok := os.LookupEnv(PasswordEnv); ok {
		cfg.Database.Password = pw
	}
	return cfg, nil
}

func applyRaw(cfg *Config, raw map[string]any) {
	if db, ok := raw["database"].(map[string]any); ok {
		if v, ok := db["driver"].(string); ok && v != "" {
			cfg.Database.Driver = v
		}
		if v, ok := db["host"].(string); ok && v != "" {
			cfg.Database.Host = v
		}
		if v, ok := db["port"].(int); ok && v != 0 {
			cfg.Database.Port = v
		}
		if v, ok := db["user"].(string); ok {
			cfg.Database.User = v
		}
		if v, ok := db["password"].(string); ok {
			cfg.Database.Password = v
		}
		if v, ok := db["schema"].(string); ok && v != "" {
			cfg.Database.Schema = v
		}
		if v, ok := db["path"].(string); ok && v != "" {
			cfg.Database.Path = v
		}
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		if v, ok := lg["level"].(string); ok && v != "" {
			cfg.Log.Level = v
		}
	}
}

// Save writes cfg to path as YAML, creating the parent directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

// LoadDotEnv loads <home>/.env into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(home string) error {
	path := filepath.Join(home, ".env")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// ---------------------------------------------------------------------------
// Home resolution
// ---------------------------------------------------------------------------

// globalConfigPath returns the path to the global spdb config file.
// This file stores only the persisted home (and future global settings).
func globalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "spdb", "config.yaml"), nil
}

// normalizePath expands ~ and makes the path absolute.
func normalizePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(os.ExpandEnv(path))
}

// ResolveHome returns the spdb home path and the source of the resolution.
// Priority: SPDB_HOME env → persisted global config → ~/.spdb
// source is one of "env", "config", or "default".
func ResolveHome() (path, source string) {
	if env := os.Getenv("SPDB_HOME"); env != "" {
		p, err := normalizePath(env)
		if err == nil {
			return p, "env"
		}
	}

	if persisted, ok, _ := GetPersistedHome(); ok {
		return persisted, "config"
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".spdb"), "default"
}

// GetHome returns the resolved home path.
func GetHome() string {
	path, _ := ResolveHome()
	return path
}

// GetPersistedHome reads home from the global config.
// Returns ("", false, nil) if not set.
func GetPersistedHome() (string, bool, error) {
	cfgPath, err := globalConfigPath()
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(cfgPath)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return "", false, nil
	}

	val, _ := raw["home"].(string)
	val = strings.TrimSpace(val)
	if val == "" {
		return "", false, nil
	}

	p, err := normalizePath(val)
	if err != nil {
		return "", false, err
	}
	return p, true, nil
}

// SetPersistedHome normalizes path and persists it in the global config.
// Returns the normalized path.
func SetPersistedHome(path string) (string, error) {
	normalized, err := normalizePath(path)
	if err != nil {
		return "", err
	}

	cfgPath, err := globalConfigPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", err
	}

	// Read existing global config, preserving any other keys.
	var raw map[string]any
	if data, err := os.ReadFile(cfgPath); err == nil {
		_ = yaml.Unmarshal(data, &raw)
	}
	if raw == nil {
		raw = make(map[string]any)
	}
	raw["home"] = normalized

	out, err := yaml.Marshal(raw)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(cfgPath, out, 0o600); err != nil {
		return "", err
	}
	return normalized, nil
}
