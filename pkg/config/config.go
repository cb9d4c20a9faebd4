// Package config loads the biogate configuration from a TOML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/go-ctap/biogate/pkg/authn"
	"github.com/go-ctap/biogate/pkg/keystore"
	"github.com/go-ctap/biogate/pkg/options"
)

// Duration is a time.Duration written as "30s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Prompt   PromptConfig   `toml:"prompt"`
	Lockout  LockoutConfig  `toml:"lockout"`
	Keystore KeystoreConfig `toml:"keystore"`
	Platform PlatformConfig `toml:"platform"`
	Logging  LoggingConfig  `toml:"logging"`
}

type PromptConfig struct {
	Title               string `toml:"title"`
	Subtitle            string `toml:"subtitle"`
	Description         string `toml:"description"`
	NegativeButtonLabel string `toml:"negative_button_label"`
	RequireConfirmation bool   `toml:"require_confirmation"`
}

type LockoutConfig struct {
	Cooldown Duration `toml:"cooldown"`
}

// Keystore backends.
const (
	BackendMemory  = "memory"
	BackendFile    = "file"
	BackendKeyring = "keyring"
)

type KeystoreConfig struct {
	Backend string `toml:"backend"`
	Alias   string `toml:"alias"`
	// Path is the key file of the file backend.
	Path string `toml:"path"`
	// Service is the keyring service name of the keyring backend.
	Service string `toml:"service"`
}

// Platform backends.
const (
	PlatformFIDO    = "fido"
	PlatformFprintd = "fprintd"
)

type PlatformConfig struct {
	Backend       string   `toml:"backend"`
	RPID          string   `toml:"rp_id"`
	DevicePaths   []string `toml:"device_paths"`
	UseNamedPipe  bool     `toml:"use_named_pipe"`
	EnrollCommand string   `toml:"enroll_command"`
	// Username is the fprintd user; empty means the caller.
	Username string `toml:"username"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// File enables a rotated log file in addition to stderr.
	File string `toml:"file"`
}

// Dir returns the per-user configuration directory.
func Dir() string {
	if dir := os.Getenv("BIOGATE_CONFIG_DIR"); dir != "" {
		return dir
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "biogate")
	}
	return ".biogate"
}

// Path returns the default configuration file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

func Default() *Config {
	info := authn.DefaultPromptInfo()

	return &Config{
		Prompt: PromptConfig{
			Title:               info.Title,
			Subtitle:            info.Subtitle,
			Description:         info.Description,
			NegativeButtonLabel: info.NegativeButtonLabel,
			RequireConfirmation: info.RequireConfirmation,
		},
		Lockout: LockoutConfig{
			Cooldown: Duration{options.DefaultCooldown},
		},
		Keystore: KeystoreConfig{
			Backend: BackendFile,
			Alias:   keystore.DefaultAlias,
			Path:    filepath.Join(Dir(), "keystore.cbor"),
			Service: "biogate",
		},
		Platform: PlatformConfig{
			Backend: PlatformFIDO,
			RPID:    "biogate.local",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration at path over the defaults. A missing file
// yields the defaults. Environment overrides are applied and the result is
// validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = Path()
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides applies BIOGATE_* variables.
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv("BIOGATE_COOLDOWN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ValidationError{Field: "BIOGATE_COOLDOWN", Message: err.Error()}
		}
		c.Lockout.Cooldown = Duration{d}
	}
	if v := os.Getenv("BIOGATE_KEYSTORE_BACKEND"); v != "" {
		c.Keystore.Backend = v
	}
	if v := os.Getenv("BIOGATE_KEYSTORE_ALIAS"); v != "" {
		c.Keystore.Alias = v
	}
	if v := os.Getenv("BIOGATE_KEYSTORE_PATH"); v != "" {
		c.Keystore.Path = v
	}
	if v := os.Getenv("BIOGATE_PLATFORM"); v != "" {
		c.Platform.Backend = v
	}
	if v := os.Getenv("BIOGATE_RP_ID"); v != "" {
		c.Platform.RPID = v
	}
	if v := os.Getenv("BIOGATE_DEVICE_PATHS"); v != "" {
		c.Platform.DevicePaths = strings.Split(v, string(os.PathListSeparator))
	}
	if v := os.Getenv("BIOGATE_USE_NAMED_PIPE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ValidationError{Field: "BIOGATE_USE_NAMED_PIPE", Message: err.Error()}
		}
		c.Platform.UseNamedPipe = b
	}
	if v := os.Getenv("BIOGATE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("BIOGATE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("BIOGATE_LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return nil
}

// PromptInfo returns the configured prompt.
func (c *Config) PromptInfo() authn.PromptInfo {
	return authn.PromptInfo{
		Title:               c.Prompt.Title,
		Subtitle:            c.Prompt.Subtitle,
		Description:         c.Prompt.Description,
		NegativeButtonLabel: c.Prompt.NegativeButtonLabel,
		RequireConfirmation: c.Prompt.RequireConfirmation,
	}
}

// Options translates the configuration into functional options.
func (c *Config) Options() []options.Option {
	opts := []options.Option{
		options.WithCooldown(c.Lockout.Cooldown.Duration),
		options.WithRPID(c.Platform.RPID),
	}
	if len(c.Platform.DevicePaths) > 0 {
		opts = append(opts, options.WithPaths(c.Platform.DevicePaths...))
	}
	if c.Platform.UseNamedPipe {
		opts = append(opts, options.WithUseNamedPipes())
	}

	return opts
}

// NewKeyStorage builds the configured key storage backend.
func (c *Config) NewKeyStorage() (keystore.KeyStorage, error) {
	switch c.Keystore.Backend {
	case BackendMemory:
		return keystore.NewMemoryStorage(), nil
	case BackendFile:
		return keystore.NewFileStorage(c.Keystore.Path), nil
	case BackendKeyring:
		return keystore.NewKeyringStorage(c.Keystore.Service), nil
	default:
		return nil, &ValidationError{Field: "keystore.backend", Message: "unknown backend " + strconv.Quote(c.Keystore.Backend)}
	}
}
