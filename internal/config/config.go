// Package config loads the application's JSON settings and the secrets they
// reference from the OS keyring.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/99designs/keyring"
	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/logging"
)

// DefaultKeyringService is the keyring service secrets are stored under.
const DefaultKeyringService = "PageRegexReplace"

// DefaultDatabaseName is used when database_path is empty.
const DefaultDatabaseName = "state.db"

// Config holds the application configuration.
type Config struct {
	UseNotifications bool              `json:"use_notifications"`
	HistoryDepth     int               `json:"history_depth"`
	MatchTimeoutMS   int               `json:"match_timeout_ms"`
	DatabasePath     string            `json:"database_path,omitempty"`
	ApplyHotkey      string            `json:"apply_hotkey"`
	UndoHotkey       string            `json:"undo_hotkey"`
	Pages            []string          `json:"pages"`
	WatchPages       bool              `json:"watch_pages"`
	LogLevel         string            `json:"log_level"`
	LogFormat        string            `json:"log_format"`
	Secrets          map[string]string `json:"secrets,omitempty"` // logical name -> "managed"

	configPath      string
	keyringService  string
	keyring         keyring.Keyring
	resolvedSecrets map[string]string
}

// LoadOption configures Load.
type LoadOption func(*Config)

// WithKeyring uses kr instead of the OS keyring.
func WithKeyring(kr keyring.Keyring) LoadOption {
	return func(c *Config) { c.keyring = kr }
}

// GetConfigPath returns the path the configuration was loaded from.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// GetResolvedSecrets returns the secret values loaded from the keyring.
func (c *Config) GetResolvedSecrets() map[string]string {
	if c.resolvedSecrets == nil {
		return make(map[string]string)
	}
	return c.resolvedSecrets
}

// MatchTimeout returns the regex evaluation bound.
func (c *Config) MatchTimeout() time.Duration {
	return time.Duration(c.MatchTimeoutMS) * time.Millisecond
}

// DatabaseFile resolves the database path relative to the config file.
func (c *Config) DatabaseFile() string {
	path := c.DatabasePath
	if path == "" {
		path = DefaultDatabaseName
	}
	if filepath.IsAbs(path) || c.configPath == "" {
		return path
	}
	return filepath.Join(filepath.Dir(c.configPath), path)
}

// Load reads the configuration file, creating a default one if it does not
// exist, and resolves managed secrets.
func Load(ctx context.Context, configPath string, opts ...LoadOption) (*Config, error) {
	log := logging.FromContext(ctx)

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		log.Info().Str("path", configPath).Msg("config file not found, creating default")
		if createErr := CreateDefaultConfig(ctx, configPath); createErr != nil {
			return nil, errors.Errorf("config file not found and failed to create default %q: %w", configPath, createErr)
		}
		data, err = os.ReadFile(configPath)
	}
	if err != nil {
		return nil, errors.Errorf("failed to read config file %q: %w", configPath, err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Errorf("failed to parse config file %q: %w", configPath, err)
	}
	config.configPath = configPath
	config.keyringService = DefaultKeyringService
	for _, opt := range opts {
		opt(config)
	}
	if config.HistoryDepth < 1 {
		config.HistoryDepth = 1
	}

	config.resolvedSecrets = make(map[string]string)
	if len(config.Secrets) == 0 {
		log.Debug().Msg("no secrets defined, skipping keyring load")
		return config, nil
	}

	kr, err := config.openKeyring()
	if err != nil {
		log.Warn().Err(err).Str("service", config.keyringService).Msg("failed to open keyring, secrets will not be loaded")
		return config, nil
	}
	for name := range config.Secrets {
		item, err := kr.Get(name)
		switch {
		case err == nil:
			config.resolvedSecrets[name] = string(item.Data)
			log.Debug().Str("secret", name).Msg("secret loaded")
		case errors.Is(err, keyring.ErrKeyNotFound):
			log.Warn().Str("secret", name).Msg("secret not found in keyring, rules using it stay unresolved")
		default:
			log.Error().Err(err).Str("secret", name).Msg("failed to read secret")
		}
	}
	return config, nil
}

func (c *Config) openKeyring() (keyring.Keyring, error) {
	if c.keyring != nil {
		return c.keyring, nil
	}
	kr, err := keyring.Open(keyring.Config{
		ServiceName: c.keyringService,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
		},
		LibSecretCollectionName:  "login",
		PassPrefix:               c.keyringService,
		WinCredPrefix:            c.keyringService,
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, errors.Errorf("failed to open keyring for service %q: %w", c.keyringService, err)
	}
	c.keyring = kr
	return kr, nil
}

// Save writes the configuration back to its file.
func (c *Config) Save() error {
	if c.Secrets == nil {
		c.Secrets = make(map[string]string)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	if err := os.WriteFile(c.configPath, data, 0o600); err != nil {
		return errors.Errorf("failed to write config file %q: %w", c.configPath, err)
	}
	return nil
}

// AddSecretReference stores value in the keyring and marks name as managed.
// The value becomes visible to rules after the next Load.
func (c *Config) AddSecretReference(name, value string) error {
	kr, err := c.openKeyring()
	if err != nil {
		return err
	}
	err = kr.Set(keyring.Item{
		Key:         name,
		Data:        []byte(value),
		Label:       fmt.Sprintf("Secret for %s used by %s", name, c.keyringService),
		Description: "Managed by " + c.keyringService,
	})
	if err != nil {
		return errors.Errorf("failed to store secret %q in keyring: %w", name, err)
	}
	if c.Secrets == nil {
		c.Secrets = make(map[string]string)
	}
	c.Secrets[name] = "managed"
	return c.Save()
}

// RemoveSecretReference deletes the secret from the keyring and the config.
// A secret already missing from the keyring is still removed from the config.
func (c *Config) RemoveSecretReference(ctx context.Context, name string) error {
	kr, err := c.openKeyring()
	if err != nil {
		return err
	}
	log := logging.FromContext(ctx)
	switch err := kr.Remove(name); {
	case err == nil:
		log.Info().Str("secret", name).Msg("secret deleted from keyring")
	case errors.Is(err, keyring.ErrKeyNotFound):
		log.Info().Str("secret", name).Msg("secret was not in keyring, removing reference")
	default:
		log.Warn().Err(err).Str("secret", name).Msg("failed to delete secret from keyring")
	}
	delete(c.Secrets, name)
	return c.Save()
}

// GetSecretNames returns the managed secret names, sorted.
func (c *Config) GetSecretNames() []string {
	names := make([]string, 0, len(c.Secrets))
	for name := range c.Secrets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the settings used for fields missing from the file.
func Default() *Config {
	return &Config{
		UseNotifications: true,
		HistoryDepth:     1,
		MatchTimeoutMS:   1000,
		ApplyHotkey:      "ctrl+alt+r",
		UndoHotkey:       "ctrl+alt+z",
		Pages:            []string{},
		LogLevel:         "info",
		LogFormat:        "console",
		Secrets:          make(map[string]string),
	}
}

// CreateDefaultConfig writes a default configuration file unless one exists.
func CreateDefaultConfig(ctx context.Context, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Errorf("error checking config path %q: %w", configPath, err)
	}

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.Errorf("failed to create config directory %q: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(Default(), "", "  ")
	if err != nil {
		return errors.Errorf("failed to marshal default config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.Errorf("failed to write default config file %q: %w", configPath, err)
	}

	logging.FromContext(ctx).Info().Str("path", configPath).Msg("default configuration file created")
	return nil
}
