// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/runoshun/hora/internal/domain"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Environment variables that override file settings.
const (
	EnvDatabaseURL   = "HORA_DATABASE_URL"
	EnvEncryptionKey = "HORA_ENCRYPTION_KEY"
	EnvRate          = "HORA_RATE_CENTS_PER_MINUTE"
	EnvLogLevel      = "HORA_LOG_LEVEL"
	EnvHTTPAddr      = "HORA_HTTP_ADDR"
	EnvWebhookURL    = "HORA_CHAT_WEBHOOK_URL"
)

// Loader loads configuration from TOML files and the environment.
type Loader struct {
	getenv        func(string) (string, bool)
	dataDir       string // Path to the hora data directory
	globalConfDir string // Path to global config directory (e.g., ~/.config/hora)
}

// NewLoader creates a new Loader.
func NewLoader(dataDir string) *Loader {
	return &Loader{
		dataDir:       dataDir,
		globalConfDir: defaultGlobalConfigDir(),
		getenv:        os.LookupEnv,
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config directory.
// This is useful for testing.
func NewLoaderWithGlobalDir(dataDir, globalConfDir string) *Loader {
	return &Loader{
		dataDir:       dataDir,
		globalConfDir: globalConfDir,
		getenv:        os.LookupEnv,
	}
}

// WithEnv replaces the process environment lookup. Used in tests.
func (l *Loader) WithEnv(getenv func(string) (string, bool)) *Loader {
	l.getenv = getenv
	return l
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalConfigDir(configHome)
}

// Load returns the merged configuration.
// Precedence, lowest first: defaults, global file, local file, .env, process env.
func (l *Loader) Load() (*domain.Config, error) {
	global, err := l.LoadGlobal()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	local, err := l.LoadLocal()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	// Merge: default <- global <- local (later takes precedence)
	base := domain.NewDefaultConfig()
	if global != nil {
		base = mergeConfigs(base, global)
	}
	if local != nil {
		base = mergeConfigs(base, local)
	}

	env, err := l.loadEnv()
	if err != nil {
		return nil, err
	}
	return mergeConfigs(base, env), nil
}

// LoadGlobal returns only the global configuration.
func (l *Loader) LoadGlobal() (*domain.Config, error) {
	if l.globalConfDir == "" {
		return nil, os.ErrNotExist
	}
	return l.loadFile(filepath.Join(l.globalConfDir, domain.ConfigFileName))
}

// LoadLocal returns only the data directory configuration.
func (l *Loader) LoadLocal() (*domain.Config, error) {
	return l.loadFile(domain.LocalConfigPath(l.dataDir))
}

// loadFile loads a configuration from a file.
func (l *Loader) loadFile(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return convertRawToDomainConfig(raw), nil
}

// loadEnv builds a config from the process environment, falling back to
// the data directory's .env file for variables the process does not set.
func (l *Loader) loadEnv() (*domain.Config, error) {
	dotenv, err := godotenv.Read(domain.EnvFilePath(l.dataDir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", domain.EnvFileName, err)
	}

	lookup := func(key string) string {
		if v, ok := l.getenv(key); ok {
			return v
		}
		return dotenv[key]
	}

	res := &domain.Config{}
	res.Store.DatabaseURL = lookup(EnvDatabaseURL)
	res.Store.EncryptionKey = lookup(EnvEncryptionKey)
	res.Billing.RateCentsPerMinute = lookup(EnvRate)
	res.Log.Level = lookup(EnvLogLevel)
	res.HTTP.Addr = lookup(EnvHTTPAddr)
	res.Chat.WebhookURL = lookup(EnvWebhookURL)
	return res, nil
}

// convertRawToDomainConfig converts the raw map to domain config and collects warnings.
func convertRawToDomainConfig(raw map[string]any) *domain.Config {
	res := &domain.Config{}
	var warnings []string

	// stringKeys assigns known string keys of a section and warns on the rest.
	stringKeys := func(section string, value any, fields map[string]*string) {
		m, ok := value.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("[%s] must be a table", section))
			return
		}
		for k, v := range m {
			dst, known := fields[k]
			if !known {
				warnings = append(warnings, fmt.Sprintf("unknown key in [%s]: %s", section, k))
				continue
			}
			switch s := v.(type) {
			case string:
				*dst = s
			case int64:
				*dst = fmt.Sprint(s)
			case float64:
				*dst = fmt.Sprint(s)
			default:
				warnings = append(warnings, fmt.Sprintf("invalid value for [%s].%s", section, k))
			}
		}
	}

	for section, value := range raw {
		switch section {
		case "store":
			stringKeys(section, value, map[string]*string{
				"backend":        &res.Store.Backend,
				"namespace":      &res.Store.Namespace,
				"database_url":   &res.Store.DatabaseURL,
				"encryption_key": &res.Store.EncryptionKey,
			})
		case "billing":
			stringKeys(section, value, map[string]*string{
				"rate_cents_per_minute": &res.Billing.RateCentsPerMinute,
			})
		case "log":
			stringKeys(section, value, map[string]*string{
				"level": &res.Log.Level,
			})
		case "chat":
			stringKeys(section, value, map[string]*string{
				"webhook_url": &res.Chat.WebhookURL,
			})
		case "http":
			stringKeys(section, value, map[string]*string{
				"addr": &res.HTTP.Addr,
			})
		default:
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", section))
		}
	}

	sort.Strings(warnings)
	res.Warnings = warnings
	return res
}

// mergeConfigs merges two configs, with override taking precedence.
func mergeConfigs(base, override *domain.Config) *domain.Config {
	result := &domain.Config{
		Store:   base.Store,
		Billing: base.Billing,
		Log:     base.Log,
		Chat:    base.Chat,
		HTTP:    base.HTTP,
	}

	// Warnings stay nil when neither side has any
	result.Warnings = append(result.Warnings, base.Warnings...)
	result.Warnings = append(result.Warnings, override.Warnings...)

	if override.Store.Backend != "" {
		result.Store.Backend = override.Store.Backend
	}
	if override.Store.Namespace != "" {
		result.Store.Namespace = override.Store.Namespace
	}
	if override.Store.DatabaseURL != "" {
		result.Store.DatabaseURL = override.Store.DatabaseURL
	}
	if override.Store.EncryptionKey != "" {
		result.Store.EncryptionKey = override.Store.EncryptionKey
	}
	if override.Billing.RateCentsPerMinute != "" {
		result.Billing.RateCentsPerMinute = override.Billing.RateCentsPerMinute
	}
	if override.Log.Level != "" {
		result.Log.Level = override.Log.Level
	}
	if override.Chat.WebhookURL != "" {
		result.Chat.WebhookURL = override.Chat.WebhookURL
	}
	if override.HTTP.Addr != "" {
		result.HTTP.Addr = override.HTTP.Addr
	}

	return result
}
