package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultEnvPrefix is the prefix for environment overrides (QUORUM_SYNTH_LOG_LEVEL, ...).
const DefaultEnvPrefix = "QUORUM_SYNTH"

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: DefaultEnvPrefix,
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (QUORUM_SYNTH_*)
// 3. Project config (.quorum-synth.yaml in current directory)
// 4. User config (~/.config/quorum-synth/config.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(".quorum-synth")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "quorum-synth"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// The user-level file is named config.yaml rather than .quorum-synth.yaml.
		if l.configFile == "" {
			if err := l.readUserConfig(); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func (l *Loader) readUserConfig() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(home, ".config", "quorum-synth", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// setDefaults configures default values.
func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	l.v.SetDefault("consensus.minimum_confidence", 0.7)
	l.v.SetDefault("consensus.min_claim_length", 20)
	l.v.SetDefault("consensus.relevance_threshold", 0.5)
	l.v.SetDefault("consensus.max_clusters", 5)
	l.v.SetDefault("consensus.cluster_weight_floor", 0.3)
	l.v.SetDefault("consensus.max_insights", 2)
	l.v.SetDefault("consensus.clustering.mode", "auto")
	l.v.SetDefault("consensus.clustering.simple_threshold", 0.3)
	l.v.SetDefault("consensus.clustering.keyword_threshold", 0.6)

	l.v.SetDefault("clinical.fail_fast", false)

	l.v.SetDefault("embedding.provider", "none")
	l.v.SetDefault("embedding.model", "text-embedding-3-small")
	l.v.SetDefault("embedding.batch_size", 64)
	l.v.SetDefault("embedding.timeout", "30s")
	l.v.SetDefault("embedding.max_attempts", 3)

	l.v.SetDefault("store.enabled", true)
	l.v.SetDefault("store.path", ".quorum-synth/results.db")

	l.v.SetDefault("server.addr", "127.0.0.1:8088")
	l.v.SetDefault("server.allowed_origins", []string{})
	l.v.SetDefault("server.request_timeout", "60s")
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Get returns a configuration value by key.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// Set sets a configuration value.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// IsSet checks if a key has been set.
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// AllSettings returns all settings as a map.
func (l *Loader) AllSettings() map[string]interface{} {
	return l.v.AllSettings()
}
