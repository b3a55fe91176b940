package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration. The returned error is a
// core.DomainError with code INVALID_CONFIG wrapping ValidationErrors.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateConsensus(&cfg.Consensus)
	v.validateEmbedding(&cfg.Embedding)
	v.validateStore(&cfg.Store)
	v.validateServer(&cfg.Server)
	v.validateRulesFile(cfg.RulesFile)

	if len(v.errors) > 0 {
		return core.ErrValidation(core.CodeInvalidConfig, "invalid configuration").WithCause(v.errors)
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		v.addError("log.level", cfg.Level, "must be one of debug, info, warn, error")
	}
	switch cfg.Format {
	case "auto", "text", "json":
	default:
		v.addError("log.format", cfg.Format, "must be one of auto, text, json")
	}
}

func (v *Validator) validateConsensus(cfg *ConsensusConfig) {
	v.unitInterval("consensus.minimum_confidence", cfg.MinimumConfidence)
	v.unitInterval("consensus.relevance_threshold", cfg.RelevanceThreshold)
	v.unitInterval("consensus.cluster_weight_floor", cfg.ClusterWeightFloor)
	v.unitInterval("consensus.clustering.simple_threshold", cfg.Clustering.SimpleThreshold)
	v.unitInterval("consensus.clustering.keyword_threshold", cfg.Clustering.KeywordThreshold)

	if cfg.MinClaimLength < 0 {
		v.addError("consensus.min_claim_length", cfg.MinClaimLength, "must be non-negative")
	}
	if cfg.MaxClusters < 1 {
		v.addError("consensus.max_clusters", cfg.MaxClusters, "must be at least 1")
	}
	if cfg.MaxInsights < 0 {
		v.addError("consensus.max_insights", cfg.MaxInsights, "must be non-negative")
	}

	switch cfg.Clustering.Mode {
	case "auto", "simple", "keyword":
	default:
		v.addError("consensus.clustering.mode", cfg.Clustering.Mode, "must be one of auto, simple, keyword")
	}
}

func (v *Validator) validateEmbedding(cfg *EmbeddingConfig) {
	switch cfg.Provider {
	case "", "none":
		return
	case "openai":
	default:
		v.addError("embedding.provider", cfg.Provider, "must be none or openai")
		return
	}

	if cfg.APIKey == "" && cfg.BaseURL == "" && os.Getenv("OPENAI_API_KEY") == "" {
		v.addError("embedding.api_key", "", "required for the openai provider unless base_url points at a compatible server")
	}
	if cfg.BaseURL != "" {
		if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			v.addError("embedding.base_url", cfg.BaseURL, "must be an absolute URL")
		}
	}
	if cfg.BatchSize < 1 {
		v.addError("embedding.batch_size", cfg.BatchSize, "must be at least 1")
	}
	if cfg.MaxAttempts < 1 {
		v.addError("embedding.max_attempts", cfg.MaxAttempts, "must be at least 1")
	}
	v.duration("embedding.timeout", cfg.Timeout)
}

func (v *Validator) validateStore(cfg *StoreConfig) {
	if !cfg.Enabled {
		return
	}
	if strings.TrimSpace(cfg.Path) == "" {
		v.addError("store.path", cfg.Path, "required when the store is enabled")
	}
	switch cfg.Backend {
	case "", "sqlite", "json":
	default:
		v.addError("store.backend", cfg.Backend, "must be sqlite or json")
	}
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if cfg.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
			v.addError("server.addr", cfg.Addr, "must be host:port")
		}
	}
	v.duration("server.request_timeout", cfg.RequestTimeout)
}

func (v *Validator) validateRulesFile(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		v.addError("rules_file", path, "file not readable")
	}
}

func (v *Validator) unitInterval(field string, value float64) {
	if value < 0 || value > 1 {
		v.addError(field, value, "must be between 0 and 1")
	}
}

func (v *Validator) duration(field, value string) {
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		v.addError(field, value, "invalid duration format")
		return
	}
	if d <= 0 {
		v.addError(field, value, "must be positive")
	}
}

// ParseDuration parses an optional duration, returning fallback when empty.
// Values are expected to have passed validation.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
