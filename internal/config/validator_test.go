package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

func validConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "auto"},
		Consensus: ConsensusConfig{
			MinimumConfidence:  0.7,
			MinClaimLength:     20,
			RelevanceThreshold: 0.5,
			MaxClusters:        5,
			ClusterWeightFloor: 0.3,
			MaxInsights:        2,
			Clustering:         ClusteringConfig{Mode: "auto", SimpleThreshold: 0.3, KeywordThreshold: 0.6},
		},
		Embedding: EmbeddingConfig{Provider: "none"},
		Store:     StoreConfig{Enabled: true, Path: "results.db"},
		Server:    ServerConfig{Addr: "127.0.0.1:8088", RequestTimeout: "60s"},
	}
}

func TestValidator_Valid(t *testing.T) {
	if err := NewValidator().Validate(validConfig()); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidator_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"min confidence high", func(c *Config) { c.Consensus.MinimumConfidence = 1.2 }, "consensus.minimum_confidence"},
		{"min confidence negative", func(c *Config) { c.Consensus.MinimumConfidence = -0.1 }, "consensus.minimum_confidence"},
		{"relevance", func(c *Config) { c.Consensus.RelevanceThreshold = 2 }, "consensus.relevance_threshold"},
		{"weight floor", func(c *Config) { c.Consensus.ClusterWeightFloor = -1 }, "consensus.cluster_weight_floor"},
		{"claim length", func(c *Config) { c.Consensus.MinClaimLength = -1 }, "consensus.min_claim_length"},
		{"max clusters", func(c *Config) { c.Consensus.MaxClusters = 0 }, "consensus.max_clusters"},
		{"max insights", func(c *Config) { c.Consensus.MaxInsights = -1 }, "consensus.max_insights"},
		{"clustering mode", func(c *Config) { c.Consensus.Clustering.Mode = "kmeans" }, "consensus.clustering.mode"},
		{"simple threshold", func(c *Config) { c.Consensus.Clustering.SimpleThreshold = 1.5 }, "consensus.clustering.simple_threshold"},
		{"provider", func(c *Config) { c.Embedding.Provider = "cohere" }, "embedding.provider"},
		{"store path", func(c *Config) { c.Store.Path = " " }, "store.path"},
		{"store backend", func(c *Config) { c.Store.Backend = "postgres" }, "store.backend"},
		{"server addr", func(c *Config) { c.Server.Addr = "8088" }, "server.addr"},
		{"server timeout", func(c *Config) { c.Server.RequestTimeout = "soon" }, "server.request_timeout"},
		{"server timeout negative", func(c *Config) { c.Server.RequestTimeout = "-5s" }, "server.request_timeout"},
		{"rules file", func(c *Config) { c.RulesFile = filepath.Join(os.TempDir(), "definitely-absent-rules.yaml") }, "rules_file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			v := NewValidator()
			err := v.Validate(cfg)
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !core.HasCode(err, core.CodeInvalidConfig) {
				t.Errorf("error code mismatch: %v", err)
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("error does not wrap ValidationErrors: %v", err)
			}
			found := false
			for _, e := range v.Errors() {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %s in %v", tt.field, v.Errors())
			}
		})
	}
}

func TestValidator_StoreDisabledSkipsPath(t *testing.T) {
	cfg := validConfig()
	cfg.Store = StoreConfig{Enabled: false}
	if err := NewValidator().Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidator_OpenAIEmbedding(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg := validConfig()
	cfg.Embedding = EmbeddingConfig{Provider: "openai", BatchSize: 64, MaxAttempts: 3, Timeout: "30s"}
	v := NewValidator()
	if err := v.Validate(cfg); err == nil {
		t.Fatal("expected missing api key error")
	}
	if v.Errors()[0].Field != "embedding.api_key" {
		t.Errorf("first error = %v", v.Errors()[0])
	}

	cfg.Embedding.BaseURL = "http://localhost:11434/v1"
	if err := NewValidator().Validate(cfg); err != nil {
		t.Errorf("base_url without key should validate: %v", err)
	}

	cfg.Embedding.BaseURL = "not a url"
	if err := NewValidator().Validate(cfg); err == nil {
		t.Error("expected base_url error")
	}

	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	cfg.Embedding.BaseURL = ""
	cfg.Embedding.BatchSize = 0
	v = NewValidator()
	if err := v.Validate(cfg); err == nil || v.Errors()[0].Field != "embedding.batch_size" {
		t.Errorf("expected batch_size error, got %v", v.Errors())
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Value: 1, Message: "bad"},
		{Field: "b", Value: "x", Message: "worse"},
	}
	want := "config validation: a: bad (got: 1); config validation: b: worse (got: x)"
	if errs.Error() != want {
		t.Errorf("Error() = %q, want %q", errs.Error(), want)
	}
	if !errs.HasErrors() {
		t.Error("HasErrors() = false")
	}
}

func TestParseDuration(t *testing.T) {
	if got := ParseDuration("", 5); got != 5 {
		t.Errorf("empty = %v", got)
	}
	if got := ParseDuration("2s", 5); got.Seconds() != 2 {
		t.Errorf("2s = %v", got)
	}
	if got := ParseDuration("bogus", 5); got != 5 {
		t.Errorf("bogus = %v", got)
	}
}
