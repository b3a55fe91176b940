package config

// Config holds all application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Consensus ConsensusConfig `mapstructure:"consensus" yaml:"consensus"`
	Clinical  ClinicalConfig  `mapstructure:"clinical" yaml:"clinical"`
	Embedding EmbeddingConfig `mapstructure:"embedding" yaml:"embedding"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	// RulesFile points at a YAML file replacing the built-in text rules.
	RulesFile string `mapstructure:"rules_file" yaml:"rules_file"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// ConsensusConfig tunes the synthesis pipeline.
type ConsensusConfig struct {
	MinimumConfidence  float64          `mapstructure:"minimum_confidence" yaml:"minimum_confidence"`
	MinClaimLength     int              `mapstructure:"min_claim_length" yaml:"min_claim_length"`
	RelevanceThreshold float64          `mapstructure:"relevance_threshold" yaml:"relevance_threshold"`
	MaxClusters        int              `mapstructure:"max_clusters" yaml:"max_clusters"`
	ClusterWeightFloor float64          `mapstructure:"cluster_weight_floor" yaml:"cluster_weight_floor"`
	MaxInsights        int              `mapstructure:"max_insights" yaml:"max_insights"`
	Clustering         ClusteringConfig `mapstructure:"clustering" yaml:"clustering"`
}

// ClusteringConfig selects how claims are grouped.
type ClusteringConfig struct {
	// Mode is auto, simple or keyword.
	Mode             string  `mapstructure:"mode" yaml:"mode"`
	SimpleThreshold  float64 `mapstructure:"simple_threshold" yaml:"simple_threshold"`
	KeywordThreshold float64 `mapstructure:"keyword_threshold" yaml:"keyword_threshold"`
}

// ClinicalConfig configures the clinical validator.
type ClinicalConfig struct {
	FailFast bool `mapstructure:"fail_fast" yaml:"fail_fast"`
}

// EmbeddingConfig configures the optional embedding provider.
type EmbeddingConfig struct {
	// Provider is none or openai.
	Provider  string `mapstructure:"provider" yaml:"provider"`
	Model     string `mapstructure:"model" yaml:"model"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
	BatchSize int    `mapstructure:"batch_size" yaml:"batch_size"`
	Timeout   string `mapstructure:"timeout" yaml:"timeout"`
	// MaxAttempts bounds retries of a failed embedding request.
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// StoreConfig configures result persistence.
type StoreConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Backend is sqlite or json; empty infers it from Path.
	Backend string `mapstructure:"backend" yaml:"backend"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	RequestTimeout string   `mapstructure:"request_timeout" yaml:"request_timeout"`
}
