package config

// DefaultConfigYAML contains the default configuration YAML content.
// `quorum-synth init` writes it verbatim.
const DefaultConfigYAML = `# quorum-synth configuration
#
# Values not specified here use built-in defaults. Every key can be
# overridden with an environment variable, e.g. QUORUM_SYNTH_LOG_LEVEL=debug.

log:
  level: info
  # auto | text | json
  format: auto
  # Optional log file; empty logs to stderr
  file: ""

consensus:
  # Responses below this self-reported confidence are discarded
  minimum_confidence: 0.7
  # Sentences shorter than this (in characters) never become claims
  min_claim_length: 20
  # Word overlap a sentence needs with the query to count as relevant
  relevance_threshold: 0.5
  # Clusters considered for the answer body, and the weight share a
  # non-leading cluster needs to be included
  max_clusters: 5
  cluster_weight_floor: 0.3
  # Additional insights appended from a cluster's weaker claims
  max_insights: 2
  clustering:
    # auto uses embeddings when a provider is configured, else keyword overlap
    # auto | simple | keyword
    mode: auto
    simple_threshold: 0.3
    keyword_threshold: 0.6

clinical:
  # Stop at the first failing clinical check
  fail_fast: false

embedding:
  # none | openai (any OpenAI-compatible /v1/embeddings endpoint)
  provider: none
  model: text-embedding-3-small
  # base_url: http://localhost:11434/v1
  # api_key is read from OPENAI_API_KEY when empty
  api_key: ""
  batch_size: 64
  timeout: 30s
  max_attempts: 3

store:
  enabled: true
  # sqlite | json; empty picks sqlite for *.db paths
  backend: ""
  path: .quorum-synth/results.db

server:
  addr: 127.0.0.1:8088
  allowed_origins: []
  request_timeout: 60s

# Optional YAML file overriding boilerplate patterns, categories and domains
rules_file: ""
`
