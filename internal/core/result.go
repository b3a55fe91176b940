package core

import "time"

// SynthesisMethodWeighted tags results produced by weighted cluster synthesis.
const SynthesisMethodWeighted = "weighted_consensus"

// Metadata keys written on every ConsensusResult.
const (
	MetaClusterCount        = "cluster_count"
	MetaTotalClaims         = "total_claims"
	MetaTimestamp           = "timestamp"
	MetaRunID               = "run_id"
	MetaClustering          = "clustering"
	MetaResponsesConsidered = "responses_considered"
	MetaResponsesAccepted   = "responses_accepted"
	MetaClinicalChecks      = "clinical_checks"
	MetaDomain              = "domain"
)

// ConsensusResult is the engine's only output artifact.
type ConsensusResult struct {
	ID                  string                 `json:"id" yaml:"id"`
	Query               string                 `json:"query" yaml:"query"`
	Answer              string                 `json:"answer" yaml:"answer"`
	Confidence          float64                `json:"confidence" yaml:"confidence"`
	EvidenceLevel       EvidenceGrade          `json:"evidence_level" yaml:"evidence_level"`
	ParticipatingAgents []string               `json:"participating_agents" yaml:"participating_agents"`
	SynthesisMethod     string                 `json:"synthesis_method" yaml:"synthesis_method"`
	QualityScore        float64                `json:"quality_score" yaml:"quality_score"`
	ClinicallyValidated bool                   `json:"clinically_validated" yaml:"clinically_validated"`
	Citations           []string               `json:"citations" yaml:"citations"`
	Metadata            map[string]interface{} `json:"metadata" yaml:"metadata"`
	CreatedAt           time.Time              `json:"created_at" yaml:"created_at"`
}

// ResultSummary is a lightweight listing entry for stored results.
type ResultSummary struct {
	ID            string        `json:"id" yaml:"id"`
	Query         string        `json:"query" yaml:"query"`
	Confidence    float64       `json:"confidence" yaml:"confidence"`
	QualityScore  float64       `json:"quality_score" yaml:"quality_score"`
	EvidenceLevel EvidenceGrade `json:"evidence_level" yaml:"evidence_level"`
	AgentCount    int           `json:"agent_count" yaml:"agent_count"`
	CreatedAt     time.Time     `json:"created_at" yaml:"created_at"`
}
