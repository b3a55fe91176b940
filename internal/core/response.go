package core

import "time"

// AgentResponse is one agent's answer to a query.
// The engine never mutates responses it receives.
type AgentResponse struct {
	AgentID             string                 `json:"agent_id" yaml:"agent_id"`
	Answer              string                 `json:"answer" yaml:"answer"`
	Confidence          float64                `json:"confidence" yaml:"confidence"`
	EvidenceGrade       EvidenceGrade          `json:"evidence_grade" yaml:"evidence_grade"`
	EvidenceSources     []string               `json:"evidence_sources,omitempty" yaml:"evidence_sources,omitempty"`
	ClinicallyValidated bool                   `json:"clinically_validated,omitempty" yaml:"clinically_validated,omitempty"`
	CreatedAt           time.Time              `json:"created_at" yaml:"created_at"`
	Metadata            map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ConsensusInput is the request handed to the synthesis engine.
type ConsensusInput struct {
	Query                     string                 `json:"query" yaml:"query"`
	Responses                 []AgentResponse        `json:"responses" yaml:"responses"`
	Context                   map[string]interface{} `json:"context,omitempty" yaml:"context,omitempty"`
	RequireClinicalValidation bool                   `json:"require_clinical_validation,omitempty" yaml:"require_clinical_validation,omitempty"`
	// MinimumConfidence overrides the engine default when set.
	MinimumConfidence *float64 `json:"minimum_confidence,omitempty" yaml:"minimum_confidence,omitempty"`
	// AgentWeights replaces a response's own confidence as its claim weighting factor.
	AgentWeights map[string]float64 `json:"agent_weights,omitempty" yaml:"agent_weights,omitempty"`
}

// AgentIDs returns the distinct agent identifiers present in the input, in input order.
func (in *ConsensusInput) AgentIDs() []string {
	seen := make(map[string]bool, len(in.Responses))
	ids := make([]string, 0, len(in.Responses))
	for _, r := range in.Responses {
		if seen[r.AgentID] {
			continue
		}
		seen[r.AgentID] = true
		ids = append(ids, r.AgentID)
	}
	return ids
}

// AgentWeight returns the weighting factor for a response.
func (in *ConsensusInput) AgentWeight(r AgentResponse) float64 {
	if w, ok := in.AgentWeights[r.AgentID]; ok {
		return w
	}
	return r.Confidence
}
