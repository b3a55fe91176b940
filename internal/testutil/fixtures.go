package testutil

import (
	"time"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

// FixedTime is the creation time used by fixtures.
var FixedTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// FirstLineQuery is the query used by NewTestInput.
const FirstLineQuery = "What is first-line for condition Y?"

// Response builds an agent response created at FixedTime.
func Response(agent, answer string, confidence float64, grade core.EvidenceGrade) core.AgentResponse {
	return core.AgentResponse{
		AgentID:       agent,
		Answer:        answer,
		Confidence:    confidence,
		EvidenceGrade: grade,
		CreatedAt:     FixedTime,
	}
}

// NewTestInput returns two agreeing agents answering FirstLineQuery.
// Use functional options to override specific fields.
func NewTestInput(opts ...func(*core.ConsensusInput)) *core.ConsensusInput {
	in := &core.ConsensusInput{
		Query: FirstLineQuery,
		Responses: []core.AgentResponse{
			Response("agent-a", "Drug X is first-line for condition Y.", 0.9, core.Grade1a),
			Response("agent-b", "Drug X is first-line for condition Y.", 0.85, core.Grade2a),
		},
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// WithResponses replaces the fixture's responses.
func WithResponses(responses ...core.AgentResponse) func(*core.ConsensusInput) {
	return func(in *core.ConsensusInput) { in.Responses = responses }
}

// NewTestResult returns a stored-looking result with the given ID.
func NewTestResult(id string, opts ...func(*core.ConsensusResult)) *core.ConsensusResult {
	r := &core.ConsensusResult{
		ID:                  id,
		Query:               FirstLineQuery,
		Answer:              "Drug X is first-line for condition Y.",
		Confidence:          0.82,
		EvidenceLevel:       core.Grade1a,
		ParticipatingAgents: []string{"agent-a", "agent-b"},
		SynthesisMethod:     core.SynthesisMethodWeighted,
		QualityScore:        0.76,
		Citations:           []string{"Evidence level: 1a, 2a"},
		Metadata:            map[string]interface{}{core.MetaClusterCount: 1},
		CreatedAt:           FixedTime,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
