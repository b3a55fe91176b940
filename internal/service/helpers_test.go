package service

import (
	"math"
	"testing"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func response(agent, answer string, confidence float64, grade core.EvidenceGrade) core.AgentResponse {
	return core.AgentResponse{AgentID: agent, Answer: answer, Confidence: confidence, EvidenceGrade: grade}
}

func claim(agent, text string, weight float64, grade core.EvidenceGrade) *core.Claim {
	return &core.Claim{
		Text:             text,
		Weight:           weight,
		SourceAgent:      agent,
		SupportingAgents: []string{agent},
		EvidenceGrade:    grade,
	}
}

func clusterOf(claims ...*core.Claim) *core.Cluster {
	return &core.Cluster{Claims: claims}
}

func mustEngine(t *testing.T, cfg EngineConfig, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, opts...)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}
