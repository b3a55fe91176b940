package service

import (
	"testing"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

func TestGrader_EvidenceLevel(t *testing.T) {
	g := NewGrader(core.DefaultEvidenceHierarchy())

	tests := []struct {
		name   string
		grades []core.EvidenceGrade
		want   core.EvidenceGrade
	}{
		{name: "strongest of 2b and 4", grades: []core.EvidenceGrade{core.Grade4, core.Grade2b}, want: core.Grade2b},
		{name: "only 5", grades: []core.EvidenceGrade{core.Grade5}, want: core.Grade5},
		{name: "1a anywhere wins", grades: []core.EvidenceGrade{core.Grade3b, core.Grade1a, core.Grade1b}, want: core.Grade1a},
		{name: "nothing defaults to weakest", grades: nil, want: core.Grade5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responses := make([]core.AgentResponse, len(tt.grades))
			for i, gr := range tt.grades {
				responses[i] = response("a", "answer", 0.8, gr)
			}
			if got := g.Grade(responses, nil).EvidenceLevel; got != tt.want {
				t.Errorf("EvidenceLevel = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGrader_Confidence(t *testing.T) {
	g := NewGrader(core.DefaultEvidenceHierarchy())

	t.Run("weighted by evidence grade", func(t *testing.T) {
		responses := []core.AgentResponse{
			response("a", "x", 0.9, core.Grade1a),
			response("b", "x", 0.85, core.Grade2a),
		}
		got := g.Grade(responses, nil)
		// (0.9*1.0 + 0.85*0.8) / 1.8
		want := (0.9 + 0.68) / 1.8
		if !approx(got.AverageConfidence, want) || !approx(got.Confidence, want) {
			t.Errorf("Grade() = %+v, want confidence %v", got, want)
		}
		if got.ConsensusStrength != 1.0 {
			t.Errorf("ConsensusStrength = %v, want 1.0 without clusters", got.ConsensusStrength)
		}
	})

	t.Run("scaled by consensus strength", func(t *testing.T) {
		responses := []core.AgentResponse{
			response("a", "x", 0.8, core.Grade1a),
			response("b", "x", 0.8, core.Grade1a),
		}
		clusters := []*core.Cluster{
			clusterOf(claim("a", "x", 3, core.Grade1a)),
			clusterOf(claim("b", "y", 1, core.Grade1a)),
		}
		got := g.Grade(responses, clusters)
		if !approx(got.ConsensusStrength, 0.75) {
			t.Errorf("ConsensusStrength = %v, want 0.75", got.ConsensusStrength)
		}
		if !approx(got.Confidence, 0.8*(0.7+0.3*0.75)) {
			t.Errorf("Confidence = %v, want %v", got.Confidence, 0.8*(0.7+0.3*0.75))
		}
	})

	t.Run("capped below certainty", func(t *testing.T) {
		responses := []core.AgentResponse{response("a", "x", 1.0, core.Grade1a)}
		if got := g.Grade(responses, nil).Confidence; got != MaxConfidence {
			t.Errorf("Confidence = %v, want %v", got, MaxConfidence)
		}
	})
}

func TestConsensusStrength(t *testing.T) {
	if got := ConsensusStrength(nil); got != 1.0 {
		t.Errorf("no clusters: %v, want 1.0", got)
	}
	zero := []*core.Cluster{clusterOf(claim("a", "x", 0, core.Grade1a))}
	if got := ConsensusStrength(zero); got != 1.0 {
		t.Errorf("zero weight: %v, want 1.0", got)
	}
	even := []*core.Cluster{
		clusterOf(claim("a", "x", 0.5, core.Grade1a)),
		clusterOf(claim("b", "y", 0.5, core.Grade1a)),
	}
	if got := ConsensusStrength(even); !approx(got, 0.5) {
		t.Errorf("even split: %v, want 0.5", got)
	}
}
