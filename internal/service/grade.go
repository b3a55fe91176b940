package service

import (
	"math"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

// MaxConfidence caps synthesized confidence below certainty.
const MaxConfidence = 0.95

// Grade is the confidence and evidence level assigned to a synthesis.
type Grade struct {
	Confidence        float64
	EvidenceLevel     core.EvidenceGrade
	ConsensusStrength float64
	AverageConfidence float64
}

// Grader computes confidence and evidence level for a synthesized answer.
type Grader struct {
	hierarchy *core.EvidenceHierarchy
}

// NewGrader creates a grader bound to a grading scale.
func NewGrader(hierarchy *core.EvidenceHierarchy) *Grader {
	return &Grader{hierarchy: hierarchy}
}

// Grade scores the surviving responses against the full cluster distribution.
func (g *Grader) Grade(responses []core.AgentResponse, clusters []*core.Cluster) Grade {
	avg := g.weightedConfidence(responses)
	strength := ConsensusStrength(clusters)

	confidence := math.Min(MaxConfidence, avg*(0.7+0.3*strength))
	if math.IsNaN(confidence) || confidence < 0 {
		confidence = 0
	}

	grades := make([]core.EvidenceGrade, len(responses))
	for i, r := range responses {
		grades[i] = r.EvidenceGrade
	}

	return Grade{
		Confidence:        confidence,
		EvidenceLevel:     g.hierarchy.Strongest(grades),
		ConsensusStrength: strength,
		AverageConfidence: avg,
	}
}

// weightedConfidence averages response confidence, weighting each response by
// the hierarchy weight of its evidence grade.
func (g *Grader) weightedConfidence(responses []core.AgentResponse) float64 {
	var sum, weights float64
	for _, r := range responses {
		w := g.hierarchy.Weight(r.EvidenceGrade)
		sum += clamp01(r.Confidence) * w
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}

// ConsensusStrength is the share of total cluster weight held by the heaviest
// cluster. It is 1.0 when there are no clusters or no weight at all.
func ConsensusStrength(clusters []*core.Cluster) float64 {
	var total, strongest float64
	for _, c := range clusters {
		w := c.Weight()
		total += w
		if w > strongest {
			strongest = w
		}
	}
	if len(clusters) == 0 || total <= 0 {
		return 1.0
	}
	return strongest / total
}
