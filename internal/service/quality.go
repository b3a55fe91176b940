package service

import (
	"math"
	"unicode/utf8"
)

// Quality score components.
const (
	agentDiversityStep = 0.1
	agentDiversityCap  = 0.3
	evidenceFactor     = 0.2
	confidenceFactor   = 0.2
	lengthAdequate     = 0.2
	lengthInadequate   = 0.1
	concentrationScale = 0.1

	// MinAdequateLength and MaxAdequateLength bound a "sufficient but not bloated" answer, in characters.
	MinAdequateLength = 200
	MaxAdequateLength = 2000
)

// QualityInputs are the figures the quality score is built from.
type QualityInputs struct {
	ParticipatingAgents int
	EvidenceWeight      float64
	Confidence          float64
	Answer              string
	ClusterCount        int
	ConsensusStrength   float64
}

// QualityScore combines diversity, evidence, confidence, length and
// concentration into a score clamped to [0,1].
func QualityScore(in QualityInputs) float64 {
	score := math.Min(float64(in.ParticipatingAgents)*agentDiversityStep, agentDiversityCap)
	score += clamp01(in.EvidenceWeight) * evidenceFactor
	score += clamp01(in.Confidence) * confidenceFactor
	score += lengthScore(in.Answer)
	if in.ClusterCount > 0 {
		score += clamp01(in.ConsensusStrength) * concentrationScale
	}
	return clamp01(score)
}

func lengthScore(answer string) float64 {
	n := utf8.RuneCountInString(answer)
	if n >= MinAdequateLength && n <= MaxAdequateLength {
		return lengthAdequate
	}
	return lengthInadequate
}
