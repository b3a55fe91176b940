package service

import (
	"math"
	"strings"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

// DefaultMinimumConfidence is the confidence floor applied when neither the
// caller nor the configuration provides one.
const DefaultMinimumConfidence = 0.7

// RejectReason explains why a response was filtered out.
type RejectReason string

const (
	RejectEmptyAnswer   RejectReason = "empty_answer"
	RejectLowConfidence RejectReason = "low_confidence"
	RejectUnknownGrade  RejectReason = "unknown_evidence_grade"
)

// Rejection records one filtered response.
type Rejection struct {
	AgentID string
	Reason  RejectReason
}

// ResponseValidator filters agent responses before claim extraction.
type ResponseValidator struct {
	hierarchy *core.EvidenceHierarchy
}

// NewResponseValidator creates a validator bound to a grading scale.
func NewResponseValidator(hierarchy *core.EvidenceHierarchy) *ResponseValidator {
	return &ResponseValidator{hierarchy: hierarchy}
}

// Validate returns the responses that survive filtering, in input order, and
// the rejections. It fails with NO_VALID_RESPONSES when nothing survives.
func (v *ResponseValidator) Validate(responses []core.AgentResponse, minConfidence float64) ([]core.AgentResponse, []Rejection, error) {
	valid := make([]core.AgentResponse, 0, len(responses))
	var rejected []Rejection

	for _, r := range responses {
		if reason, ok := v.check(r, minConfidence); !ok {
			rejected = append(rejected, Rejection{AgentID: r.AgentID, Reason: reason})
			continue
		}
		valid = append(valid, r)
	}

	if len(valid) == 0 {
		return nil, rejected, core.ErrNoValidResponses(len(responses), minConfidence)
	}
	return valid, rejected, nil
}

func (v *ResponseValidator) check(r core.AgentResponse, minConfidence float64) (RejectReason, bool) {
	switch {
	case strings.TrimSpace(r.Answer) == "":
		return RejectEmptyAnswer, false
	case math.IsNaN(r.Confidence) || r.Confidence < minConfidence:
		return RejectLowConfidence, false
	case !v.hierarchy.Has(r.EvidenceGrade):
		return RejectUnknownGrade, false
	}
	return "", true
}
