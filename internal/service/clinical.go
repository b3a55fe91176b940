package service

import (
	"context"
	"fmt"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/logging"
)

// Clinical check names.
const (
	CheckContraindication = "contraindication"
	CheckDrugInteraction  = "drug_interaction"
	CheckEvidenceQuality  = "evidence_quality"
	CheckGuideline        = "guideline_conformance"
)

// minIndependentResponses lets evidence quality pass without a top-tier grade.
const minIndependentResponses = 3

// TextCheck adapts a "(synthesized text) -> bool" function to core.ClinicalCheck.
type TextCheck struct {
	CheckName string
	Fn        func(ctx context.Context, answer string) (bool, error)
}

// Name returns the check name.
func (c TextCheck) Name() string { return c.CheckName }

// Check runs the wrapped function on the answer.
func (c TextCheck) Check(ctx context.Context, answer string, _ []core.AgentResponse) (bool, error) {
	return c.Fn(ctx, answer)
}

// ResponsesCheck adapts a "(responses) -> bool" function to core.ClinicalCheck.
type ResponsesCheck struct {
	CheckName string
	Fn        func(ctx context.Context, responses []core.AgentResponse) (bool, error)
}

// Name returns the check name.
func (c ResponsesCheck) Name() string { return c.CheckName }

// Check runs the wrapped function on the responses.
func (c ResponsesCheck) Check(ctx context.Context, _ string, responses []core.AgentResponse) (bool, error) {
	return c.Fn(ctx, responses)
}

// PlaceholderCheck always passes. It stands in for an external clinical
// service (contraindication, interaction or guideline database) and is NOT
// suitable for production use; replace it with a real integration.
type PlaceholderCheck struct {
	CheckName string
}

// Name returns the check name.
func (c PlaceholderCheck) Name() string { return c.CheckName }

// Check always reports true.
func (c PlaceholderCheck) Check(context.Context, string, []core.AgentResponse) (bool, error) {
	return true, nil
}

// NewEvidenceQualityCheck passes when at least one response carries one of the
// three strongest grades, or when at least three independent agents answered.
func NewEvidenceQualityCheck(hierarchy *core.EvidenceHierarchy) ResponsesCheck {
	return ResponsesCheck{
		CheckName: CheckEvidenceQuality,
		Fn: func(_ context.Context, responses []core.AgentResponse) (bool, error) {
			agents := make(map[string]bool, len(responses))
			for _, r := range responses {
				if hierarchy.IsTopTier(r.EvidenceGrade, highQualityTiers) {
					return true, nil
				}
				agents[r.AgentID] = true
			}
			return len(agents) >= minIndependentResponses, nil
		},
	}
}

// DefaultClinicalChecks returns the standard check set. Only the evidence
// quality check is functional; the rest are placeholders.
func DefaultClinicalChecks(hierarchy *core.EvidenceHierarchy) []core.ClinicalCheck {
	return []core.ClinicalCheck{
		PlaceholderCheck{CheckName: CheckContraindication},
		PlaceholderCheck{CheckName: CheckDrugInteraction},
		NewEvidenceQualityCheck(hierarchy),
		PlaceholderCheck{CheckName: CheckGuideline},
	}
}

// ClinicalValidator runs clinical checks in sequence and requires all to pass.
type ClinicalValidator struct {
	checks   []core.ClinicalCheck
	failFast bool
	logger   *logging.Logger
}

// NewClinicalValidator creates a validator. With failFast, the first failing
// check stops the run.
func NewClinicalValidator(checks []core.ClinicalCheck, failFast bool, logger *logging.Logger) *ClinicalValidator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ClinicalValidator{checks: checks, failFast: failFast, logger: logger}
}

// Validate runs every check against the answer and the validated responses.
// A check that errors or panics counts as failed. An empty check set never validates.
func (v *ClinicalValidator) Validate(ctx context.Context, answer string, responses []core.AgentResponse) core.ClinicalReport {
	report := core.ClinicalReport{
		Passed:   len(v.checks) > 0,
		Outcomes: make([]core.CheckOutcome, 0, len(v.checks)),
	}

	for _, check := range v.checks {
		outcome := runCheck(ctx, check, answer, responses)
		report.Outcomes = append(report.Outcomes, outcome)

		if !outcome.Passed {
			report.Passed = false
			v.logger.Warn("clinical check failed", "check", outcome.Name, "error", outcome.Error)
			if v.failFast {
				break
			}
		}
	}

	return report
}

func runCheck(ctx context.Context, check core.ClinicalCheck, answer string, responses []core.AgentResponse) (outcome core.CheckOutcome) {
	outcome.Name = check.Name()
	defer func() {
		if r := recover(); r != nil {
			outcome.Passed = false
			outcome.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	passed, err := check.Check(ctx, answer, responses)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Passed = passed
	return outcome
}
