package core

import (
	"context"
	"time"
)

// =============================================================================
// Similarity Ports
// =============================================================================

// Embedder turns claim texts into vectors for similarity clustering.
// Implementations must return one vector per input text, in input order.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Warmer is implemented by collaborators that need a one-time initialization
// (model download, connection probe) before the first synthesis call.
type Warmer interface {
	Warm(ctx context.Context) error
}

// =============================================================================
// Clinical Validation Ports
// =============================================================================

// ClinicalCheck is one pluggable safety check run against a synthesized answer.
// Returning an error is treated exactly like returning false.
type ClinicalCheck interface {
	Name() string
	Check(ctx context.Context, answer string, responses []AgentResponse) (bool, error)
}

// CheckOutcome records the result of one clinical check.
type CheckOutcome struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
}

// ClinicalReport aggregates the outcomes of a clinical validation run.
type ClinicalReport struct {
	Passed   bool           `json:"passed"`
	Outcomes []CheckOutcome `json:"outcomes"`
}

// =============================================================================
// Lifecycle Ports
// =============================================================================

// LifecycleEventType identifies an engine lifecycle notification.
type LifecycleEventType string

const (
	EventConsensusStart    LifecycleEventType = "consensus_start"
	EventConsensusComplete LifecycleEventType = "consensus_complete"
	EventConsensusFailed   LifecycleEventType = "consensus_failed"
	EventInitialized       LifecycleEventType = "initialized"
)

// LifecycleEvent is delivered to observers. It carries no control-flow obligation.
type LifecycleEvent struct {
	Type      LifecycleEventType
	RunID     string
	Query     string
	Responses int
	Result    *ConsensusResult
	Err       error
	Duration  time.Duration
	Time      time.Time
}

// Observer receives lifecycle notifications for external monitoring.
type Observer interface {
	Notify(ctx context.Context, event LifecycleEvent)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, event LifecycleEvent)

// Notify calls f.
func (f ObserverFunc) Notify(ctx context.Context, event LifecycleEvent) {
	f(ctx, event)
}

// =============================================================================
// Persistence Ports
// =============================================================================

// ResultStore persists synthesized results on behalf of the calling layer.
// The engine itself never calls it.
type ResultStore interface {
	Save(ctx context.Context, input *ConsensusInput, result *ConsensusResult) error
	Get(ctx context.Context, id string) (*ConsensusResult, error)
	List(ctx context.Context, limit int) ([]ResultSummary, error)
	Close() error
}
