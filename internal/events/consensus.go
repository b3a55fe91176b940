package events

import (
	"context"
	"errors"
	"time"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

// Event type constants for synthesis lifecycle events.
const (
	TypeConsensusStart    = string(core.EventConsensusStart)
	TypeConsensusComplete = string(core.EventConsensusComplete)
	TypeConsensusFailed   = string(core.EventConsensusFailed)
	TypeInitialized       = string(core.EventInitialized)
)

// ConsensusStartEvent is emitted when a synthesis run begins.
type ConsensusStartEvent struct {
	BaseEvent
	Query     string `json:"query"`
	Responses int    `json:"responses"`
}

// ConsensusCompleteEvent is emitted after a result was produced.
type ConsensusCompleteEvent struct {
	BaseEvent
	ResultID            string             `json:"result_id"`
	Confidence          float64            `json:"confidence"`
	QualityScore        float64            `json:"quality_score"`
	EvidenceLevel       core.EvidenceGrade `json:"evidence_level"`
	ParticipatingAgents []string           `json:"participating_agents"`
	ClinicallyValidated bool               `json:"clinically_validated"`
	DurationMS          int64              `json:"duration_ms"`
}

// Duration returns how long the run took.
func (e ConsensusCompleteEvent) Duration() time.Duration {
	return time.Duration(e.DurationMS) * time.Millisecond
}

// ConsensusFailedEvent is emitted when a run aborts. It is a PRIORITY event.
type ConsensusFailedEvent struct {
	BaseEvent
	Code  string `json:"code"`
	Error string `json:"error"`
}

// InitializedEvent is emitted once the engine's readiness gate opens.
type InitializedEvent struct {
	BaseEvent
	Error string `json:"error,omitempty"`
}

// FromLifecycle converts an engine notification into a bus event.
func FromLifecycle(e core.LifecycleEvent) Event {
	base := NewBaseEvent(string(e.Type), e.RunID, e.Time)

	switch e.Type {
	case core.EventConsensusStart:
		return ConsensusStartEvent{BaseEvent: base, Query: e.Query, Responses: e.Responses}
	case core.EventConsensusComplete:
		ev := ConsensusCompleteEvent{BaseEvent: base, DurationMS: e.Duration.Milliseconds()}
		if r := e.Result; r != nil {
			ev.ResultID = r.ID
			ev.Confidence = r.Confidence
			ev.QualityScore = r.QualityScore
			ev.EvidenceLevel = r.EvidenceLevel
			ev.ParticipatingAgents = r.ParticipatingAgents
			ev.ClinicallyValidated = r.ClinicallyValidated
		}
		return ev
	case core.EventConsensusFailed:
		ev := ConsensusFailedEvent{BaseEvent: base}
		if e.Err != nil {
			ev.Error = e.Err.Error()
			var de *core.DomainError
			if errors.As(e.Err, &de) {
				ev.Code = de.Code
			}
		}
		return ev
	case core.EventInitialized:
		ev := InitializedEvent{BaseEvent: base}
		if e.Err != nil {
			ev.Error = e.Err.Error()
		}
		return ev
	default:
		return base
	}
}

// BusObserver forwards engine lifecycle notifications onto an EventBus.
type BusObserver struct {
	bus *EventBus
}

// NewBusObserver creates an observer publishing to bus.
func NewBusObserver(bus *EventBus) *BusObserver {
	return &BusObserver{bus: bus}
}

// Notify publishes the event; failures use priority delivery.
func (o *BusObserver) Notify(_ context.Context, e core.LifecycleEvent) {
	ev := FromLifecycle(e)
	if e.Type == core.EventConsensusFailed {
		o.bus.PublishPriority(ev)
		return
	}
	o.bus.Publish(ev)
}

var _ core.Observer = (*BusObserver)(nil)
