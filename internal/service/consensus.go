package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-synth/internal/logging"
)

// Clustering modes accepted by EngineConfig.ClusteringMode.
const (
	ClusteringAuto    = "auto"
	ClusteringSimple  = "simple"
	ClusteringKeyword = "keyword"
)

// EngineConfig holds the numeric knobs of the synthesis pipeline.
type EngineConfig struct {
	MinimumConfidence  float64
	MinClaimLength     int
	RelevanceThreshold float64
	MaxClusters        int
	ClusterWeightFloor float64
	MaxInsights        int
	ClusteringMode     string
	SimpleThreshold    float64
	KeywordThreshold   float64
	ClinicalFailFast   bool
}

// DefaultEngineConfig returns the default pipeline configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MinimumConfidence:  DefaultMinimumConfidence,
		MinClaimLength:     DefaultMinClaimLength,
		RelevanceThreshold: DefaultRelevanceThreshold,
		MaxClusters:        DefaultMaxClusters,
		ClusterWeightFloor: DefaultClusterWeightFloor,
		MaxInsights:        DefaultMaxInsights,
		ClusteringMode:     ClusteringAuto,
		SimpleThreshold:    SimpleClusterThreshold,
		KeywordThreshold:   KeywordClusterThreshold,
	}
}

// Option configures an Engine collaborator.
type Option func(*Engine)

// WithHierarchy replaces the default evidence grading scale.
func WithHierarchy(h *core.EvidenceHierarchy) Option {
	return func(e *Engine) { e.hierarchy = h }
}

// WithRules replaces the default boilerplate, category and domain tables.
func WithRules(r *Rules) Option {
	return func(e *Engine) { e.rules = r }
}

// WithLogger sets the engine logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithObservers registers lifecycle observers.
func WithObservers(obs ...core.Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, obs...) }
}

// WithEmbedder enables embedding-based clustering in auto mode. An embedder
// implementing core.Warmer is warmed by Initialize.
func WithEmbedder(emb core.Embedder) Option {
	return func(e *Engine) { e.embedder = emb }
}

// WithClusterStrategy overrides the clustering mode entirely.
func WithClusterStrategy(s ClusterStrategy) Option {
	return func(e *Engine) { e.strategy = s }
}

// WithClinicalChecks replaces the default clinical check set.
func WithClinicalChecks(checks ...core.ClinicalCheck) Option {
	return func(e *Engine) {
		e.checks = checks
		e.checksSet = true
	}
}

// WithInitializer adds a one-time initialization step that must finish
// before the first synthesis runs.
func WithInitializer(fn func(ctx context.Context) error) Option {
	return func(e *Engine) { e.initializer = fn }
}

// WithFailFastUntilReady makes Synthesize return NOT_READY instead of
// waiting for Initialize.
func WithFailFastUntilReady() Option {
	return func(e *Engine) { e.failFast = true }
}

// Engine runs the consensus synthesis pipeline. It holds no state that
// changes between calls apart from the one-shot readiness gate.
type Engine struct {
	cfg         EngineConfig
	hierarchy   *core.EvidenceHierarchy
	rules       *Rules
	logger      *logging.Logger
	observers   []core.Observer
	embedder    core.Embedder
	strategy    ClusterStrategy
	checks      []core.ClinicalCheck
	checksSet   bool
	initializer func(ctx context.Context) error
	failFast    bool

	validator   *ResponseValidator
	extractor   *ClaimExtractor
	synthesizer *Synthesizer
	grader      *Grader
	clinical    *ClinicalValidator

	gated       bool
	ready       chan struct{}
	initOnce    sync.Once
	initErr     error
	embedderOff atomic.Bool
	degradeOnce sync.Once
}

// NewEngine builds an engine. It returns INVALID_CONFIG for an unknown clustering mode.
func NewEngine(cfg EngineConfig, opts ...Option) (*Engine, error) {
	e := &Engine{cfg: cfg, ready: make(chan struct{})}
	for _, opt := range opts {
		opt(e)
	}

	switch e.cfg.ClusteringMode {
	case "":
		e.cfg.ClusteringMode = ClusteringAuto
	case ClusteringAuto, ClusteringSimple, ClusteringKeyword:
	default:
		return nil, core.ErrValidation(core.CodeInvalidConfig,
			fmt.Sprintf("unknown clustering mode %q", e.cfg.ClusteringMode))
	}
	if e.cfg.MinimumConfidence < 0 || e.cfg.MinimumConfidence > 1 {
		return nil, core.ErrValidation(core.CodeInvalidConfig, "minimum confidence must be within [0,1]")
	}

	if e.hierarchy == nil {
		e.hierarchy = core.DefaultEvidenceHierarchy()
	}
	if e.rules == nil {
		e.rules = DefaultRules()
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if !e.checksSet {
		e.checks = DefaultClinicalChecks(e.hierarchy)
	}

	e.validator = NewResponseValidator(e.hierarchy)
	e.extractor = NewClaimExtractor(e.hierarchy, e.rules, e.cfg.MinClaimLength, e.cfg.RelevanceThreshold)
	e.synthesizer = NewSynthesizer(e.hierarchy, e.rules, e.cfg.MaxClusters, e.cfg.ClusterWeightFloor, e.cfg.MaxInsights)
	e.grader = NewGrader(e.hierarchy)
	e.clinical = NewClinicalValidator(e.checks, e.cfg.ClinicalFailFast, e.logger.WithStage("clinical"))

	_, warms := e.embedder.(core.Warmer)
	e.gated = e.initializer != nil || warms
	if !e.gated {
		close(e.ready)
	}

	return e, nil
}

// Hierarchy returns the grading scale the engine was built with.
func (e *Engine) Hierarchy() *core.EvidenceHierarchy {
	return e.hierarchy
}

// Ready reports whether the readiness gate is open.
func (e *Engine) Ready() bool {
	select {
	case <-e.ready:
		return true
	default:
		return false
	}
}

// Initialize runs the one-time initialization exactly once and opens the
// readiness gate. A failed initialization still opens the gate: the embedder
// is disabled and clustering degrades to the keyword fallback.
func (e *Engine) Initialize(ctx context.Context) error {
	e.initOnce.Do(func() {
		start := time.Now()
		var errs []string

		if e.initializer != nil {
			if err := e.initializer(ctx); err != nil {
				errs = append(errs, err.Error())
			}
		}
		if w, ok := e.embedder.(core.Warmer); ok {
			if err := w.Warm(ctx); err != nil {
				e.embedderOff.Store(true)
				errs = append(errs, fmt.Sprintf("warming %s: %v", e.embedder.Name(), err))
			}
		}
		if len(errs) > 0 {
			e.initErr = core.ErrExecution(core.CodeInitFailed, strings.Join(errs, "; "))
			e.embedderOff.Store(true)
			e.logger.Warn("initialization failed, continuing degraded", "error", e.initErr)
		}

		e.notify(ctx, core.LifecycleEvent{
			Type:     core.EventInitialized,
			Err:      e.initErr,
			Duration: time.Since(start),
			Time:     time.Now(),
		})
		if e.gated {
			close(e.ready)
		}
	})
	return e.initErr
}

func (e *Engine) awaitReady(ctx context.Context) error {
	if e.Ready() {
		return nil
	}
	if e.failFast {
		return core.ErrNotReady()
	}
	select {
	case <-e.ready:
		return nil
	case <-ctx.Done():
		return core.ErrNotReady().WithCause(ctx.Err())
	}
}

// Synthesize merges the agent responses in input into one evidence-graded answer.
func (e *Engine) Synthesize(ctx context.Context, input *core.ConsensusInput) (*core.ConsensusResult, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}
	if err := e.awaitReady(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	runID := uuid.New().String()
	logger := e.logger.WithRun(runID)

	e.notify(ctx, core.LifecycleEvent{
		Type:      core.EventConsensusStart,
		RunID:     runID,
		Query:     input.Query,
		Responses: len(input.Responses),
		Time:      start,
	})

	result, err := e.run(ctx, runID, input, logger)
	if err != nil {
		logger.Error("consensus failed", "error", err)
		e.notify(ctx, core.LifecycleEvent{
			Type:      core.EventConsensusFailed,
			RunID:     runID,
			Query:     input.Query,
			Responses: len(input.Responses),
			Err:       err,
			Duration:  time.Since(start),
			Time:      time.Now(),
		})
		return nil, err
	}

	logger.Info("consensus complete",
		"agents", len(result.ParticipatingAgents),
		"confidence", result.Confidence,
		"quality", result.QualityScore,
		"evidence_level", result.EvidenceLevel,
	)
	e.notify(ctx, core.LifecycleEvent{
		Type:      core.EventConsensusComplete,
		RunID:     runID,
		Query:     input.Query,
		Responses: len(input.Responses),
		Result:    result,
		Duration:  time.Since(start),
		Time:      time.Now(),
	})
	return result, nil
}

func (e *Engine) run(ctx context.Context, runID string, input *core.ConsensusInput, logger *logging.Logger) (*core.ConsensusResult, error) {
	minConfidence := e.cfg.MinimumConfidence
	if input.MinimumConfidence != nil {
		minConfidence = *input.MinimumConfidence
	}

	valid, rejected, err := e.validator.Validate(input.Responses, minConfidence)
	for _, r := range rejected {
		logger.Debug("response rejected", "agent", r.AgentID, "reason", r.Reason)
	}
	if err != nil {
		return nil, err
	}

	claims := e.extractor.Extract(input, valid)
	logger.Debug("claims extracted", "count", len(claims))

	strategy := e.clusterStrategy(logger)
	clusters, err := strategy.Cluster(ctx, claims)
	if err != nil {
		fallback := NewJaccardClusterer(StrategyKeyword, e.cfg.KeywordThreshold)
		logger.Warn("clustering failed, using keyword fallback", "strategy", strategy.Name(), "error", err)
		strategy = fallback
		if clusters, err = fallback.Cluster(ctx, claims); err != nil {
			return nil, err
		}
	}

	synthesis := e.synthesizer.Synthesize(input.Query, clusters, valid)
	grade := e.grader.Grade(valid, clusters)

	now := time.Now().UTC()
	metadata := map[string]interface{}{
		core.MetaClusterCount:        len(clusters),
		core.MetaTotalClaims:         len(claims),
		core.MetaTimestamp:           now.Format(time.RFC3339),
		core.MetaRunID:               runID,
		core.MetaClustering:          strategy.Name(),
		core.MetaResponsesConsidered: len(input.Responses),
		core.MetaResponsesAccepted:   len(valid),
	}
	if synthesis.Domain != "" {
		metadata[core.MetaDomain] = synthesis.Domain
	}

	validated := false
	if input.RequireClinicalValidation {
		report := e.clinical.Validate(ctx, synthesis.Answer, valid)
		validated = report.Passed
		metadata[core.MetaClinicalChecks] = report.Outcomes
	}

	quality := QualityScore(QualityInputs{
		ParticipatingAgents: len(synthesis.ParticipatingAgents),
		EvidenceWeight:      e.hierarchy.Weight(grade.EvidenceLevel),
		Confidence:          grade.Confidence,
		Answer:              synthesis.Answer,
		ClusterCount:        len(clusters),
		ConsensusStrength:   grade.ConsensusStrength,
	})

	return &core.ConsensusResult{
		ID:                  uuid.New().String(),
		Query:               input.Query,
		Answer:              synthesis.Answer,
		Confidence:          grade.Confidence,
		EvidenceLevel:       grade.EvidenceLevel,
		ParticipatingAgents: synthesis.ParticipatingAgents,
		SynthesisMethod:     core.SynthesisMethodWeighted,
		QualityScore:        quality,
		ClinicallyValidated: validated,
		Citations:           synthesis.Citations,
		Metadata:            metadata,
		CreatedAt:           now,
	}, nil
}

// clusterStrategy picks the strategy for one run. In auto mode, a missing or
// disabled embedder degrades to keyword clustering.
func (e *Engine) clusterStrategy(logger *logging.Logger) ClusterStrategy {
	if e.strategy != nil {
		return e.strategy
	}
	switch e.cfg.ClusteringMode {
	case ClusteringSimple:
		return NewJaccardClusterer(StrategySimple, e.cfg.SimpleThreshold)
	case ClusteringKeyword:
		return NewJaccardClusterer(StrategyKeyword, e.cfg.KeywordThreshold)
	}

	if e.embedder != nil && !e.embedderOff.Load() {
		return NewEmbeddingClusterer(e.embedder, e.cfg.SimpleThreshold)
	}
	e.degradeOnce.Do(func() {
		logger.Warn("no similarity provider available, clustering with keyword fallback",
			"threshold", e.cfg.KeywordThreshold)
	})
	return NewJaccardClusterer(StrategyKeyword, e.cfg.KeywordThreshold)
}

func (e *Engine) notify(ctx context.Context, ev core.LifecycleEvent) {
	for _, o := range e.observers {
		o.Notify(ctx, ev)
	}
}

func checkInput(input *core.ConsensusInput) error {
	if input == nil || strings.TrimSpace(input.Query) == "" {
		return core.ErrValidation(core.CodeEmptyQuery, "query must not be empty")
	}
	if len(input.Query) > core.MaxQueryLength {
		return core.ErrValidation(core.CodeQueryTooLong,
			fmt.Sprintf("query exceeds %d bytes", core.MaxQueryLength))
	}
	return nil
}
