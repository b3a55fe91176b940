package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

// MemoryResultStore is an in-memory core.ResultStore.
type MemoryResultStore struct {
	mu      sync.Mutex
	results map[string]*core.ConsensusResult
	inputs  map[string]*core.ConsensusInput
	saveErr error
	saves   int
	closed  bool
}

// NewMemoryResultStore creates an empty store.
func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{
		results: make(map[string]*core.ConsensusResult),
		inputs:  make(map[string]*core.ConsensusInput),
	}
}

// WithSaveError makes every Save fail with err.
func (m *MemoryResultStore) WithSaveError(err error) *MemoryResultStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
	return m
}

// Save implements core.ResultStore.
func (m *MemoryResultStore) Save(_ context.Context, input *core.ConsensusInput, result *core.ConsensusResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	if result == nil || result.ID == "" {
		return core.ErrValidation(core.CodeInvalidResult, "result has no id")
	}
	copied := *result
	m.results[result.ID] = &copied
	m.inputs[result.ID] = input
	return nil
}

// Get implements core.ResultStore.
func (m *MemoryResultStore) Get(_ context.Context, id string) (*core.ConsensusResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[id]
	if !ok {
		return nil, core.ErrNotFound("result", id)
	}
	copied := *r
	return &copied, nil
}

// GetInput returns the input saved with a result.
func (m *MemoryResultStore) GetInput(_ context.Context, id string) (*core.ConsensusInput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[id]; !ok {
		return nil, core.ErrNotFound("result", id)
	}
	return m.inputs[id], nil
}

// List implements core.ResultStore, newest first.
func (m *MemoryResultStore) List(_ context.Context, limit int) ([]core.ResultSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]core.ResultSummary, 0, len(m.results))
	for _, r := range m.results {
		out = append(out, core.ResultSummary{
			ID:            r.ID,
			Query:         r.Query,
			Confidence:    r.Confidence,
			QualityScore:  r.QualityScore,
			EvidenceLevel: r.EvidenceLevel,
			AgentCount:    len(r.ParticipatingAgents),
			CreatedAt:     r.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close implements core.ResultStore.
func (m *MemoryResultStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SaveCount returns how many times Save was called.
func (m *MemoryResultStore) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Closed reports whether Close was called.
func (m *MemoryResultStore) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockEmbedder implements core.Embedder and core.Warmer. By default every
// text maps to the same vector, so all claims are similar.
type MockEmbedder struct {
	mu         sync.Mutex
	vectorFunc func(text string) []float32
	embedErr   error
	warmErr    error
	embedCalls int
	warmCalls  int
}

// NewMockEmbedder creates an embedder returning identical vectors.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		vectorFunc: func(string) []float32 { return []float32{1, 1} },
	}
}

// WithVectors sets how texts map to vectors.
func (m *MockEmbedder) WithVectors(fn func(text string) []float32) *MockEmbedder {
	m.vectorFunc = fn
	return m
}

// WithEmbedError makes Embed fail.
func (m *MockEmbedder) WithEmbedError(err error) *MockEmbedder {
	m.embedErr = err
	return m
}

// WithWarmError makes Warm fail.
func (m *MockEmbedder) WithWarmError(err error) *MockEmbedder {
	m.warmErr = err
	return m
}

// Name implements core.Embedder.
func (m *MockEmbedder) Name() string { return "mock" }

// Embed implements core.Embedder.
func (m *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vectorFunc(text)
	}
	return out, nil
}

// Warm implements core.Warmer.
func (m *MockEmbedder) Warm(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warmCalls++
	return m.warmErr
}

// EmbedCalls returns how many times Embed was called.
func (m *MockEmbedder) EmbedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedCalls
}

// WarmCalls returns how many times Warm was called.
func (m *MockEmbedder) WarmCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.warmCalls
}

// MockCheck is a clinical check with a fixed outcome.
type MockCheck struct {
	CheckName string
	Pass      bool
	Err       error
}

// Name implements core.ClinicalCheck.
func (c MockCheck) Name() string { return c.CheckName }

// Check implements core.ClinicalCheck.
func (c MockCheck) Check(context.Context, string, []core.AgentResponse) (bool, error) {
	return c.Pass, c.Err
}

var (
	_ core.ResultStore   = (*MemoryResultStore)(nil)
	_ core.Embedder      = (*MockEmbedder)(nil)
	_ core.Warmer        = (*MockEmbedder)(nil)
	_ core.ClinicalCheck = MockCheck{}
)
