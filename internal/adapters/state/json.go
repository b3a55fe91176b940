package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

const envelopeVersion = 1

// resultEnvelope is the on-disk format of one stored result.
type resultEnvelope struct {
	Version  int                  `json:"version"`
	Checksum string               `json:"checksum"`
	SavedAt  time.Time            `json:"saved_at"`
	Input    *core.ConsensusInput `json:"input,omitempty"`
	Result   json.RawMessage      `json:"result"`
}

// JSONResultStore keeps one JSON file per result in a directory.
type JSONResultStore struct {
	dir string
	mu  sync.RWMutex
}

// NewJSONResultStore creates a file-backed store rooted at dir.
func NewJSONResultStore(dir string) (*JSONResultStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating result directory: %w", err)
	}
	return &JSONResultStore{dir: dir}, nil
}

func (s *JSONResultStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes the result atomically, replacing any previous file for the ID.
func (s *JSONResultStore) Save(_ context.Context, input *core.ConsensusInput, result *core.ConsensusResult) error {
	if result == nil || result.ID == "" {
		return core.ErrValidation(core.CodeInvalidResult, "result has no id")
	}
	if strings.ContainsAny(result.ID, `/\`) {
		return core.ErrValidation(core.CodeInvalidResult, "result id contains a path separator")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := encodeEnvelope(input, result)
	if err != nil {
		return err
	}
	if err := atomicWriteFile(s.path(result.ID), data, 0o600); err != nil {
		return fmt.Errorf("writing result file: %w", err)
	}
	return nil
}

// Get reads and verifies one stored result.
func (s *JSONResultStore) Get(_ context.Context, id string) (*core.ConsensusResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	env, err := s.readEnvelope(id)
	if err != nil {
		return nil, err
	}
	return decodeResult(id, env.Result, env.Checksum)
}

// List returns summaries newest first. A non-positive limit returns everything.
func (s *JSONResultStore) List(_ context.Context, limit int) ([]core.ResultSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading result directory: %w", err)
	}

	var out []core.ResultSummary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		env, err := s.readEnvelope(id)
		if err != nil {
			continue
		}
		result, err := decodeResult(id, env.Result, env.Checksum)
		if err != nil {
			continue
		}
		out = append(out, summarize(result))
	}

	sort.SliceStable(out, func(i, j int) bool {
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

// GetInput returns the stored input for a result, or nil when none was kept.
func (s *JSONResultStore) GetInput(_ context.Context, id string) (*core.ConsensusInput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	env, err := s.readEnvelope(id)
	if err != nil {
		return nil, err
	}
	return env.Input, nil
}

// Delete removes a stored result.
func (s *JSONResultStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return core.ErrNotFound("result", id)
	}
	if err != nil {
		return fmt.Errorf("deleting result %s: %w", id, err)
	}
	return nil
}

// Prune deletes results created before cutoff. Unreadable files are left alone.
func (s *JSONResultStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("reading result directory: %w", err)
	}

	var removed int64
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		env, err := s.readEnvelope(id)
		if err != nil {
			continue
		}
		result, err := decodeResult(id, env.Result, env.Checksum)
		if err != nil || !result.CreatedAt.Before(cutoff) {
			continue
		}
		if err := os.Remove(s.path(id)); err != nil {
			return removed, fmt.Errorf("pruning result %s: %w", id, err)
		}
		removed++
	}
	return removed, nil
}

// Close is a no-op for the file store.
func (s *JSONResultStore) Close() error { return nil }

func (s *JSONResultStore) readEnvelope(id string) (*resultEnvelope, error) {
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, core.ErrNotFound("result", id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}

	var env resultEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, core.ErrState(core.CodeCorruptResult,
			fmt.Sprintf("result file %s is not valid JSON", id)).WithCause(err)
	}
	return &env, nil
}

// WriteResultFile exports a single result as an indented JSON envelope at path.
func WriteResultFile(path string, input *core.ConsensusInput, result *core.ConsensusResult) error {
	data, err := encodeEnvelope(input, result)
	if err != nil {
		return err
	}
	if err := atomicWriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing result file: %w", err)
	}
	return nil
}

// ReadResultFile imports a result written by WriteResultFile.
func ReadResultFile(path string) (*core.ConsensusInput, *core.ConsensusResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading result file: %w", err)
	}
	var env resultEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("parsing result file: %w", err)
	}
	result, err := decodeResult(filepath.Base(path), env.Result, env.Checksum)
	if err != nil {
		return nil, nil, err
	}
	return env.Input, result, nil
}

func encodeEnvelope(input *core.ConsensusInput, result *core.ConsensusResult) ([]byte, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	env := resultEnvelope{
		Version:  envelopeVersion,
		Checksum: checksum(payload),
		SavedAt:  time.Now().UTC(),
		Input:    input,
		Result:   payload,
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling envelope: %w", err)
	}
	return data, nil
}

func summarize(r *core.ConsensusResult) core.ResultSummary {
	return core.ResultSummary{
		ID:            r.ID,
		Query:         r.Query,
		Confidence:    r.Confidence,
		QualityScore:  r.QualityScore,
		EvidenceLevel: r.EvidenceLevel,
		AgentCount:    len(r.ParticipatingAgents),
		CreatedAt:     r.CreatedAt,
	}
}

var _ core.ResultStore = (*JSONResultStore)(nil)
