package state

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

//go:embed migrations/001_results.sql
var migrationV1 string

//go:embed migrations/002_result_inputs.sql
var migrationV2 string

// timeLayout keeps created_at lexically sortable.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteResultStore implements core.ResultStore with SQLite storage.
type SQLiteResultStore struct {
	dbPath string
	db     *sql.DB
	mu     sync.RWMutex
	now    func() time.Time
}

// SQLiteOption configures the store.
type SQLiteOption func(*SQLiteResultStore)

// WithClock overrides the time source used for created_at on results that carry none.
func WithClock(now func() time.Time) SQLiteOption {
	return func(s *SQLiteResultStore) {
		s.now = now
	}
}

// NewSQLiteResultStore opens (creating as needed) the result database at dbPath.
func NewSQLiteResultStore(dbPath string, opts ...SQLiteOption) (*SQLiteResultStore, error) {
	s := &SQLiteResultStore{dbPath: dbPath, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating result directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s.db = db

	if err := s.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteResultStore) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteResultStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteResultStore) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		// Table doesn't exist yet
		version = 0
	}

	if version < 1 {
		if _, err := s.db.Exec(migrationV1); err != nil {
			return fmt.Errorf("applying migration v1: %w", err)
		}
	}
	if version < 2 {
		if _, err := s.db.Exec(migrationV2); err != nil {
			return fmt.Errorf("applying migration v2: %w", err)
		}
	}
	return nil
}

// SchemaVersion returns the highest applied migration.
func (s *SQLiteResultStore) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// Save stores result, together with the input that produced it when non-nil.
// Saving an existing ID replaces the row.
func (s *SQLiteResultStore) Save(ctx context.Context, input *core.ConsensusInput, result *core.ConsensusResult) error {
	if result == nil {
		return core.ErrValidation(core.CodeInvalidResult, "nil result")
	}
	if result.ID == "" {
		return core.ErrValidation(core.CodeInvalidResult, "result has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := result.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	var inputJSON sql.NullString
	if input != nil {
		data, err := json.Marshal(input)
		if err != nil {
			return fmt.Errorf("marshaling input: %w", err)
		}
		inputJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (
			id, query, confidence, quality_score, evidence_level, agent_count,
			clinically_validated, result_json, checksum, created_at, input_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			query = excluded.query,
			confidence = excluded.confidence,
			quality_score = excluded.quality_score,
			evidence_level = excluded.evidence_level,
			agent_count = excluded.agent_count,
			clinically_validated = excluded.clinically_validated,
			result_json = excluded.result_json,
			checksum = excluded.checksum,
			created_at = excluded.created_at,
			input_json = excluded.input_json
	`,
		result.ID, result.Query, result.Confidence, result.QualityScore,
		string(result.EvidenceLevel), len(result.ParticipatingAgents),
		boolToInt(result.ClinicallyValidated), string(resultJSON), checksum(resultJSON),
		createdAt.UTC().Format(timeLayout), inputJSON,
	)
	if err != nil {
		return fmt.Errorf("saving result %s: %w", result.ID, err)
	}
	return nil
}

// Get loads a stored result, verifying its checksum.
func (s *SQLiteResultStore) Get(ctx context.Context, id string) (*core.ConsensusResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload, sum string
	err := s.db.QueryRowContext(ctx,
		"SELECT result_json, checksum FROM results WHERE id = ?", id,
	).Scan(&payload, &sum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound("result", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading result %s: %w", id, err)
	}

	return decodeResult(id, []byte(payload), sum)
}

// GetInput returns the stored input for a result, or nil when none was kept.
func (s *SQLiteResultStore) GetInput(ctx context.Context, id string) (*core.ConsensusInput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT input_json FROM results WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound("result", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading input %s: %w", id, err)
	}
	if !payload.Valid {
		return nil, nil
	}

	var input core.ConsensusInput
	if err := json.Unmarshal([]byte(payload.String), &input); err != nil {
		return nil, fmt.Errorf("unmarshaling input %s: %w", id, err)
	}
	return &input, nil
}

// List returns summaries newest first. A non-positive limit returns everything.
func (s *SQLiteResultStore) List(ctx context.Context, limit int) ([]core.ResultSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, confidence, quality_score, evidence_level, agent_count, created_at
		FROM results
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	var out []core.ResultSummary
	for rows.Next() {
		var (
			sum       core.ResultSummary
			level     string
			createdAt string
		)
		if err := rows.Scan(&sum.ID, &sum.Query, &sum.Confidence, &sum.QualityScore,
			&level, &sum.AgentCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		sum.EvidenceLevel = core.EvidenceGrade(level)
		if t, err := time.Parse(timeLayout, createdAt); err == nil {
			sum.CreatedAt = t
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes a stored result.
func (s *SQLiteResultStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM results WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting result %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound("result", id)
	}
	return nil
}

// Prune deletes results created before cutoff and returns how many were removed.
func (s *SQLiteResultStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM results WHERE created_at < ?", cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning results: %w", err)
	}
	return res.RowsAffected()
}

// decodeResult verifies sum against the compact form of payload, so indented
// envelopes hash the same as the bytes originally marshaled.
func decodeResult(id string, payload []byte, sum string) (*core.ConsensusResult, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, payload); err != nil {
		return nil, core.ErrState(core.CodeCorruptResult,
			fmt.Sprintf("stored result %s is not valid JSON", id)).WithCause(err)
	}
	if checksum(compact.Bytes()) != sum {
		return nil, core.ErrState(core.CodeCorruptResult,
			fmt.Sprintf("stored result %s failed checksum verification", id))
	}
	var result core.ConsensusResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshaling result %s: %w", id, err)
	}
	return &result, nil
}

func checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ core.ResultStore = (*SQLiteResultStore)(nil)
