package state

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

func testResult(id string, created time.Time) *core.ConsensusResult {
	return &core.ConsensusResult{
		ID:                  id,
		Query:               "Is metformin first-line therapy for type 2 diabetes?",
		Answer:              "Metformin is recommended as first-line therapy.",
		Confidence:          0.82,
		EvidenceLevel:       core.Grade1a,
		ParticipatingAgents: []string{"agent-a", "agent-b"},
		SynthesisMethod:     core.SynthesisMethodWeighted,
		QualityScore:        0.76,
		Citations:           []string{"Evidence level: 1a"},
		Metadata:            map[string]interface{}{"cluster_count": float64(2)},
		CreatedAt:           created,
	}
}

func testInput() *core.ConsensusInput {
	return &core.ConsensusInput{
		Query: "Is metformin first-line therapy for type 2 diabetes?",
		Responses: []core.AgentResponse{
			{AgentID: "agent-a", Answer: "Metformin is first-line.", Confidence: 0.9, EvidenceGrade: core.Grade1a},
		},
	}
}

func newSQLiteStore(t *testing.T) *SQLiteResultStore {
	t.Helper()
	store, err := NewSQLiteResultStore(filepath.Join(t.TempDir(), "nested", "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteResultStore_SaveAndGet(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, testInput(), testResult("r1", created)))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, core.Grade1a, got.EvidenceLevel)
	assert.Equal(t, []string{"agent-a", "agent-b"}, got.ParticipatingAgents)
	assert.True(t, got.CreatedAt.Equal(created))

	input, err := store.GetInput(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, input)
	assert.Equal(t, "agent-a", input.Responses[0].AgentID)
}

func TestSQLiteResultStore_SaveWithoutInput(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, nil, testResult("r1", time.Now())))

	input, err := store.GetInput(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, input)
}

func TestSQLiteResultStore_SaveReplaces(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	r := testResult("r1", time.Now())

	require.NoError(t, store.Save(ctx, nil, r))
	r.Confidence = 0.5
	require.NoError(t, store.Save(ctx, nil, r))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got.Confidence, 1e-9)

	list, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSQLiteResultStore_SaveRejectsMissingID(t *testing.T) {
	store := newSQLiteStore(t)

	err := store.Save(context.Background(), nil, &core.ConsensusResult{})
	assert.True(t, core.HasCode(err, core.CodeInvalidResult))

	err = store.Save(context.Background(), nil, nil)
	assert.True(t, core.HasCode(err, core.CodeInvalidResult))
}

func TestSQLiteResultStore_GetMissing(t *testing.T) {
	store := newSQLiteStore(t)

	_, err := store.Get(context.Background(), "nope")
	assert.True(t, core.HasCode(err, core.CodeResultNotFound))

	_, err = store.GetInput(context.Background(), "nope")
	assert.True(t, core.HasCode(err, core.CodeResultNotFound))
}

func TestSQLiteResultStore_ListNewestFirst(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, store.Save(ctx, nil, testResult(id, base.Add(time.Duration(i)*time.Hour))))
	}

	list, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "mid", list[1].ID)
	assert.Equal(t, "old", list[2].ID)
	assert.Equal(t, 2, list[0].AgentCount)
	assert.Equal(t, core.Grade1a, list[0].EvidenceLevel)
	assert.True(t, list[0].CreatedAt.Equal(base.Add(2*time.Hour)))

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSQLiteResultStore_ZeroCreatedAtUsesClock(t *testing.T) {
	fixed := time.Date(2026, 5, 5, 5, 5, 5, 0, time.UTC)
	store, err := NewSQLiteResultStore(filepath.Join(t.TempDir(), "results.db"),
		WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(context.Background(), nil, testResult("r1", time.Time{})))

	list, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].CreatedAt.Equal(fixed))
}

func TestSQLiteResultStore_DeleteAndPrune(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, nil, testResult("a", base)))
	require.NoError(t, store.Save(ctx, nil, testResult("b", base.Add(48*time.Hour))))
	require.NoError(t, store.Save(ctx, nil, testResult("c", base.Add(96*time.Hour))))

	require.NoError(t, store.Delete(ctx, "c"))
	assert.True(t, core.HasCode(store.Delete(ctx, "c"), core.CodeResultNotFound))

	n, err := store.Prune(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].ID)
}

func TestSQLiteResultStore_DetectsTampering(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, nil, testResult("r1", time.Now())))

	_, err := store.db.ExecContext(ctx,
		`UPDATE results SET result_json = replace(result_json, '"confidence":0.82', '"confidence":0.99') WHERE id = ?`, "r1")
	require.NoError(t, err)

	_, err = store.Get(ctx, "r1")
	assert.True(t, core.HasCode(err, core.CodeCorruptResult))
}

func TestSQLiteResultStore_ReopenKeepsDataAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	ctx := context.Background()

	store, err := NewSQLiteResultStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, nil, testResult("r1", time.Now())))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteResultStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	version, err := reopened.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	_, err = reopened.Get(ctx, "r1")
	assert.NoError(t, err)
}

func TestSQLiteResultStore_MigratesVersionOneDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(migrationV1)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := NewSQLiteResultStore(path)
	require.NoError(t, err)
	defer store.Close()

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, version)
	assert.NoError(t, store.Save(context.Background(), testInput(), testResult("r1", time.Now())))
}
