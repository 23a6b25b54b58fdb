package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nlquery-engine/internal/ai"
	"nlquery-engine/internal/metrics"
	"nlquery-engine/internal/model"
	"nlquery-engine/internal/platform/sqlpool"
)

type fakeCache struct {
	store map[string]map[string]any
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string]map[string]any{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (map[string]any, bool, error) {
	payload, ok := f.store[key]
	return payload, ok, nil
}

func (f *fakeCache) Set(_ context.Context, key string, payload map[string]any) error {
	f.store[key] = payload
	return nil
}

type fakeHistory struct {
	entries []model.HistoryEntry
}

func (f *fakeHistory) Append(_ context.Context, e model.HistoryEntry) error {
	f.entries = append([]model.HistoryEntry{e}, f.entries...)
	return nil
}

func (f *fakeHistory) Recent(_ context.Context, n int) ([]model.HistoryEntry, error) {
	if n > len(f.entries) {
		n = len(f.entries)
	}
	return f.entries[:n], nil
}

type fakeChunks struct {
	rows []model.ChunkWithDocument
}

func (f *fakeChunks) ListWithDocuments() ([]model.ChunkWithDocument, error) {
	return f.rows, nil
}

func embedJSON(t *testing.T, e *ai.LocalEmbedder, text string) string {
	t.Helper()
	vec, err := e.Embed(context.Background(), text)
	require.NoError(t, err)
	c := model.Chunk{}
	c.SetEmbedding(vec)
	return c.Embedding
}

func newTestQueryService(t *testing.T, chunks ChunkSource) (*QueryService, *fakeCache, *fakeHistory, *metrics.Collector) {
	t.Helper()
	ctx := context.Background()

	pool := sqlpool.New()
	t.Cleanup(func() { _ = pool.Close() })

	db, _, err := pool.Get(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	stmts := []string{
		`CREATE TABLE departments (id INTEGER PRIMARY KEY, name TEXT, manager_id INTEGER)`,
		`CREATE TABLE employees (
			id INTEGER PRIMARY KEY, name TEXT, email TEXT, position TEXT,
			salary REAL, hire_date TEXT, skills TEXT, department_id INTEGER, reports_to TEXT)`,
		`INSERT INTO departments VALUES (1, 'Engineering', NULL)`,
		`INSERT INTO employees VALUES
			(1, 'Alice Johnson', 'alice@corp.com', 'Engineer', 120000, '2021-03-01', 'python', 1, NULL),
			(2, 'Bob Lee', 'bob@corp.com', 'Manager', 110000, '2019-05-10', '', 1, NULL)`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}

	cacheFake := newFakeCache()
	historyFake := &fakeHistory{}
	collector := metrics.NewCollector()
	svc := NewQueryService(
		pool,
		ai.NewLocalEmbedder(256),
		nil,
		cacheFake,
		historyFake,
		chunks,
		collector,
		"sqlite://:memory:",
		50,
		8,
	)
	return svc, cacheFake, historyFake, collector
}

func TestProcessRejectsEmptyQuery(t *testing.T) {
	svc, _, _, _ := newTestQueryService(t, &fakeChunks{})
	_, _, err := svc.Process(context.Background(), QueryInput{Query: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestProcessSQLCountAndCache(t *testing.T) {
	svc, cacheFake, historyFake, _ := newTestQueryService(t, &fakeChunks{})
	ctx := context.Background()

	payload, m, err := svc.Process(ctx, QueryInput{Query: "How many employees do we have"})
	require.NoError(t, err)
	assert.Equal(t, "miss", m.Cache)
	assert.Equal(t, "sql", payload["type"])

	rows, ok := payload["rows"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	first, ok := rows[0].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, first["count"])

	assert.Len(t, cacheFake.store, 1)
	require.Len(t, historyFake.entries, 1)
	assert.Equal(t, "sql", historyFake.entries[0].Type)
	assert.Equal(t, "miss", historyFake.entries[0].Cache)

	// The identical query replays from the cache.
	payload, m, err = svc.Process(ctx, QueryInput{Query: "How many employees do we have"})
	require.NoError(t, err)
	assert.Equal(t, "hit", m.Cache)
	assert.Equal(t, "sql", payload["type"])
	assert.Len(t, historyFake.entries, 2)
	assert.Equal(t, "hit", historyFake.entries[0].Cache)
}

func TestProcessDocumentSearch(t *testing.T) {
	embedder := ai.NewLocalEmbedder(256)
	chunks := &fakeChunks{rows: []model.ChunkWithDocument{
		{
			Text:      "Termination policy: termination requires notice per policy.",
			Embedding: embedJSON(t, embedder, "Termination policy: termination requires notice per policy."),
			Filename:  "contract.pdf",
			DocType:   "pdf",
		},
		{
			Text:      "Quarterly revenue figures improved steadily.",
			Embedding: embedJSON(t, embedder, "Quarterly revenue figures improved steadily."),
			Filename:  "report.pdf",
			DocType:   "pdf",
		},
	}}

	svc, _, _, _ := newTestQueryService(t, chunks)
	payload, m, err := svc.Process(context.Background(), QueryInput{
		Query: "what does the termination policy say",
	})
	require.NoError(t, err)
	assert.Equal(t, "miss", m.Cache)
	assert.Equal(t, "document", payload["type"])

	results, ok := payload["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 2)
	first, ok := results[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "contract.pdf", first["filename"])
}

func TestProcessHybrid(t *testing.T) {
	embedder := ai.NewLocalEmbedder(256)
	chunks := &fakeChunks{rows: []model.ChunkWithDocument{{
		Text:      "Resume of Alice Johnson, python engineer.",
		Embedding: embedJSON(t, embedder, "Resume of Alice Johnson, python engineer."),
		Filename:  "alice.pdf",
		DocType:   "pdf",
	}}}

	svc, _, _, _ := newTestQueryService(t, chunks)
	payload, _, err := svc.Process(context.Background(), QueryInput{
		Query: "employees whose resume mentions python",
	})
	require.NoError(t, err)
	assert.Equal(t, "hybrid", payload["type"])
	assert.Contains(t, payload, "sql")
	assert.Contains(t, payload, "documents")
}

func TestProcessEmptyDocumentIndex(t *testing.T) {
	svc, _, _, _ := newTestQueryService(t, &fakeChunks{})
	payload, _, err := svc.Process(context.Background(), QueryInput{
		Query: "summarize the leave policy",
	})
	require.NoError(t, err)
	assert.Equal(t, "document", payload["type"])
	results, ok := payload["results"].([]any)
	require.True(t, ok)
	assert.Empty(t, results)
}

// A replayed query still counts toward the exec-time stats.
func TestProcessCacheHitRecordsExecTime(t *testing.T) {
	svc, _, _, collector := newTestQueryService(t, &fakeChunks{})
	ctx := context.Background()

	_, _, err := svc.Process(ctx, QueryInput{Query: "how many employees do we have"})
	require.NoError(t, err)
	assert.Len(t, collector.Snapshot(0, 0).RecentExecTimes, 1)

	_, m, err := svc.Process(ctx, QueryInput{Query: "how many employees do we have"})
	require.NoError(t, err)
	require.Equal(t, "hit", m.Cache)

	s := collector.Snapshot(0, 0)
	assert.Len(t, s.RecentExecTimes, 2)
	assert.EqualValues(t, 1, s.CacheHits)
	assert.EqualValues(t, 2, s.TotalQueries)
}

// gaugeChunks records the active-queries gauge at the moment the document
// index is read, which only happens inside the bracketed search.
type gaugeChunks struct {
	collector *metrics.Collector
	observed  int64
}

func (g *gaugeChunks) ListWithDocuments() ([]model.ChunkWithDocument, error) {
	g.observed = g.collector.Snapshot(0, 0).ActiveQueries
	return nil, nil
}

func TestProcessDocumentSearchTracksActiveQueries(t *testing.T) {
	gc := &gaugeChunks{}
	svc, _, _, collector := newTestQueryService(t, gc)
	gc.collector = collector

	_, _, err := svc.Process(context.Background(), QueryInput{
		Query: "summarize the leave policy",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, gc.observed)
	assert.EqualValues(t, 0, collector.Snapshot(0, 0).ActiveQueries)
}

func TestProcessHistoryOrder(t *testing.T) {
	svc, _, _, _ := newTestQueryService(t, &fakeChunks{})
	ctx := context.Background()

	_, _, err := svc.Process(ctx, QueryInput{Query: "list all employees"})
	require.NoError(t, err)
	_, _, err = svc.Process(ctx, QueryInput{Query: "how many employees do we have"})
	require.NoError(t, err)

	entries, err := svc.History(ctx, 20)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "how many employees do we have", entries[0].Query)
}
