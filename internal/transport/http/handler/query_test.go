package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nlquery-engine/internal/ai"
	"nlquery-engine/internal/app"
	"nlquery-engine/internal/metrics"
	"nlquery-engine/internal/model"
	"nlquery-engine/internal/platform/sqlpool"
)

type memCache struct {
	store map[string]map[string]any
}

func (m *memCache) Get(_ context.Context, key string) (map[string]any, bool, error) {
	payload, ok := m.store[key]
	return payload, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, payload map[string]any) error {
	m.store[key] = payload
	return nil
}

type memHistory struct {
	entries []model.HistoryEntry
}

func (m *memHistory) Append(_ context.Context, e model.HistoryEntry) error {
	m.entries = append([]model.HistoryEntry{e}, m.entries...)
	return nil
}

func (m *memHistory) Recent(_ context.Context, n int) ([]model.HistoryEntry, error) {
	if n > len(m.entries) {
		n = len(m.entries)
	}
	return m.entries[:n], nil
}

type memChunks struct{}

func (memChunks) ListWithDocuments() ([]model.ChunkWithDocument, error) { return nil, nil }

func newQueryRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pool := sqlpool.New()
	t.Cleanup(func() { _ = pool.Close() })

	db, _, err := pool.Get(context.Background(), "sqlite://:memory:")
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

	svc := app.NewQueryService(
		pool,
		ai.NewLocalEmbedder(64),
		nil,
		&memCache{store: map[string]map[string]any{}},
		&memHistory{},
		memChunks{},
		metrics.NewCollector(),
		"sqlite://:memory:",
		50,
		8,
	)

	h := NewQueryHandler(svc)
	r := gin.New()
	r.POST("/api/query", h.Run)
	r.GET("/api/query/history", h.History)
	return r
}

func TestQueryRunRejectsMissingQuery(t *testing.T) {
	r := newQueryRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "query is required", body["detail"])
}

func TestQueryRunCount(t *testing.T) {
	r := newQueryRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/query",
		strings.NewReader(`{"query": "how many employees do we have"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "sql", body["type"])
	assert.Contains(t, body, "metrics")

	rows, ok := body["rows"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	first, ok := rows[0].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, first["count"])
}

func TestQueryHistoryEndpoint(t *testing.T) {
	r := newQueryRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/query",
		strings.NewReader(`{"query": "list all employees"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/query/history", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		OK      bool                 `json:"ok"`
		History []model.HistoryEntry `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.OK)
	require.Len(t, body.History, 1)
	assert.Equal(t, "list all employees", body.History[0].Query)
}
