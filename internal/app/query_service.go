package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"nlquery-engine/internal/ai"
	"nlquery-engine/internal/cache"
	"nlquery-engine/internal/metrics"
	"nlquery-engine/internal/model"
	"nlquery-engine/internal/nlsql"
	"nlquery-engine/internal/platform/sqlpool"
)

// ResultCache is the query result cache (redis in production, a fake in
// tests).
type ResultCache interface {
	Get(ctx context.Context, key string) (map[string]any, bool, error)
	Set(ctx context.Context, key string, payload map[string]any) error
}

// HistorySink records executed queries, newest first.
type HistorySink interface {
	Append(ctx context.Context, entry model.HistoryEntry) error
	Recent(ctx context.Context, n int) ([]model.HistoryEntry, error)
}

// ChunkSource supplies the embedded chunks for document search.
type ChunkSource interface {
	ListWithDocuments() ([]model.ChunkWithDocument, error)
}

type QueryService struct {
	pool        *sqlpool.Pool
	embedder    ai.Embedder
	intentModel *nlsql.IntentModel
	cache       ResultCache
	history     HistorySink
	chunks      ChunkSource
	collector   *metrics.Collector

	defaultConn     string
	defaultLimit    int
	defaultDocLimit int
}

type QueryInput struct {
	Query      string
	ConnString string
	Limit      int
	Offset     int
	DocLimit   int
	DocOffset  int
}

func NewQueryService(
	pool *sqlpool.Pool,
	embedder ai.Embedder,
	intentModel *nlsql.IntentModel,
	resultCache ResultCache,
	history HistorySink,
	chunks ChunkSource,
	collector *metrics.Collector,
	defaultConn string,
	defaultLimit int,
	defaultDocLimit int,
) *QueryService {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	if defaultDocLimit <= 0 {
		defaultDocLimit = 8
	}
	return &QueryService{
		pool:            pool,
		embedder:        embedder,
		intentModel:     intentModel,
		cache:           resultCache,
		history:         history,
		chunks:          chunks,
		collector:       collector,
		defaultConn:     defaultConn,
		defaultLimit:    defaultLimit,
		defaultDocLimit: defaultDocLimit,
	}
}

// Process runs the full pipeline for one natural-language query: cache check,
// classification, the sql and/or document branch, then bookkeeping. The
// returned payload is the result body without the per-call metrics block.
func (s *QueryService) Process(ctx context.Context, in QueryInput) (map[string]any, model.QueryMetrics, error) {
	q := strings.TrimSpace(in.Query)
	if q == "" {
		return nil, model.QueryMetrics{}, ErrEmptyQuery
	}

	start := time.Now()
	s.collector.QueryStarted()

	conn := strings.TrimSpace(in.ConnString)
	if conn == "" {
		conn = s.defaultConn
	}
	limit := in.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	docLimit := in.DocLimit
	if docLimit <= 0 {
		docLimit = s.defaultDocLimit
	}

	// Only the first page is cached; a paged-through request is rare enough
	// that recomputing it is fine.
	cacheable := in.Offset == 0 && in.DocOffset == 0
	key := cache.Key(q, conn, limit)

	qtype := nlsql.Classify(q)

	if cacheable {
		if payload, found, err := s.cache.Get(ctx, key); err != nil {
			log.Printf("query cache read failed: %v", err)
		} else if found {
			s.collector.CacheHit()
			m := model.QueryMetrics{ElapsedSec: time.Since(start).Seconds(), Cache: "hit"}
			s.collector.RecordExecTime(m.ElapsedSec)
			s.appendHistory(ctx, q, m.ElapsedSec, qtype, "hit")
			return payload, m, nil
		}
	}
	s.collector.CacheMiss()

	var result any
	switch qtype {
	case model.ResultTypeDocument:
		result = s.runDocuments(ctx, q, docLimit, in.DocOffset)
	case model.ResultTypeHybrid:
		result = &model.HybridResult{
			Type:      model.ResultTypeHybrid,
			SQL:       s.runSQL(ctx, q, conn, limit, in.Offset),
			Documents: s.runDocuments(ctx, q, docLimit, in.DocOffset),
		}
	default:
		result = s.runSQL(ctx, q, conn, limit, in.Offset)
	}

	elapsed := time.Since(start).Seconds()
	s.collector.RecordExecTime(elapsed)

	payload := model.Payload(result)
	if cacheable {
		if err := s.cache.Set(ctx, key, payload); err != nil {
			log.Printf("query cache write failed: %v", err)
		}
	}
	s.appendHistory(ctx, q, elapsed, qtype, "miss")

	return payload, model.QueryMetrics{ElapsedSec: elapsed, Cache: "miss"}, nil
}

// History returns the most recent queries, newest first.
func (s *QueryService) History(ctx context.Context, n int) ([]model.HistoryEntry, error) {
	return s.history.Recent(ctx, n)
}

func (s *QueryService) appendHistory(ctx context.Context, q string, elapsed float64, qtype, cacheState string) {
	entry := model.HistoryEntry{Query: q, ElapsedSec: elapsed, Type: qtype, Cache: cacheState}
	if err := s.history.Append(ctx, entry); err != nil {
		log.Printf("append query history failed: %v", err)
	}
}

// runSQL turns the query into a statement and executes it. Failures land in
// the result's error field, never as a transport error: the frontend renders
// them inline.
func (s *QueryService) runSQL(ctx context.Context, q, conn string, limit, offset int) *model.SQLResult {
	res := model.NewSQLResult()

	db, dialect, err := s.pool.Get(ctx, conn)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	s.collector.ActiveConnection(1)
	defer s.collector.ActiveConnection(-1)

	norm := nlsql.Normalize(q)

	var intent nlsql.Intent
	if s.intentModel != nil {
		if predicted, _, ok, err := s.intentModel.Predict(ctx, norm); err != nil {
			log.Printf("intent model predict failed: %v", err)
		} else if ok {
			intent = predicted
		}
	}
	if intent == "" {
		intent = nlsql.RuleIntent(norm)
	}

	mapping, tables, err := nlsql.DetectMapping(ctx, db, dialect)
	if err != nil {
		res.Error = fmt.Sprintf("schema detection failed: %v", err)
		return res
	}

	out := nlsql.Build(nlsql.BuildInput{
		Query:      norm,
		Intent:     intent,
		Conditions: nlsql.ExtractFilters(norm, time.Now()),
		Mapping:    mapping,
		Tables:     tables,
		Dialect:    dialect,
		Limit:      limit,
		Offset:     offset,
	})
	if out.Err != "" {
		res.Error = out.Err
		return res
	}
	if out.Warning != "" {
		res.Warning = out.Warning
		return res
	}

	stmt := out.Stmt
	res.SQL = stmt.SQL
	if len(stmt.Args) > 0 {
		res.Params = stmt.Args
	}

	s.collector.ActiveQuery(1)
	defer s.collector.ActiveQuery(-1)

	rows, err := queryRows(ctx, db, stmt.SQL, stmt.Args...)
	if err != nil {
		res.Error = fmt.Sprintf("query failed: %v", err)
		return res
	}
	res.Rows = rows

	if stmt.Paginated {
		total := int64(len(rows))
		if stmt.CountSQL != "" {
			if err := db.QueryRowContext(ctx, stmt.CountSQL, stmt.CountArgs...).Scan(&total); err != nil {
				log.Printf("count query failed: %v", err)
			}
		}
		res.Pagination = &model.Pagination{Limit: stmt.Limit, Offset: stmt.Offset, Total: total}
	}
	return res
}

// runDocuments scores every ingested chunk against the query embedding and
// returns the top page.
func (s *QueryService) runDocuments(ctx context.Context, q string, limit, offset int) *model.DocumentResult {
	res := model.NewDocumentResult()

	s.collector.ActiveQuery(1)
	defer s.collector.ActiveQuery(-1)

	chunks, err := s.chunks.ListWithDocuments()
	if err != nil {
		res.Error = fmt.Sprintf("load document index failed: %v", err)
		return res
	}
	if len(chunks) == 0 {
		res.Pagination = &model.Pagination{Limit: limit, Offset: offset, Total: 0}
		return res
	}

	queryVec, err := s.embedder.Embed(ctx, q)
	if err != nil {
		res.Error = fmt.Sprintf("embed query failed: %v", err)
		return res
	}

	matches := make([]model.DocumentMatch, 0, len(chunks))
	for i := range chunks {
		vec := chunks[i].EmbeddingVector()
		if len(vec) == 0 {
			continue
		}
		matches = append(matches, model.DocumentMatch{
			Filename: chunks[i].Filename,
			DocType:  chunks[i].DocType,
			Score:    float64(ai.Cosine(queryVec, vec)),
			Text:     chunks[i].Text,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	total := int64(len(matches))
	if offset < 0 {
		offset = 0
	}
	if offset > len(matches) {
		offset = len(matches)
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}
	res.Results = matches[offset:end]
	res.Pagination = &model.Pagination{Limit: limit, Offset: offset, Total: total}
	return res
}

// queryRows scans arbitrary result sets into ordered generic maps, rendering
// []byte columns as strings so they serialize as text rather than base64.
func queryRows(ctx context.Context, db *sql.DB, query string, args ...any) ([]map[string]any, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
