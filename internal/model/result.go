package model

import "encoding/json"

// Query result union. The frontend switches on "type": a sql result carries
// rows, a document result carries ranked matches, a hybrid result nests one
// of each under "sql" and "documents".
const (
	ResultTypeSQL      = "sql"
	ResultTypeDocument = "document"
	ResultTypeHybrid   = "hybrid"
)

type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

type SQLResult struct {
	Type       string           `json:"type"`
	SQL        string           `json:"sql,omitempty"`
	Params     []any            `json:"params"`
	Rows       []map[string]any `json:"rows"`
	Pagination *Pagination      `json:"pagination,omitempty"`
	Error      string           `json:"error,omitempty"`
	Warning    string           `json:"warning,omitempty"`
}

type DocumentMatch struct {
	Filename string  `json:"filename"`
	DocType  string  `json:"doc_type"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

type DocumentResult struct {
	Type       string          `json:"type"`
	Results    []DocumentMatch `json:"results"`
	Pagination *Pagination     `json:"pagination,omitempty"`
	Error      string          `json:"error,omitempty"`
}

type HybridResult struct {
	Type      string          `json:"type"`
	SQL       *SQLResult      `json:"sql"`
	Documents *DocumentResult `json:"documents"`
}

// QueryMetrics rides along with every query response.
type QueryMetrics struct {
	ElapsedSec float64 `json:"elapsed_sec"`
	Cache      string  `json:"cache"`
}

// HistoryEntry is one line of the recent-query log.
type HistoryEntry struct {
	Query      string  `json:"q"`
	ElapsedSec float64 `json:"time"`
	Type       string  `json:"type"`
	Cache      string  `json:"cache"`
}

// Payload flattens a typed result into the map form spread into the HTTP
// envelope ({ok:true, type:..., rows:...}) and stored in the result cache.
func Payload(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return out
}

func NewSQLResult() *SQLResult {
	return &SQLResult{Type: ResultTypeSQL, Params: []any{}, Rows: []map[string]any{}}
}

func NewDocumentResult() *DocumentResult {
	return &DocumentResult{Type: ResultTypeDocument, Results: []DocumentMatch{}}
}
