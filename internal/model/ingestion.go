package model

import (
	"encoding/json"
	"time"
)

// Ingestion job lifecycle. A job is created as pending when the upload is
// accepted, moves to processing when the worker picks it up, and ends in
// completed or failed. Unknown job ids are reported as not_found by the API.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
	JobStatusNotFound   = "not_found"
)

type IngestionJob struct {
	ID             string    `gorm:"primaryKey;size:64" json:"job_id"`
	Status         string    `gorm:"size:16;not null;index" json:"status"`
	TotalFiles     int       `gorm:"not null" json:"total_files"`
	ProcessedFiles int       `gorm:"not null" json:"processed_files"`
	Error          string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Document struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JobID     string    `gorm:"size:64;index" json:"job_id"`
	Filename  string    `gorm:"size:512;not null" json:"filename"`
	DocType   string    `gorm:"size:16;not null" json:"doc_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Chunk stores one text chunk and its embedding. The embedding is kept as a
// JSON array of float32 for portability across storage backends.
type Chunk struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;index" json:"document_id"`
	ChunkIndex int       `gorm:"not null" json:"chunk_index"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	Embedding  string    `gorm:"type:mediumtext" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed embedding; nil on parse error.
func (c *Chunk) EmbeddingVector() []float32 {
	if c.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(c.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (c *Chunk) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		c.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	c.Embedding = string(b)
}

// ChunkWithDocument is the denormalized row the document search scores:
// chunk text plus the owning document's filename and type.
type ChunkWithDocument struct {
	Text      string
	Embedding string
	Filename  string
	DocType   string
}

// EmbeddingVector parses the joined chunk embedding; nil on parse error.
func (c *ChunkWithDocument) EmbeddingVector() []float32 {
	if c.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(c.Embedding), &v)
	return v
}
