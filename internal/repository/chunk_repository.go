package repository

import (
	"fmt"

	"gorm.io/gorm"

	"nlquery-engine/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) CreateBatch(chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.db.CreateInBatches(&chunks, 200).Error; err != nil {
		return fmt.Errorf("create chunks batch failed: %w", err)
	}
	return nil
}

// ListWithDocuments returns every chunk joined with its document's filename
// and type, the working set the document search scores.
func (r *ChunkRepository) ListWithDocuments() ([]model.ChunkWithDocument, error) {
	var rows []model.ChunkWithDocument
	err := r.db.Model(&model.Chunk{}).
		Select("chunks.text AS text, chunks.embedding AS embedding, documents.filename AS filename, documents.doc_type AS doc_type").
		Joins("JOIN documents ON documents.id = chunks.document_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list chunks with documents failed: %w", err)
	}
	return rows, nil
}

func (r *ChunkRepository) Count() (int64, error) {
	var n int64
	if err := r.db.Model(&model.Chunk{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count chunks failed: %w", err)
	}
	return n, nil
}

func (r *ChunkRepository) DeleteAll() error {
	if err := r.db.Where("1 = 1").Delete(&model.Chunk{}).Error; err != nil {
		return fmt.Errorf("delete chunks failed: %w", err)
	}
	return nil
}
