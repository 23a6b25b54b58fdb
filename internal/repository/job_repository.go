package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"nlquery-engine/internal/model"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(job *model.IngestionJob) error {
	if err := r.db.Create(job).Error; err != nil {
		return fmt.Errorf("create ingestion job failed: %w", err)
	}
	return nil
}

// GetByID returns nil without error when the job does not exist; the API
// layer reports that as status not_found.
func (r *JobRepository) GetByID(id string) (*model.IngestionJob, error) {
	var job model.IngestionJob
	err := r.db.Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ingestion job failed: %w", err)
	}
	return &job, nil
}

func (r *JobRepository) SetStatus(id, status string) error {
	if err := r.db.Model(&model.IngestionJob{}).Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("update job status failed: %w", err)
	}
	return nil
}

func (r *JobRepository) SetProcessed(id string, processed int) error {
	if err := r.db.Model(&model.IngestionJob{}).Where("id = ?", id).
		Update("processed_files", processed).Error; err != nil {
		return fmt.Errorf("update job progress failed: %w", err)
	}
	return nil
}

func (r *JobRepository) MarkFailed(id, errMsg string) error {
	if err := r.db.Model(&model.IngestionJob{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.JobStatusFailed, "error": errMsg}).Error; err != nil {
		return fmt.Errorf("mark job failed failed: %w", err)
	}
	return nil
}

func (r *JobRepository) DeleteAll() error {
	if err := r.db.Where("1 = 1").Delete(&model.IngestionJob{}).Error; err != nil {
		return fmt.Errorf("delete ingestion jobs failed: %w", err)
	}
	return nil
}
