package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"nlquery-engine/internal/ai"
	"nlquery-engine/internal/docproc"
	"nlquery-engine/internal/model"
	"nlquery-engine/internal/repository"
)

// AsyncTaskPublisher hands an ingest task to the job queue.
type AsyncTaskPublisher interface {
	Publish(ctx context.Context, task model.IngestTask) error
}

// UploadedFile is one multipart file read by the upload handler.
type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type IngestService struct {
	jobRepo   *repository.JobRepository
	docRepo   *repository.DocumentRepository
	chunkRepo *repository.ChunkRepository
	publisher AsyncTaskPublisher
	embedder  ai.Embedder

	spoolDir    string
	maxChunks   int
	maxFileSize int64
	batchSize   int
}

func NewIngestService(
	jobRepo *repository.JobRepository,
	docRepo *repository.DocumentRepository,
	chunkRepo *repository.ChunkRepository,
	publisher AsyncTaskPublisher,
	embedder ai.Embedder,
	spoolDir string,
	maxChunks int,
	maxFileSizeMB int,
	batchSize int,
) *IngestService {
	if maxChunks <= 0 {
		maxChunks = 5000
	}
	if maxFileSizeMB <= 0 {
		maxFileSizeMB = 20
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	return &IngestService{
		jobRepo:     jobRepo,
		docRepo:     docRepo,
		chunkRepo:   chunkRepo,
		publisher:   publisher,
		embedder:    embedder,
		spoolDir:    spoolDir,
		maxChunks:   maxChunks,
		maxFileSize: int64(maxFileSizeMB) << 20,
		batchSize:   batchSize,
	}
}

// CreateJob spools the uploaded files to disk, records a pending job and
// publishes the ingest task. Processing happens in the worker; the caller only
// gets the job id back.
func (s *IngestService) CreateJob(ctx context.Context, files []UploadedFile) (string, error) {
	if len(files) == 0 {
		return "", ErrNoFiles
	}
	for _, f := range files {
		if int64(len(f.Data)) > s.maxFileSize {
			return "", fmt.Errorf("%w: %s", ErrFileTooLarge, f.Name)
		}
	}

	jobID := uuid.NewString()
	dir := filepath.Join(s.spoolDir, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create spool dir failed: %w", err)
	}

	task := model.IngestTask{JobID: jobID}
	for i, f := range files {
		name := filepath.Base(f.Name)
		if name == "" || name == "." || name == string(filepath.Separator) {
			name = fmt.Sprintf("file-%d", i)
		}
		path := filepath.Join(dir, fmt.Sprintf("%03d-%s", i, name))
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			_ = os.RemoveAll(dir)
			return "", fmt.Errorf("spool file %s failed: %w", name, err)
		}
		task.Files = append(task.Files, model.IngestTaskRef{
			Path:        path,
			Name:        name,
			ContentType: f.ContentType,
		})
	}

	job := &model.IngestionJob{
		ID:         jobID,
		Status:     model.JobStatusPending,
		TotalFiles: len(files),
	}
	if err := s.jobRepo.Create(job); err != nil {
		_ = os.RemoveAll(dir)
		return "", err
	}

	if err := s.publisher.Publish(ctx, task); err != nil {
		_ = s.jobRepo.MarkFailed(jobID, "enqueue failed: "+err.Error())
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("enqueue ingest task failed: %w", err)
	}
	return jobID, nil
}

// RunJob executes one ingest task end to end. A failure on any file fails the
// whole job with the error recorded on the row; the spool directory is removed
// either way.
func (s *IngestService) RunJob(ctx context.Context, task model.IngestTask) error {
	defer func() {
		_ = os.RemoveAll(filepath.Join(s.spoolDir, task.JobID))
	}()

	if err := s.jobRepo.SetStatus(task.JobID, model.JobStatusProcessing); err != nil {
		return err
	}

	for i, ref := range task.Files {
		if err := s.processFile(ctx, task.JobID, ref); err != nil {
			_ = s.jobRepo.MarkFailed(task.JobID, fmt.Sprintf("%s: %v", ref.Name, err))
			return fmt.Errorf("process %s failed: %w", ref.Name, err)
		}
		if err := s.jobRepo.SetProcessed(task.JobID, i+1); err != nil {
			return err
		}
	}

	return s.jobRepo.SetStatus(task.JobID, model.JobStatusCompleted)
}

func (s *IngestService) processFile(ctx context.Context, jobID string, ref model.IngestTaskRef) error {
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return fmt.Errorf("read spooled file failed: %w", err)
	}

	docType := docproc.DetectType(ref.Name, ref.ContentType)
	text, err := docproc.ExtractText(data, docType)
	if err != nil {
		return err
	}

	pieces := docproc.Chunk(text, docType)
	if len(pieces) > s.maxChunks {
		pieces = pieces[:s.maxChunks]
	}

	doc := &model.Document{
		JobID:    jobID,
		Filename: ref.Name,
		DocType:  docType,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return err
	}

	chunks := make([]model.Chunk, 0, len(pieces))
	for start := 0; start < len(pieces); start += s.batchSize {
		end := start + s.batchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		vectors, err := s.embedder.EmbedBatch(ctx, pieces[start:end])
		if err != nil {
			return fmt.Errorf("embed chunks failed: %w", err)
		}
		for j, vec := range vectors {
			chunk := model.Chunk{
				DocumentID: doc.ID,
				ChunkIndex: start + j,
				Text:       pieces[start+j],
			}
			chunk.SetEmbedding(vec)
			chunks = append(chunks, chunk)
		}
	}
	return s.chunkRepo.CreateBatch(chunks)
}

// Status returns the job row, or nil when the id is unknown.
func (s *IngestService) Status(id string) (*model.IngestionJob, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.jobRepo.GetByID(id)
}

// Reset wipes every ingested document. confirm must be set; this is the one
// destructive ingestion endpoint.
func (s *IngestService) Reset(confirm bool) error {
	if !confirm {
		return ErrConfirmRequired
	}
	if err := s.chunkRepo.DeleteAll(); err != nil {
		return err
	}
	if err := s.docRepo.DeleteAll(); err != nil {
		return err
	}
	if err := s.jobRepo.DeleteAll(); err != nil {
		return err
	}
	if err := os.RemoveAll(s.spoolDir); err != nil {
		return fmt.Errorf("clear spool dir failed: %w", err)
	}
	return os.MkdirAll(s.spoolDir, 0o755)
}

// Counts reports how much is indexed, for the metrics snapshot.
func (s *IngestService) Counts() (docs int64, chunks int64, err error) {
	docs, err = s.docRepo.Count()
	if err != nil {
		return 0, 0, err
	}
	chunks, err = s.chunkRepo.Count()
	if err != nil {
		return 0, 0, err
	}
	return docs, chunks, nil
}
