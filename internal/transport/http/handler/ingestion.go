package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"nlquery-engine/internal/app"
	"nlquery-engine/internal/model"
	"nlquery-engine/internal/transport/http/response"
)

type IngestionHandler struct {
	ingestService *app.IngestService
}

type ResetRequest struct {
	Confirm bool `json:"confirm"`
}

func NewIngestionHandler(ingestService *app.IngestService) *IngestionHandler {
	return &IngestionHandler{ingestService: ingestService}
}

// Upload accepts multipart files under the "files" field, queues an ingestion
// job and returns its id. Processing is asynchronous; clients poll the status
// endpoint.
func (h *IngestionHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "multipart form with files is required")
		return
	}

	headers := form.File["files"]
	files := make([]app.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			response.Fail(c, http.StatusBadRequest, "read uploaded file failed: "+fh.Filename)
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			response.Fail(c, http.StatusBadRequest, "read uploaded file failed: "+fh.Filename)
			return
		}
		files = append(files, app.UploadedFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	jobID, err := h.ingestService.CreateJob(c.Request.Context(), files)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNoFiles), errors.Is(err, app.ErrFileTooLarge):
			response.Fail(c, http.StatusBadRequest, err.Error())
		default:
			response.Fail(c, http.StatusInternalServerError, "queue ingestion job failed")
		}
		return
	}

	response.OK(c, map[string]any{"job_id": jobID})
}

// Status reports job progress. Unknown ids come back as status "not_found"
// rather than a 404, so the poller can keep a single code path.
func (h *IngestionHandler) Status(c *gin.Context) {
	id := c.Param("id")
	job, err := h.ingestService.Status(id)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Fail(c, http.StatusBadRequest, "job id is required")
			return
		}
		response.Fail(c, http.StatusInternalServerError, "load job status failed")
		return
	}
	if job == nil {
		response.OK(c, map[string]any{
			"job_id": id,
			"status": model.JobStatusNotFound,
		})
		return
	}

	fields := map[string]any{
		"job_id":          job.ID,
		"status":          job.Status,
		"total_files":     job.TotalFiles,
		"processed_files": job.ProcessedFiles,
	}
	if job.Error != "" {
		fields["error"] = job.Error
	}
	response.OK(c, fields)
}

// Reset wipes all ingested documents. The body must carry confirm:true.
func (h *IngestionHandler) Reset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := h.ingestService.Reset(req.Confirm); err != nil {
		if errors.Is(err, app.ErrConfirmRequired) {
			response.Fail(c, http.StatusBadRequest, "confirm must be true to reset ingestion data")
			return
		}
		response.Fail(c, http.StatusInternalServerError, "reset ingestion data failed")
		return
	}
	response.OK(c, nil)
}
