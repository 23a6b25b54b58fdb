package model

// IngestTask is the message published to the ingest queue for each upload
// batch. Files reference paths inside the spool directory.
type IngestTask struct {
	JobID string          `json:"job_id"`
	Files []IngestTaskRef `json:"files"`
}

type IngestTaskRef struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
}
