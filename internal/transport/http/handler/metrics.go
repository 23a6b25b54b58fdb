package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"nlquery-engine/internal/app"
	"nlquery-engine/internal/metrics"
	"nlquery-engine/internal/transport/http/response"
)

type MetricsHandler struct {
	collector     *metrics.Collector
	ingestService *app.IngestService
}

func NewMetricsHandler(collector *metrics.Collector, ingestService *app.IngestService) *MetricsHandler {
	return &MetricsHandler{collector: collector, ingestService: ingestService}
}

// Get returns the current snapshot joined with the index counts.
func (h *MetricsHandler) Get(c *gin.Context) {
	docs, chunks, err := h.ingestService.Counts()
	if err != nil {
		// Metrics should degrade, not fail, when the metadata store is down.
		log.Printf("load index counts failed: %v", err)
	}
	response.OK(c, map[string]any{"metrics": h.collector.Snapshot(docs, chunks)})
}

func (h *MetricsHandler) Reset(c *gin.Context) {
	h.collector.Reset()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
