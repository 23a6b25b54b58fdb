package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nlquery-engine/internal/app"
	"nlquery-engine/internal/transport/http/response"
)

type QueryHandler struct {
	queryService *app.QueryService
}

type QueryRequest struct {
	Query            string `json:"query" binding:"required"`
	ConnectionString string `json:"connection_string"`
	Limit            int    `json:"limit"`
	Offset           int    `json:"offset"`
	DocLimit         int    `json:"doc_limit"`
	DocOffset        int    `json:"doc_offset"`
}

func NewQueryHandler(queryService *app.QueryService) *QueryHandler {
	return &QueryHandler{queryService: queryService}
}

// Run executes one natural-language query and spreads the result payload into
// the envelope, with the per-call metrics block alongside.
func (h *QueryHandler) Run(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "query is required")
		return
	}

	payload, m, err := h.queryService.Process(c.Request.Context(), app.QueryInput{
		Query:      req.Query,
		ConnString: req.ConnectionString,
		Limit:      req.Limit,
		Offset:     req.Offset,
		DocLimit:   req.DocLimit,
		DocOffset:  req.DocOffset,
	})
	if err != nil {
		if errors.Is(err, app.ErrEmptyQuery) {
			response.Fail(c, http.StatusBadRequest, "query is required")
			return
		}
		response.Fail(c, http.StatusInternalServerError, "process query failed")
		return
	}

	fields := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		fields[k] = v
	}
	fields["metrics"] = m
	response.OK(c, fields)
}

// History returns the most recent queries, newest first.
func (h *QueryHandler) History(c *gin.Context) {
	entries, err := h.queryService.History(c.Request.Context(), 20)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, "load query history failed")
		return
	}
	response.OK(c, map[string]any{"history": entries})
}
