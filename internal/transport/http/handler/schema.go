package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nlquery-engine/internal/app"
	"nlquery-engine/internal/transport/http/response"
)

type SchemaHandler struct {
	schemaService *app.SchemaService
}

type ConnectDatabaseRequest struct {
	ConnectionString string `json:"connection_string" binding:"required"`
}

func NewSchemaHandler(schemaService *app.SchemaService) *SchemaHandler {
	return &SchemaHandler{schemaService: schemaService}
}

// Connect opens the target database and returns its reflected structure.
// Every failure mode (bad string, missing sqlite file, unreachable server)
// comes back as a 400 with the reason in detail.
func (h *SchemaHandler) Connect(c *gin.Context) {
	var req ConnectDatabaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "connection_string is required")
		return
	}

	discovered, err := h.schemaService.Discover(c.Request.Context(), req.ConnectionString)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Fail(c, http.StatusBadRequest, "connection_string is required")
			return
		}
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	response.OK(c, map[string]any{"schema": discovered})
}
