package handler

import (
	"net/http"

	"dptracker/internal/datefmt"
	"dptracker/internal/httputil"
	"dptracker/internal/schema"
)

// SchemaHandler describes the grid columns to the client
type SchemaHandler struct {
	schema *schema.Schema
}

// NewSchemaHandler creates a new schema handler
func NewSchemaHandler(s *schema.Schema) *SchemaHandler {
	return &SchemaHandler{schema: s}
}

// SchemaResponse is the column schema plus the date format the grid edits in
type SchemaResponse struct {
	*schema.Schema
	DateFormat string `json:"date_format"`
}

// GetSchema returns the column schema
// GET /api/schema
func (h *SchemaHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, SchemaResponse{
		Schema:     h.schema,
		DateFormat: datefmt.DisplayPattern,
	})
}
