package handler

import (
	"log/slog"
	"net/http"

	"dptracker/internal/domain/models"
	"dptracker/internal/domain/services"
	"dptracker/internal/httputil"
)

const csvContentType = "text/csv; charset=utf-8"

// ExportHandler serves CSV downloads
type ExportHandler struct {
	service services.TrackerService
	logger  *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(service services.TrackerService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		service: service,
		logger:  logger,
	}
}

// ExportViewRequest carries the rows currently shown in the grid
type ExportViewRequest struct {
	Rows []models.Row `json:"rows"`
}

// ExportStored downloads the stored table
// GET /api/export
func (h *ExportHandler) ExportStored(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, nil)
}

// ExportView downloads the rows sent by the client, as displayed
// POST /api/export
func (h *ExportHandler) ExportView(w http.ResponseWriter, r *http.Request) {
	var req ExportViewRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Rows == nil {
		req.Rows = []models.Row{}
	}

	h.export(w, r, req.Rows)
}

func (h *ExportHandler) export(w http.ResponseWriter, r *http.Request, rows []models.Row) {
	result, err := h.service.ExportCSV(r.Context(), rows)
	if err != nil {
		h.logger.Warn("export failed",
			"error", err,
			"request_id", httputil.GetRequestID(r),
		)
		handleError(w, err)
		return
	}

	h.logger.Info("csv exported", "filename", result.Filename, "bytes", len(result.Data))
	httputil.RespondAttachment(w, csvContentType, result.Filename, result.Data)
}
