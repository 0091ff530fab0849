package handler

import (
	"log/slog"
	"net/http"

	"dptracker/internal/domain/models"
	"dptracker/internal/domain/services"
	"dptracker/internal/httputil"
)

// RowsHandler serves the grid's load, save and delete hooks
type RowsHandler struct {
	service services.TrackerService
	logger  *slog.Logger
}

// NewRowsHandler creates a new rows handler
func NewRowsHandler(service services.TrackerService, logger *slog.Logger) *RowsHandler {
	return &RowsHandler{
		service: service,
		logger:  logger,
	}
}

// ListRowsResponse is the grid's initial data
type ListRowsResponse struct {
	Rows     []models.Row `json:"rows"`
	Degraded bool         `json:"degraded,omitempty"`
}

// RemoveRowsResponse lists the ids deleted from the store
type RemoveRowsResponse struct {
	DeletedIDs []int64 `json:"deleted_ids"`
}

// ListRows returns every row with dates in display format. A store failure
// still renders an empty grid.
// GET /api/rows
func (h *RowsHandler) ListRows(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.LoadRows(r.Context())
	if err != nil {
		h.logger.Error("failed to load rows",
			"error", err,
			"request_id", httputil.GetRequestID(r),
		)
		httputil.RespondJSON(w, http.StatusOK, ListRowsResponse{Rows: []models.Row{}, Degraded: true})
		return
	}

	if rows == nil {
		rows = []models.Row{}
	}
	httputil.RespondJSON(w, http.StatusOK, ListRowsResponse{Rows: rows})
}

// SaveRows reconciles and upserts the full grid
// POST /api/rows/save
func (h *RowsHandler) SaveRows(w http.ResponseWriter, r *http.Request) {
	var req services.SaveRowsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.SaveRows(r.Context(), &req)
	if err != nil {
		h.logError(r, "save failed", err)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// RemoveRows deletes the rows removed from the grid at the given positions
// POST /api/rows/remove
func (h *RowsHandler) RemoveRows(w http.ResponseWriter, r *http.Request) {
	var req services.RemoveRowsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ids, err := h.service.RemoveRows(r.Context(), &req)
	if err != nil {
		h.logError(r, "remove failed", err)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, RemoveRowsResponse{DeletedIDs: ids})
}

// DeleteRows deletes rows by id
// DELETE /api/rows
func (h *RowsHandler) DeleteRows(w http.ResponseWriter, r *http.Request) {
	var req services.DeleteRowsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.DeleteRows(r.Context(), &req); err != nil {
		h.logError(r, "delete failed", err)
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RowsHandler) logError(r *http.Request, msg string, err error) {
	h.logger.Warn(msg,
		"error", err,
		"request_id", httputil.GetRequestID(r),
		"user_id", httputil.GetUserID(r),
	)
}
