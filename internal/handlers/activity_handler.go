package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"academy-portal/internal/models"
	"academy-portal/internal/service"
)

// ActivityReader queries the activity log
type ActivityReader interface {
	Query(ctx context.Context, q service.ActivityQuery) ([]models.ActivityLog, error)
}

// ActivityHandler serves the activity log viewer
type ActivityHandler struct {
	activity ActivityReader
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activity ActivityReader) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

func activityQuery(r *http.Request) service.ActivityQuery {
	q := r.URL.Query()
	query := service.ActivityQuery{
		Range:  q.Get("range"),
		Type:   q.Get("type"),
		Role:   q.Get("role"),
		Search: q.Get("search"),
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		query.Limit = l
	}
	return query
}

// ListActivity lists activity log entries, newest first
// @Summary List activity
// @Description Filter by range (24h, 7d, 30d, all or RFC 3339), type substring, role and free text. At most 200 rows.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param range query string false "Date range" default(7d)
// @Param type query string false "Type substring"
// @Param role query string false "Role"
// @Param search query string false "Search in author e-mail and type"
// @Success 200 {array} models.ActivityLog
// @Failure 400 {object} validationResponse
// @Router /admin/activity [get]
func (h *ActivityHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	rows, err := h.activity.Query(r.Context(), activityQuery(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, rows)
}

// ExportActivity downloads the filtered activity log as CSV
// @Summary Export activity
// @Tags Admin
// @Produce text/csv
// @Security BearerAuth
// @Param range query string false "Date range"
// @Param type query string false "Type substring"
// @Param role query string false "Role"
// @Param search query string false "Search"
// @Success 200 {file} file
// @Router /admin/activity/export.csv [get]
func (h *ActivityHandler) ExportActivity(w http.ResponseWriter, r *http.Request) {
	rows, err := h.activity.Query(r.Context(), activityQuery(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := service.ExportCSV(&buf, rows); err != nil {
		slog.Error("Failed to export activity", "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternal)
		return
	}
	respondWithFile(w, "text/csv; charset=utf-8", "activity.csv", buf.Bytes())
}
