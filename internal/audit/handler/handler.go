// Package handler exposes the employee activity feed over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hrcore/internal/audit"
	"hrcore/internal/transport/http/shared"
	"hrcore/pkg/requestcontext"
)

// Reader is the paginated query surface the handler delegates to.
type Reader interface {
	List(ctx context.Context, employeeID int64, referrableTypeID *int64, page, perPage int) (*audit.Page, error)
}

type Handler struct {
	reader Reader
	logger *slog.Logger
}

func New(reader Reader, logger *slog.Logger) *Handler {
	return &Handler{reader: reader, logger: logger}
}

// Register mounts the activity routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/employees/{employeeID}/activity", h.handleListActivity)
}

// handleListActivity serves one page of an employee's change history.
// Query params: page, per_page, referrable_type_id.
func (h *Handler) handleListActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	employeeID, err := strconv.ParseInt(chi.URLParam(r, "employeeID"), 10, 64)
	if err != nil {
		shared.WriteBadRequest(w, "invalid employee id")
		return
	}

	page, err := queryInt(r, "page", 0)
	if err != nil {
		shared.WriteBadRequest(w, "invalid page")
		return
	}
	perPage, err := queryInt(r, "per_page", 0)
	if err != nil {
		shared.WriteBadRequest(w, "invalid per_page")
		return
	}

	var referrableTypeID *int64
	if raw := r.URL.Query().Get("referrable_type_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			shared.WriteBadRequest(w, "invalid referrable_type_id")
			return
		}
		referrableTypeID = &id
	}

	result, err := h.reader.List(ctx, employeeID, referrableTypeID, page, perPage)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list activity",
			"employee_id", employeeID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, result)
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
