// Package handler exposes the document lifecycle over HTTP: staging uploads,
// promoting them into permanent storage, and deleting them.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hrcore/internal/document"
	"hrcore/internal/snapshot"
	"hrcore/internal/transport/http/shared"
	"hrcore/pkg/requestcontext"
)

// maxUploadBytes bounds one staged upload.
const maxUploadBytes = 25 << 20

type Handler struct {
	documents *document.Service
	logger    *slog.Logger
}

func New(documents *document.Service, logger *slog.Logger) *Handler {
	return &Handler{documents: documents, logger: logger}
}

// Register mounts the document routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/documents", h.handleUpload)
	r.Post("/documents/{tempDocID}/promote", h.handlePromote)
	r.Delete("/documents/{docID}", h.handleDelete)
}

// handleUpload stages a multipart upload into temporary storage.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		shared.WriteBadRequest(w, "missing file")
		return
	}
	defer file.Close()

	temp, err := h.documents.StageUpload(ctx, header.Filename, file, requestcontext.ActorID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to stage upload",
			"file_name", header.Filename,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]string{
		"temp_doc_id": temp.ID.String(),
		"file_name":   temp.FileName,
	})
}

type promoteRequest struct {
	EmployeeID     int64  `json:"employee_id"`
	ReferrableType int16  `json:"referrable_type"`
	RecordID       int64  `json:"record_id"`
	Folder         string `json:"folder"`
	Name           string `json:"name"`
}

// handlePromote attaches a staged upload to its owning entity and moves it
// into permanent storage.
func (h *Handler) handlePromote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tempDocID, err := uuid.Parse(chi.URLParam(r, "tempDocID"))
	if err != nil {
		shared.WriteBadRequest(w, "invalid temp document id")
		return
	}

	var req promoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteBadRequest(w, "invalid request body")
		return
	}
	kind := snapshot.Kind(req.ReferrableType)
	if req.EmployeeID == 0 || req.Folder == "" || !kind.Valid() {
		shared.WriteBadRequest(w, "employee_id, folder, and referrable_type are required")
		return
	}

	if _, err := h.documents.Attach(ctx, tempDocID, req.EmployeeID, kind, req.RecordID); err != nil {
		h.logger.ErrorContext(ctx, "failed to attach document",
			"temp_doc_id", tempDocID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	result, err := h.documents.Promote(ctx, tempDocID, req.Folder, req.Name)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to promote document",
			"temp_doc_id", tempDocID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		if errors.Is(err, document.ErrMoveFailed) {
			shared.WriteJSON(w, http.StatusBadGateway, map[string]string{"error": "storage_move_failed"})
			return
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, result)
}

// handleDelete removes a document's bytes and soft-deletes its record.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docID, err := uuid.Parse(chi.URLParam(r, "docID"))
	if err != nil {
		shared.WriteBadRequest(w, "invalid document id")
		return
	}

	rec, err := h.documents.Get(ctx, docID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.documents.Destroy(ctx, rec); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete document",
			"doc_id", docID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
