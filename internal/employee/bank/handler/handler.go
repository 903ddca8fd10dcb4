// Package handler exposes bank account writes over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hrcore/internal/document"
	"hrcore/internal/employee/bank"
	"hrcore/internal/transport/http/shared"
	"hrcore/pkg/requestcontext"
)

type Handler struct {
	accounts *bank.Service
	logger   *slog.Logger
}

func New(accounts *bank.Service, logger *slog.Logger) *Handler {
	return &Handler{accounts: accounts, logger: logger}
}

// Register mounts the bank account routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/employees/{employeeID}/bank-accounts", h.handleCreate)
	r.Put("/employees/{employeeID}/bank-accounts/{accountID}", h.handleUpdate)
	r.Delete("/employees/{employeeID}/bank-accounts/{accountID}", h.handleDelete)
}

type accountRequest struct {
	BankName            string  `json:"bank_name"`
	AccountNumber       string  `json:"account_number"`
	RoutingNumber       *string `json:"routing_number"`
	AccountType         *string `json:"account_type"`
	VoidChequeTempDocID *string `json:"void_cheque_temp_doc_id"`
}

func (req *accountRequest) voidChequeID() (*uuid.UUID, error) {
	if req.VoidChequeTempDocID == nil || *req.VoidChequeTempDocID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*req.VoidChequeTempDocID)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	employeeID, err := strconv.ParseInt(chi.URLParam(r, "employeeID"), 10, 64)
	if err != nil {
		shared.WriteBadRequest(w, "invalid employee id")
		return
	}

	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.BankName == "" || req.AccountNumber == "" {
		shared.WriteBadRequest(w, "bank_name and account_number are required")
		return
	}
	chequeID, err := req.voidChequeID()
	if err != nil {
		shared.WriteBadRequest(w, "invalid void_cheque_temp_doc_id")
		return
	}

	acc, err := h.accounts.Create(ctx, bank.CreateInput{
		EmployeeID:          employeeID,
		BankName:            req.BankName,
		AccountNumber:       req.AccountNumber,
		RoutingNumber:       req.RoutingNumber,
		AccountType:         req.AccountType,
		VoidChequeTempDocID: chequeID,
	})
	if err != nil {
		h.writeServiceError(w, r, "failed to create bank account", err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, acc)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	employeeID, err := strconv.ParseInt(chi.URLParam(r, "employeeID"), 10, 64)
	if err != nil {
		shared.WriteBadRequest(w, "invalid employee id")
		return
	}
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		shared.WriteBadRequest(w, "invalid account id")
		return
	}

	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.BankName == "" || req.AccountNumber == "" {
		shared.WriteBadRequest(w, "bank_name and account_number are required")
		return
	}
	chequeID, err := req.voidChequeID()
	if err != nil {
		shared.WriteBadRequest(w, "invalid void_cheque_temp_doc_id")
		return
	}

	acc, err := h.accounts.Update(ctx, bank.UpdateInput{
		ID:                  accountID,
		EmployeeID:          employeeID,
		BankName:            req.BankName,
		AccountNumber:       req.AccountNumber,
		RoutingNumber:       req.RoutingNumber,
		AccountType:         req.AccountType,
		VoidChequeTempDocID: chequeID,
	})
	if err != nil {
		h.writeServiceError(w, r, "failed to update bank account", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, acc)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	employeeID, err := strconv.ParseInt(chi.URLParam(r, "employeeID"), 10, 64)
	if err != nil {
		shared.WriteBadRequest(w, "invalid employee id")
		return
	}
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		shared.WriteBadRequest(w, "invalid account id")
		return
	}

	if err := h.accounts.Delete(ctx, employeeID, accountID); err != nil {
		h.writeServiceError(w, r, "failed to delete bank account", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		"request_id", requestcontext.RequestID(r.Context()),
		"error", err,
	)
	if errors.Is(err, document.ErrMoveFailed) {
		shared.WriteJSON(w, http.StatusBadGateway, map[string]string{"error": "storage_move_failed"})
		return
	}
	shared.WriteError(w, err)
}
