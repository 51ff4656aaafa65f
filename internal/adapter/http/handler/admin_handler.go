package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// AdminService defines the administrative behavior needed by AdminHandler.
type AdminService interface {
	Credit(ctx context.Context, actor domain.Identity, input usecase.AdjustmentInput) (*usecase.PostingResult, error)
	Debit(ctx context.Context, actor domain.Identity, input usecase.AdjustmentInput) (*usecase.PostingResult, error)
	UpdateTransactionTime(ctx context.Context, actor domain.Identity, id string, occurredAt time.Time) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, actor domain.Identity, input usecase.DeleteTransactionInput) (*usecase.DeleteResult, error)
	SetAccountStatus(ctx context.Context, actor domain.Identity, accountID string, status domain.AccountStatus) (*domain.Account, error)
	ListAccounts(ctx context.Context, actor domain.Identity, limit, offset int) ([]*domain.Account, error)
	ListAuditLogs(ctx context.Context, actor domain.Identity, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// ConsistencyChecker verifies ledger invariants.
type ConsistencyChecker interface {
	CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error)
}

// Reconciler compares stored balances with their entries.
type Reconciler interface {
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// AdminHandler handles /admin requests. Routes are mounted behind
// RequireAdmin; the admin use case re-checks the role itself.
type AdminHandler struct {
	adminUC     AdminService
	ledgerUC    ConsistencyChecker
	reconcileUC Reconciler
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminUC AdminService, ledgerUC ConsistencyChecker, reconciler Reconciler) *AdminHandler {
	return &AdminHandler{
		adminUC:     adminUC,
		ledgerUC:    ledgerUC,
		reconcileUC: reconciler,
	}
}

// ListAccounts pages through every account in the bank.
func (h *AdminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	accounts, err := h.adminUC.ListAccounts(r.Context(), identity(r), limit, offset)
	if err != nil {
		respondError(w, r, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    len(accounts),
	})
}

// SetStatus freezes, unfreezes or closes an account.
func (h *AdminHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.SetStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.adminUC.SetAccountStatus(r.Context(), identity(r), chi.URLParam(r, "id"), domain.AccountStatus(req.Status))
	if err != nil {
		respondError(w, r, "failed to update account status", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Credit posts an administrative credit.
func (h *AdminHandler) Credit(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, "failed to credit account", h.adminUC.Credit)
}

// Debit posts an administrative debit.
func (h *AdminHandler) Debit(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, "failed to debit account", h.adminUC.Debit)
}

func (h *AdminHandler) adjust(
	w http.ResponseWriter,
	r *http.Request,
	failure string,
	post func(context.Context, domain.Identity, usecase.AdjustmentInput) (*usecase.PostingResult, error),
) {
	var req dto.AdjustmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := post(r.Context(), identity(r), req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		respondError(w, r, failure, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PostingFromDomain(result))
}

// UpdateTransaction changes when an entry occurred.
func (h *AdminHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateTransactionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	txn, err := h.adminUC.UpdateTransactionTime(r.Context(), identity(r), chi.URLParam(r, "id"), req.OccurredAt)
	if err != nil {
		respondError(w, r, "failed to update transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// DeleteTransaction removes an entry, and its twin when it is a transfer
// leg. The optional direction query parameter must agree with the entry.
func (h *AdminHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	direction, err := domain.ParseReversalDirection(r.URL.Query().Get("direction"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid direction", err.Error())
		return
	}

	result, err := h.adminUC.DeleteTransaction(r.Context(), identity(r), usecase.DeleteTransactionInput{
		TransactionID: chi.URLParam(r, "id"),
		Direction:     direction,
	})
	if err != nil {
		respondError(w, r, "failed to delete transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DeleteFromDomain(result))
}

// Consistency runs the ledger consistency check.
func (h *AdminHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledgerUC.CheckConsistency(r.Context())
	if err != nil {
		respondError(w, r, "failed to check consistency", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromDomain(report))
}

// Reconciliation reports every account whose balance drifted from its entries.
func (h *AdminHandler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconcileUC.GenerateReconciliationReport(r.Context())
	if err != nil {
		respondError(w, r, "failed to reconcile", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromDomain(report))
}

// AuditLogs lists audit records, newest first.
func (h *AdminHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	logs, err := h.adminUC.ListAuditLogs(r.Context(), identity(r), domain.AuditFilter{
		UserID:       q.Get("user_id"),
		Action:       domain.AuditAction(q.Get("action")),
		ResourceType: q.Get("resource_type"),
		ResourceID:   q.Get("resource_id"),
		Limit:        parseIntQuery(r, "limit", 50),
		Offset:       parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		respondError(w, r, "failed to list audit logs", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"audit_logs": dto.AuditLogsFromDomain(logs)})
}
