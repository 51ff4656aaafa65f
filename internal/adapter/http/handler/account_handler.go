package handler

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	OpenAccount(ctx context.Context, actor domain.Identity, input usecase.OpenAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, actor domain.Identity, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, actor domain.Identity) ([]*domain.Account, error)
}

// MovementService posts deposits and withdrawals.
type MovementService interface {
	Deposit(ctx context.Context, actor domain.Identity, input usecase.MovementInput) (*usecase.PostingResult, error)
	Withdraw(ctx context.Context, actor domain.Identity, input usecase.MovementInput) (*usecase.PostingResult, error)
}

// StatementService exports an account's entries.
type StatementService interface {
	Statement(ctx context.Context, actor domain.Identity, accountID string) (*domain.Account, []*domain.Transaction, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC   AccountService
	movementUC  MovementService
	statementUC StatementService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService, movementUC MovementService, statementUC StatementService) *AccountHandler {
	return &AccountHandler{
		accountUC:   accountUC,
		movementUC:  movementUC,
		statementUC: statementUC,
	}
}

// Open opens a new account for the caller.
func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenAccountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.accountUC.OpenAccount(r.Context(), identity(r), req.ToUseCaseInput())
	if err != nil {
		respondError(w, r, "failed to open account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves one of the caller's accounts.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), identity(r), id)
	if err != nil {
		respondError(w, r, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists the caller's accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountUC.ListAccounts(r.Context(), identity(r))
	if err != nil {
		respondError(w, r, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    len(accounts),
	})
}

// Deposit adds money to an account.
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, "failed to deposit", h.movementUC.Deposit)
}

// Withdraw removes money from an account.
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, "failed to withdraw", h.movementUC.Withdraw)
}

func (h *AccountHandler) move(
	w http.ResponseWriter,
	r *http.Request,
	failure string,
	post func(context.Context, domain.Identity, usecase.MovementInput) (*usecase.PostingResult, error),
) {
	var req dto.MovementRequest
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

// Statement streams the account's entries as CSV, oldest first. Amounts
// are signed minor units, followed by the running balance.
func (h *AccountHandler) Statement(w http.ResponseWriter, r *http.Request) {
	account, entries, err := h.statementUC.Statement(r.Context(), identity(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "failed to build statement", err)
		return
	}

	filename := fmt.Sprintf("statement-%s-%s.csv", account.MaskedNumber(), time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"date", "description", "category", "amount_cents", "balance_cents", "transaction_id"})

	var running domain.MinorUnits
	for _, e := range entries {
		running += e.Amount
		_ = cw.Write([]string{
			e.OccurredAt.UTC().Format(time.RFC3339),
			e.Description,
			e.Category,
			strconv.FormatInt(int64(e.Amount), 10),
			strconv.FormatInt(int64(running), 10),
			e.ID,
		})
	}
	cw.Flush()
}
