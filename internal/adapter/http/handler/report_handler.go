package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// ReportService defines the read-side behavior needed by ReportHandler.
type ReportService interface {
	Dashboard(ctx context.Context, actor domain.Identity) (*usecase.Dashboard, error)
	SearchTransactions(ctx context.Context, actor domain.Identity, input usecase.SearchInput) ([]*domain.Transaction, error)
	GetTransaction(ctx context.Context, actor domain.Identity, id string) (*domain.Transaction, error)
}

// ReportHandler serves the dashboard and transaction history.
type ReportHandler struct {
	reportUC ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportUC ReportService) *ReportHandler {
	return &ReportHandler{reportUC: reportUC}
}

// Dashboard summarizes the caller's accounts.
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.reportUC.Dashboard(r.Context(), identity(r))
	if err != nil {
		respondError(w, r, "failed to build dashboard", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DashboardFromDomain(d))
}

// Search lists the caller's transactions.
//
// Query parameters: account_id, category, q, from, to (RFC 3339),
// min_amount, max_amount (decimal), limit, offset.
func (h *ReportHandler) Search(w http.ResponseWriter, r *http.Request) {
	input, err := parseSearch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	txns, err := h.reportUC.SearchTransactions(r.Context(), identity(r), input)
	if err != nil {
		respondError(w, r, "failed to search transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(txns),
		Limit:        input.Limit,
		Offset:       input.Offset,
	})
}

// Get retrieves a single transaction on one of the caller's accounts.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	txn, err := h.reportUC.GetTransaction(r.Context(), identity(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

func parseSearch(r *http.Request) (usecase.SearchInput, error) {
	q := r.URL.Query()
	input := usecase.SearchInput{
		AccountID: q.Get("account_id"),
		Category:  q.Get("category"),
		Query:     q.Get("q"),
		Limit:     parseIntQuery(r, "limit", 50),
		Offset:    parseIntQuery(r, "offset", 0),
	}

	var err error
	if input.From, err = parseTimeParam(q.Get("from")); err != nil {
		return input, err
	}
	if input.To, err = parseTimeParam(q.Get("to")); err != nil {
		return input, err
	}
	if input.MinAmount, err = parseAmountParam(q.Get("min_amount")); err != nil {
		return input, err
	}
	if input.MaxAmount, err = parseAmountParam(q.Get("max_amount")); err != nil {
		return input, err
	}
	return input, nil
}

func parseTimeParam(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		if t, err = time.Parse(time.DateOnly, s); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func parseAmountParam(s string) (*domain.MinorUnits, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	m := domain.ToMinorUnits(d)
	return &m, nil
}
