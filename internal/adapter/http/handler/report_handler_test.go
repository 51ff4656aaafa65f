package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

type reportServiceStub struct {
	dashboardFn func(ctx context.Context, actor domain.Identity) (*usecase.Dashboard, error)
	searchFn    func(ctx context.Context, actor domain.Identity, input usecase.SearchInput) ([]*domain.Transaction, error)
	getFn       func(ctx context.Context, actor domain.Identity, id string) (*domain.Transaction, error)
}

func (s *reportServiceStub) Dashboard(ctx context.Context, actor domain.Identity) (*usecase.Dashboard, error) {
	return s.dashboardFn(ctx, actor)
}

func (s *reportServiceStub) SearchTransactions(ctx context.Context, actor domain.Identity, input usecase.SearchInput) ([]*domain.Transaction, error) {
	return s.searchFn(ctx, actor, input)
}

func (s *reportServiceStub) GetTransaction(ctx context.Context, actor domain.Identity, id string) (*domain.Transaction, error) {
	return s.getFn(ctx, actor, id)
}

func TestReportHandler_SearchParsesFilters(t *testing.T) {
	var captured usecase.SearchInput
	handler := NewReportHandler(&reportServiceStub{
		searchFn: func(ctx context.Context, actor domain.Identity, input usecase.SearchInput) ([]*domain.Transaction, error) {
			captured = input
			return []*domain.Transaction{{ID: "t1", AccountID: "acc-1", Amount: -1500, Category: "dining"}}, nil
		},
	})

	url := "/transactions?account_id=acc-1&category=dining&q=pizza&from=2026-01-01&to=2026-01-31T23:59:59Z&min_amount=5&max_amount=20.50&limit=10&offset=5"
	req := withActor(httptest.NewRequest(http.MethodGet, url, nil), customer)
	rec := httptest.NewRecorder()

	handler.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.AccountID != "acc-1" || captured.Category != "dining" || captured.Query != "pizza" {
		t.Fatalf("unexpected filters: %+v", captured)
	}
	if captured.From == nil || captured.From.Day() != 1 || captured.To == nil || captured.To.Day() != 31 {
		t.Fatalf("expected both time bounds, got %v %v", captured.From, captured.To)
	}
	if captured.MinAmount == nil || *captured.MinAmount != 500 || captured.MaxAmount == nil || *captured.MaxAmount != 2050 {
		t.Fatalf("unexpected amount bounds: %v %v", captured.MinAmount, captured.MaxAmount)
	}
	if captured.Limit != 10 || captured.Offset != 5 {
		t.Fatalf("unexpected paging: %d %d", captured.Limit, captured.Offset)
	}

	var resp dto.ListTransactionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Transactions) != 1 || resp.Transactions[0].Direction != "debit" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestReportHandler_SearchRejectsBadQuery(t *testing.T) {
	handler := NewReportHandler(&reportServiceStub{})

	for _, url := range []string{"/transactions?from=yesterday", "/transactions?min_amount=lots"} {
		req := withActor(httptest.NewRequest(http.MethodGet, url, nil), customer)
		rec := httptest.NewRecorder()

		handler.Search(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", url, rec.Code)
		}
	}
}

func TestReportHandler_GetNotOwned(t *testing.T) {
	handler := NewReportHandler(&reportServiceStub{
		getFn: func(ctx context.Context, actor domain.Identity, id string) (*domain.Transaction, error) {
			return nil, domain.ErrTransactionNotFound
		},
	})

	req := setChiURLParam(withActor(httptest.NewRequest(http.MethodGet, "/transactions/t9", nil), customer), "id", "t9")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestReportHandler_Dashboard(t *testing.T) {
	handler := NewReportHandler(&reportServiceStub{
		dashboardFn: func(ctx context.Context, actor domain.Identity) (*usecase.Dashboard, error) {
			return &usecase.Dashboard{
				TotalBalance:     12345,
				Accounts:         []*domain.Account{testAccount("acc-1", 12345)},
				MonthInflow:      20000,
				MonthOutflow:     7655,
				SpendingCategory: []usecase.CategoryTotal{{Category: "groceries", Amount: 7655}},
			}, nil
		},
	})

	req := withActor(httptest.NewRequest(http.MethodGet, "/dashboard", nil), customer)
	rec := httptest.NewRecorder()

	handler.Dashboard(rec, req)

	var resp dto.DashboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TotalBalance.Amount != "123.45" || resp.SpendingByCategory[0].Category != "groceries" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestReportHandler_DashboardRequiresIdentity(t *testing.T) {
	handler := NewReportHandler(&reportServiceStub{
		dashboardFn: func(ctx context.Context, actor domain.Identity) (*usecase.Dashboard, error) {
			return nil, actor.Validate()
		},
	})

	rec := httptest.NewRecorder()
	handler.Dashboard(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
