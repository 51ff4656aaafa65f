package dto

import (
	"time"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// Money renders an amount three ways so clients never do float math.
type Money struct {
	Amount     string `json:"amount"`
	MinorUnits int64  `json:"minor_units"`
	Display    string `json:"display"`
}

// MoneyFrom builds a Money value.
func MoneyFrom(m domain.MinorUnits, currency string) Money {
	return Money{
		Amount:     m.Decimal().StringFixed(2),
		MinorUnits: int64(m),
		Display:    domain.FormatMinorUnits(m, currency),
	}
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Type         string     `json:"type"`
	Number       string     `json:"number"`
	MaskedNumber string     `json:"masked_number"`
	Currency     string     `json:"currency"`
	Balance      Money      `json:"balance"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:           a.ID,
		Name:         a.Name,
		Type:         string(a.Type),
		Number:       a.Number,
		MaskedNumber: a.MaskedNumber(),
		Currency:     a.Currency,
		Balance:      MoneyFrom(a.Balance, a.Currency),
		Status:       string(a.Status),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		ClosedAt:     a.ClosedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse wraps a list of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int                `json:"total"`
}

// TransactionResponse represents a ledger entry.
type TransactionResponse struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Amount      Money     `json:"amount"`
	Direction   string    `json:"direction"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	OccurredAt  time.Time `json:"occurred_at"`
	TransferID  string    `json:"transfer_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TransactionFromDomain converts a domain entry to response. Entries carry
// no currency of their own; the default currency is used for display.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	direction := "debit"
	if t.IsCredit() {
		direction = "credit"
	}
	return &TransactionResponse{
		ID:          t.ID,
		AccountID:   t.AccountID,
		Amount:      MoneyFrom(t.Amount, domain.DefaultCurrency),
		Direction:   direction,
		Description: t.Description,
		Category:    t.Category,
		OccurredAt:  t.OccurredAt,
		TransferID:  t.TransferID,
		CreatedAt:   t.CreatedAt,
	}
}

// TransactionsFromDomain converts domain entries to responses.
func TransactionsFromDomain(txns []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse wraps a page of entries.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Limit        int                    `json:"limit"`
	Offset       int                    `json:"offset"`
}

// PostingResponse is the result of a single-account movement.
type PostingResponse struct {
	Account     *AccountResponse     `json:"account"`
	Transaction *TransactionResponse `json:"transaction"`
}

// PostingFromDomain converts a posting result.
func PostingFromDomain(r *usecase.PostingResult) *PostingResponse {
	return &PostingResponse{
		Account:     AccountFromDomain(r.Account),
		Transaction: TransactionFromDomain(r.Transaction),
	}
}

// TransferResponse represents an internal transfer.
type TransferResponse struct {
	TransferID string               `json:"transfer_id"`
	From       *AccountResponse     `json:"from"`
	To         *AccountResponse     `json:"to"`
	Debit      *TransactionResponse `json:"debit"`
	Credit     *TransactionResponse `json:"credit"`
}

// TransferFromDomain converts a transfer result.
func TransferFromDomain(r *usecase.TransferResult) *TransferResponse {
	return &TransferResponse{
		TransferID: r.TransferID,
		From:       AccountFromDomain(r.From),
		To:         AccountFromDomain(r.To),
		Debit:      TransactionFromDomain(r.Debit),
		Credit:     TransactionFromDomain(r.Credit),
	}
}

// CategoryTotalResponse is one spending category.
type CategoryTotalResponse struct {
	Category string `json:"category"`
	Amount   Money  `json:"amount"`
}

// DashboardResponse summarizes a customer's finances.
type DashboardResponse struct {
	TotalBalance       Money                   `json:"total_balance"`
	Accounts           []*AccountResponse      `json:"accounts"`
	MonthInflow        Money                   `json:"month_inflow"`
	MonthOutflow       Money                   `json:"month_outflow"`
	SpendingByCategory []CategoryTotalResponse `json:"spending_by_category"`
	RecentTransactions []*TransactionResponse  `json:"recent_transactions"`
}

// DashboardFromDomain converts a dashboard.
func DashboardFromDomain(d *usecase.Dashboard) *DashboardResponse {
	cats := make([]CategoryTotalResponse, len(d.SpendingCategory))
	for i, c := range d.SpendingCategory {
		cats[i] = CategoryTotalResponse{Category: c.Category, Amount: MoneyFrom(c.Amount, domain.DefaultCurrency)}
	}
	return &DashboardResponse{
		TotalBalance:       MoneyFrom(d.TotalBalance, domain.DefaultCurrency),
		Accounts:           AccountsFromDomain(d.Accounts),
		MonthInflow:        MoneyFrom(d.MonthInflow, domain.DefaultCurrency),
		MonthOutflow:       MoneyFrom(d.MonthOutflow, domain.DefaultCurrency),
		SpendingByCategory: cats,
		RecentTransactions: TransactionsFromDomain(d.Recent),
	}
}

// DeleteTransactionResponse lists what an admin delete removed.
type DeleteTransactionResponse struct {
	Deleted  []*TransactionResponse `json:"deleted"`
	Accounts []*AccountResponse     `json:"accounts"`
}

// DeleteFromDomain converts a delete result.
func DeleteFromDomain(r *usecase.DeleteResult) *DeleteTransactionResponse {
	return &DeleteTransactionResponse{
		Deleted:  TransactionsFromDomain(r.Deleted),
		Accounts: AccountsFromDomain(r.Accounts),
	}
}

// UserResponse is a user without credentials.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFromDomain converts a user.
func UserFromDomain(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

// TokenResponse carries an access token.
type TokenResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresAt   time.Time     `json:"expires_at"`
	User        *UserResponse `json:"user"`
}

// NotificationResponse is an inbox item.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationsFromDomain converts notifications.
func NotificationsFromDomain(ns []*domain.Notification) []*NotificationResponse {
	result := make([]*NotificationResponse, len(ns))
	for i, n := range ns {
		result[i] = &NotificationResponse{
			ID:        n.ID,
			Kind:      n.Kind,
			Title:     n.Title,
			Body:      n.Body,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		}
	}
	return result
}

// LinkTokenResponse is a short-lived token for the linking widget.
type LinkTokenResponse struct {
	LinkToken string    `json:"link_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LinkedItemResponse describes a linked institution. The access token is
// never returned.
type LinkedItemResponse struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LinkedItemFromDomain converts a linked item.
func LinkedItemFromDomain(item *domain.LinkedItem) *LinkedItemResponse {
	return &LinkedItemResponse{ID: item.ID, ItemID: item.ItemID, CreatedAt: item.CreatedAt}
}

// BalanceMismatchResponse is one drifted account.
type BalanceMismatchResponse struct {
	AccountID string `json:"account_id"`
	Recorded  Money  `json:"recorded"`
	Computed  Money  `json:"computed"`
}

// ConsistencyResponse is the ledger consistency report.
type ConsistencyResponse struct {
	Consistent        bool                      `json:"consistent"`
	BalanceMismatches []BalanceMismatchResponse `json:"balance_mismatches"`
	BrokenTransfers   []string                  `json:"broken_transfers"`
	CheckedAt         time.Time                 `json:"checked_at"`
}

// ConsistencyFromDomain converts a consistency report.
func ConsistencyFromDomain(r *usecase.ConsistencyReport) *ConsistencyResponse {
	mismatches := make([]BalanceMismatchResponse, len(r.BalanceMismatches))
	for i, m := range r.BalanceMismatches {
		mismatches[i] = BalanceMismatchResponse{
			AccountID: m.AccountID,
			Recorded:  MoneyFrom(m.Recorded, domain.DefaultCurrency),
			Computed:  MoneyFrom(m.Computed, domain.DefaultCurrency),
		}
	}
	broken := r.BrokenTransfers
	if broken == nil {
		broken = []string{}
	}
	return &ConsistencyResponse{
		Consistent:        r.Consistent,
		BalanceMismatches: mismatches,
		BrokenTransfers:   broken,
		CheckedAt:         r.CheckedAt,
	}
}

// ReconciliationResultResponse is one account's reconciliation.
type ReconciliationResultResponse struct {
	AccountID  string    `json:"account_id"`
	Recorded   Money     `json:"recorded"`
	Calculated Money     `json:"calculated"`
	Difference Money     `json:"difference"`
	Reconciled bool      `json:"reconciled"`
	CheckedAt  time.Time `json:"checked_at"`
}

// ReconciliationResponse is the reconciliation report.
type ReconciliationResponse struct {
	TotalAccounts      int                             `json:"total_accounts"`
	ReconciledAccounts int                             `json:"reconciled_accounts"`
	Discrepancies      []*ReconciliationResultResponse `json:"discrepancies"`
	CheckedAt          time.Time                       `json:"checked_at"`
}

// ReconciliationFromDomain converts a reconciliation report.
func ReconciliationFromDomain(r *usecase.ReconciliationReport) *ReconciliationResponse {
	out := make([]*ReconciliationResultResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		out[i] = &ReconciliationResultResponse{
			AccountID:  d.AccountID,
			Recorded:   MoneyFrom(d.RecordedBalance, domain.DefaultCurrency),
			Calculated: MoneyFrom(d.CalculatedBalance, domain.DefaultCurrency),
			Difference: MoneyFrom(d.Difference, domain.DefaultCurrency),
			Reconciled: d.IsReconciled,
			CheckedAt:  d.LastChecked,
		}
	}
	return &ReconciliationResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      out,
		CheckedAt:          r.CheckedAt,
	}
}

// AuditLogResponse is an audit trail row.
type AuditLogResponse struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Action       string      `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id"`
	RequestID    string      `json:"request_id,omitempty"`
	BeforeState  domain.JSON `json:"before_state,omitempty"`
	AfterState   domain.JSON `json:"after_state,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// AuditLogsFromDomain converts audit logs.
func AuditLogsFromDomain(logs []*domain.AuditLog) []*AuditLogResponse {
	result := make([]*AuditLogResponse, len(logs))
	for i, l := range logs {
		result[i] = &AuditLogResponse{
			ID:           l.ID,
			UserID:       l.UserID,
			Action:       string(l.Action),
			ResourceType: l.ResourceType,
			ResourceID:   l.ResourceID,
			RequestID:    l.RequestID,
			BeforeState:  l.BeforeState,
			AfterState:   l.AfterState,
			CreatedAt:    l.CreatedAt,
		}
	}
	return result
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
