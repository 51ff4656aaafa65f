package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/iho/gobank/internal/domain"
)

// ReportUseCase answers read-only questions about a customer's ledger.
type ReportUseCase struct {
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	now         func() time.Time
}

// NewReportUseCase creates a new ReportUseCase.
func NewReportUseCase(accountRepo AccountRepository, txnRepo TransactionRepository) *ReportUseCase {
	return &ReportUseCase{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		now:         time.Now,
	}
}

// CategoryTotal is the outflow attributed to one category.
type CategoryTotal struct {
	Category string
	Amount   domain.MinorUnits
}

// Dashboard summarizes a customer's accounts.
type Dashboard struct {
	TotalBalance     domain.MinorUnits
	Accounts         []*domain.Account
	MonthInflow      domain.MinorUnits
	MonthOutflow     domain.MinorUnits
	SpendingCategory []CategoryTotal
	Recent           []*domain.Transaction
}

// Dashboard aggregates balances and this month's activity for actor.
func (uc *ReportUseCase) Dashboard(ctx context.Context, actor domain.Identity) (*Dashboard, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	accounts, err := uc.accountRepo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{Accounts: accounts}
	if len(accounts) == 0 {
		return d, nil
	}

	ids := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		d.TotalBalance += acc.Balance
		ids = append(ids, acc.ID)
	}

	now := uc.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	monthly, err := uc.txnRepo.Search(ctx, domain.TransactionFilter{
		AccountIDs: ids,
		From:       &monthStart,
	})
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string]domain.MinorUnits)
	for _, t := range monthly {
		if t.Amount > 0 {
			d.MonthInflow += t.Amount
			continue
		}
		d.MonthOutflow += t.Amount.Abs()
		// Moving money between the customer's own accounts is not spending.
		if t.Category != domain.CategoryTransfer {
			byCategory[t.Category] += t.Amount.Abs()
		}
	}

	for category, amount := range byCategory {
		d.SpendingCategory = append(d.SpendingCategory, CategoryTotal{Category: category, Amount: amount})
	}
	sort.Slice(d.SpendingCategory, func(i, j int) bool {
		if d.SpendingCategory[i].Amount != d.SpendingCategory[j].Amount {
			return d.SpendingCategory[i].Amount > d.SpendingCategory[j].Amount
		}
		return d.SpendingCategory[i].Category < d.SpendingCategory[j].Category
	})

	d.Recent, err = uc.txnRepo.Search(ctx, domain.TransactionFilter{
		AccountIDs: ids,
		Limit:      RecentTransactionsLimit,
	})
	if err != nil {
		return nil, err
	}

	return d, nil
}

// Statement returns the account and all of its entries ordered by
// occurrence time ascending.
func (uc *ReportUseCase) Statement(ctx context.Context, actor domain.Identity, accountID string) (*domain.Account, []*domain.Transaction, error) {
	account, err := uc.ownedAccount(ctx, actor, accountID)
	if err != nil {
		return nil, nil, err
	}

	entries, err := uc.txnRepo.ListByAccount(ctx, account.ID)
	if err != nil {
		return nil, nil, err
	}

	return account, entries, nil
}

// SearchInput narrows a transaction search. An empty AccountID searches
// every account owned by the caller.
type SearchInput struct {
	AccountID string
	Category  string
	Query     string
	From      *time.Time
	To        *time.Time
	MinAmount *domain.MinorUnits
	MaxAmount *domain.MinorUnits
	Limit     int
	Offset    int
}

// SearchTransactions finds entries on the caller's accounts, newest first.
func (uc *ReportUseCase) SearchTransactions(ctx context.Context, actor domain.Identity, input SearchInput) ([]*domain.Transaction, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	var ids []string
	if input.AccountID != "" {
		account, err := uc.ownedAccount(ctx, actor, input.AccountID)
		if err != nil {
			return nil, err
		}
		ids = []string{account.ID}
	} else {
		accounts, err := uc.accountRepo.ListByUser(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		for _, acc := range accounts {
			ids = append(ids, acc.ID)
		}
	}

	if len(ids) == 0 {
		return []*domain.Transaction{}, nil
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.txnRepo.Search(ctx, domain.TransactionFilter{
		AccountIDs: ids,
		Category:   input.Category,
		Query:      input.Query,
		From:       input.From,
		To:         input.To,
		MinAmount:  input.MinAmount,
		MaxAmount:  input.MaxAmount,
		Limit:      limit,
		Offset:     offset,
	})
}

// GetTransaction returns one entry if it belongs to one of actor's accounts.
func (uc *ReportUseCase) GetTransaction(ctx context.Context, actor domain.Identity, id string) (*domain.Transaction, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	entry, err := uc.txnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByID(ctx, entry.AccountID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	if !account.OwnedBy(actor.UserID) {
		return nil, domain.ErrTransactionNotFound
	}

	return entry, nil
}

func (uc *ReportUseCase) ownedAccount(ctx context.Context, actor domain.Identity, id string) (*domain.Account, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !account.OwnedBy(actor.UserID) {
		return nil, domain.ErrAccountNotFound
	}

	return account, nil
}
