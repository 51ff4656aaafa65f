package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

func putEntry(l *ledger, id, accountID string, amount domain.MinorUnits, category, description string, at time.Time) {
	l.entries.Put(&domain.Transaction{
		ID:          id,
		AccountID:   accountID,
		Amount:      amount,
		Description: description,
		Category:    category,
		OccurredAt:  at,
		CreatedAt:   at,
	})
}

func TestReportUseCase_Dashboard(t *testing.T) {
	l := newLedger()
	a := l.seed(t, "acc-a", alice.UserID, 0)
	b := l.seed(t, "acc-b", alice.UserID, 0)
	l.seed(t, "acc-c", bob.UserID, 0)

	now := time.Now().UTC()
	putEntry(l, "t1", "acc-a", 50000, domain.CategoryDeposit, "Payroll", now)
	putEntry(l, "t2", "acc-a", -1200, domain.CategoryWithdrawal, "ATM", now)
	putEntry(l, "t3", "acc-a", -3000, domain.CategoryExternalTransfer, "Rent", now)
	putEntry(l, "t4", "acc-a", -2000, domain.CategoryTransfer, "To savings", now)
	putEntry(l, "t5", "acc-b", 2000, domain.CategoryTransfer, "From checking", now)
	putEntry(l, "t6", "acc-c", 99999, domain.CategoryDeposit, "Not alice", now)

	a.Balance = 43800
	b.Balance = 2000
	l.accounts.Put(a)
	l.accounts.Put(b)

	d, err := usecase.NewReportUseCase(l.accounts, l.entries).Dashboard(context.Background(), alice)
	require.NoError(t, err)

	assert.Equal(t, domain.MinorUnits(45800), d.TotalBalance)
	assert.Len(t, d.Accounts, 2)
	assert.Equal(t, domain.MinorUnits(52000), d.MonthInflow)
	assert.Equal(t, domain.MinorUnits(6200), d.MonthOutflow)

	require.Len(t, d.SpendingCategory, 2)
	assert.Equal(t, usecase.CategoryTotal{Category: domain.CategoryExternalTransfer, Amount: 3000}, d.SpendingCategory[0])
	assert.Equal(t, usecase.CategoryTotal{Category: domain.CategoryWithdrawal, Amount: 1200}, d.SpendingCategory[1])

	assert.Len(t, d.Recent, 5)
}

func TestReportUseCase_Dashboard_NoAccounts(t *testing.T) {
	l := newLedger()

	d, err := usecase.NewReportUseCase(l.accounts, l.entries).Dashboard(context.Background(), alice)
	require.NoError(t, err)
	assert.Zero(t, d.TotalBalance)
	assert.Empty(t, d.Recent)
}

func TestReportUseCase_Statement(t *testing.T) {
	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 0)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	putEntry(l, "t3", "acc-a", -500, domain.CategoryWithdrawal, "Third", base.Add(2*time.Hour))
	putEntry(l, "t1", "acc-a", 1000, domain.CategoryDeposit, "First", base)
	putEntry(l, "t2", "acc-a", 250, domain.CategoryDeposit, "Second", base.Add(time.Hour))

	uc := usecase.NewReportUseCase(l.accounts, l.entries)

	account, entries, err := uc.Statement(context.Background(), alice, "acc-a")
	require.NoError(t, err)
	assert.Equal(t, "acc-a", account.ID)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"First", "Second", "Third"}, []string{entries[0].Description, entries[1].Description, entries[2].Description})

	_, _, err = uc.Statement(context.Background(), bob, "acc-a")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestReportUseCase_SearchTransactions(t *testing.T) {
	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 0)
	l.seed(t, "acc-b", alice.UserID, 0)
	l.seed(t, "acc-c", bob.UserID, 0)

	base := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	putEntry(l, "t1", "acc-a", 10000, domain.CategoryDeposit, "Payroll May", base)
	putEntry(l, "t2", "acc-a", -4500, domain.CategoryExternalTransfer, "Transfer to Landlord", base.Add(24*time.Hour))
	putEntry(l, "t3", "acc-b", 700, domain.CategoryDeposit, "Interest", base.Add(48*time.Hour))
	putEntry(l, "t4", "acc-c", 900, domain.CategoryDeposit, "Payroll Bob", base)

	uc := usecase.NewReportUseCase(l.accounts, l.entries)
	ctx := context.Background()

	min, max := domain.MinorUnits(1000), domain.MinorUnits(5000)
	from := base.Add(12 * time.Hour)

	tests := []struct {
		name    string
		input   usecase.SearchInput
		wantIDs []string
		wantErr error
	}{
		{name: "all owned accounts newest first", input: usecase.SearchInput{}, wantIDs: []string{"t3", "t2", "t1"}},
		{name: "single account", input: usecase.SearchInput{AccountID: "acc-b"}, wantIDs: []string{"t3"}},
		{name: "text is case insensitive", input: usecase.SearchInput{Query: "payroll"}, wantIDs: []string{"t1"}},
		{name: "category", input: usecase.SearchInput{Category: domain.CategoryDeposit}, wantIDs: []string{"t3", "t1"}},
		{name: "amount range uses magnitude", input: usecase.SearchInput{MinAmount: &min, MaxAmount: &max}, wantIDs: []string{"t2"}},
		{name: "date range", input: usecase.SearchInput{From: &from}, wantIDs: []string{"t3", "t2"}},
		{name: "pagination", input: usecase.SearchInput{Limit: 1, Offset: 1}, wantIDs: []string{"t2"}},
		{name: "foreign account", input: usecase.SearchInput{AccountID: "acc-c"}, wantErr: domain.ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := uc.SearchTransactions(ctx, alice, tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			ids := make([]string, 0, len(got))
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestReportUseCase_GetTransaction(t *testing.T) {
	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 1000)
	uc := usecase.NewReportUseCase(l.accounts, l.entries)

	entry, err := uc.GetTransaction(context.Background(), alice, "seed-acc-a")
	require.NoError(t, err)
	assert.Equal(t, domain.MinorUnits(1000), entry.Amount)

	_, err = uc.GetTransaction(context.Background(), bob, "seed-acc-a")
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)

	_, err = uc.GetTransaction(context.Background(), alice, "missing")
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
}
