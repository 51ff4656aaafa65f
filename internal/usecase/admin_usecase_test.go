package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
	"github.com/iho/gobank/internal/usecase/mocks"
)

func newAdminUseCase(t *testing.T, l *ledger, notifier usecase.Notifier) *usecase.AdminUseCase {
	t.Helper()

	ctrl := gomock.NewController(t)
	authorizer := mocks.NewMockAdminAuthorizer(ctrl)
	authorizer.EXPECT().
		IsAdmin(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id domain.Identity) (bool, error) {
			return id.Role == domain.RoleAdmin, nil
		}).
		AnyTimes()

	return usecase.NewAdminUseCase(l.txm, l.accounts, l.entries, l.audit, authorizer, notifier, l.ids, nil)
}

func TestAdminUseCase_Credit(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)

	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 1000)

	var delivered *domain.Notification
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, n *domain.Notification) error {
		delivered = n
		return nil
	})

	ctx := domain.WithRequestID(context.Background(), "req-42")
	result, err := newAdminUseCase(t, l, notifier).Credit(ctx, admin, usecase.AdjustmentInput{
		AccountID: "acc-a",
		Amount:    5000,
		Memo:      "Goodwill credit",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.MinorUnits(6000), result.Account.Balance)
	assert.Equal(t, domain.CategoryAdminCredit, result.Transaction.Category)
	assert.Equal(t, "Goodwill credit", result.Transaction.Description)
	l.requireMirrored(t, "acc-a")

	logs, err := l.audit.List(context.Background(), domain.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.AuditActionAdminCredit, logs[0].Action)
	assert.Equal(t, admin.UserID, logs[0].UserID)
	assert.Equal(t, "req-42", logs[0].RequestID)

	require.NotNil(t, delivered)
	assert.Equal(t, alice.UserID, delivered.UserID)
	assert.Equal(t, domain.NotificationCreditApplied, delivered.Kind)
}

func TestAdminUseCase_Debit(t *testing.T) {
	tests := []struct {
		name        string
		status      domain.AccountStatus
		amount      domain.MinorUnits
		wantErr     error
		wantBalance domain.MinorUnits
	}{
		{name: "debit within balance", status: domain.AccountStatusActive, amount: 400, wantBalance: 600},
		{name: "frozen accounts can still be adjusted", status: domain.AccountStatusFrozen, amount: 400, wantBalance: 600},
		{name: "overdraw is rejected", status: domain.AccountStatusActive, amount: 1001, wantErr: domain.ErrInsufficientFunds, wantBalance: 1000},
		{name: "closed accounts are rejected", status: domain.AccountStatusClosed, amount: 100, wantErr: domain.ErrAccountNotActive, wantBalance: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger()
			acc := l.seed(t, "acc-a", alice.UserID, 1000)
			acc.Status = tt.status
			l.accounts.Put(acc)

			_, err := newAdminUseCase(t, l, nil).Debit(context.Background(), admin, usecase.AdjustmentInput{
				AccountID: "acc-a",
				Amount:    tt.amount,
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				logs, _ := l.audit.List(context.Background(), domain.AuditFilter{})
				assert.Empty(t, logs)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantBalance, l.balance(t, "acc-a"))
			l.requireMirrored(t, "acc-a")
		})
	}
}

func TestAdminUseCase_RejectsNonAdmins(t *testing.T) {
	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 1000)
	uc := newAdminUseCase(t, l, nil)
	ctx := context.Background()

	_, err := uc.Credit(ctx, alice, usecase.AdjustmentInput{AccountID: "acc-a", Amount: 100})
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.DeleteTransaction(ctx, alice, usecase.DeleteTransactionInput{TransactionID: "seed-acc-a"})
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.SetAccountStatus(ctx, alice, "acc-a", domain.AccountStatusFrozen)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.ListAccounts(ctx, domain.Identity{}, 0, 0)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	assert.Equal(t, domain.MinorUnits(1000), l.balance(t, "acc-a"))
	assert.Len(t, l.entries.All(), 1)
}

func TestAdminUseCase_AuthorizerErrorIsReturned(t *testing.T) {
	ctrl := gomock.NewController(t)
	authorizer := mocks.NewMockAdminAuthorizer(ctrl)
	lookupErr := errors.New("directory unavailable")
	authorizer.EXPECT().IsAdmin(gomock.Any(), admin).Return(false, lookupErr)

	l := newLedger()
	uc := usecase.NewAdminUseCase(l.txm, l.accounts, l.entries, l.audit, authorizer, nil, l.ids, nil)

	_, err := uc.Credit(context.Background(), admin, usecase.AdjustmentInput{AccountID: "acc-a", Amount: 100})
	require.ErrorIs(t, err, lookupErr)
}

func TestAdminUseCase_DeleteTransaction(t *testing.T) {
	tests := []struct {
		name        string
		direction   domain.ReversalDirection
		entryAmount domain.MinorUnits
		wantErr     error
		wantBalance domain.MinorUnits
	}{
		{name: "credit reversed by sign", direction: domain.ReversalAuto, entryAmount: 3000, wantBalance: 10000},
		{name: "declared credit matches", direction: domain.ReversalCredit, entryAmount: 3000, wantBalance: 10000},
		{name: "none still recomputes the balance", direction: domain.ReversalNone, entryAmount: -2000, wantBalance: 10000},
		{name: "declared debit matches", direction: domain.ReversalDebit, entryAmount: -2000, wantBalance: 10000},
		{name: "declared debit on a credit", direction: domain.ReversalDebit, entryAmount: 3000, wantErr: domain.ErrReversalDirectionMismatch, wantBalance: 13000},
		{name: "declared credit on a debit", direction: domain.ReversalCredit, entryAmount: -2000, wantErr: domain.ErrReversalDirectionMismatch, wantBalance: 8000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger()
			l.seed(t, "acc-a", alice.UserID, 10000)

			uc := newTransferUseCase(l, nil)
			var entryID string
			if tt.entryAmount > 0 {
				res, err := uc.Deposit(context.Background(), alice, usecase.MovementInput{AccountID: "acc-a", Amount: tt.entryAmount})
				require.NoError(t, err)
				entryID = res.Transaction.ID
			} else {
				res, err := uc.Withdraw(context.Background(), alice, usecase.MovementInput{AccountID: "acc-a", Amount: -tt.entryAmount})
				require.NoError(t, err)
				entryID = res.Transaction.ID
			}

			result, err := newAdminUseCase(t, l, nil).DeleteTransaction(context.Background(), admin, usecase.DeleteTransactionInput{
				TransactionID: entryID,
				Direction:     tt.direction,
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Len(t, l.entries.All(), 2)
			} else {
				require.NoError(t, err)
				require.Len(t, result.Deleted, 1)
				require.Len(t, result.Accounts, 1)
				assert.Equal(t, tt.wantBalance, result.Accounts[0].Balance)
				assert.Len(t, l.entries.All(), 1)
			}

			assert.Equal(t, tt.wantBalance, l.balance(t, "acc-a"))
			l.requireMirrored(t, "acc-a")
		})
	}
}

func TestAdminUseCase_DeleteTransaction_WouldGoNegative(t *testing.T) {
	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 0)

	uc := newTransferUseCase(l, nil)
	deposit, err := uc.Deposit(context.Background(), alice, usecase.MovementInput{AccountID: "acc-a", Amount: 10000})
	require.NoError(t, err)
	_, err = uc.Withdraw(context.Background(), alice, usecase.MovementInput{AccountID: "acc-a", Amount: 8000})
	require.NoError(t, err)

	_, err = newAdminUseCase(t, l, nil).DeleteTransaction(context.Background(), admin, usecase.DeleteTransactionInput{
		TransactionID: deposit.Transaction.ID,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Len(t, l.entries.All(), 2)
	assert.Equal(t, domain.MinorUnits(2000), l.balance(t, "acc-a"))
	logs, _ := l.audit.List(context.Background(), domain.AuditFilter{})
	assert.Empty(t, logs, "audit rows must roll back with the delete")
}

func TestAdminUseCase_DeleteTransaction_RemovesWholeTransfer(t *testing.T) {
	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 10000)
	l.seed(t, "acc-b", alice.UserID, 0)

	transfer, err := newTransferUseCase(l, nil).Transfer(context.Background(), alice, usecase.TransferInput{
		FromAccountID: "acc-a",
		ToAccountID:   "acc-b",
		Amount:        4000,
	})
	require.NoError(t, err)

	result, err := newAdminUseCase(t, l, nil).DeleteTransaction(context.Background(), admin, usecase.DeleteTransactionInput{
		TransactionID: transfer.Debit.ID,
		Direction:     domain.ReversalDebit,
	})
	require.NoError(t, err)

	assert.Len(t, result.Deleted, 2)
	assert.Len(t, result.Accounts, 2)
	assert.Len(t, l.entries.All(), 1)
	assert.Equal(t, domain.MinorUnits(10000), l.balance(t, "acc-a"))
	assert.Equal(t, domain.MinorUnits(0), l.balance(t, "acc-b"))
	l.requireMirrored(t, "acc-a", "acc-b")

	logs, err := l.audit.List(context.Background(), domain.AuditFilter{Action: domain.AuditActionTransactionDelete})
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestAdminUseCase_DeleteTransaction_TransferCreditLegOverdrawn(t *testing.T) {
	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 10000)
	l.seed(t, "acc-b", alice.UserID, 0)

	uc := newTransferUseCase(l, nil)
	transfer, err := uc.Transfer(context.Background(), alice, usecase.TransferInput{FromAccountID: "acc-a", ToAccountID: "acc-b", Amount: 4000})
	require.NoError(t, err)
	_, err = uc.Withdraw(context.Background(), alice, usecase.MovementInput{AccountID: "acc-b", Amount: 3000})
	require.NoError(t, err)

	// Removing the pair would leave acc-b at -3000.
	_, err = newAdminUseCase(t, l, nil).DeleteTransaction(context.Background(), admin, usecase.DeleteTransactionInput{
		TransactionID: transfer.Credit.ID,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Len(t, l.entries.All(), 4)
	l.requireMirrored(t, "acc-a", "acc-b")
}

func TestAdminUseCase_DeleteTransaction_Unknown(t *testing.T) {
	l := newLedger()

	_, err := newAdminUseCase(t, l, nil).DeleteTransaction(context.Background(), admin, usecase.DeleteTransactionInput{TransactionID: "missing"})
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestAdminUseCase_UpdateTransactionTime(t *testing.T) {
	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 10000)
	uc := newAdminUseCase(t, l, nil)

	when := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
	entry, err := uc.UpdateTransactionTime(context.Background(), admin, "seed-acc-a", when)
	require.NoError(t, err)
	assert.True(t, entry.OccurredAt.Equal(when))

	stored, err := l.entries.GetByID(context.Background(), "seed-acc-a")
	require.NoError(t, err)
	assert.True(t, stored.OccurredAt.Equal(when))
	assert.Equal(t, domain.MinorUnits(10000), l.balance(t, "acc-a"))

	_, err = uc.UpdateTransactionTime(context.Background(), admin, "seed-acc-a", time.Time{})
	require.ErrorIs(t, err, domain.ErrInvalidOccurredAt)
}

func TestAdminUseCase_SetAccountStatus(t *testing.T) {
	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 500)
	uc := newAdminUseCase(t, l, nil)
	ctx := context.Background()

	account, err := uc.SetAccountStatus(ctx, admin, "acc-a", domain.AccountStatusFrozen)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusFrozen, account.Status)

	_, err = newTransferUseCase(l, nil).Deposit(ctx, alice, usecase.MovementInput{AccountID: "acc-a", Amount: 100})
	require.ErrorIs(t, err, domain.ErrAccountNotActive)

	account, err = uc.SetAccountStatus(ctx, admin, "acc-a", domain.AccountStatusClosed)
	require.NoError(t, err)
	require.NotNil(t, account.ClosedAt)

	_, err = uc.SetAccountStatus(ctx, admin, "acc-a", domain.AccountStatusActive)
	require.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = uc.SetAccountStatus(ctx, admin, "acc-a", "archived")
	require.ErrorIs(t, err, domain.ErrInvalidStatus)

	logs, err := uc.ListAuditLogs(ctx, admin, domain.AuditFilter{Action: domain.AuditActionStatusChange})
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestAdminUseCase_ListAccounts(t *testing.T) {
	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 0)
	l.seed(t, "acc-b", bob.UserID, 0)

	accounts, err := newAdminUseCase(t, l, nil).ListAccounts(context.Background(), admin, 10, 0)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}
