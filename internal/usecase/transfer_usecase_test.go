package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
	"github.com/iho/gobank/internal/usecase/mocks"
)

func newTransferUseCase(l *ledger, notifier usecase.Notifier) *usecase.TransferUseCase {
	return usecase.NewTransferUseCase(
		l.txm,
		l.accounts,
		l.entries,
		l.ids,
		mocks.NewPrefixedIDGenerator("xfer"),
		notifier,
		nil,
	)
}

func TestTransferUseCase_Deposit(t *testing.T) {
	tests := []struct {
		name        string
		actor       domain.Identity
		input       usecase.MovementInput
		setup       func(*ledger)
		wantErr     error
		wantBalance domain.MinorUnits
	}{
		{
			name:        "deposit into empty account",
			actor:       alice,
			input:       usecase.MovementInput{AccountID: "acc-a", Amount: 10000},
			wantBalance: 10000,
		},
		{
			name:        "reject zero amount",
			actor:       alice,
			input:       usecase.MovementInput{AccountID: "acc-a", Amount: 0},
			wantErr:     domain.ErrInvalidAmount,
			wantBalance: 0,
		},
		{
			name:        "reject negative amount",
			actor:       alice,
			input:       usecase.MovementInput{AccountID: "acc-a", Amount: -500},
			wantErr:     domain.ErrInvalidAmount,
			wantBalance: 0,
		},
		{
			name:        "reject anonymous caller",
			actor:       domain.Identity{},
			input:       usecase.MovementInput{AccountID: "acc-a", Amount: 100},
			wantErr:     domain.ErrUnauthorized,
			wantBalance: 0,
		},
		{
			name:        "foreign account looks missing",
			actor:       bob,
			input:       usecase.MovementInput{AccountID: "acc-a", Amount: 100},
			wantErr:     domain.ErrAccountNotFound,
			wantBalance: 0,
		},
		{
			name:  "frozen account rejects deposits",
			actor: alice,
			input: usecase.MovementInput{AccountID: "acc-a", Amount: 100},
			setup: func(l *ledger) {
				acc, _ := l.accounts.Get("acc-a")
				acc.Status = domain.AccountStatusFrozen
				l.accounts.Put(&acc)
			},
			wantErr:     domain.ErrAccountNotActive,
			wantBalance: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger()
			l.seed(t, "acc-a", alice.UserID, 0)
			if tt.setup != nil {
				tt.setup(l)
			}

			result, err := newTransferUseCase(l, nil).Deposit(context.Background(), tt.actor, tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantBalance, result.Account.Balance)
				assert.Equal(t, domain.CategoryDeposit, result.Transaction.Category)
				assert.Equal(t, domain.CategoryDeposit, result.Transaction.Description)
			}

			assert.Equal(t, tt.wantBalance, l.balance(t, "acc-a"))
			l.requireMirrored(t, "acc-a")
		})
	}
}

func TestTransferUseCase_Withdraw(t *testing.T) {
	tests := []struct {
		name        string
		amount      domain.MinorUnits
		wantErr     error
		wantBalance domain.MinorUnits
		wantEntries int
	}{
		{name: "partial withdrawal", amount: 4000, wantBalance: 6000, wantEntries: 2},
		{name: "withdraw entire balance", amount: 10000, wantBalance: 0, wantEntries: 2},
		{name: "overdraw is rejected", amount: 10001, wantErr: domain.ErrInsufficientFunds, wantBalance: 10000, wantEntries: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger()
			l.seed(t, "acc-a", alice.UserID, 10000)

			result, err := newTransferUseCase(l, nil).Withdraw(context.Background(), alice, usecase.MovementInput{
				AccountID: "acc-a",
				Amount:    tt.amount,
				Memo:      "ATM",
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, -tt.amount, result.Transaction.Amount)
				assert.Equal(t, "ATM", result.Transaction.Description)
				assert.Equal(t, domain.CategoryWithdrawal, result.Transaction.Category)
			}

			assert.Equal(t, tt.wantBalance, l.balance(t, "acc-a"))
			assert.Len(t, l.entries.All(), tt.wantEntries)
			l.requireMirrored(t, "acc-a")
		})
	}
}

func TestTransferUseCase_Withdraw_RecomputesStaleBalance(t *testing.T) {
	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 5000)

	// The stored balance claims more money than the entries support.
	acc, _ := l.accounts.Get("acc-a")
	acc.Balance = 50000
	l.accounts.Put(&acc)

	_, err := newTransferUseCase(l, nil).Withdraw(context.Background(), alice, usecase.MovementInput{AccountID: "acc-a", Amount: 6000})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	result, err := newTransferUseCase(l, nil).Withdraw(context.Background(), alice, usecase.MovementInput{AccountID: "acc-a", Amount: 1000})
	require.NoError(t, err)
	assert.Equal(t, domain.MinorUnits(4000), result.Account.Balance)
	l.requireMirrored(t, "acc-a")
}

func TestTransferUseCase_Transfer(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)

	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 10000)
	l.seed(t, "acc-b", alice.UserID, 0)

	var delivered *domain.Notification
	notifier.EXPECT().
		Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n *domain.Notification) error {
			delivered = n
			return nil
		})

	result, err := newTransferUseCase(l, notifier).Transfer(context.Background(), alice, usecase.TransferInput{
		FromAccountID: "acc-a",
		ToAccountID:   "acc-b",
		Amount:        2550,
		Memo:          "rent",
	})
	require.NoError(t, err)

	assert.Equal(t, "xfer-000001", result.TransferID)
	assert.Equal(t, domain.MinorUnits(7450), result.From.Balance)
	assert.Equal(t, domain.MinorUnits(2550), result.To.Balance)
	require.NoError(t, domain.ValidateTransferPair(result.Debit, result.Credit))
	assert.True(t, strings.HasPrefix(result.Debit.Description, "Transfer to Account acc-b"))
	assert.True(t, strings.HasSuffix(result.Credit.Description, ": rent"))

	assert.Equal(t, domain.MinorUnits(7450), l.balance(t, "acc-a"))
	assert.Equal(t, domain.MinorUnits(2550), l.balance(t, "acc-b"))
	l.requireMirrored(t, "acc-a", "acc-b")

	require.NotNil(t, delivered)
	assert.Equal(t, alice.UserID, delivered.UserID)
	assert.Equal(t, domain.NotificationTransferCompleted, delivered.Kind)
	assert.Contains(t, delivered.Body, "$25.50")
}

func TestTransferUseCase_Transfer_MultibyteMemoStaysValidUTF8(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)

	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 10000)
	l.seed(t, "acc-b", alice.UserID, 0)

	memo := strings.Repeat("é", 120)
	require.NoError(t, domain.ValidateMemo(memo))

	result, err := newTransferUseCase(l, notifier).Transfer(context.Background(), alice, usecase.TransferInput{
		FromAccountID: "acc-a",
		ToAccountID:   "acc-b",
		Amount:        100,
		Memo:          memo,
	})
	require.NoError(t, err)

	for _, entry := range []*domain.Transaction{result.Debit, result.Credit} {
		assert.True(t, utf8.ValidString(entry.Description), "description %q", entry.Description)
		assert.LessOrEqual(t, len(entry.Description), domain.MaxDescriptionLength)
	}
}

func TestTransferUseCase_Transfer_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		actor   domain.Identity
		input   usecase.TransferInput
		wantErr error
	}{
		{
			name:    "same account",
			actor:   alice,
			input:   usecase.TransferInput{FromAccountID: "acc-a", ToAccountID: "acc-a", Amount: 100},
			wantErr: domain.ErrSameAccount,
		},
		{
			name:    "insufficient funds",
			actor:   alice,
			input:   usecase.TransferInput{FromAccountID: "acc-a", ToAccountID: "acc-b", Amount: 10001},
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name:    "destination owned by someone else",
			actor:   alice,
			input:   usecase.TransferInput{FromAccountID: "acc-a", ToAccountID: "acc-c", Amount: 100},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "source owned by someone else",
			actor:   bob,
			input:   usecase.TransferInput{FromAccountID: "acc-a", ToAccountID: "acc-c", Amount: 100},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "unknown destination",
			actor:   alice,
			input:   usecase.TransferInput{FromAccountID: "acc-a", ToAccountID: "acc-z", Amount: 100},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "missing destination",
			actor:   alice,
			input:   usecase.TransferInput{FromAccountID: "acc-a", Amount: 100},
			wantErr: domain.ErrMissingAccount,
		},
		{
			name:    "amount over maximum",
			actor:   alice,
			input:   usecase.TransferInput{FromAccountID: "acc-a", ToAccountID: "acc-b", Amount: domain.MaxAmount + 1},
			wantErr: domain.ErrAmountTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger()
			l.seed(t, "acc-a", alice.UserID, 10000)
			l.seed(t, "acc-b", alice.UserID, 0)
			l.seed(t, "acc-c", bob.UserID, 0)

			_, err := newTransferUseCase(l, nil).Transfer(context.Background(), tt.actor, tt.input)
			require.ErrorIs(t, err, tt.wantErr)

			assert.Len(t, l.entries.All(), 1)
			assert.Equal(t, domain.MinorUnits(10000), l.balance(t, "acc-a"))
			l.requireMirrored(t, "acc-a", "acc-b", "acc-c")
		})
	}
}

func TestTransferUseCase_Transfer_RollsBackOnSecondLegFailure(t *testing.T) {
	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 10000)
	l.seed(t, "acc-b", alice.UserID, 0)

	writeErr := errors.New("disk full")
	calls := 0
	l.entries.BeforeCreate = func(*domain.Transaction) error {
		calls++
		if calls == 2 {
			return writeErr
		}
		return nil
	}

	_, err := newTransferUseCase(l, nil).Transfer(context.Background(), alice, usecase.TransferInput{
		FromAccountID: "acc-a",
		ToAccountID:   "acc-b",
		Amount:        500,
	})
	require.ErrorIs(t, err, writeErr)

	// The first leg must not survive without its pair.
	assert.Len(t, l.entries.All(), 1)
	assert.Equal(t, domain.MinorUnits(10000), l.balance(t, "acc-a"))
	assert.Equal(t, domain.MinorUnits(0), l.balance(t, "acc-b"))
	assert.Equal(t, 1, l.txm.Rollbacks)
}

func TestTransferUseCase_ConcurrentWithdrawals(t *testing.T) {
	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 10000)
	uc := newTransferUseCase(l, nil)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Withdraw(context.Background(), alice, usecase.MovementInput{AccountID: "acc-a", Amount: 8000})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientFunds):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)
	assert.Equal(t, domain.MinorUnits(2000), l.balance(t, "acc-a"))
	l.requireMirrored(t, "acc-a")
}

func TestTransferUseCase_ConcurrentOpposingTransfers(t *testing.T) {
	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 5000)
	l.seed(t, "acc-b", alice.UserID, 5000)
	uc := newTransferUseCase(l, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		from, to := "acc-a", "acc-b"
		if i%2 == 1 {
			from, to = to, from
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = uc.Transfer(context.Background(), alice, usecase.TransferInput{FromAccountID: from, ToAccountID: to, Amount: 700})
		}()
	}
	wg.Wait()

	assert.Equal(t, domain.MinorUnits(10000), l.balance(t, "acc-a")+l.balance(t, "acc-b"))
	assert.GreaterOrEqual(t, l.balance(t, "acc-a"), domain.MinorUnits(0))
	assert.GreaterOrEqual(t, l.balance(t, "acc-b"), domain.MinorUnits(0))
	l.requireMirrored(t, "acc-a", "acc-b")
}

func TestTransferUseCase_ExternalTransfer(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	notifier.EXPECT().
		Notify(gomock.Any(), gomock.Any()).
		Return(errors.New("smtp unavailable"))

	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 10000)

	result, err := newTransferUseCase(l, notifier).ExternalTransfer(context.Background(), alice, usecase.ExternalTransferInput{
		FromAccountID: "acc-a",
		Amount:        1234,
		Recipient: usecase.Recipient{
			Name:          "Jane Roe",
			BankName:      "First Bank",
			AccountNumber: "987654321000",
		},
		Memo: "invoice 7",
	})
	// Delivery failures never undo the ledger change.
	require.NoError(t, err)

	assert.Equal(t, "Transfer to Jane Roe at First Bank (****1000): invoice 7", result.Transaction.Description)
	assert.Equal(t, domain.CategoryExternalTransfer, result.Transaction.Category)
	assert.Empty(t, result.Transaction.TransferID)
	assert.Equal(t, domain.MinorUnits(8766), l.balance(t, "acc-a"))
	assert.Len(t, l.entries.All(), 2)
}

func TestTransferUseCase_ExternalTransfer_RequiresRecipient(t *testing.T) {
	l := newLedger()
	l.seed(t, "acc-a", alice.UserID, 10000)

	_, err := newTransferUseCase(l, nil).ExternalTransfer(context.Background(), alice, usecase.ExternalTransferInput{
		FromAccountID: "acc-a",
		Amount:        100,
		Recipient:     usecase.Recipient{Name: "Jane Roe"},
	})
	require.ErrorIs(t, err, domain.ErrInvalidRecipient)
	assert.Len(t, l.entries.All(), 1)
}
