package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase/mocks"
)

var (
	alice = domain.Identity{UserID: "user-alice", Email: "alice@example.com", Role: domain.RoleCustomer}
	bob   = domain.Identity{UserID: "user-bob", Email: "bob@example.com", Role: domain.RoleCustomer}
	admin = domain.Identity{UserID: "user-admin", Email: "admin@example.com", Role: domain.RoleAdmin}
)

// ledger wires the in-memory stores behind one rollback-aware transaction manager.
type ledger struct {
	accounts *mocks.MockAccountRepository
	entries  *mocks.MockTransactionRepository
	audit    *mocks.MockAuditRepository
	txm      *mocks.MockTransactionManager
	ids      *mocks.MockIDGenerator
}

func newLedger() *ledger {
	l := &ledger{
		accounts: mocks.NewMockAccountRepository(),
		entries:  mocks.NewMockTransactionRepository(),
		audit:    mocks.NewMockAuditRepository(),
		ids:      mocks.NewMockIDGenerator(),
	}
	l.txm = mocks.NewMockTransactionManager(l.accounts, l.entries, l.audit)
	return l
}

// seed stores an account whose opening balance is backed by a deposit
// entry so recomputation agrees with it.
func (l *ledger) seed(t *testing.T, id, owner string, balance domain.MinorUnits) *domain.Account {
	t.Helper()

	now := time.Now().UTC()
	acc := &domain.Account{
		ID:        id,
		UserID:    owner,
		Name:      "Account " + id,
		Type:      domain.AccountTypeChecking,
		Number:    "4" + id[len(id)-1:] + "000000" + "1234",
		Currency:  domain.DefaultCurrency,
		Balance:   balance,
		Status:    domain.AccountStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	l.accounts.Put(acc)

	if balance != 0 {
		l.entries.Put(&domain.Transaction{
			ID:          "seed-" + id,
			AccountID:   id,
			Amount:      balance,
			Description: "Opening deposit",
			Category:    domain.CategoryDeposit,
			OccurredAt:  now.Add(-time.Hour),
			CreatedAt:   now.Add(-time.Hour),
		})
	}

	return acc
}

func (l *ledger) balance(t *testing.T, id string) domain.MinorUnits {
	t.Helper()
	acc, ok := l.accounts.Get(id)
	require.True(t, ok, "account %s missing", id)
	return acc.Balance
}

// requireMirrored asserts every stored balance equals the sum of its entries.
func (l *ledger) requireMirrored(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.Equal(t, l.entries.Sum(id), l.balance(t, id), "account %s balance drifted from its entries", id)
	}
}
