package usecase

import (
	"context"
	"time"

	"github.com/iho/gobank/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	CreateTx(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	// GetByIDsForUpdate locks the rows in ascending id order.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance domain.MinorUnits, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.AccountStatus, closedAt *time.Time, updatedAt time.Time) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// TransactionRepository defines data access for ledger entries.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Transaction, error)
	GetByTransferIDForUpdate(ctx context.Context, tx Transaction, transferID string) ([]*domain.Transaction, error)
	Delete(ctx context.Context, tx Transaction, id string) error
	UpdateOccurredAt(ctx context.Context, tx Transaction, id string, occurredAt time.Time) error
	// SumByAccount returns the sum of all entry amounts for the account as
	// seen by tx.
	SumByAccount(ctx context.Context, tx Transaction, accountID string) (domain.MinorUnits, error)
	// ListByAccount returns every entry for the account ordered by
	// occurrence time ascending.
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Transaction, error)
	Search(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
}

// BalanceMismatch is an account whose stored balance disagrees with its entries.
type BalanceMismatch struct {
	AccountID string
	Recorded  domain.MinorUnits
	Computed  domain.MinorUnits
}

// LedgerRepository defines data access for ledger-wide checks.
type LedgerRepository interface {
	BalanceMismatches(ctx context.Context) ([]BalanceMismatch, error)
	// BrokenTransfers returns transfer ids that do not have exactly two
	// entries with opposite amounts on distinct accounts.
	BrokenTransfers(ctx context.Context) ([]string, error)
	ComputedBalance(ctx context.Context, accountID string) (domain.MinorUnits, error)
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// NotificationRepository stores notifications for users.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}

// LinkedItemRepository stores external account links.
type LinkedItemRepository interface {
	Create(ctx context.Context, item *domain.LinkedItem) error
	ListByUser(ctx context.Context, userID string) ([]*domain.LinkedItem, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation on errors the implementation deems transient.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Notifier delivers a notification. Callers never roll back on failure.
type Notifier interface {
	Notify(ctx context.Context, n *domain.Notification) error
}

// AdminAuthorizer decides whether an identity may adjust the ledger directly.
type AdminAuthorizer interface {
	IsAdmin(ctx context.Context, identity domain.Identity) (bool, error)
}

// LinkProvider is the external account aggregator.
type LinkProvider interface {
	CreateLinkToken(ctx context.Context, userID string) (token string, expiresAt time.Time, err error)
	ExchangePublicToken(ctx context.Context, publicToken string) (accessToken, itemID string, err error)
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claim so the request can be retried.
	Release(ctx context.Context, key string) error
}
