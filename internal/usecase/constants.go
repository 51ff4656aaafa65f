package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds how long a ledger transaction may
	// hold row locks.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// LinkTokenTTL is how long an issued link token stays valid.
	LinkTokenTTL = 30 * time.Minute

	// RecentTransactionsLimit is the number of entries shown on the dashboard.
	RecentTransactionsLimit = 10
)

// Operation names used for metrics and logs.
const (
	OpDeposit          = "deposit"
	OpWithdraw         = "withdraw"
	OpTransfer         = "transfer"
	OpExternalTransfer = "external_transfer"
	OpOpenAccount      = "open_account"
	OpAdminCredit      = "admin_credit"
	OpAdminDebit       = "admin_debit"
	OpDeleteEntry      = "delete_entry"
)
