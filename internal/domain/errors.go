package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound        = errors.New("account not found")
	ErrAccountNotActive       = errors.New("account is not active")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidAccountNumber   = errors.New("account number must be 12 digits with a non-zero first digit")
	ErrAccountNumberExhausted = errors.New("could not allocate a unique account number")
	ErrAccountNumberTaken     = errors.New("account number already assigned")
	ErrInvalidAccountType     = errors.New("invalid account type")
	ErrInvalidStatus          = errors.New("invalid account status transition")

	// Ledger entry errors
	ErrTransactionNotFound       = errors.New("transaction not found")
	ErrInvalidAmount             = errors.New("amount must be positive")
	ErrMissingAccount            = errors.New("account reference is required")
	ErrInvalidCategory           = errors.New("category is required")
	ErrDescriptionTooLong        = errors.New("description is too long")
	ErrInvalidReversalDirection  = errors.New("direction must be credit, debit or none")
	ErrReversalDirectionMismatch = errors.New("declared direction does not match the entry amount")
	ErrTransferPairMismatch      = errors.New("transfer entries are not a matching pair")
	ErrInvalidOccurredAt         = errors.New("occurrence time is required")

	// Transfer errors
	ErrSameAccount       = errors.New("cannot transfer to same account")
	ErrInvalidRecipient  = errors.New("recipient name, bank and account number are required")
	ErrInconsistentState = errors.New("ledger is inconsistent")

	// Concurrency errors
	ErrConflict = errors.New("concurrent modification, please retry")

	// Notification and linking errors
	ErrNotificationNotFound = errors.New("notification not found")
	ErrLinkProvider         = errors.New("account linking provider unavailable")
	ErrInvalidPublicToken   = errors.New("invalid public token")
)
