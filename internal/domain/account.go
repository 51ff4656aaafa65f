package domain

import (
	"fmt"
	"time"
)

// AccountType classifies a customer account.
type AccountType string

const (
	AccountTypeChecking    AccountType = "checking"
	AccountTypeSavings     AccountType = "savings"
	AccountTypeMoneyMarket AccountType = "money_market"
)

// IsValid reports whether t is a known account type.
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeMoneyMarket:
		return true
	}
	return false
}

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	AccountStatusFrozen AccountStatus = "frozen"
	AccountStatusClosed AccountStatus = "closed"
)

// IsValid reports whether s is a known status.
func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountStatusActive, AccountStatusFrozen, AccountStatusClosed:
		return true
	}
	return false
}

// AccountNumberLength is the number of digits in an external account number.
const AccountNumberLength = 12

// Account is a customer account. Balance mirrors the sum of the account's
// ledger entries and is only written inside the transaction that changes
// those entries.
type Account struct {
	ID        string
	UserID    string
	Name      string
	Type      AccountType
	Number    string
	Currency  string
	Balance   MinorUnits
	Status    AccountStatus
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
}

// OwnedBy reports whether the account belongs to userID.
func (a *Account) OwnedBy(userID string) bool {
	return userID != "" && a.UserID == userID
}

// EnsureActive rejects customer-initiated movements on frozen or closed accounts.
func (a *Account) EnsureActive() error {
	if a.Status != AccountStatusActive {
		return fmt.Errorf("%w: account is %s", ErrAccountNotActive, a.Status)
	}
	return nil
}

// EnsureOpen rejects movements on closed accounts.
func (a *Account) EnsureOpen() error {
	if a.Status == AccountStatusClosed {
		return fmt.Errorf("%w: account is closed", ErrAccountNotActive)
	}
	return nil
}

// ValidateDebit checks that removing amount keeps the balance non-negative.
func (a *Account) ValidateDebit(amount MinorUnits) error {
	if a.Balance-amount < 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// CanTransition reports whether an administrator may move the account to next.
func (a *Account) CanTransition(next AccountStatus) bool {
	if !next.IsValid() || a.Status == AccountStatusClosed {
		return false
	}
	return a.Status != next
}

// ValidateAccountNumber checks the 12-digit, non-zero-leading format.
func ValidateAccountNumber(number string) error {
	if len(number) != AccountNumberLength || number[0] == '0' {
		return ErrInvalidAccountNumber
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return ErrInvalidAccountNumber
		}
	}
	return nil
}

// MaskedNumber returns the account number with all but the last four digits hidden.
func (a *Account) MaskedNumber() string {
	return MaskAccountNumber(a.Number)
}

// MaskAccountNumber hides all but the last four characters of number.
func MaskAccountNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return "****" + number[len(number)-4:]
}
