package domain

import (
	"strings"
	"time"
)

// Ledger entry categories.
const (
	CategoryDeposit          = "Deposit"
	CategoryWithdrawal       = "Withdrawal"
	CategoryTransfer         = "Transfer"
	CategoryExternalTransfer = "External Transfer"
	CategoryAdminCredit      = "Admin Credit"
	CategoryAdminDebit       = "Admin Debit"
)

// Transaction is one signed movement against one account. Positive amounts
// are inflows. Entries that share a TransferID form one internal transfer.
type Transaction struct {
	ID          string
	AccountID   string
	Amount      MinorUnits
	Description string
	Category    string
	OccurredAt  time.Time
	TransferID  string
	CreatedAt   time.Time
}

// IsCredit reports whether the entry added money to its account.
func (t *Transaction) IsCredit() bool {
	return t.Amount > 0
}

// IsTransferLeg reports whether the entry is half of an internal transfer.
func (t *Transaction) IsTransferLeg() bool {
	return t.TransferID != ""
}

// Validate checks the entry before it is written.
func (t *Transaction) Validate() error {
	if t.AccountID == "" {
		return ErrMissingAccount
	}
	if t.Amount == 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrInvalidCategory
	}
	if len(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// ValidateTransferPair checks that two entries form a well-formed transfer.
func ValidateTransferPair(a, b *Transaction) error {
	if a.TransferID == "" || a.TransferID != b.TransferID {
		return ErrTransferPairMismatch
	}
	if a.AccountID == b.AccountID {
		return ErrTransferPairMismatch
	}
	if a.Amount != -b.Amount || a.Amount == 0 {
		return ErrTransferPairMismatch
	}
	return nil
}

// ReversalDirection is the semantic direction an admin declares when
// deleting an entry.
type ReversalDirection string

const (
	ReversalAuto   ReversalDirection = ""
	ReversalCredit ReversalDirection = "credit"
	ReversalDebit  ReversalDirection = "debit"
	ReversalNone   ReversalDirection = "none"
)

// ParseReversalDirection normalizes caller input.
func ParseReversalDirection(s string) (ReversalDirection, error) {
	switch d := ReversalDirection(strings.ToLower(strings.TrimSpace(s))); d {
	case ReversalAuto, ReversalCredit, ReversalDebit, ReversalNone:
		return d, nil
	}
	return "", ErrInvalidReversalDirection
}

// CheckReversal verifies a declared direction against the stored sign.
// The stored sign decides; a declaration that disagrees with it is rejected.
func (t *Transaction) CheckReversal(d ReversalDirection) error {
	switch d {
	case ReversalCredit:
		if !t.IsCredit() {
			return ErrReversalDirectionMismatch
		}
	case ReversalDebit:
		if t.IsCredit() {
			return ErrReversalDirectionMismatch
		}
	}
	return nil
}

// TransactionFilter narrows a transaction search. A zero Limit returns
// every match.
type TransactionFilter struct {
	AccountIDs []string
	Category   string
	Query      string
	From       *time.Time
	To         *time.Time
	MinAmount  *MinorUnits
	MaxAmount  *MinorUnits
	Limit      int
	Offset     int
}
