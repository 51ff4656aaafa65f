package domain

import "time"

// Notification kinds.
const (
	NotificationTransferCompleted = "transfer.completed"
	NotificationCreditApplied     = "credit.applied"
	NotificationDebitApplied      = "debit.applied"
)

// Notification is a message addressed to one user.
type Notification struct {
	ID        string
	UserID    string
	Kind      string
	Title     string
	Body      string
	Read      bool
	CreatedAt time.Time
}

// LinkedItem is an external institution connection created through the
// account-linking provider. The access token is stored only.
type LinkedItem struct {
	ID          string
	UserID      string
	ItemID      string
	AccessToken string
	CreatedAt   time.Time
}
