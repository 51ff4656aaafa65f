package domain

import (
	"encoding/json"
	"time"
)

// AuditLog records an administrative ledger action.
type AuditLog struct {
	ID           string
	UserID       string // Admin who performed the action
	Action       AuditAction
	ResourceType string // account or transaction
	ResourceID   string
	RequestID    string
	BeforeState  JSON
	AfterState   JSON
	CreatedAt    time.Time
}

// JSON is free-form audit state
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionAdminCredit       AuditAction = "account.credit"
	AuditActionAdminDebit        AuditAction = "account.debit"
	AuditActionStatusChange      AuditAction = "account.status"
	AuditActionTransactionEdit   AuditAction = "transaction.edit"
	AuditActionTransactionDelete AuditAction = "transaction.delete"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	UserID       string
	Action       AuditAction
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}
