package postgres

import (
	"context"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db DB
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// BalanceMismatches lists accounts whose stored balance differs from the
// sum of their entries.
func (r *LedgerRepository) BalanceMismatches(ctx context.Context) ([]usecase.BalanceMismatch, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.id, a.balance_cents, COALESCE(SUM(t.amount_cents), 0)::bigint AS computed
		FROM accounts a
		LEFT JOIN transactions t ON t.account_id = a.id
		GROUP BY a.id, a.balance_cents
		HAVING a.balance_cents <> COALESCE(SUM(t.amount_cents), 0)
		ORDER BY a.id`)
	if err != nil {
		return nil, translateError(err, nil)
	}
	defer rows.Close()

	mismatches := make([]usecase.BalanceMismatch, 0)
	for rows.Next() {
		var (
			m                  usecase.BalanceMismatch
			recorded, computed int64
		)
		if err := rows.Scan(&m.AccountID, &recorded, &computed); err != nil {
			return nil, err
		}
		m.Recorded = domain.MinorUnits(recorded)
		m.Computed = domain.MinorUnits(computed)
		mismatches = append(mismatches, m)
	}

	return mismatches, translateError(rows.Err(), nil)
}

// BrokenTransfers lists transfer ids that are not exactly one pair of
// opposite entries on two distinct accounts.
func (r *LedgerRepository) BrokenTransfers(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT transfer_id
		FROM transactions
		WHERE transfer_id IS NOT NULL
		GROUP BY transfer_id
		HAVING COUNT(*) <> 2
		    OR SUM(amount_cents) <> 0
		    OR COUNT(DISTINCT account_id) <> 2
		ORDER BY transfer_id`)
	if err != nil {
		return nil, translateError(err, nil)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, translateError(rows.Err(), nil)
}

// ComputedBalance returns the sum of an account's entries.
func (r *LedgerRepository) ComputedBalance(ctx context.Context, accountID string) (domain.MinorUnits, error) {
	var (
		exists bool
		sum    int64
	)
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1),
		       COALESCE((SELECT SUM(amount_cents) FROM transactions WHERE account_id = $1), 0)::bigint`,
		accountID,
	).Scan(&exists, &sum)
	if err != nil {
		return 0, translateError(err, nil)
	}
	if !exists {
		return 0, domain.ErrAccountNotFound
	}

	return domain.MinorUnits(sum), nil
}
