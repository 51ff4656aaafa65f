package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

const transactionColumns = `id, account_id, amount_cents, description, category, occurred_at, transfer_id, created_at`

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	db DB
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts an entry inside tx.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		txn.ID,
		txn.AccountID,
		int64(txn.Amount),
		txn.Description,
		txn.Category,
		txn.OccurredAt,
		nullString(txn.TransferID),
		txn.CreatedAt,
	)

	return translateError(err, nil)
}

// GetByID retrieves an entry by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	txn, err := scanTransaction(row)
	return txn, translateError(err, domain.ErrTransactionNotFound)
}

// GetByIDForUpdate retrieves an entry by ID and locks it.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	row := q.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
	txn, err := scanTransaction(row)
	return txn, translateError(err, domain.ErrTransactionNotFound)
}

// GetByTransferIDForUpdate locks every entry sharing a transfer id.
func (r *TransactionRepository) GetByTransferIDForUpdate(ctx context.Context, tx usecase.Transaction, transferID string) ([]*domain.Transaction, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE transfer_id = $1
		ORDER BY id
		FOR UPDATE`, transferID)
	if err != nil {
		return nil, translateError(err, nil)
	}

	return collectTransactions(rows)
}

// Delete removes an entry.
func (r *TransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return translateError(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// UpdateOccurredAt changes when an entry occurred.
func (r *TransactionRepository) UpdateOccurredAt(ctx context.Context, tx usecase.Transaction, id string, occurredAt time.Time) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `UPDATE transactions SET occurred_at = $2 WHERE id = $1`, id, occurredAt)
	if err != nil {
		return translateError(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// SumByAccount returns the sum of the account's entries as seen by tx.
func (r *TransactionRepository) SumByAccount(ctx context.Context, tx usecase.Transaction, accountID string) (domain.MinorUnits, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return 0, err
	}

	var sum int64
	err = q.QueryRow(ctx, `SELECT COALESCE(SUM(amount_cents), 0)::bigint FROM transactions WHERE account_id = $1`, accountID).Scan(&sum)
	if err != nil {
		return 0, translateError(err, nil)
	}

	return domain.MinorUnits(sum), nil
}

// ListByAccount returns every entry for the account, oldest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE account_id = $1
		ORDER BY occurred_at, id`, accountID)
	if err != nil {
		return nil, translateError(err, nil)
	}

	return collectTransactions(rows)
}

// Search returns entries matching filter, newest first. Amount bounds
// apply to the absolute amount.
func (r *TransactionRepository) Search(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	var c conditions

	if len(filter.AccountIDs) > 0 {
		c.add("account_id = ANY(?)", filter.AccountIDs)
	}
	if filter.Category != "" {
		c.add("category = ?", filter.Category)
	}
	if filter.Query != "" {
		c.add("description ILIKE '%' || ?::text || '%'", escapeLike(filter.Query))
	}
	if filter.From != nil {
		c.add("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		c.add("occurred_at <= ?", *filter.To)
	}
	if filter.MinAmount != nil {
		c.add("ABS(amount_cents) >= ?", int64(*filter.MinAmount))
	}
	if filter.MaxAmount != nil {
		c.add("ABS(amount_cents) <= ?", int64(*filter.MaxAmount))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions` + c.where() +
		` ORDER BY occurred_at DESC, id DESC` + c.page(filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, c.args...)
	if err != nil {
		return nil, translateError(err, nil)
	}

	return collectTransactions(rows)
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t          domain.Transaction
		amount     int64
		transferID *string
	)

	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&amount,
		&t.Description,
		&t.Category,
		&t.OccurredAt,
		&transferID,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Amount = domain.MinorUnits(amount)
	if transferID != nil {
		t.TransferID = *transferID
	}
	return &t, nil
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	defer rows.Close()

	txns := make([]*domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}

	return txns, translateError(rows.Err(), nil)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
