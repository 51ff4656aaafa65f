package postgres

import (
	"context"

	"github.com/iho/gobank/internal/domain"
)

// LinkedItemRepository implements usecase.LinkedItemRepository.
type LinkedItemRepository struct {
	db DB
}

// NewLinkedItemRepository creates a new LinkedItemRepository.
func NewLinkedItemRepository(db DB) *LinkedItemRepository {
	return &LinkedItemRepository{db: db}
}

// Create stores a linked institution. Relinking the same item replaces its
// access token.
func (r *LinkedItemRepository) Create(ctx context.Context, item *domain.LinkedItem) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO linked_items (id, user_id, item_id, access_token, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, item_id) DO UPDATE SET access_token = EXCLUDED.access_token`,
		item.ID, item.UserID, item.ItemID, item.AccessToken, item.CreatedAt,
	)
	return translateError(err, nil)
}

// ListByUser returns a user's linked institutions.
func (r *LinkedItemRepository) ListByUser(ctx context.Context, userID string) ([]*domain.LinkedItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, item_id, access_token, created_at
		FROM linked_items
		WHERE user_id = $1
		ORDER BY created_at`, userID)
	if err != nil {
		return nil, translateError(err, nil)
	}
	defer rows.Close()

	out := make([]*domain.LinkedItem, 0)
	for rows.Next() {
		var item domain.LinkedItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.ItemID, &item.AccessToken, &item.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &item)
	}

	return out, translateError(rows.Err(), nil)
}
