package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// poster writes ledger entries and keeps each account's balance equal to
// the sum of its entries. The balance is always recomputed from the
// entries after a change; it is never incremented in place.
type poster struct {
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	idGen       IDGenerator
}

// lock acquires row locks on the given accounts in ascending id order and
// refreshes each balance from the ledger as seen inside tx.
func (p *poster) lock(ctx context.Context, tx Transaction, ids ...string) (map[string]*domain.Account, error) {
	unique := sortedUnique(ids)

	accounts, err := p.accountRepo.GetByIDsForUpdate(ctx, tx, unique)
	if err != nil {
		return nil, err
	}
	if len(accounts) != len(unique) {
		return nil, domain.ErrAccountNotFound
	}

	byID := make(map[string]*domain.Account, len(accounts))
	for _, acc := range accounts {
		sum, err := p.txnRepo.SumByAccount(ctx, tx, acc.ID)
		if err != nil {
			return nil, err
		}
		acc.Balance = sum
		byID[acc.ID] = acc
	}

	return byID, nil
}

// post inserts one entry. The caller must hold the account lock.
func (p *poster) post(ctx context.Context, tx Transaction, entry *domain.Transaction, now time.Time) error {
	if entry.ID == "" {
		entry.ID = p.idGen.Generate()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = now
	}
	entry.CreatedAt = now

	if err := entry.Validate(); err != nil {
		return err
	}

	return p.txnRepo.Create(ctx, tx, entry)
}

// sync recomputes the balance of account from its entries and stores it.
// A negative result fails the whole unit.
func (p *poster) sync(ctx context.Context, tx Transaction, account *domain.Account, now time.Time) error {
	sum, err := p.txnRepo.SumByAccount(ctx, tx, account.ID)
	if err != nil {
		return err
	}
	if sum < 0 {
		return domain.ErrInsufficientFunds
	}

	if err := p.accountRepo.UpdateBalance(ctx, tx, account.ID, sum, now); err != nil {
		return err
	}

	account.Balance = sum
	account.UpdatedAt = now
	account.Version++

	return nil
}

func sortedUnique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// notify hands n to the notifier after commit. Delivery failures are
// logged and counted, never returned.
func notify(ctx context.Context, notifier Notifier, m *metrics.Metrics, n *domain.Notification) {
	if notifier == nil {
		return
	}

	if err := notifier.Notify(ctx, n); err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("user_id", n.UserID).
			Str("kind", n.Kind).
			Msg("notification delivery failed")
		if m != nil {
			m.NotificationsFailures.WithLabelValues(n.Kind).Inc()
		}
		return
	}

	if m != nil {
		m.NotificationsSent.WithLabelValues(n.Kind).Inc()
	}
}

// errorReason maps an error to a low-cardinality metrics label.
func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrTransactionNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
		return "unauthorized"
	case errors.Is(err, domain.ErrAccountNotActive):
		return "inactive"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "other"
	}
}
