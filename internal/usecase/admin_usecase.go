package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// AdminUseCase performs manual ledger adjustments on any account. Every
// method consults the AdminAuthorizer before touching data and writes an
// audit record in the same transaction as the change.
type AdminUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	auditRepo   AuditRepository
	poster      *poster
	authorizer  AdminAuthorizer
	notifier    Notifier
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewAdminUseCase creates a new AdminUseCase.
func NewAdminUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	auditRepo AuditRepository,
	authorizer AdminAuthorizer,
	notifier Notifier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *AdminUseCase {
	return &AdminUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		auditRepo:   auditRepo,
		poster:      &poster{accountRepo: accountRepo, txnRepo: txnRepo, idGen: idGen},
		authorizer:  authorizer,
		notifier:    notifier,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// AdjustmentInput is an administrative credit or debit.
type AdjustmentInput struct {
	AccountID string
	Amount    domain.MinorUnits
	Memo      string
}

// DeleteTransactionInput selects an entry to remove. Direction is optional;
// when given as credit or debit it must agree with the stored amount.
// ReversalNone behaves like ReversalAuto: the balance is always recomputed
// from the remaining entries, so deleting an entry cannot leave the balance
// unchanged.
type DeleteTransactionInput struct {
	TransactionID string
	Direction     domain.ReversalDirection
}

// DeleteResult lists the removed entries and the accounts they affected.
type DeleteResult struct {
	Deleted  []*domain.Transaction
	Accounts []*domain.Account
}

// Credit adds money to any account.
func (uc *AdminUseCase) Credit(ctx context.Context, actor domain.Identity, input AdjustmentInput) (*PostingResult, error) {
	return uc.adjust(ctx, actor, input, OpAdminCredit)
}

// Debit removes money from any account. The account must hold at least
// the requested amount.
func (uc *AdminUseCase) Debit(ctx context.Context, actor domain.Identity, input AdjustmentInput) (*PostingResult, error) {
	return uc.adjust(ctx, actor, input, OpAdminDebit)
}

func (uc *AdminUseCase) adjust(ctx context.Context, actor domain.Identity, input AdjustmentInput, op string) (result *PostingResult, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			uc.metrics.ObserveError(op, errorReason(err))
		}
	}()

	if err := uc.authorize(ctx, actor); err != nil {
		return nil, err
	}
	if input.AccountID == "" {
		return nil, domain.ErrMissingAccount
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateMemo(input.Memo); err != nil {
		return nil, err
	}

	amount, category, action := input.Amount, domain.CategoryAdminCredit, domain.AuditActionAdminCredit
	if op == OpAdminDebit {
		amount, category, action = -input.Amount, domain.CategoryAdminDebit, domain.AuditActionAdminDebit
	}

	description := input.Memo
	if description == "" {
		description = category
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	accounts, err := uc.poster.lock(txCtx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}
	account := accounts[input.AccountID]

	if err := account.EnsureOpen(); err != nil {
		return nil, err
	}
	if amount < 0 {
		if err := account.ValidateDebit(input.Amount); err != nil {
			return nil, err
		}
	}

	before := domain.MarshalState(account)
	now := time.Now().UTC()

	entry := &domain.Transaction{
		AccountID:   account.ID,
		Amount:      amount,
		Description: description,
		Category:    category,
	}
	if err := uc.poster.post(txCtx, tx, entry, now); err != nil {
		return nil, err
	}
	if err := uc.poster.sync(txCtx, tx, account, now); err != nil {
		return nil, err
	}

	if err := uc.audit(txCtx, tx, actor, action, "account", account.ID, before, domain.MarshalState(account)); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.metrics.ObserveOperation(op, int64(input.Amount), time.Since(start).Seconds())
	if uc.metrics != nil {
		uc.metrics.AdminAdjustments.WithLabelValues(string(action)).Inc()
	}

	kind, title := domain.NotificationCreditApplied, "Credit applied"
	if amount < 0 {
		kind, title = domain.NotificationDebitApplied, "Debit applied"
	}
	notify(ctx, uc.notifier, uc.metrics, &domain.Notification{
		UserID: account.UserID,
		Kind:   kind,
		Title:  title,
		Body: fmt.Sprintf("%s: %s on account %s.",
			description, domain.FormatMinorUnits(input.Amount, account.Currency), account.MaskedNumber()),
	})

	return &PostingResult{Account: account, Transaction: entry}, nil
}

// UpdateTransactionTime changes when an entry occurred. Amount, account
// and balances are untouched.
func (uc *AdminUseCase) UpdateTransactionTime(ctx context.Context, actor domain.Identity, id string, occurredAt time.Time) (*domain.Transaction, error) {
	if err := uc.authorize(ctx, actor); err != nil {
		return nil, err
	}
	if occurredAt.IsZero() {
		return nil, domain.ErrInvalidOccurredAt
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	entry, err := uc.txnRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return nil, err
	}

	before := domain.MarshalState(entry)
	entry.OccurredAt = occurredAt.UTC()

	if err := uc.txnRepo.UpdateOccurredAt(txCtx, tx, id, entry.OccurredAt); err != nil {
		return nil, err
	}

	if err := uc.audit(txCtx, tx, actor, domain.AuditActionTransactionEdit, "transaction", id, before, domain.MarshalState(entry)); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return entry, nil
}

// DeleteTransaction removes an entry and reverses its effect on the
// owning account. The reversal follows the stored sign of the amount.
// Deleting one leg of an internal transfer deletes both legs so the pair
// never exists half-formed. Every touched balance is recomputed from the
// remaining entries and must stay non-negative.
func (uc *AdminUseCase) DeleteTransaction(ctx context.Context, actor domain.Identity, input DeleteTransactionInput) (result *DeleteResult, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			uc.metrics.ObserveError(OpDeleteEntry, errorReason(err))
		}
	}()

	if err := uc.authorize(ctx, actor); err != nil {
		return nil, err
	}
	if input.TransactionID == "" {
		return nil, domain.ErrTransactionNotFound
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	entry, err := uc.txnRepo.GetByIDForUpdate(txCtx, tx, input.TransactionID)
	if err != nil {
		return nil, err
	}
	if err := entry.CheckReversal(input.Direction); err != nil {
		return nil, err
	}

	entries := []*domain.Transaction{entry}
	if entry.IsTransferLeg() {
		entries, err = uc.txnRepo.GetByTransferIDForUpdate(txCtx, tx, entry.TransferID)
		if err != nil {
			return nil, err
		}
	}

	accountIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		accountIDs = append(accountIDs, e.AccountID)
	}

	accounts, err := uc.poster.lock(txCtx, tx, accountIDs...)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, e := range entries {
		if err := uc.txnRepo.Delete(txCtx, tx, e.ID); err != nil {
			return nil, err
		}
		if err := uc.audit(txCtx, tx, actor, domain.AuditActionTransactionDelete, "transaction", e.ID, domain.MarshalState(e), nil); err != nil {
			return nil, err
		}
	}

	touched := make([]*domain.Account, 0, len(accounts))
	for _, id := range sortedUnique(accountIDs) {
		acc := accounts[id]
		if err := uc.poster.sync(txCtx, tx, acc, now); err != nil {
			return nil, err
		}
		touched = append(touched, acc)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.metrics.ObserveOperation(OpDeleteEntry, int64(entry.Amount.Abs()), time.Since(start).Seconds())
	if uc.metrics != nil {
		uc.metrics.AdminAdjustments.WithLabelValues(string(domain.AuditActionTransactionDelete)).Inc()
	}

	return &DeleteResult{Deleted: entries, Accounts: touched}, nil
}

// SetAccountStatus freezes, unfreezes or closes an account. Closing stamps
// closed_at. Balances are not affected.
func (uc *AdminUseCase) SetAccountStatus(ctx context.Context, actor domain.Identity, accountID string, status domain.AccountStatus) (*domain.Account, error) {
	if err := uc.authorize(ctx, actor); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.CanTransition(status) {
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrInvalidStatus, account.Status, status)
	}

	before := domain.MarshalState(account)
	now := time.Now().UTC()

	var closedAt *time.Time
	if status == domain.AccountStatusClosed {
		closedAt = &now
	}

	if err := uc.accountRepo.UpdateStatus(txCtx, tx, accountID, status, closedAt, now); err != nil {
		return nil, err
	}

	account.Status = status
	account.ClosedAt = closedAt
	account.UpdatedAt = now

	if err := uc.audit(txCtx, tx, actor, domain.AuditActionStatusChange, "account", accountID, before, domain.MarshalState(account)); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return account, nil
}

// ListAccounts lists every account in the bank.
func (uc *AdminUseCase) ListAccounts(ctx context.Context, actor domain.Identity, limit, offset int) ([]*domain.Account, error) {
	if err := uc.authorize(ctx, actor); err != nil {
		return nil, err
	}
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.accountRepo.List(ctx, limit, offset)
}

// ListAuditLogs returns recorded admin actions.
func (uc *AdminUseCase) ListAuditLogs(ctx context.Context, actor domain.Identity, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	if err := uc.authorize(ctx, actor); err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)
	return uc.auditRepo.List(ctx, filter)
}

func (uc *AdminUseCase) authorize(ctx context.Context, actor domain.Identity) error {
	if err := actor.Validate(); err != nil {
		return err
	}

	ok, err := uc.authorizer.IsAdmin(ctx, actor)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}

	return nil
}

func (uc *AdminUseCase) audit(
	ctx context.Context,
	tx Transaction,
	actor domain.Identity,
	action domain.AuditAction,
	resourceType, resourceID string,
	before, after domain.JSON,
) error {
	if uc.auditRepo == nil {
		return nil
	}

	return uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       actor.UserID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    domain.RequestIDFromContext(ctx),
		BeforeState:  before,
		AfterState:   after,
		CreatedAt:    time.Now().UTC(),
	})
}
