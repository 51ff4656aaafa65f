package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// TransferUseCase moves customer money: deposits, withdrawals, internal
// transfers and external (debit-only) transfers.
type TransferUseCase struct {
	txManager     TransactionManager
	poster        *poster
	correlationID IDGenerator
	notifier      Notifier
	metrics       *metrics.Metrics
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	idGen IDGenerator,
	correlationID IDGenerator,
	notifier Notifier,
	metrics *metrics.Metrics,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:     txManager,
		poster:        &poster{accountRepo: accountRepo, txnRepo: txnRepo, idGen: idGen},
		correlationID: correlationID,
		notifier:      notifier,
		metrics:       metrics,
	}
}

// MovementInput is a single-account deposit or withdrawal.
type MovementInput struct {
	AccountID string
	Amount    domain.MinorUnits
	Memo      string
}

// PostingResult is the account after a single-account movement and the
// entry that changed it.
type PostingResult struct {
	Account     *domain.Account
	Transaction *domain.Transaction
}

// TransferInput represents input for an internal transfer.
type TransferInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        domain.MinorUnits
	Memo          string
}

// TransferResult holds both legs of an internal transfer.
type TransferResult struct {
	TransferID string
	From       *domain.Account
	To         *domain.Account
	Debit      *domain.Transaction
	Credit     *domain.Transaction
}

// Recipient describes the external payee of an external transfer.
type Recipient struct {
	Name          string
	BankName      string
	AccountNumber string
}

// ExternalTransferInput represents money leaving the bank.
type ExternalTransferInput struct {
	FromAccountID string
	Amount        domain.MinorUnits
	Recipient     Recipient
	Memo          string
}

// Deposit adds money to an account owned by actor.
func (uc *TransferUseCase) Deposit(ctx context.Context, actor domain.Identity, input MovementInput) (*PostingResult, error) {
	if err := validateMovement(actor, input); err != nil {
		uc.metrics.ObserveError(OpDeposit, errorReason(err))
		return nil, err
	}

	description := input.Memo
	if description == "" {
		description = domain.CategoryDeposit
	}

	return uc.postSingle(ctx, actor, OpDeposit, input.AccountID, &domain.Transaction{
		AccountID:   input.AccountID,
		Amount:      input.Amount,
		Description: description,
		Category:    domain.CategoryDeposit,
	})
}

// Withdraw removes money from an account owned by actor. The resulting
// balance may not go negative.
func (uc *TransferUseCase) Withdraw(ctx context.Context, actor domain.Identity, input MovementInput) (*PostingResult, error) {
	if err := validateMovement(actor, input); err != nil {
		uc.metrics.ObserveError(OpWithdraw, errorReason(err))
		return nil, err
	}

	description := input.Memo
	if description == "" {
		description = domain.CategoryWithdrawal
	}

	return uc.postSingle(ctx, actor, OpWithdraw, input.AccountID, &domain.Transaction{
		AccountID:   input.AccountID,
		Amount:      -input.Amount,
		Description: description,
		Category:    domain.CategoryWithdrawal,
	})
}

// ExternalTransfer sends money to a payee outside the bank. Only the
// outgoing entry exists in this ledger.
func (uc *TransferUseCase) ExternalTransfer(ctx context.Context, actor domain.Identity, input ExternalTransferInput) (*PostingResult, error) {
	err := validateMovement(actor, MovementInput{AccountID: input.FromAccountID, Amount: input.Amount, Memo: input.Memo})
	if err == nil {
		err = validateRecipient(input.Recipient)
	}
	if err != nil {
		uc.metrics.ObserveError(OpExternalTransfer, errorReason(err))
		return nil, err
	}

	description := fmt.Sprintf("Transfer to %s at %s (%s)",
		strings.TrimSpace(input.Recipient.Name),
		strings.TrimSpace(input.Recipient.BankName),
		domain.MaskAccountNumber(strings.TrimSpace(input.Recipient.AccountNumber)),
	)
	if input.Memo != "" {
		description += ": " + input.Memo
	}
	description = domain.TruncateDescription(description)

	result, err := uc.postSingle(ctx, actor, OpExternalTransfer, input.FromAccountID, &domain.Transaction{
		AccountID:   input.FromAccountID,
		Amount:      -input.Amount,
		Description: description,
		Category:    domain.CategoryExternalTransfer,
	})
	if err != nil {
		return nil, err
	}

	notify(ctx, uc.notifier, uc.metrics, &domain.Notification{
		UserID: actor.UserID,
		Kind:   domain.NotificationTransferCompleted,
		Title:  "Transfer sent",
		Body: fmt.Sprintf("%s was sent to %s.",
			domain.FormatMinorUnits(input.Amount, result.Account.Currency), strings.TrimSpace(input.Recipient.Name)),
	})

	return result, nil
}

// postSingle runs one owner-checked entry against one account as an atomic unit.
func (uc *TransferUseCase) postSingle(
	ctx context.Context,
	actor domain.Identity,
	op string,
	accountID string,
	entry *domain.Transaction,
) (result *PostingResult, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			uc.metrics.ObserveError(op, errorReason(err))
		}
	}()

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	accounts, err := uc.poster.lock(txCtx, tx, accountID)
	if err != nil {
		return nil, err
	}
	account := accounts[accountID]

	if !account.OwnedBy(actor.UserID) {
		return nil, domain.ErrAccountNotFound
	}
	if err := account.EnsureActive(); err != nil {
		return nil, err
	}
	if entry.Amount < 0 {
		if err := account.ValidateDebit(entry.Amount.Abs()); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	if err := uc.poster.post(txCtx, tx, entry, now); err != nil {
		return nil, err
	}
	if err := uc.poster.sync(txCtx, tx, account, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.metrics.ObserveOperation(op, int64(entry.Amount.Abs()), time.Since(start).Seconds())

	return &PostingResult{Account: account, Transaction: entry}, nil
}

// Transfer moves money between two accounts owned by actor. Both entries
// share one correlation id and commit together.
func (uc *TransferUseCase) Transfer(ctx context.Context, actor domain.Identity, input TransferInput) (result *TransferResult, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			uc.metrics.ObserveError(OpTransfer, errorReason(err))
		}
	}()

	// 0. Validate inputs before starting transaction
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if input.FromAccountID == "" || input.ToAccountID == "" {
		return nil, domain.ErrMissingAccount
	}
	if input.FromAccountID == input.ToAccountID {
		return nil, domain.ErrSameAccount
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateMemo(input.Memo); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// 1. Lock both accounts in ascending id order
	accounts, err := uc.poster.lock(txCtx, tx, input.FromAccountID, input.ToAccountID)
	if err != nil {
		return nil, err
	}
	from, to := accounts[input.FromAccountID], accounts[input.ToAccountID]

	if !from.OwnedBy(actor.UserID) || !to.OwnedBy(actor.UserID) {
		return nil, domain.ErrAccountNotFound
	}
	if err := from.EnsureActive(); err != nil {
		return nil, err
	}
	if err := to.EnsureActive(); err != nil {
		return nil, err
	}
	if err := from.ValidateDebit(input.Amount); err != nil {
		return nil, err
	}

	// 2. Post both legs under one correlation id
	transferID := uc.correlationID.Generate()
	now := time.Now().UTC()

	debit := &domain.Transaction{
		AccountID:   from.ID,
		Amount:      -input.Amount,
		Description: transferDescription("Transfer to", to, input.Memo),
		Category:    domain.CategoryTransfer,
		TransferID:  transferID,
	}
	credit := &domain.Transaction{
		AccountID:   to.ID,
		Amount:      input.Amount,
		Description: transferDescription("Transfer from", from, input.Memo),
		Category:    domain.CategoryTransfer,
		TransferID:  transferID,
	}

	for _, entry := range []*domain.Transaction{debit, credit} {
		if err := uc.poster.post(txCtx, tx, entry, now); err != nil {
			return nil, err
		}
	}

	// 3. Recompute both balances
	for _, acc := range []*domain.Account{from, to} {
		if err := uc.poster.sync(txCtx, tx, acc, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.metrics.ObserveOperation(OpTransfer, int64(input.Amount), time.Since(start).Seconds())

	notify(ctx, uc.notifier, uc.metrics, &domain.Notification{
		UserID: actor.UserID,
		Kind:   domain.NotificationTransferCompleted,
		Title:  "Transfer completed",
		Body: fmt.Sprintf("%s moved from %s to %s.",
			domain.FormatMinorUnits(input.Amount, from.Currency), from.Name, to.Name),
	})

	return &TransferResult{
		TransferID: transferID,
		From:       from,
		To:         to,
		Debit:      debit,
		Credit:     credit,
	}, nil
}

func transferDescription(prefix string, counterparty *domain.Account, memo string) string {
	s := fmt.Sprintf("%s %s (%s)", prefix, counterparty.Name, counterparty.MaskedNumber())
	if memo != "" {
		s += ": " + memo
	}
	return domain.TruncateDescription(s)
}

func validateMovement(actor domain.Identity, input MovementInput) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if input.AccountID == "" {
		return domain.ErrMissingAccount
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return err
	}
	return domain.ValidateMemo(input.Memo)
}

func validateRecipient(r Recipient) error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.BankName) == "" || strings.TrimSpace(r.AccountNumber) == "" {
		return domain.ErrInvalidRecipient
	}
	return nil
}
