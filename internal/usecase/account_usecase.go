package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	poster      *poster
	numbers     *NumberAllocator
	retrier     Retrier
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	numbers *NumberAllocator,
	retrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		poster:      &poster{accountRepo: accountRepo, txnRepo: txnRepo, idGen: idGen},
		numbers:     numbers,
		retrier:     retrier,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// OpenAccountInput represents input for opening an account.
type OpenAccountInput struct {
	Name           string
	Type           domain.AccountType
	Currency       string
	OpeningDeposit domain.MinorUnits
}

// OpenAccount creates an account with a fresh number and, when requested,
// its opening deposit. The account row, the deposit entry and the balance
// commit together.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, actor domain.Identity, input OpenAccountInput) (*domain.Account, error) {
	if err := uc.validateOpen(actor, &input); err != nil {
		uc.metrics.ObserveError(OpOpenAccount, errorReason(err))
		return nil, err
	}

	var account *domain.Account
	err := uc.retrier.Retry(ctx, func() error {
		number, err := uc.numbers.Allocate(ctx)
		if err != nil {
			return err
		}

		account, err = uc.open(ctx, actor, input, number)
		if err != nil {
			return err
		}

		uc.numbers.MarkAssigned(number)
		return nil
	})
	if err != nil {
		uc.metrics.ObserveError(OpOpenAccount, errorReason(err))
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsOpened.Inc()
	}

	return account, nil
}

func (uc *AccountUseCase) validateOpen(actor domain.Identity, input *OpenAccountInput) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return err
	}

	if input.Type == "" {
		input.Type = domain.AccountTypeChecking
	}
	if !input.Type.IsValid() {
		return domain.ErrInvalidAccountType
	}

	input.Currency = strings.ToUpper(strings.TrimSpace(input.Currency))
	if input.Currency == "" {
		input.Currency = domain.DefaultCurrency
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return err
	}

	if input.OpeningDeposit < 0 {
		return domain.ErrInvalidAmount
	}
	if input.OpeningDeposit > 0 {
		return domain.ValidateAmount(input.OpeningDeposit)
	}
	return nil
}

func (uc *AccountUseCase) open(ctx context.Context, actor domain.Identity, input OpenAccountInput, number string) (*domain.Account, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		UserID:    actor.UserID,
		Name:      strings.TrimSpace(input.Name),
		Type:      input.Type,
		Number:    number,
		Currency:  input.Currency,
		Balance:   0,
		Status:    domain.AccountStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.accountRepo.CreateTx(txCtx, tx, account); err != nil {
		return nil, err
	}

	if input.OpeningDeposit > 0 {
		entry := &domain.Transaction{
			AccountID:   account.ID,
			Amount:      input.OpeningDeposit,
			Description: "Opening deposit",
			Category:    domain.CategoryDeposit,
		}
		if err := uc.poster.post(txCtx, tx, entry, now); err != nil {
			return nil, err
		}
		if err := uc.poster.sync(txCtx, tx, account, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if input.OpeningDeposit > 0 {
		uc.metrics.ObserveOperation(OpDeposit, int64(input.OpeningDeposit), time.Since(now).Seconds())
	}

	return account, nil
}

// GetAccount returns an account owned by actor.
func (uc *AccountUseCase) GetAccount(ctx context.Context, actor domain.Identity, id string) (*domain.Account, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !account.OwnedBy(actor.UserID) {
		return nil, domain.ErrAccountNotFound
	}

	return account, nil
}

// ListAccounts returns all accounts owned by actor.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, actor domain.Identity) ([]*domain.Account, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	return uc.accountRepo.ListByUser(ctx, actor.UserID)
}
