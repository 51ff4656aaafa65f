package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// RegisterRequest creates a customer login.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email,max=254"`
	Name     string `json:"name"     validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterRequest) ToUseCaseInput() usecase.CreateUserInput {
	return usecase.CreateUserInput{
		Email:    r.Email,
		Name:     r.Name,
		Password: r.Password,
		Role:     domain.RoleCustomer,
	}
}

// LoginRequest exchanges credentials for a token.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ToUseCaseInput converts to use case input.
func (r *LoginRequest) ToUseCaseInput() usecase.AuthenticateInput {
	return usecase.AuthenticateInput{Email: r.Email, Password: r.Password}
}

// OpenAccountRequest opens an account with an optional opening deposit.
type OpenAccountRequest struct {
	Name           string          `json:"name"            validate:"required,max=100"`
	Type           string          `json:"type"            validate:"required,oneof=checking savings money_market"`
	Currency       string          `json:"currency"        validate:"omitempty,len=3"`
	OpeningDeposit decimal.Decimal `json:"opening_deposit"`
}

// ToUseCaseInput converts to use case input.
func (r *OpenAccountRequest) ToUseCaseInput() usecase.OpenAccountInput {
	return usecase.OpenAccountInput{
		Name:           r.Name,
		Type:           domain.AccountType(r.Type),
		Currency:       r.Currency,
		OpeningDeposit: domain.ToMinorUnits(r.OpeningDeposit),
	}
}

// MovementRequest is a deposit or withdrawal body. Amount accepts a JSON
// number or a decimal string.
type MovementRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Memo   string          `json:"memo" validate:"max=255"`
}

// ToUseCaseInput converts to use case input.
func (r *MovementRequest) ToUseCaseInput(accountID string) usecase.MovementInput {
	return usecase.MovementInput{
		AccountID: accountID,
		Amount:    domain.ToMinorUnits(r.Amount),
		Memo:      r.Memo,
	}
}

// TransferRequest moves money between two of the caller's accounts.
type TransferRequest struct {
	FromAccountID string          `json:"from_account_id" validate:"required"`
	ToAccountID   string          `json:"to_account_id"   validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Memo          string          `json:"memo"            validate:"max=255"`
}

// ToUseCaseInput converts to use case input.
func (r *TransferRequest) ToUseCaseInput() usecase.TransferInput {
	return usecase.TransferInput{
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Amount:        domain.ToMinorUnits(r.Amount),
		Memo:          r.Memo,
	}
}

// RecipientRequest identifies an external payee.
type RecipientRequest struct {
	Name          string `json:"name"           validate:"required,max=100"`
	BankName      string `json:"bank_name"      validate:"required,max=100"`
	AccountNumber string `json:"account_number" validate:"required,max=34"`
}

// ExternalTransferRequest sends money out of the bank.
type ExternalTransferRequest struct {
	FromAccountID string           `json:"from_account_id" validate:"required"`
	Amount        decimal.Decimal  `json:"amount"`
	Recipient     RecipientRequest `json:"recipient"`
	Memo          string           `json:"memo"            validate:"max=255"`
}

// ToUseCaseInput converts to use case input.
func (r *ExternalTransferRequest) ToUseCaseInput() usecase.ExternalTransferInput {
	return usecase.ExternalTransferInput{
		FromAccountID: r.FromAccountID,
		Amount:        domain.ToMinorUnits(r.Amount),
		Recipient: usecase.Recipient{
			Name:          r.Recipient.Name,
			BankName:      r.Recipient.BankName,
			AccountNumber: r.Recipient.AccountNumber,
		},
		Memo: r.Memo,
	}
}

// AdjustmentRequest is an administrative credit or debit.
type AdjustmentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Memo   string          `json:"memo" validate:"max=255"`
}

// ToUseCaseInput converts to use case input.
func (r *AdjustmentRequest) ToUseCaseInput(accountID string) usecase.AdjustmentInput {
	return usecase.AdjustmentInput{
		AccountID: accountID,
		Amount:    domain.ToMinorUnits(r.Amount),
		Memo:      r.Memo,
	}
}

// UpdateTransactionRequest moves an entry in time.
type UpdateTransactionRequest struct {
	OccurredAt time.Time `json:"occurred_at" validate:"required"`
}

// SetStatusRequest changes an account's lifecycle state.
type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active frozen closed"`
}

// ExchangeRequest completes an account link.
type ExchangeRequest struct {
	PublicToken string `json:"public_token" validate:"required"`
}
