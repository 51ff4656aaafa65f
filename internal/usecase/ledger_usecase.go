package usecase

import (
	"context"
	"time"

	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
	metrics    *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository, metrics *metrics.Metrics) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
		metrics:    metrics,
	}
}

// ConsistencyReport is the outcome of a full ledger check.
type ConsistencyReport struct {
	Consistent        bool
	BalanceMismatches []BalanceMismatch
	BrokenTransfers   []string
	CheckedAt         time.Time
}

// CheckConsistency verifies that every balance equals the sum of its
// entries and that every transfer id names exactly one matching pair.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	mismatches, err := uc.ledgerRepo.BalanceMismatches(ctx)
	if err != nil {
		return nil, err
	}

	broken, err := uc.ledgerRepo.BrokenTransfers(ctx)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.BalanceMismatches.Set(float64(len(mismatches)))
		uc.metrics.BrokenTransfers.Set(float64(len(broken)))
	}

	return &ConsistencyReport{
		Consistent:        len(mismatches) == 0 && len(broken) == 0,
		BalanceMismatches: mismatches,
		BrokenTransfers:   broken,
		CheckedAt:         time.Now().UTC(),
	}, nil
}
