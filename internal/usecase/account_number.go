package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

const (
	// MaxAccountNumberAttempts bounds random candidates before the time-based fallback.
	MaxAccountNumberAttempts = 5
	// MaxFallbackSteps bounds how far the time-derived suffix is advanced.
	MaxFallbackSteps = 1000

	assignedNumbersEstimate = 1_000_000
	assignedNumbersFPRate   = 0.001
)

// NumberExistsFunc reports whether an account number is already assigned.
type NumberExistsFunc func(ctx context.Context, number string) (bool, error)

// NumberAllocator generates unique 12-digit account numbers. A bloom filter
// remembers numbers seen taken so repeat candidates skip the store lookup.
type NumberAllocator struct {
	exists  NumberExistsFunc
	now     func() time.Time
	intN    func(n int) int
	metrics *metrics.Metrics

	mu       sync.Mutex
	assigned *bloom.BloomFilter
}

// NewNumberAllocator creates an allocator backed by exists.
func NewNumberAllocator(exists NumberExistsFunc, m *metrics.Metrics) *NumberAllocator {
	return &NumberAllocator{
		exists:   exists,
		now:      time.Now,
		intN:     rand.IntN,
		metrics:  m,
		assigned: bloom.NewWithEstimates(assignedNumbersEstimate, assignedNumbersFPRate),
	}
}

// Allocate returns a number not currently assigned to any account.
func (a *NumberAllocator) Allocate(ctx context.Context) (string, error) {
	for i := 0; i < MaxAccountNumberAttempts; i++ {
		candidate := a.random()

		if a.seen(candidate) {
			a.collision()
			continue
		}

		taken, err := a.exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}

		a.MarkAssigned(candidate)
		a.collision()
	}

	// Fallback: step the clock-derived suffix forward until a free number
	// turns up.
	lead := 1 + a.intN(9)
	base := a.now().UnixMicro()
	for step := int64(0); step < MaxFallbackSteps; step++ {
		candidate := timeDerivedNumber(lead, base+step)

		if a.seen(candidate) {
			a.collision()
			continue
		}

		taken, err := a.exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}

		a.MarkAssigned(candidate)
		a.collision()
	}

	return "", domain.ErrAccountNumberExhausted
}

// MarkAssigned records number as taken.
func (a *NumberAllocator) MarkAssigned(number string) {
	a.mu.Lock()
	a.assigned.AddString(number)
	a.mu.Unlock()
}

func (a *NumberAllocator) seen(number string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.assigned.TestString(number)
}

func (a *NumberAllocator) collision() {
	if a.metrics != nil {
		a.metrics.AccountNumberCollisions.Inc()
	}
}

// random returns a uniformly chosen 12-digit number with a non-zero first digit.
func (a *NumberAllocator) random() string {
	lead := 1 + a.intN(9)
	rest := a.intN(100_000_000_000)
	return fmt.Sprintf("%d%011d", lead, rest)
}

// timeDerived keeps a random non-zero lead digit and takes the remaining
// 11 digits from the current time in microseconds.
func (a *NumberAllocator) timeDerived() string {
	return timeDerivedNumber(1+a.intN(9), a.now().UnixMicro())
}

func timeDerivedNumber(lead int, micros int64) string {
	width := domain.AccountNumberLength - 1
	suffix := strconv.FormatInt(micros, 10)
	if len(suffix) > width {
		suffix = suffix[len(suffix)-width:]
	}
	return strconv.Itoa(lead) + strings.Repeat("0", width-len(suffix)) + suffix
}
