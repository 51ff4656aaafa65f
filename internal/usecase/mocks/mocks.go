package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// Participant is an in-memory store that can be rolled back by
// MockTransactionManager.
type Participant interface {
	snapshot() any
	restore(state any)
}

// MockAccountRepository is an in-memory AccountRepository. Reads return
// copies so callers never alias stored rows.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account

	// BeforeCreate runs ahead of each insert; a non-nil error aborts it.
	BeforeCreate          func(account *domain.Account) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	ExistsByNumberFunc    func(ctx context.Context, number string) (bool, error)
	UpdateBalanceFunc     func(ctx context.Context, tx usecase.Transaction, id string, balance domain.MinorUnits, updatedAt time.Time) error
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]domain.Account),
	}
}

// Put stores a fixture account.
func (m *MockAccountRepository) Put(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = *account
}

// Get returns the stored row without going through the repository API.
func (m *MockAccountRepository) Get(id string) (domain.Account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[id]
	return acc, ok
}

func (m *MockAccountRepository) CreateTx(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.BeforeCreate != nil {
		if err := m.BeforeCreate(account); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts {
		if acc.Number == account.Number {
			return fmt.Errorf("%w: %s", domain.ErrAccountNumberTaken, account.Number)
		}
	}
	m.accounts[account.ID] = *account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return &acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	accounts := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		if acc, ok := m.accounts[id]; ok {
			accounts = append(accounts, &acc)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (m *MockAccountRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	if m.ExistsByNumberFunc != nil {
		return m.ExistsByNumberFunc(ctx, number)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.accounts {
		if acc.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance domain.MinorUnits, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.Balance = balance
	acc.Version++
	acc.UpdatedAt = updatedAt
	m.accounts[id] = acc
	return nil
}

func (m *MockAccountRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.AccountStatus, closedAt *time.Time, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.Status = status
	acc.ClosedAt = closedAt
	acc.UpdatedAt = updatedAt
	m.accounts[id] = acc
	return nil
}

func (m *MockAccountRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	accounts := make([]*domain.Account, 0)
	for _, acc := range m.accounts {
		if acc.UserID == userID {
			acc := acc
			accounts = append(accounts, &acc)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	m.mu.RLock()
	accounts := make([]*domain.Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		acc := acc
		accounts = append(accounts, &acc)
	}
	m.mu.RUnlock()
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return page(accounts, limit, offset), nil
}

func (m *MockAccountRepository) snapshot() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state := make(map[string]domain.Account, len(m.accounts))
	for k, v := range m.accounts {
		state[k] = v
	}
	return state
}

func (m *MockAccountRepository) restore(state any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = state.(map[string]domain.Account)
}

// MockTransactionRepository is an in-memory TransactionRepository.
type MockTransactionRepository struct {
	mu      sync.RWMutex
	entries map[string]domain.Transaction

	// BeforeCreate runs ahead of each insert; a non-nil error aborts it.
	BeforeCreate     func(txn *domain.Transaction) error
	SumByAccountFunc func(ctx context.Context, tx usecase.Transaction, accountID string) (domain.MinorUnits, error)
	SearchFunc       func(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		entries: make(map[string]domain.Transaction),
	}
}

// Put stores a fixture entry.
func (m *MockTransactionRepository) Put(txn *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[txn.ID] = *txn
}

// All returns every stored entry ordered by id.
func (m *MockTransactionRepository) All() []domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Transaction, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.BeforeCreate != nil {
		if err := m.BeforeCreate(txn); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[txn.ID] = *txn
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return &e, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	return m.GetByID(ctx, id)
}

func (m *MockTransactionRepository) GetByTransferIDForUpdate(ctx context.Context, tx usecase.Transaction, transferID string) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Transaction
	for _, e := range m.entries {
		if e.TransferID == transferID {
			e := e
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockTransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return domain.ErrTransactionNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *MockTransactionRepository) UpdateOccurredAt(ctx context.Context, tx usecase.Transaction, id string, occurredAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	e.OccurredAt = occurredAt
	m.entries[id] = e
	return nil
}

func (m *MockTransactionRepository) SumByAccount(ctx context.Context, tx usecase.Transaction, accountID string) (domain.MinorUnits, error) {
	if m.SumByAccountFunc != nil {
		return m.SumByAccountFunc(ctx, tx, accountID)
	}
	return m.Sum(accountID), nil
}

// Sum totals the stored entries of one account.
func (m *MockTransactionRepository) Sum(accountID string) domain.MinorUnits {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum domain.MinorUnits
	for _, e := range m.entries {
		if e.AccountID == accountID {
			sum += e.Amount
		}
	}
	return sum
}

func (m *MockTransactionRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Transaction, 0)
	for _, e := range m.entries {
		if e.AccountID == accountID {
			e := e
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Search matches the postgres semantics: description substring is case
// insensitive, amount bounds apply to the absolute amount, newest first.
func (m *MockTransactionRepository) Search(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, filter)
	}

	accounts := make(map[string]bool, len(filter.AccountIDs))
	for _, id := range filter.AccountIDs {
		accounts[id] = true
	}
	query := strings.ToLower(filter.Query)

	m.mu.RLock()
	out := make([]*domain.Transaction, 0)
	for _, e := range m.entries {
		switch {
		case len(accounts) > 0 && !accounts[e.AccountID]:
			continue
		case filter.Category != "" && e.Category != filter.Category:
			continue
		case query != "" && !strings.Contains(strings.ToLower(e.Description), query):
			continue
		case filter.From != nil && e.OccurredAt.Before(*filter.From):
			continue
		case filter.To != nil && e.OccurredAt.After(*filter.To):
			continue
		case filter.MinAmount != nil && e.Amount.Abs() < *filter.MinAmount:
			continue
		case filter.MaxAmount != nil && e.Amount.Abs() > *filter.MaxAmount:
			continue
		}
		e := e
		out = append(out, &e)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].ID > out[j].ID
	})

	if filter.Limit == 0 {
		return out, nil
	}
	return page(out, filter.Limit, filter.Offset), nil
}

func (m *MockTransactionRepository) snapshot() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state := make(map[string]domain.Transaction, len(m.entries))
	for k, v := range m.entries {
		state[k] = v
	}
	return state
}

func (m *MockTransactionRepository) restore(state any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = state.(map[string]domain.Transaction)
}

// MockLedgerRepository derives ledger checks from the in-memory stores.
type MockLedgerRepository struct {
	accounts *MockAccountRepository
	entries  *MockTransactionRepository
}

func NewMockLedgerRepository(accounts *MockAccountRepository, entries *MockTransactionRepository) *MockLedgerRepository {
	return &MockLedgerRepository{accounts: accounts, entries: entries}
}

func (m *MockLedgerRepository) BalanceMismatches(ctx context.Context) ([]usecase.BalanceMismatch, error) {
	all, _ := m.accounts.List(ctx, 0, 0)
	var out []usecase.BalanceMismatch
	for _, acc := range all {
		computed := m.entries.Sum(acc.ID)
		if computed != acc.Balance {
			out = append(out, usecase.BalanceMismatch{AccountID: acc.ID, Recorded: acc.Balance, Computed: computed})
		}
	}
	return out, nil
}

func (m *MockLedgerRepository) BrokenTransfers(ctx context.Context) ([]string, error) {
	groups := make(map[string][]domain.Transaction)
	for _, e := range m.entries.All() {
		if e.TransferID != "" {
			groups[e.TransferID] = append(groups[e.TransferID], e)
		}
	}

	var out []string
	for id, legs := range groups {
		if len(legs) != 2 || domain.ValidateTransferPair(&legs[0], &legs[1]) != nil {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MockLedgerRepository) ComputedBalance(ctx context.Context, accountID string) (domain.MinorUnits, error) {
	if _, ok := m.accounts.Get(accountID); !ok {
		return 0, domain.ErrAccountNotFound
	}
	return m.entries.Sum(accountID), nil
}

// MockAuditRepository records audit logs in memory.
type MockAuditRepository struct {
	mu   sync.RWMutex
	logs []domain.AuditLog
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.AuditLog, 0, len(m.logs))
	for i := len(m.logs) - 1; i >= 0; i-- {
		l := m.logs[i]
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.ResourceID != "" && l.ResourceID != filter.ResourceID {
			continue
		}
		out = append(out, &l)
	}
	return page(out, filter.Limit, filter.Offset), nil
}

func (m *MockAuditRepository) snapshot() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.AuditLog(nil), m.logs...)
}

func (m *MockAuditRepository) restore(state any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = state.([]domain.AuditLog)
}

// MockUserRepository is an in-memory UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]domain.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// MockNotificationRepository is an in-memory NotificationRepository.
type MockNotificationRepository struct {
	mu            sync.RWMutex
	notifications []domain.Notification
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{}
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Notification, 0)
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
		if n.UserID == userID {
			out = append(out, &n)
		}
	}
	return page(out, limit, offset), nil
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].ID == id && m.notifications[i].UserID == userID {
			m.notifications[i].Read = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

// MockLinkedItemRepository is an in-memory LinkedItemRepository.
type MockLinkedItemRepository struct {
	mu    sync.RWMutex
	items []domain.LinkedItem
}

func NewMockLinkedItemRepository() *MockLinkedItemRepository {
	return &MockLinkedItemRepository{}
}

func (m *MockLinkedItemRepository) Create(ctx context.Context, item *domain.LinkedItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, *item)
	return nil
}

func (m *MockLinkedItemRepository) ListByUser(ctx context.Context, userID string) ([]*domain.LinkedItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.LinkedItem, 0)
	for _, item := range m.items {
		if item.UserID == userID {
			item := item
			out = append(out, &item)
		}
	}
	return out, nil
}

// MockTransactionManager serializes transactions the way row locks would
// and restores every participant on rollback.
type MockTransactionManager struct {
	lock         sync.Mutex
	participants []Participant

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	mu        sync.Mutex
	Commits   int
	Rollbacks int
}

func NewMockTransactionManager(participants ...Participant) *MockTransactionManager {
	return &MockTransactionManager{participants: participants}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}

	m.lock.Lock()
	states := make([]any, len(m.participants))
	for i, p := range m.participants {
		states[i] = p.snapshot()
	}
	return &MockTransaction{manager: m, states: states}, nil
}

// MockTransaction is a transaction handed out by MockTransactionManager.
type MockTransaction struct {
	manager *MockTransactionManager
	states  []any
	done    bool

	CommitFunc func(ctx context.Context) error
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	if t.done {
		return fmt.Errorf("transaction already closed")
	}
	if t.CommitFunc != nil {
		if err := t.CommitFunc(ctx); err != nil {
			return err
		}
	}
	t.done = true
	t.manager.mu.Lock()
	t.manager.Commits++
	t.manager.mu.Unlock()
	t.manager.lock.Unlock()
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	for i, p := range t.manager.participants {
		p.restore(t.states[i])
	}
	t.manager.mu.Lock()
	t.manager.Rollbacks++
	t.manager.mu.Unlock()
	t.manager.lock.Unlock()
	return nil
}

// MockIDGenerator returns prefixed sequential ids.
type MockIDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter int
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{prefix: "id"}
}

// NewPrefixedIDGenerator returns a generator whose ids start with prefix.
func NewPrefixedIDGenerator(prefix string) *MockIDGenerator {
	return &MockIDGenerator{prefix: prefix}
}

func (m *MockIDGenerator) Generate() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("%s-%06d", m.prefix, m.counter)
}

// MockRetrier retries up to Attempts times on any error matching Retryable.
type MockRetrier struct {
	Attempts  int
	Retryable func(error) bool
	Calls     int
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	attempts := m.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		m.Calls++
		err = operation()
		if err == nil || m.Retryable == nil || !m.Retryable(err) {
			return err
		}
	}
	return err
}

// MockCache is an in-memory Cache that ignores TTLs.
type MockCache struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{data: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	keys map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error

	Released []string
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{keys: make(map[string][]byte)}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.keys[key]; ok {
		return true, existing, nil
	}
	if response == nil {
		response = []byte("processing")
	}
	m.keys[key] = response
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	m.Released = append(m.Released, key)
	return nil
}

// Stored returns the value held for key.
func (m *MockIdempotencyStore) Stored(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.keys[key]
	return v, ok
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
