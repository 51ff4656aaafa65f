package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/adapter/http/handler"
	apimiddleware "github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/auth"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/usecase"
)

var jwtManager = auth.NewJWTManager("router-test-secret", time.Hour)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected a request id header")
	}
}

func TestNewRouter_RequiresToken(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authed(t, httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil), domain.RoleCustomer))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_AdminRoutesRequireAdmin(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(t, httptest.NewRequest(http.MethodGet, "/api/v1/admin/ledger/consistency", nil), domain.RoleCustomer))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authed(t, httptest.NewRequest(http.MethodGet, "/api/v1/admin/ledger/consistency", nil), domain.RoleAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1, nil)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"name":"Main","type":"checking"}`
	req := authed(t, httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(body)), domain.RoleCustomer)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !strings.HasPrefix(store.checkedKey, "user-1:POST:/api/v1/accounts") {
		t.Fatalf("expected idempotency store to be used with a scoped key, got %q", store.checkedKey)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = m
		cfg.MetricsGatherer = reg
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "gobank_http_requests_total") {
		t.Fatalf("expected http metrics in exposition, got %s", rec.Body.String())
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"GET /api/v1/me",
		"POST /api/v1/accounts/",
		"GET /api/v1/accounts/{id}",
		"POST /api/v1/accounts/{id}/deposits",
		"POST /api/v1/accounts/{id}/withdrawals",
		"GET /api/v1/accounts/{id}/statement.csv",
		"POST /api/v1/transfers",
		"POST /api/v1/transfers/external",
		"GET /api/v1/transactions",
		"GET /api/v1/dashboard",
		"POST /api/v1/links/exchange",
		"PATCH /api/v1/admin/accounts/{id}/status",
		"DELETE /api/v1/admin/transactions/{id}",
		"GET /api/v1/admin/reconciliation",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func authed(t *testing.T, r *http.Request, role domain.Role) *http.Request {
	t.Helper()
	id := "user-1"
	if role == domain.RoleAdmin {
		id = "admin-1"
	}
	token, _, err := jwtManager.Issue(domain.Identity{UserID: id, Email: id + "@example.com", Role: role})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	ok := handler.PingFunc(func(ctx context.Context) error { return nil })

	cfg := RouterConfig{
		HealthHandler:       handler.NewHealthHandler(ok, nil),
		AccountHandler:      handler.NewAccountHandler(stubAccountService{}, nil, nil),
		TransferHandler:     handler.NewTransferHandler(nil),
		ReportHandler:       handler.NewReportHandler(nil),
		AdminHandler:        handler.NewAdminHandler(nil, stubConsistency{}, nil),
		AuthHandler:         handler.NewAuthHandler(nil, jwtManager, nil),
		NotificationHandler: handler.NewNotificationHandler(nil),
		LinkHandler:         handler.NewLinkHandler(nil),
		TokenVerifier:       jwtManager,
		AdminAuthorizer:     auth.NewRoleAuthorizer(nil),
		Logger:              zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubAccountService struct{}

func (stubAccountService) OpenAccount(ctx context.Context, actor domain.Identity, input usecase.OpenAccountInput) (*domain.Account, error) {
	return &domain.Account{ID: "acc", UserID: actor.UserID, Name: input.Name, Type: input.Type, Number: "100000000001"}, nil
}

func (stubAccountService) GetAccount(ctx context.Context, actor domain.Identity, id string) (*domain.Account, error) {
	return &domain.Account{ID: id}, nil
}

func (stubAccountService) ListAccounts(ctx context.Context, actor domain.Identity) ([]*domain.Account, error) {
	return []*domain.Account{}, nil
}

type stubConsistency struct{}

func (stubConsistency) CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error) {
	return &usecase.ConsistencyReport{Consistent: true, CheckedAt: time.Now()}, nil
}

type stubIdempotencyStore struct {
	checkedKey string
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkedKey = key
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}
