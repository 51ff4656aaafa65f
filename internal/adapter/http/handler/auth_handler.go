package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/usecase"
)

// UserService manages logins.
type UserService interface {
	CreateUser(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error)
	Authenticate(ctx context.Context, input usecase.AuthenticateInput) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(identity domain.Identity) (string, time.Time, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	userUC  UserService
	issuer  TokenIssuer
	metrics *metrics.Metrics
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userUC UserService, issuer TokenIssuer, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		userUC:  userUC,
		issuer:  issuer,
		metrics: m,
	}
}

// Register creates a customer login and signs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userUC.CreateUser(r.Context(), req.ToUseCaseInput())
	if err != nil {
		respondError(w, r, "failed to register", err)
		return
	}

	h.respondToken(w, r, http.StatusCreated, user)
}

// Login exchanges credentials for an access token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userUC.Authenticate(r.Context(), req.ToUseCaseInput())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.recordAttempt("failure")
			writeError(w, http.StatusUnauthorized, "invalid credentials", "")
			return
		}
		respondError(w, r, "failed to log in", err)
		return
	}

	h.recordAttempt("success")
	h.respondToken(w, r, http.StatusOK, user)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userUC.GetUser(r.Context(), identity(r).UserID)
	if err != nil {
		respondError(w, r, "failed to load user", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromDomain(user))
}

func (h *AuthHandler) respondToken(w http.ResponseWriter, r *http.Request, status int, user *domain.User) {
	token, expiresAt, err := h.issuer.Issue(domain.IdentityOf(user))
	if err != nil {
		respondError(w, r, "failed to issue token", err)
		return
	}

	writeJSON(w, status, dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        dto.UserFromDomain(user),
	})
}

func (h *AuthHandler) recordAttempt(result string) {
	if h.metrics != nil {
		h.metrics.AuthAttempts.WithLabelValues(result).Inc()
	}
}
