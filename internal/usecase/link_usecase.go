package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iho/gobank/internal/domain"
)

const linkTokenCachePrefix = "link_token:"

// LinkUseCase connects external institutions through the aggregator. The
// resulting access tokens are stored and never read by the ledger.
type LinkUseCase struct {
	provider LinkProvider
	cache    Cache
	repo     LinkedItemRepository
	idGen    IDGenerator
}

// NewLinkUseCase creates a new LinkUseCase.
func NewLinkUseCase(provider LinkProvider, cache Cache, repo LinkedItemRepository, idGen IDGenerator) *LinkUseCase {
	return &LinkUseCase{
		provider: provider,
		cache:    cache,
		repo:     repo,
		idGen:    idGen,
	}
}

// LinkToken is a short-lived token the client hands to the aggregator widget.
type LinkToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateLinkToken issues a link token for actor, reusing an unexpired one.
func (uc *LinkUseCase) CreateLinkToken(ctx context.Context, actor domain.Identity) (*LinkToken, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	key := linkTokenCachePrefix + actor.UserID
	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, key); err == nil && cached != nil {
			var token LinkToken
			if json.Unmarshal(cached, &token) == nil && time.Now().Before(token.ExpiresAt) {
				return &token, nil
			}
		}
	}

	token, expiresAt, err := uc.provider.CreateLinkToken(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLinkProvider, err)
	}

	result := &LinkToken{Token: token, ExpiresAt: expiresAt}

	if uc.cache != nil {
		ttl := time.Until(expiresAt)
		if ttl <= 0 || ttl > LinkTokenTTL {
			ttl = LinkTokenTTL
		}
		if data, err := json.Marshal(result); err == nil {
			_ = uc.cache.Set(ctx, key, data, ttl)
		}
	}

	return result, nil
}

// ExchangePublicToken trades a public token for an access token and stores
// the resulting link for actor.
func (uc *LinkUseCase) ExchangePublicToken(ctx context.Context, actor domain.Identity, publicToken string) (*domain.LinkedItem, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	publicToken = strings.TrimSpace(publicToken)
	if publicToken == "" {
		return nil, domain.ErrInvalidPublicToken
	}

	accessToken, itemID, err := uc.provider.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPublicToken) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrLinkProvider, err)
	}

	item := &domain.LinkedItem{
		ID:          uc.idGen.Generate(),
		UserID:      actor.UserID,
		ItemID:      itemID,
		AccessToken: accessToken,
		CreatedAt:   time.Now().UTC(),
	}

	if err := uc.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, linkTokenCachePrefix+actor.UserID)
	}

	return item, nil
}

// ListLinkedItems returns actor's external links.
func (uc *LinkUseCase) ListLinkedItems(ctx context.Context, actor domain.Identity) ([]*domain.LinkedItem, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	return uc.repo.ListByUser(ctx, actor.UserID)
}
