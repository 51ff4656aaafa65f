package handler

import (
	"context"
	"net/http"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// LinkService connects external institutions.
type LinkService interface {
	CreateLinkToken(ctx context.Context, actor domain.Identity) (*usecase.LinkToken, error)
	ExchangePublicToken(ctx context.Context, actor domain.Identity, publicToken string) (*domain.LinkedItem, error)
	ListLinkedItems(ctx context.Context, actor domain.Identity) ([]*domain.LinkedItem, error)
}

// LinkHandler handles external account linking.
type LinkHandler struct {
	linkUC LinkService
}

// NewLinkHandler creates a new LinkHandler.
func NewLinkHandler(linkUC LinkService) *LinkHandler {
	return &LinkHandler{linkUC: linkUC}
}

// CreateToken issues a link token for the client widget.
func (h *LinkHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.linkUC.CreateLinkToken(r.Context(), identity(r))
	if err != nil {
		respondError(w, r, "failed to create link token", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.LinkTokenResponse{LinkToken: token.Token, ExpiresAt: token.ExpiresAt})
}

// Exchange trades the widget's public token for a stored item.
func (h *LinkHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	var req dto.ExchangeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	item, err := h.linkUC.ExchangePublicToken(r.Context(), identity(r), req.PublicToken)
	if err != nil {
		respondError(w, r, "failed to exchange public token", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.LinkedItemFromDomain(item))
}

// List returns the caller's linked institutions.
func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.linkUC.ListLinkedItems(r.Context(), identity(r))
	if err != nil {
		respondError(w, r, "failed to list linked items", err)
		return
	}

	out := make([]*dto.LinkedItemResponse, len(items))
	for i, item := range items {
		out[i] = dto.LinkedItemFromDomain(item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}
