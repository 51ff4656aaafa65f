package handler

import (
	"context"
	"net/http"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	Transfer(ctx context.Context, actor domain.Identity, input usecase.TransferInput) (*usecase.TransferResult, error)
	ExternalTransfer(ctx context.Context, actor domain.Identity, input usecase.ExternalTransferInput) (*usecase.PostingResult, error)
}

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	transferUC TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC TransferService) *TransferHandler {
	return &TransferHandler{transferUC: transferUC}
}

// Create moves money between two of the caller's accounts.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.transferUC.Transfer(r.Context(), identity(r), req.ToUseCaseInput())
	if err != nil {
		respondError(w, r, "failed to create transfer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(result))
}

// External sends money to a payee at another bank.
func (h *TransferHandler) External(w http.ResponseWriter, r *http.Request) {
	var req dto.ExternalTransferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.transferUC.ExternalTransfer(r.Context(), identity(r), req.ToUseCaseInput())
	if err != nil {
		respondError(w, r, "failed to create external transfer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PostingFromDomain(result))
}
