package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
)

// NotificationService reads and acknowledges the caller's inbox.
type NotificationService interface {
	List(ctx context.Context, actor domain.Identity, limit, offset int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, actor domain.Identity, id string) error
}

// NotificationHandler serves the notification inbox.
type NotificationHandler struct {
	notificationUC NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationUC NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationUC: notificationUC}
}

// List returns the newest notifications first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	ns, err := h.notificationUC.List(r.Context(), identity(r), parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))
	if err != nil {
		respondError(w, r, "failed to list notifications", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"notifications": dto.NotificationsFromDomain(ns)})
}

// MarkRead acknowledges a notification.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notificationUC.MarkRead(r.Context(), identity(r), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, "failed to mark notification read", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
