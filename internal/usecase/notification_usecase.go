package usecase

import (
	"context"

	"github.com/iho/gobank/internal/domain"
)

// NotificationUseCase exposes a user's notifications.
type NotificationUseCase struct {
	repo NotificationRepository
}

// NewNotificationUseCase creates a new NotificationUseCase.
func NewNotificationUseCase(repo NotificationRepository) *NotificationUseCase {
	return &NotificationUseCase{repo: repo}
}

// List returns actor's notifications, newest first.
func (uc *NotificationUseCase) List(ctx context.Context, actor domain.Identity, limit, offset int) ([]*domain.Notification, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.repo.ListByUser(ctx, actor.UserID, limit, offset)
}

// MarkRead marks one of actor's notifications as read.
func (uc *NotificationUseCase) MarkRead(ctx context.Context, actor domain.Identity, id string) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	return uc.repo.MarkRead(ctx, actor.UserID, id)
}
