package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmeshcher/kleanloop/internal/model"
	"github.com/mmeshcher/kleanloop/internal/repository"
)

// Notifier записывает уведомления пользователей и управляет их прочтением.
type Notifier struct {
	store NotificationStore
}

// NewNotifier создаёт Notifier поверх хранилища уведомлений.
func NewNotifier(store NotificationStore) *Notifier {
	return &Notifier{store: store}
}

// Emit сохраняет непрочитанное уведомление.
func (n *Notifier) Emit(ctx context.Context, userID int64, title, description string, category model.Category) (*model.Notification, error) {
	if !category.Valid() {
		return nil, validationf("unknown notification category %q", category)
	}

	rec := &model.Notification{
		UserID:      userID,
		Title:       title,
		Description: description,
		Category:    category,
	}
	if err := n.store.CreateNotification(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// List возвращает уведомления пользователя, при заданной category только этой категории.
func (n *Notifier) List(ctx context.Context, userID int64, category *model.Category) ([]model.Notification, error) {
	if category != nil && !category.Valid() {
		return nil, validationf("unknown notification category %q", *category)
	}
	return n.store.ListNotifications(ctx, userID, category)
}

// MarkRead помечает уведомление прочитанным; повторная пометка ничего не меняет.
func (n *Notifier) MarkRead(ctx context.Context, userID, id int64) error {
	err := n.store.MarkNotificationRead(ctx, userID, id)
	if errors.Is(err, repository.ErrNotificationNotFound) {
		return fmt.Errorf("%w: notification %d", ErrNotFound, id)
	}
	return err
}

// MarkAllRead помечает прочитанными все уведомления пользователя одной операцией.
func (n *Notifier) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return n.store.MarkAllNotificationsRead(ctx, userID)
}

// UnreadCount возвращает число непрочитанных уведомлений.
func (n *Notifier) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return n.store.CountUnreadNotifications(ctx, userID)
}
