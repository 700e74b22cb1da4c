package service

import (
	"context"

	"github.com/mmeshcher/kleanloop/internal/model"
)

// ListNotifications возвращает уведомления пользователя, новые первыми.
func (s *Service) ListNotifications(ctx context.Context, userID int64, category *model.Category) ([]model.Notification, error) {
	return s.notifier.List(ctx, userID, category)
}

// MarkNotificationRead помечает уведомление пользователя прочитанным.
func (s *Service) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	return s.notifier.MarkRead(ctx, userID, id)
}

// MarkAllNotificationsRead помечает прочитанными все уведомления пользователя.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	return s.notifier.MarkAllRead(ctx, userID)
}

// UnreadNotifications возвращает число непрочитанных уведомлений.
func (s *Service) UnreadNotifications(ctx context.Context, userID int64) (int64, error) {
	return s.notifier.UnreadCount(ctx, userID)
}
