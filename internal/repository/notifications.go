package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/kleanloop/internal/model"
)

// CreateNotification сохраняет непрочитанное уведомление и заполняет его идентификатор.
func (r *PostgresRepository) CreateNotification(ctx context.Context, n *model.Notification) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO notifications (user_id, title, description, category)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, is_read, created_at`,
		n.UserID, n.Title, n.Description, string(n.Category),
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListNotifications возвращает уведомления пользователя, при заданной category только этой категории.
func (r *PostgresRepository) ListNotifications(ctx context.Context, userID int64, category *model.Category) ([]model.Notification, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if category == nil {
		rows, err = r.conn(ctx).Query(ctx,
			`SELECT id, user_id, title, description, category, is_read, created_at
			 FROM notifications
			 WHERE user_id = $1
			 ORDER BY created_at DESC, id DESC`,
			userID,
		)
	} else {
		rows, err = r.conn(ctx).Query(ctx,
			`SELECT id, user_id, title, description, category, is_read, created_at
			 FROM notifications
			 WHERE user_id = $1 AND category = $2
			 ORDER BY created_at DESC, id DESC`,
			userID, string(*category),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	defer rows.Close()

	var res []model.Notification
	for rows.Next() {
		var (
			n        model.Notification
			category string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Description, &category, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Category = model.Category(category)
		res = append(res, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// MarkNotificationRead помечает уведомление пользователя прочитанным. Повторный вызов ничего не меняет.
func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	var updated int64
	err := r.conn(ctx).QueryRow(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2 RETURNING id`,
		id, userID,
	).Scan(&updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead помечает прочитанными все непрочитанные уведомления пользователя
// и возвращает число изменённых записей.
func (r *PostgresRepository) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountUnreadNotifications возвращает число непрочитанных уведомлений пользователя.
func (r *PostgresRepository) CountUnreadNotifications(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}
