package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/kleanloop/internal/model"
)

type notificationResponse struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    model.Category `json:"category"`
	IsRead      bool           `json:"is_read"`
	CreatedAt   string         `json:"created_at"`
}

// GetNotifications возвращает уведомления текущего пользователя, опционально по категории.
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var category *model.Category
	if v := r.URL.Query().Get("category"); v != "" {
		c := model.Category(v)
		category = &c
	}

	list, err := h.service.ListNotifications(r.Context(), userID, category)
	if err != nil {
		h.writeError(w, err, "list notifications", zap.Int64("userID", userID))
		return
	}

	if len(list) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]notificationResponse, 0, len(list))
	for _, n := range list {
		resp = append(resp, notificationResponse{
			ID:          n.ID,
			Title:       n.Title,
			Description: n.Description,
			Category:    n.Category,
			IsRead:      n.IsRead,
			CreatedAt:   n.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type countResponse struct {
	Count int64 `json:"count"`
}

// GetUnreadCount возвращает число непрочитанных уведомлений.
func (h *Handler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	n, err := h.service.UnreadNotifications(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "unread notifications", zap.Int64("userID", userID))
		return
	}

	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

// MarkNotificationRead помечает уведомление прочитанным.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkNotificationRead(r.Context(), userID, id); err != nil {
		h.writeError(w, err, "mark notification read", zap.Int64("userID", userID), zap.Int64("notification_id", id))
		return
	}

	w.WriteHeader(http.StatusOK)
}

// MarkAllNotificationsRead помечает прочитанными все уведомления пользователя.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	n, err := h.service.MarkAllNotificationsRead(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "mark all notifications read", zap.Int64("userID", userID))
		return
	}

	writeJSON(w, http.StatusOK, countResponse{Count: n})
}
