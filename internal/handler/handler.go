// Package handler содержит HTTP-обработчики API сервиса KleanLoop.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/kleanloop/internal/credit"
	"github.com/mmeshcher/kleanloop/internal/middleware"
	"github.com/mmeshcher/kleanloop/internal/model"
	"github.com/mmeshcher/kleanloop/internal/repository"
	"github.com/mmeshcher/kleanloop/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, req service.RegisterRequest) (int64, error)
	AuthenticateUser(ctx context.Context, email, password string) (int64, error)
	GetProfile(ctx context.Context, userID int64) (*service.Profile, error)

	QuoteSellOrder(ctx context.Context, userID int64, material model.Material, weight decimal.Decimal) (*service.Quote, error)
	CreateSellOrder(ctx context.Context, userID int64, req service.SellOrderRequest) (*service.TransitionResult, error)
	CancelSellOrder(ctx context.Context, userID, transactionID int64) (*service.TransitionResult, error)
	ApproveSellOrder(ctx context.Context, transactionID int64) (*service.TransitionResult, error)
	RejectSellOrder(ctx context.Context, transactionID int64) (*service.TransitionResult, error)
	GetTransaction(ctx context.Context, userID, transactionID int64) (*model.Transaction, error)
	ListTransactions(ctx context.Context, userID int64) ([]model.Transaction, error)
	ListAllTransactions(ctx context.Context, status *model.TransactionStatus) ([]model.Transaction, error)

	CreditPackages() []credit.Package
	PurchaseCredits(ctx context.Context, userID int64, packageID string, customAmount int64) (*service.PurchaseResult, error)
	ListCredits(ctx context.Context, userID int64) ([]model.Credit, error)
	ListAllCredits(ctx context.Context) ([]model.Credit, error)
	TotalCredits(ctx context.Context, userID int64) (int64, error)

	ListNotifications(ctx context.Context, userID int64, category *model.Category) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error)
	UnreadNotifications(ctx context.Context, userID int64) (int64, error)
}

// Handler реализует HTTP-обработчики API сервиса KleanLoop.
type Handler struct {
	service         Service
	logger          *zap.Logger
	authMiddleware  *middleware.AuthMiddleware
	adminMiddleware *middleware.AdminMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, admin *middleware.AdminMiddleware) *Handler {
	return &Handler{
		service:         s,
		logger:          logger,
		authMiddleware:  auth,
		adminMiddleware: admin,
	}
}

type errorResponse struct {
	Error  string `json:"error"`
	Status string `json:"status,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError отображает ошибку бизнес-логики в HTTP-статус. Неизвестные ошибки логируются
// и скрываются за 500.
func (h *Handler) writeError(w http.ResponseWriter, err error, op string, fields ...zap.Field) {
	var conflict *service.StateConflictError
	var minWeight *service.MinWeightError

	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Status: string(conflict.Status)})
	case errors.As(err, &minWeight):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrSuspended):
		writeJSON(w, http.StatusLocked, errorResponse{Error: err.Error()})
	case errors.Is(err, repository.ErrUserExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "user already exists"})
	default:
		h.logger.Error(op+" error", append(fields, zap.Error(err))...)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	}
	return userID, ok
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return false
	}
	return true
}

func (h *Handler) notifyWarning(err error, fields ...zap.Field) string {
	if err == nil {
		return ""
	}
	h.logger.Warn("notification not delivered", append(fields, zap.Error(err))...)
	return "state saved, but some notifications could not be recorded"
}
