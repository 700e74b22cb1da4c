// Package service реализует бизнес-логику маркетплейса: жизненный цикл заявок на продажу,
// начисление баллов репутации, покупку кредитов и уведомления.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/kleanloop/internal/classifier"
	"github.com/mmeshcher/kleanloop/internal/model"
)

// UserStore описывает доступ к пользователям.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	LockUser(ctx context.Context, id int64) (*model.User, error)
	SetUserPoints(ctx context.Context, id int64, points int64, tier model.Tier) error
	GetUserStats(ctx context.Context, userID int64) (model.UserStats, error)
}

// TransactionStore описывает доступ к заявкам на продажу.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t *model.Transaction) error
	GetTransaction(ctx context.Context, id int64) (*model.Transaction, error)
	LockTransaction(ctx context.Context, id int64) (*model.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id int64, status model.TransactionStatus) error
	ListTransactionsByUser(ctx context.Context, userID int64) ([]model.Transaction, error)
	ListTransactions(ctx context.Context, status *model.TransactionStatus) ([]model.Transaction, error)
}

// CreditStore описывает доступ к покупкам кредитов.
type CreditStore interface {
	CreateCredit(ctx context.Context, c *model.Credit) error
	ListCreditsByUser(ctx context.Context, userID int64) ([]model.Credit, error)
	ListCredits(ctx context.Context) ([]model.Credit, error)
	SumCreditsByUser(ctx context.Context, userID int64) (int64, error)
}

// NotificationStore описывает доступ к уведомлениям.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context, userID int64, category *model.Category) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error)
	CountUnreadNotifications(ctx context.Context, userID int64) (int64, error)
}

// TxRunner выполняет функцию в одной транзакции хранилища.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	TxRunner
	UserStore
	TransactionStore
	CreditStore
	NotificationStore
}

const (
	notifyTimeout = 5 * time.Second
	// maxTransitionAttempts число попыток перехода, если баланс меняется во время записи блокировки.
	maxTransitionAttempts = 3
)

// Service содержит бизнес-логику маркетплейса.
type Service struct {
	repo       Repository
	ledger     *Ledger
	notifier   *Notifier
	classifier classifier.Classifier
	logger     *zap.Logger
}

// NewService создаёт сервис. classifier может быть nil, тогда материал обязателен во входных данных.
func NewService(repo Repository, cls classifier.Classifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:       repo,
		ledger:     NewLedger(repo),
		notifier:   NewNotifier(repo),
		classifier: cls,
		logger:     logger,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}
