package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/mmeshcher/kleanloop/internal/model"
	"github.com/mmeshcher/kleanloop/internal/repository"
)

type memTxKey struct{}

// memRepo хранилище в памяти. InTx выполняет транзакции по одной, как блокировки строк в БД,
// и откатывает все изменения, если fn вернула ошибку.
type memRepo struct {
	txMu   sync.Mutex
	mu     sync.Mutex
	nextID int64

	users         map[int64]model.User
	transactions  map[int64]model.Transaction
	credits       []model.Credit
	notifications []model.Notification

	notifyErr         error
	notificationCalls int
	setPointsLog      []int64
	lockLog           []string
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:        make(map[int64]model.User),
		transactions: make(map[int64]model.Transaction),
	}
}

func (m *memRepo) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memRepo) seedUser(u model.User) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.id()
	m.users[u.ID] = u
	return u.ID
}

func (m *memRepo) seedTransaction(t model.Transaction) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.id()
	m.transactions[t.ID] = t
	return t.ID
}

func (m *memRepo) user(id int64) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

func (m *memRepo) transaction(id int64) model.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transactions[id]
}

func (m *memRepo) notificationsFor(userID int64, category model.Category) []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []model.Notification
	for _, n := range m.notifications {
		if n.UserID == userID && n.Category == category {
			res = append(res, n)
		}
	}
	return res
}

func (m *memRepo) Close() error { return nil }

func (m *memRepo) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	users := maps.Clone(m.users)
	txs := maps.Clone(m.transactions)
	credits := slices.Clone(m.credits)
	notes := slices.Clone(m.notifications)
	m.mu.Unlock()

	err := fn(context.WithValue(ctx, memTxKey{}, true))
	if err != nil {
		m.mu.Lock()
		m.users, m.transactions, m.credits, m.notifications = users, txs, credits, notes
		m.mu.Unlock()
	}
	return err
}

func (m *memRepo) lock(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockLog = append(m.lockLog, key)
}

func (m *memRepo) locks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.lockLog)
}

func (m *memRepo) notifyCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notificationCalls
}

func (m *memRepo) CreateUser(_ context.Context, u *model.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return 0, repository.ErrUserExists
		}
	}
	rec := *u
	rec.ID = m.id()
	rec.CreatedAt = time.Now()
	m.users[rec.ID] = rec
	return rec.ID, nil
}

func (m *memRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (m *memRepo) LockUser(ctx context.Context, id int64) (*model.User, error) {
	m.lock(fmt.Sprintf("user:%d", id))
	return m.GetUserByID(ctx, id)
}

func (m *memRepo) SetUserPoints(_ context.Context, id int64, points int64, t model.Tier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Points, u.Tier = points, t
	m.users[id] = u
	m.setPointsLog = append(m.setPointsLog, points)
	return nil
}

func (m *memRepo) GetUserStats(_ context.Context, userID int64) (model.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st model.UserStats
	for _, t := range m.transactions {
		if t.UserID == userID && t.Status == model.StatusCompleted {
			st.TotalSales++
			st.TotalKg = st.TotalKg.Add(t.Weight)
			st.TotalEarnings = st.TotalEarnings.Add(t.Total)
		}
	}
	for _, c := range m.credits {
		if c.UserID == userID {
			st.TotalCredits += c.Amount
		}
	}
	return st, nil
}

func (m *memRepo) CreateTransaction(_ context.Context, t *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.id()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	m.transactions[t.ID] = *t
	return nil
}

func (m *memRepo) GetTransaction(_ context.Context, id int64) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	return &t, nil
}

func (m *memRepo) LockTransaction(ctx context.Context, id int64) (*model.Transaction, error) {
	m.lock(fmt.Sprintf("transaction:%d", id))
	return m.GetTransaction(ctx, id)
}

func (m *memRepo) UpdateTransactionStatus(_ context.Context, id int64, status model.TransactionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return repository.ErrTransactionNotFound
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	m.transactions[id] = t
	return nil
}

func (m *memRepo) ListTransactionsByUser(_ context.Context, userID int64) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []model.Transaction
	for _, t := range m.transactions {
		if t.UserID == userID {
			res = append(res, t)
		}
	}
	return res, nil
}

func (m *memRepo) ListTransactions(_ context.Context, status *model.TransactionStatus) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []model.Transaction
	for _, t := range m.transactions {
		if status == nil || t.Status == *status {
			res = append(res, t)
		}
	}
	return res, nil
}

func (m *memRepo) CreateCredit(_ context.Context, c *model.Credit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	c.CreatedAt = time.Now()
	m.credits = append(m.credits, *c)
	return nil
}

func (m *memRepo) ListCreditsByUser(_ context.Context, userID int64) ([]model.Credit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []model.Credit
	for _, c := range m.credits {
		if c.UserID == userID {
			res = append(res, c)
		}
	}
	return res, nil
}

func (m *memRepo) ListCredits(_ context.Context) ([]model.Credit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.credits), nil
}

func (m *memRepo) SumCreditsByUser(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, c := range m.credits {
		if c.UserID == userID {
			sum += c.Amount
		}
	}
	return sum, nil
}

func (m *memRepo) CreateNotification(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notificationCalls++
	if m.notifyErr != nil {
		return m.notifyErr
	}
	n.ID = m.id()
	n.CreatedAt = time.Now()
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *memRepo) ListNotifications(_ context.Context, userID int64, category *model.Category) ([]model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []model.Notification
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
		if n.UserID == userID && (category == nil || n.Category == *category) {
			res = append(res, n)
		}
	}
	return res, nil
}

func (m *memRepo) MarkNotificationRead(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].ID == id && m.notifications[i].UserID == userID {
			m.notifications[i].IsRead = true
			return nil
		}
	}
	return repository.ErrNotificationNotFound
}

func (m *memRepo) MarkAllNotificationsRead(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.notifications {
		if m.notifications[i].UserID == userID && !m.notifications[i].IsRead {
			m.notifications[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *memRepo) CountUnreadNotifications(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, rec := range m.notifications {
		if rec.UserID == userID && !rec.IsRead {
			n++
		}
	}
	return n, nil
}
