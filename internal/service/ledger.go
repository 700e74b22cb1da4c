package service

import (
	"context"
	"fmt"

	"github.com/mmeshcher/kleanloop/internal/model"
	"github.com/mmeshcher/kleanloop/internal/tier"
)

const suspendedPoints int64 = -1

type ledgerStore interface {
	TxRunner
	LockUser(ctx context.Context, id int64) (*model.User, error)
	SetUserPoints(ctx context.Context, id int64, points int64, tier model.Tier) error
}

// LedgerResult описывает результат изменения баланса баллов.
type LedgerResult struct {
	User        *model.User
	OldTier     model.Tier
	NewTier     model.Tier
	TierChanged bool
}

// Upgraded сообщает, что пользователь перешёл на более высокий уровень.
func (r LedgerResult) Upgraded() bool {
	return r.TierChanged && tier.Less(r.OldTier, r.NewTier)
}

// Ledger единственный путь изменения баллов репутации. После каждого изменения уровень
// пересчитывается из баллов, поэтому tier == tier.ForAccount(kind, points) всегда выполняется.
type Ledger struct {
	store ledgerStore
}

// NewLedger создаёт Ledger поверх хранилища пользователей.
func NewLedger(store ledgerStore) *Ledger {
	return &Ledger{store: store}
}

// Apply прибавляет delta к баллам пользователя u. Строка пользователя должна быть заблокирована
// в текущей транзакции. Если баланс уходит в минус, возвращается *SuspensionError и ничего не пишется:
// вызывающий откатывает транзакцию и фиксирует блокировку через Suspend.
func (l *Ledger) Apply(ctx context.Context, u *model.User, delta int64) (LedgerResult, error) {
	if u.Suspended() {
		return LedgerResult{}, &SuspensionError{UserID: u.ID}
	}

	points := u.Points + delta
	if points < 0 {
		return LedgerResult{}, &SuspensionError{UserID: u.ID, pending: true, delta: delta}
	}

	newTier := tier.ForAccount(u.Kind, points).Tier
	if err := l.store.SetUserPoints(ctx, u.ID, points, newTier); err != nil {
		return LedgerResult{}, fmt.Errorf("apply point delta: %w", err)
	}

	updated := *u
	updated.Points = points
	updated.Tier = newTier

	return LedgerResult{
		User:        &updated,
		OldTier:     u.Tier,
		NewTier:     newTier,
		TierChanged: u.Tier != newTier,
	}, nil
}

// Suspend записывает баллы -1 как признак блокировки, если баланс с delta всё ещё отрицательный.
// Если баланс успел вырасти, возвращается errBalanceChanged. Снять блокировку можно только вручную.
func (l *Ledger) Suspend(ctx context.Context, userID, delta int64) error {
	return l.store.InTx(ctx, func(ctx context.Context) error {
		u, err := l.store.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if u.Suspended() {
			return nil
		}
		if u.Points+delta >= 0 {
			return errBalanceChanged
		}
		return l.store.SetUserPoints(ctx, userID, suspendedPoints, tier.ForAccount(u.Kind, suspendedPoints).Tier)
	})
}
