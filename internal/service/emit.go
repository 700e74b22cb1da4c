package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/kleanloop/internal/model"
)

// notice уведомление, которое отправляется только после фиксации перехода.
type notice struct {
	userID      int64
	title       string
	description string
	category    model.Category
}

// emitAll отправляет уведомления ровно по одному разу. Ошибки не откатывают уже зафиксированный
// переход: они логируются и возвращаются вызывающему, обёрнутые в ErrNotificationFailed.
func (s *Service) emitAll(ctx context.Context, notices []notice) error {
	if len(notices) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	var errs []error
	for _, n := range notices {
		if _, err := s.notifier.Emit(ctx, n.userID, n.title, n.description, n.category); err != nil {
			s.logger.Error("emit notification",
				zap.Int64("user_id", n.userID),
				zap.String("title", n.title),
				zap.String("category", string(n.category)),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrNotificationFailed, errors.Join(errs...))
	}
	return nil
}

// runTransition выполняет fn в транзакции. Если fn обнаружила уход баланса в минус,
// транзакция откатывается, а блокировка аккаунта записывается отдельно. Если за это время
// баланс изменился, fn выполняется заново.
func (s *Service) runTransition(ctx context.Context, fn func(ctx context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := s.repo.InTx(ctx, fn)

		var se *SuspensionError
		if !errors.As(err, &se) || !se.pending {
			return err
		}

		serr := s.ledger.Suspend(ctx, se.UserID, se.delta)
		if errors.Is(serr, errBalanceChanged) && attempt < maxTransitionAttempts {
			s.logger.Info("balance changed before suspension, retrying transition",
				zap.Int64("user_id", se.UserID),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if serr != nil {
			s.logger.Error("suspend account", zap.Int64("user_id", se.UserID), zap.Error(serr))
			return errors.Join(err, serr)
		}
		s.logger.Warn("account suspended", zap.Int64("user_id", se.UserID))
		return err
	}
}

// tierNotice формирует уведомление о смене уровня.
func tierNotice(res LedgerResult) (notice, bool) {
	if !res.TierChanged {
		return notice{}, false
	}

	info := tierInfo(res.NewTier)
	if res.Upgraded() {
		return notice{
			userID: res.User.ID,
			title:  fmt.Sprintf("Tier upgraded to %s", info.Name),
			description: fmt.Sprintf("You are now %s: minimum order %s kg, price bonus +%s%%, %s pickup priority",
				info.Name, info.MinWeight.String(), info.BonusPercent().String(), info.Priority),
			category: model.CategoryReward,
		}, true
	}

	return notice{
		userID: res.User.ID,
		title:  fmt.Sprintf("Tier changed to %s", info.Name),
		description: fmt.Sprintf("Your tier is now %s: minimum order %s kg, price bonus +%s%%",
			info.Name, info.MinWeight.String(), info.BonusPercent().String()),
		category: model.CategorySystem,
	}, true
}
