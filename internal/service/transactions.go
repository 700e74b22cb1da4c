package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/kleanloop/internal/model"
	"github.com/mmeshcher/kleanloop/internal/pricing"
	"github.com/mmeshcher/kleanloop/internal/repository"
	"github.com/mmeshcher/kleanloop/internal/tier"
	"github.com/mmeshcher/kleanloop/internal/validation"
)

// CancelPenalty баллы, списываемые за отмену заявки продавцом.
const CancelPenalty int64 = 50

// SellOrderRequest входные данные новой заявки. Material nil означает определение по фото.
type SellOrderRequest struct {
	Weight   decimal.Decimal
	PhotoRef string
	Material *model.Material
}

// TransitionResult результат перехода заявки. NotifyErr заполнен, если переход зафиксирован,
// но часть уведомлений записать не удалось.
type TransitionResult struct {
	Transaction *model.Transaction
	Points      int64
	Tier        model.Tier
	PointsDelta int64
	TierChanged bool
	NotifyErr   error
}

// Quote предварительная оценка заявки по текущему уровню пользователя.
type Quote struct {
	Material     model.Material
	Weight       decimal.Decimal
	Breakdown    pricing.Breakdown
	Tier         tier.Info
	MeetsMinimum bool
	Points       int64
}

func tierInfo(t model.Tier) tier.Info {
	info, _ := tier.Lookup(t)
	return info
}

func checkSeller(u *model.User) error {
	if u.Kind != model.AccountPersonal {
		return fmt.Errorf("%w: only personal accounts can sell plastic", ErrForbidden)
	}
	if u.Suspended() {
		return &SuspensionError{UserID: u.ID}
	}
	return nil
}

func (s *Service) lockUser(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.repo.LockUser(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	return u, err
}

func (s *Service) lockTransaction(ctx context.Context, id int64) (*model.Transaction, error) {
	t, err := s.repo.LockTransaction(ctx, id)
	if errors.Is(err, repository.ErrTransactionNotFound) {
		return nil, fmt.Errorf("%w: transaction %d", ErrNotFound, id)
	}
	return t, err
}

func (s *Service) resolveMaterial(ctx context.Context, req SellOrderRequest) (model.Material, error) {
	if req.Material != nil {
		return *req.Material, nil
	}
	if s.classifier == nil {
		return "", validationf("material is required")
	}

	m, err := s.classifier.Classify(ctx, req.PhotoRef)
	if err != nil {
		s.logger.Warn("classify photo", zap.String("photo_ref", req.PhotoRef), zap.Error(err))
		return "", validationf("material could not be determined from photo, specify it explicitly")
	}
	return m, nil
}

// CreateSellOrder создаёт заявку в статусе pending по цене текущего уровня и начисляет
// floor(weight*10) баллов. Уведомление о вывозе и, при смене уровня, о новом уровне
// отправляются после фиксации.
func (s *Service) CreateSellOrder(ctx context.Context, userID int64, req SellOrderRequest) (*TransitionResult, error) {
	if !validation.IsValidWeight(req.Weight) {
		return nil, validationf("weight must be positive and at most 10000 kg, got %s", req.Weight)
	}
	if !validation.IsValidPhotoRef(req.PhotoRef) {
		return nil, validationf("photo reference is required")
	}
	if req.Material != nil && !req.Material.Valid() {
		return nil, validationf("unknown material %q", *req.Material)
	}

	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := checkSeller(u); err != nil {
		return nil, err
	}

	material, err := s.resolveMaterial(ctx, req)
	if err != nil {
		return nil, err
	}

	var (
		created *model.Transaction
		res     LedgerResult
	)
	err = s.runTransition(ctx, func(ctx context.Context) error {
		u, err := s.lockUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := checkSeller(u); err != nil {
			return err
		}

		info := tier.ForAccount(u.Kind, u.Points)
		if req.Weight.LessThan(info.MinWeight) {
			return &MinWeightError{Tier: info.Tier, MinWeight: info.MinWeight, Weight: req.Weight}
		}

		b, err := pricing.Calculate(material, req.Weight, info.Multiplier)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}

		t := &model.Transaction{
			UserID:     u.ID,
			Material:   material,
			Weight:     req.Weight,
			PricePerKg: b.PricePerKg,
			BasePrice:  b.BasePrice,
			TierBonus:  b.TierBonus,
			ServiceFee: b.ServiceFee,
			Total:      b.Total,
			Status:     model.StatusPending,
			PhotoRef:   req.PhotoRef,
		}
		if err := s.repo.CreateTransaction(ctx, t); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		res, err = s.ledger.Apply(ctx, u, pricing.PointsForWeight(req.Weight))
		if err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sell order created",
		zap.Int64("transaction_id", created.ID),
		zap.Int64("user_id", userID),
		zap.String("material", string(material)),
		zap.String("weight", created.Weight.String()),
		zap.String("total", created.Total.String()),
	)

	notices := []notice{{
		userID:      userID,
		title:       "Pickup scheduled",
		description: fmt.Sprintf("%s %s kg - pickup in about 2-3 hours, estimated payout %s THB", material, created.Weight.String(), formatMoney(created.Total)),
		category:    model.CategoryPickup,
	}}
	if n, ok := tierNotice(res); ok {
		notices = append(notices, n)
	}

	return s.transitionResult(ctx, created, res, pricing.PointsForWeight(req.Weight), notices), nil
}

// CancelSellOrder отменяет заявку владельцем и списывает CancelPenalty баллов.
func (s *Service) CancelSellOrder(ctx context.Context, userID, transactionID int64) (*TransitionResult, error) {
	var (
		updated *model.Transaction
		res     LedgerResult
	)
	err := s.runTransition(ctx, func(ctx context.Context) error {
		t, err := s.lockTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if t.UserID != userID {
			return fmt.Errorf("%w: transaction %d belongs to another user", ErrForbidden, transactionID)
		}
		if t.Status != model.StatusPending {
			return &StateConflictError{TransactionID: t.ID, Status: t.Status}
		}

		u, err := s.lockUser(ctx, userID)
		if err != nil {
			return err
		}
		if u.Suspended() {
			return &SuspensionError{UserID: u.ID}
		}

		if err := s.repo.UpdateTransactionStatus(ctx, t.ID, model.StatusCancelled); err != nil {
			return fmt.Errorf("cancel transaction: %w", err)
		}

		res, err = s.ledger.Apply(ctx, u, -CancelPenalty)
		if err != nil {
			return err
		}
		t.Status = model.StatusCancelled
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sell order cancelled",
		zap.Int64("transaction_id", transactionID),
		zap.Int64("user_id", userID),
	)

	notices := []notice{{
		userID:      userID,
		title:       "Order cancelled",
		description: fmt.Sprintf("Order #%d was cancelled, %d reputation points deducted", transactionID, CancelPenalty),
		category:    model.CategorySystem,
	}}
	if n, ok := tierNotice(res); ok {
		notices = append(notices, n)
	}

	return s.transitionResult(ctx, updated, res, -CancelPenalty, notices), nil
}

// ApproveSellOrder переводит заявку в completed после вывоза. Баллы не меняются:
// они начислены при создании.
func (s *Service) ApproveSellOrder(ctx context.Context, transactionID int64) (*TransitionResult, error) {
	var (
		updated *model.Transaction
		owner   *model.User
	)
	err := s.runTransition(ctx, func(ctx context.Context) error {
		t, err := s.lockTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if t.Status != model.StatusPending {
			return &StateConflictError{TransactionID: t.ID, Status: t.Status}
		}

		if err := s.repo.UpdateTransactionStatus(ctx, t.ID, model.StatusCompleted); err != nil {
			return fmt.Errorf("complete transaction: %w", err)
		}

		u, err := s.repo.GetUserByID(ctx, t.UserID)
		if err != nil {
			return fmt.Errorf("load transaction owner: %w", err)
		}
		t.Status = model.StatusCompleted
		updated, owner = t, u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sell order completed", zap.Int64("transaction_id", transactionID))

	notices := []notice{{
		userID:      updated.UserID,
		title:       "Purchase completed",
		description: fmt.Sprintf("%s %s kg collected, %s THB paid out", updated.Material, updated.Weight.String(), formatMoney(updated.Total)),
		category:    model.CategoryReward,
	}}

	return s.transitionResult(ctx, updated, LedgerResult{User: owner, OldTier: owner.Tier, NewTier: owner.Tier}, 0, notices), nil
}

// RejectSellOrder отменяет заявку оператором и возвращает баллы, начисленные при создании.
func (s *Service) RejectSellOrder(ctx context.Context, transactionID int64) (*TransitionResult, error) {
	var (
		updated *model.Transaction
		res     LedgerResult
		delta   int64
	)
	err := s.runTransition(ctx, func(ctx context.Context) error {
		t, err := s.lockTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if t.Status != model.StatusPending {
			return &StateConflictError{TransactionID: t.ID, Status: t.Status}
		}

		u, err := s.lockUser(ctx, t.UserID)
		if err != nil {
			return err
		}
		if u.Suspended() {
			return &SuspensionError{UserID: u.ID}
		}

		if err := s.repo.UpdateTransactionStatus(ctx, t.ID, model.StatusCancelled); err != nil {
			return fmt.Errorf("reject transaction: %w", err)
		}

		delta = -pricing.PointsForWeight(t.Weight)
		res, err = s.ledger.Apply(ctx, u, delta)
		if err != nil {
			return err
		}
		t.Status = model.StatusCancelled
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sell order rejected",
		zap.Int64("transaction_id", transactionID),
		zap.Int64("user_id", updated.UserID),
		zap.Int64("points_delta", delta),
	)

	notices := []notice{{
		userID:      updated.UserID,
		title:       "Order rejected",
		description: fmt.Sprintf("Order #%d was rejected after inspection, %d reputation points reversed", transactionID, -delta),
		category:    model.CategorySystem,
	}}
	if n, ok := tierNotice(res); ok {
		notices = append(notices, n)
	}

	return s.transitionResult(ctx, updated, res, delta, notices), nil
}

func (s *Service) transitionResult(ctx context.Context, t *model.Transaction, res LedgerResult, delta int64, notices []notice) *TransitionResult {
	out := &TransitionResult{
		Transaction: t,
		PointsDelta: delta,
		TierChanged: res.TierChanged,
		NotifyErr:   s.emitAll(ctx, notices),
	}
	if res.User != nil {
		out.Points = res.User.Points
		out.Tier = res.User.Tier
	}
	return out
}

// QuoteSellOrder рассчитывает цену так же, как при создании заявки, ничего не записывая.
func (s *Service) QuoteSellOrder(ctx context.Context, userID int64, material model.Material, weight decimal.Decimal) (*Quote, error) {
	if !material.Valid() {
		return nil, validationf("unknown material %q", material)
	}
	if !validation.IsValidWeight(weight) {
		return nil, validationf("weight must be positive and at most 10000 kg, got %s", weight)
	}

	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	info := tier.ForAccount(u.Kind, u.Points)
	b, err := pricing.Calculate(material, weight, info.Multiplier)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return &Quote{
		Material:     material,
		Weight:       weight,
		Breakdown:    b,
		Tier:         info,
		MeetsMinimum: weight.GreaterThanOrEqual(info.MinWeight),
		Points:       pricing.PointsForWeight(weight),
	}, nil
}

// GetTransaction возвращает заявку владельца. Чужая заявка неотличима от отсутствующей.
func (s *Service) GetTransaction(ctx context.Context, userID, transactionID int64) (*model.Transaction, error) {
	t, err := s.repo.GetTransaction(ctx, transactionID)
	if errors.Is(err, repository.ErrTransactionNotFound) || (err == nil && t.UserID != userID) {
		return nil, fmt.Errorf("%w: transaction %d", ErrNotFound, transactionID)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTransactions возвращает заявки пользователя, новые первыми.
func (s *Service) ListTransactions(ctx context.Context, userID int64) ([]model.Transaction, error) {
	return s.repo.ListTransactionsByUser(ctx, userID)
}

// ListAllTransactions возвращает заявки всех пользователей для оператора, при заданном status только в этом статусе.
func (s *Service) ListAllTransactions(ctx context.Context, status *model.TransactionStatus) ([]model.Transaction, error) {
	if status != nil && !status.Valid() {
		return nil, validationf("unknown status %q", *status)
	}
	return s.repo.ListTransactions(ctx, status)
}
