package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/mmeshcher/kleanloop/internal/credit"
	"github.com/mmeshcher/kleanloop/internal/model"
)

// PurchaseResult результат покупки кредитов.
type PurchaseResult struct {
	Credit    *model.Credit
	Package   credit.Package
	NotifyErr error
}

func certificateRef() string {
	return fmt.Sprintf("/certificates/cert-%s.pdf", ulid.Make().String())
}

// PurchaseCredits покупает пакет кредитов для корпоративного аккаунта. Для packageID == "custom"
// объём задаётся customAmount. Проверка типа аккаунта выполняется до любой записи.
func (s *Service) PurchaseCredits(ctx context.Context, userID int64, packageID string, customAmount int64) (*PurchaseResult, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Kind != model.AccountCorporate {
		return nil, fmt.Errorf("%w: only corporate accounts can purchase credits", ErrForbidden)
	}

	pkg, err := credit.Resolve(packageID, customAmount)
	if err != nil {
		if errors.Is(err, credit.ErrUnknownPackage) || errors.Is(err, credit.ErrInvalidAmount) {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return nil, err
	}

	c := &model.Credit{
		UserID:         userID,
		PackageID:      pkg.ID,
		Amount:         pkg.Amount,
		PricePerCredit: pkg.PricePerCredit,
		TotalPrice:     pkg.TotalPrice(),
		CertificateRef: certificateRef(),
	}
	if err := s.repo.CreateCredit(ctx, c); err != nil {
		return nil, fmt.Errorf("create credit: %w", err)
	}

	s.logger.Info("credits purchased",
		zap.Int64("credit_id", c.ID),
		zap.Int64("user_id", userID),
		zap.String("package", pkg.ID),
		zap.Int64("amount", pkg.Amount),
	)

	notifyErr := s.emitAll(ctx, []notice{{
		userID:      userID,
		title:       "Plastic credits purchased",
		description: fmt.Sprintf("Purchased %s kg credits for %s THB", formatCount(c.Amount), formatMoney(c.TotalPrice)),
		category:    model.CategorySystem,
	}})

	return &PurchaseResult{Credit: c, Package: pkg, NotifyErr: notifyErr}, nil
}

// CreditPackages возвращает каталог фиксированных пакетов.
func (s *Service) CreditPackages() []credit.Package {
	return credit.Packages()
}

// ListCredits возвращает покупки кредитов пользователя.
func (s *Service) ListCredits(ctx context.Context, userID int64) ([]model.Credit, error) {
	return s.repo.ListCreditsByUser(ctx, userID)
}

// ListAllCredits возвращает покупки всех пользователей для оператора.
func (s *Service) ListAllCredits(ctx context.Context) ([]model.Credit, error) {
	return s.repo.ListCredits(ctx)
}

// TotalCredits возвращает суммарный объём купленных пользователем кредитов, кг.
func (s *Service) TotalCredits(ctx context.Context, userID int64) (int64, error) {
	return s.repo.SumCreditsByUser(ctx, userID)
}
