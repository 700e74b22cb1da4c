package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/kleanloop/internal/model"
	"github.com/mmeshcher/kleanloop/internal/repository"
	"github.com/mmeshcher/kleanloop/internal/tier"
	"github.com/mmeshcher/kleanloop/internal/validation"
)

// RegisterRequest данные регистрации.
type RegisterRequest struct {
	Email       string
	Password    string
	Name        string
	Kind        model.AccountKind
	CompanyName string
}

// Profile сводка по пользователю: уровень, прогресс и статистика.
type Profile struct {
	User         *model.User
	Tier         tier.Info
	NextTier     *tier.Info
	Progress     float64
	PointsToNext int64
	Suspended    bool
	Stats        model.UserStats
}

// RegisterUser регистрирует нового пользователя с нулевым балансом баллов.
func (s *Service) RegisterUser(ctx context.Context, req RegisterRequest) (int64, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Kind == "" {
		req.Kind = model.AccountPersonal
	}

	switch {
	case !validation.IsValidEmail(req.Email):
		return 0, validationf("invalid email")
	case !validation.IsValidPassword(req.Password):
		return 0, validationf("password must be at least 6 characters")
	case !validation.IsValidName(req.Name):
		return 0, validationf("name is required")
	case !req.Kind.Valid():
		return 0, validationf("unknown account type %q", req.Kind)
	}

	u := &model.User{
		Email: req.Email,
		Name:  strings.TrimSpace(req.Name),
		Kind:  req.Kind,
		Tier:  tier.ForAccount(req.Kind, 0).Tier,
	}
	if req.Kind == model.AccountCorporate {
		company := strings.TrimSpace(req.CompanyName)
		if company == "" {
			return 0, validationf("company name is required for corporate accounts")
		}
		u.CompanyName = &company
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hashed

	id, err := s.repo.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return 0, repository.ErrUserExists
		}
		return 0, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", id), zap.String("kind", string(req.Kind)))
	return id, nil
}

// AuthenticateUser проверяет email и пароль пользователя и возвращает его идентификатор.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (int64, error) {
	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return 0, ErrInvalidCredentials
	}

	return u.ID, nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Service) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	return u, err
}

// GetProfile возвращает профиль пользователя. Корпоративные аккаунты не участвуют в лестнице
// уровней, для них прогресс всегда 100.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.GetUserStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}

	p := &Profile{
		User:      u,
		Tier:      tier.ForAccount(u.Kind, u.Points),
		Suspended: u.Suspended(),
		Stats:     stats,
		Progress:  100,
	}
	if u.Kind == model.AccountPersonal {
		p.Progress = tier.Progress(u.Points)
		p.PointsToNext = tier.PointsToNext(u.Points)
		if next, ok := tier.Next(p.Tier.Tier); ok {
			p.NextTier = &next
		}
	}
	return p, nil
}
