package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mmeshcher/kleanloop/internal/model"
)

const userColumns = `id, email, password_hash, name, kind, company_name, points, tier, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u    model.User
		kind string
		tier string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &kind, &u.CompanyName, &u.Points, &tier, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Kind = model.AccountKind(kind)
	u.Tier = model.Tier(tier)
	return &u, nil
}

// CreateUser создаёт нового пользователя и возвращает его идентификатор.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) (int64, error) {
	var id int64
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO users (email, password_hash, name, kind, company_name, points, tier)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		u.Email, u.PasswordHash, u.Name, string(u.Kind), u.CompanyName, u.Points, string(u.Tier),
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrUserExists, u.Email)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GetUserByEmail возвращает пользователя по email.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// LockUser читает пользователя с блокировкой строки до конца текущей транзакции.
// Блокировка сериализует изменения баллов одного пользователя.
func (r *PostgresRepository) LockUser(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lock user for update: %w", err)
	}
	return u, nil
}

// SetUserPoints записывает баланс баллов и уровень пользователя.
func (r *PostgresRepository) SetUserPoints(ctx context.Context, id int64, points int64, tier model.Tier) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE users SET points = $2, tier = $3 WHERE id = $1`,
		id, points, string(tier),
	)
	if err != nil {
		return fmt.Errorf("update user points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetUserStats возвращает агрегаты по завершённым продажам и купленным кредитам пользователя.
func (r *PostgresRepository) GetUserStats(ctx context.Context, userID int64) (model.UserStats, error) {
	var stats model.UserStats
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(weight), 0), COALESCE(SUM(total), 0)
		 FROM transactions
		 WHERE user_id = $1 AND status = $2`,
		userID, string(model.StatusCompleted),
	).Scan(&stats.TotalSales, &stats.TotalKg, &stats.TotalEarnings)
	if err != nil {
		return model.UserStats{}, fmt.Errorf("sum transactions: %w", err)
	}

	stats.TotalCredits, err = r.SumCreditsByUser(ctx, userID)
	if err != nil {
		return model.UserStats{}, err
	}

	return stats, nil
}
