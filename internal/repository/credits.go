package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/kleanloop/internal/model"
)

const creditColumns = `id, user_id, package_id, amount, price_per_credit, total_price, certificate_ref, created_at`

func collectCredits(rows pgx.Rows) ([]model.Credit, error) {
	defer rows.Close()

	var res []model.Credit
	for rows.Next() {
		var c model.Credit
		if err := rows.Scan(&c.ID, &c.UserID, &c.PackageID, &c.Amount, &c.PricePerCredit, &c.TotalPrice, &c.CertificateRef, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan credit: %w", err)
		}
		res = append(res, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// CreateCredit сохраняет покупку кредитов и заполняет её идентификатор и время создания.
func (r *PostgresRepository) CreateCredit(ctx context.Context, c *model.Credit) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO credits (user_id, package_id, amount, price_per_credit, total_price, certificate_ref)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		c.UserID, c.PackageID, c.Amount, c.PricePerCredit, c.TotalPrice, c.CertificateRef,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert credit: %w", err)
	}
	return nil
}

// ListCreditsByUser возвращает покупки пользователя, новые первыми.
func (r *PostgresRepository) ListCreditsByUser(ctx context.Context, userID int64) ([]model.Credit, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+creditColumns+` FROM credits WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select credits: %w", err)
	}
	return collectCredits(rows)
}

// ListCredits возвращает все покупки кредитов.
func (r *PostgresRepository) ListCredits(ctx context.Context) ([]model.Credit, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+creditColumns+` FROM credits ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select credits: %w", err)
	}
	return collectCredits(rows)
}

// SumCreditsByUser возвращает суммарный объём купленных пользователем кредитов в килограммах.
func (r *PostgresRepository) SumCreditsByUser(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM credits WHERE user_id = $1`,
		userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum credits: %w", err)
	}
	return total, nil
}
