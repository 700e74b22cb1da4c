package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/kleanloop/internal/model"
)

const transactionColumns = `id, user_id, material, weight, price_per_kg, base_price, tier_bonus, service_fee, total, status, photo_ref, created_at, updated_at`

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var (
		t        model.Transaction
		material string
		status   string
	)
	err := row.Scan(
		&t.ID, &t.UserID, &material, &t.Weight, &t.PricePerKg, &t.BasePrice, &t.TierBonus,
		&t.ServiceFee, &t.Total, &status, &t.PhotoRef, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Material = model.Material(material)
	t.Status = model.TransactionStatus(status)
	return &t, nil
}

func collectTransactions(rows pgx.Rows) ([]model.Transaction, error) {
	defer rows.Close()

	var res []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		res = append(res, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// CreateTransaction сохраняет заявку и заполняет её идентификатор и время создания.
func (r *PostgresRepository) CreateTransaction(ctx context.Context, t *model.Transaction) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO transactions (user_id, material, weight, price_per_kg, base_price, tier_bonus, service_fee, total, status, photo_ref)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		t.UserID, string(t.Material), t.Weight, t.PricePerKg, t.BasePrice, t.TierBonus,
		t.ServiceFee, t.Total, string(t.Status), t.PhotoRef,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetTransaction возвращает заявку по идентификатору.
func (r *PostgresRepository) GetTransaction(ctx context.Context, id int64) (*model.Transaction, error) {
	t, err := scanTransaction(r.conn(ctx).QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// LockTransaction читает заявку с блокировкой строки до конца текущей транзакции.
func (r *PostgresRepository) LockTransaction(ctx context.Context, id int64) (*model.Transaction, error) {
	t, err := scanTransaction(r.conn(ctx).QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("lock transaction for update: %w", err)
	}
	return t, nil
}

// UpdateTransactionStatus меняет статус заявки.
func (r *PostgresRepository) UpdateTransactionStatus(ctx context.Context, id int64, status model.TransactionStatus) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE transactions SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// ListTransactionsByUser возвращает заявки пользователя, новые первыми.
func (r *PostgresRepository) ListTransactionsByUser(ctx context.Context, userID int64) ([]model.Transaction, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	return collectTransactions(rows)
}

// ListTransactions возвращает все заявки, при заданном status только с этим статусом.
func (r *PostgresRepository) ListTransactions(ctx context.Context, status *model.TransactionStatus) ([]model.Transaction, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status == nil {
		rows, err = r.conn(ctx).Query(ctx,
			`SELECT `+transactionColumns+` FROM transactions ORDER BY created_at DESC`,
		)
	} else {
		rows, err = r.conn(ctx).Query(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE status = $1 ORDER BY created_at DESC`,
			string(*status),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	return collectTransactions(rows)
}
