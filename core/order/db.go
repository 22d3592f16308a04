package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/upskillvod/checkout/database"
)

func Create(ctx context.Context, db sqlx.ExtContext, o Order) error {
	const q = `
	INSERT INTO orders
		(order_id, user_id, cart_id, idempotency_key, snapshot, total, status, expires_at, created_at, updated_at)
	VALUES
		(:order_id, :user_id, :cart_id, :idempotency_key, :snapshot, :total, :status, :expires_at, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, o); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Order, error) {
	const q = `SELECT * FROM orders WHERE order_id = $1`

	var o Order
	if err := sqlx.GetContext(ctx, db, &o, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, database.ErrNotFound
		}
		return Order{}, fmt.Errorf("selecting order[%s]: %w", id, err)
	}

	return o, nil
}

// FetchByKey returns the non-expired order persisted for (user, key), the one
// an idempotent replay must resolve to.
func FetchByKey(ctx context.Context, db sqlx.ExtContext, userID string, key string) (Order, error) {
	const q = `
	SELECT * FROM orders
	WHERE user_id = $1 AND idempotency_key = $2 AND status <> 'expired'`

	var o Order
	if err := sqlx.GetContext(ctx, db, &o, q, userID, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, database.ErrNotFound
		}
		return Order{}, fmt.Errorf("selecting order by idempotency key: %w", err)
	}

	return o, nil
}

func FetchByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]Order, error) {
	const q = `SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	os := []Order{}
	if err := sqlx.SelectContext(ctx, db, &os, q, userID); err != nil {
		return nil, fmt.Errorf("selecting orders of user[%s]: %w", userID, err)
	}

	return os, nil
}

func UpdateStatus(ctx context.Context, db sqlx.ExtContext, id string, s Status) error {
	const q = `UPDATE orders SET status = $2, updated_at = $3 WHERE order_id = $1`

	if _, err := db.ExecContext(ctx, q, id, s, time.Now().UTC()); err != nil {
		return fmt.Errorf("updating status of order[%s]: %w", id, err)
	}

	return nil
}

// ExpireAllDue is the order half of the maintenance sweep.
func ExpireAllDue(ctx context.Context, db sqlx.ExtContext) (int64, error) {
	const q = `
	UPDATE orders SET status = 'expired', updated_at = $1
	WHERE status = 'pending_payment' AND expires_at < $1`

	res, err := db.ExecContext(ctx, q, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expiring overdue orders: %w", err)
	}

	return res.RowsAffected()
}

// MarkExpired transitions a pending order to expired, releasing its
// idempotency key. The status guard keeps a concurrent completion safe: a
// paid order never expires.
func MarkExpired(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `
	UPDATE orders SET status = 'expired', updated_at = $2
	WHERE order_id = $1 AND status = 'pending_payment'`

	if _, err := db.ExecContext(ctx, q, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("expiring order[%s]: %w", id, err)
	}

	return nil
}
