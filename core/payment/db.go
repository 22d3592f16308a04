package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/upskillvod/checkout/database"
)

func Create(ctx context.Context, db sqlx.ExtContext, a Attempt) error {
	const q = `
	INSERT INTO payment_attempts
		(attempt_id, order_id, user_id, amount, method, status, tracking_code, deadline, created_at, updated_at)
	VALUES
		(:attempt_id, :order_id, :user_id, :amount, :method, :status, :tracking_code, :deadline, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, a); err != nil {
		return fmt.Errorf("inserting attempt for order[%s]: %w", a.OrderID, err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Attempt, error) {
	const q = `SELECT * FROM payment_attempts WHERE attempt_id = $1`

	var a Attempt
	if err := sqlx.GetContext(ctx, db, &a, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, database.ErrNotFound
		}
		return Attempt{}, fmt.Errorf("selecting attempt[%s]: %w", id, err)
	}

	if err := a.CheckMethod(); err != nil {
		return Attempt{}, err
	}

	return a, nil
}

func FetchByOrder(ctx context.Context, db sqlx.ExtContext, orderID string) ([]Attempt, error) {
	const q = `SELECT * FROM payment_attempts WHERE order_id = $1 ORDER BY created_at`

	as := []Attempt{}
	if err := sqlx.SelectContext(ctx, db, &as, q, orderID); err != nil {
		return nil, fmt.Errorf("selecting attempts of order[%s]: %w", orderID, err)
	}

	for _, a := range as {
		if err := a.CheckMethod(); err != nil {
			return nil, err
		}
	}

	return as, nil
}

// FetchOpenByOrder returns the one non-settled attempt of the order, if any.
func FetchOpenByOrder(ctx context.Context, db sqlx.ExtContext, orderID string) (Attempt, error) {
	const q = `
	SELECT * FROM payment_attempts
	WHERE order_id = $1
	  AND status IN ('draft', 'pending_payment', 'awaiting_receipt_upload', 'awaiting_admin_approval')`

	var a Attempt
	if err := sqlx.GetContext(ctx, db, &a, q, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, database.ErrNotFound
		}
		return Attempt{}, fmt.Errorf("selecting open attempt of order[%s]: %w", orderID, err)
	}

	if err := a.CheckMethod(); err != nil {
		return Attempt{}, err
	}

	return a, nil
}

// FetchAwaiting lists the admin review queue, oldest upload first.
func FetchAwaiting(ctx context.Context, db sqlx.ExtContext) ([]Attempt, error) {
	const q = `
	SELECT * FROM payment_attempts
	WHERE status = 'awaiting_admin_approval'
	ORDER BY receipt_uploaded_at`

	as := []Attempt{}
	if err := sqlx.SelectContext(ctx, db, &as, q); err != nil {
		return nil, fmt.Errorf("selecting attempts awaiting approval: %w", err)
	}

	return as, nil
}

// attachReceipt is the receipt-upload compare-and-swap. The status predicate
// makes concurrent writers race on rows affected instead of clobbering each
// other; zero rows means the attempt already left the uploadable states.
func attachReceipt(ctx context.Context, db sqlx.ExtContext, id string, up ReceiptUpload, at time.Time) (bool, error) {
	const q = `
	UPDATE payment_attempts SET
		status = $2,
		receipt_image_url = $3,
		receipt_filename = $4,
		receipt_uploaded_at = $5,
		updated_at = $6
	WHERE attempt_id = $1
	  AND status IN ('pending_payment', 'awaiting_receipt_upload')`

	res, err := db.ExecContext(ctx, q, id, AwaitingAdminApproval, up.ImageURL, up.Filename, at, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("attaching receipt to attempt[%s]: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking receipt update: %w", err)
	}

	return n == 1, nil
}

// settle is the admin-decision compare-and-swap out of awaiting approval.
func settle(ctx context.Context, db sqlx.ExtContext, id string, next Status, reviewerID string, reason *string) (bool, error) {
	const q = `
	UPDATE payment_attempts SET
		status = $2,
		reviewer_id = $3,
		decision_reason = $4,
		updated_at = $5
	WHERE attempt_id = $1
	  AND status = 'awaiting_admin_approval'`

	res, err := db.ExecContext(ctx, q, id, next, reviewerID, reason, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("settling attempt[%s]: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking settle update: %w", err)
	}

	return n == 1, nil
}

// markRefunded flips a paid attempt to refunded; the guard keeps it a CAS.
// reviewer_id and decision_reason stay with the approving admin: the row is
// the approval's audit record, the refund actor goes to the request log.
func markRefunded(ctx context.Context, db sqlx.ExtContext, id string) (bool, error) {
	const q = `
	UPDATE payment_attempts SET
		status = 'refunded',
		updated_at = $2
	WHERE attempt_id = $1 AND status = 'paid'`

	res, err := db.ExecContext(ctx, q, id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("refunding attempt[%s]: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking refund update: %w", err)
	}

	return n == 1, nil
}

// markExpired freezes one overdue attempt. Only the status and updated_at
// move: receipt and decision fields stay as the audit trail left them.
func markExpired(ctx context.Context, db sqlx.ExtContext, id string) (bool, error) {
	const q = `
	UPDATE payment_attempts SET
		status = 'expired',
		updated_at = $2
	WHERE attempt_id = $1
	  AND status IN ('draft', 'pending_payment', 'awaiting_receipt_upload', 'awaiting_admin_approval')
	  AND deadline < $3`

	now := time.Now().UTC()
	res, err := db.ExecContext(ctx, q, id, now, now)
	if err != nil {
		return false, fmt.Errorf("expiring attempt[%s]: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking expire update: %w", err)
	}

	return n == 1, nil
}

// expireAllDue is the maintenance sweep used by the background task.
func expireAllDue(ctx context.Context, db sqlx.ExtContext) (int64, error) {
	const q = `
	UPDATE payment_attempts SET
		status = 'expired',
		updated_at = $1
	WHERE status IN ('draft', 'pending_payment', 'awaiting_receipt_upload', 'awaiting_admin_approval')
	  AND deadline < $1`

	res, err := db.ExecContext(ctx, q, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expiring overdue attempts: %w", err)
	}

	return res.RowsAffected()
}
