package payment

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// IntegrityReport counts rows violating the attempt invariants. Every field
// must be zero on a healthy store; anything else is a structural bug to be
// surfaced, never silently tolerated.
type IntegrityReport struct {
	AwaitingWithoutReceipt int `json:"awaitingWithoutReceipt" db:"awaiting_without_receipt"`
	PaidWithoutReviewer    int `json:"paidWithoutReviewer" db:"paid_without_reviewer"`
	NonManualMethod        int `json:"nonManualMethod" db:"non_manual_method"`
	OrphanedAttempts       int `json:"orphanedAttempts" db:"orphaned_attempts"`
}

func (r IntegrityReport) Clean() bool {
	return r == IntegrityReport{}
}

func CheckIntegrity(ctx context.Context, db sqlx.ExtContext) (IntegrityReport, error) {
	const q = `
	SELECT
		(SELECT COUNT(*) FROM payment_attempts
			WHERE status = 'awaiting_admin_approval' AND receipt_image_url IS NULL) AS awaiting_without_receipt,
		(SELECT COUNT(*) FROM payment_attempts
			WHERE status = 'paid' AND reviewer_id IS NULL) AS paid_without_reviewer,
		(SELECT COUNT(*) FROM payment_attempts
			WHERE method <> 'manual') AS non_manual_method,
		(SELECT COUNT(*) FROM payment_attempts p
			WHERE NOT EXISTS (SELECT 1 FROM orders o WHERE o.order_id = p.order_id)) AS orphaned_attempts`

	var rep IntegrityReport
	if err := sqlx.GetContext(ctx, db, &rep, q); err != nil {
		return IntegrityReport{}, fmt.Errorf("running integrity checks: %w", err)
	}

	return rep, nil
}
