package enrollment

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/upskillvod/checkout/validate"
)

// Create inserts an enrollment unless an active one already exists for the
// (user, course) pair. The partial unique index absorbs the duplicate: a
// double-approval race leaves exactly one row, and the second writer sees
// created=false rather than an error.
func Create(ctx context.Context, db sqlx.ExtContext, e Enrollment) (created bool, err error) {
	const q = `
	INSERT INTO enrollments
		(enrollment_id, user_id, course_id, payment_status, total, status, created_at, updated_at)
	VALUES
		(:enrollment_id, :user_id, :course_id, :payment_status, :total, :status, :created_at, :updated_at)
	ON CONFLICT (user_id, course_id) WHERE status = 'active' DO NOTHING`

	res, err := sqlx.NamedExecContext(ctx, db, q, e)
	if err != nil {
		return false, fmt.Errorf("inserting enrollment of user[%s] in course[%s]: %w", e.UserID, e.CourseID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking enrollment insert: %w", err)
	}

	return n == 1, nil
}

// New builds an active enrollment row for a settled payment chain.
func New(userID string, courseID string, ps PaymentStatus, total int) Enrollment {
	now := time.Now().UTC()
	return Enrollment{
		ID:            validate.GenerateID(),
		UserID:        userID,
		CourseID:      courseID,
		PaymentStatus: ps,
		Total:         total,
		Status:        Active,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func ActiveExists(ctx context.Context, db sqlx.ExtContext, userID string, courseID string) (bool, error) {
	const q = `
	SELECT EXISTS (
		SELECT 1 FROM enrollments
		WHERE user_id = $1 AND course_id = $2 AND status = 'active'
	)`

	var exists bool
	if err := sqlx.GetContext(ctx, db, &exists, q, userID, courseID); err != nil {
		return false, fmt.Errorf("checking enrollment of user[%s] in course[%s]: %w", userID, courseID, err)
	}

	return exists, nil
}

// Revoke reverses eligibility after a refund. The row stays for audit.
func Revoke(ctx context.Context, db sqlx.ExtContext, userID string, courseID string) error {
	const q = `
	UPDATE enrollments SET
		status = 'revoked',
		payment_status = 'refunded',
		updated_at = $3
	WHERE user_id = $1 AND course_id = $2 AND status = 'active'`

	if _, err := db.ExecContext(ctx, q, userID, courseID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoking enrollment of user[%s] in course[%s]: %w", userID, courseID, err)
	}

	return nil
}

func FetchByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]Enrollment, error) {
	const q = `SELECT * FROM enrollments WHERE user_id = $1 ORDER BY created_at`

	es := []Enrollment{}
	if err := sqlx.SelectContext(ctx, db, &es, q, userID); err != nil {
		return nil, fmt.Errorf("selecting enrollments of user[%s]: %w", userID, err)
	}

	return es, nil
}
