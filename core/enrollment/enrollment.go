package enrollment

import "time"

type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "paid"
	PaymentFree     PaymentStatus = "free"
	PaymentRefunded PaymentStatus = "refunded"
)

type Status string

const (
	Active  Status = "active"
	Revoked Status = "revoked"
)

// Enrollment is the durable grant of course access. Rows are written once a
// payment chain succeeds (or directly for free courses) and are revoked, not
// deleted, on refund.
type Enrollment struct {
	ID            string        `json:"id" db:"enrollment_id"`
	UserID        string        `json:"userId" db:"user_id"`
	CourseID      string        `json:"courseId" db:"course_id"`
	PaymentStatus PaymentStatus `json:"paymentStatus" db:"payment_status"`
	Total         int           `json:"total" db:"total"`
	Status        Status        `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time     `json:"updatedAt" db:"updated_at"`
}
