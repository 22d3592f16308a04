package payment

import (
	"time"

	"github.com/upskillvod/checkout/core/integrity"
	"github.com/upskillvod/checkout/random"
	"github.com/upskillvod/checkout/validate"
)

// Method is fixed for this workflow. Any other stored value is structural
// corruption, surfaced by the integrity report rather than tolerated.
const Method = "manual"

// Attempt is one manual payment cycle against an order: receipt upload
// followed by a human admin decision. Settled attempts are audit-frozen; a
// retry is always a fresh row.
type Attempt struct {
	ID                string     `json:"id" db:"attempt_id"`
	OrderID           string     `json:"orderId" db:"order_id"`
	UserID            string     `json:"userId" db:"user_id"`
	Amount            int        `json:"amount" db:"amount"`
	Method            string     `json:"method" db:"method"`
	Status            Status     `json:"status" db:"status"`
	ReceiptImageURL   *string    `json:"receiptImageUrl" db:"receipt_image_url"`
	ReceiptFilename   *string    `json:"receiptFilename" db:"receipt_filename"`
	ReceiptUploadedAt *time.Time `json:"receiptUploadedAt" db:"receipt_uploaded_at"`
	ReviewerID        *string    `json:"reviewerId" db:"reviewer_id"`
	DecisionReason    *string    `json:"decisionReason" db:"decision_reason"`
	TrackingCode      string     `json:"trackingCode" db:"tracking_code"`
	Deadline          time.Time  `json:"deadline" db:"deadline"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time  `json:"updatedAt" db:"updated_at"`
}

// New builds an attempt already advanced through the initiate transition, so
// even construction goes through the central state machine.
func New(orderID string, userID string, amount int, window time.Duration) (Attempt, error) {
	next, err := Transition(Draft, EventInitiate)
	if err != nil {
		return Attempt{}, err
	}

	now := time.Now().UTC()
	return Attempt{
		ID:           validate.GenerateID(),
		OrderID:      orderID,
		UserID:       userID,
		Amount:       amount,
		Method:       Method,
		Status:       next,
		TrackingCode: random.TrackingCode(),
		Deadline:     now.Add(window),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Due reports whether the attempt outlived its window without resolution.
// Paid is non-terminal only so a refund can follow; a settled payment is a
// resolution and never expires.
func (a Attempt) Due(now time.Time) bool {
	return a.Status != Paid && !a.Status.Terminal() && now.After(a.Deadline)
}

// CheckMethod guards the fixed-method invariant on every read.
func (a Attempt) CheckMethod() error {
	if a.Method != Method {
		return integrity.Violationf("attempt[%s] carries method[%s], only %q is valid here", a.ID, a.Method, Method)
	}
	return nil
}

type ReceiptUpload struct {
	ImageURL string `json:"imageUrl" validate:"required,url"`
	Filename string `json:"filename" validate:"required"`
}

type Decision struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}
