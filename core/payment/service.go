package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/upskillvod/checkout/config"
	"github.com/upskillvod/checkout/core/enrollment"
	"github.com/upskillvod/checkout/core/order"
	"github.com/upskillvod/checkout/database"
)

// Initiate opens a payment cycle for a pending order. Initiating an order
// that already has an open attempt returns that attempt unchanged, so a
// double-click cannot fork the payment flow.
func Initiate(ctx context.Context, db *sqlx.DB, cfg config.Checkout, userID string, orderID string) (Attempt, error) {
	ord, err := order.Fetch(ctx, db, orderID)
	if err != nil {
		return Attempt{}, err
	}

	// Another user's order reads as missing rather than forbidden.
	if ord.UserID != userID {
		return Attempt{}, database.ErrNotFound
	}

	now := time.Now().UTC()
	if ord.Expired(now) {
		if err := order.MarkExpired(ctx, db, ord.ID); err != nil {
			return Attempt{}, err
		}
		return Attempt{}, fmt.Errorf("order[%s] has expired: %w", ord.ID, ErrInvalidState)
	}
	if ord.Status != order.PendingPayment {
		return Attempt{}, fmt.Errorf("order[%s] is %s: %w", ord.ID, ord.Status, ErrInvalidState)
	}

	open, err := FetchOpenByOrder(ctx, db, ord.ID)
	switch {
	case err == nil:
		if !open.Due(now) {
			return open, nil
		}
		if _, err := markExpired(ctx, db, open.ID); err != nil {
			return Attempt{}, err
		}
	case errors.Is(err, database.ErrNotFound):
	default:
		return Attempt{}, err
	}

	a, err := New(ord.ID, userID, ord.Total, cfg.AttemptWindow)
	if err != nil {
		return Attempt{}, err
	}

	if err := Create(ctx, db, a); err != nil {
		// Unique open-attempt index: a concurrent initiate won, use its row.
		if database.IsUniqueViolation(err) {
			return FetchOpenByOrder(ctx, db, ord.ID)
		}
		return Attempt{}, err
	}

	return a, nil
}

// UploadReceipt attaches the receipt triple (image, filename, upload time)
// in one write and moves the attempt to awaiting admin approval. Partial
// receipts never reach the store.
func UploadReceipt(ctx context.Context, db *sqlx.DB, attemptID string, up ReceiptUpload) (Attempt, error) {
	if strings.TrimSpace(up.ImageURL) == "" || strings.TrimSpace(up.Filename) == "" {
		return Attempt{}, ErrReceiptIncomplete
	}

	a, err := Fetch(ctx, db, attemptID)
	if err != nil {
		return Attempt{}, err
	}

	if a.Due(time.Now().UTC()) {
		if _, err := markExpired(ctx, db, a.ID); err != nil {
			return Attempt{}, err
		}
		return Attempt{}, fmt.Errorf("attempt[%s] has expired: %w", a.ID, ErrInvalidState)
	}

	if _, err := Transition(a.Status, EventUploadReceipt); err != nil {
		return Attempt{}, err
	}

	won, err := attachReceipt(ctx, db, a.ID, up, time.Now().UTC())
	if err != nil {
		return Attempt{}, err
	}
	if !won {
		// Lost a race with another writer; report against the fresh state.
		a, err = Fetch(ctx, db, attemptID)
		if err != nil {
			return Attempt{}, err
		}
		if _, terr := Transition(a.Status, EventUploadReceipt); terr != nil {
			return Attempt{}, terr
		}
		return Attempt{}, fmt.Errorf("attempt[%s] changed concurrently: %w", a.ID, ErrInvalidState)
	}

	return Fetch(ctx, db, attemptID)
}

// SubmitDecision settles an attempt under admin review. Approval marks the
// order completed and writes the enrollments in the same transaction as the
// status flip: either all of it lands or none of it does. A concurrent
// second decision observes the attempt already settled and gets the settled
// row back as a no-op.
func SubmitDecision(ctx context.Context, db *sqlx.DB, attemptID string, reviewerID string, d Decision) (Attempt, error) {
	if reviewerID == "" {
		return Attempt{}, errors.New("reviewer identifier is required")
	}
	if !d.Approve && strings.TrimSpace(d.Reason) == "" {
		return Attempt{}, ErrDecisionReasonRequired
	}

	a, err := Fetch(ctx, db, attemptID)
	if err != nil {
		return Attempt{}, err
	}

	if a.Due(time.Now().UTC()) {
		if _, err := markExpired(ctx, db, a.ID); err != nil {
			return Attempt{}, err
		}
		return Attempt{}, fmt.Errorf("attempt[%s] expired before review: %w", a.ID, ErrInvalidState)
	}

	ev := EventReject
	if d.Approve {
		ev = EventApprove
	}

	next, err := Transition(a.Status, ev)
	if err != nil {
		// The no-op path of a double decision: someone already settled it.
		if a.Status == Paid || a.Status == Failed {
			return a, nil
		}
		return Attempt{}, err
	}

	var reason *string
	if r := strings.TrimSpace(d.Reason); r != "" {
		reason = &r
	}

	var won bool
	err = database.Transaction(db, func(tx sqlx.ExtContext) error {
		var err error
		if won, err = settle(ctx, tx, a.ID, next, reviewerID, reason); err != nil {
			return err
		}
		if !won || next != Paid {
			return nil
		}

		ord, err := order.Fetch(ctx, tx, a.OrderID)
		if err != nil {
			return err
		}
		if err := order.UpdateStatus(ctx, tx, ord.ID, order.Completed); err != nil {
			return err
		}

		return order.EnrollAndClear(ctx, tx, ord, enrollment.PaymentPaid)
	})
	if err != nil {
		return Attempt{}, err
	}

	if !won {
		a, err = Fetch(ctx, db, attemptID)
		if err != nil {
			return Attempt{}, err
		}
		if a.Status == Paid || a.Status == Failed {
			return a, nil
		}
		return Attempt{}, fmt.Errorf("attempt[%s] left review concurrently: %w", a.ID, ErrInvalidState)
	}

	return Fetch(ctx, db, attemptID)
}

// Refund reverses a paid attempt: enrollments are revoked, never deleted, and
// the order keeps its snapshot as the audit trail.
func Refund(ctx context.Context, db *sqlx.DB, attemptID string) (Attempt, error) {
	a, err := Fetch(ctx, db, attemptID)
	if err != nil {
		return Attempt{}, err
	}

	if _, err := Transition(a.Status, EventRefund); err != nil {
		if a.Status == Refunded {
			return a, nil
		}
		return Attempt{}, err
	}

	var won bool
	err = database.Transaction(db, func(tx sqlx.ExtContext) error {
		var err error
		if won, err = markRefunded(ctx, tx, a.ID); err != nil {
			return err
		}
		if !won {
			return nil
		}

		ord, err := order.Fetch(ctx, tx, a.OrderID)
		if err != nil {
			return err
		}

		items, err := ord.Items()
		if err != nil {
			return err
		}

		for _, it := range items {
			if err := enrollment.Revoke(ctx, tx, ord.UserID, it.CourseID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return Attempt{}, err
	}

	if !won {
		a, err = Fetch(ctx, db, attemptID)
		if err != nil {
			return Attempt{}, err
		}
		if a.Status == Refunded {
			return a, nil
		}
		return Attempt{}, fmt.Errorf("attempt[%s] is %s, not paid: %w", a.ID, a.Status, ErrInvalidState)
	}

	return Fetch(ctx, db, attemptID)
}

// OrderStatus is the read side exposed to the UI: the order plus its full
// attempt history, with overdue state expired lazily on the way out.
type OrderStatus struct {
	Order    order.Order `json:"order"`
	Attempts []Attempt   `json:"attempts"`
}

func GetOrderStatus(ctx context.Context, db *sqlx.DB, orderID string) (OrderStatus, error) {
	ord, err := order.Fetch(ctx, db, orderID)
	if err != nil {
		return OrderStatus{}, err
	}

	if ord.Expired(time.Now().UTC()) && ord.Status != order.Expired {
		if err := order.MarkExpired(ctx, db, ord.ID); err != nil {
			return OrderStatus{}, err
		}
		if ord, err = order.Fetch(ctx, db, orderID); err != nil {
			return OrderStatus{}, err
		}
	}

	as, err := FetchByOrder(ctx, db, ord.ID)
	if err != nil {
		return OrderStatus{}, err
	}

	now := time.Now().UTC()
	for i, a := range as {
		if !a.Due(now) {
			continue
		}
		won, err := markExpired(ctx, db, a.ID)
		if err != nil {
			return OrderStatus{}, err
		}
		if won {
			as[i].Status = Expired
			continue
		}
		// A concurrent writer settled the attempt first; report its result.
		if as[i], err = Fetch(ctx, db, a.ID); err != nil {
			return OrderStatus{}, err
		}
	}

	return OrderStatus{Order: ord, Attempts: as}, nil
}

// ExpireStale is the maintenance sweep run by the background manager. Expiry
// stays policy-driven: this is a wall-clock check, not an active timer per
// attempt.
func ExpireStale(ctx context.Context, db *sqlx.DB, log logrus.FieldLogger) {
	n, err := expireAllDue(ctx, db)
	if err != nil {
		log.Errorf("sweep: expiring attempts: %v", err)
		return
	}

	m, err := order.ExpireAllDue(ctx, db)
	if err != nil {
		log.Errorf("sweep: expiring orders: %v", err)
		return
	}

	if n > 0 || m > 0 {
		log.Infof("sweep: expired %d attempts, %d orders", n, m)
	}
}
