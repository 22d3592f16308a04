package order

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/upskillvod/checkout/core/cart"
	"github.com/upskillvod/checkout/core/integrity"
	"github.com/upskillvod/checkout/validate"
)

type Status string

const (
	PendingPayment Status = "pending_payment"
	Completed      Status = "completed"
	Expired        Status = "expired"
)

// Order is an immutable record of one checkout attempt. The snapshot blob and
// the total are frozen at creation: live course prices never touch an order
// again after this point.
type Order struct {
	ID             string         `json:"id" db:"order_id"`
	UserID         string         `json:"userId" db:"user_id"`
	CartID         string         `json:"cartId" db:"cart_id"`
	IdempotencyKey string         `json:"-" db:"idempotency_key"`
	Snapshot       types.JSONText `json:"snapshot" db:"snapshot"`
	Total          int            `json:"total" db:"total"`
	Status         Status         `json:"status" db:"status"`
	ExpiresAt      time.Time      `json:"expiresAt" db:"expires_at"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" db:"updated_at"`
}

func (o Order) Expired(now time.Time) bool {
	return o.Status == Expired || (o.Status == PendingPayment && now.After(o.ExpiresAt))
}

// SnapshotItem is one line of the frozen cart state serialized into the order.
type SnapshotItem struct {
	CourseID   string `json:"courseId"`
	Title      string `json:"title"`
	Instructor string `json:"instructor"`
	Price      int    `json:"price"`
}

// New freezes a validated checkout into an order. An empty cart reference
// here means the cart layer handed over structurally corrupt data; that is an
// integrity violation, not a user error, and the operation must halt.
func New(co cart.Checkout, key string, window time.Duration) (Order, error) {
	if co.Cart.ID == "" {
		return Order{}, integrity.Violationf("order for user[%s] built from a cart with an empty identifier", co.Cart.UserID)
	}
	if key == "" {
		return Order{}, integrity.Violationf("order for cart[%s] built without an idempotency key", co.Cart.ID)
	}

	items := make([]SnapshotItem, 0, len(co.Cart.Items))
	for _, it := range co.Cart.Items {
		items = append(items, SnapshotItem{
			CourseID:   it.CourseID,
			Title:      it.Title,
			Instructor: it.Instructor,
			Price:      it.Price,
		})
	}

	blob, err := json.Marshal(items)
	if err != nil {
		return Order{}, fmt.Errorf("serializing cart snapshot: %w", err)
	}

	now := time.Now().UTC()
	return Order{
		ID:             validate.GenerateID(),
		UserID:         co.Cart.UserID,
		CartID:         co.Cart.ID,
		IdempotencyKey: key,
		Snapshot:       types.JSONText(blob),
		Total:          co.Total,
		Status:         PendingPayment,
		ExpiresAt:      now.Add(window),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Items deserializes the frozen snapshot back into line items.
func (o Order) Items() ([]SnapshotItem, error) {
	var items []SnapshotItem
	if err := json.Unmarshal(o.Snapshot, &items); err != nil {
		return nil, fmt.Errorf("deserializing snapshot of order[%s]: %w", o.ID, err)
	}
	return items, nil
}

// DeriveKey builds a deterministic idempotency key for callers that do not
// supply one. The cart version acts as the checkout nonce: any mutation of
// the cart yields a new key.
func DeriveKey(c cart.Cart) string {
	return fmt.Sprintf("cart-%s-v%d", c.ID, c.Version)
}
