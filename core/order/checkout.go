package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/upskillvod/checkout/config"
	"github.com/upskillvod/checkout/core/cart"
	"github.com/upskillvod/checkout/core/enrollment"
	"github.com/upskillvod/checkout/database"
	"golang.org/x/sync/singleflight"
)

// flights collapses same-process double submits (a user hammering "pay") so
// only one goroutine per (user, key) reaches the store. Cross-process races
// are settled by the unique index on (user_id, idempotency_key).
var flights singleflight.Group

// CreateCheckout turns a validated cart view into a persisted order, exactly
// once per idempotency key. Replays return the winner's order unchanged. A
// zero-total cart takes the free shortcut: the order completes and the
// enrollments are written immediately, with no payment attempt.
func CreateCheckout(ctx context.Context, db *sqlx.DB, co cart.Checkout, key string, cfg config.Checkout) (Order, error) {
	if key == "" {
		key = DeriveKey(co.Cart)
	}

	v, err, _ := flights.Do(co.Cart.UserID+"|"+key, func() (interface{}, error) {
		return createCheckout(ctx, db, co, key, cfg)
	})
	if err != nil {
		return Order{}, err
	}

	return v.(Order), nil
}

func createCheckout(ctx context.Context, db *sqlx.DB, co cart.Checkout, key string, cfg config.Checkout) (Order, error) {
	now := time.Now().UTC()

	existing, err := FetchByKey(ctx, db, co.Cart.UserID, key)
	switch {
	case err == nil:
		if !existing.Expired(now) {
			return existing, nil
		}
		if err := MarkExpired(ctx, db, existing.ID); err != nil {
			return Order{}, err
		}
	case errors.Is(err, database.ErrNotFound):
	default:
		return Order{}, err
	}

	ord, err := New(co, key, cfg.AttemptWindow)
	if err != nil {
		return Order{}, err
	}

	free := ord.Total == 0
	if free {
		ord.Status = Completed
	}

	err = database.Transaction(db, func(tx sqlx.ExtContext) error {
		if err := Create(ctx, tx, ord); err != nil {
			return err
		}

		if free {
			return EnrollAndClear(ctx, tx, ord, enrollment.PaymentFree)
		}

		return nil
	})

	if err != nil {
		// The race loser lands here: another request won the unique index.
		// Resolve the conflict internally by returning the winner's order.
		if database.IsUniqueViolation(err) {
			return FetchByKey(ctx, db, co.Cart.UserID, key)
		}
		return Order{}, fmt.Errorf("persisting order for cart[%s]: %w", co.Cart.ID, err)
	}

	return ord, nil
}

// EnrollAndClear writes one enrollment per snapshot line and clears the
// purchased courses out of the originating cart, all inside the caller's
// transaction. An already-active enrollment is a no-op, not a failure, so a
// double approval cannot produce two rows.
func EnrollAndClear(ctx context.Context, tx sqlx.ExtContext, ord Order, ps enrollment.PaymentStatus) error {
	items, err := ord.Items()
	if err != nil {
		return err
	}

	courseIDs := make([]string, 0, len(items))
	for _, it := range items {
		e := enrollment.New(ord.UserID, it.CourseID, ps, it.Price)
		if _, err := enrollment.Create(ctx, tx, e); err != nil {
			return err
		}
		courseIDs = append(courseIDs, it.CourseID)
	}

	return cart.DeleteItems(ctx, tx, ord.CartID, courseIDs)
}
