package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/upskillvod/checkout/database"
)

func Create(ctx context.Context, db sqlx.ExtContext, c Cart) error {
	const q = `
	INSERT INTO carts
		(cart_id, user_id, expires_at, created_at, updated_at, version)
	VALUES
		(:cart_id, :user_id, :expires_at, :created_at, :updated_at, :version)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("inserting cart: %w", err)
	}

	return nil
}

// FetchByUser returns the user's cart with its items, or database.ErrNotFound
// when the user never added anything.
func FetchByUser(ctx context.Context, db sqlx.ExtContext, userID string) (Cart, error) {
	const q = `SELECT * FROM carts WHERE user_id = $1`

	var c Cart
	if err := sqlx.GetContext(ctx, db, &c, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{}, database.ErrNotFound
		}
		return Cart{}, fmt.Errorf("selecting cart of user[%s]: %w", userID, err)
	}

	items, err := FetchItems(ctx, db, c.ID)
	if err != nil {
		return Cart{}, err
	}
	c.Items = items

	return c, nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, cartID string) (Cart, error) {
	const q = `SELECT * FROM carts WHERE cart_id = $1`

	var c Cart
	if err := sqlx.GetContext(ctx, db, &c, q, cartID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{}, database.ErrNotFound
		}
		return Cart{}, fmt.Errorf("selecting cart[%s]: %w", cartID, err)
	}

	items, err := FetchItems(ctx, db, c.ID)
	if err != nil {
		return Cart{}, err
	}
	c.Items = items

	return c, nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, cartID string) ([]Item, error) {
	const q = `SELECT * FROM cart_items WHERE cart_id = $1 ORDER BY created_at`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, cartID); err != nil {
		return nil, fmt.Errorf("selecting items of cart[%s]: %w", cartID, err)
	}

	return items, nil
}

// CreateItem appends a snapshot item. A second insert for the same course is
// absorbed by the primary key: the add operation stays idempotent and the
// original snapshot wins.
func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO cart_items
		(cart_id, course_id, title, thumbnail_url, instructor, price, created_at)
	VALUES
		(:cart_id, :course_id, :title, :thumbnail_url, :instructor, :price, :created_at)
	ON CONFLICT (cart_id, course_id) DO NOTHING`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting item[%s] into cart[%s]: %w", it.CourseID, it.CartID, err)
	}

	return nil
}

// DeleteItem removes the matching item; removing an absent item is a no-op.
func DeleteItem(ctx context.Context, db sqlx.ExtContext, cartID string, courseID string) error {
	const q = `DELETE FROM cart_items WHERE cart_id = $1 AND course_id = $2`

	if _, err := db.ExecContext(ctx, q, cartID, courseID); err != nil {
		return fmt.Errorf("deleting item[%s] from cart[%s]: %w", courseID, cartID, err)
	}

	return nil
}

// DeleteItems clears the purchased courses out of the cart after a successful
// order. The cart row itself survives: carts are emptied, never deleted.
func DeleteItems(ctx context.Context, db sqlx.ExtContext, cartID string, courseIDs []string) error {
	const q = `DELETE FROM cart_items WHERE cart_id = $1 AND course_id = ANY($2)`

	if _, err := db.ExecContext(ctx, q, cartID, pq.Array(courseIDs)); err != nil {
		return fmt.Errorf("clearing cart[%s]: %w", cartID, err)
	}

	return nil
}

// Touch extends the cart's life on mutation and bumps its version, which also
// serves as the checkout nonce for derived idempotency keys.
func Touch(ctx context.Context, db sqlx.ExtContext, cartID string, expiresAt time.Time) error {
	const q = `
	UPDATE carts SET
		expires_at = $2,
		updated_at = $3,
		version = version + 1
	WHERE cart_id = $1`

	if _, err := db.ExecContext(ctx, q, cartID, expiresAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("touching cart[%s]: %w", cartID, err)
	}

	return nil
}
