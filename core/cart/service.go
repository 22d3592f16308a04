package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/upskillvod/checkout/core/course"
	"github.com/upskillvod/checkout/core/enrollment"
	"github.com/upskillvod/checkout/database"
)

// AddCourse appends a freshly snapshotted item to the user's cart, creating
// the cart on first use. Adding a course that is already present is a no-op
// success, so double-clicks leave exactly one item.
func AddCourse(ctx context.Context, db *sqlx.DB, v Validator, userID string, courseID string, ttl time.Duration) (Cart, error) {
	crs, err := course.Fetch(ctx, db, courseID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return Cart{}, ErrCourseNotFound
		}
		return Cart{}, fmt.Errorf("fetching course[%s]: %w", courseID, err)
	}

	enrolled, err := enrollment.ActiveExists(ctx, db, userID, courseID)
	if err != nil {
		return Cart{}, fmt.Errorf("checking enrollment of user[%s]: %w", userID, err)
	}

	if err := v.CheckAdd(crs, enrolled); err != nil {
		return Cart{}, err
	}

	c, err := FetchByUser(ctx, db, userID)
	if errors.Is(err, database.ErrNotFound) {
		if c, err = New(userID, ttl); err != nil {
			return Cart{}, err
		}
		if err = Create(ctx, db, c); err != nil {
			// A concurrent first add won the unique owner constraint.
			if !database.IsUniqueViolation(err) {
				return Cart{}, err
			}
			if c, err = FetchByUser(ctx, db, userID); err != nil {
				return Cart{}, err
			}
		}
	} else if err != nil {
		return Cart{}, err
	}

	err = database.Transaction(db, func(tx sqlx.ExtContext) error {
		if err := CreateItem(ctx, tx, Snapshot(c.ID, crs)); err != nil {
			return err
		}
		return Touch(ctx, tx, c.ID, time.Now().UTC().Add(ttl))
	})
	if err != nil {
		return Cart{}, err
	}

	return Fetch(ctx, db, c.ID)
}

// RemoveCourse drops the matching item from the user's cart. A missing cart
// or a missing item is not an error.
func RemoveCourse(ctx context.Context, db *sqlx.DB, userID string, courseID string) error {
	c, err := FetchByUser(ctx, db, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil
		}
		return err
	}

	return DeleteItem(ctx, db, c.ID, courseID)
}

// ValidateForCheckout fetches the live course rows for every item and runs
// the checkout gate, returning the eligible view consumed by checkout.
func ValidateForCheckout(ctx context.Context, db *sqlx.DB, v Validator, userID string) (Checkout, error) {
	c, err := FetchByUser(ctx, db, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return Checkout{}, ErrEmptyCart
		}
		return Checkout{}, err
	}

	live := make(map[string]course.Course, len(c.Items))
	for _, it := range c.Items {
		lc, err := course.Fetch(ctx, db, it.CourseID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return Checkout{}, fmt.Errorf("course[%s]: %w", it.CourseID, ErrCourseNotFound)
			}
			return Checkout{}, fmt.Errorf("fetching course[%s]: %w", it.CourseID, err)
		}
		live[it.CourseID] = lc
	}

	return v.CheckCheckout(c, live, time.Now().UTC())
}
