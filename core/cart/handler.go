package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/upskillvod/checkout/api/web"
	"github.com/upskillvod/checkout/api/weberr"
	"github.com/upskillvod/checkout/config"
	"github.com/upskillvod/checkout/core/claims"
	"github.com/upskillvod/checkout/database"
	"github.com/upskillvod/checkout/validate"
)

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		c, err := FetchByUser(ctx, db, clm.UserID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return web.Respond(ctx, w, Cart{Items: []Item{}}, http.StatusOK)
			}
			return fmt.Errorf("fetching cart: %w", err)
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleCreateItem(db *sqlx.DB, cfg config.Checkout) web.Handler {
	v := NewValidator(cfg)

	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding cart item: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		c, err := AddCourse(ctx, db, v, clm.UserID, in.CourseID, cfg.CartTTL)
		if err != nil {
			return WebError(err)
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleDeleteItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(err)
		}

		if err := RemoveCourse(ctx, db, clm.UserID, courseID); err != nil {
			return fmt.Errorf("removing course[%s] from cart: %w", courseID, err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// HandleValidate lets the UI pre-flight a checkout and surface drift warnings
// before the user commits.
func HandleValidate(db *sqlx.DB, cfg config.Checkout) web.Handler {
	v := NewValidator(cfg)

	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		co, err := ValidateForCheckout(ctx, db, v, clm.UserID)
		if err != nil {
			return WebError(err)
		}

		return web.Respond(ctx, w, co, http.StatusOK)
	}
}
