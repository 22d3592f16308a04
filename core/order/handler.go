package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/upskillvod/checkout/api/web"
	"github.com/upskillvod/checkout/api/weberr"
	"github.com/upskillvod/checkout/config"
	"github.com/upskillvod/checkout/core/cart"
	"github.com/upskillvod/checkout/core/claims"
	"github.com/upskillvod/checkout/core/integrity"
)

// IdempotencyHeader carries the caller-supplied checkout key. When absent the
// key is derived from the cart identifier and version.
const IdempotencyHeader = "Idempotency-Key"

func HandleCheckout(db *sqlx.DB, log logrus.FieldLogger, cfg config.Checkout) web.Handler {
	v := cart.NewValidator(cfg)

	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		co, err := cart.ValidateForCheckout(ctx, db, v, clm.UserID)
		if err != nil {
			return cart.WebError(err)
		}

		key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))

		ord, err := CreateCheckout(ctx, db, co, key, cfg)
		if err != nil {
			if integrity.IsViolation(err) {
				log.WithField("user_id", clm.UserID).Errorf("INTEGRITY: %v", err)
				return weberr.InternalError(err, weberr.WithFields(map[string]interface{}{
					"user_id":   clm.UserID,
					"integrity": true,
				}))
			}
			return fmt.Errorf("creating checkout for user[%s]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, ord, http.StatusCreated)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		os, err := FetchByUser(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("listing orders: %w", err)
		}

		return web.Respond(ctx, w, os, http.StatusOK)
	}
}
