package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/upskillvod/checkout/api/web"
	"github.com/upskillvod/checkout/api/weberr"
	"github.com/upskillvod/checkout/config"
	"github.com/upskillvod/checkout/core/claims"
	"github.com/upskillvod/checkout/core/integrity"
	"github.com/upskillvod/checkout/database"
	"github.com/upskillvod/checkout/validate"
)

func HandleInitiate(db *sqlx.DB, cfg config.Checkout) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		orderID := web.Param(r, "order_id")
		if err := validate.CheckID(orderID); err != nil {
			return weberr.BadRequest(err)
		}

		a, err := Initiate(ctx, db, cfg, clm.UserID, orderID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return WebError(err)
		}

		return web.Respond(ctx, w, a, http.StatusCreated)
	}
}

// HandleUploadReceipt consumes the already-typed upload payload produced by
// the excluded form layer; multipart parsing never reaches this core.
func HandleUploadReceipt(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		attemptID := web.Param(r, "id")
		if err := validate.CheckID(attemptID); err != nil {
			return weberr.BadRequest(err)
		}

		var up ReceiptUpload
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding receipt upload: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.NewCoded(err, err.Error(), CodeReceiptIncomplete, http.StatusUnprocessableEntity)
		}

		a, err := Fetch(ctx, db, attemptID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}
		if a.UserID != clm.UserID {
			return weberr.NotAuthorized(errors.New("attempt belongs to another user"))
		}

		a, err = UploadReceipt(ctx, db, attemptID, up)
		if err != nil {
			return WebError(err)
		}

		return web.Respond(ctx, w, a, http.StatusOK)
	}
}

func HandleDecision(db *sqlx.DB, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		attemptID := web.Param(r, "id")
		if err := validate.CheckID(attemptID); err != nil {
			return weberr.BadRequest(err)
		}

		var d Decision
		if err := web.Decode(w, r, &d); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding decision: %w", err))
		}

		a, err := SubmitDecision(ctx, db, attemptID, clm.UserID, d)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			if integrity.IsViolation(err) {
				log.WithField("attempt_id", attemptID).Errorf("INTEGRITY: %v", err)
				return weberr.InternalError(err, weberr.WithFields(map[string]interface{}{
					"attempt_id": attemptID,
					"integrity":  true,
				}))
			}
			return WebError(err)
		}

		return web.Respond(ctx, w, a, http.StatusOK)
	}
}

func HandleRefund(db *sqlx.DB, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		attemptID := web.Param(r, "id")
		if err := validate.CheckID(attemptID); err != nil {
			return weberr.BadRequest(err)
		}

		var in struct {
			Reason string `json:"reason"`
		}
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding refund: %w", err))
		}

		a, err := Refund(ctx, db, attemptID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return WebError(err)
		}

		log.WithFields(logrus.Fields{
			"attempt_id":  a.ID,
			"reviewer_id": clm.UserID,
			"reason":      in.Reason,
		}).Info("refunded")

		return web.Respond(ctx, w, a, http.StatusOK)
	}
}

func HandleOrderStatus(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if _, err := claims.Get(ctx); err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		orderID := web.Param(r, "order_id")
		if err := validate.CheckID(orderID); err != nil {
			return weberr.BadRequest(err)
		}

		st, err := GetOrderStatus(ctx, db, orderID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("reading status of order[%s]: %w", orderID, err)
		}

		if !claims.CanAccess(ctx, st.Order.UserID) {
			return weberr.NotAuthorized(errors.New("order belongs to another user"))
		}

		return web.Respond(ctx, w, st, http.StatusOK)
	}
}

// HandleListAwaiting serves the admin review queue.
func HandleListAwaiting(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		as, err := FetchAwaiting(ctx, db)
		if err != nil {
			return fmt.Errorf("listing attempts awaiting approval: %w", err)
		}

		return web.Respond(ctx, w, as, http.StatusOK)
	}
}

// HandleIntegrity exposes the invariant queries to admins, mirroring the
// checks the tests run against the store.
func HandleIntegrity(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		rep, err := CheckIntegrity(ctx, db)
		if err != nil {
			return fmt.Errorf("checking attempt integrity: %w", err)
		}

		return web.Respond(ctx, w, rep, http.StatusOK)
	}
}
