package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/upskillvod/checkout/api/middleware"
	"github.com/upskillvod/checkout/api/web"
	"github.com/upskillvod/checkout/config"
	"github.com/upskillvod/checkout/core/auth"
	"github.com/upskillvod/checkout/core/cart"
	"github.com/upskillvod/checkout/core/course"
	"github.com/upskillvod/checkout/core/enrollment"
	"github.com/upskillvod/checkout/core/order"
	"github.com/upskillvod/checkout/core/payment"
	"github.com/upskillvod/checkout/core/user"
	"github.com/upskillvod/checkout/rate"
)

type APIConfig struct {
	CorsOrigin string
	Log        logrus.FieldLogger
	DB         *sqlx.DB
	Session    *scs.SessionManager
	Checkout   config.Checkout
	UploadRate *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Session)
	admin := auth.Admin(cfg.Session)
	upload := middleware.RateLimit(cfg.UploadRate)

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)

	a.Handle(http.MethodGet, "/courses/owned", enrollment.HandleListOwned(cfg.DB), authen)
	a.Handle(http.MethodGet, "/courses/{id}", course.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/courses", course.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/courses", course.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/courses/{id}", course.HandleUpdate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodPost, "/cart/validate", cart.HandleValidate(cfg.DB, cfg.Checkout), authen)
	a.Handle(http.MethodPut, "/cart/items", cart.HandleCreateItem(cfg.DB, cfg.Checkout), authen)
	a.Handle(http.MethodDelete, "/cart/items/{course_id}", cart.HandleDeleteItem(cfg.DB), authen)

	a.Handle(http.MethodPost, "/orders", order.HandleCheckout(cfg.DB, cfg.Log, cfg.Checkout), authen)
	a.Handle(http.MethodGet, "/orders", order.HandleList(cfg.DB), authen)
	a.Handle(http.MethodGet, "/orders/{order_id}/status", payment.HandleOrderStatus(cfg.DB), authen)
	a.Handle(http.MethodPost, "/orders/{order_id}/attempts", payment.HandleInitiate(cfg.DB, cfg.Checkout), authen)

	a.Handle(http.MethodPut, "/attempts/{id}/receipt", payment.HandleUploadReceipt(cfg.DB), authen, upload)
	a.Handle(http.MethodPost, "/attempts/{id}/decision", payment.HandleDecision(cfg.DB, cfg.Log), admin)
	a.Handle(http.MethodPost, "/attempts/{id}/refund", payment.HandleRefund(cfg.DB, cfg.Log), admin)
	a.Handle(http.MethodGet, "/attempts/awaiting", payment.HandleListAwaiting(cfg.DB), admin)
	a.Handle(http.MethodGet, "/attempts/integrity", payment.HandleIntegrity(cfg.DB), admin)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
