package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/upskillvod/checkout/api/web"
	"github.com/upskillvod/checkout/api/weberr"
	"github.com/upskillvod/checkout/core/claims"
	"github.com/upskillvod/checkout/rate"
)

// RateLimit throttles per user, falling back to the remote address for
// unauthenticated requests. Used on receipt uploads, where a stuck client
// retrying a large file must not hammer the store.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			key := r.RemoteAddr
			if clm, err := claims.Get(ctx); err == nil {
				key = clm.UserID
			}

			if !lim.Check(key) {
				return weberr.NewError(
					errors.New("rate limit exceeded"),
					"too many requests",
					http.StatusTooManyRequests,
				)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
