package middleware

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/upskillvod/checkout/api/web"
	"github.com/upskillvod/checkout/api/weberr"
	"github.com/upskillvod/checkout/database"
)

// Errors logs every handler failure and writes the response attached to
// the error. Errors without an attached response surface as a generic 500
// so internal details never leak to the client.
func Errors(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			fields := map[string]interface{}{
				"req_id":  ContextRequestID(ctx),
				"message": err,
			}
			if f, ok := weberr.Fields(err); ok {
				for k, v := range f {
					fields[k] = v
				}
			}

			log.WithFields(logrus.Fields(fields)).Error("ERROR")

			if body, code, ok := weberr.Response(err); ok {
				return web.Respond(ctx, w, body, code)
			}

			// Retryable store outages carry their own code so callers can
			// tell "retry later" apart from a structural bug.
			if database.IsUnavailable(err) {
				er := weberr.ErrorResponse{
					Error: "the data store is temporarily unavailable",
					Code:  "STORAGE_UNAVAILABLE",
				}
				return web.Respond(ctx, w, er, http.StatusServiceUnavailable)
			}

			er := weberr.ErrorResponse{
				Error: http.StatusText(http.StatusInternalServerError),
				Code:  "INTERNAL",
			}
			return web.Respond(ctx, w, er, http.StatusInternalServerError)
		}
		return h
	}
	return m
}
