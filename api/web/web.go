// Package web defines the handler signature the API is built on. Handlers
// return errors instead of writing failure responses themselves, so the
// error middleware is the only place a failure is turned into JSON.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler is the signature every route in the API implements.
type Handler func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

// Middleware wraps a Handler with behavior that runs around it.
type Middleware func(Handler) Handler

// WrapMiddleware applies mw around handler, first entry outermost.
func WrapMiddleware(mw []Middleware, handler Handler) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h := mw[i]
		if h != nil {
			handler = h(handler)
		}
	}

	return handler
}

// Respond marshals data as the JSON body of the response. A StatusNoContent
// response carries no body at all.
func Respond(ctx context.Context, w http.ResponseWriter, data interface{}, statusCode int) error {
	if statusCode == http.StatusNoContent {
		w.WriteHeader(statusCode)
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("cannot marshal response data: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if _, err := w.Write(jsonData); err != nil {
		return fmt.Errorf("cannot write response data to response writer: %w", err)
	}

	return nil
}

// maxBodyBytes caps request bodies. Receipt uploads carry a URL, not the
// image itself, so 1MB is generous for every endpoint.
const maxBodyBytes = 1 << 20

// Decode unmarshals the request body into val, rejecting unknown fields so
// client typos fail loudly instead of being silently dropped.
func Decode(w http.ResponseWriter, r *http.Request, val interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(val); err != nil {
		return err
	}

	return nil
}

// Param extracts a mux route variable from the request.
func Param(r *http.Request, key string) string {
	m := mux.Vars(r)
	return m[key]
}
