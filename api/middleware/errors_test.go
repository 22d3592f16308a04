package middleware

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/upskillvod/checkout/api/web"
	"github.com/upskillvod/checkout/api/weberr"
)

func runErrors(t *testing.T, handler web.Handler) (*httptest.ResponseRecorder, *logtest.Hook) {
	t.Helper()

	log, hook := logtest.NewNullLogger()
	h := Errors(log)(handler)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	if err := h(r.Context(), w, r); err != nil {
		t.Fatalf("errors middleware must consume the error, got %v", err)
	}

	return w, hook
}

func TestErrorsStorageUnavailable(t *testing.T) {
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return fmt.Errorf("selecting order: %w", driver.ErrBadConn)
	}

	w, _ := runErrors(t, h)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	var er weberr.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatal(err)
	}
	if er.Code != "STORAGE_UNAVAILABLE" {
		t.Fatalf("a store outage must carry its retryable code, got %q", er.Code)
	}
}

func TestErrorsInternalFallback(t *testing.T) {
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return errors.New("boom")
	}

	w, _ := runErrors(t, h)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected %d, got %d", http.StatusInternalServerError, w.Code)
	}

	var er weberr.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatal(err)
	}
	if er.Code != "INTERNAL" {
		t.Fatalf("undecorated errors must fall back to INTERNAL, got %q", er.Code)
	}
}

func TestErrorsMergesFields(t *testing.T) {
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return weberr.InternalError(errors.New("boom"), weberr.WithFields(map[string]interface{}{
			"attempt_id": "a-1",
		}))
	}

	w, hook := runErrors(t, h)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected %d, got %d", http.StatusInternalServerError, w.Code)
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a logged entry")
	}
	if got, ok := entry.Data["attempt_id"]; !ok || got != "a-1" {
		t.Fatalf("attached fields must reach the log entry, got %v", entry.Data)
	}
}
