package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/upskillvod/checkout/config"
)

// ErrNotFound is returned by fetch helpers of the core packages when the
// requested row does not exist. It hides the sql.ErrNoRows detail from
// callers outside the storage layer.
var ErrNotFound = errors.New("resource not found")

func Open(cfg config.DB) (*sqlx.DB, error) {
	sslMode := "require"
	if cfg.DisableTLS {
		sslMode = "disable"
	}

	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host,
		Path:     cfg.Name,
		RawQuery: q.Encode(),
	}

	db, err := sqlx.Open("postgres", u.String())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return db, nil
}

func StatusCheck(ctx context.Context, db *sqlx.DB) error {
	var tmp bool
	return db.QueryRowContext(ctx, "SELECT true").Scan(&tmp)
}

// Transaction runs fn in a single transaction, committing on nil and rolling
// back on error. The rollback error is deliberately dropped: the returned
// error of fn is the one callers act on.
func Transaction(db *sqlx.DB, fn func(sqlx.ExtContext) error) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a postgres unique-constraint
// violation, the mechanism behind idempotency-key and enrollment races.
func IsUniqueViolation(err error) bool {
	var pqerr *pq.Error
	if !errors.As(err, &pqerr) {
		return false
	}
	return pqerr.Code == uniqueViolation
}

// IsUnavailable reports whether err means the store itself is unreachable
// rather than a bad statement. These failures are retryable by the caller;
// nothing in this layer retries on its own.
func IsUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}

	// Class 08 is a connection exception, class 57 an operator intervention
	// such as a server shutdown.
	var pqerr *pq.Error
	if errors.As(err, &pqerr) {
		code := string(pqerr.Code)
		return strings.HasPrefix(code, "08") || strings.HasPrefix(code, "57")
	}

	return false
}
