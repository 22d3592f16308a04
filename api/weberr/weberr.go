// Package weberr decorates errors with the HTTP response and log fields
// they should produce. Handlers return plain errors; the error middleware
// unwraps the decorations to build the response, so every failure in the
// checkout flow maps to a stable code without handlers writing JSON.
package weberr

// Opt decorates an error with response or logging behavior.
type Opt func(error) error

// Wrap applies the given decorations to err in order.
func Wrap(err error, opts ...Opt) error {
	for _, opt := range opts {
		err = opt(err)
	}
	return err
}

// WithResponse attaches the body and status the middleware should send.
func WithResponse(body interface{}, status int) Opt {
	return func(err error) error {
		return &responseError{error: err, body: body, status: status}
	}
}

// WithFields attaches structured fields for the request log entry.
func WithFields(fields map[string]interface{}) Opt {
	return func(err error) error {
		return &fieldsError{error: err, fields: fields}
	}
}
