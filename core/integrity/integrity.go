// Package integrity marks structural-corruption errors: conditions that can
// only come from a programming bug, never from bad input. They halt the
// operation, get logged in full, and reach the client as a generic internal
// error.
package integrity

import (
	"errors"
	"fmt"
)

type Violation struct {
	msg string
}

func (v *Violation) Error() string { return v.msg }

func Violationf(format string, args ...interface{}) error {
	return &Violation{msg: fmt.Sprintf(format, args...)}
}

func IsViolation(err error) bool {
	var v *Violation
	return errors.As(err, &v)
}
