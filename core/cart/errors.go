package cart

import (
	"errors"
	"net/http"

	"github.com/upskillvod/checkout/api/weberr"
)

// Stable codes for the excluded presentation layer. Validation failures are
// reported to the caller and never retried by the core.
const (
	CodeCourseNotFound     = "COURSE_NOT_FOUND"
	CodeCourseNotPublished = "COURSE_NOT_PUBLISHED"
	CodeAlreadyEnrolled    = "ALREADY_ENROLLED"
	CodeEmptyCart          = "EMPTY_CART"
	CodeCartExpired        = "CART_EXPIRED"
	CodePriceDrift         = "PRICE_DRIFT"
)

var (
	ErrCourseNotFound     = errors.New("course does not exist")
	ErrCourseNotPublished = errors.New("course is not open for purchase")
	ErrAlreadyEnrolled    = errors.New("user already enrolled in course")
	ErrEmptyCart          = errors.New("cart has no items")
	ErrCartExpired        = errors.New("cart has expired")
	ErrPriceDrift         = errors.New("course price changed since it was added to the cart")
)

var codes = map[error]string{
	ErrCourseNotFound:     CodeCourseNotFound,
	ErrCourseNotPublished: CodeCourseNotPublished,
	ErrAlreadyEnrolled:    CodeAlreadyEnrolled,
	ErrEmptyCart:          CodeEmptyCart,
	ErrCartExpired:        CodeCartExpired,
	ErrPriceDrift:         CodePriceDrift,
}

// WebError maps a validation error to its coded client response, or returns
// err unchanged when it is not a cart validation failure.
func WebError(err error) error {
	for verr, code := range codes {
		if errors.Is(err, verr) {
			return weberr.NewCoded(err, verr.Error(), code, http.StatusUnprocessableEntity)
		}
	}
	return err
}
