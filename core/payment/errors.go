package payment

import (
	"errors"
	"net/http"

	"github.com/upskillvod/checkout/api/weberr"
)

const (
	CodeReceiptIncomplete      = "RECEIPT_INCOMPLETE"
	CodeDecisionReasonRequired = "DECISION_REASON_REQUIRED"
	CodeInvalidState           = "INVALID_STATE"
)

var (
	ErrReceiptIncomplete      = errors.New("receipt image, filename and upload time must be set together")
	ErrDecisionReasonRequired = errors.New("a rejection requires a decision reason")
	ErrInvalidState           = errors.New("operation is not allowed in the attempt's current state")
)

func WebError(err error) error {
	switch {
	case errors.Is(err, ErrReceiptIncomplete):
		return weberr.NewCoded(err, err.Error(), CodeReceiptIncomplete, http.StatusUnprocessableEntity)
	case errors.Is(err, ErrDecisionReasonRequired):
		return weberr.NewCoded(err, err.Error(), CodeDecisionReasonRequired, http.StatusUnprocessableEntity)
	case errors.Is(err, ErrInvalidState):
		return weberr.NewCoded(err, err.Error(), CodeInvalidState, http.StatusConflict)
	}

	var te *ErrTransition
	if errors.As(err, &te) {
		return weberr.NewCoded(err, te.Error(), CodeInvalidState, http.StatusConflict)
	}

	return err
}
