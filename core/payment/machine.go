package payment

import "fmt"

type Status string

const (
	Draft                 Status = "draft"
	PendingPayment        Status = "pending_payment"
	AwaitingReceiptUpload Status = "awaiting_receipt_upload"
	AwaitingAdminApproval Status = "awaiting_admin_approval"
	Paid                  Status = "paid"
	Failed                Status = "failed"
	Expired               Status = "expired"
	Refunded              Status = "refunded"
)

// Terminal reports whether no further transition can leave s. Paid is not
// terminal: a refund can still follow.
func (s Status) Terminal() bool {
	switch s {
	case Failed, Expired, Refunded:
		return true
	}
	return false
}

func (s Status) valid() bool {
	switch s {
	case Draft, PendingPayment, AwaitingReceiptUpload, AwaitingAdminApproval, Paid, Failed, Expired, Refunded:
		return true
	}
	return false
}

type Event string

const (
	EventInitiate      Event = "initiate"
	EventUploadReceipt Event = "upload_receipt"
	EventApprove       Event = "approve"
	EventReject        Event = "reject"
	EventExpire        Event = "expire"
	EventRefund        Event = "refund"
)

// ErrTransition rejects an event that is not legal from the current status.
type ErrTransition struct {
	From  Status
	Event Event
}

func (e *ErrTransition) Error() string {
	return fmt.Sprintf("event[%s] is not allowed from status[%s]", e.Event, e.From)
}

// Transition is the single place a status may change. Field-level guards
// (receipt completeness, reviewer identity) live with the operations; the
// shape of the machine lives here.
func Transition(from Status, ev Event) (Status, error) {
	if !from.valid() {
		return "", &ErrTransition{From: from, Event: ev}
	}

	switch ev {
	case EventInitiate:
		if from == Draft {
			return PendingPayment, nil
		}

	case EventUploadReceipt:
		if from == PendingPayment || from == AwaitingReceiptUpload {
			return AwaitingAdminApproval, nil
		}

	case EventApprove:
		if from == AwaitingAdminApproval {
			return Paid, nil
		}

	case EventReject:
		if from == AwaitingAdminApproval {
			return Failed, nil
		}

	case EventExpire:
		if !from.Terminal() && from != Paid {
			return Expired, nil
		}

	case EventRefund:
		if from == Paid {
			return Refunded, nil
		}
	}

	return "", &ErrTransition{From: from, Event: ev}
}
