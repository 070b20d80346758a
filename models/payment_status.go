package models

// PaymentStatus tracks the payment lifecycle of a reservation, independently of
// its reservation status.
type PaymentStatus string

const (
	PaymentNotRequired       PaymentStatus = "not_required"
	PaymentPending           PaymentStatus = "pending"
	PaymentProcessing        PaymentStatus = "processing"
	PaymentPaid              PaymentStatus = "paid"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentCanceled          PaymentStatus = "canceled"
)

var validPaymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentNotRequired:       {PaymentPending},
	PaymentPending:           {PaymentProcessing, PaymentPaid, PaymentFailed, PaymentCanceled},
	PaymentProcessing:        {PaymentPaid, PaymentFailed, PaymentCanceled},
	PaymentPaid:              {PaymentRefunded, PaymentPartiallyRefunded},
	PaymentFailed:            {PaymentPending, PaymentCanceled},
	PaymentRefunded:          {},
	PaymentPartiallyRefunded: {PaymentRefunded},
	PaymentCanceled:          {},
}

// validStatusPairs restricts which payment states may accompany each
// reservation status. A reservation that never required payment stays
// not_required through its whole life, so not_required is allowed everywhere.
var validStatusPairs = map[ReservationStatus][]PaymentStatus{
	StatusDraft:                {PaymentNotRequired, PaymentPending},
	StatusPendingApproval:      {PaymentNotRequired, PaymentPending},
	StatusAwaitingConfirmation: {PaymentNotRequired, PaymentPending},
	StatusAwaitingPayment:      {PaymentNotRequired, PaymentPending, PaymentProcessing, PaymentFailed},
	StatusConfirmed:            {PaymentNotRequired, PaymentPending, PaymentProcessing, PaymentPaid},
	StatusInProgress:           {PaymentNotRequired, PaymentPaid},
	StatusCompleted:            {PaymentNotRequired, PaymentPaid, PaymentPartiallyRefunded},
	StatusRejected:             {PaymentNotRequired, PaymentCanceled, PaymentRefunded},
	StatusCanceled:             {PaymentNotRequired, PaymentPending, PaymentFailed, PaymentCanceled, PaymentRefunded, PaymentPartiallyRefunded},
	StatusExpired:              {PaymentNotRequired, PaymentFailed, PaymentCanceled},
	StatusNoShow:               {PaymentNotRequired, PaymentPaid},
}

// IsValid returns true if the status is a recognized payment status.
func (p PaymentStatus) IsValid() bool {
	_, exists := validPaymentTransitions[p]
	return exists
}

// CanTransitionTo returns true if a payment transition from this status to the target is allowed.
func (p PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	allowed, exists := validPaymentTransitions[p]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further payment transitions are possible.
func (p PaymentStatus) IsTerminal() bool {
	allowed, exists := validPaymentTransitions[p]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

func (p PaymentStatus) String() string {
	return string(p)
}

// ValidStatusPair reports whether the given reservation status and payment
// status may coexist on one reservation.
func ValidStatusPair(s ReservationStatus, p PaymentStatus) bool {
	allowed, exists := validStatusPairs[s]
	if !exists {
		return false
	}
	for _, a := range allowed {
		if a == p {
			return true
		}
	}
	return false
}
