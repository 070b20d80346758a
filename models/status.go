package models

import "fmt"

// ReservationStatus represents the current state of a reservation in its lifecycle.
type ReservationStatus string

const (
	StatusDraft                ReservationStatus = "draft"
	StatusPendingApproval      ReservationStatus = "pending_approval"
	StatusAwaitingConfirmation ReservationStatus = "awaiting_confirmation"
	StatusAwaitingPayment      ReservationStatus = "awaiting_payment"
	StatusConfirmed            ReservationStatus = "confirmed"
	StatusInProgress           ReservationStatus = "in_progress"
	StatusCompleted            ReservationStatus = "completed"
	StatusRejected             ReservationStatus = "rejected"
	StatusCanceled             ReservationStatus = "canceled"
	StatusExpired              ReservationStatus = "expired"
	StatusNoShow               ReservationStatus = "no_show"
)

// validStatusTransitions defines the state machine for reservation status transitions.
var validStatusTransitions = map[ReservationStatus][]ReservationStatus{
	StatusDraft:                {StatusAwaitingConfirmation, StatusConfirmed, StatusExpired, StatusCanceled},
	StatusPendingApproval:      {StatusConfirmed, StatusAwaitingPayment, StatusRejected, StatusCanceled},
	StatusAwaitingConfirmation: {StatusConfirmed, StatusAwaitingPayment, StatusExpired, StatusCanceled},
	StatusAwaitingPayment:      {StatusConfirmed, StatusExpired, StatusCanceled},
	StatusConfirmed:            {StatusInProgress, StatusCompleted, StatusNoShow, StatusCanceled},
	StatusInProgress:           {StatusCompleted, StatusCanceled},
	StatusCompleted:            {},
	StatusRejected:             {},
	StatusCanceled:             {},
	StatusExpired:              {},
	StatusNoShow:               {},
}

// holdingStatuses are the states in which a reservation still occupies its asset
// for conflict-detection purposes.
var holdingStatuses = []ReservationStatus{
	StatusPendingApproval,
	StatusAwaitingConfirmation,
	StatusAwaitingPayment,
	StatusConfirmed,
	StatusInProgress,
}

// IsValid returns true if the status is a recognized reservation status.
func (s ReservationStatus) IsValid() bool {
	_, exists := validStatusTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s ReservationStatus) CanTransitionTo(target ReservationStatus) bool {
	allowed, exists := validStatusTransitions[s]
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

// IsTerminal returns true if no further transitions are possible from this status.
func (s ReservationStatus) IsTerminal() bool {
	allowed, exists := validStatusTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// HoldsAsset returns true if a reservation in this status still counts against
// the asset's availability.
func (s ReservationStatus) HoldsAsset() bool {
	for _, h := range holdingStatuses {
		if s == h {
			return true
		}
	}
	return false
}

// HoldingStatuses returns the set of states that occupy an asset.
func HoldingStatuses() []ReservationStatus {
	out := make([]ReservationStatus, len(holdingStatuses))
	copy(out, holdingStatuses)
	return out
}

func (s ReservationStatus) String() string {
	return string(s)
}

// ParseReservationStatus converts a string to a ReservationStatus, returning an error if invalid.
func ParseReservationStatus(s string) (ReservationStatus, error) {
	status := ReservationStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid reservation status: %s", s)
	}
	return status, nil
}
