package models

import "time"

// ChangeType labels what kind of mutation a history entry records.
type ChangeType string

const (
	ChangeCreated        ChangeType = "created"
	ChangeApproved       ChangeType = "approved"
	ChangeRejected       ChangeType = "rejected"
	ChangePriceConfirmed ChangeType = "price_confirmed"
	ChangePaymentApplied ChangeType = "payment_applied"
	ChangePaymentFailed  ChangeType = "payment_failed"
	ChangeCanceled       ChangeType = "canceled"
	ChangeExpired        ChangeType = "expired"
	ChangeSwept          ChangeType = "swept"
)

// ChangeHistoryEntry is an append-only audit record written on every
// state-affecting mutation. Entries are never updated or deleted.
type ChangeHistoryEntry struct {
	ID            string     `bson:"id" json:"id"`
	ReservationID string     `bson:"reservation_id" json:"reservationId"`
	ChangeType    ChangeType `bson:"change_type" json:"changeType"`
	Description   string     `bson:"description" json:"description"`
	ActorID       string     `bson:"actor_id" json:"actorId"`
	Timestamp     time.Time  `bson:"timestamp" json:"timestamp"`
}
