package models

import "time"

// OutboxKind names the side effect an outbox entry requests.
type OutboxKind string

const (
	OutboxPaymentLink  OutboxKind = "payment:link"
	OutboxVoucherIssue OutboxKind = "voucher:issue"
	OutboxNotify       OutboxKind = "notify:send"
)

// OutboxStatus tracks whether the drain loop has handed an entry to the task
// queue yet.
type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxDispatched OutboxStatus = "dispatched"
)

// OutboxEntry is written in the same transaction as the state change that
// needs the side effect, then drained into the task queue. Consumers are
// idempotent, so at-least-once delivery is safe.
type OutboxEntry struct {
	ID            string            `bson:"id" json:"id"`
	ReservationID string            `bson:"reservation_id" json:"reservationId"`
	Kind          OutboxKind        `bson:"kind" json:"kind"`
	Payload       map[string]string `bson:"payload,omitempty" json:"payload,omitempty"`
	Status        OutboxStatus      `bson:"status" json:"status"`
	CreatedAt     time.Time         `bson:"created_at" json:"createdAt"`
	DispatchedAt  *time.Time        `bson:"dispatched_at,omitempty" json:"dispatchedAt,omitempty"`
}
