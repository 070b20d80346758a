package models

import "time"

// PaymentOutcome is the lifecycle signal reported by the payment gateway.
type PaymentOutcome string

const (
	OutcomeLinkCreated PaymentOutcome = "link_created"
	OutcomePaid        PaymentOutcome = "paid"
	OutcomeFailed      PaymentOutcome = "failed"
	OutcomeExpired     PaymentOutcome = "expired"
)

// PaymentEvent is a parsed gateway webhook. Webhook payloads are untrusted
// and may be redelivered; dedup is keyed on the receipt tuple, never on
// arrival order.
type PaymentEvent struct {
	ReservationID     string         `json:"reservationId"`
	ExternalPaymentID string         `json:"externalPaymentId"`
	Outcome           PaymentOutcome `json:"outcome"`
	AmountCents       int64          `json:"amountCents"`
	Currency          string         `json:"currency"`
}

// PaymentReceipt records one applied payment event. The receipts collection
// has a unique index on (reservation_id, outcome, external_payment_id); a
// duplicate insert means the event was already applied.
type PaymentReceipt struct {
	ID                string         `bson:"id" json:"id"`
	ReservationID     string         `bson:"reservation_id" json:"reservationId"`
	ExternalPaymentID string         `bson:"external_payment_id" json:"externalPaymentId"`
	Outcome           PaymentOutcome `bson:"outcome" json:"outcome"`
	AmountCents       int64          `bson:"amount_cents" json:"amountCents"`
	ReceivedAt        time.Time      `bson:"received_at" json:"receivedAt"`
}
