package models

import "time"

// Voucher is the redeemable proof of a paid reservation. The vouchers
// collection carries a unique index on ReservationID, which is the fence
// guaranteeing exactly one voucher per reservation.
type Voucher struct {
	ID            string    `bson:"id" json:"id"`
	ReservationID string    `bson:"reservation_id" json:"reservationId"`
	Code          string    `bson:"code" json:"code"`
	IssuedAt      time.Time `bson:"issued_at" json:"issuedAt"`
}
