package paymentRepo

import (
	"context"

	"reserva/models"
)

// PaymentRepository stores payment receipts and vouchers. Both collections
// carry unique indexes that double as idempotency fences: inserting a
// duplicate receipt tuple or a second voucher for a reservation is reported
// as created=false, never as an error.
type PaymentRepository interface {
	// RecordReceipt inserts the receipt; created=false means the same
	// (reservationID, outcome, externalPaymentID) tuple was already applied.
	RecordReceipt(ctx context.Context, receipt *models.PaymentReceipt) (created bool, err error)

	// DeleteReceipt compensates a RecordReceipt whose follow-up state change
	// failed, reopening the fence for the gateway's redelivery.
	DeleteReceipt(ctx context.Context, receiptID string) error

	// IssueVoucher inserts a voucher fenced by the unique reservation index;
	// created=false means the reservation already has one.
	IssueVoucher(ctx context.Context, voucher *models.Voucher) (created bool, err error)

	GetVoucher(ctx context.Context, reservationID string) (*models.Voucher, error)
}
