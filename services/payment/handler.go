package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	paymentRepo "reserva/database/repository/payment"
	reservationRepo "reserva/database/repository/reservation"
	"reserva/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const versionRetries = 3

// Handler reacts to externally reported payment lifecycle events and drives
// the reservation state machine. Repeated delivery of the same event is a
// no-op: application is fenced by the unique receipt tuple, not by arrival
// order.
type Handler struct {
	Reservations reservationRepo.ReservationRepository
	Payments     paymentRepo.PaymentRepository
	Logger       *zap.Logger
	Now          func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

// OnPaymentEvent applies one gateway event to its reservation. The receipt
// insert is the idempotency fence: when the tuple already exists the event
// was applied before and the call returns without touching anything. A
// receipt whose state change fails is removed again, so only applied events
// stay fenced.
func (h *Handler) OnPaymentEvent(ctx context.Context, event models.PaymentEvent) error {
	if event.ReservationID == "" {
		return models.NewValidationError("payment event carries no reservation id")
	}
	if event.ExternalPaymentID == "" {
		return models.NewValidationError("payment event carries no external payment id")
	}

	res, err := h.Reservations.GetByID(ctx, event.ReservationID)
	if err != nil {
		return err
	}

	switch event.Outcome {
	case models.OutcomePaid:
		if res.Status == models.StatusExpired {
			return models.NewExpiredError(res.ID)
		}
		if event.AmountCents != res.Price.BindingCents() {
			return models.NewValidationError("payment amount %d does not match the confirmed price %d",
				event.AmountCents, res.Price.BindingCents())
		}
	case models.OutcomeFailed, models.OutcomeExpired:
		// no amount guard for failures
	case models.OutcomeLinkCreated:
		return nil // informational only
	default:
		return models.NewValidationError("unknown payment outcome %q", event.Outcome)
	}

	receipt := &models.PaymentReceipt{
		ID:                uuid.New().String(),
		ReservationID:     event.ReservationID,
		ExternalPaymentID: event.ExternalPaymentID,
		Outcome:           event.Outcome,
		AmountCents:       event.AmountCents,
		ReceivedAt:        h.now(),
	}
	created, err := h.Payments.RecordReceipt(ctx, receipt)
	if err != nil {
		return err
	}
	if !created {
		h.Logger.Info("duplicate payment event ignored",
			zap.String("reservation", event.ReservationID),
			zap.String("payment", event.ExternalPaymentID),
		)
		return nil
	}

	var applyErr error
	switch event.Outcome {
	case models.OutcomePaid:
		applyErr = h.applyPaid(ctx, event)
	case models.OutcomeFailed:
		applyErr = h.applyFailed(ctx, event)
	case models.OutcomeExpired:
		applyErr = h.OnPaymentDeadlineElapsed(ctx, event.ReservationID)
	}
	if applyErr != nil {
		// The receipt fences only applied events. Releasing it lets the
		// gateway's redelivery retry instead of being dropped as a duplicate.
		if delErr := h.Payments.DeleteReceipt(ctx, receipt.ID); delErr != nil {
			h.Logger.Error("failed to release payment receipt",
				zap.String("reservation", event.ReservationID),
				zap.String("receipt", receipt.ID),
				zap.Error(delErr),
			)
		}
		return applyErr
	}
	return nil
}

func (h *Handler) applyPaid(ctx context.Context, event models.PaymentEvent) error {
	return h.mutate(ctx, event.ReservationID, func(res *models.Reservation, now time.Time) (models.ChangeHistoryEntry, []models.OutboxEntry, error) {
		if err := res.RegisterPayment(event.AmountCents, now); err != nil {
			return models.ChangeHistoryEntry{}, nil, err
		}
		history := models.ChangeHistoryEntry{
			ID:            uuid.New().String(),
			ReservationID: res.ID,
			ChangeType:    models.ChangePaymentApplied,
			Description:   fmt.Sprintf("payment %s applied (%d %s)", event.ExternalPaymentID, event.AmountCents, event.Currency),
			ActorID:       "payment-gateway",
			Timestamp:     now,
		}
		outbox := []models.OutboxEntry{
			{
				ID:            uuid.New().String(),
				ReservationID: res.ID,
				Kind:          models.OutboxVoucherIssue,
				Status:        models.OutboxPending,
				CreatedAt:     now,
			},
			{
				ID:            uuid.New().String(),
				ReservationID: res.ID,
				Kind:          models.OutboxNotify,
				Payload: map[string]string{
					"template": "payment_received",
					"userId":   res.CustomerID,
				},
				Status:    models.OutboxPending,
				CreatedAt: now,
			},
		}
		return history, outbox, nil
	})
}

func (h *Handler) applyFailed(ctx context.Context, event models.PaymentEvent) error {
	return h.mutate(ctx, event.ReservationID, func(res *models.Reservation, now time.Time) (models.ChangeHistoryEntry, []models.OutboxEntry, error) {
		if err := res.MovePaymentTo(models.PaymentFailed, now); err != nil {
			return models.ChangeHistoryEntry{}, nil, err
		}
		history := models.ChangeHistoryEntry{
			ID:            uuid.New().String(),
			ReservationID: res.ID,
			ChangeType:    models.ChangePaymentFailed,
			Description:   "payment " + event.ExternalPaymentID + " failed",
			ActorID:       "payment-gateway",
			Timestamp:     now,
		}
		outbox := []models.OutboxEntry{{
			ID:            uuid.New().String(),
			ReservationID: res.ID,
			Kind:          models.OutboxNotify,
			Payload: map[string]string{
				"template": "payment_failed",
				"userId":   res.CustomerID,
			},
			Status:    models.OutboxPending,
			CreatedAt: now,
		}}
		return history, outbox, nil
	})
}

// OnPaymentDeadlineElapsed force-expires a reservation still awaiting payment
// past its deadline. Calls before the deadline, and calls racing a completed
// payment, leave the reservation untouched.
func (h *Handler) OnPaymentDeadlineElapsed(ctx context.Context, reservationID string) error {
	res, err := h.Reservations.GetByID(ctx, reservationID)
	if err != nil {
		return err
	}
	if res.Status != models.StatusAwaitingPayment {
		return nil
	}
	if res.PaymentDeadline == nil || h.now().Before(*res.PaymentDeadline) {
		return nil
	}

	err = h.mutate(ctx, reservationID, func(res *models.Reservation, now time.Time) (models.ChangeHistoryEntry, []models.OutboxEntry, error) {
		if res.Status != models.StatusAwaitingPayment {
			return models.ChangeHistoryEntry{}, nil, errAlreadyResolved
		}
		if err := res.Expire(now); err != nil {
			return models.ChangeHistoryEntry{}, nil, err
		}
		history := models.ChangeHistoryEntry{
			ID:            uuid.New().String(),
			ReservationID: res.ID,
			ChangeType:    models.ChangeExpired,
			Description:   "payment window elapsed",
			ActorID:       "system",
			Timestamp:     now,
		}
		outbox := []models.OutboxEntry{{
			ID:            uuid.New().String(),
			ReservationID: res.ID,
			Kind:          models.OutboxNotify,
			Payload: map[string]string{
				"template": "reservation_expired",
				"userId":   res.CustomerID,
			},
			Status:    models.OutboxPending,
			CreatedAt: now,
		}}
		return history, outbox, nil
	})
	if errors.Is(err, errAlreadyResolved) {
		return nil
	}
	return err
}

// errAlreadyResolved marks a mutation abandoned because a concurrent writer
// already moved the reservation out of the guarded state.
var errAlreadyResolved = errors.New("reservation already resolved")

func (h *Handler) mutate(
	ctx context.Context,
	id string,
	fn func(res *models.Reservation, now time.Time) (models.ChangeHistoryEntry, []models.OutboxEntry, error),
) error {
	var lastErr error
	for attempt := 0; attempt < versionRetries; attempt++ {
		res, err := h.Reservations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		expected := res.Version

		history, outbox, err := fn(res, h.now())
		if err != nil {
			return err
		}

		if err := h.Reservations.UpdateVersioned(ctx, res, expected, history, outbox); err != nil {
			if errors.Is(err, reservationRepo.ErrVersionMismatch) {
				lastErr = err
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("reservation %s kept changing concurrently: %w", id, lastErr)
}
