package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationRepo "reserva/database/repository/reservation"
	"reserva/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// versionRetries bounds how often an optimistic write is retried after losing
// a version race before the error is surfaced.
const versionRetries = 3

// DefaultReservationService implements ReservationService.
type DefaultReservationService struct {
	Repo            reservationRepo.ReservationRepository
	Checker         *ConflictChecker
	Rules           RuleDecider
	Assets          AssetDirectory
	PaymentDeadline time.Duration
	Logger          *zap.Logger
	Now             Clock
}

func (s *DefaultReservationService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func validateInput(input CreateInput) error {
	if !input.AssetType.IsValid() {
		return models.NewValidationError("unknown asset type %q", input.AssetType)
	}
	if input.AssetID == "" {
		return models.NewValidationError("asset id is required")
	}
	if input.CustomerID == "" {
		return models.NewValidationError("customer id is required")
	}
	if input.Quantity <= 0 {
		return models.NewValidationError("quantity must be positive")
	}
	if input.EstimatedCents < 0 {
		return models.NewValidationError("estimated price must not be negative")
	}
	if input.Currency == "" {
		return models.NewValidationError("currency is required")
	}
	if input.AssetType.IsRanged() {
		if input.Window == nil {
			return models.NewValidationError("%s reservations require a start/end window", input.AssetType)
		}
		if !input.Window.End.After(input.Window.Start) {
			return models.NewValidationError("window end must be after start")
		}
	} else {
		if input.SlotDate == "" || input.SlotTime == "" {
			return models.NewValidationError("%s reservations require a slot date and time", input.AssetType)
		}
		if _, err := time.Parse("2006-01-02", input.SlotDate); err != nil {
			return models.NewValidationError("slot date must be YYYY-MM-DD")
		}
		if _, err := time.Parse("15:04", input.SlotTime); err != nil {
			return models.NewValidationError("slot time must be HH:MM")
		}
	}
	return nil
}

// Create validates the input, decides the initial status through the
// auto-confirmation engine, and inserts the reservation together with its
// audit entry and side-effect records inside one conflict-checked
// transaction.
func (s *DefaultReservationService) Create(ctx context.Context, actor models.Actor, input CreateInput) (*models.Reservation, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	minQ, maxQ, err := s.Assets.QuantityBounds(ctx, input.AssetType, input.AssetID)
	if err != nil {
		return nil, models.NewExternalDependencyError("asset catalog", err)
	}
	if input.Quantity < minQ || (maxQ > 0 && input.Quantity > maxQ) {
		return nil, models.NewValidationError("quantity %d outside the allowed range [%d, %d]", input.Quantity, minQ, maxQ)
	}

	now := s.now()
	res := &models.Reservation{
		ID:            uuid.New().String(),
		AssetType:     input.AssetType,
		AssetID:       input.AssetID,
		CustomerID:    input.CustomerID,
		Window:        input.Window,
		SlotDate:      input.SlotDate,
		SlotTime:      input.SlotTime,
		Quantity:      input.Quantity,
		IsPackage:     input.IsPackage,
		Details:       input.Details,
		PaymentStatus: models.PaymentNotRequired,
		Price: models.Price{
			EstimatedCents: input.EstimatedCents,
			Currency:       input.Currency,
		},
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}

	matchedRule := ""
	switch {
	case input.IsPackage:
		// Bundled multi-asset bookings never skip manual approval.
		res.Status = models.StatusPendingApproval
	default:
		autoConfirm, ruleID, err := s.Rules.Decide(ctx, res, now)
		if err != nil {
			return nil, err
		}
		if autoConfirm {
			matchedRule = ruleID
			if actor.IsAdmin() {
				res.Status = models.StatusConfirmed
				t := now
				res.ConfirmedAt = &t
			} else {
				res.Status = models.StatusAwaitingConfirmation
			}
		} else {
			res.Status = models.StatusPendingApproval
		}
	}

	if actor.IsAdmin() {
		res.ConfirmationCode, err = AdminConfirmationCode(input.Surname, input.FirstName, now)
	} else {
		res.ConfirmationCode, err = TravelerConfirmationCode(now)
	}
	if err != nil {
		return nil, err
	}

	q, err := s.Checker.BuildQuery(ctx, res, "")
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("reservation created with status %s", res.Status)
	if matchedRule != "" {
		description += fmt.Sprintf(" (auto-confirm rule %s)", matchedRule)
	}
	history := s.historyEntry(res.ID, models.ChangeCreated, description, actor.ID, now)
	outbox := []models.OutboxEntry{
		s.outboxEntry(res.ID, models.OutboxNotify, map[string]string{
			"template": "reservation_created",
			"userId":   res.CustomerID,
			"status":   string(res.Status),
		}, now),
	}

	if err := s.Repo.CreateWithConflictCheck(ctx, res, q, history, outbox); err != nil {
		return nil, err
	}

	s.Logger.Info("reservation created",
		zap.String("id", res.ID),
		zap.String("asset", res.AssetID),
		zap.String("status", string(res.Status)),
	)
	return res, nil
}

func (s *DefaultReservationService) Get(ctx context.Context, actor models.Actor, id string) (*models.Reservation, error) {
	res, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(res) {
		return nil, models.NewAuthorizationError(actor.ID, "view this reservation")
	}
	return res, nil
}

func (s *DefaultReservationService) ListByAsset(ctx context.Context, actor models.Actor, assetType models.AssetType, assetID string) ([]models.Reservation, error) {
	if !actor.IsAdmin() {
		return nil, models.NewAuthorizationError(actor.ID, "list reservations")
	}
	return s.Repo.ListByAsset(ctx, assetType, assetID, nil)
}

// awaitsAdmin reports whether the reservation is parked on an admin action:
// manual review (pending_approval) or acknowledgement of an auto-confirmed
// traveler booking (awaiting_confirmation).
func awaitsAdmin(res *models.Reservation) bool {
	return res.Status == models.StatusPendingApproval || res.Status == models.StatusAwaitingConfirmation
}

// Approve confirms a pending or auto-confirmed reservation without changing
// its price.
func (s *DefaultReservationService) Approve(ctx context.Context, actor models.Actor, id string) (*models.Reservation, error) {
	if !actor.IsAdmin() {
		return nil, models.NewAuthorizationError(actor.ID, "approve reservations")
	}
	return s.mutate(ctx, id, func(res *models.Reservation, now time.Time) (models.ChangeHistoryEntry, []models.OutboxEntry, error) {
		if !awaitsAdmin(res) {
			return models.ChangeHistoryEntry{}, nil, models.NewInvalidTransitionError(res.ID, string(res.Status), string(models.StatusConfirmed))
		}
		if err := res.MoveTo(models.StatusConfirmed, now); err != nil {
			return models.ChangeHistoryEntry{}, nil, err
		}
		history := s.historyEntry(res.ID, models.ChangeApproved, "approved by admin", actor.ID, now)
		outbox := []models.OutboxEntry{
			s.outboxEntry(res.ID, models.OutboxNotify, map[string]string{
				"template": "reservation_confirmed",
				"userId":   res.CustomerID,
			}, now),
		}
		return history, outbox, nil
	})
}

// Reject declines a pending reservation.
func (s *DefaultReservationService) Reject(ctx context.Context, actor models.Actor, id, reason string) (*models.Reservation, error) {
	if !actor.IsAdmin() {
		return nil, models.NewAuthorizationError(actor.ID, "reject reservations")
	}
	return s.mutate(ctx, id, func(res *models.Reservation, now time.Time) (models.ChangeHistoryEntry, []models.OutboxEntry, error) {
		if res.Status != models.StatusPendingApproval {
			return models.ChangeHistoryEntry{}, nil, models.NewInvalidTransitionError(res.ID, string(res.Status), string(models.StatusRejected))
		}
		if err := res.MoveTo(models.StatusRejected, now); err != nil {
			return models.ChangeHistoryEntry{}, nil, err
		}
		if res.PaymentStatus == models.PaymentPending || res.PaymentStatus == models.PaymentProcessing {
			if err := res.MovePaymentTo(models.PaymentCanceled, now); err != nil {
				return models.ChangeHistoryEntry{}, nil, err
			}
		}
		history := s.historyEntry(res.ID, models.ChangeRejected, "rejected: "+reason, actor.ID, now)
		outbox := []models.OutboxEntry{
			s.outboxEntry(res.ID, models.OutboxNotify, map[string]string{
				"template": "reservation_rejected",
				"userId":   res.CustomerID,
				"reason":   reason,
			}, now),
		}
		return history, outbox, nil
	})
}

// ConfirmPrice binds the final price, opens the payment window and requests a
// payment link carrying the confirmed amount, never the original estimate.
func (s *DefaultReservationService) ConfirmPrice(ctx context.Context, actor models.Actor, id string, finalCents int64) (*models.Reservation, error) {
	if !actor.IsAdmin() {
		return nil, models.NewAuthorizationError(actor.ID, "confirm reservation prices")
	}
	if finalCents <= 0 {
		return nil, models.NewValidationError("final price must be positive")
	}
	return s.mutate(ctx, id, func(res *models.Reservation, now time.Time) (models.ChangeHistoryEntry, []models.OutboxEntry, error) {
		if !awaitsAdmin(res) {
			return models.ChangeHistoryEntry{}, nil, models.NewInvalidTransitionError(res.ID, string(res.Status), string(models.StatusAwaitingPayment))
		}
		price := finalCents
		res.Price.FinalCents = &price
		if err := res.OpenPaymentWindow(now.Add(s.PaymentDeadline), now); err != nil {
			return models.ChangeHistoryEntry{}, nil, err
		}
		history := s.historyEntry(res.ID, models.ChangePriceConfirmed,
			fmt.Sprintf("price confirmed at %d %s, payment due %s", finalCents, res.Price.Currency, res.PaymentDeadline.Format(time.RFC3339)),
			actor.ID, now)
		outbox := []models.OutboxEntry{
			s.outboxEntry(res.ID, models.OutboxPaymentLink, map[string]string{
				"amountCents": fmt.Sprintf("%d", finalCents),
				"currency":    res.Price.Currency,
			}, now),
			s.outboxEntry(res.ID, models.OutboxNotify, map[string]string{
				"template": "payment_requested",
				"userId":   res.CustomerID,
			}, now),
		}
		return history, outbox, nil
	})
}

// Cancel moves any non-terminal reservation to canceled; travelers may only
// cancel their own.
func (s *DefaultReservationService) Cancel(ctx context.Context, actor models.Actor, id, reason string) (*models.Reservation, error) {
	return s.mutate(ctx, id, func(res *models.Reservation, now time.Time) (models.ChangeHistoryEntry, []models.OutboxEntry, error) {
		if !actor.CanManage(res) {
			return models.ChangeHistoryEntry{}, nil, models.NewAuthorizationError(actor.ID, "cancel this reservation")
		}
		if err := res.Cancel(now); err != nil {
			return models.ChangeHistoryEntry{}, nil, err
		}
		if res.PaymentStatus == models.PaymentPending || res.PaymentStatus == models.PaymentProcessing {
			if err := res.MovePaymentTo(models.PaymentCanceled, now); err != nil {
				return models.ChangeHistoryEntry{}, nil, err
			}
		}
		history := s.historyEntry(res.ID, models.ChangeCanceled, "canceled: "+reason, actor.ID, now)
		outbox := []models.OutboxEntry{
			s.outboxEntry(res.ID, models.OutboxNotify, map[string]string{
				"template": "reservation_canceled",
				"userId":   res.CustomerID,
			}, now),
		}
		return history, outbox, nil
	})
}

// mutate runs an optimistic read-modify-write, retrying a bounded number of
// times when a concurrent writer bumped the version first.
func (s *DefaultReservationService) mutate(
	ctx context.Context,
	id string,
	fn func(res *models.Reservation, now time.Time) (models.ChangeHistoryEntry, []models.OutboxEntry, error),
) (*models.Reservation, error) {
	var lastErr error
	for attempt := 0; attempt < versionRetries; attempt++ {
		res, err := s.Repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		expected := res.Version

		now := s.now()
		history, outbox, err := fn(res, now)
		if err != nil {
			return nil, err
		}

		if err := s.Repo.UpdateVersioned(ctx, res, expected, history, outbox); err != nil {
			if errors.Is(err, reservationRepo.ErrVersionMismatch) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return res, nil
	}
	return nil, fmt.Errorf("reservation %s kept changing concurrently: %w", id, lastErr)
}

func (s *DefaultReservationService) historyEntry(reservationID string, changeType models.ChangeType, description, actorID string, now time.Time) models.ChangeHistoryEntry {
	return models.ChangeHistoryEntry{
		ID:            uuid.New().String(),
		ReservationID: reservationID,
		ChangeType:    changeType,
		Description:   description,
		ActorID:       actorID,
		Timestamp:     now,
	}
}

func (s *DefaultReservationService) outboxEntry(reservationID string, kind models.OutboxKind, payload map[string]string, now time.Time) models.OutboxEntry {
	return models.OutboxEntry{
		ID:            uuid.New().String(),
		ReservationID: reservationID,
		Kind:          kind,
		Payload:       payload,
		Status:        models.OutboxPending,
		CreatedAt:     now,
	}
}
