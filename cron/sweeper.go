package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationRepo "reserva/database/repository/reservation"
	"reserva/models"
	"reserva/services/payment"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// slotLifetime is the nominal consumption window of slot-based bookings
// (tables, activity departures) for lifecycle purposes.
const slotLifetime = 2 * time.Hour

const versionRetries = 3

// Sweeper advances reservations whose scheduled time has passed and expires
// the unpaid ones. Every write is conditioned on the status observed at write
// time, so overlapping sweeps and concurrent cancellations resolve by the
// version check instead of clobbering each other.
type Sweeper struct {
	Repo           reservationRepo.ReservationRepository
	PaymentHandler *payment.Handler
	UnpaidExpiry   time.Duration
	Logger         *zap.Logger
	Now            func() time.Time
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// lifecycleWindow resolves the consumption interval of a reservation:
// the booking window for ranged assets, the slot instant plus the nominal
// slot lifetime for slot assets.
func lifecycleWindow(res *models.Reservation) (start, end time.Time, ok bool) {
	if res.Window != nil {
		return res.Window.Start, res.Window.End, true
	}
	t, err := time.Parse("2006-01-02 15:04", res.SlotDate+" "+res.SlotTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return t, t.Add(slotLifetime), true
}

// SweepProgress moves confirmed reservations whose start has passed into
// in_progress, and closes out reservations whose end has passed: completed
// when consumption began, no_show when it never did.
func (s *Sweeper) SweepProgress(ctx context.Context) error {
	candidates, err := s.Repo.ListForSweep(ctx, reservationRepo.SweepFilter{
		Statuses: []models.ReservationStatus{models.StatusConfirmed, models.StatusInProgress},
	})
	if err != nil {
		return fmt.Errorf("progress sweep query failed: %w", err)
	}

	now := s.now()
	for i := range candidates {
		res := &candidates[i]
		start, end, ok := lifecycleWindow(res)
		if !ok {
			s.Logger.Warn("reservation has no resolvable schedule", zap.String("id", res.ID))
			continue
		}

		var target models.ReservationStatus
		switch {
		case end.Before(now) && res.Status == models.StatusInProgress:
			target = models.StatusCompleted
		case end.Before(now) && res.Status == models.StatusConfirmed:
			target = models.StatusNoShow
		case start.Before(now) && res.Status == models.StatusConfirmed:
			target = models.StatusInProgress
		default:
			continue
		}

		if err := s.advance(ctx, res.ID, res.Status, target); err != nil {
			s.Logger.Error("progress sweep transition failed",
				zap.String("id", res.ID),
				zap.String("target", string(target)),
				zap.Error(err),
			)
		}
	}
	return nil
}

// SweepNoShows is the daily pass flagging confirmed reservations whose whole
// window elapsed without consumption ever starting.
func (s *Sweeper) SweepNoShows(ctx context.Context) error {
	candidates, err := s.Repo.ListForSweep(ctx, reservationRepo.SweepFilter{
		Statuses: []models.ReservationStatus{models.StatusConfirmed},
	})
	if err != nil {
		return fmt.Errorf("no-show sweep query failed: %w", err)
	}

	now := s.now()
	for i := range candidates {
		res := &candidates[i]
		_, end, ok := lifecycleWindow(res)
		if !ok || !end.Before(now) {
			continue
		}
		if err := s.advance(ctx, res.ID, models.StatusConfirmed, models.StatusNoShow); err != nil {
			s.Logger.Error("no-show sweep transition failed", zap.String("id", res.ID), zap.Error(err))
		}
	}
	return nil
}

// SweepPaymentDeadlines expires awaiting_payment reservations past their
// deadline and unpaid drafts older than the unpaid-expiry window.
func (s *Sweeper) SweepPaymentDeadlines(ctx context.Context) error {
	now := s.now()

	awaiting, err := s.Repo.ListForSweep(ctx, reservationRepo.SweepFilter{
		Statuses: []models.ReservationStatus{models.StatusAwaitingPayment},
	})
	if err != nil {
		return fmt.Errorf("deadline sweep query failed: %w", err)
	}
	for i := range awaiting {
		res := &awaiting[i]
		if res.PaymentDeadline == nil || now.Before(*res.PaymentDeadline) {
			continue
		}
		if err := s.PaymentHandler.OnPaymentDeadlineElapsed(ctx, res.ID); err != nil {
			s.Logger.Error("deadline expiry failed", zap.String("id", res.ID), zap.Error(err))
		}
	}

	cutoff := now.Add(-s.UnpaidExpiry)
	stale, err := s.Repo.ListForSweep(ctx, reservationRepo.SweepFilter{
		Statuses:    []models.ReservationStatus{models.StatusDraft},
		UnpaidSince: &cutoff,
	})
	if err != nil {
		return fmt.Errorf("unpaid draft sweep query failed: %w", err)
	}
	for i := range stale {
		res := &stale[i]
		if err := s.expire(ctx, res.ID); err != nil {
			s.Logger.Error("draft expiry failed", zap.String("id", res.ID), zap.Error(err))
		}
	}
	return nil
}

// errStateMoved marks a sweep write abandoned because the reservation left
// the observed state before the write committed.
var errStateMoved = errors.New("reservation state moved during sweep")

// advance applies one sweep transition conditioned on the status observed at
// write time. A reservation that moved concurrently (cancellation, another
// sweep) is skipped, which makes repeated sweeps monotonic.
func (s *Sweeper) advance(ctx context.Context, id string, observed, target models.ReservationStatus) error {
	err := s.mutate(ctx, id, func(res *models.Reservation, now time.Time) (models.ChangeHistoryEntry, []models.OutboxEntry, error) {
		if res.Status != observed {
			return models.ChangeHistoryEntry{}, nil, errStateMoved
		}
		if err := res.MoveTo(target, now); err != nil {
			return models.ChangeHistoryEntry{}, nil, err
		}
		history := models.ChangeHistoryEntry{
			ID:            uuid.New().String(),
			ReservationID: res.ID,
			ChangeType:    models.ChangeSwept,
			Description:   fmt.Sprintf("swept from %s to %s", observed, target),
			ActorID:       "system",
			Timestamp:     now,
		}
		return history, nil, nil
	})
	if errors.Is(err, errStateMoved) {
		return nil
	}
	return err
}

func (s *Sweeper) expire(ctx context.Context, id string) error {
	err := s.mutate(ctx, id, func(res *models.Reservation, now time.Time) (models.ChangeHistoryEntry, []models.OutboxEntry, error) {
		if res.Status.IsTerminal() {
			return models.ChangeHistoryEntry{}, nil, errStateMoved
		}
		if err := res.Expire(now); err != nil {
			return models.ChangeHistoryEntry{}, nil, err
		}
		history := models.ChangeHistoryEntry{
			ID:            uuid.New().String(),
			ReservationID: res.ID,
			ChangeType:    models.ChangeExpired,
			Description:   "expired unpaid",
			ActorID:       "system",
			Timestamp:     now,
		}
		return history, nil, nil
	})
	if errors.Is(err, errStateMoved) {
		return nil
	}
	return err
}

func (s *Sweeper) mutate(
	ctx context.Context,
	id string,
	fn func(res *models.Reservation, now time.Time) (models.ChangeHistoryEntry, []models.OutboxEntry, error),
) error {
	var lastErr error
	for attempt := 0; attempt < versionRetries; attempt++ {
		res, err := s.Repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		expected := res.Version

		history, outbox, err := fn(res, s.now())
		if err != nil {
			return err
		}

		if err := s.Repo.UpdateVersioned(ctx, res, expected, history, outbox); err != nil {
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

// Schedule registers the sweep passes on the given cron runner.
func (s *Sweeper) Schedule(c *cron.Cron, progressSpec, deadlineSpec, noShowSpec string) error {
	if _, err := c.AddFunc(progressSpec, func() {
		if err := s.SweepProgress(context.Background()); err != nil {
			s.Logger.Error("progress sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule progress sweep: %w", err)
	}
	if _, err := c.AddFunc(deadlineSpec, func() {
		if err := s.SweepPaymentDeadlines(context.Background()); err != nil {
			s.Logger.Error("deadline sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule deadline sweep: %w", err)
	}
	if _, err := c.AddFunc(noShowSpec, func() {
		if err := s.SweepNoShows(context.Background()); err != nil {
			s.Logger.Error("no-show sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule no-show sweep: %w", err)
	}
	return nil
}
