package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	reservationRepo "reserva/database/repository/reservation"
	"reserva/models"
	"reserva/services/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// sweepStore is an in-memory versioned store for sweep tests.
type sweepStore struct {
	mu      sync.Mutex
	store   map[string]*models.Reservation
	history []models.ChangeHistoryEntry

	beforeUpdate func(s *sweepStore)
}

func newSweepStore(seed ...*models.Reservation) *sweepStore {
	s := &sweepStore{store: map[string]*models.Reservation{}}
	for _, res := range seed {
		cp := *res
		s.store[res.ID] = &cp
	}
	return s
}

func (s *sweepStore) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.store[id]
	if !ok {
		return nil, models.NewNotFoundError(id)
	}
	cp := *res
	return &cp, nil
}

func (s *sweepStore) UpdateVersioned(ctx context.Context, res *models.Reservation, expectedVersion int64, history models.ChangeHistoryEntry, outbox []models.OutboxEntry) error {
	if s.beforeUpdate != nil {
		s.beforeUpdate(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.store[res.ID]
	if !ok || current.Version != expectedVersion {
		return reservationRepo.ErrVersionMismatch
	}
	res.IncrementVersion()
	cp := *res
	s.store[res.ID] = &cp
	s.history = append(s.history, history)
	return nil
}

func (s *sweepStore) ListForSweep(ctx context.Context, f reservationRepo.SweepFilter) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Reservation
	for _, res := range s.store {
		match := false
		for _, status := range f.Statuses {
			if res.Status == status {
				match = true
			}
		}
		if !match {
			continue
		}
		if f.UnpaidSince != nil && (res.CreatedAt.After(*f.UnpaidSince) || res.PaymentStatus == models.PaymentPaid) {
			continue
		}
		out = append(out, *res)
	}
	return out, nil
}

func (s *sweepStore) CreateWithConflictCheck(ctx context.Context, res *models.Reservation, q reservationRepo.ConflictQuery, history models.ChangeHistoryEntry, outbox []models.OutboxEntry) error {
	return errors.New("not implemented")
}
func (s *sweepStore) GetByConfirmationCode(ctx context.Context, code string) (*models.Reservation, error) {
	return nil, errors.New("not implemented")
}
func (s *sweepStore) FindHolding(ctx context.Context, q reservationRepo.ConflictQuery) ([]models.Reservation, error) {
	return nil, errors.New("not implemented")
}
func (s *sweepStore) ListByAsset(ctx context.Context, assetType models.AssetType, assetID string, statuses []models.ReservationStatus) ([]models.Reservation, error) {
	return nil, errors.New("not implemented")
}
func (s *sweepStore) CountCompletedByCustomer(ctx context.Context, customerID string) (int, error) {
	return 0, errors.New("not implemented")
}

var sweepNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func rangedAt(id string, status models.ReservationStatus, start, end time.Time) *models.Reservation {
	return &models.Reservation{
		ID:            id,
		AssetType:     models.AssetVehicle,
		AssetID:       "car-7",
		CustomerID:    "cust-1",
		Window:        &models.Window{Start: start, End: end},
		Quantity:      1,
		Status:        status,
		PaymentStatus: models.PaymentNotRequired,
		Version:       1,
	}
}

func slotAt(id string, status models.ReservationStatus, date, timeOfDay string) *models.Reservation {
	return &models.Reservation{
		ID:            id,
		AssetType:     models.AssetRestaurant,
		AssetID:       "table-9",
		CustomerID:    "cust-1",
		SlotDate:      date,
		SlotTime:      timeOfDay,
		Quantity:      2,
		Status:        status,
		PaymentStatus: models.PaymentNotRequired,
		Version:       1,
	}
}

func newSweeper(store *sweepStore) *Sweeper {
	return &Sweeper{
		Repo: store,
		PaymentHandler: &payment.Handler{
			Reservations: store,
			Logger:       zap.NewNop(),
			Now:          func() time.Time { return sweepNow },
		},
		UnpaidExpiry: 30 * time.Minute,
		Logger:       zap.NewNop(),
		Now:          func() time.Time { return sweepNow },
	}
}

func TestSweepProgressStartsConsumption(t *testing.T) {
	store := newSweepStore(
		rangedAt("started", models.StatusConfirmed, sweepNow.Add(-time.Hour), sweepNow.Add(24*time.Hour)),
		rangedAt("future", models.StatusConfirmed, sweepNow.Add(time.Hour), sweepNow.Add(48*time.Hour)),
	)
	sweeper := newSweeper(store)

	require.NoError(t, sweeper.SweepProgress(context.Background()))

	started, _ := store.GetByID(context.Background(), "started")
	assert.Equal(t, models.StatusInProgress, started.Status)

	future, _ := store.GetByID(context.Background(), "future")
	assert.Equal(t, models.StatusConfirmed, future.Status, "upcoming reservations are untouched")
}

func TestSweepProgressClosesOut(t *testing.T) {
	store := newSweepStore(
		rangedAt("consumed", models.StatusInProgress, sweepNow.Add(-48*time.Hour), sweepNow.Add(-time.Hour)),
		rangedAt("never-picked-up", models.StatusConfirmed, sweepNow.Add(-48*time.Hour), sweepNow.Add(-time.Hour)),
	)
	sweeper := newSweeper(store)

	require.NoError(t, sweeper.SweepProgress(context.Background()))

	consumed, _ := store.GetByID(context.Background(), "consumed")
	assert.Equal(t, models.StatusCompleted, consumed.Status)

	noShow, _ := store.GetByID(context.Background(), "never-picked-up")
	assert.Equal(t, models.StatusNoShow, noShow.Status)
}

func TestSweepProgressSlotLifetime(t *testing.T) {
	store := newSweepStore(
		// seating began an hour ago, still within the nominal two-hour slot
		slotAt("seated", models.StatusConfirmed, "2026-03-14", "11:00"),
		// yesterday's seating elapsed entirely
		slotAt("missed", models.StatusConfirmed, "2026-03-13", "19:30"),
	)
	sweeper := newSweeper(store)

	require.NoError(t, sweeper.SweepProgress(context.Background()))

	seated, _ := store.GetByID(context.Background(), "seated")
	assert.Equal(t, models.StatusInProgress, seated.Status)

	missed, _ := store.GetByID(context.Background(), "missed")
	assert.Equal(t, models.StatusNoShow, missed.Status)
}

func TestSweepProgressIsMonotonic(t *testing.T) {
	store := newSweepStore(
		rangedAt("started", models.StatusConfirmed, sweepNow.Add(-time.Hour), sweepNow.Add(24*time.Hour)),
	)
	sweeper := newSweeper(store)

	require.NoError(t, sweeper.SweepProgress(context.Background()))
	require.NoError(t, sweeper.SweepProgress(context.Background()))

	res, _ := store.GetByID(context.Background(), "started")
	assert.Equal(t, models.StatusInProgress, res.Status)
	assert.Equal(t, int64(2), res.Version, "the second sweep must not write again")
}

func TestSweepSkipsConcurrentlyCanceled(t *testing.T) {
	store := newSweepStore(
		rangedAt("racing", models.StatusConfirmed, sweepNow.Add(-time.Hour), sweepNow.Add(24*time.Hour)),
	)
	// a cancellation lands between the sweep's read and its write
	store.beforeUpdate = func(s *sweepStore) {
		s.mu.Lock()
		defer s.mu.Unlock()
		res := s.store["racing"]
		if res.Status == models.StatusConfirmed {
			res.Status = models.StatusCanceled
			res.Version++
		}
	}
	sweeper := newSweeper(store)

	require.NoError(t, sweeper.SweepProgress(context.Background()))

	res, _ := store.GetByID(context.Background(), "racing")
	assert.Equal(t, models.StatusCanceled, res.Status, "the cancellation wins, the sweep backs off")
}

func TestSweepNoShows(t *testing.T) {
	store := newSweepStore(
		rangedAt("elapsed", models.StatusConfirmed, sweepNow.Add(-72*time.Hour), sweepNow.Add(-24*time.Hour)),
		rangedAt("ongoing", models.StatusConfirmed, sweepNow.Add(-time.Hour), sweepNow.Add(24*time.Hour)),
	)
	sweeper := newSweeper(store)

	require.NoError(t, sweeper.SweepNoShows(context.Background()))

	elapsed, _ := store.GetByID(context.Background(), "elapsed")
	assert.Equal(t, models.StatusNoShow, elapsed.Status)

	ongoing, _ := store.GetByID(context.Background(), "ongoing")
	assert.Equal(t, models.StatusConfirmed, ongoing.Status)
}

func TestSweepPaymentDeadlines(t *testing.T) {
	pastDeadline := sweepNow.Add(-time.Minute)
	futureDeadline := sweepNow.Add(time.Hour)

	overdue := slotAt("overdue", models.StatusAwaitingPayment, "2026-03-20", "19:30")
	overdue.PaymentStatus = models.PaymentPending
	overdue.PaymentDeadline = &pastDeadline

	waiting := slotAt("waiting", models.StatusAwaitingPayment, "2026-03-20", "19:30")
	waiting.PaymentStatus = models.PaymentPending
	waiting.PaymentDeadline = &futureDeadline

	store := newSweepStore(overdue, waiting)
	sweeper := newSweeper(store)

	require.NoError(t, sweeper.SweepPaymentDeadlines(context.Background()))

	got, _ := store.GetByID(context.Background(), "overdue")
	assert.Equal(t, models.StatusExpired, got.Status)
	assert.Equal(t, models.PaymentCanceled, got.PaymentStatus)

	got, _ = store.GetByID(context.Background(), "waiting")
	assert.Equal(t, models.StatusAwaitingPayment, got.Status)
}

func TestSweepPaymentDeadlinesExpiresStaleDrafts(t *testing.T) {
	stale := slotAt("stale", models.StatusDraft, "2026-03-20", "19:30")
	stale.CreatedAt = sweepNow.Add(-2 * time.Hour)

	fresh := slotAt("fresh", models.StatusDraft, "2026-03-20", "19:30")
	fresh.CreatedAt = sweepNow.Add(-10 * time.Minute)

	store := newSweepStore(stale, fresh)
	sweeper := newSweeper(store)

	require.NoError(t, sweeper.SweepPaymentDeadlines(context.Background()))

	got, _ := store.GetByID(context.Background(), "stale")
	assert.Equal(t, models.StatusExpired, got.Status)

	got, _ = store.GetByID(context.Background(), "fresh")
	assert.Equal(t, models.StatusDraft, got.Status, "drafts younger than the expiry window survive")
}

func TestSweepWritesAuditTrail(t *testing.T) {
	store := newSweepStore(
		rangedAt("started", models.StatusConfirmed, sweepNow.Add(-time.Hour), sweepNow.Add(24*time.Hour)),
	)
	sweeper := newSweeper(store)

	require.NoError(t, sweeper.SweepProgress(context.Background()))

	require.Len(t, store.history, 1)
	assert.Equal(t, models.ChangeSwept, store.history[0].ChangeType)
	assert.Equal(t, "system", store.history[0].ActorID)
}
