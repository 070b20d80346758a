package reservationRepo

import (
	"context"
	"time"

	"reserva/models"
)

// ConflictQuery describes the occupation check run against an asset's
// reservation set. For ranged assets Window is set; for slot assets SlotDate,
// SlotTime and Capacity are.
type ConflictQuery struct {
	AssetType models.AssetType
	AssetID   string
	Window    *models.Window
	SlotDate  string
	SlotTime  string
	Quantity  int
	Capacity  int
	ExcludeID string
}

// SweepFilter selects reservations for a time-driven sweep pass. Schedule
// bounds are resolved in the sweeper itself, where ranged windows and slot
// instants share one code path.
type SweepFilter struct {
	Statuses    []models.ReservationStatus
	UnpaidSince *time.Time // created before this and still unpaid
}

// ReservationRepository is the persistence contract for reservations,
// their audit history and their outbox entries. All writes are optimistic:
// UpdateVersioned matches on (id, version) and a mismatch is reported as
// ErrVersionMismatch, never silently applied.
type ReservationRepository interface {
	// CreateWithConflictCheck re-runs the conflict query and inserts the
	// reservation, its creation history entry and its outbox entries inside
	// one transaction that also writes the asset's shared occupancy marker,
	// so two concurrent creations cannot both pass the check. Returns a
	// conflict domain error when the asset is taken.
	CreateWithConflictCheck(ctx context.Context, res *models.Reservation, q ConflictQuery, history models.ChangeHistoryEntry, outbox []models.OutboxEntry) error

	// UpdateVersioned persists the mutated reservation conditioned on
	// expectedVersion, appending history and outbox entries atomically.
	UpdateVersioned(ctx context.Context, res *models.Reservation, expectedVersion int64, history models.ChangeHistoryEntry, outbox []models.OutboxEntry) error

	GetByID(ctx context.Context, id string) (*models.Reservation, error)
	GetByConfirmationCode(ctx context.Context, code string) (*models.Reservation, error)

	// FindHolding returns the reservations matching the conflict query that
	// are still holding the asset. Used by the standalone conflict checker;
	// creation-time checks run inside CreateWithConflictCheck instead.
	FindHolding(ctx context.Context, q ConflictQuery) ([]models.Reservation, error)

	ListByAsset(ctx context.Context, assetType models.AssetType, assetID string, statuses []models.ReservationStatus) ([]models.Reservation, error)
	ListForSweep(ctx context.Context, f SweepFilter) ([]models.Reservation, error)

	// CountCompletedByCustomer backs the customer-history rule predicate.
	CountCompletedByCustomer(ctx context.Context, customerID string) (int, error)
}
