package reservation

import (
	"context"
	"time"

	"reserva/models"
)

// CreateInput is everything needed to open a reservation. Window is set for
// ranged assets (vehicles, accommodations); SlotDate/SlotTime for the rest.
type CreateInput struct {
	AssetType  models.AssetType
	AssetID    string
	CustomerID string

	Window   *models.Window
	SlotDate string
	SlotTime string

	Quantity  int
	IsPackage bool
	Details   models.ReservationDetails

	EstimatedCents int64
	Currency       string

	// Customer name, used for the admin-direct confirmation code format.
	FirstName string
	Surname   string
}

// ReservationService coordinates creation, approval, pricing and cancellation
// of reservations. Every mutation is an optimistic read-modify-write; stale
// writers are rejected and retried, never silently applied.
type ReservationService interface {
	Create(ctx context.Context, actor models.Actor, input CreateInput) (*models.Reservation, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Reservation, error)
	ListByAsset(ctx context.Context, actor models.Actor, assetType models.AssetType, assetID string) ([]models.Reservation, error)

	Approve(ctx context.Context, actor models.Actor, id string) (*models.Reservation, error)
	Reject(ctx context.Context, actor models.Actor, id, reason string) (*models.Reservation, error)
	ConfirmPrice(ctx context.Context, actor models.Actor, id string, finalCents int64) (*models.Reservation, error)
	Cancel(ctx context.Context, actor models.Actor, id, reason string) (*models.Reservation, error)
}

// AssetDirectory is the narrow catalog collaborator: the core only ever asks
// for slot capacity and quantity bounds, never for full asset documents.
type AssetDirectory interface {
	SlotCapacity(ctx context.Context, assetType models.AssetType, assetID string) (int, error)
	QuantityBounds(ctx context.Context, assetType models.AssetType, assetID string) (min, max int, err error)
}

// RuleDecider is the auto-confirmation engine seen from the orchestrator.
type RuleDecider interface {
	Decide(ctx context.Context, candidate *models.Reservation, now time.Time) (autoConfirm bool, matchedRuleID string, err error)
}

// Clock lets tests pin "now"; production wiring passes time.Now.
type Clock func() time.Time
