package reservation

import (
	"context"

	reservationRepo "reserva/database/repository/reservation"
	"reserva/models"
)

// ConflictChecker answers "would this booking double-book the asset". A true
// result means the caller must reject the write; a query failure propagates
// as an error and is never treated as "no conflict".
type ConflictChecker struct {
	Repo   reservationRepo.ReservationRepository
	Assets AssetDirectory
}

// BuildQuery normalizes a candidate into the repository conflict query,
// resolving slot capacity for non-ranged assets. The orchestrator reuses it
// to run the same check inside the creation transaction.
func (c *ConflictChecker) BuildQuery(ctx context.Context, res *models.Reservation, excludeID string) (reservationRepo.ConflictQuery, error) {
	q := reservationRepo.ConflictQuery{
		AssetType: res.AssetType,
		AssetID:   res.AssetID,
		Quantity:  res.Quantity,
		ExcludeID: excludeID,
	}
	if res.AssetType.IsRanged() {
		q.Window = res.Window
		return q, nil
	}
	q.SlotDate = res.SlotDate
	q.SlotTime = res.SlotTime
	capacity, err := c.Assets.SlotCapacity(ctx, res.AssetType, res.AssetID)
	if err != nil {
		return q, models.NewExternalDependencyError("asset catalog", err)
	}
	q.Capacity = capacity
	return q, nil
}

// HasConflict checks the candidate against the asset's current holders.
// Ranged assets conflict on half-open window overlap; slot assets conflict
// when the same slot's held quantity plus the request exceeds capacity.
func (c *ConflictChecker) HasConflict(ctx context.Context, res *models.Reservation, excludeID string) (bool, error) {
	q, err := c.BuildQuery(ctx, res, excludeID)
	if err != nil {
		return false, err
	}

	holders, err := c.Repo.FindHolding(ctx, q)
	if err != nil {
		return false, err
	}

	if res.AssetType.IsRanged() {
		return len(holders) > 0, nil
	}

	held := 0
	for i := range holders {
		held += holders[i].Quantity
	}
	return held+res.Quantity > q.Capacity, nil
}
