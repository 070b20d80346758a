package catalog

import (
	"context"

	"reserva/models"
)

// StaticDirectory is the in-process adapter for the asset catalog and
// customer directory collaborators. The catalog and identity services live
// outside this codebase; until their clients are wired this adapter serves
// fixed capacities and an empty blacklist.
type StaticDirectory struct {
	// Capacities overrides slot capacity per asset id.
	Capacities map[string]int
	// DefaultCapacity applies when an asset has no override.
	DefaultCapacity int
	// MaxQuantity caps the party size for every asset (0 = unbounded).
	MaxQuantity int
	// Blacklist holds customer ids excluded from auto-confirmation.
	Blacklist map[string]bool
}

func (d *StaticDirectory) SlotCapacity(ctx context.Context, assetType models.AssetType, assetID string) (int, error) {
	if c, ok := d.Capacities[assetID]; ok {
		return c, nil
	}
	if d.DefaultCapacity > 0 {
		return d.DefaultCapacity, nil
	}
	return 1, nil
}

func (d *StaticDirectory) QuantityBounds(ctx context.Context, assetType models.AssetType, assetID string) (int, int, error) {
	return 1, d.MaxQuantity, nil
}

func (d *StaticDirectory) Blacklisted(ctx context.Context, customerID string) (bool, error) {
	return d.Blacklist[customerID], nil
}
