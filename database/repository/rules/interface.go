package rulesRepo

import (
	"context"

	"reserva/models"
)

// RuleRepository is the persistence contract for auto-confirmation rules.
// The rule engine only reads; partner handlers mutate.
type RuleRepository interface {
	ListEnabledForAsset(ctx context.Context, assetType models.AssetType, assetID string) ([]models.AutoConfirmRule, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.AutoConfirmRule, error)
	GetByID(ctx context.Context, id string) (*models.AutoConfirmRule, error)
	Create(ctx context.Context, rule *models.AutoConfirmRule) error
	Update(ctx context.Context, rule *models.AutoConfirmRule) error
	Delete(ctx context.Context, id string) error
}
