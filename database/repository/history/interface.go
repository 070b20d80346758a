package historyRepo

import (
	"context"

	"reserva/models"
)

// HistoryRepository is the read side of the audit trail. Writes happen inside
// reservation transactions; entries are never mutated or deleted.
type HistoryRepository interface {
	ListByReservation(ctx context.Context, reservationID string) ([]models.ChangeHistoryEntry, error)
}
