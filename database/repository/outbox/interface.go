package outboxRepo

import (
	"context"

	"reserva/models"
)

// OutboxRepository drains side-effect records written by reservation
// transitions. Entries are appended by the reservation repository inside the
// same transaction as the state change; this interface only claims and
// finalizes them.
type OutboxRepository interface {
	// ClaimPending atomically flips up to limit pending entries to
	// dispatched and returns them. An entry is claimed by at most one drain
	// loop invocation.
	ClaimPending(ctx context.Context, limit int) ([]models.OutboxEntry, error)

	// Requeue puts a claimed entry back to pending after a dispatch failure.
	Requeue(ctx context.Context, id string) error
}
