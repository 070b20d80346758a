package reservationRepo

import (
	"context"
	"errors"
	"fmt"

	"reserva/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// txnRetries bounds how often a creation transaction is replayed after the
// server aborts it with a transient write conflict.
const txnRetries = 3

// occupancyFilter keys the shared per-asset marker document.
func occupancyFilter(q ConflictQuery) bson.M {
	return bson.M{"asset_type": q.AssetType, "asset_id": q.AssetID}
}

// occupancyTouch is the write applied to the marker inside every creation
// transaction.
func occupancyTouch() bson.M {
	return bson.M{"$inc": bson.M{"writes": 1}}
}

// isTransientTxnError reports whether the server aborted the transaction
// with a retryable label (typically a WriteConflict between two creators
// touching the same occupancy marker).
func isTransientTxnError(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorLabel("TransientTransactionError")
}

// CreateWithConflictCheck inserts the reservation together with its creation
// audit entry and outbox entries inside one Mongo transaction. Snapshot
// isolation alone cannot stop two creators from both counting zero conflicts
// and inserting fresh documents, so the transaction first $inc-s a shared
// per-asset occupancy marker: concurrent creations for the same asset then
// write-conflict, one aborts, and its replay sees the winner's insert.
func (repo *MongoReservationRepo) CreateWithConflictCheck(
	ctx context.Context,
	res *models.Reservation,
	q ConflictQuery,
	history models.ChangeHistoryEntry,
	outbox []models.OutboxEntry,
) error {
	client := repo.reservationColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		upsert := options.Update().SetUpsert(true)
		if _, err := repo.occupancyColl.UpdateOne(sc, occupancyFilter(q), occupancyTouch(), upsert); err != nil {
			return fmt.Errorf("occupancy marker update failed for asset %s: %w", q.AssetID, err)
		}

		if q.Window != nil {
			n, err := repo.reservationColl.CountDocuments(sc, conflictFilter(q))
			if err != nil {
				return fmt.Errorf("conflict check failed for asset %s: %w", q.AssetID, err)
			}
			if n > 0 {
				return models.NewConflictError(q.AssetID)
			}
		} else {
			// Slot assets: same-slot reservations may coexist up to capacity.
			held, err := repo.sumSlotQuantity(sc, q)
			if err != nil {
				return err
			}
			if held+q.Quantity > q.Capacity {
				return models.NewConflictError(q.AssetID)
			}
		}

		if _, err := repo.reservationColl.InsertOne(sc, res); err != nil {
			return fmt.Errorf("insert reservation failed: %w", err)
		}
		if _, err := repo.historyColl.InsertOne(sc, history); err != nil {
			return fmt.Errorf("insert history entry failed: %w", err)
		}
		for i := range outbox {
			if _, err := repo.outboxColl.InsertOne(sc, outbox[i]); err != nil {
				return fmt.Errorf("insert outbox entry failed: %w", err)
			}
		}
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < txnRetries; attempt++ {
		lastErr = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
			if err := sc.StartTransaction(); err != nil {
				return err
			}
			if err := txnFn(sc); err != nil {
				_ = sc.AbortTransaction(sc)
				return err
			}
			return sc.CommitTransaction(sc)
		})
		if lastErr == nil {
			return nil
		}
		// Replay only server-aborted racers; the losing creator re-runs the
		// conflict check against the committed winner and gets the domain
		// conflict error instead.
		if !isTransientTxnError(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// sumSlotQuantity totals the quantity already held for the requested slot.
func (repo *MongoReservationRepo) sumSlotQuantity(sc mongo.SessionContext, q ConflictQuery) (int, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: conflictFilter(q)}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$quantity"}}},
		}}},
	}
	cursor, err := repo.reservationColl.Aggregate(sc, pipeline)
	if err != nil {
		return 0, fmt.Errorf("slot occupancy aggregation failed for asset %s: %w", q.AssetID, err)
	}
	var results []struct {
		Total int `bson:"total"`
	}
	if err := cursor.All(sc, &results); err != nil {
		return 0, fmt.Errorf("slot occupancy decode failed for asset %s: %w", q.AssetID, err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

// UpdateVersioned replaces the reservation document conditioned on the
// version the caller read. A concurrent writer that committed first makes
// the match fail and the caller sees ErrVersionMismatch instead of a
// silently clobbered write.
func (repo *MongoReservationRepo) UpdateVersioned(
	ctx context.Context,
	res *models.Reservation,
	expectedVersion int64,
	history models.ChangeHistoryEntry,
	outbox []models.OutboxEntry,
) error {
	client := repo.reservationColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	res.IncrementVersion()

	txnFn := func(sc mongo.SessionContext) error {
		filter := bson.M{"id": res.ID, "version": expectedVersion}
		result, err := repo.reservationColl.ReplaceOne(sc, filter, res)
		if err != nil {
			return fmt.Errorf("versioned update failed for reservation %s: %w", res.ID, err)
		}
		if result.MatchedCount == 0 {
			return ErrVersionMismatch
		}
		if _, err := repo.historyColl.InsertOne(sc, history); err != nil {
			return fmt.Errorf("insert history entry failed: %w", err)
		}
		for i := range outbox {
			if _, err := repo.outboxColl.InsertOne(sc, outbox[i]); err != nil {
				return fmt.Errorf("insert outbox entry failed: %w", err)
			}
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			// Restore the caller's copy so a retry re-reads cleanly.
			res.Version = expectedVersion
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		return err
	}
	return nil
}
