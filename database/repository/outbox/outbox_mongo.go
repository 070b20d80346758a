package outboxRepo

import (
	"context"
	"fmt"
	"time"

	"reserva/database"
	"reserva/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const queryTimeout = 5 * time.Second

// MongoOutboxRepo implements OutboxRepository on MongoDB.
type MongoOutboxRepo struct {
	coll *mongo.Collection
}

func NewMongoOutboxRepo() *MongoOutboxRepo {
	return &MongoOutboxRepo{
		coll: database.MongoClient.Database(database.Name()).Collection("outbox"),
	}
}

// ClaimPending claims entries one at a time with a conditional findAndModify
// on the pending status, so two overlapping drain loops never dispatch the
// same entry twice.
func (repo *MongoOutboxRepo) ClaimPending(ctx context.Context, limit int) ([]models.OutboxEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().UTC()
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetReturnDocument(options.After)

	var claimed []models.OutboxEntry
	for i := 0; i < limit; i++ {
		var entry models.OutboxEntry
		err := repo.coll.FindOneAndUpdate(ctx,
			bson.M{"status": models.OutboxPending},
			bson.M{"$set": bson.M{"status": models.OutboxDispatched, "dispatched_at": now}},
			opts,
		).Decode(&entry)
		if err == mongo.ErrNoDocuments {
			break
		}
		if err != nil {
			return claimed, fmt.Errorf("failed to claim outbox entry: %w", err)
		}
		claimed = append(claimed, entry)
	}
	return claimed, nil
}

func (repo *MongoOutboxRepo) Requeue(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := repo.coll.UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{"status": models.OutboxPending}, "$unset": bson.M{"dispatched_at": ""}},
	)
	if err != nil {
		return fmt.Errorf("failed to requeue outbox entry %s: %w", id, err)
	}
	return nil
}
