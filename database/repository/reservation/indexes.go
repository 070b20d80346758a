package reservationRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the conflict checker and sweeps rely on.
func (repo *MongoReservationRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "asset_type", Value: 1},
				{Key: "asset_id", Value: 1},
				{Key: "window.start", Value: 1},
				{Key: "window.end", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "asset_id", Value: 1},
				{Key: "status", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "asset_id", Value: 1},
				{Key: "slot_date", Value: 1},
				{Key: "slot_time", Value: 1},
			},
		},
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "confirmation_code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "payment_deadline", Value: 1}},
		},
	}

	if _, err := repo.reservationColl.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create reservation indexes: %w", err)
	}

	historyIdx := mongo.IndexModel{Keys: bson.D{
		{Key: "reservation_id", Value: 1},
		{Key: "timestamp", Value: 1},
	}}
	if _, err := repo.historyColl.Indexes().CreateOne(ctx, historyIdx); err != nil {
		return fmt.Errorf("failed to create history index: %w", err)
	}

	outboxIdx := mongo.IndexModel{Keys: bson.D{
		{Key: "status", Value: 1},
		{Key: "created_at", Value: 1},
	}}
	if _, err := repo.outboxColl.Indexes().CreateOne(ctx, outboxIdx); err != nil {
		return fmt.Errorf("failed to create outbox index: %w", err)
	}

	// One marker document per asset; the unique index keeps the upsert from
	// minting duplicates under concurrent creations.
	occupancyIdx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "asset_type", Value: 1},
			{Key: "asset_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	if _, err := repo.occupancyColl.Indexes().CreateOne(ctx, occupancyIdx); err != nil {
		return fmt.Errorf("failed to create occupancy index: %w", err)
	}
	return nil
}
