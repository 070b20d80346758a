package historyRepo

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

// MongoHistoryRepo implements HistoryRepository on MongoDB.
type MongoHistoryRepo struct {
	coll *mongo.Collection
}

func NewMongoHistoryRepo() *MongoHistoryRepo {
	return &MongoHistoryRepo{
		coll: database.MongoClient.Database(database.Name()).Collection("change_history"),
	}
}

func (repo *MongoHistoryRepo) ListByReservation(ctx context.Context, reservationID string) ([]models.ChangeHistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := repo.coll.Find(ctx, bson.M{"reservation_id": reservationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list history for reservation %s: %w", reservationID, err)
	}
	var entries []models.ChangeHistoryEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history for reservation %s: %w", reservationID, err)
	}
	return entries, nil
}
