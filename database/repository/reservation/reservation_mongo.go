package reservationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reserva/database"
	"reserva/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrVersionMismatch is returned when an optimistic write lost the race: the
// stored version no longer matches the one the caller read.
var ErrVersionMismatch = errors.New("reservation version mismatch")

const queryTimeout = 5 * time.Second

// MongoReservationRepo implements ReservationRepository on MongoDB.
type MongoReservationRepo struct {
	reservationColl *mongo.Collection
	historyColl     *mongo.Collection
	outboxColl      *mongo.Collection
	occupancyColl   *mongo.Collection
}

func NewMongoReservationRepo() *MongoReservationRepo {
	db := database.MongoClient.Database(database.Name())
	return &MongoReservationRepo{
		reservationColl: db.Collection("reservations"),
		historyColl:     db.Collection("change_history"),
		outboxColl:      db.Collection("outbox"),
		occupancyColl:   db.Collection("asset_occupancy"),
	}
}

func (repo *MongoReservationRepo) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var res models.Reservation
	err := repo.reservationColl.FindOne(ctx, bson.M{"id": id}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, models.NewNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reservation %s: %w", id, err)
	}
	return &res, nil
}

func (repo *MongoReservationRepo) GetByConfirmationCode(ctx context.Context, code string) (*models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var res models.Reservation
	err := repo.reservationColl.FindOne(ctx, bson.M{"confirmation_code": code}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, models.NewNotFoundError(code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reservation by code %s: %w", code, err)
	}
	return &res, nil
}

// conflictFilter builds the Mongo filter matching reservations that still
// hold the asset and compete with the requested window or slot.
func conflictFilter(q ConflictQuery) bson.M {
	filter := bson.M{
		"asset_type": q.AssetType,
		"asset_id":   q.AssetID,
		"status":     bson.M{"$in": models.HoldingStatuses()},
	}
	if q.ExcludeID != "" {
		filter["id"] = bson.M{"$ne": q.ExcludeID}
	}
	if q.Window != nil {
		// Half-open overlap: touching boundaries do not conflict.
		filter["window.start"] = bson.M{"$lt": q.Window.End}
		filter["window.end"] = bson.M{"$gt": q.Window.Start}
	} else {
		filter["slot_date"] = q.SlotDate
		filter["slot_time"] = q.SlotTime
	}
	return filter
}

func (repo *MongoReservationRepo) FindHolding(ctx context.Context, q ConflictQuery) ([]models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := repo.reservationColl.Find(ctx, conflictFilter(q))
	if err != nil {
		return nil, fmt.Errorf("conflict query failed for asset %s: %w", q.AssetID, err)
	}
	var out []models.Reservation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("conflict query decode failed for asset %s: %w", q.AssetID, err)
	}
	return out, nil
}

func (repo *MongoReservationRepo) ListByAsset(ctx context.Context, assetType models.AssetType, assetID string, statuses []models.ReservationStatus) ([]models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"asset_type": assetType, "asset_id": assetID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := repo.reservationColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations for asset %s: %w", assetID, err)
	}
	var out []models.Reservation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode reservations for asset %s: %w", assetID, err)
	}
	return out, nil
}

func (repo *MongoReservationRepo) ListForSweep(ctx context.Context, f SweepFilter) ([]models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"status": bson.M{"$in": f.Statuses}}
	if f.UnpaidSince != nil {
		filter["created_at"] = bson.M{"$lt": *f.UnpaidSince}
		filter["payment_status"] = bson.M{"$ne": models.PaymentPaid}
	}
	cursor, err := repo.reservationColl.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("sweep query failed: %w", err)
	}
	var out []models.Reservation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("sweep query decode failed: %w", err)
	}
	return out, nil
}

func (repo *MongoReservationRepo) CountCompletedByCustomer(ctx context.Context, customerID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	n, err := repo.reservationColl.CountDocuments(ctx, bson.M{
		"customer_id": customerID,
		"status":      models.StatusCompleted,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count completed reservations for customer %s: %w", customerID, err)
	}
	return int(n), nil
}
