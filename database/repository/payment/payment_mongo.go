package paymentRepo

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

// MongoPaymentRepo implements PaymentRepository on MongoDB.
type MongoPaymentRepo struct {
	receiptColl *mongo.Collection
	voucherColl *mongo.Collection
}

func NewMongoPaymentRepo() *MongoPaymentRepo {
	db := database.MongoClient.Database(database.Name())
	return &MongoPaymentRepo{
		receiptColl: db.Collection("payment_receipts"),
		voucherColl: db.Collection("vouchers"),
	}
}

// EnsureIndexes creates the unique idempotency indexes.
func (repo *MongoPaymentRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	receiptIdx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "reservation_id", Value: 1},
			{Key: "outcome", Value: 1},
			{Key: "external_payment_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	if _, err := repo.receiptColl.Indexes().CreateOne(ctx, receiptIdx); err != nil {
		return fmt.Errorf("failed to create receipt index: %w", err)
	}

	voucherIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "reservation_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := repo.voucherColl.Indexes().CreateOne(ctx, voucherIdx); err != nil {
		return fmt.Errorf("failed to create voucher index: %w", err)
	}
	return nil
}

func (repo *MongoPaymentRepo) RecordReceipt(ctx context.Context, receipt *models.PaymentReceipt) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := repo.receiptColl.InsertOne(ctx, receipt); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to record payment receipt: %w", err)
	}
	return true, nil
}

func (repo *MongoPaymentRepo) DeleteReceipt(ctx context.Context, receiptID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := repo.receiptColl.DeleteOne(ctx, bson.M{"id": receiptID}); err != nil {
		return fmt.Errorf("failed to delete payment receipt %s: %w", receiptID, err)
	}
	return nil
}

func (repo *MongoPaymentRepo) IssueVoucher(ctx context.Context, voucher *models.Voucher) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := repo.voucherColl.InsertOne(ctx, voucher); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to issue voucher: %w", err)
	}
	return true, nil
}

func (repo *MongoPaymentRepo) GetVoucher(ctx context.Context, reservationID string) (*models.Voucher, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var v models.Voucher
	err := repo.voucherColl.FindOne(ctx, bson.M{"reservation_id": reservationID}).Decode(&v)
	if err == mongo.ErrNoDocuments {
		return nil, models.NewNotFoundError(reservationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch voucher for reservation %s: %w", reservationID, err)
	}
	return &v, nil
}
