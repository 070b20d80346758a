package rulesRepo

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

// MongoRuleRepo implements RuleRepository on MongoDB.
type MongoRuleRepo struct {
	coll *mongo.Collection
}

func NewMongoRuleRepo() *MongoRuleRepo {
	return &MongoRuleRepo{
		coll: database.MongoClient.Database(database.Name()).Collection("auto_confirm_rules"),
	}
}

func (repo *MongoRuleRepo) ListEnabledForAsset(ctx context.Context, assetType models.AssetType, assetID string) ([]models.AutoConfirmRule, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"asset_type": assetType, "asset_id": assetID, "enabled": true}
	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: 1}})
	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules for asset %s: %w", assetID, err)
	}
	var rules []models.AutoConfirmRule
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode rules for asset %s: %w", assetID, err)
	}
	return rules, nil
}

func (repo *MongoRuleRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.AutoConfirmRule, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: 1}})
	cursor, err := repo.coll.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules for owner %s: %w", ownerID, err)
	}
	var rules []models.AutoConfirmRule
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode rules for owner %s: %w", ownerID, err)
	}
	return rules, nil
}

func (repo *MongoRuleRepo) GetByID(ctx context.Context, id string) (*models.AutoConfirmRule, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rule models.AutoConfirmRule
	err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&rule)
	if err == mongo.ErrNoDocuments {
		return nil, models.NewNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rule %s: %w", id, err)
	}
	return &rule, nil
}

func (repo *MongoRuleRepo) Create(ctx context.Context, rule *models.AutoConfirmRule) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctx, rule); err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}
	return nil
}

func (repo *MongoRuleRepo) Update(ctx context.Context, rule *models.AutoConfirmRule) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := repo.coll.ReplaceOne(ctx, bson.M{"id": rule.ID}, rule)
	if err != nil {
		return fmt.Errorf("failed to update rule %s: %w", rule.ID, err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError(rule.ID)
	}
	return nil
}

func (repo *MongoRuleRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := repo.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete rule %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundError(id)
	}
	return nil
}
