package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	assetserrors "gearbase/internal/assets/errors"
	"gearbase/pkg/config"
	"gearbase/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Assets"
)

type AssetRepository interface {
	Create(ctx context.Context, asset *model.Asset) error
	FindByID(ctx context.Context, id string) (*model.Asset, error)
	FindByIDs(ctx context.Context, orgID string, ids []string) ([]*model.Asset, error)
	FindAll(ctx context.Context, orgID string, limit int, offset int64) ([]*model.Asset, error)
	Count(ctx context.Context, orgID string) (int64, error)
	Update(ctx context.Context, id string, asset *model.Asset) error
	SetAvailability(ctx context.Context, id string, available bool) error
}

type mongoAssetRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAssetRepository(cfg *config.Config) AssetRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAssetRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoAssetRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoAssetRepository) Create(ctx context.Context, asset *model.Asset) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	asset.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, asset)
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		asset.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAssetRepository) FindByID(ctx context.Context, id string) (*model.Asset, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", assetserrors.ErrInvalidID, id)
	}

	var asset model.Asset
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&asset)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, assetserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find asset: %w", err)
	}

	return &asset, nil
}

func (r *mongoAssetRepository) FindByIDs(ctx context.Context, orgID string, ids []string) ([]*model.Asset, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objectID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", assetserrors.ErrInvalidID, id)
		}
		objectIDs = append(objectIDs, objectID)
	}

	filter := bson.M{
		"_id":             bson.M{"$in": objectIDs},
		"organization_id": orgID,
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find assets by ids: %w", err)
	}
	defer cursor.Close(ctx)

	var assets []*model.Asset
	if err = cursor.All(ctx, &assets); err != nil {
		return nil, fmt.Errorf("failed to decode assets: %w", err)
	}

	return assets, nil
}

func (r *mongoAssetRepository) FindAll(ctx context.Context, orgID string, limit int, offset int64) ([]*model.Asset, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"organization_id": orgID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find assets: %w", err)
	}
	defer cursor.Close(ctx)

	var assets []*model.Asset
	if err = cursor.All(ctx, &assets); err != nil {
		return nil, fmt.Errorf("failed to decode assets: %w", err)
	}

	return assets, nil
}

func (r *mongoAssetRepository) Count(ctx context.Context, orgID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"organization_id": orgID})
	if err != nil {
		return 0, fmt.Errorf("failed to count assets: %w", err)
	}
	return count, nil
}

func (r *mongoAssetRepository) Update(ctx context.Context, id string, asset *model.Asset) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", assetserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"name":       asset.Name,
			"tags":       asset.Tags,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}
	if result.MatchedCount == 0 {
		return assetserrors.ErrNotFound
	}
	return nil
}

func (r *mongoAssetRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", assetserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"available":  available,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to set asset availability: %w", err)
	}
	if result.MatchedCount == 0 {
		return assetserrors.ErrNotFound
	}
	return nil
}
