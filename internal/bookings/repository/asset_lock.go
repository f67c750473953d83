package repository

import (
	"context"
	"time"

	"gearbase/pkg/config"
	"gearbase/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AssetLockRepository provides advisory locks keyed by asset. Acquisition is
// a plain insert on a unique _id; a duplicate key error means another request
// holds the asset.
type AssetLockRepository interface {
	Create(ctx context.Context, lock *model.AssetLock) (*model.AssetLock, error)
	Delete(ctx context.Context, lockID string) error
}

type mongoAssetLockRepository struct {
	collection *mongo.Collection
}

func NewAssetLockRepository(cfg *config.Config) AssetLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAssetLockRepository{
		collection: db.Collection("Asset_locks"),
	}
}

func (r *mongoAssetLockRepository) Create(ctx context.Context, lock *model.AssetLock) (*model.AssetLock, error) {
	lock.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		return nil, err
	}

	return lock, nil
}

func (r *mongoAssetLockRepository) Delete(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
