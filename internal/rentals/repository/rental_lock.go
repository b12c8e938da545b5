package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	rentalserrors "carrental/internal/rentals/errors"
	"carrental/pkg/config"
	mongodb "carrental/pkg/db/mongo"
	"carrental/pkg/model"
)

const LockCollectionName = "Rental_locks"

// RentalLockRepository stores advisory locks shared by every API
// instance on the same database.
type RentalLockRepository interface {
	// Create returns ErrLockHeld when an unexpired lock with the same id
	// exists. An expired lock is taken over.
	Create(ctx context.Context, lock *model.RentalLock) (*model.RentalLock, error)
	// Delete removes the lock only while it is still held by owner.
	Delete(ctx context.Context, lockID, owner string) error
}

type mongoRentalLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewRentalLockRepository(cfg *config.Config, db *mongo.Database) RentalLockRepository {
	return &mongoRentalLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoRentalLockRepository) Create(ctx context.Context, lock *model.RentalLock) (*model.RentalLock, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	lock.CreatedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, lock)
	if err == nil {
		return lock, nil
	}
	if !mongodb.IsDuplicateKey(err) {
		return nil, fmt.Errorf("failed to create rental lock: %w", err)
	}

	// The TTL monitor runs about once a minute, so a lock left behind by
	// a crashed instance may still be present after it expired.
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": lock.ID, "expiresAt": bson.M{"$lt": lock.CreatedAt}})
	if err != nil {
		return nil, fmt.Errorf("failed to clear expired rental lock: %w", err)
	}
	if result.DeletedCount == 0 {
		return nil, rentalserrors.ErrLockHeld
	}
	if _, err = r.collection.InsertOne(ctx, lock); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return nil, rentalserrors.ErrLockHeld
		}
		return nil, fmt.Errorf("failed to create rental lock: %w", err)
	}
	return lock, nil
}

func (r *mongoRentalLockRepository) Delete(ctx context.Context, lockID, owner string) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner})
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("failed to delete rental lock: %w", err)
	}
	return nil
}
