package mongo

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"carrental/internal/migrations/mongo/validators"
	"carrental/pkg/logger"
)

const (
	CarsCollection        = "Cars"
	UsersCollection       = "Users"
	RentalsCollection     = "Rentals"
	ReviewsCollection     = "Reviews"
	RentalLocksCollection = "Rental_locks"
)

var (
	CarsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"id": bson.M{"$exists": true}}),
		},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "price_per_day", Value: 1}}},
	}

	UsersIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"id": bson.M{"$exists": true}}),
		},
	}

	RentalsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "carId", Value: 1},
			{Key: "status", Value: 1},
			{Key: "startDate", Value: 1},
		}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userEmail", Value: 1}}},
		{
			Keys: bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"id": bson.M{"$exists": true}}),
		},
	}

	ReviewsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "carId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "carId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}

	// Expired advisory locks are reaped by the TTL monitor; acquisition
	// also clears them so correctness never waits on the reaper.
	RentalLocksIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	}
)

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func collections() map[string]collectionDef {
	return map[string]collectionDef{
		CarsCollection: {
			Indexes:   CarsIndexes,
			Validator: validators.CarValidator,
		},
		UsersCollection: {
			Indexes:   UsersIndexes,
			Validator: validators.UserValidator,
		},
		RentalsCollection: {
			Indexes:   RentalsIndexes,
			Validator: validators.RentalValidator,
		},
		ReviewsCollection: {
			Indexes:   ReviewsIndexes,
			Validator: validators.ReviewValidator,
		},
		RentalLocksCollection: {
			Indexes:   RentalLocksIndexes,
			Validator: validators.RentalLockValidator,
		},
	}
}

// RunMigration creates every collection with its schema validator and
// indexes. It is idempotent.
func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	defs := collections()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := defs[name]
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
