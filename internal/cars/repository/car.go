package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	carserrors "carrental/internal/cars/errors"
	"carrental/pkg/config"
	mongodb "carrental/pkg/db/mongo"
	"carrental/pkg/model"
)

const (
	CollectionName = "Cars"
	FileName       = "cars.json"
)

type CarRepository interface {
	FindByIdentifier(ctx context.Context, id model.Identifier) (*model.Car, error)
	// FindByLegacyID matches id in either kind, so 7 and "7" collide.
	FindByLegacyID(ctx context.Context, id model.LegacyID) (*model.Car, error)
	FindAll(ctx context.Context) ([]*model.Car, error)
	Create(ctx context.Context, car *model.Car) error
	// Update replaces the record stored under id, which may differ from
	// car.ID when the car is renamed.
	Update(ctx context.Context, id model.LegacyID, car *model.Car) error
	Delete(ctx context.Context, car *model.Car) error
}

type mongoCarRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCarRepository(cfg *config.Config, db *mongo.Database) CarRepository {
	return &mongoCarRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoCarRepository) FindByIdentifier(ctx context.Context, id model.Identifier) (*model.Car, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	car, found, err := model.Resolve(id, model.CarLookupOrder, func(rep model.Representation) (*model.Car, bool, error) {
		filter, ok := mongodb.IdentifierFilter(id, rep)
		if !ok {
			return nil, false, nil
		}
		return r.findOne(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, carserrors.ErrNotFound
	}
	return car, nil
}

func (r *mongoCarRepository) FindByLegacyID(ctx context.Context, id model.LegacyID) (*model.Car, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	car, found, err := r.findOne(ctx, bson.M{"id": bson.M{"$in": mongodb.AliasValues(id.Aliases())}})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, carserrors.ErrNotFound
	}
	return car, nil
}

func (r *mongoCarRepository) findOne(ctx context.Context, filter bson.M) (*model.Car, bool, error) {
	var car model.Car
	err := r.collection.FindOne(ctx, filter).Decode(&car)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to find car: %w", err)
	}
	car.Normalize()
	return &car, true, nil
}

func (r *mongoCarRepository) FindAll(ctx context.Context) ([]*model.Car, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find cars: %w", err)
	}
	defer cursor.Close(ctx)

	var cars []*model.Car
	if err = cursor.All(ctx, &cars); err != nil {
		return nil, fmt.Errorf("failed to decode cars: %w", err)
	}
	for _, c := range cars {
		c.Normalize()
	}
	return cars, nil
}

func (r *mongoCarRepository) Create(ctx context.Context, car *model.Car) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	if car.CreatedAt == nil {
		now := time.Now().UTC().Truncate(time.Millisecond)
		car.CreatedAt = &now
	}
	result, err := r.collection.InsertOne(ctx, car)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return carserrors.ErrDuplicateID
		}
		return fmt.Errorf("failed to create car: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		car.ObjectID = oid
	}
	return nil
}

func (r *mongoCarRepository) Update(ctx context.Context, id model.LegacyID, car *model.Car) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	set := bson.M{
		"make":          car.Make,
		"model":         car.Model,
		"year":          car.Year,
		"price_per_day": car.PricePerDay,
		"images":        car.Images,
		"category":      car.Category,
		"description":   car.Description,
		"specs":         car.Specs,
	}
	if !car.ID.IsZero() && (car.ObjectID.IsZero() || car.ID.String() != car.ObjectID.Hex()) {
		set["id"] = car.ID
	}

	result, err := r.collection.UpdateOne(ctx, mongodb.RecordFilter(car.ObjectID, id), bson.M{"$set": set})
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return carserrors.ErrDuplicateID
		}
		return fmt.Errorf("failed to update car: %w", err)
	}
	if result.MatchedCount == 0 {
		return carserrors.ErrNotFound
	}
	return nil
}

func (r *mongoCarRepository) Delete(ctx context.Context, car *model.Car) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, mongodb.RecordFilter(car.ObjectID, car.ID))
	if err != nil {
		return fmt.Errorf("failed to delete car: %w", err)
	}
	if result.DeletedCount == 0 {
		return carserrors.ErrNotFound
	}
	return nil
}
