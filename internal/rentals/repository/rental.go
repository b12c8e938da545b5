package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	rentalserrors "carrental/internal/rentals/errors"
	"carrental/pkg/config"
	mongodb "carrental/pkg/db/mongo"
	"carrental/pkg/model"
)

const (
	CollectionName = "Rentals"
	FileName       = "rentItem.json"
)

type RentalRepository interface {
	Append(ctx context.Context, rental *model.Rental) error
	// FindActiveByCar returns active rentals whose carId is any of aliases.
	FindActiveByCar(ctx context.Context, aliases []model.LegacyID) ([]*model.Rental, error)
	FindByID(ctx context.Context, id model.Identifier) (*model.Rental, error)
	// Update persists patch and applies it to rental on success.
	Update(ctx context.Context, rental *model.Rental, patch *model.RentalPatch) error
	ListAll(ctx context.Context) ([]*model.Rental, error)
	// ListByUser returns rentals recorded against any of aliases or, for
	// legacy rows, against email.
	ListByUser(ctx context.Context, aliases []model.LegacyID, email string) ([]*model.Rental, error)
	// ListByCar returns every rental of the car regardless of status.
	ListByCar(ctx context.Context, aliases []model.LegacyID) ([]*model.Rental, error)
}

type mongoRentalRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRentalRepository(cfg *config.Config, db *mongo.Database) RentalRepository {
	return &mongoRentalRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoRentalRepository) Append(ctx context.Context, rental *model.Rental) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, rental)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return rentalserrors.ErrDuplicateID
		}
		return fmt.Errorf("failed to create rental: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		rental.ObjectID = oid
	}
	return nil
}

func (r *mongoRentalRepository) FindActiveByCar(ctx context.Context, aliases []model.LegacyID) ([]*model.Rental, error) {
	if len(aliases) == 0 {
		return []*model.Rental{}, nil
	}
	return r.find(ctx, bson.M{
		"carId":  bson.M{"$in": mongodb.AliasValues(aliases)},
		"status": model.RentalActive,
	}, options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}}))
}

func (r *mongoRentalRepository) ListByCar(ctx context.Context, aliases []model.LegacyID) ([]*model.Rental, error) {
	if len(aliases) == 0 {
		return []*model.Rental{}, nil
	}
	return r.find(ctx, bson.M{
		"carId": bson.M{"$in": mongodb.AliasValues(aliases)},
	}, options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}}))
}

func (r *mongoRentalRepository) FindByID(ctx context.Context, id model.Identifier) (*model.Rental, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	rental, found, err := model.Resolve(id, model.RentalLookupOrder, func(rep model.Representation) (*model.Rental, bool, error) {
		filter, ok := mongodb.IdentifierFilter(id, rep)
		if !ok {
			return nil, false, nil
		}
		var rental model.Rental
		err := r.collection.FindOne(ctx, filter).Decode(&rental)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("failed to find rental: %w", err)
		}
		rental.Normalize()
		return &rental, true, nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, rentalserrors.ErrNotFound
	}
	return rental, nil
}

func (r *mongoRentalRepository) Update(ctx context.Context, rental *model.Rental, patch *model.RentalPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, mongodb.RecordFilter(rental.ObjectID, rental.ID), bson.M{"$set": patchFields(patch)})
	if err != nil {
		return fmt.Errorf("failed to update rental: %w", err)
	}
	if result.MatchedCount == 0 {
		return rentalserrors.ErrNotFound
	}
	patch.Apply(rental)
	return nil
}

func patchFields(patch *model.RentalPatch) bson.M {
	set := bson.M{}
	if patch.StartDate != nil {
		set["startDate"] = *patch.StartDate
	}
	if patch.EndDate != nil {
		set["endDate"] = *patch.EndDate
	}
	if patch.TotalDays != nil {
		set["totalDays"] = *patch.TotalDays
	}
	if patch.PricePerDay != nil {
		set["pricePerDay"] = *patch.PricePerDay
	}
	if patch.TotalPrice != nil {
		set["totalPrice"] = *patch.TotalPrice
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.CancelledAt != nil {
		set["cancelledAt"] = *patch.CancelledAt
	}
	return set
}

func (r *mongoRentalRepository) ListAll(ctx context.Context) ([]*model.Rental, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *mongoRentalRepository) ListByUser(ctx context.Context, aliases []model.LegacyID, email string) ([]*model.Rental, error) {
	or := bson.A{}
	if len(aliases) > 0 {
		or = append(or, bson.M{"userId": bson.M{"$in": mongodb.AliasValues(aliases)}})
	}
	if email = strings.TrimSpace(email); email != "" {
		or = append(or, bson.M{"userEmail": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(email) + "$", Options: "i"}})
	}
	if len(or) == 0 {
		return []*model.Rental{}, nil
	}
	return r.find(ctx, bson.M{"$or": or}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *mongoRentalRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Rental, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find rentals: %w", err)
	}
	defer cursor.Close(ctx)

	rentals := []*model.Rental{}
	if err = cursor.All(ctx, &rentals); err != nil {
		return nil, fmt.Errorf("failed to decode rentals: %w", err)
	}
	for _, rental := range rentals {
		rental.Normalize()
	}
	return rentals, nil
}
