package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	reviewserrors "carrental/internal/reviews/errors"
	"carrental/pkg/config"
	mongodb "carrental/pkg/db/mongo"
	"carrental/pkg/model"
)

const (
	CollectionName = "Reviews"
	FileName       = "reviews.json"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	FindByID(ctx context.Context, id string) (*model.Review, error)
	FindByUserAndCar(ctx context.Context, userAliases, carAliases []model.LegacyID) (*model.Review, error)
	// ListByCar returns one page of a car's reviews, newest first.
	ListByCar(ctx context.Context, carAliases []model.LegacyID, limit int, offset int64) ([]*model.Review, error)
	ListByUser(ctx context.Context, userAliases []model.LegacyID) ([]*model.Review, error)
	ListAll(ctx context.Context, limit int, offset int64) ([]*model.Review, error)
	// Stats counts and averages the ratings of a car, or of every review
	// when carAliases is nil.
	Stats(ctx context.Context, carAliases []model.LegacyID) (int64, float64, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, review *model.Review) error
}

type mongoReviewRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoReviewRepository(cfg *config.Config, db *mongo.Database) ReviewRepository {
	return &mongoReviewRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoReviewRepository) Create(ctx context.Context, review *model.Review) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return reviewserrors.ErrDuplicateReview
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ObjectID = oid
	}
	return nil
}

func (r *mongoReviewRepository) FindByID(ctx context.Context, id string) (*model.Review, error) {
	filter := bson.M{"id": id}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		filter = bson.M{"$or": bson.A{bson.M{"_id": oid}, bson.M{"id": id}}}
	}
	return r.findOne(ctx, filter)
}

func (r *mongoReviewRepository) FindByUserAndCar(ctx context.Context, userAliases, carAliases []model.LegacyID) (*model.Review, error) {
	return r.findOne(ctx, bson.M{
		"userId": bson.M{"$in": mongodb.AliasValues(userAliases)},
		"carId":  bson.M{"$in": mongodb.AliasValues(carAliases)},
	})
}

func (r *mongoReviewRepository) findOne(ctx context.Context, filter bson.M) (*model.Review, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	var review model.Review
	if err := r.collection.FindOne(ctx, filter).Decode(&review); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reviewserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	review.Normalize()
	return &review, nil
}

func (r *mongoReviewRepository) ListByCar(ctx context.Context, carAliases []model.LegacyID, limit int, offset int64) ([]*model.Review, error) {
	return r.find(ctx, carFilter(carAliases), limit, offset)
}

func (r *mongoReviewRepository) ListByUser(ctx context.Context, userAliases []model.LegacyID) ([]*model.Review, error) {
	return r.find(ctx, bson.M{"userId": bson.M{"$in": mongodb.AliasValues(userAliases)}}, 0, 0)
}

func (r *mongoReviewRepository) ListAll(ctx context.Context, limit int, offset int64) ([]*model.Review, error) {
	return r.find(ctx, bson.M{}, limit, offset)
}

func (r *mongoReviewRepository) find(ctx context.Context, filter bson.M, limit int, offset int64) ([]*model.Review, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit)).SetSkip(offset)
	}
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := []*model.Review{}
	if err = cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	for _, review := range reviews {
		review.Normalize()
	}
	return reviews, nil
}

func (r *mongoReviewRepository) Stats(ctx context.Context, carAliases []model.LegacyID) (int64, float64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	match := bson.M{}
	if carAliases != nil {
		match = carFilter(carAliases)
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var stats []struct {
		Count   int64   `bson:"count"`
		Average float64 `bson:"average"`
	}
	if err = cursor.All(ctx, &stats); err != nil {
		return 0, 0, fmt.Errorf("failed to decode review stats: %w", err)
	}
	if len(stats) == 0 {
		return 0, 0, nil
	}
	return stats[0].Count, stats[0].Average, nil
}

func (r *mongoReviewRepository) Update(ctx context.Context, review *model.Review) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, reviewFilter(review), bson.M{"$set": bson.M{
		"rating":    review.Rating,
		"comment":   review.Comment,
		"updatedAt": review.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	if result.MatchedCount == 0 {
		return reviewserrors.ErrNotFound
	}
	return nil
}

func (r *mongoReviewRepository) Delete(ctx context.Context, review *model.Review) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, reviewFilter(review))
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if result.DeletedCount == 0 {
		return reviewserrors.ErrNotFound
	}
	return nil
}

func carFilter(carAliases []model.LegacyID) bson.M {
	return bson.M{"carId": bson.M{"$in": mongodb.AliasValues(carAliases)}}
}

func reviewFilter(review *model.Review) bson.M {
	if !review.ObjectID.IsZero() {
		return bson.M{"_id": review.ObjectID}
	}
	return bson.M{"id": review.ID}
}
