package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	userserrors "carrental/internal/users/errors"
	"carrental/pkg/config"
	mongodb "carrental/pkg/db/mongo"
	"carrental/pkg/model"
)

const (
	CollectionName = "Users"
	FileName       = "users.json"
)

type UserRepository interface {
	FindByIdentifier(ctx context.Context, id model.Identifier) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindAll(ctx context.Context) ([]*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, user *model.User) error
}

type mongoUserRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUserRepository(cfg *config.Config, db *mongo.Database) UserRepository {
	return &mongoUserRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoUserRepository) FindByIdentifier(ctx context.Context, id model.Identifier) (*model.User, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	user, found, err := model.Resolve(id, model.UserLookupOrder, func(rep model.Representation) (*model.User, bool, error) {
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
		return nil, userserrors.ErrNotFound
	}
	return user, nil
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	user, found, err := r.findOne(ctx, bson.M{"email": normalizeEmail(email)})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, userserrors.ErrNotFound
	}
	return user, nil
}

func (r *mongoUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	user, found, err := r.findOne(ctx, bson.M{"username": username})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, userserrors.ErrNotFound
	}
	return user, nil
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, bool, error) {
	var user model.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to find user: %w", err)
	}
	user.Normalize()
	return &user, true, nil
}

func (r *mongoUserRepository) FindAll(ctx context.Context) ([]*model.User, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*model.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	for _, u := range users {
		u.Normalize()
	}
	return users, nil
}

// Create inserts the user as given. A user without a legacy id gets the
// ObjectID hex as its canonical id.
func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	user.Email = normalizeEmail(user.Email)
	if user.CreatedAt == nil {
		now := time.Now().UTC().Truncate(time.Millisecond)
		user.CreatedAt = &now
	}
	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return duplicateError(err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ObjectID = oid
	}
	user.Normalize()
	return nil
}

func (r *mongoUserRepository) Update(ctx context.Context, user *model.User) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	user.Email = normalizeEmail(user.Email)
	update := bson.M{
		"$set": bson.M{
			"firstName":    user.FirstName,
			"lastName":     user.LastName,
			"username":     user.Username,
			"name":         user.Name,
			"email":        user.Email,
			"phoneNumber":  user.PhoneNumber,
			"passwordHash": user.PasswordHash,
			"role":         user.Role,
		},
	}
	result, err := r.collection.UpdateOne(ctx, mongodb.RecordFilter(user.ObjectID, user.ID), update)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return duplicateError(err)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return userserrors.ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) Delete(ctx context.Context, user *model.User) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, mongodb.RecordFilter(user.ObjectID, user.ID))
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return userserrors.ErrNotFound
	}
	return nil
}

func duplicateError(err error) error {
	if strings.Contains(err.Error(), "username") {
		return userserrors.ErrDuplicateUsername
	}
	return userserrors.ErrDuplicateEmail
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
