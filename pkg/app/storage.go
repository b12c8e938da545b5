package app

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	carsrepository "carrental/internal/cars/repository"
	healthhandler "carrental/internal/health/handler"
	rentalsrepository "carrental/internal/rentals/repository"
	reviewsrepository "carrental/internal/reviews/repository"
	usersrepository "carrental/internal/users/repository"
	"carrental/pkg/config"
	mongodb "carrental/pkg/db/mongo"
)

// Storage is the repository set of the configured backend.
type Storage struct {
	Cars    carsrepository.CarRepository
	Users   usersrepository.UserRepository
	Rentals rentalsrepository.RentalRepository
	Reviews reviewsrepository.ReviewRepository
	// Locks is nil on the file backend.
	Locks rentalsrepository.RentalLockRepository
	Ready healthhandler.StorageCheck

	client *mongo.Client
}

// OpenStorage connects to MongoDB or opens the JSON files under DataDir,
// depending on cfg.StorageBackend.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg.UseMongo() {
		return openMongoStorage(ctx, cfg)
	}
	return openFileStorage(cfg)
}

func openMongoStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	client, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoConnTimeout)
	if err != nil {
		return nil, err
	}
	cfg.Log.Info("Successfully connected to MongoDB", "database", cfg.MongoDatabaseName)

	db := client.Database(cfg.MongoDatabaseName)
	return &Storage{
		Cars:    carsrepository.NewMongoCarRepository(cfg, db),
		Users:   usersrepository.NewMongoUserRepository(cfg, db),
		Rentals: rentalsrepository.NewMongoRentalRepository(cfg, db),
		Reviews: reviewsrepository.NewMongoReviewRepository(cfg, db),
		Locks:   rentalsrepository.NewRentalLockRepository(cfg, db),
		Ready:   healthhandler.MongoCheck(client),
		client:  client,
	}, nil
}

func openFileStorage(cfg *config.Config) (*Storage, error) {
	cars, err := carsrepository.NewFileCarRepository(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open cars: %w", err)
	}
	users, err := usersrepository.NewFileUserRepository(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open users: %w", err)
	}
	rentals, err := rentalsrepository.NewFileRentalRepository(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open rentals: %w", err)
	}
	reviews, err := reviewsrepository.NewFileReviewRepository(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open reviews: %w", err)
	}
	cfg.Log.Info("Using flat-file storage", "data_dir", cfg.DataDir)

	return &Storage{
		Cars:    cars,
		Users:   users,
		Rentals: rentals,
		Reviews: reviews,
		Ready:   healthhandler.DataDirCheck(cfg.DataDir),
	}, nil
}

// Database returns the Mongo database, or nil on the file backend.
func (s *Storage) Database(cfg *config.Config) *mongo.Database {
	if s.client == nil {
		return nil
	}
	return s.client.Database(cfg.MongoDatabaseName)
}

func (s *Storage) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
