// Package seed imports the legacy JSON data set (users.json, cars.json,
// rentItem.json and reviews.json) into a fresh store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	carserrors "carrental/internal/cars/errors"
	carsrepository "carrental/internal/cars/repository"
	rentalserrors "carrental/internal/rentals/errors"
	rentalsrepository "carrental/internal/rentals/repository"
	reviewserrors "carrental/internal/reviews/errors"
	reviewsrepository "carrental/internal/reviews/repository"
	userserrors "carrental/internal/users/errors"
	usersrepository "carrental/internal/users/repository"
	"carrental/pkg/logger"
	"carrental/pkg/model"
)

// Store is one complete set of repositories, either the seed files or the
// target backend.
type Store struct {
	Cars    carsrepository.CarRepository
	Users   usersrepository.UserRepository
	Rentals rentalsrepository.RentalRepository
	Reviews reviewsrepository.ReviewRepository
}

// OpenFileStore opens the legacy JSON files under dir.
func OpenFileStore(dir string) (*Store, error) {
	cars, err := carsrepository.NewFileCarRepository(dir)
	if err != nil {
		return nil, err
	}
	users, err := usersrepository.NewFileUserRepository(dir)
	if err != nil {
		return nil, err
	}
	rentals, err := rentalsrepository.NewFileRentalRepository(dir)
	if err != nil {
		return nil, err
	}
	reviews, err := reviewsrepository.NewFileReviewRepository(dir)
	if err != nil {
		return nil, err
	}
	return &Store{Cars: cars, Users: users, Rentals: rentals, Reviews: reviews}, nil
}

type Result struct {
	Skipped bool
	Users   int
	Cars    int
	Rentals int
	Reviews int
}

type Seeder struct {
	source *Store
	target *Store
	log    *logger.Logger
}

func NewSeeder(source, target *Store, log *logger.Logger) *Seeder {
	return &Seeder{source: source, target: target, log: log}
}

// Run copies every record whose owner can be resolved in the target.
// Nothing is imported once the target already holds users or cars, and
// individual records that fail are logged and skipped.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	s.log.Info("Checking if database needs seeding")

	users, err := s.target.Users.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	cars, err := s.target.Cars.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count cars: %w", err)
	}
	if len(users) > 0 || len(cars) > 0 {
		s.log.Info("Database already has data, skipping seed",
			"users", len(users),
			"cars", len(cars),
		)
		return &Result{Skipped: true}, nil
	}

	res := &Result{}
	if res.Users, err = s.seedUsers(ctx); err != nil {
		return res, err
	}
	if res.Cars, err = s.seedCars(ctx); err != nil {
		return res, err
	}
	if res.Rentals, err = s.seedRentals(ctx); err != nil {
		return res, err
	}
	if res.Reviews, err = s.seedReviews(ctx); err != nil {
		return res, err
	}

	s.log.Info("Database seeding completed",
		"users", res.Users,
		"cars", res.Cars,
		"rentals", res.Rentals,
		"reviews", res.Reviews,
	)
	return res, nil
}

func (s *Seeder) seedUsers(ctx context.Context) (int, error) {
	users, err := s.source.Users.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed users: %w", err)
	}
	seeded := 0
	for _, u := range users {
		if _, err := s.target.Users.FindByEmail(ctx, u.Email); err == nil {
			continue
		} else if !errors.Is(err, userserrors.ErrNotFound) {
			return seeded, err
		}
		user := &model.User{
			ID:           u.ID,
			FirstName:    u.FirstName,
			LastName:     u.LastName,
			Username:     u.Username,
			Name:         u.Name,
			Email:        u.Email,
			PhoneNumber:  u.PhoneNumber,
			PasswordHash: u.PasswordHash,
			Role:         u.Role,
			CreatedAt:    u.CreatedAt,
		}
		if err := s.target.Users.Create(ctx, user); err != nil {
			s.log.Error("Error seeding user", "email", u.Email, "error", err)
			continue
		}
		seeded++
	}
	return seeded, nil
}

func (s *Seeder) seedCars(ctx context.Context) (int, error) {
	cars, err := s.source.Cars.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed cars: %w", err)
	}
	seeded := 0
	for _, c := range cars {
		car := *c
		car.ObjectID = primitive.NilObjectID
		if err := s.target.Cars.Create(ctx, &car); err != nil {
			if errors.Is(err, carserrors.ErrDuplicateID) {
				continue
			}
			s.log.Error("Error seeding car", "car_id", c.ID.String(), "make", c.Make, "model", c.Model, "error", err)
			continue
		}
		seeded++
	}
	return seeded, nil
}

// seedRentals keeps the legacy car and user ids on each rental; rentals
// whose car or user is unknown to the target are dropped.
func (s *Seeder) seedRentals(ctx context.Context) (int, error) {
	rentals, err := s.source.Rentals.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed rentals: %w", err)
	}
	seeded := 0
	for i := len(rentals) - 1; i >= 0; i-- {
		r := rentals[i]
		car, err := s.target.Cars.FindByLegacyID(ctx, r.CarID)
		if err != nil {
			if !errors.Is(err, carserrors.ErrNotFound) {
				return seeded, err
			}
			s.log.Warn("Skipping rental for unknown car", "rental_id", r.ID.String(), "car_id", r.CarID.String())
			continue
		}
		user, err := s.target.Users.FindByEmail(ctx, r.UserEmail)
		if err != nil {
			if !errors.Is(err, userserrors.ErrNotFound) {
				return seeded, err
			}
			s.log.Warn("Skipping rental for unknown user", "rental_id", r.ID.String(), "user_email", r.UserEmail)
			continue
		}

		dup, err := s.alreadySeeded(ctx, car, r)
		if err != nil {
			return seeded, err
		}
		if dup {
			continue
		}

		rental := *r
		rental.ObjectID = primitive.NilObjectID
		if rental.ID.IsZero() {
			rental.ID = model.StringID(uuid.NewString())
		}
		if rental.UserID.IsZero() {
			rental.UserID = user.CanonicalID()
		}
		rental.PickupLocation = orDefault(rental.PickupLocation, model.DefaultLocation)
		rental.DropoffLocation = orDefault(rental.DropoffLocation, model.DefaultLocation)
		if rental.PricePerDay == 0 {
			rental.PricePerDay = car.PricePerDay
		}
		if rental.PaymentInfo == nil {
			rental.PaymentInfo = map[string]any{}
		}
		rental.Normalize()

		if err := s.target.Rentals.Append(ctx, &rental); err != nil {
			if errors.Is(err, rentalserrors.ErrDuplicateID) {
				continue
			}
			s.log.Error("Error seeding rental", "rental_id", r.ID.String(), "error", err)
			continue
		}
		seeded++
	}
	return seeded, nil
}

func (s *Seeder) alreadySeeded(ctx context.Context, car *model.Car, r *model.Rental) (bool, error) {
	existing, err := s.target.Rentals.ListByCar(ctx, car.Aliases())
	if err != nil {
		return false, err
	}
	for _, e := range existing {
		if strings.EqualFold(e.UserEmail, r.UserEmail) && e.StartDate == r.StartDate && e.EndDate == r.EndDate {
			return true, nil
		}
	}
	return false, nil
}

func (s *Seeder) seedReviews(ctx context.Context) (int, error) {
	reviews, err := s.source.Reviews.ListAll(ctx, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed reviews: %w", err)
	}
	seeded := 0
	for _, r := range reviews {
		review := *r
		review.ObjectID = primitive.NilObjectID
		if review.ID == "" {
			review.ID = uuid.NewString()
		}
		if err := s.target.Reviews.Create(ctx, &review); err != nil {
			if errors.Is(err, reviewserrors.ErrDuplicateReview) {
				continue
			}
			s.log.Error("Error seeding review", "review_id", r.ID, "error", err)
			continue
		}
		seeded++
	}
	return seeded, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
