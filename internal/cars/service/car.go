package service

import (
	"context"
	"errors"

	authservice "carrental/internal/auth/service"
	carserrors "carrental/internal/cars/errors"
	"carrental/internal/cars/repository"
	"carrental/pkg/config"
	apperrors "carrental/pkg/errors"
	"carrental/pkg/model"
	"carrental/pkg/sanitizer"
	"carrental/pkg/validation"
)

type CarService interface {
	List(ctx context.Context) ([]*model.Car, error)
	ResolveCar(ctx context.Context, id string) (*model.Car, error)
	Create(ctx context.Context, credential string, car *model.Car) (*model.Car, error)
	Update(ctx context.Context, credential, id string, update *model.CarUpdate) (*model.Car, error)
	Delete(ctx context.Context, credential, id string) error
}

// ActiveRentals reports the active rentals recorded against any of a
// car's identifiers.
type ActiveRentals interface {
	FindActiveByCar(ctx context.Context, aliases []model.LegacyID) ([]*model.Rental, error)
}

// BookingLocker serialises changes to a car with bookings of that car. Lock
// is keyed by the car's canonical id.
type BookingLocker interface {
	Lock(ctx context.Context, carID string) (func(), error)
}

type carService struct {
	repo      repository.CarRepository
	rentals   ActiveRentals
	locker    BookingLocker
	identity  authservice.IdentityResolver
	validator *validation.Validator
	cfg       *config.Config
}

func NewCarService(
	repo repository.CarRepository,
	rentals ActiveRentals,
	locker BookingLocker,
	identity authservice.IdentityResolver,
	cfg *config.Config,
) CarService {
	return &carService{
		repo:      repo,
		rentals:   rentals,
		locker:    locker,
		identity:  identity,
		validator: validation.New(),
		cfg:       cfg,
	}
}

func (s *carService) List(ctx context.Context) ([]*model.Car, error) {
	cars, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list cars", "error", err)
		return nil, apperrors.Internal("Failed to retrieve cars", err)
	}
	if cars == nil {
		cars = []*model.Car{}
	}
	return cars, nil
}

// ResolveCar finds a car by ObjectID, string id or numeric id, in that
// order.
func (s *carService) ResolveCar(ctx context.Context, id string) (*model.Car, error) {
	identifier := model.ParseIdentifier(id)
	if identifier.IsEmpty() {
		return nil, apperrors.InvalidInput("Car ID cannot be empty")
	}
	car, err := s.repo.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, carserrors.ErrNotFound) {
			return nil, apperrors.NotFound("Car")
		}
		s.cfg.Log.Error("Failed to resolve car", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve car", err)
	}
	return car, nil
}

func (s *carService) Create(ctx context.Context, credential string, car *model.Car) (*model.Car, error) {
	if _, err := s.identity.RequireAdmin(ctx, credential); err != nil {
		return nil, err
	}
	if car == nil || car.ID.IsZero() {
		return nil, apperrors.InvalidInput("Missing car data or id")
	}
	sanitize(car)
	if err := s.validator.Check(car, "Invalid car input"); err != nil {
		s.cfg.Log.Warn("Car validation failed", "id", car.ID.String(), "error", err)
		return nil, err
	}

	if _, err := s.repo.FindByLegacyID(ctx, car.ID); err == nil {
		return nil, apperrors.Conflict("Item with this id already exists")
	} else if !errors.Is(err, carserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to check car id", err)
	}

	if err := s.repo.Create(ctx, car); err != nil {
		if errors.Is(err, carserrors.ErrDuplicateID) {
			return nil, apperrors.Conflict("Item with this id already exists")
		}
		s.cfg.Log.Error("Failed to create car", "id", car.ID.String(), "error", err)
		return nil, apperrors.Internal("Failed to create car", err)
	}

	s.cfg.Log.Info("Car created successfully", "id", car.ID.String(), "make", car.Make, "model", car.Model)
	return car, nil
}

func (s *carService) Update(ctx context.Context, credential, id string, update *model.CarUpdate) (*model.Car, error) {
	if _, err := s.identity.RequireAdmin(ctx, credential); err != nil {
		return nil, err
	}
	existing, err := s.ResolveCar(ctx, id)
	if err != nil {
		return nil, err
	}
	sanitizeUpdate(update)
	if err := s.validator.Check(update, "Invalid update input"); err != nil {
		s.cfg.Log.Warn("Car update validation failed", "id", id, "error", err)
		return nil, err
	}

	storedID := existing.ID
	renamed := update.ID != nil && !update.ID.IsZero() && !update.ID.Equal(storedID)
	if renamed {
		// held until the write so no booking lands under the old id
		release, err := s.lockCar(ctx, existing)
		if err != nil {
			return nil, err
		}
		defer release()
		if err := s.ensureRenamable(ctx, existing, *update.ID); err != nil {
			return nil, err
		}
	}

	merged := *existing
	update.Apply(&merged)
	if err := s.validator.Check(&merged, "Invalid update input"); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, storedID, &merged); err != nil {
		switch {
		case errors.Is(err, carserrors.ErrDuplicateID):
			return nil, apperrors.Conflict("Another item with this id already exists")
		case errors.Is(err, carserrors.ErrNotFound):
			return nil, apperrors.NotFound("Car")
		}
		s.cfg.Log.Error("Failed to update car", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update car", err)
	}

	s.cfg.Log.Info("Car updated successfully", "id", merged.ID.String(), "renamed", renamed)
	return &merged, nil
}

func (s *carService) lockCar(ctx context.Context, car *model.Car) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	return s.locker.Lock(ctx, car.CanonicalID())
}

// ensureRenamable rejects ids already in use and renames that would
// detach active rentals from the car.
func (s *carService) ensureRenamable(ctx context.Context, car *model.Car, newID model.LegacyID) error {
	other, err := s.repo.FindByLegacyID(ctx, newID)
	if err == nil && !other.ID.Equal(car.ID) {
		return apperrors.Conflict("Another item with this id already exists")
	}
	if err != nil && !errors.Is(err, carserrors.ErrNotFound) {
		return apperrors.Internal("Failed to check car id", err)
	}

	if s.rentals == nil {
		return nil
	}
	active, err := s.rentals.FindActiveByCar(ctx, car.Aliases())
	if err != nil {
		return apperrors.Internal("Failed to check rentals", err)
	}
	if len(active) > 0 {
		return apperrors.Conflict("Cannot change the id of a car with active rentals")
	}
	return nil
}

func (s *carService) Delete(ctx context.Context, credential, id string) error {
	if _, err := s.identity.RequireAdmin(ctx, credential); err != nil {
		return err
	}
	car, err := s.ResolveCar(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, car); err != nil {
		if errors.Is(err, carserrors.ErrNotFound) {
			return apperrors.NotFound("Car")
		}
		s.cfg.Log.Error("Failed to delete car", "id", id, "error", err)
		return apperrors.Internal("Failed to delete car", err)
	}

	s.cfg.Log.Info("Car deleted successfully", "id", car.ID.String())
	return nil
}

func sanitize(car *model.Car) {
	car.Make = sanitizer.SanitizeText(car.Make)
	car.Model = sanitizer.SanitizeText(car.Model)
	car.Category = sanitizer.SanitizeText(car.Category)
	car.Description = sanitizer.SanitizeComment(car.Description)
	car.Images = sanitizer.NormalizeImages(car.Images)
}

func sanitizeUpdate(update *model.CarUpdate) {
	sanitizer.NormalizeOptional(update.Make, sanitizer.SanitizeText)
	sanitizer.NormalizeOptional(update.Model, sanitizer.SanitizeText)
	sanitizer.NormalizeOptional(update.Category, sanitizer.SanitizeText)
	sanitizer.NormalizeOptional(update.Description, sanitizer.SanitizeComment)
	if update.Images != nil {
		images := sanitizer.NormalizeImages(*update.Images)
		update.Images = &images
	}
}
