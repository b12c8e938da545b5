package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	authservice "carrental/internal/auth/service"
	"carrental/internal/rentals/availability"
	rentalserrors "carrental/internal/rentals/errors"
	"carrental/internal/rentals/events"
	"carrental/internal/rentals/pricing"
	"carrental/internal/rentals/repository"
	"carrental/internal/rentals/validator"
	"carrental/pkg/config"
	apperrors "carrental/pkg/errors"
	"carrental/pkg/model"
	"carrental/pkg/sanitizer"
)

const appendAttempts = 3

type RentalService interface {
	CreateRental(ctx context.Context, credential, carID string, req *model.RentRequest) (*model.RentalResult, error)
	CheckAvailability(ctx context.Context, carID string, req *model.AvailabilityRequest) (*model.AvailabilityResult, error)
	CancelRental(ctx context.Context, credential, id string) (*model.RentalResult, error)
	UpdateRental(ctx context.Context, credential, id string, update *model.RentalUpdate) (*model.RentalResult, error)
	ListUserRentals(ctx context.Context, credential string) ([]*model.RentalView, error)
	ListAllRentals(ctx context.Context, credential string) ([]*model.RentalView, error)
	GetRental(ctx context.Context, credential, id string) (*model.RentalView, error)
}

// CarCatalog is the part of the car service bookings depend on.
type CarCatalog interface {
	ResolveCar(ctx context.Context, id string) (*model.Car, error)
	List(ctx context.Context) ([]*model.Car, error)
}

type UserDirectory interface {
	FindAll(ctx context.Context) ([]*model.User, error)
}

type rentalService struct {
	repo      repository.RentalRepository
	cars      CarCatalog
	users     UserDirectory
	identity  authservice.IdentityResolver
	engine    availability.Engine
	locker    *CarLocker
	events    *events.Publisher
	ids       *idGenerator
	validator *validator.RentalValidator
	cfg       *config.Config
	now       func() time.Time
}

// NewRentalService wires the booking engine. locker should be the one
// given to the car service; nil gives a private in-process locker.
func NewRentalService(
	repo repository.RentalRepository,
	cars CarCatalog,
	users UserDirectory,
	identity authservice.IdentityResolver,
	locker *CarLocker,
	publisher *events.Publisher,
	cfg *config.Config,
) RentalService {
	if publisher == nil {
		publisher = events.NewPublisher(nil, cfg.Log)
	}
	if locker == nil {
		locker = NewCarLocker(nil, cfg.RentalLockTTL, cfg.Log)
	}
	return &rentalService{
		repo:      repo,
		cars:      cars,
		users:     users,
		identity:  identity,
		engine:    availability.NewScanEngine(repo),
		locker:    locker,
		events:    publisher,
		ids:       newIDGenerator(time.Now),
		validator: validator.NewRentalValidator(cfg.Log),
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *rentalService) CreateRental(ctx context.Context, credential, carID string, req *model.RentRequest) (*model.RentalResult, error) {
	identity, err := s.identity.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	car, err := s.cars.ResolveCar(ctx, carID)
	if err != nil {
		return nil, err
	}
	if req != nil {
		req.PickupLocation = sanitizer.SanitizeText(req.PickupLocation)
		req.DropoffLocation = sanitizer.SanitizeText(req.DropoffLocation)
		req.SpecialRequests = sanitizer.SanitizeComment(req.SpecialRequests)
	}
	dates, err := s.validator.ValidateRent(req)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Lock(ctx, car.CanonicalID())
	if err != nil {
		return nil, err
	}
	defer release()

	// the car id may have changed while this request waited for the lock
	current, err := s.cars.ResolveCar(ctx, carID)
	if err != nil {
		return nil, err
	}
	if current.CanonicalID() != car.CanonicalID() {
		return nil, apperrors.Conflict("Car details changed while booking. Please try again.")
	}
	car = current

	overlapping, err := s.engine.IsOverlapping(ctx, car.Aliases(), dates, nil)
	if err != nil {
		s.cfg.Log.Error("Failed to check availability", "car_id", car.CanonicalID(), "error", err)
		return nil, apperrors.Internal("Failed to check availability", err)
	}
	if overlapping {
		return nil, apperrors.Conflict("Car is already rented for the selected dates")
	}

	quote, err := pricing.Compute(dates, car.PricePerDay)
	if err != nil {
		return nil, apperrors.InvalidInput("End date must be after start date")
	}

	user := identity.User
	rental := &model.Rental{
		CarID:           car.ID,
		UserID:          user.CanonicalID(),
		UserEmail:       user.Email,
		UserName:        user.Name,
		StartDate:       dates.Start,
		EndDate:         dates.End,
		PickupLocation:  orDefault(req.PickupLocation, model.DefaultLocation),
		DropoffLocation: orDefault(req.DropoffLocation, model.DefaultLocation),
		SpecialRequests: req.SpecialRequests,
		TotalDays:       quote.TotalDays,
		PricePerDay:     quote.PricePerDay,
		TotalPrice:      quote.TotalPrice,
		Status:          model.RentalActive,
		CreatedAt:       s.now().UTC().Truncate(time.Millisecond),
		PaymentInfo:     req.PaymentInfo,
	}
	if err := s.append(ctx, rental); err != nil {
		s.cfg.Log.Error("Failed to save rental", "car_id", car.CanonicalID(), "error", err)
		return nil, apperrors.Internal("Failed to save rental", err)
	}

	s.events.Publish(ctx, events.RentalCreated, rental)
	s.cfg.Log.Info("Rental created successfully",
		"id", rental.ID.String(),
		"car_id", rental.CarID.String(),
		"user_id", rental.UserID.String(),
		"start_date", rental.StartDate,
		"end_date", rental.EndDate,
		"total_price", rental.TotalPrice,
	)
	return &model.RentalResult{
		Message: "Car rented successfully",
		Rental:  rental,
		Car:     car,
	}, nil
}

// append retries with a fresh id when the generated one is already taken,
// which only happens after a clock step back.
func (s *rentalService) append(ctx context.Context, rental *model.Rental) error {
	var err error
	for i := 0; i < appendAttempts; i++ {
		rental.ID = model.StringID(s.ids.Next())
		if err = s.repo.Append(ctx, rental); !errors.Is(err, rentalserrors.ErrDuplicateID) {
			return err
		}
	}
	return err
}

func (s *rentalService) CheckAvailability(ctx context.Context, carID string, req *model.AvailabilityRequest) (*model.AvailabilityResult, error) {
	car, err := s.cars.ResolveCar(ctx, carID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.InvalidInput("Start date and end date are required")
	}
	dates, err := s.validator.DateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	overlapping, err := s.engine.IsOverlapping(ctx, car.Aliases(), dates, nil)
	if err != nil {
		s.cfg.Log.Error("Failed to check availability", "car_id", car.CanonicalID(), "error", err)
		return nil, apperrors.Internal("Failed to check availability", err)
	}

	return &model.AvailabilityResult{
		Available: !overlapping,
		Car: &model.CarSummary{
			ID:    car.ID,
			Make:  car.Make,
			Model: car.Model,
			Year:  car.Year,
		},
	}, nil
}

func (s *rentalService) CancelRental(ctx context.Context, credential, id string) (*model.RentalResult, error) {
	identity, err := s.identity.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	rental, err := s.findRental(ctx, id)
	if err != nil {
		return nil, err
	}
	if !identity.IsAdmin() && !identity.Owns(rental.UserID, rental.UserEmail) {
		return nil, apperrors.Forbidden("You can only cancel your own rentals")
	}

	_, release, err := s.lockRentalCar(ctx, rental)
	if err != nil {
		return nil, err
	}
	defer release()

	// re-read so two concurrent cancels cannot both succeed
	rental, err = s.findRental(ctx, id)
	if err != nil {
		return nil, err
	}
	switch rental.Status {
	case model.RentalCancelled:
		return nil, apperrors.Conflict("Rental is already cancelled")
	case model.RentalCompleted:
		return nil, apperrors.Conflict("Completed rentals cannot be cancelled")
	}
	if !identity.IsAdmin() && rental.StartDate.Before(s.today()) {
		return nil, apperrors.InvalidInput("Cannot cancel past rentals")
	}

	status := model.RentalCancelled
	cancelledAt := s.now().UTC().Truncate(time.Millisecond)
	if err := s.repo.Update(ctx, rental, &model.RentalPatch{Status: &status, CancelledAt: &cancelledAt}); err != nil {
		return nil, s.mapUpdateError(rental, err, "Failed to cancel rental")
	}

	s.events.Publish(ctx, events.RentalCancelled, rental)
	s.cfg.Log.Info("Rental cancelled successfully",
		"id", rental.ID.String(),
		"car_id", rental.CarID.String(),
		"by_admin", identity.IsAdmin(),
	)
	return &model.RentalResult{
		Message: "Rental cancelled successfully",
		Rental:  rental,
	}, nil
}

func (s *rentalService) UpdateRental(ctx context.Context, credential, id string, update *model.RentalUpdate) (*model.RentalResult, error) {
	if _, err := s.identity.RequireAdmin(ctx, credential); err != nil {
		return nil, err
	}
	rental, err := s.findRental(ctx, id)
	if err != nil {
		return nil, err
	}
	dates, reschedule, err := s.validator.ValidateUpdate(update)
	if err != nil {
		return nil, err
	}

	car, release, err := s.lockRentalCar(ctx, rental)
	if err != nil {
		return nil, err
	}
	defer release()

	if rental, err = s.findRental(ctx, id); err != nil {
		return nil, err
	}

	patch := &model.RentalPatch{}
	if reschedule {
		if err := s.reschedule(ctx, rental, car, dates, patch); err != nil {
			return nil, err
		}
	}
	if update.Status != nil && *update.Status != rental.Status {
		next := *update.Status
		if !rental.Status.CanTransitionTo(next) {
			return nil, apperrors.Conflict(fmt.Sprintf("Cannot change rental status from %s to %s", rental.Status, next))
		}
		patch.Status = &next
		if next == model.RentalCancelled {
			cancelledAt := s.now().UTC().Truncate(time.Millisecond)
			patch.CancelledAt = &cancelledAt
		}
	}

	if patch.IsEmpty() {
		return &model.RentalResult{Message: "Rental updated successfully", Rental: rental}, nil
	}
	if err := s.repo.Update(ctx, rental, patch); err != nil {
		return nil, s.mapUpdateError(rental, err, "Failed to update rental")
	}

	eventType := events.RentalUpdated
	if patch.Status != nil && *patch.Status == model.RentalCancelled {
		eventType = events.RentalCancelled
	}
	s.events.Publish(ctx, eventType, rental)
	s.cfg.Log.Info("Rental updated successfully",
		"id", rental.ID.String(),
		"car_id", rental.CarID.String(),
		"rescheduled", reschedule,
		"status", rental.Status,
	)
	return &model.RentalResult{
		Message: "Rental updated successfully",
		Rental:  rental,
	}, nil
}

// reschedule fills patch with the new dates and price after checking the
// car's other active rentals. Must run under the car lock.
func (s *rentalService) reschedule(ctx context.Context, rental *model.Rental, car *model.Car, dates model.DateRange, patch *model.RentalPatch) error {
	if !rental.IsActive() {
		return apperrors.Conflict("Only active rentals can be rescheduled")
	}

	aliases := rental.CarID.Aliases()
	if car != nil {
		aliases = car.Aliases()
	}
	overlapping, err := s.engine.IsOverlapping(ctx, aliases, dates, rental)
	if err != nil {
		s.cfg.Log.Error("Failed to check availability", "rental_id", rental.ID.String(), "error", err)
		return apperrors.Internal("Failed to check availability", err)
	}
	if overlapping {
		return apperrors.Conflict("Car is already rented for the selected dates")
	}

	rate := rental.PricePerDay
	if rate <= 0 {
		if car == nil {
			return apperrors.Conflict("Cannot reprice a rental whose car no longer exists")
		}
		rate = car.PricePerDay
		patch.PricePerDay = &rate
	}
	quote, err := pricing.Compute(dates, rate)
	if err != nil {
		return apperrors.InvalidInput("End date must be after start date")
	}

	patch.StartDate = &dates.Start
	patch.EndDate = &dates.End
	patch.TotalDays = &quote.TotalDays
	patch.TotalPrice = &quote.TotalPrice
	return nil
}

// lockRentalCar takes the lock of the car a rental was made for, under the
// same key bookings of that car use.
func (s *rentalService) lockRentalCar(ctx context.Context, rental *model.Rental) (*model.Car, func(), error) {
	car, err := s.carOf(ctx, rental)
	if err != nil {
		return nil, nil, err
	}
	key := rental.CarID.String()
	if car != nil {
		key = car.CanonicalID()
	}
	release, err := s.locker.Lock(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	return car, release, nil
}

// carOf returns the rented car, or nil when it has since been deleted.
func (s *rentalService) carOf(ctx context.Context, rental *model.Rental) (*model.Car, error) {
	cars, err := s.cars.List(ctx)
	if err != nil {
		return nil, err
	}
	return findCar(cars, rental.CarID), nil
}

func (s *rentalService) ListUserRentals(ctx context.Context, credential string) ([]*model.RentalView, error) {
	identity, err := s.identity.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	rentals, err := s.repo.ListByUser(ctx, identity.User.Aliases(), identity.User.Email)
	if err != nil {
		s.cfg.Log.Error("Failed to list user rentals", "user_id", identity.User.ID.String(), "error", err)
		return nil, apperrors.Internal("Failed to retrieve rentals", err)
	}
	cars, err := s.cars.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*model.RentalView, 0, len(rentals))
	for _, rental := range rentals {
		views = append(views, &model.RentalView{Rental: rental, Car: summaryOf(findCar(cars, rental.CarID))})
	}
	return views, nil
}

func (s *rentalService) ListAllRentals(ctx context.Context, credential string) ([]*model.RentalView, error) {
	if _, err := s.identity.RequireAdmin(ctx, credential); err != nil {
		return nil, err
	}
	rentals, err := s.repo.ListAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list rentals", "error", err)
		return nil, apperrors.Internal("Failed to retrieve rentals", err)
	}
	cars, err := s.cars.List(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list users", "error", err)
		return nil, apperrors.Internal("Failed to retrieve users", err)
	}

	views := make([]*model.RentalView, 0, len(rentals))
	for _, rental := range rentals {
		view := &model.RentalView{Rental: rental, Car: summaryOf(findCar(cars, rental.CarID))}
		if user := findUser(users, rental); user != nil {
			view.User = user.Summary()
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *rentalService) GetRental(ctx context.Context, credential, id string) (*model.RentalView, error) {
	identity, err := s.identity.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	rental, err := s.findRental(ctx, id)
	if err != nil {
		return nil, err
	}
	if !identity.IsAdmin() && !identity.Owns(rental.UserID, rental.UserEmail) {
		return nil, apperrors.Forbidden("You can only view your own rentals")
	}
	car, err := s.carOf(ctx, rental)
	if err != nil {
		return nil, err
	}
	return &model.RentalView{Rental: rental, Car: summaryOf(car)}, nil
}

func (s *rentalService) findRental(ctx context.Context, id string) (*model.Rental, error) {
	identifier := model.ParseIdentifier(id)
	if identifier.IsEmpty() {
		return nil, apperrors.InvalidInput("Rental ID cannot be empty")
	}
	rental, err := s.repo.FindByID(ctx, identifier)
	if err != nil {
		if errors.Is(err, rentalserrors.ErrNotFound) {
			return nil, apperrors.NotFound("Rental")
		}
		s.cfg.Log.Error("Failed to retrieve rental", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve rental", err)
	}
	return rental, nil
}

func (s *rentalService) mapUpdateError(rental *model.Rental, err error, message string) error {
	if errors.Is(err, rentalserrors.ErrNotFound) {
		return apperrors.NotFound("Rental")
	}
	s.cfg.Log.Error(message, "id", rental.ID.String(), "error", err)
	return apperrors.Internal(message, err)
}

func (s *rentalService) today() model.Date {
	return model.DateOf(s.now().UTC())
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// findCar prefers an exact id match over a cross-kind one, so a rental of
// car 7 is not shown as car "7" when both exist.
func findCar(cars []*model.Car, id model.LegacyID) *model.Car {
	for _, car := range cars {
		if car.ID.Equal(id) {
			return car
		}
	}
	for _, car := range cars {
		if model.ContainsAlias(car.Aliases(), id) {
			return car
		}
	}
	return nil
}

func findUser(users []*model.User, rental *model.Rental) *model.User {
	for _, user := range users {
		if model.ContainsAlias(user.Aliases(), rental.UserID) {
			return user
		}
	}
	for _, user := range users {
		if rental.UserEmail != "" && strings.EqualFold(user.Email, rental.UserEmail) {
			return user
		}
	}
	return nil
}

func summaryOf(car *model.Car) *model.CarSummary {
	if car == nil {
		return nil
	}
	return car.Summary()
}
