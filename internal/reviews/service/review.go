package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	authservice "carrental/internal/auth/service"
	reviewserrors "carrental/internal/reviews/errors"
	"carrental/internal/reviews/repository"
	"carrental/pkg/config"
	apperrors "carrental/pkg/errors"
	"carrental/pkg/model"
	"carrental/pkg/sanitizer"
	"carrental/pkg/validation"
)

const defaultPageLimit = 10

type ReviewService interface {
	Create(ctx context.Context, credential string, req *model.ReviewCreate) (*model.Review, error)
	ListByCar(ctx context.Context, carID string, page, limit int) (*model.ReviewPage, error)
	ListMine(ctx context.Context, credential string) ([]*model.Review, error)
	ListAll(ctx context.Context, credential string, page, limit int) (*model.ReviewPage, error)
	Update(ctx context.Context, credential, id string, update *model.ReviewUpdate) (*model.Review, error)
	Delete(ctx context.Context, credential, id string) error
	Eligibility(ctx context.Context, credential, carID string) (*model.ReviewEligibility, error)
}

type CarCatalog interface {
	ResolveCar(ctx context.Context, id string) (*model.Car, error)
}

// RentalHistory lists the rentals a user made, matched by id or email.
type RentalHistory interface {
	ListByUser(ctx context.Context, aliases []model.LegacyID, email string) ([]*model.Rental, error)
}

type reviewService struct {
	repo      repository.ReviewRepository
	cars      CarCatalog
	rentals   RentalHistory
	identity  authservice.IdentityResolver
	validator *validation.Validator
	cfg       *config.Config
	now       func() time.Time
}

func NewReviewService(
	repo repository.ReviewRepository,
	cars CarCatalog,
	rentals RentalHistory,
	identity authservice.IdentityResolver,
	cfg *config.Config,
) ReviewService {
	return &reviewService{
		repo:      repo,
		cars:      cars,
		rentals:   rentals,
		identity:  identity,
		validator: validation.New(),
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *reviewService) Create(ctx context.Context, credential string, req *model.ReviewCreate) (*model.Review, error) {
	identity, err := s.identity.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.InvalidInput("Missing review data")
	}
	req.Comment = sanitizer.SanitizeComment(req.Comment)
	if err := s.validator.Check(req, "Invalid review input"); err != nil {
		s.cfg.Log.Warn("Review validation failed", "car_id", req.CarID, "error", err)
		return nil, err
	}
	car, err := s.cars.ResolveCar(ctx, req.CarID)
	if err != nil {
		return nil, err
	}

	eligibility, err := s.eligibility(ctx, identity, car)
	if err != nil {
		return nil, err
	}
	if eligibility.AlreadyReviewed {
		return nil, apperrors.Conflict("You have already reviewed this car")
	}
	if !eligibility.Eligible {
		return nil, apperrors.Forbidden(eligibility.Reason)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	review := &model.Review{
		ID:        uuid.NewString(),
		CarID:     car.ID,
		UserID:    identity.User.CanonicalID(),
		UserName:  identity.User.Name,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, reviewserrors.ErrDuplicateReview) {
			return nil, apperrors.Conflict("You have already reviewed this car")
		}
		s.cfg.Log.Error("Failed to create review", "car_id", car.CanonicalID(), "error", err)
		return nil, apperrors.Internal("Failed to create review", err)
	}

	s.cfg.Log.Info("Review created successfully", "id", review.ID, "car_id", review.CarID.String(), "rating", review.Rating)
	return review, nil
}

func (s *reviewService) Eligibility(ctx context.Context, credential, carID string) (*model.ReviewEligibility, error) {
	identity, err := s.identity.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	car, err := s.cars.ResolveCar(ctx, carID)
	if err != nil {
		return nil, err
	}
	return s.eligibility(ctx, identity, car)
}

// eligibility allows one review per car, after a rental of it that was not
// cancelled has ended.
func (s *reviewService) eligibility(ctx context.Context, identity *authservice.Identity, car *model.Car) (*model.ReviewEligibility, error) {
	existing, err := s.repo.FindByUserAndCar(ctx, identity.User.Aliases(), car.Aliases())
	if err != nil && !errors.Is(err, reviewserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to check existing reviews", err)
	}
	if existing != nil {
		return &model.ReviewEligibility{AlreadyReviewed: true, Reason: "You have already reviewed this car"}, nil
	}

	rentals, err := s.rentals.ListByUser(ctx, identity.User.Aliases(), identity.User.Email)
	if err != nil {
		return nil, apperrors.Internal("Failed to check rental history", err)
	}
	today := model.DateOf(s.now().UTC())
	carAliases := car.Aliases()
	for _, rental := range rentals {
		if rental.Status == model.RentalCancelled || !model.ContainsAlias(carAliases, rental.CarID) {
			continue
		}
		if rental.EndDate.Before(today) {
			return &model.ReviewEligibility{Eligible: true}, nil
		}
	}
	return &model.ReviewEligibility{Reason: "You can only review cars you have rented after the rental has ended"}, nil
}

func (s *reviewService) ListByCar(ctx context.Context, carID string, page, limit int) (*model.ReviewPage, error) {
	car, err := s.cars.ResolveCar(ctx, carID)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, car.Aliases(), page, limit)
}

func (s *reviewService) ListAll(ctx context.Context, credential string, page, limit int) (*model.ReviewPage, error) {
	if _, err := s.identity.RequireAdmin(ctx, credential); err != nil {
		return nil, err
	}
	return s.page(ctx, nil, page, limit)
}

func (s *reviewService) page(ctx context.Context, carAliases []model.LegacyID, page, limit int) (*model.ReviewPage, error) {
	page = max(1, page)
	if limit <= 0 {
		limit = defaultPageLimit
	}
	offset := int64(page-1) * int64(limit)

	var (
		reviews []*model.Review
		err     error
	)
	if carAliases == nil {
		reviews, err = s.repo.ListAll(ctx, limit, offset)
	} else {
		reviews, err = s.repo.ListByCar(ctx, carAliases, limit, offset)
	}
	if err != nil {
		s.cfg.Log.Error("Failed to list reviews", "error", err)
		return nil, apperrors.Internal("Failed to retrieve reviews", err)
	}
	total, average, err := s.repo.Stats(ctx, carAliases)
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate reviews", "error", err)
		return nil, apperrors.Internal("Failed to retrieve reviews", err)
	}

	return &model.ReviewPage{
		Reviews:       reviews,
		Total:         total,
		Page:          page,
		Limit:         limit,
		AverageRating: math.Round(average*10) / 10,
	}, nil
}

func (s *reviewService) ListMine(ctx context.Context, credential string) ([]*model.Review, error) {
	identity, err := s.identity.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	reviews, err := s.repo.ListByUser(ctx, identity.User.Aliases())
	if err != nil {
		s.cfg.Log.Error("Failed to list user reviews", "user_id", identity.User.ID.String(), "error", err)
		return nil, apperrors.Internal("Failed to retrieve reviews", err)
	}
	return reviews, nil
}

func (s *reviewService) Update(ctx context.Context, credential, id string, update *model.ReviewUpdate) (*model.Review, error) {
	review, err := s.authorised(ctx, credential, id, "You can only edit your own reviews")
	if err != nil {
		return nil, err
	}
	if update == nil {
		return review, nil
	}
	sanitizer.NormalizeOptional(update.Comment, sanitizer.SanitizeComment)
	if err := s.validator.Check(update, "Invalid review update"); err != nil {
		s.cfg.Log.Warn("Review update validation failed", "id", id, "error", err)
		return nil, err
	}

	update.Apply(review)
	review.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
	if err := s.repo.Update(ctx, review); err != nil {
		if errors.Is(err, reviewserrors.ErrNotFound) {
			return nil, apperrors.NotFound("Review")
		}
		s.cfg.Log.Error("Failed to update review", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update review", err)
	}

	s.cfg.Log.Info("Review updated successfully", "id", review.ID, "rating", review.Rating)
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, credential, id string) error {
	review, err := s.authorised(ctx, credential, id, "You can only delete your own reviews")
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, review); err != nil {
		if errors.Is(err, reviewserrors.ErrNotFound) {
			return apperrors.NotFound("Review")
		}
		s.cfg.Log.Error("Failed to delete review", "id", id, "error", err)
		return apperrors.Internal("Failed to delete review", err)
	}

	s.cfg.Log.Info("Review deleted successfully", "id", review.ID)
	return nil
}

// authorised loads a review the caller wrote, or any review for admins.
func (s *reviewService) authorised(ctx context.Context, credential, id, denied string) (*model.Review, error) {
	identity, err := s.identity.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Review ID cannot be empty")
	}
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reviewserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Review", id)
		}
		return nil, apperrors.Internal("Failed to retrieve review", err)
	}
	if !identity.IsAdmin() && !model.ContainsAlias(identity.User.Aliases(), review.UserID) {
		return nil, apperrors.Forbidden(denied)
	}
	return review, nil
}
