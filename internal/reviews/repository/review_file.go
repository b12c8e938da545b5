package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	reviewserrors "carrental/internal/reviews/errors"
	"carrental/internal/storage/filedb"
	"carrental/pkg/model"
)

type fileReviewRepository struct {
	reviews *filedb.Collection[*model.Review]
}

func NewFileReviewRepository(dataDir string) (ReviewRepository, error) {
	reviews, err := filedb.Open[*model.Review](filepath.Join(dataDir, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open reviews file: %w", err)
	}
	return &fileReviewRepository{reviews: reviews}, nil
}

func (r *fileReviewRepository) Create(ctx context.Context, review *model.Review) error {
	return r.reviews.Update(ctx, func(reviews []*model.Review) ([]*model.Review, error) {
		for _, existing := range reviews {
			if existing.ID == review.ID {
				return nil, reviewserrors.ErrDuplicateReview
			}
			if model.ContainsAlias(review.UserID.Aliases(), existing.UserID) &&
				model.ContainsAlias(review.CarID.Aliases(), existing.CarID) {
				return nil, reviewserrors.ErrDuplicateReview
			}
		}
		return append(reviews, review), nil
	})
}

func (r *fileReviewRepository) FindByID(ctx context.Context, id string) (*model.Review, error) {
	reviews, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, review := range reviews {
		if review.ID == id {
			return review, nil
		}
	}
	return nil, reviewserrors.ErrNotFound
}

func (r *fileReviewRepository) FindByUserAndCar(ctx context.Context, userAliases, carAliases []model.LegacyID) (*model.Review, error) {
	reviews, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, review := range reviews {
		if model.ContainsAlias(userAliases, review.UserID) && model.ContainsAlias(carAliases, review.CarID) {
			return review, nil
		}
	}
	return nil, reviewserrors.ErrNotFound
}

func (r *fileReviewRepository) ListByCar(ctx context.Context, carAliases []model.LegacyID, limit int, offset int64) ([]*model.Review, error) {
	reviews, err := r.filter(ctx, func(review *model.Review) bool {
		return model.ContainsAlias(carAliases, review.CarID)
	})
	if err != nil {
		return nil, err
	}
	return paginate(reviews, limit, offset), nil
}

func (r *fileReviewRepository) ListByUser(ctx context.Context, userAliases []model.LegacyID) ([]*model.Review, error) {
	return r.filter(ctx, func(review *model.Review) bool {
		return model.ContainsAlias(userAliases, review.UserID)
	})
}

func (r *fileReviewRepository) ListAll(ctx context.Context, limit int, offset int64) ([]*model.Review, error) {
	reviews, err := r.filter(ctx, func(*model.Review) bool { return true })
	if err != nil {
		return nil, err
	}
	return paginate(reviews, limit, offset), nil
}

func (r *fileReviewRepository) Stats(ctx context.Context, carAliases []model.LegacyID) (int64, float64, error) {
	reviews, err := r.filter(ctx, func(review *model.Review) bool {
		return carAliases == nil || model.ContainsAlias(carAliases, review.CarID)
	})
	if err != nil {
		return 0, 0, err
	}
	if len(reviews) == 0 {
		return 0, 0, nil
	}
	sum := 0
	for _, review := range reviews {
		sum += review.Rating
	}
	return int64(len(reviews)), float64(sum) / float64(len(reviews)), nil
}

func (r *fileReviewRepository) Update(ctx context.Context, review *model.Review) error {
	return r.reviews.Update(ctx, func(reviews []*model.Review) ([]*model.Review, error) {
		for i, existing := range reviews {
			if existing.ID == review.ID {
				reviews[i] = review
				return reviews, nil
			}
		}
		return nil, reviewserrors.ErrNotFound
	})
}

func (r *fileReviewRepository) Delete(ctx context.Context, review *model.Review) error {
	return r.reviews.Update(ctx, func(reviews []*model.Review) ([]*model.Review, error) {
		for i, existing := range reviews {
			if existing.ID == review.ID {
				return append(reviews[:i], reviews[i+1:]...), nil
			}
		}
		return nil, reviewserrors.ErrNotFound
	})
}

// filter returns matching reviews newest first.
func (r *fileReviewRepository) filter(ctx context.Context, keep func(*model.Review) bool) ([]*model.Review, error) {
	reviews, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := []*model.Review{}
	for _, review := range reviews {
		if keep(review) {
			out = append(out, review)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fileReviewRepository) load(ctx context.Context) ([]*model.Review, error) {
	reviews, err := r.reviews.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read reviews: %w", err)
	}
	for _, review := range reviews {
		review.Normalize()
	}
	return reviews, nil
}

func paginate(reviews []*model.Review, limit int, offset int64) []*model.Review {
	if offset >= int64(len(reviews)) {
		return []*model.Review{}
	}
	reviews = reviews[offset:]
	if limit > 0 && limit < len(reviews) {
		reviews = reviews[:limit]
	}
	return reviews
}
