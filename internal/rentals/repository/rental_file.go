package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	rentalserrors "carrental/internal/rentals/errors"
	"carrental/internal/storage/filedb"
	"carrental/pkg/model"
)

type fileRentalRepository struct {
	rentals *filedb.Collection[*model.Rental]
}

func NewFileRentalRepository(dataDir string) (RentalRepository, error) {
	rentals, err := filedb.Open[*model.Rental](filepath.Join(dataDir, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open rentals file: %w", err)
	}
	return &fileRentalRepository{rentals: rentals}, nil
}

func (r *fileRentalRepository) Append(ctx context.Context, rental *model.Rental) error {
	return r.rentals.Update(ctx, func(rentals []*model.Rental) ([]*model.Rental, error) {
		for _, existing := range rentals {
			existing.Normalize()
			if existing.SameRecord(rental) {
				return nil, rentalserrors.ErrDuplicateID
			}
		}
		return append(rentals, rental), nil
	})
}

func (r *fileRentalRepository) FindActiveByCar(ctx context.Context, aliases []model.LegacyID) ([]*model.Rental, error) {
	return r.filter(ctx, func(rental *model.Rental) bool {
		return rental.IsActive() && model.ContainsAlias(aliases, rental.CarID)
	})
}

func (r *fileRentalRepository) ListByCar(ctx context.Context, aliases []model.LegacyID) ([]*model.Rental, error) {
	return r.filter(ctx, func(rental *model.Rental) bool {
		return model.ContainsAlias(aliases, rental.CarID)
	})
}

func (r *fileRentalRepository) FindByID(ctx context.Context, id model.Identifier) (*model.Rental, error) {
	rentals, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	rental, found, _ := model.Resolve(id, model.RentalLookupOrder, func(rep model.Representation) (*model.Rental, bool, error) {
		for _, rental := range rentals {
			if id.Matches(rep, rental.ObjectID, rental.ID) {
				return rental, true, nil
			}
		}
		return nil, false, nil
	})
	if !found {
		return nil, rentalserrors.ErrNotFound
	}
	return rental, nil
}

func (r *fileRentalRepository) Update(ctx context.Context, rental *model.Rental, patch *model.RentalPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	err := r.rentals.Update(ctx, func(rentals []*model.Rental) ([]*model.Rental, error) {
		for _, stored := range rentals {
			stored.Normalize()
			if stored.SameRecord(rental) {
				patch.Apply(stored)
				return rentals, nil
			}
		}
		return nil, rentalserrors.ErrNotFound
	})
	if err != nil {
		return err
	}
	patch.Apply(rental)
	return nil
}

func (r *fileRentalRepository) ListAll(ctx context.Context) ([]*model.Rental, error) {
	rentals, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	newestFirst(rentals)
	return rentals, nil
}

func (r *fileRentalRepository) ListByUser(ctx context.Context, aliases []model.LegacyID, email string) ([]*model.Rental, error) {
	email = strings.TrimSpace(email)
	rentals, err := r.filter(ctx, func(rental *model.Rental) bool {
		if model.ContainsAlias(aliases, rental.UserID) {
			return true
		}
		return email != "" && strings.EqualFold(rental.UserEmail, email)
	})
	if err != nil {
		return nil, err
	}
	newestFirst(rentals)
	return rentals, nil
}

func (r *fileRentalRepository) filter(ctx context.Context, keep func(*model.Rental) bool) ([]*model.Rental, error) {
	rentals, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := []*model.Rental{}
	for _, rental := range rentals {
		if keep(rental) {
			out = append(out, rental)
		}
	}
	return out, nil
}

func (r *fileRentalRepository) load(ctx context.Context) ([]*model.Rental, error) {
	rentals, err := r.rentals.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read rentals: %w", err)
	}
	for _, rental := range rentals {
		rental.Normalize()
	}
	return rentals, nil
}

func newestFirst(rentals []*model.Rental) {
	sort.SliceStable(rentals, func(i, j int) bool {
		return rentals[i].CreatedAt.After(rentals[j].CreatedAt)
	})
}
