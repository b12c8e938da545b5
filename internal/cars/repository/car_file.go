package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	carserrors "carrental/internal/cars/errors"
	"carrental/internal/storage/filedb"
	"carrental/pkg/model"
)

type fileCarRepository struct {
	cars *filedb.Collection[*model.Car]
}

func NewFileCarRepository(dataDir string) (CarRepository, error) {
	cars, err := filedb.Open[*model.Car](filepath.Join(dataDir, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open cars file: %w", err)
	}
	return &fileCarRepository{cars: cars}, nil
}

func (r *fileCarRepository) FindByIdentifier(ctx context.Context, id model.Identifier) (*model.Car, error) {
	cars, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	car, found, _ := model.Resolve(id, model.CarLookupOrder, func(rep model.Representation) (*model.Car, bool, error) {
		for _, c := range cars {
			if id.Matches(rep, c.ObjectID, c.ID) {
				return c, true, nil
			}
		}
		return nil, false, nil
	})
	if !found {
		return nil, carserrors.ErrNotFound
	}
	return car, nil
}

func (r *fileCarRepository) FindByLegacyID(ctx context.Context, id model.LegacyID) (*model.Car, error) {
	cars, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cars {
		if model.ContainsAlias(id.Aliases(), c.ID) {
			return c, nil
		}
	}
	return nil, carserrors.ErrNotFound
}

func (r *fileCarRepository) FindAll(ctx context.Context) ([]*model.Car, error) {
	cars, err := r.cars.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read cars: %w", err)
	}
	for _, c := range cars {
		c.Normalize()
	}
	return cars, nil
}

func (r *fileCarRepository) Create(ctx context.Context, car *model.Car) error {
	if car.CreatedAt == nil {
		now := time.Now().UTC().Truncate(time.Millisecond)
		car.CreatedAt = &now
	}
	return r.cars.Update(ctx, func(cars []*model.Car) ([]*model.Car, error) {
		for _, c := range cars {
			if model.ContainsAlias(car.ID.Aliases(), c.ID) {
				return nil, carserrors.ErrDuplicateID
			}
		}
		return append(cars, car), nil
	})
}

func (r *fileCarRepository) Update(ctx context.Context, id model.LegacyID, car *model.Car) error {
	return r.cars.Update(ctx, func(cars []*model.Car) ([]*model.Car, error) {
		idx := -1
		for i, c := range cars {
			if c.ID.Equal(id) {
				idx = i
				continue
			}
			if model.ContainsAlias(car.ID.Aliases(), c.ID) {
				return nil, carserrors.ErrDuplicateID
			}
		}
		if idx == -1 {
			return nil, carserrors.ErrNotFound
		}
		cars[idx] = car
		return cars, nil
	})
}

func (r *fileCarRepository) Delete(ctx context.Context, car *model.Car) error {
	return r.cars.Update(ctx, func(cars []*model.Car) ([]*model.Car, error) {
		for i, c := range cars {
			if c.ID.Equal(car.ID) {
				return append(cars[:i], cars[i+1:]...), nil
			}
		}
		return nil, carserrors.ErrNotFound
	})
}
