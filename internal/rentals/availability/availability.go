// Package availability decides whether a car is free for a date range.
package availability

import (
	"context"
	"fmt"

	"carrental/pkg/model"
)

// Engine reports whether any active rental of a car overlaps r. exclude,
// when set, is left out of the check so a rental can be rescheduled
// against the others.
type Engine interface {
	IsOverlapping(ctx context.Context, carAliases []model.LegacyID, r model.DateRange, exclude *model.Rental) (bool, error)
}

type ActiveRentalFinder interface {
	FindActiveByCar(ctx context.Context, aliases []model.LegacyID) ([]*model.Rental, error)
}

type scanEngine struct {
	rentals ActiveRentalFinder
}

// NewScanEngine checks every active rental of the car in turn.
func NewScanEngine(rentals ActiveRentalFinder) Engine {
	return &scanEngine{rentals: rentals}
}

func (e *scanEngine) IsOverlapping(ctx context.Context, carAliases []model.LegacyID, r model.DateRange, exclude *model.Rental) (bool, error) {
	active, err := e.rentals.FindActiveByCar(ctx, carAliases)
	if err != nil {
		return false, fmt.Errorf("failed to load active rentals: %w", err)
	}
	return FirstConflict(active, r, exclude) != nil, nil
}

// FirstConflict returns the first active rental overlapping r, skipping
// exclude.
func FirstConflict(rentals []*model.Rental, r model.DateRange, exclude *model.Rental) *model.Rental {
	for _, other := range rentals {
		if !other.IsActive() {
			continue
		}
		if exclude != nil && other.SameRecord(exclude) {
			continue
		}
		if r.Overlaps(other.Range()) {
			return other
		}
	}
	return nil
}
