// Package pricing computes the price of a rental from its calendar dates
// and the daily rate snapshot taken at booking time.
package pricing

import (
	"fmt"

	"carrental/pkg/model"
)

type Quote struct {
	TotalDays   int
	PricePerDay float64
	TotalPrice  float64
}

// Compute returns days = ceil((end - start) / 1 day) and
// total = days * dailyRate. end must be strictly after start.
func Compute(r model.DateRange, dailyRate float64) (Quote, error) {
	if !r.End.After(r.Start) {
		return Quote{}, model.ErrInvalidDateRange
	}
	if dailyRate < 0 {
		return Quote{}, fmt.Errorf("daily rate cannot be negative: %v", dailyRate)
	}
	days := r.Days()
	return Quote{
		TotalDays:   days,
		PricePerDay: dailyRate,
		TotalPrice:  float64(days) * dailyRate,
	}, nil
}
