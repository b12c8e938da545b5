package validator

import (
	"errors"
	"strings"

	apperrors "carrental/pkg/errors"
	"carrental/pkg/logger"
	"carrental/pkg/model"
	"carrental/pkg/validation"
)

// RentalValidator checks booking requests. Missing or malformed dates are
// bad input (400); the remaining field rules fail validation (422).
type RentalValidator struct {
	validate *validation.Validator
	logger   *logger.Logger
}

func NewRentalValidator(log *logger.Logger) *RentalValidator {
	return &RentalValidator{
		validate: validation.New(),
		logger:   log,
	}
}

// DateRange parses a start/end pair; end must be strictly after start.
func (v *RentalValidator) DateRange(start, end string) (model.DateRange, error) {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return model.DateRange{}, apperrors.InvalidInput("Start date and end date are required")
	}
	dates, err := model.NewDateRange(start, end)
	if err != nil {
		if errors.Is(err, model.ErrInvalidDateRange) {
			return model.DateRange{}, apperrors.InvalidInput("End date must be after start date")
		}
		return model.DateRange{}, apperrors.InvalidInput("Invalid date format, expected YYYY-MM-DD")
	}
	return dates, nil
}

func (v *RentalValidator) ValidateRent(req *model.RentRequest) (model.DateRange, error) {
	if req == nil {
		return model.DateRange{}, apperrors.InvalidInput("Start date and end date are required")
	}
	dates, err := v.DateRange(req.StartDate, req.EndDate)
	if err != nil {
		return model.DateRange{}, err
	}
	if err := v.validate.Check(req, "Invalid rental input"); err != nil {
		v.logger.Warn("Rental validation failed", "error", err)
		return model.DateRange{}, err
	}
	return dates, nil
}

// ValidateUpdate checks an admin update. reschedule reports whether the
// update carries new dates, which must come as a pair.
func (v *RentalValidator) ValidateUpdate(update *model.RentalUpdate) (dates model.DateRange, reschedule bool, err error) {
	if update == nil || (update.StartDate == nil && update.EndDate == nil && update.Status == nil) {
		return model.DateRange{}, false, apperrors.InvalidInput("Start date and end date are required")
	}
	if err := v.validate.Check(update, "Invalid rental update"); err != nil {
		v.logger.Warn("Rental update validation failed", "error", err)
		return model.DateRange{}, false, err
	}

	if update.StartDate == nil && update.EndDate == nil {
		return model.DateRange{}, false, nil
	}
	if update.StartDate == nil || update.EndDate == nil {
		return model.DateRange{}, false, apperrors.InvalidInput("Start date and end date must be provided together")
	}
	dates, err = v.DateRange(*update.StartDate, *update.EndDate)
	if err != nil {
		return model.DateRange{}, false, err
	}
	return dates, true, nil
}
