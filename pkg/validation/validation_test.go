package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "carrental/pkg/errors"
	"carrental/pkg/model"
)

func TestValidator_Struct(t *testing.T) {
	v := New()

	tests := []struct {
		name   string
		input  any
		fields []string
	}{
		{
			name:  "valid car",
			input: &model.Car{Make: "Ferrari", Model: "488 GTB", Year: 2019, PricePerDay: 450},
		},
		{
			name:   "car missing make and price",
			input:  &model.Car{Model: "488 GTB", Year: 2019},
			fields: []string{"make", "price_per_day"},
		},
		{
			name:   "signup with bad email and short password",
			input:  &model.Signup{FirstName: "Ada", LastName: "L", Username: "ada", Email: "not-an-email", Password: "123"},
			fields: []string{"email", "password"},
		},
		{
			name:   "review rating out of range",
			input:  &model.ReviewCreate{CarID: "7", Rating: 6},
			fields: []string{"rating"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			var errs ValidationErrors
			require.ErrorAs(t, err, &errs)
			var got []string
			for _, e := range errs {
				got = append(got, e.Field)
			}
			assert.ElementsMatch(t, tt.fields, got)
		})
	}
}

func TestValidator_Check(t *testing.T) {
	err := New().Check(&model.ReviewCreate{Rating: 3}, "Invalid review")
	require.Error(t, err)

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Equal(t, "Invalid review", appErr.Message)
	errs, ok := appErr.Details["errors"].(ValidationErrors)
	require.True(t, ok)
	assert.Equal(t, "carId", errs[0].Field)
	assert.Equal(t, "carId is required", errs[0].Message)
}
