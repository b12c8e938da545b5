package testutil

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"carrental/pkg/client"
)

// Car c1 rents at 100 a day and car 7 at 50. Ann (user id 2) has one
// finished rental of c1.
const (
	CarsJSON = `[
  {"id": "c1", "make": "Toyota", "model": "Corolla", "year": 2022, "price_per_day": 100},
  {"id": 7, "make": "Honda", "model": "Civic", "year": 2020, "price_per_day": 50}
]`

	RentalsJSON = `[
  {"id": "1704067200000", "carId": "c1", "userId": 2, "userEmail": "ann@example.com", "userName": "Ann",
   "startDate": "2024-01-01", "endDate": "2024-01-05", "totalDays": 4, "pricePerDay": 100,
   "totalPrice": 400, "status": "completed", "createdAt": "2023-12-20T10:00:00Z"}
]`

	PastRentalID = "1704067200000"
)

func RequireStatus(t *testing.T, resp *client.Response, want int) {
	t.Helper()
	require.Equalf(t, want, resp.StatusCode, "unexpected status: %s", string(resp.Body))
}

func Decode[T any](t *testing.T, resp *client.Response) T {
	t.Helper()
	var out T
	require.NoError(t, resp.DecodeJSON(&out))
	return out
}

// RentalOf extracts the rental from a rent, cancel or update response.
func RentalOf(t *testing.T, resp *client.Response) RentalBody {
	t.Helper()
	RequireStatus(t, resp, http.StatusOK)
	return Decode[struct {
		Rental RentalBody `json:"rental"`
	}](t, resp).Rental
}

type RentalBody struct {
	ID         any     `json:"id"`
	CarID      any     `json:"carId"`
	StartDate  string  `json:"startDate"`
	EndDate    string  `json:"endDate"`
	TotalDays  int     `json:"totalDays"`
	TotalPrice float64 `json:"totalPrice"`
	Status     string  `json:"status"`
}

func (r RentalBody) IDString() string {
	switch id := r.ID.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatInt(int64(id), 10)
	}
	return ""
}
