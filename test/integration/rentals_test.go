package integration

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/pkg/client"
	"carrental/pkg/model"
	"carrental/test/integration/testutil"
)

func rent(start, end string) *model.RentRequest {
	return &model.RentRequest{StartDate: start, EndDate: end}
}

func TestRentalLifecycle(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	resp, err := env.Client.Cars.Availability(ctx, "c1", "2030-05-01", "2030-05-04")
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusOK)
	assert.True(t, testutil.Decode[model.AvailabilityResult](t, resp).Available)

	resp, err = env.User.Cars.Rent(ctx, "c1", rent("2030-05-01", "2030-05-04"))
	require.NoError(t, err)
	first := testutil.RentalOf(t, resp)
	assert.Equal(t, 3, first.TotalDays)
	assert.Equal(t, 300.0, first.TotalPrice)
	assert.Equal(t, "active", first.Status)

	resp, err = env.User.Cars.Rent(ctx, "c1", rent("2030-05-04", "2030-05-06"))
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusConflict)
	assert.Equal(t, "Car is already rented for the selected dates", client.GetErrorMessage(resp))

	resp, err = env.Client.Cars.Availability(ctx, "c1", "2030-05-04", "2030-05-06")
	require.NoError(t, err)
	assert.False(t, testutil.Decode[model.AvailabilityResult](t, resp).Available)

	resp, err = env.User.Cars.Rent(ctx, "c1", rent("2030-05-05", "2030-05-06"))
	require.NoError(t, err)
	testutil.RentalOf(t, resp)

	resp, err = env.User.Rentals.GetMine(ctx)
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusOK)
	assert.Len(t, testutil.Decode[[]map[string]any](t, resp), 3)

	resp, err = env.User.Rentals.Cancel(ctx, first.IDString())
	require.NoError(t, err)
	assert.Equal(t, "cancelled", testutil.RentalOf(t, resp).Status)

	resp, err = env.User.Rentals.Cancel(ctx, first.IDString())
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusConflict)

	resp, err = env.User.Cars.Rent(ctx, "c1", rent("2030-05-01", "2030-05-03"))
	require.NoError(t, err)
	testutil.RentalOf(t, resp)
}

func TestRental_NumericCarIdentifier(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	resp, err := env.User.Cars.Rent(ctx, "7", rent("2030-06-01T10:00:00.000Z", "2030-06-03"))
	require.NoError(t, err)
	rental := testutil.RentalOf(t, resp)
	assert.Equal(t, "2030-06-01", rental.StartDate)
	assert.Equal(t, 100.0, rental.TotalPrice)
}

func TestRental_ConcurrentBookingsOfOneCar(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	const workers = 12
	statuses := make([]int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := env.User.Cars.Rent(ctx, "c1", rent("2030-07-01", "2030-07-05"))
			if !assert.NoError(t, err) {
				return
			}
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	created := 0
	for _, status := range statuses {
		switch status {
		case http.StatusOK:
			created++
		case http.StatusConflict:
		default:
			t.Errorf("unexpected status %d", status)
		}
	}
	assert.Equal(t, 1, created)

	resp, err := env.Admin.Rentals.GetAll(ctx)
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusOK)
	assert.Len(t, testutil.Decode[[]map[string]any](t, resp), 2, "seeded rental plus exactly one new booking")
}

func TestRental_AdminUpdate(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	resp, err := env.User.Cars.Rent(ctx, "c1", rent("2030-08-01", "2030-08-03"))
	require.NoError(t, err)
	id := testutil.RentalOf(t, resp).IDString()

	start, end := "2030-08-10", "2030-08-15"
	update := &model.RentalUpdate{StartDate: &start, EndDate: &end}

	resp, err = env.User.Rentals.Update(ctx, id, update)
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusForbidden)

	resp, err = env.Admin.Rentals.Update(ctx, id, update)
	require.NoError(t, err)
	updated := testutil.RentalOf(t, resp)
	assert.Equal(t, "2030-08-10", updated.StartDate)
	assert.Equal(t, 5, updated.TotalDays)
	assert.Equal(t, 500.0, updated.TotalPrice)

	completed := model.RentalCompleted
	resp, err = env.Admin.Rentals.Update(ctx, id, &model.RentalUpdate{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, "completed", testutil.RentalOf(t, resp).Status)

	active := model.RentalActive
	resp, err = env.Admin.Rentals.Update(ctx, id, &model.RentalUpdate{Status: &active})
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusConflict)
}

func TestRental_Authorization(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	resp, err := env.Client.Cars.Rent(ctx, "c1", rent("2030-09-01", "2030-09-02"))
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusUnauthorized)

	resp, err = env.User.Rentals.GetAll(ctx)
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusForbidden)

	resp, err = env.User.Rentals.GetByID(ctx, testutil.PastRentalID)
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusOK)

	resp, err = env.User.Cars.Rent(ctx, "missing", rent("2030-09-01", "2030-09-02"))
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusNotFound)
}
