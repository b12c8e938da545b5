package service

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authservice "carrental/internal/auth/service"
	"carrental/internal/auth/token"
	carsrepo "carrental/internal/cars/repository"
	carservice "carrental/internal/cars/service"
	rentalsrepo "carrental/internal/rentals/repository"
	"carrental/internal/reviews/repository"
	usersrepo "carrental/internal/users/repository"
	"carrental/pkg/config"
	apperrors "carrental/pkg/errors"
	"carrental/pkg/logger"
	"carrental/pkg/model"
)

var fixedNow = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	service ReviewService
	rentals rentalsrepo.RentalRepository
	admin   string
	ann     string
	bob     string
	annUser *model.User
	bobUser *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, carsrepo.FileName), []byte(`[
  {"id": "c1", "make": "Toyota", "model": "Corolla", "year": 2022, "price_per_day": 100},
  {"id": 7, "make": "Honda", "model": "Civic", "year": 2021, "price_per_day": 50}
]`), 0o644))

	cars, err := carsrepo.NewFileCarRepository(dir)
	require.NoError(t, err)
	users, err := usersrepo.NewFileUserRepository(dir)
	require.NoError(t, err)
	rentals, err := rentalsrepo.NewFileRentalRepository(dir)
	require.NoError(t, err)
	reviews, err := repository.NewFileReviewRepository(dir)
	require.NoError(t, err)

	admin := &model.User{Name: "Admin", Email: "admin@example.com", Role: model.RoleAdmin}
	require.NoError(t, users.Create(ctx, admin))
	ann := &model.User{Name: "Ann", Email: "ann@example.com", Role: model.RoleUser}
	require.NoError(t, users.Create(ctx, ann))
	bob := &model.User{Name: "Bob", Email: "bob@example.com", Role: model.RoleUser}
	require.NoError(t, users.Create(ctx, bob))

	cfg := &config.Config{Log: logger.Nop()}
	tokens := token.NewManager("test-secret-0123456789", time.Hour, false)
	identity := authservice.NewIdentityResolver(users, tokens, cfg.Log)
	catalog := carservice.NewCarService(cars, rentals, nil, identity, cfg)

	svc := NewReviewService(reviews, catalog, rentals, identity, cfg)
	svc.(*reviewService).now = func() time.Time { return fixedNow }

	f := &fixture{service: svc, rentals: rentals, annUser: ann, bobUser: bob}
	f.admin, err = tokens.Issue(admin)
	require.NoError(t, err)
	f.ann, err = tokens.Issue(ann)
	require.NoError(t, err)
	f.bob, err = tokens.Issue(bob)
	require.NoError(t, err)
	return f
}

func (f *fixture) addRental(t *testing.T, id string, user *model.User, carID model.LegacyID, start, end model.Date, status model.RentalStatus) {
	t.Helper()
	require.NoError(t, f.rentals.Append(context.Background(), &model.Rental{
		ID:        model.StringID(id),
		CarID:     carID,
		UserID:    user.ID,
		UserEmail: user.Email,
		StartDate: start,
		EndDate:   end,
		Status:    status,
		CreatedAt: fixedNow,
	}))
}

func statusOf(err error) int {
	return apperrors.AsAppError(err).StatusCode()
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func TestEligibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.Eligibility(ctx, f.ann, "c1")
	require.NoError(t, err)
	assert.False(t, result.Eligible)
	assert.NotEmpty(t, result.Reason)

	f.addRental(t, "1", f.annUser, model.StringID("c1"), "2025-01-20", "2025-01-22", model.RentalActive)
	f.addRental(t, "2", f.annUser, model.StringID("c1"), "2025-01-01", "2025-01-03", model.RentalCancelled)
	result, err = f.service.Eligibility(ctx, f.ann, "c1")
	require.NoError(t, err)
	assert.False(t, result.Eligible, "future and cancelled rentals do not count")

	f.addRental(t, "3", f.annUser, model.StringID("7"), "2025-01-05", "2025-01-08", model.RentalCompleted)
	result, err = f.service.Eligibility(ctx, f.ann, "7")
	require.NoError(t, err)
	assert.True(t, result.Eligible, "numeric car 7 matches a rental recorded as \"7\"")

	_, err = f.service.Eligibility(ctx, "", "7")
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))

	_, err = f.service.Eligibility(ctx, f.ann, "missing")
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, f.ann, &model.ReviewCreate{CarID: "c1", Rating: 5})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	f.addRental(t, "1", f.annUser, model.StringID("c1"), "2025-01-10", "2025-01-12", model.RentalActive)

	_, err = f.service.Create(ctx, f.ann, &model.ReviewCreate{CarID: "c1", Rating: 6})
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(err))

	review, err := f.service.Create(ctx, f.ann, &model.ReviewCreate{CarID: "c1", Rating: 4, Comment: "Smooth ride"})
	require.NoError(t, err)
	assert.NotEmpty(t, review.ID)
	assert.Equal(t, "Ann", review.UserName)
	assert.Equal(t, "c1", review.CarID.String())
	assert.True(t, fixedNow.Equal(review.CreatedAt))

	_, err = f.service.Create(ctx, f.ann, &model.ReviewCreate{CarID: "c1", Rating: 3})
	assert.Equal(t, http.StatusConflict, statusOf(err))

	result, err := f.service.Eligibility(ctx, f.ann, "c1")
	require.NoError(t, err)
	assert.False(t, result.Eligible)
	assert.True(t, result.AlreadyReviewed)

	_, err = f.service.Create(ctx, "", &model.ReviewCreate{CarID: "c1", Rating: 3})
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
}

func TestListByCar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addRental(t, "1", f.annUser, model.StringID("c1"), "2025-01-01", "2025-01-03", model.RentalActive)
	f.addRental(t, "2", f.bobUser, model.StringID("c1"), "2025-01-05", "2025-01-07", model.RentalActive)

	_, err := f.service.Create(ctx, f.ann, &model.ReviewCreate{CarID: "c1", Rating: 5})
	require.NoError(t, err)
	_, err = f.service.Create(ctx, f.bob, &model.ReviewCreate{CarID: "c1", Rating: 2})
	require.NoError(t, err)

	page, err := f.service.ListByCar(ctx, "c1", 1, 1)
	require.NoError(t, err)
	assert.Len(t, page.Reviews, 1)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 3.5, page.AverageRating)

	page, err = f.service.ListByCar(ctx, "c1", 3, 1)
	require.NoError(t, err)
	assert.Empty(t, page.Reviews)

	page, err = f.service.ListByCar(ctx, "7", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Reviews)
	assert.Zero(t, page.AverageRating)

	_, err = f.service.ListAll(ctx, f.ann, 1, 10)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	all, err := f.service.ListAll(ctx, f.admin, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all.Reviews, 2)
	assert.Equal(t, 1, all.Page)
	assert.Equal(t, 10, all.Limit)

	mine, err := f.service.ListMine(ctx, f.bob)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, 2, mine[0].Rating)
}

func TestUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addRental(t, "1", f.annUser, model.StringID("c1"), "2025-01-01", "2025-01-03", model.RentalActive)
	review, err := f.service.Create(ctx, f.ann, &model.ReviewCreate{CarID: "c1", Rating: 3})
	require.NoError(t, err)

	_, err = f.service.Update(ctx, f.bob, review.ID, &model.ReviewUpdate{Rating: intPtr(1)})
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	_, err = f.service.Update(ctx, f.ann, review.ID, &model.ReviewUpdate{Rating: intPtr(9)})
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(err))

	updated, err := f.service.Update(ctx, f.ann, review.ID, &model.ReviewUpdate{Rating: intPtr(4), Comment: strPtr("Better on second thought")})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Rating)
	assert.Equal(t, "Better on second thought", updated.Comment)

	_, err = f.service.Update(ctx, f.admin, review.ID, &model.ReviewUpdate{Comment: strPtr("moderated")})
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, statusOf(f.service.Delete(ctx, f.bob, review.ID)))
	require.NoError(t, f.service.Delete(ctx, f.admin, review.ID))
	assert.Equal(t, http.StatusNotFound, statusOf(f.service.Delete(ctx, f.ann, review.ID)))
}
