package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/pkg/model"
	"carrental/test/integration/testutil"
)

func TestReviewFlow(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	resp, err := env.User.Reviews.Eligibility(ctx, "c1")
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusOK)
	assert.True(t, testutil.Decode[model.ReviewEligibility](t, resp).Eligible)

	resp, err = env.User.Reviews.Eligibility(ctx, "7")
	require.NoError(t, err)
	assert.False(t, testutil.Decode[model.ReviewEligibility](t, resp).Eligible)

	resp, err = env.User.Reviews.Create(ctx, &model.ReviewCreate{CarID: "7", Rating: 4})
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusForbidden)

	resp, err = env.User.Reviews.Create(ctx, &model.ReviewCreate{CarID: "c1", Rating: 5, Comment: "  Smooth ride  "})
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusCreated)
	review := testutil.Decode[model.Review](t, resp)
	assert.Equal(t, "Smooth ride", review.Comment)

	resp, err = env.User.Reviews.Create(ctx, &model.ReviewCreate{CarID: "c1", Rating: 3})
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusConflict)

	resp, err = env.Client.Reviews.ListByCar(ctx, "c1", 1, 10)
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusOK)
	page := testutil.Decode[model.ReviewPage](t, resp)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 5.0, page.AverageRating)

	rating := 2
	resp, err = env.Admin.Reviews.Update(ctx, review.ID, &model.ReviewUpdate{Rating: &rating})
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusOK)

	resp, err = env.User.Reviews.Delete(ctx, review.ID)
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusOK)

	resp, err = env.User.Reviews.GetMine(ctx)
	require.NoError(t, err)
	testutil.RequireStatus(t, resp, http.StatusOK)
	assert.Empty(t, testutil.Decode[[]model.Review](t, resp))
}
