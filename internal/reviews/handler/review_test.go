package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "carrental/pkg/errors"
	"carrental/pkg/logger"
	"carrental/pkg/model"
)

type mockReviewService struct {
	createFunc      func(ctx context.Context, credential string, req *model.ReviewCreate) (*model.Review, error)
	listByCarFunc   func(ctx context.Context, carID string, page, limit int) (*model.ReviewPage, error)
	listMineFunc    func(ctx context.Context, credential string) ([]*model.Review, error)
	listAllFunc     func(ctx context.Context, credential string, page, limit int) (*model.ReviewPage, error)
	updateFunc      func(ctx context.Context, credential, id string, update *model.ReviewUpdate) (*model.Review, error)
	deleteFunc      func(ctx context.Context, credential, id string) error
	eligibilityFunc func(ctx context.Context, credential, carID string) (*model.ReviewEligibility, error)
}

func (m *mockReviewService) Create(ctx context.Context, credential string, req *model.ReviewCreate) (*model.Review, error) {
	return m.createFunc(ctx, credential, req)
}

func (m *mockReviewService) ListByCar(ctx context.Context, carID string, page, limit int) (*model.ReviewPage, error) {
	return m.listByCarFunc(ctx, carID, page, limit)
}

func (m *mockReviewService) ListMine(ctx context.Context, credential string) ([]*model.Review, error) {
	return m.listMineFunc(ctx, credential)
}

func (m *mockReviewService) ListAll(ctx context.Context, credential string, page, limit int) (*model.ReviewPage, error) {
	return m.listAllFunc(ctx, credential, page, limit)
}

func (m *mockReviewService) Update(ctx context.Context, credential, id string, update *model.ReviewUpdate) (*model.Review, error) {
	return m.updateFunc(ctx, credential, id, update)
}

func (m *mockReviewService) Delete(ctx context.Context, credential, id string) error {
	return m.deleteFunc(ctx, credential, id)
}

func (m *mockReviewService) Eligibility(ctx context.Context, credential, carID string) (*model.ReviewEligibility, error) {
	return m.eligibilityFunc(ctx, credential, carID)
}

func serve(svc *mockReviewService, req *http.Request) *httptest.ResponseRecorder {
	router := httprouter.New()
	NewReviewHandler(svc, logger.Nop()).RegisterRoutes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreate(t *testing.T) {
	svc := &mockReviewService{
		createFunc: func(ctx context.Context, credential string, req *model.ReviewCreate) (*model.Review, error) {
			assert.Equal(t, "tok", credential)
			assert.Equal(t, "c1", req.CarID)
			assert.Equal(t, 5, req.Rating)
			return &model.Review{ID: "r1", CarID: model.StringID("c1"), Rating: 5}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", bytes.NewBufferString(`{"carId":"c1","rating":5}`))
	req.Header.Set("Authorization", "Bearer tok")
	rec := serve(svc, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "r1", body["id"])
}

func TestCreate_Errors(t *testing.T) {
	svc := &mockReviewService{
		createFunc: func(ctx context.Context, credential string, req *model.ReviewCreate) (*model.Review, error) {
			return nil, apperrors.Conflict("You have already reviewed this car")
		},
	}

	post := func(body, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", bytes.NewBufferString(body))
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		return serve(svc, req)
	}

	assert.Equal(t, http.StatusConflict, post(`{"carId":"c1","rating":5}`, "Bearer tok").Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"carId":`, "Bearer tok").Code)
	assert.Equal(t, http.StatusUnauthorized, post(`{"carId":`, "").Code)
}

func TestGetByCar_Pagination(t *testing.T) {
	svc := &mockReviewService{
		listByCarFunc: func(ctx context.Context, carID string, page, limit int) (*model.ReviewPage, error) {
			assert.Equal(t, "7", carID)
			assert.Equal(t, 2, page)
			assert.Equal(t, 5, limit)
			return &model.ReviewPage{Reviews: []*model.Review{}, Total: 6, Page: page, Limit: limit, AverageRating: 4.5}, nil
		},
	}

	rec := serve(svc, httptest.NewRequest(http.MethodGet, "/api/v1/reviews/car/7?page=2&limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reviews":[],"total":6,"page":2,"limit":5,"averageRating":4.5}`, rec.Body.String())

	rec = serve(svc, httptest.NewRequest(http.MethodGet, "/api/v1/reviews/car/7?page=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEligibility(t *testing.T) {
	svc := &mockReviewService{
		eligibilityFunc: func(ctx context.Context, credential, carID string) (*model.ReviewEligibility, error) {
			assert.Equal(t, "c1", carID)
			return &model.ReviewEligibility{Eligible: true}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/eligibility/c1", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := serve(svc, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"eligible":true,"alreadyReviewed":false}`, rec.Body.String())
}

func TestDelete(t *testing.T) {
	svc := &mockReviewService{
		deleteFunc: func(ctx context.Context, credential, id string) error {
			if id == "missing" {
				return apperrors.NotFoundWithID("Review", id)
			}
			return nil
		},
	}

	rec := serve(svc, httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/id/r1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Review deleted successfully"}`, rec.Body.String())

	rec = serve(svc, httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/id/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
