package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/pkg/config"
	"carrental/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cars.json"), []byte(`[
  {"id": "c1", "make": "Toyota", "model": "Corolla", "year": 2020, "price_per_day": 100}
]`), 0o644))

	return &config.Config{
		Port:              "0",
		StorageBackend:    config.StorageFile,
		DataDir:           dir,
		JWTSecret:         "test-secret-0123456789-abcdefghij",
		JWTExpiresIn:      time.Hour,
		RentalLockTTL:     10 * time.Second,
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    10 * time.Second,
		IdempotencyTTL:    time.Minute,
		MaxRequestSize:    1 << 20,
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
		IdleTimeout:       time.Second,
		ShutdownTimeout:   time.Second,
		Log:               logger.Nop(),
	}
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestApplication_FileBackend(t *testing.T) {
	a, err := NewApplication(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	h := a.Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/ready", "", nil).Code)

	rec := do(t, h, http.MethodGet, "/api/v1/cars", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cars []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cars))
	assert.Len(t, cars, 1)

	rec = do(t, h, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"firstName": "Ann",
		"lastName":  "Lee",
		"username":  "annlee",
		"email":     "ann@example.com",
		"password":  "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &auth))
	require.NotEmpty(t, auth.Token)

	dates := map[string]string{"startDate": "2030-01-10", "endDate": "2030-01-12"}

	rec = do(t, h, http.MethodPost, "/api/v1/cars/id/c1/availability", "", dates)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"available":true`)

	rec = do(t, h, http.MethodPost, "/api/v1/cars/id/c1/rent", auth.Token, dates)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Rental struct {
			TotalDays  int     `json:"totalDays"`
			TotalPrice float64 `json:"totalPrice"`
			Status     string  `json:"status"`
		} `json:"rental"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Rental.TotalDays)
	assert.Equal(t, 200.0, result.Rental.TotalPrice)
	assert.Equal(t, "active", result.Rental.Status)

	rec = do(t, h, http.MethodPost, "/api/v1/cars/id/c1/rent", auth.Token, dates)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/rentals/user", auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)

	rec = do(t, h, http.MethodGet, "/api/v1/rentals", auth.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "listing every rental is admin only")

	rec = do(t, h, http.MethodPost, "/api/v1/cars/id/c1/rent", "", dates)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cars/id/c1/rent", bytes.NewBufferString("startDate=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	plain := httptest.NewRecorder()
	h.ServeHTTP(plain, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, plain.Code)
}

func TestOpenStorage_FileBackend(t *testing.T) {
	cfg := testConfig(t)
	s, err := OpenStorage(context.Background(), cfg)
	require.NoError(t, err)

	assert.Nil(t, s.Locks)
	assert.Nil(t, s.Database(cfg))
	assert.NoError(t, s.Ready(context.Background()))
	assert.NoError(t, s.Close(context.Background()))
}
