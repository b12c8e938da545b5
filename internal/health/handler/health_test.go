package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/pkg/logger"
)

func serve(t *testing.T, check StorageCheck, path string) *httptest.ResponseRecorder {
	t.Helper()
	router := httprouter.New()
	NewHealthHandler(check, logger.Nop()).RegisterRoutes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(t, func(context.Context) error { return errors.New("down") }, "/health")
	assert.Equal(t, http.StatusOK, rec.Code, "liveness does not depend on storage")
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	rec := serve(t, DataDirCheck(t.TempDir()), "/ready")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","storage":"ok"}`, rec.Body.String())

	rec = serve(t, DataDirCheck(filepath.Join(t.TempDir(), "missing")), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","storage":"error"}`, rec.Body.String())
}
