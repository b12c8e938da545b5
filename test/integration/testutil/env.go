// Package testutil starts the car rental API in-process on a temporary
// flat-file store for end-to-end tests.
package testutil

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	authservice "carrental/internal/auth/service"
	usersrepository "carrental/internal/users/repository"
	"carrental/pkg/app"
	"carrental/pkg/client"
	"carrental/pkg/config"
	"carrental/pkg/logger"
	"carrental/pkg/model"
)

const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "admin-pass"
	UserEmail     = "ann@example.com"
	UserPassword  = "ann-pass"
)

type TestEnv struct {
	DataDir string
	Server  *httptest.Server
	Client  *client.Client
	Admin   *client.Client
	User    *client.Client
}

// NewTestEnv writes the fixture data set, starts the API and signs in the
// admin and the regular user.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	for name, content := range map[string]string{
		"cars.json":     CarsJSON,
		"rentItem.json": RentalsJSON,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	createUser(t, dir, "Admin", AdminEmail, AdminPassword, model.RoleAdmin)
	createUser(t, dir, "Ann", UserEmail, UserPassword, model.RoleUser)

	a, err := app.NewApplication(ctx, Config(dir))
	require.NoError(t, err)
	server := httptest.NewServer(a.Handler())
	t.Cleanup(func() {
		server.Close()
		a.Close()
	})

	c := client.NewClient(server.URL)
	require.NoError(t, c.HTTP().WaitForHealthy(ctx, 5*time.Second))

	adminToken, err := c.Auth.Token(ctx, AdminEmail, AdminPassword)
	require.NoError(t, err)
	userToken, err := c.Auth.Token(ctx, UserEmail, UserPassword)
	require.NoError(t, err)

	return &TestEnv{
		DataDir: dir,
		Server:  server,
		Client:  c,
		Admin:   c.As(adminToken),
		User:    c.As(userToken),
	}
}

func Config(dataDir string) *config.Config {
	return &config.Config{
		Port:              "0",
		StorageBackend:    config.StorageFile,
		DataDir:           dataDir,
		JWTSecret:         "integration-secret-0123456789-abcdef",
		JWTExpiresIn:      time.Hour,
		RentalLockTTL:     10 * time.Second,
		RateLimitRequests: 10000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    10 * time.Second,
		IdempotencyTTL:    time.Minute,
		MaxRequestSize:    1 << 20,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		Log:               logger.Nop(),
	}
}

func createUser(t *testing.T, dir, name, email, password string, role model.Role) {
	t.Helper()
	users, err := usersrepository.NewFileUserRepository(dir)
	require.NoError(t, err)
	hash, err := authservice.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}))
}
