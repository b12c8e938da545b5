package service

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/internal/auth/token"
	"carrental/internal/users/repository"
	"carrental/pkg/config"
	apperrors "carrental/pkg/errors"
	"carrental/pkg/logger"
	"carrental/pkg/model"
)

type fixture struct {
	users    repository.UserRepository
	tokens   *token.Manager
	auth     AuthService
	resolver IdentityResolver
}

func newFixture(t *testing.T, allowLegacy bool) *fixture {
	t.Helper()
	users, err := repository.NewFileUserRepository(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{Log: logger.Nop()}
	tokens := token.NewManager("test-secret-0123456789", time.Hour, allowLegacy)
	return &fixture{
		users:    users,
		tokens:   tokens,
		auth:     NewAuthService(users, tokens, cfg),
		resolver: NewIdentityResolver(users, tokens, cfg.Log),
	}
}

func signupRequest(email, username string) *model.Signup {
	return &model.Signup{
		FirstName: "Jane",
		LastName:  "Doe",
		Username:  username,
		Email:     email,
		Password:  "secret123",
	}
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, status, apperrors.AsAppError(err).StatusCode(), err.Error())
}

func TestSignup(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	result, err := f.auth.Signup(ctx, signupRequest("Jane@Example.com ", "jane"))
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "jane@example.com", result.User.Email)
	assert.Equal(t, "Jane Doe", result.User.Name)
	assert.Equal(t, model.RoleUser, result.User.Role)
	assert.True(t, result.User.ID.Equal(model.NumericID(1)))

	stored, err := f.users.FindByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.True(t, CheckPassword(stored.PasswordHash, "secret123"))

	claims, err := f.tokens.Parse(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.Subject)

	second, err := f.auth.Signup(ctx, signupRequest("john@example.com", "john"))
	require.NoError(t, err)
	assert.True(t, second.User.ID.Equal(model.NumericID(2)))
}

func TestSignup_Conflicts(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	_, err := f.auth.Signup(ctx, signupRequest("jane@example.com", "jane"))
	require.NoError(t, err)

	_, err = f.auth.Signup(ctx, signupRequest("JANE@example.com", "other"))
	assertStatus(t, err, http.StatusConflict)

	_, err = f.auth.Signup(ctx, signupRequest("other@example.com", "jane"))
	assertStatus(t, err, http.StatusConflict)
}

func TestSignup_Validation(t *testing.T) {
	f := newFixture(t, false)
	req := signupRequest("not-an-email", "jane")
	req.Password = "123"

	_, err := f.auth.Signup(context.Background(), req)
	assertStatus(t, err, http.StatusUnprocessableEntity)
	assert.Contains(t, apperrors.AsAppError(err).Details, "errors")
}

func TestSignin(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	_, err := f.auth.Signup(ctx, signupRequest("jane@example.com", "jane"))
	require.NoError(t, err)

	byEmail, err := f.auth.Signin(ctx, &model.Signin{Email: "jane@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "jane", byEmail.User.Username)

	byUsername, err := f.auth.Signin(ctx, &model.Signin{Email: "jane", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, byUsername.Token)

	_, err = f.auth.Signin(ctx, &model.Signin{Email: "jane", Password: "wrong-password"})
	assertStatus(t, err, http.StatusUnauthorized)

	_, err = f.auth.Signin(ctx, &model.Signin{Email: "nobody@example.com", Password: "secret123"})
	assertStatus(t, err, http.StatusUnauthorized)

	_, err = f.auth.Signin(ctx, &model.Signin{Email: "jane"})
	assertStatus(t, err, http.StatusUnprocessableEntity)
}

func TestResolve(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	result, err := f.auth.Signup(ctx, signupRequest("jane@example.com", "jane"))
	require.NoError(t, err)

	identity, err := f.resolver.Resolve(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", identity.User.Email)
	assert.False(t, identity.IsAdmin())

	legacy := base64.StdEncoding.EncodeToString([]byte("jane@example.com"))
	identity, err = f.resolver.Resolve(ctx, legacy)
	require.NoError(t, err)
	assert.True(t, identity.User.ID.Equal(model.NumericID(1)))

	_, err = f.resolver.Resolve(ctx, "")
	assertStatus(t, err, http.StatusUnauthorized)

	_, err = f.resolver.Resolve(ctx, "not-a-token")
	assertStatus(t, err, http.StatusUnauthorized)

	_, err = f.resolver.RequireAdmin(ctx, result.Token)
	assertStatus(t, err, http.StatusForbidden)
}

func TestResolve_FallsBackToEmail(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	_, err := f.auth.Signup(ctx, signupRequest("jane@example.com", "jane"))
	require.NoError(t, err)

	stale, err := f.tokens.Issue(&model.User{ID: model.StringID("64b7f0c2a1b2c3d4e5f60718"), Email: "jane@example.com"})
	require.NoError(t, err)

	identity, err := f.resolver.Resolve(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, "jane", identity.User.Username)

	unknown, err := f.tokens.Issue(&model.User{ID: model.NumericID(99), Email: "ghost@example.com"})
	require.NoError(t, err)
	_, err = f.resolver.Resolve(ctx, unknown)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestResolve_Admin(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	admin := &model.User{Name: "Admin", Email: "admin@example.com", Role: model.RoleAdmin}
	require.NoError(t, f.users.Create(ctx, admin))

	signed, err := f.tokens.Issue(admin)
	require.NoError(t, err)

	identity, err := f.resolver.RequireAdmin(ctx, signed)
	require.NoError(t, err)
	assert.True(t, identity.IsAdmin())
}

func TestIdentity_Owns(t *testing.T) {
	identity := &Identity{
		User:  &model.User{ID: model.NumericID(3), Email: "jane@example.com"},
		Email: "jane@example.com",
	}

	assert.True(t, identity.Owns(model.NumericID(3), ""))
	assert.True(t, identity.Owns(model.StringID("3"), ""))
	assert.True(t, identity.Owns(model.NumericID(8), "Jane@Example.com"))
	assert.False(t, identity.Owns(model.NumericID(8), "john@example.com"))
	assert.False(t, identity.Owns(model.NumericID(8), ""))
}
