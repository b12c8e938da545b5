package service

import (
	"context"
	"errors"
	"strings"

	"carrental/internal/auth/token"
	userserrors "carrental/internal/users/errors"
	"carrental/internal/users/repository"
	apperrors "carrental/pkg/errors"
	"carrental/pkg/logger"
	"carrental/pkg/model"
)

// Identity is the caller behind a bearer credential.
type Identity struct {
	User *model.User
	// Email is the address the credential was issued for.
	Email string
}

func (i *Identity) IsAdmin() bool {
	return i.User.IsAdmin()
}

// Owns reports whether a record written with userID and userEmail belongs
// to the caller. The email comparison covers legacy records whose user
// id no longer matches.
func (i *Identity) Owns(userID model.LegacyID, userEmail string) bool {
	if model.ContainsAlias(i.User.Aliases(), userID) {
		return true
	}
	if userEmail == "" {
		return false
	}
	return strings.EqualFold(userEmail, i.Email) || strings.EqualFold(userEmail, i.User.Email)
}

type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (*Identity, error)
	RequireAdmin(ctx context.Context, credential string) (*Identity, error)
}

type identityResolver struct {
	users  repository.UserRepository
	tokens *token.Manager
	log    *logger.Logger
}

func NewIdentityResolver(users repository.UserRepository, tokens *token.Manager, log *logger.Logger) IdentityResolver {
	return &identityResolver{
		users:  users,
		tokens: tokens,
		log:    log,
	}
}

// Resolve maps a credential to a stored user: by token subject first,
// then by the token's email.
func (r *identityResolver) Resolve(ctx context.Context, credential string) (*Identity, error) {
	if credential == "" {
		return nil, apperrors.Unauthorized("Unauthorized")
	}
	claims, err := r.tokens.Parse(credential)
	if err != nil {
		r.log.Debug("Rejected credential", "error", err)
		return nil, apperrors.Unauthorized("Unauthorized")
	}

	var user *model.User
	if claims.Subject != "" {
		user, err = r.users.FindByIdentifier(ctx, model.ParseIdentifier(claims.Subject))
		if err != nil && !errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Internal("Failed to resolve user", err)
		}
	}
	if user == nil && claims.Email != "" {
		user, err = r.users.FindByEmail(ctx, claims.Email)
		if err != nil && !errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Internal("Failed to resolve user", err)
		}
	}
	if user == nil {
		return nil, apperrors.Unauthorized("Unauthorized")
	}

	email := claims.Email
	if email == "" {
		email = user.Email
	}
	return &Identity{User: user, Email: email}, nil
}

func (r *identityResolver) RequireAdmin(ctx context.Context, credential string) (*Identity, error) {
	identity, err := r.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	if !identity.IsAdmin() {
		return nil, apperrors.Forbidden("Admin access required")
	}
	return identity, nil
}
