package service

import (
	"context"
	"errors"
	"strings"

	"carrental/internal/auth/token"
	userserrors "carrental/internal/users/errors"
	"carrental/internal/users/repository"
	"carrental/pkg/config"
	apperrors "carrental/pkg/errors"
	"carrental/pkg/model"
	"carrental/pkg/sanitizer"
	"carrental/pkg/validation"
)

type AuthService interface {
	Signup(ctx context.Context, req *model.Signup) (*model.AuthResult, error)
	Signin(ctx context.Context, req *model.Signin) (*model.AuthResult, error)
}

type authService struct {
	users     repository.UserRepository
	tokens    *token.Manager
	validator *validation.Validator
	cfg       *config.Config
}

func NewAuthService(users repository.UserRepository, tokens *token.Manager, cfg *config.Config) AuthService {
	return &authService{
		users:     users,
		tokens:    tokens,
		validator: validation.New(),
		cfg:       cfg,
	}
}

func (s *authService) Signup(ctx context.Context, req *model.Signup) (*model.AuthResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	req.FirstName = sanitizer.NormalizeName(req.FirstName)
	req.LastName = sanitizer.NormalizeName(req.LastName)
	if err := s.validator.Check(req, "Invalid signup input"); err != nil {
		s.cfg.Log.Warn("Signup validation failed", "email", req.Email, "error", err)
		return nil, err
	}

	if err := s.ensureAvailable(ctx, req.Email, req.Username); err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to create user", err)
	}
	user := &model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		Email:        req.Email,
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	user.Name = sanitizer.NormalizeName(user.FirstName + " " + user.LastName)

	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapUserWriteError(err, "Failed to create user")
	}

	s.cfg.Log.Info("User signed up successfully", "id", user.ID.String(), "email", user.Email)
	return s.result(user)
}

func (s *authService) Signin(ctx context.Context, req *model.Signin) (*model.AuthResult, error) {
	if err := s.validator.Check(req, "Email/Username and password required"); err != nil {
		return nil, err
	}
	login := strings.TrimSpace(req.Email)

	user, err := s.users.FindByEmail(ctx, login)
	if errors.Is(err, userserrors.ErrNotFound) {
		user, err = s.users.FindByUsername(ctx, login)
	}
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Invalid credentials")
		}
		return nil, apperrors.Internal("Failed to sign in", err)
	}
	if !CheckPassword(user.PasswordHash, req.Password) {
		s.cfg.Log.Warn("Signin rejected", "login", login)
		return nil, apperrors.Unauthorized("Invalid credentials")
	}

	s.cfg.Log.Info("User signed in successfully", "id", user.ID.String())
	return s.result(user)
}

func (s *authService) ensureAvailable(ctx context.Context, email, username string) error {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return apperrors.Conflict("User with this email already exists")
	} else if !errors.Is(err, userserrors.ErrNotFound) {
		return apperrors.Internal("Failed to check email", err)
	}
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return apperrors.Conflict("Username already taken")
	} else if !errors.Is(err, userserrors.ErrNotFound) {
		return apperrors.Internal("Failed to check username", err)
	}
	return nil
}

func (s *authService) result(user *model.User) (*model.AuthResult, error) {
	signed, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}
	return &model.AuthResult{User: user.Public(), Token: signed}, nil
}

func mapUserWriteError(err error, message string) error {
	switch {
	case errors.Is(err, userserrors.ErrDuplicateEmail):
		return apperrors.Conflict("User with this email already exists")
	case errors.Is(err, userserrors.ErrDuplicateUsername):
		return apperrors.Conflict("Username already taken")
	case errors.Is(err, userserrors.ErrNotFound):
		return apperrors.NotFound("User")
	}
	return apperrors.Internal(message, err)
}
