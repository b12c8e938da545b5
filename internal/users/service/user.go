package service

import (
	"context"
	"errors"
	"strings"

	authservice "carrental/internal/auth/service"
	"carrental/internal/auth/token"
	userserrors "carrental/internal/users/errors"
	"carrental/internal/users/repository"
	"carrental/pkg/config"
	apperrors "carrental/pkg/errors"
	"carrental/pkg/model"
	"carrental/pkg/sanitizer"
	"carrental/pkg/validation"
)

type UserService interface {
	List(ctx context.Context, credential string) ([]*model.PublicUser, error)
	Get(ctx context.Context, credential, id string) (*model.PublicUser, error)
	Create(ctx context.Context, credential string, req *model.UserCreate) (*model.PublicUser, error)
	Update(ctx context.Context, credential, id string, req *model.UserUpdate) (*model.UserUpdateResult, error)
	Delete(ctx context.Context, credential, id string) error
}

type userService struct {
	repo      repository.UserRepository
	identity  authservice.IdentityResolver
	tokens    *token.Manager
	validator *validation.Validator
	cfg       *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	identity authservice.IdentityResolver,
	tokens *token.Manager,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		identity:  identity,
		tokens:    tokens,
		validator: validation.New(),
		cfg:       cfg,
	}
}

func (s *userService) List(ctx context.Context, credential string) ([]*model.PublicUser, error) {
	if _, err := s.identity.RequireAdmin(ctx, credential); err != nil {
		return nil, err
	}
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list users", "error", err)
		return nil, apperrors.Internal("Failed to retrieve users", err)
	}
	out := make([]*model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// Get is open to admins and to the user themselves.
func (s *userService) Get(ctx context.Context, credential, id string) (*model.PublicUser, error) {
	caller, err := s.identity.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !caller.Owns(user.ID, "") {
		return nil, apperrors.Forbidden("Forbidden: You can only view your own profile")
	}
	return user.Public(), nil
}

func (s *userService) Create(ctx context.Context, credential string, req *model.UserCreate) (*model.PublicUser, error) {
	if _, err := s.identity.RequireAdmin(ctx, credential); err != nil {
		return nil, err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Check(req, "Invalid user input"); err != nil {
		s.cfg.Log.Warn("User validation failed", "email", req.Email, "error", err)
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.Conflict("User already exists")
	} else if !errors.Is(err, userserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to check email", err)
	}

	hash, err := authservice.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to create user", err)
	}
	user := &model.User{
		Name:         sanitizer.NormalizeName(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if user.Name == "" {
		user.Name, _, _ = strings.Cut(req.Email, "@")
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	if err := s.repo.Create(ctx, user); err != nil {
		s.cfg.Log.Error("Failed to create user", "email", user.Email, "error", err)
		return nil, mapWriteError(err, "Failed to create user")
	}

	s.cfg.Log.Info("User created successfully", "id", user.ID.String(), "role", user.Role)
	return user.Public(), nil
}

func (s *userService) Update(ctx context.Context, credential, id string, req *model.UserUpdate) (*model.UserUpdateResult, error) {
	caller, err := s.identity.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	isSelf := caller.Owns(user.ID, "")
	if !isSelf && !caller.IsAdmin() {
		return nil, apperrors.Forbidden("Forbidden: You can only update your own profile")
	}
	if req.Role != nil && *req.Role != user.Role && !caller.IsAdmin() {
		return nil, apperrors.Forbidden("Forbidden: Only admins can change roles")
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		req.Email = &email
	}
	if err := s.validator.Check(req, "Invalid update input"); err != nil {
		s.cfg.Log.Warn("User update validation failed", "id", id, "error", err)
		return nil, err
	}

	emailChanged := req.Email != nil && *req.Email != user.Email
	if emailChanged {
		if _, err := s.repo.FindByEmail(ctx, *req.Email); err == nil {
			return nil, apperrors.Conflict("Another user with this email already exists")
		} else if !errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Internal("Failed to check email", err)
		}
	}

	if err := s.apply(user, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, user); err != nil {
		s.cfg.Log.Error("Failed to update user", "id", id, "error", err)
		return nil, mapWriteError(err, "Failed to update user")
	}

	result := &model.UserUpdateResult{PublicUser: user.Public()}
	if isSelf {
		signed, err := s.tokens.Issue(user)
		if err != nil {
			return nil, apperrors.Internal("Failed to issue token", err)
		}
		result.Token = signed
	}

	s.cfg.Log.Info("User updated successfully", "id", user.ID.String(), "self", isSelf)
	return result, nil
}

func (s *userService) Delete(ctx context.Context, credential, id string) error {
	if _, err := s.identity.RequireAdmin(ctx, credential); err != nil {
		return err
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, user); err != nil {
		s.cfg.Log.Error("Failed to delete user", "id", id, "error", err)
		return mapWriteError(err, "Failed to delete user")
	}

	s.cfg.Log.Info("User deleted successfully", "id", user.ID.String())
	return nil
}

func (s *userService) find(ctx context.Context, id string) (*model.User, error) {
	identifier := model.ParseIdentifier(id)
	if identifier.IsEmpty() {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}
	user, err := s.repo.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}
	return user, nil
}

func (s *userService) apply(user *model.User, req *model.UserUpdate) error {
	if req.FirstName != nil {
		user.FirstName = sanitizer.NormalizeName(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = sanitizer.NormalizeName(*req.LastName)
	}
	if req.Username != nil {
		user.Username = strings.TrimSpace(*req.Username)
	}
	if req.Name != nil {
		user.Name = sanitizer.NormalizeName(*req.Name)
	} else if req.FirstName != nil || req.LastName != nil {
		user.Name = sanitizer.NormalizeName(user.FirstName + " " + user.LastName)
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Password != nil {
		hash, err := authservice.HashPassword(*req.Password)
		if err != nil {
			return apperrors.Internal("Failed to update password", err)
		}
		user.PasswordHash = hash
	}
	return nil
}

func mapWriteError(err error, message string) error {
	switch {
	case errors.Is(err, userserrors.ErrDuplicateEmail):
		return apperrors.Conflict("Another user with this email already exists")
	case errors.Is(err, userserrors.ErrDuplicateUsername):
		return apperrors.Conflict("Username already taken")
	case errors.Is(err, userserrors.ErrNotFound):
		return apperrors.NotFound("User")
	}
	return apperrors.Internal(message, err)
}
