package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"carrental/internal/storage/filedb"
	userserrors "carrental/internal/users/errors"
	"carrental/pkg/model"
)

type fileUserRepository struct {
	users *filedb.Collection[*model.User]
}

func NewFileUserRepository(dataDir string) (UserRepository, error) {
	users, err := filedb.Open[*model.User](filepath.Join(dataDir, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open users file: %w", err)
	}
	return &fileUserRepository{users: users}, nil
}

func (r *fileUserRepository) FindByIdentifier(ctx context.Context, id model.Identifier) (*model.User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	user, found, _ := model.Resolve(id, model.UserLookupOrder, func(rep model.Representation) (*model.User, bool, error) {
		for _, u := range users {
			if id.Matches(rep, u.ObjectID, u.ID) {
				return u, true, nil
			}
		}
		return nil, false, nil
	})
	if !found {
		return nil, userserrors.ErrNotFound
	}
	return user, nil
}

func (r *fileUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findFirst(ctx, func(u *model.User) bool {
		return strings.EqualFold(u.Email, strings.TrimSpace(email))
	})
}

func (r *fileUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findFirst(ctx, func(u *model.User) bool {
		return u.Username != "" && u.Username == username
	})
}

func (r *fileUserRepository) findFirst(ctx context.Context, match func(*model.User) bool) (*model.User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if match(u) {
			return u, nil
		}
	}
	return nil, userserrors.ErrNotFound
}

func (r *fileUserRepository) FindAll(ctx context.Context) ([]*model.User, error) {
	return r.load(ctx)
}

// Create assigns the next numeric id, continuing the sequence of the
// seed file.
func (r *fileUserRepository) Create(ctx context.Context, user *model.User) error {
	user.Email = normalizeEmail(user.Email)
	if user.CreatedAt == nil {
		now := time.Now().UTC().Truncate(time.Millisecond)
		user.CreatedAt = &now
	}
	return r.users.Update(ctx, func(users []*model.User) ([]*model.User, error) {
		var next int64 = 1
		for _, u := range users {
			if err := conflicts(u, user); err != nil {
				return nil, err
			}
			if n, ok := u.ID.Int64(); ok && n >= next {
				next = n + 1
			}
		}
		user.ID = model.NumericID(next)
		return append(users, user), nil
	})
}

func (r *fileUserRepository) Update(ctx context.Context, user *model.User) error {
	user.Email = normalizeEmail(user.Email)
	return r.users.Update(ctx, func(users []*model.User) ([]*model.User, error) {
		idx := -1
		for i, u := range users {
			if sameUser(u, user) {
				idx = i
				continue
			}
			if err := conflicts(u, user); err != nil {
				return nil, err
			}
		}
		if idx == -1 {
			return nil, userserrors.ErrNotFound
		}
		users[idx] = user
		return users, nil
	})
}

func (r *fileUserRepository) Delete(ctx context.Context, user *model.User) error {
	return r.users.Update(ctx, func(users []*model.User) ([]*model.User, error) {
		for i, u := range users {
			if sameUser(u, user) {
				return append(users[:i], users[i+1:]...), nil
			}
		}
		return nil, userserrors.ErrNotFound
	})
}

func (r *fileUserRepository) load(ctx context.Context) ([]*model.User, error) {
	users, err := r.users.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	for _, u := range users {
		u.Normalize()
	}
	return users, nil
}

func sameUser(a, b *model.User) bool {
	if !a.ObjectID.IsZero() || !b.ObjectID.IsZero() {
		return a.ObjectID == b.ObjectID
	}
	return a.ID.Equal(b.ID)
}

func conflicts(existing, candidate *model.User) error {
	if strings.EqualFold(existing.Email, candidate.Email) {
		return userserrors.ErrDuplicateEmail
	}
	if candidate.Username != "" && existing.Username == candidate.Username {
		return userserrors.ErrDuplicateUsername
	}
	return nil
}
