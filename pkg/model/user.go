package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ObjectID     primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	ID           LegacyID           `json:"id" bson:"id,omitempty"`
	FirstName    string             `json:"firstName,omitempty" bson:"firstName,omitempty"`
	LastName     string             `json:"lastName,omitempty" bson:"lastName,omitempty"`
	Username     string             `json:"username,omitempty" bson:"username,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	PhoneNumber  string             `json:"phoneNumber,omitempty" bson:"phoneNumber,omitempty"`
	PasswordHash string             `json:"passwordHash,omitempty" bson:"passwordHash,omitempty"`
	Role         Role               `json:"role" bson:"role"`
	CreatedAt    *time.Time         `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
}

func (u *User) Normalize() {
	if u.ID.IsZero() && !u.ObjectID.IsZero() {
		u.ID = StringID(u.ObjectID.Hex())
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) CanonicalID() LegacyID {
	u.Normalize()
	return u.ID
}

func (u *User) Aliases() []LegacyID {
	return aliasesOf(u.ObjectID, u.ID)
}

// Public strips the credential hash.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Username:    u.Username,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
	}
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

type PublicUser struct {
	ID          LegacyID `json:"id"`
	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`
	Username    string   `json:"username,omitempty"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	PhoneNumber string   `json:"phoneNumber,omitempty"`
	Role        Role     `json:"role"`
}

type UserSummary struct {
	ID    LegacyID `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
}

type Signup struct {
	FirstName   string `json:"firstName" validate:"required,min=1,max=50"`
	LastName    string `json:"lastName" validate:"required,min=1,max=50"`
	Username    string `json:"username" validate:"required,min=3,max=30"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,max=20"`
}

type Signin struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserCreate is the admin-side create request.
type UserCreate struct {
	Name     string `json:"name" validate:"omitempty,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     Role   `json:"role" validate:"omitempty,oneof=user admin"`
}

type UserUpdate struct {
	FirstName   *string `json:"firstName,omitempty" validate:"omitempty,min=1,max=50"`
	LastName    *string `json:"lastName,omitempty" validate:"omitempty,min=1,max=50"`
	Username    *string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	Name        *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber *string `json:"phoneNumber,omitempty" validate:"omitempty,max=20"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=6,max=72"`
	Role        *Role   `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
}

type AuthResult struct {
	User  *PublicUser `json:"user"`
	Token string      `json:"token"`
}

// UserUpdateResult carries a fresh token when callers update themselves.
type UserUpdateResult struct {
	*PublicUser
	Token string `json:"token,omitempty"`
}
