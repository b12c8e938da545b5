package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	autherrors "carrental/internal/auth/errors"
	"carrental/pkg/model"
)

const Issuer = "carrental"

// Claims identify the caller. Subject holds the user's canonical id.
type Claims struct {
	Email string     `json:"email,omitempty"`
	Role  model.Role `json:"role,omitempty"`
	jwt.RegisteredClaims

	// Legacy is set for base64(email) credentials, which carry no subject.
	Legacy bool `json:"-"`
}

type Manager struct {
	secret      []byte
	ttl         time.Duration
	allowLegacy bool
	now         func() time.Time
}

func NewManager(secret string, ttl time.Duration, allowLegacy bool) *Manager {
	return &Manager{
		secret:      []byte(secret),
		ttl:         ttl,
		allowLegacy: allowLegacy,
		now:         time.Now,
	}
}

// Issue signs an HS256 token for user.
func (m *Manager) Issue(user *model.User) (string, error) {
	now := m.now()
	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.CanonicalID().String(),
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse validates signature and expiry. Base64 email credentials are
// accepted only when legacy tokens are enabled.
func (m *Manager) Parse(credential string) (*Claims, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, autherrors.ErrInvalidToken
	}
	if strings.Count(credential, ".") != 2 {
		return m.parseLegacy(credential)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, autherrors.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", autherrors.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, autherrors.ErrInvalidToken
	}
	return claims, nil
}

func (m *Manager) parseLegacy(credential string) (*Claims, error) {
	if !m.allowLegacy {
		return nil, autherrors.ErrInvalidToken
	}
	decoded, err := base64.StdEncoding.DecodeString(credential)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(credential)
	}
	if err != nil {
		return nil, autherrors.ErrInvalidToken
	}
	email := strings.TrimSpace(string(decoded))
	if !strings.Contains(email, "@") {
		return nil, autherrors.ErrInvalidToken
	}
	return &Claims{Email: email, Legacy: true}, nil
}
