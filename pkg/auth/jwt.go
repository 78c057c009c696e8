package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the payload of a locally issued token.
type Claims struct {
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// RevocationStore remembers revoked token IDs until they would have expired.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// JWT issues and verifies HS256 tokens for local accounts.
type JWT struct {
	secret  []byte
	ttl     time.Duration
	revoked RevocationStore
	now     func() time.Time
}

// NewJWT returns a JWT provider. revoked may be nil, in which case Revoke is
// a no-op and tokens stay valid until they expire.
func NewJWT(secret string, ttl time.Duration, revoked RevocationStore) *JWT {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWT{secret: []byte(secret), ttl: ttl, revoked: revoked, now: time.Now}
}

// Issue signs a token for the given user.
func (j *JWT) Issue(userID, name, email, avatar string) (string, time.Time, error) {
	now := j.now()
	exp := now.Add(j.ttl)
	claims := Claims{
		Name:   name,
		Email:  email,
		Avatar: avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses t, checks its signature, expiry and revocation.
func (j *JWT) Verify(ctx context.Context, t string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(t, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	if j.revoked != nil && claims.ID != "" {
		revoked, err := j.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("auth: revocation lookup: %w", err)
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}

	id := &Identity{
		UserID:   claims.Subject,
		Name:     claims.Name,
		Email:    claims.Email,
		Avatar:   claims.Avatar,
		Provider: ProviderLocal,
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// Revoke invalidates the identity's token for the rest of its lifetime.
func (j *JWT) Revoke(ctx context.Context, id *Identity) error {
	if j.revoked == nil || id == nil || id.TokenID == "" {
		return nil
	}
	ttl := time.Until(id.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return j.revoked.Revoke(ctx, id.TokenID, ttl)
}

// HashPassword returns a bcrypt hash of the plain-text password.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(b), nil
}

// CheckPassword compares a bcrypt hash against the plain-text candidate.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
