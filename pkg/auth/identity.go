// Package auth verifies bearer tokens and carries the resulting identity
// through the request context.
//
// Two providers are supported: locally issued HS256 JWTs (JWT) and Firebase
// ID tokens (FirebaseVerifier). Both satisfy Verifier.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	ProviderLocal    = "local"
	ProviderFirebase = "firebase"

	// AnonymousName and DefaultAvatar stand in for a missing display name or
	// avatar wherever an identity is copied onto a record.
	AnonymousName = "Anonymous"
	DefaultAvatar = "https://placehold.co/100x100.png"
)

var (
	ErrMissingToken = errors.New("auth: missing bearer token")
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrRevokedToken = errors.New("auth: token has been revoked")
)

// Identity is the signed-in user as seen by one request.
type Identity struct {
	UserID    string
	Name      string
	Email     string
	Avatar    string
	Provider  string
	TokenID   string
	ExpiresAt time.Time
}

// DisplayName returns the name, or AnonymousName when blank.
func (i *Identity) DisplayName() string {
	if i == nil || strings.TrimSpace(i.Name) == "" {
		return AnonymousName
	}
	return i.Name
}

// AvatarURL returns the avatar, or DefaultAvatar when blank.
func (i *Identity) AvatarURL() string {
	if i == nil || strings.TrimSpace(i.Avatar) == "" {
		return DefaultAvatar
	}
	return i.Avatar
}

// Verifier turns a raw bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type ctxKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by the auth middleware.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(*Identity)
	return id, ok && id != nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}
