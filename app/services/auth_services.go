package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/pkg/auth"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

// TokenIssuer mints and revokes local session tokens. *auth.JWT satisfies it.
type TokenIssuer interface {
	Issue(userID, name, email, avatar string) (string, time.Time, error)
	Revoke(ctx context.Context, id *auth.Identity) error
}

type SignupInput struct {
	Name     string `json:"name"     validate:"required,min=2,max=255"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput carries optional profile changes; nil fields stay as they are.
type ProfileInput struct {
	Name      *string `json:"name"       validate:"nullable,min=2,max=255"`
	AvatarURL *string `json:"avatar_url" validate:"nullable,url,max=1024"`
}

// Session is a user plus the bearer token to use for them. Token is empty
// when the identity provider issues tokens itself.
type Session struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token,omitempty"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
}

type AuthService struct {
	users  UserStore
	tokens TokenIssuer
}

// NewAuthService wires the account store and, for local auth, the token
// issuer. tokens is nil when an external provider signs users in.
func NewAuthService(users UserStore, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// LocalAccounts reports whether signup and login are served here.
func (s *AuthService) LocalAccounts() bool { return s.tokens != nil }

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	if !s.LocalAccounts() {
		return nil, fail(ErrUnavailable, "Sign-up is handled by the identity provider")
	}
	email := normaliseEmail(in.Email)

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, fail(ErrConflict, "The email has already been taken.")
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    &email,
		Password: hash,
		Provider: auth.ProviderLocal,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fail(ErrConflict, "The email has already been taken.")
		}
		return nil, err
	}

	logger.WithCtx(ctx).Info("auth: signed up", "user_id", u.ID)
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if !s.LocalAccounts() {
		return nil, fail(ErrUnavailable, "Sign-in is handled by the identity provider")
	}
	u, err := s.users.FindByEmail(ctx, normaliseEmail(in.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fail(ErrUnauthorized, "Invalid email or password.")
		}
		return nil, err
	}
	if u.Password == "" || !auth.CheckPassword(u.Password, in.Password) {
		return nil, fail(ErrUnauthorized, "Invalid email or password.")
	}
	return s.issue(u)
}

// Logout revokes the caller's local token until it expires. Provider tokens
// are signed out on the client.
func (s *AuthService) Logout(ctx context.Context, id *auth.Identity) error {
	if id == nil {
		return fail(ErrUnauthorized, "Unauthorized")
	}
	if !s.LocalAccounts() || id.Provider != auth.ProviderLocal {
		return nil
	}
	return s.tokens.Revoke(ctx, id)
}

// CurrentUser returns the caller's profile. Provider identities get a user
// row on first use, filled from the token claims.
func (s *AuthService) CurrentUser(ctx context.Context, id *auth.Identity) (*models.User, error) {
	if id == nil {
		return nil, fail(ErrUnauthorized, "Unauthorized")
	}
	u, err := s.users.FindByID(ctx, id.UserID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	if id.Provider == auth.ProviderLocal {
		return nil, fail(ErrUnauthorized, "Account no longer exists.")
	}

	u = &models.User{
		ID:        id.UserID,
		Name:      id.Name,
		AvatarURL: id.Avatar,
		Provider:  id.Provider,
	}
	if id.Email != "" {
		email := normaliseEmail(id.Email)
		u.Email = &email
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Info("auth: provider user created", "user_id", u.ID, "provider", u.Provider)
	return u, nil
}

// UpdateProfile changes the display name and/or avatar. Local callers get a
// fresh token so the new values reach the session claims.
func (s *AuthService) UpdateProfile(ctx context.Context, id *auth.Identity, in ProfileInput) (*Session, error) {
	u, err := s.CurrentUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.AvatarURL != nil {
		u.AvatarURL = strings.TrimSpace(*in.AvatarURL)
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}

	if !s.LocalAccounts() || u.Provider != auth.ProviderLocal {
		return &Session{User: u}, nil
	}
	return s.issue(u)
}

func (s *AuthService) issue(u *models.User) (*Session, error) {
	token, exp, err := s.tokens.Issue(u.ID, u.Name, u.EmailString(), u.AvatarURL)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token, ExpiresAt: &exp}, nil
}

func normaliseEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
