package auth

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go"
	fbauth "firebase.google.com/go/auth"
	"google.golang.org/api/option"
)

// idTokenVerifier is the slice of the Firebase auth client we depend on.
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier accepts Firebase ID tokens minted by the client SDK.
type FirebaseVerifier struct {
	client idTokenVerifier
}

// NewFirebaseVerifier initialises the Admin SDK. credentialsFile may be
// empty to fall back to application default credentials.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (*FirebaseVerifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("auth/firebase: init app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth/firebase: auth client: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

// Verify checks the ID token with Firebase and maps its claims.
func (f *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	tok, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return &Identity{
		UserID:    tok.UID,
		Name:      claimString(tok.Claims, "name"),
		Email:     claimString(tok.Claims, "email"),
		Avatar:    claimString(tok.Claims, "picture"),
		Provider:  ProviderFirebase,
		ExpiresAt: time.Unix(tok.Expires, 0),
	}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if s, ok := claims[key].(string); ok {
		return s
	}
	return ""
}
