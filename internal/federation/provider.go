package federation

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

var (
	ErrProviderMisconfigured = errors.New("provider misconfigured")
	ErrExchangeCodeFailed    = errors.New("authorization code exchange failed")
	ErrFetchUserInfoFailed   = errors.New("fetching user info failed")
	ErrInvalidAuthState      = errors.New("invalid or expired auth state")
)

// UserInfo holds standardized user information retrieved from an external
// OAuth2 provider, ready to be mapped onto credential and PII rows.
type UserInfo struct {
	ProviderUserID string // Unique ID of the user within the external provider (e.g. Google's 'sub')
	Email          string
	EmailVerified  bool
	FirstName      string
	LastName       string
	DisplayName    string
	PictureURL     string
	RawData        map[string]any
}

// Provider defines the interface for an external OAuth2 identity provider.
// Implementations handle provider-specific endpoints and userinfo parsing.
type Provider interface {
	// Name returns the unique identifier for the provider (e.g. "google").
	Name() string

	// AuthCodeURL generates the authorization URL the user should be
	// redirected to. state is the CSRF token minted by the caller.
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string

	// Exchange exchanges an authorization code for an OAuth2 token.
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)

	// FetchUserInfo uses an access token to retrieve user information from
	// the provider and returns it in standardized form.
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error)
}
