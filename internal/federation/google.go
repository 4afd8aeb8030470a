package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	googleOAuth2 "golang.org/x/oauth2/google"
)

// GoogleUserInfoEndpoint is a variable so tests can point it at a local server.
var GoogleUserInfoEndpoint = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleConfig carries the client registration for the Google provider.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       []string
}

// GoogleProvider implements the Provider interface for Google.
type GoogleProvider struct {
	conf *oauth2.Config
}

// NewGoogleProvider creates a new GoogleProvider using Google's well-known
// endpoints. The openid/email/profile scopes are ensured so the userinfo
// response always carries the PII the reconciliation layer expects.
func NewGoogleProvider(cfg GoogleConfig) (*GoogleProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.CallbackURL == "" {
		return nil, ErrProviderMisconfigured
	}

	scopes := cfg.Scopes
	for _, needed := range []string{"openid", "email", "profile"} {
		found := false
		for _, s := range scopes {
			if s == needed {
				found = true
				break
			}
		}
		if !found {
			scopes = append(scopes, needed)
		}
	}

	return &GoogleProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       scopes,
			Endpoint:     googleOAuth2.Endpoint,
		},
	}, nil
}

func (g *GoogleProvider) Name() string { return "google" }

func (g *GoogleProvider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	// access_type=offline asks Google for a refresh token on first consent.
	opts = append([]oauth2.AuthCodeOption{oauth2.AccessTypeOffline}, opts...)
	return g.conf.AuthCodeURL(state, opts...)
}

func (g *GoogleProvider) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	token, err := g.conf.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeCodeFailed, err)
	}
	return token, nil
}

// FetchUserInfo fetches user information from Google's v3 userinfo endpoint.
func (g *GoogleProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	client := g.conf.Client(ctx, token)
	resp, err := client.Get(GoogleUserInfoEndpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchUserInfoFailed, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrFetchUserInfoFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrFetchUserInfoFailed, resp.StatusCode, string(rawBody))
	}

	var rawUserInfo struct {
		Sub           string `json:"sub"`
		Name          string `json:"name"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
		Picture       string `json:"picture"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Locale        string `json:"locale"`
	}
	if err := json.Unmarshal(rawBody, &rawUserInfo); err != nil {
		return nil, fmt.Errorf("%w: unmarshalling user info: %v", ErrFetchUserInfoFailed, err)
	}

	// Keep the raw payload around for audit logging; failure here is not
	// fatal once the typed fields parsed.
	var rawDataMap map[string]any
	_ = json.Unmarshal(rawBody, &rawDataMap)

	return &UserInfo{
		ProviderUserID: rawUserInfo.Sub,
		Email:          rawUserInfo.Email,
		EmailVerified:  rawUserInfo.EmailVerified,
		FirstName:      rawUserInfo.GivenName,
		LastName:       rawUserInfo.FamilyName,
		DisplayName:    rawUserInfo.Name,
		PictureURL:     rawUserInfo.Picture,
		RawData:        rawDataMap,
	}, nil
}

// Ensure GoogleProvider implements Provider.
var _ Provider = (*GoogleProvider)(nil)
