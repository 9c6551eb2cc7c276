package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/arenahub/arena/internal/config"
)

// IdentityProvider is the boundary to an external sign-in provider. The
// service only ever sees the exchanged ExternalIdentity; redirect and token
// mechanics stay behind this interface (and out of the tests' way).
type IdentityProvider interface {
	// AuthURL returns the provider consent-screen URL for the given
	// anti-forgery state value.
	AuthURL(state string) string

	// Exchange trades the callback authorization code for the provider's
	// stable subject identifier and profile hints.
	Exchange(ctx context.Context, code string) (*ExternalIdentity, error)
}

// googleProvider implements IdentityProvider against Google's OAuth2
// endpoints using golang.org/x/oauth2.
type googleProvider struct {
	oauth *oauth2.Config
}

// NewGoogleProvider builds the Google identity provider from config.
func NewGoogleProvider(cfg config.AuthConfig) IdentityProvider {
	return &googleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

func (p *googleProvider) AuthURL(state string) string {
	// prompt=select_account lets users with several Google accounts pick
	// one instead of being silently signed in with the last used account.
	return p.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// googleUserInfo is the subset of Google's userinfo response we consume.
type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

func (p *googleProvider) Exchange(ctx context.Context, code string) (*ExternalIdentity, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging oauth code: %w", err)
	}

	client := p.oauth.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned %s", resp.Status)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}

	if info.ID == "" {
		return nil, fmt.Errorf("userinfo response missing subject id")
	}

	avatar := info.Picture
	if avatar == "" {
		avatar = DefaultAvatarURL
	}

	return &ExternalIdentity{
		SubjectID: info.ID,
		Email:     info.Email,
		AvatarURL: avatar,
	}, nil
}
