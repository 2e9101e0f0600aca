package oauth2

import (
	"context"
	"fmt"
	"net/http"

	oauth2lib "golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleProvider exchanges Google authorization codes for profiles.
type GoogleProvider struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint and UserInfoURL default to Google's production endpoints and
	// can be overridden for testing.
	Endpoint    oauth2lib.Endpoint
	UserInfoURL string

	// HTTPClient is used for the token exchange and profile fetch when set.
	HTTPClient *http.Client
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		UserInfoURL:  googleUserInfoURL,
	}
}

func (g *GoogleProvider) Name() string { return "google" }

func (g *GoogleProvider) configured() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RedirectURL != ""
}

func (g *GoogleProvider) config(redirectOverride string) *oauth2lib.Config {
	redirect := g.RedirectURL
	if redirectOverride != "" {
		redirect = redirectOverride
	}
	return &oauth2lib.Config{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		RedirectURL:  redirect,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     g.Endpoint,
	}
}

func (g *GoogleProvider) AuthCodeURL(state, redirectOverride string) (string, error) {
	if !g.configured() {
		return "", fmt.Errorf("%w: set GOOGLE_CLIENT_ID/SECRET/REDIRECT_URI", ErrNotConfigured)
	}
	return g.config(redirectOverride).AuthCodeURL(state,
		oauth2lib.AccessTypeOffline,
		oauth2lib.SetAuthURLParam("prompt", "consent"),
	), nil
}

func (g *GoogleProvider) Exchange(ctx context.Context, code, redirectOverride string) (*Profile, error) {
	if !g.configured() {
		return nil, fmt.Errorf("%w: set GOOGLE_CLIENT_ID/SECRET/REDIRECT_URI", ErrNotConfigured)
	}

	token, err := g.config(redirectOverride).Exchange(exchangeContext(ctx, g.HTTPClient), code)
	if err != nil {
		return nil, fmt.Errorf("%w: google: %v", ErrExchangeFailed, err)
	}

	var info struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := fetchJSON(ctx, g.HTTPClient, g.UserInfoURL, token.AccessToken, "", &info); err != nil {
		return nil, fmt.Errorf("%w: google: %v", ErrProfileFetch, err)
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("%w: google profile missing subject id", ErrProfileFetch)
	}

	return &Profile{
		Provider:   g.Name(),
		ProviderID: info.Sub,
		Email:      info.Email,
		Name:       info.Name,
	}, nil
}
