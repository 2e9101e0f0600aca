package oauth2

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	oauth2lib "golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	githubUserInfoURL = "https://api.github.com/user"
	githubEmailsURL   = "https://api.github.com/user/emails"
	githubAccept      = "application/vnd.github+json"
)

// GithubProvider exchanges GitHub authorization codes for profiles. GitHub
// may omit a public email on the profile endpoint; when that happens the
// account's email list is consulted for the primary verified entry.
type GithubProvider struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint, UserInfoURL, and EmailsURL default to GitHub's production
	// endpoints and can be overridden for testing.
	Endpoint    oauth2lib.Endpoint
	UserInfoURL string
	EmailsURL   string

	// HTTPClient is used for the token exchange and profile fetches when set.
	HTTPClient *http.Client
}

func NewGithubProvider(clientID, clientSecret, redirectURL string) *GithubProvider {
	return &GithubProvider{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     github.Endpoint,
		UserInfoURL:  githubUserInfoURL,
		EmailsURL:    githubEmailsURL,
	}
}

func (g *GithubProvider) Name() string { return "github" }

func (g *GithubProvider) configured() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RedirectURL != ""
}

func (g *GithubProvider) config(redirectOverride string) *oauth2lib.Config {
	redirect := g.RedirectURL
	if redirectOverride != "" {
		redirect = redirectOverride
	}
	return &oauth2lib.Config{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		RedirectURL:  redirect,
		Scopes:       []string{"read:user", "user:email"},
		Endpoint:     g.Endpoint,
	}
}

func (g *GithubProvider) AuthCodeURL(state, redirectOverride string) (string, error) {
	if !g.configured() {
		return "", fmt.Errorf("%w: set GITHUB_CLIENT_ID/SECRET/REDIRECT_URI", ErrNotConfigured)
	}
	return g.config(redirectOverride).AuthCodeURL(state,
		oauth2lib.SetAuthURLParam("allow_signup", "true"),
	), nil
}

func (g *GithubProvider) Exchange(ctx context.Context, code, redirectOverride string) (*Profile, error) {
	if !g.configured() {
		return nil, fmt.Errorf("%w: set GITHUB_CLIENT_ID/SECRET/REDIRECT_URI", ErrNotConfigured)
	}

	token, err := g.config(redirectOverride).Exchange(exchangeContext(ctx, g.HTTPClient), code)
	if err != nil {
		return nil, fmt.Errorf("%w: github: %v", ErrExchangeFailed, err)
	}

	var info struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Login string `json:"login"`
	}
	if err := fetchJSON(ctx, g.HTTPClient, g.UserInfoURL, token.AccessToken, githubAccept, &info); err != nil {
		return nil, fmt.Errorf("%w: github: %v", ErrProfileFetch, err)
	}
	if info.ID == 0 {
		return nil, fmt.Errorf("%w: github profile missing subject id", ErrProfileFetch)
	}

	email := info.Email
	if email == "" {
		email = g.primaryVerifiedEmail(ctx, token.AccessToken)
	}

	name := info.Name
	if name == "" {
		name = info.Login
	}

	return &Profile{
		Provider:   g.Name(),
		ProviderID: strconv.FormatInt(info.ID, 10),
		Email:      email,
		Name:       name,
	}, nil
}

// primaryVerifiedEmail fetches the account's email list and returns the
// primary verified address, or "" if none exists. A failed fetch is treated
// as no email; the caller decides whether an email-less profile is fatal.
func (g *GithubProvider) primaryVerifiedEmail(ctx context.Context, accessToken string) string {
	var entries []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := fetchJSON(ctx, g.HTTPClient, g.EmailsURL, accessToken, githubAccept, &entries); err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.Primary && entry.Verified && entry.Email != "" {
			return entry.Email
		}
	}
	return ""
}
