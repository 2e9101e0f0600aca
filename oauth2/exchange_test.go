package oauth2_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/panyam/gatekey/oauth2"
	oauth2lib "golang.org/x/oauth2"
)

// mockProviderServer simulates a provider's token, userinfo, and email-list
// endpoints.
type mockProviderServer struct {
	server *httptest.Server

	tokenResponse    map[string]any
	userInfoResponse map[string]any
	emailsResponse   []map[string]any
	tokenError       bool
	userInfoError    bool
}

func newMockProviderServer() *mockProviderServer {
	mock := &mockProviderServer{
		tokenResponse: map[string]any{
			"access_token": "mock_access_token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if mock.tokenError {
			http.Error(w, "token exchange failed", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mock.tokenResponse)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if mock.userInfoError {
			http.Error(w, "user info failed", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mock.userInfoResponse)
	})
	mux.HandleFunc("/emails", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mock.emailsResponse)
	})

	mock.server = httptest.NewServer(mux)
	return mock
}

func (m *mockProviderServer) Close() { m.server.Close() }

func (m *mockProviderServer) endpoint() oauth2lib.Endpoint {
	return oauth2lib.Endpoint{
		AuthURL:  m.server.URL + "/auth",
		TokenURL: m.server.URL + "/token",
	}
}

func testGoogleProvider(mock *mockProviderServer) *oauth2.GoogleProvider {
	p := oauth2.NewGoogleProvider("test-client", "test-secret", "http://localhost/callback")
	p.Endpoint = mock.endpoint()
	p.UserInfoURL = mock.server.URL + "/userinfo"
	p.HTTPClient = mock.server.Client()
	return p
}

func testGithubProvider(mock *mockProviderServer) *oauth2.GithubProvider {
	p := oauth2.NewGithubProvider("test-client", "test-secret", "http://localhost/callback")
	p.Endpoint = mock.endpoint()
	p.UserInfoURL = mock.server.URL + "/userinfo"
	p.EmailsURL = mock.server.URL + "/emails"
	p.HTTPClient = mock.server.Client()
	return p
}

func TestGoogleAuthCodeURL(t *testing.T) {
	p := oauth2.NewGoogleProvider("test-client", "test-secret", "http://localhost/callback")

	rawURL, err := p.AuthCodeURL("the-state", "")
	if err != nil {
		t.Fatalf("AuthCodeURL failed: %v", err)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		t.Fatal(err)
	}

	query := parsed.Query()
	if query.Get("client_id") != "test-client" {
		t.Errorf("client_id = %q", query.Get("client_id"))
	}
	if query.Get("state") != "the-state" {
		t.Errorf("state = %q", query.Get("state"))
	}
	if query.Get("response_type") != "code" {
		t.Errorf("response_type = %q", query.Get("response_type"))
	}
	if !strings.Contains(query.Get("scope"), "email") {
		t.Errorf("scope = %q", query.Get("scope"))
	}
	if query.Get("access_type") != "offline" || query.Get("prompt") != "consent" {
		t.Errorf("missing offline/consent params: %v", query)
	}
}

func TestGithubAuthCodeURLRedirectOverride(t *testing.T) {
	p := oauth2.NewGithubProvider("test-client", "test-secret", "http://localhost/callback")

	rawURL, err := p.AuthCodeURL("the-state", "http://elsewhere/cb")
	if err != nil {
		t.Fatal(err)
	}
	parsed, _ := url.Parse(rawURL)
	if got := parsed.Query().Get("redirect_uri"); got != "http://elsewhere/cb" {
		t.Errorf("redirect_uri = %q, want override", got)
	}
	if got := parsed.Query().Get("allow_signup"); got != "true" {
		t.Errorf("allow_signup = %q", got)
	}
}

func TestUnconfiguredProvider(t *testing.T) {
	p := oauth2.NewGoogleProvider("", "", "")

	if _, err := p.AuthCodeURL("state", ""); !errors.Is(err, oauth2.ErrNotConfigured) {
		t.Errorf("AuthCodeURL: expected ErrNotConfigured, got %v", err)
	}
	if _, err := p.Exchange(context.Background(), "code", ""); !errors.Is(err, oauth2.ErrNotConfigured) {
		t.Errorf("Exchange: expected ErrNotConfigured, got %v", err)
	}
}

func TestGoogleExchange(t *testing.T) {
	mock := newMockProviderServer()
	defer mock.Close()
	mock.userInfoResponse = map[string]any{
		"sub":   "google-sub-1",
		"email": "user@example.com",
		"name":  "Test User",
	}

	profile, err := testGoogleProvider(mock).Exchange(context.Background(), "auth-code", "")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if profile.Provider != "google" || profile.ProviderID != "google-sub-1" {
		t.Errorf("unexpected profile identity: %+v", profile)
	}
	if profile.Email != "user@example.com" || profile.Name != "Test User" {
		t.Errorf("unexpected profile data: %+v", profile)
	}
}

func TestGoogleExchangeMissingSubjectIsFatal(t *testing.T) {
	mock := newMockProviderServer()
	defer mock.Close()
	mock.userInfoResponse = map[string]any{"email": "user@example.com"}

	if _, err := testGoogleProvider(mock).Exchange(context.Background(), "auth-code", ""); !errors.Is(err, oauth2.ErrProfileFetch) {
		t.Errorf("expected ErrProfileFetch, got %v", err)
	}
}

func TestGoogleExchangeFailures(t *testing.T) {
	t.Run("token endpoint failure", func(t *testing.T) {
		mock := newMockProviderServer()
		defer mock.Close()
		mock.tokenError = true

		if _, err := testGoogleProvider(mock).Exchange(context.Background(), "auth-code", ""); !errors.Is(err, oauth2.ErrExchangeFailed) {
			t.Errorf("expected ErrExchangeFailed, got %v", err)
		}
	})

	t.Run("userinfo endpoint failure", func(t *testing.T) {
		mock := newMockProviderServer()
		defer mock.Close()
		mock.userInfoError = true

		if _, err := testGoogleProvider(mock).Exchange(context.Background(), "auth-code", ""); !errors.Is(err, oauth2.ErrProfileFetch) {
			t.Errorf("expected ErrProfileFetch, got %v", err)
		}
	})
}

func TestGithubExchange(t *testing.T) {
	mock := newMockProviderServer()
	defer mock.Close()
	mock.userInfoResponse = map[string]any{
		"id":    float64(42),
		"email": "gh@example.com",
		"name":  "GH User",
		"login": "ghuser",
	}

	profile, err := testGithubProvider(mock).Exchange(context.Background(), "auth-code", "")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if profile.Provider != "github" || profile.ProviderID != "42" {
		t.Errorf("unexpected profile identity: %+v", profile)
	}
	if profile.Email != "gh@example.com" {
		t.Errorf("email = %q", profile.Email)
	}
}

func TestGithubExchangeEmailFallback(t *testing.T) {
	mock := newMockProviderServer()
	defer mock.Close()
	mock.userInfoResponse = map[string]any{
		"id":    float64(42),
		"login": "ghuser",
	}
	mock.emailsResponse = []map[string]any{
		{"email": "secondary@example.com", "primary": false, "verified": true},
		{"email": "unverified@example.com", "primary": true, "verified": false},
		{"email": "primary@example.com", "primary": true, "verified": true},
	}

	profile, err := testGithubProvider(mock).Exchange(context.Background(), "auth-code", "")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if profile.Email != "primary@example.com" {
		t.Errorf("email = %q, want primary verified entry", profile.Email)
	}
	if profile.Name != "ghuser" {
		t.Errorf("name = %q, want login fallback", profile.Name)
	}
}

func TestGithubExchangeNoUsableEmail(t *testing.T) {
	mock := newMockProviderServer()
	defer mock.Close()
	mock.userInfoResponse = map[string]any{"id": float64(42), "login": "ghuser"}
	mock.emailsResponse = []map[string]any{
		{"email": "unverified@example.com", "primary": true, "verified": false},
	}

	profile, err := testGithubProvider(mock).Exchange(context.Background(), "auth-code", "")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	// An email-less profile is not fatal here; rejecting it is the account
	// layer's call.
	if profile.Email != "" {
		t.Errorf("email = %q, want empty", profile.Email)
	}
}

func TestExchangerValidatesStateFirst(t *testing.T) {
	mock := newMockProviderServer()
	defer mock.Close()
	mock.userInfoResponse = map[string]any{"sub": "s", "email": "e@x.com"}

	guard := oauth2.NewStateGuard("test-secret", 10*time.Minute)
	exchanger := oauth2.NewExchanger(guard, testGoogleProvider(mock))

	if _, err := exchanger.Exchange(context.Background(), "google", "code", "garbage", ""); !errors.Is(err, oauth2.ErrStateFormat) {
		t.Errorf("expected ErrStateFormat, got %v", err)
	}

	state, err := guard.Generate()
	if err != nil {
		t.Fatal(err)
	}
	profile, err := exchanger.Exchange(context.Background(), "google", "code", state, "")
	if err != nil {
		t.Fatalf("exchange with valid state failed: %v", err)
	}
	if profile.ProviderID != "s" {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestExchangerUnknownProvider(t *testing.T) {
	guard := oauth2.NewStateGuard("test-secret", 10*time.Minute)
	exchanger := oauth2.NewExchanger(guard)

	if _, _, err := exchanger.AuthorizationURL("gitlab", ""); !errors.Is(err, oauth2.ErrUnknownProvider) {
		t.Errorf("AuthorizationURL: expected ErrUnknownProvider, got %v", err)
	}

	state, _ := guard.Generate()
	if _, err := exchanger.Exchange(context.Background(), "gitlab", "code", state, ""); !errors.Is(err, oauth2.ErrUnknownProvider) {
		t.Errorf("Exchange: expected ErrUnknownProvider, got %v", err)
	}
}

func TestExchangerAuthorizationURLCarriesState(t *testing.T) {
	guard := oauth2.NewStateGuard("test-secret", 10*time.Minute)
	exchanger := oauth2.NewExchanger(guard,
		oauth2.NewGoogleProvider("id", "secret", "http://localhost/cb"))

	rawURL, state, err := exchanger.AuthorizationURL("google", "")
	if err != nil {
		t.Fatalf("AuthorizationURL failed: %v", err)
	}
	if err := guard.Validate(state); err != nil {
		t.Errorf("returned state does not validate: %v", err)
	}
	parsed, _ := url.Parse(rawURL)
	if parsed.Query().Get("state") != state {
		t.Errorf("url state %q != returned state %q", parsed.Query().Get("state"), state)
	}
}
