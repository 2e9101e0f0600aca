// Package oauth2 implements federated login against third-party identity
// providers: signed anti-CSRF state tokens, per-provider authorization URLs,
// and the code-for-profile exchange.
package oauth2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	oauth2lib "golang.org/x/oauth2"
)

// Provider-level failures.
var (
	ErrNotConfigured  = errors.New("oauth provider not configured")
	ErrExchangeFailed = errors.New("oauth code exchange failed")
	ErrProfileFetch   = errors.New("oauth profile fetch failed")
)

// Profile is the normalized result of a successful provider exchange. It
// lives only for the duration of one federated login call.
type Profile struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
}

// Provider is the per-provider exchange strategy. Each implementation owns
// its endpoint dialect; the shared state validation lives in Exchanger so
// adding a provider never touches it.
type Provider interface {
	Name() string

	// AuthCodeURL builds the provider's authorization endpoint URL carrying
	// the given state. redirectOverride, when non-empty, replaces the
	// configured redirect URI.
	AuthCodeURL(state, redirectOverride string) (string, error)

	// Exchange trades an authorization code for a normalized profile.
	Exchange(ctx context.Context, code, redirectOverride string) (*Profile, error)
}

// exchangeContext returns a context that routes x/oauth2's token request
// through the given client when one is set. Tests inject an httptest client
// this way.
func exchangeContext(ctx context.Context, client *http.Client) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2lib.HTTPClient, client)
}

// fetchJSON performs an authorized GET against a provider endpoint and
// decodes the JSON response into out. Any non-2xx response is an error.
func fetchJSON(ctx context.Context, client *http.Client, url, accessToken, accept string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
