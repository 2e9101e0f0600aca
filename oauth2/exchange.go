package oauth2

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownProvider is returned for provider names no strategy is
// registered under.
var ErrUnknownProvider = errors.New("unsupported oauth provider")

// Exchanger owns the provider strategies and the state guard. It is the
// single entry point for the authorization-redirect round trip: mint a state
// with AuthorizationURL, validate it again in Exchange.
type Exchanger struct {
	states    *StateGuard
	providers map[string]Provider
}

// NewExchanger registers the given providers under their names.
func NewExchanger(states *StateGuard, providers ...Provider) *Exchanger {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Exchanger{states: states, providers: byName}
}

func (e *Exchanger) provider(name string) (Provider, error) {
	p, ok := e.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// AuthorizationURL mints a state token and builds the provider's
// authorization URL carrying it. Both are returned so the caller can
// round-trip the state through the redirect.
func (e *Exchanger) AuthorizationURL(provider, redirectOverride string) (url, state string, err error) {
	p, err := e.provider(provider)
	if err != nil {
		return "", "", err
	}
	state, err = e.states.Generate()
	if err != nil {
		return "", "", err
	}
	url, err = p.AuthCodeURL(state, redirectOverride)
	if err != nil {
		return "", "", err
	}
	return url, state, nil
}

// Exchange validates the state token first, propagating its failure
// unchanged, then trades the authorization code for a normalized profile.
func (e *Exchanger) Exchange(ctx context.Context, provider, code, state, redirectOverride string) (*Profile, error) {
	if err := e.states.Validate(state); err != nil {
		return nil, err
	}
	p, err := e.provider(provider)
	if err != nil {
		return nil, err
	}
	return p.Exchange(ctx, code, redirectOverride)
}
