package oauth2

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestStateRoundTrip(t *testing.T) {
	guard := NewStateGuard("test-secret", 10*time.Minute)

	state, err := guard.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if parts := strings.Split(state, ":"); len(parts) != 3 {
		t.Fatalf("expected nonce:timestamp:signature, got %q", state)
	}
	if err := guard.Validate(state); err != nil {
		t.Errorf("fresh state failed validation: %v", err)
	}
}

func TestStateRejectsTamperedSignature(t *testing.T) {
	guard := NewStateGuard("test-secret", 10*time.Minute)

	state, err := guard.Generate()
	if err != nil {
		t.Fatal(err)
	}

	// Flip the last signature byte.
	tampered := []byte(state)
	last := len(tampered) - 1
	if tampered[last] == 'a' {
		tampered[last] = 'b'
	} else {
		tampered[last] = 'a'
	}

	if err := guard.Validate(string(tampered)); !errors.Is(err, ErrStateSignature) {
		t.Errorf("expected ErrStateSignature, got %v", err)
	}
}

func TestStateRejectsWrongSecret(t *testing.T) {
	state, err := NewStateGuard("secret-one", 10*time.Minute).Generate()
	if err != nil {
		t.Fatal(err)
	}
	if err := NewStateGuard("secret-two", 10*time.Minute).Validate(state); !errors.Is(err, ErrStateSignature) {
		t.Errorf("expected ErrStateSignature, got %v", err)
	}
}

func TestStateExpires(t *testing.T) {
	guard := NewStateGuard("test-secret", 10*time.Minute)

	state, err := guard.Generate()
	if err != nil {
		t.Fatal(err)
	}

	// Advance the guard's clock past the TTL; the signature is still
	// correct, only freshness fails.
	guard.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	if err := guard.Validate(state); !errors.Is(err, ErrStateExpired) {
		t.Errorf("expected ErrStateExpired, got %v", err)
	}
}

func TestStateRejectsMalformedTokens(t *testing.T) {
	guard := NewStateGuard("test-secret", 10*time.Minute)

	tests := []struct {
		name  string
		state string
	}{
		{"empty", ""},
		{"one part", "nonce"},
		{"two parts", "nonce:12345"},
		{"four parts", "nonce:12345:sig:extra"},
		{"non-numeric timestamp", "nonce:notanumber:sig"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := guard.Validate(tt.state); !errors.Is(err, ErrStateFormat) {
				t.Errorf("Validate(%q): expected ErrStateFormat, got %v", tt.state, err)
			}
		})
	}
}
