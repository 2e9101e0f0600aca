// Package grpc provides server interceptors that authenticate requests by
// verifying the bearer access token carried in request metadata.
package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

// DefaultMetadataKeyAuthorization is the metadata key the interceptors read
// the bearer token from.
const DefaultMetadataKeyAuthorization = "authorization"

type subjectContextKey struct{}

// Config holds the metadata key configuration for the auth interceptors.
type Config struct {
	// MetadataKeyAuthorization is the gRPC metadata key carrying the bearer
	// token. Defaults to "authorization".
	MetadataKeyAuthorization string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{MetadataKeyAuthorization: DefaultMetadataKeyAuthorization}
}

// EnsureDefaults fills in default values for any unset fields.
func (c *Config) EnsureDefaults() {
	if c.MetadataKeyAuthorization == "" {
		c.MetadataKeyAuthorization = DefaultMetadataKeyAuthorization
	}
}

// SubjectFromContext extracts the authenticated subject (the account email)
// placed in the context by the interceptors. Returns "" when the request was
// not authenticated.
func SubjectFromContext(ctx context.Context) string {
	if subject, ok := ctx.Value(subjectContextKey{}).(string); ok {
		return subject
	}
	return ""
}

// ContextWithSubject returns a context carrying the authenticated subject.
func ContextWithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, subject)
}

// IsAuthenticated returns true if there is an authenticated subject in the context.
func IsAuthenticated(ctx context.Context) bool {
	return SubjectFromContext(ctx) != ""
}

// bearerToken extracts the bearer token from incoming metadata. Returns ""
// when the header is absent or not a bearer credential.
func bearerToken(ctx context.Context, config *Config) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(config.MetadataKeyAuthorization)
	if len(values) == 0 {
		return ""
	}
	value := strings.TrimSpace(values[0])
	if len(value) > 7 && strings.EqualFold(value[:7], "bearer ") {
		return strings.TrimSpace(value[7:])
	}
	return ""
}
