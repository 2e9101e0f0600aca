package gatekey

import (
	"context"
	"net/http"
	"strings"
)

type subjectContextKey struct{}

// Middleware authenticates HTTP requests by verifying the bearer token in
// the Authorization header. No sessions or cookies are involved; the token
// itself is the only credential.
type Middleware struct {
	// AuthTokenHeaderName defaults to "Authorization".
	AuthTokenHeaderName string

	// VerifyToken validates a token and returns its subject.
	// TokenIssuer.Parse satisfies this signature.
	VerifyToken func(tokenString string) (subject string, err error)
}

func (m *Middleware) headerName() string {
	if m.AuthTokenHeaderName == "" {
		return "Authorization"
	}
	return m.AuthTokenHeaderName
}

// SubjectFromRequest returns the authenticated subject for the request, or
// "" when the request carries no valid bearer token.
func (m *Middleware) SubjectFromRequest(r *http.Request) string {
	if subject, ok := r.Context().Value(subjectContextKey{}).(string); ok && subject != "" {
		return subject
	}

	value := strings.TrimSpace(r.Header.Get(m.headerName()))
	if len(value) <= 7 || !strings.EqualFold(value[:7], "bearer ") {
		return ""
	}
	if m.VerifyToken == nil {
		return ""
	}
	subject, err := m.VerifyToken(strings.TrimSpace(value[7:]))
	if err != nil {
		return ""
	}
	return subject
}

// RequireAuth wraps a handler, rejecting requests without a valid bearer
// token and exposing the subject to downstream handlers via the context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := m.SubjectFromRequest(r)
		if subject == "" {
			http.Error(w, `{"error": "authentication required"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), subjectContextKey{}, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SubjectFromContext extracts the subject stored by RequireAuth.
func SubjectFromContext(ctx context.Context) string {
	if subject, ok := ctx.Value(subjectContextKey{}).(string); ok {
		return subject
	}
	return ""
}
