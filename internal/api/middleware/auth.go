package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/climatlas/climatlas/internal/api/models"
)

// subjectKey is the context key for the authenticated subject.
type subjectKey struct{}

// TokenValidator validates a bearer token and returns its subject.
type TokenValidator interface {
	Validate(tokenString string) (string, error)
}

// Auth returns a middleware that requires a valid bearer token on every
// request it wraps.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			header := r.Header.Get("Authorization")
			if header == "" {
				problem := models.NewUnauthorized(requestID, "missing Authorization header")
				problem.Instance = r.URL.Path
				problem.Write(w)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				problem := models.NewUnauthorized(requestID, "Authorization header must use the Bearer scheme")
				problem.Instance = r.URL.Path
				problem.Write(w)
				return
			}

			subject, err := validator.Validate(token)
			if err != nil {
				problem := models.NewUnauthorized(requestID, "invalid or expired token")
				problem.Instance = r.URL.Path
				problem.Write(w)
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey{}, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject retrieves the authenticated subject from the context.
func GetSubject(ctx context.Context) string {
	if subject, ok := ctx.Value(subjectKey{}).(string); ok {
		return subject
	}
	return ""
}
