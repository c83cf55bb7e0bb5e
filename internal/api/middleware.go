package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medbook/clinic-api/internal/auth"
	"github.com/medbook/clinic-api/internal/i18n"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	adminUserKey contextKey = "admin_user"
)

// RequestIDMiddleware adds a unique request ID to each request context.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// LoggingMiddleware logs each request with method, path, status and duration.
func LoggingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", GetRequestID(r.Context())))
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// TokenVerifier validates a bearer token and resolves the admin behind it.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*auth.AdminUser, error)
}

// RequireAdmin rejects requests without a valid bearer token and stores the
// authenticated admin in the request context.
func RequireAdmin(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := langFrom(r)

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", i18n.T(lang, i18n.KeyAuthUnauthorized))
				return
			}

			user, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", i18n.T(lang, i18n.KeyAuthUnauthorized))
				return
			}

			ctx := context.WithValue(r.Context(), adminUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminFrom returns the authenticated admin stored by RequireAdmin.
func AdminFrom(ctx context.Context) *auth.AdminUser {
	user, _ := ctx.Value(adminUserKey).(*auth.AdminUser)
	return user
}

// langFrom picks the response language from the lang query parameter, falling
// back to the Accept-Language header and then English.
func langFrom(r *http.Request) i18n.Lang {
	if q := r.URL.Query().Get("lang"); q != "" {
		return i18n.ParseLang(q)
	}
	if header := r.Header.Get("Accept-Language"); header != "" {
		code, _, _ := strings.Cut(header, ",")
		code, _, _ = strings.Cut(strings.TrimSpace(code), "-")
		return i18n.ParseLang(code)
	}
	return i18n.LangEn
}
