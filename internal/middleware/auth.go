package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/onnwee/skillmatch/internal/auth"
)

// AccessTokenValidator resolves a bearer token to the user id it was issued for.
type AccessTokenValidator interface {
	ValidateAccessToken(token string) (string, error)
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "expired"
	case errors.Is(err, auth.ErrWrongTokenType):
		return "wrong_type"
	default:
		return "invalid"
	}
}

// RequireAuth rejects requests without a valid access token with 401 and
// the auth_failed error envelope. On success the token subject is stored
// with SetUserID. metrics may be nil.
func RequireAuth(validator AccessTokenValidator, metrics *Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				if metrics != nil {
					metrics.IncAuthFailures("missing")
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="skillmatch"`)
				writeError(w, r.Context(), http.StatusUnauthorized, ErrCodeAuthFailed, "Missing bearer token")
				return
			}

			userID, err := validator.ValidateAccessToken(token)
			if err != nil {
				reason := authFailureReason(err)
				if metrics != nil {
					metrics.IncAuthFailures(reason)
				}
				logger.DebugContext(r.Context(), "bearer token rejected", "reason", reason)
				w.Header().Set("WWW-Authenticate", `Bearer realm="skillmatch", error="invalid_token"`)
				writeError(w, r.Context(), http.StatusUnauthorized, ErrCodeAuthFailed, "Invalid or expired token")
				return
			}

			ctx := SetUserID(r.Context(), userID)
			UpdateResponseContext(w, ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
