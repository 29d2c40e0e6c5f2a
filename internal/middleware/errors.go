package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes written by middleware. The api package re-exports them.
const (
	ErrCodeAuthFailed        = "auth_failed"
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeError writes the {"error": {"code", "message"}} envelope and makes
// the code visible to the Logging middleware.
func writeError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	UpdateResponseContext(w, SetErrorCode(ctx, code))

	var body errorBody
	body.Error.Code = code
	body.Error.Message = message

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}
