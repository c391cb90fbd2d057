package http

import (
	"context"
	"net/http"
	"strings"

	"eduauth/internal/authz"
	"eduauth/internal/domain"
	"eduauth/internal/service"
)

type ctxKey string

const (
	ctxKeySessionID ctxKey = "session_id"
	ctxKeyUserID    ctxKey = "user_id"
)

// WithAccessToken authenticates the request's bearer token and stashes the
// bound session and user ids. Requests without a valid token are rejected
// before any handler runs.
func WithAccessToken(tokens service.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			sessionID, userID, err := tokens.ParseAccess(strings.TrimSpace(token))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeySessionID, sessionID)
			ctx = context.WithValue(ctx, ctxKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require guards a route with a permission evaluator. The evaluator decides;
// this middleware only maps the decision: denial is forbidden, a missing
// session is unauthorized.
func Require(evaluator authz.Evaluator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, ok := SessionIDFromContext(r.Context())
			if !ok {
				http.Error(w, "not authenticated", http.StatusUnauthorized)
				return
			}
			allowed, err := evaluator.Evaluate(r.Context(), sessionID)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if !allowed {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func SessionIDFromContext(ctx context.Context) (domain.SessionID, bool) {
	v, ok := ctx.Value(ctxKeySessionID).(domain.SessionID)
	return v, ok
}

func UserIDFromContext(ctx context.Context) (domain.UserID, bool) {
	v, ok := ctx.Value(ctxKeyUserID).(domain.UserID)
	return v, ok
}
