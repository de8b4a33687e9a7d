package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/traceline/pkg/jwtx"
	"github.com/aussiebroadwan/traceline/pkg/slogx"
)

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyScopes ctxKey = "scopes"
	CtxKeyClaims ctxKey = "claims"
)

// AuthnMiddleware verifies the bearer token on the request and stores the
// subject, scopes and claims in the request context.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="traceline"`)
				writeError(w, http.StatusUnauthorized, "invalid_token", "Missing bearer token")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				slogx.FromContext(r.Context()).Debug("token rejected", "error", err)
				w.Header().Set("WWW-Authenticate", `Bearer realm="traceline", error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, "invalid_token", "Token is invalid or expired")
				return
			}

			ctx := context.WithValue(r.Context(), CtxKeyUserID, claims.Subject)
			ctx = context.WithValue(ctx, CtxKeyScopes, claims.Scopes)
			ctx = context.WithValue(ctx, CtxKeyClaims, claims)

			logger := slogx.FromContext(ctx).With("subject", claims.Subject)
			ctx = slogx.WithContext(ctx, logger)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAnyScope rejects requests whose token carries none of the scopes.
// Must run after AuthnMiddleware.
func RequireAnyScope(scopes ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(CtxKeyClaims).(jwtx.Claims)
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid_token", "Missing authentication")
				return
			}
			if !claims.HasAnyScope(scopes...) {
				writeError(w, http.StatusForbidden, "insufficient_scope",
					"Requires one of: "+strings.Join(scopes, " "))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
