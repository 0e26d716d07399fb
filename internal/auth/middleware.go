package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type claimsKey struct{}

// RequireSession gates a protected handler. A missing cookie is rejected
// before business logic runs; a present but unverifiable token is rejected
// with 403. On success the decoded claims travel in the request context.
// The gate never touches the credential store: it trusts the token's
// embedded claims until they expire.
func RequireSession(issuer *Issuer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil || strings.TrimSpace(cookie.Value) == "" {
			writeError(w, http.StatusUnauthorized, "no token, authorization denied")
			return
		}

		claims, err := issuer.Verify(cookie.Value)
		if err != nil {
			writeError(w, http.StatusForbidden, "token is not valid")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext returns the identity attached by RequireSession.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(Claims)
	return claims, ok
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
