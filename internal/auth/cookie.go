package auth

import (
	"net/http"
	"time"
)

// CookieName is the session cookie carrying the signed token.
const CookieName = "token"

// SetSessionCookie attaches the token to the response. The frontend is served
// from a different origin, so the cookie must be SameSite=None and Secure;
// HttpOnly keeps it away from page scripts.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// ClearSessionCookie tells the client to discard the cookie immediately. The
// token itself is not revoked server-side; it simply ages out.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
