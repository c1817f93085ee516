package middleware

import (
	"context"
	"net/http"
	"strings"

	"clubdesk/internal/adapters/identitytoken"
	"clubdesk/internal/domain/identity"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "session"

// Session is the verified caller extracted from an identity token.
// Role, ClubID, and SuperAdmin reflect the claims at mint time; they
// go stale until the caller refreshes its token.
type Session struct {
	UserID     string
	Email      string
	Role       string
	ClubID     string
	SuperAdmin bool
}

const sessionCookieName = "clubdesk_token"

// SecureCookies controls the Secure attribute on session cookies.
// Set true in production.
var SecureCookies = false

// Auth returns middleware that verifies the identity token from the
// Authorization header or the session cookie and sets the session in
// context. It does NOT block unauthenticated requests; use
// RequireAuth for that.
func Auth(cfg identitytoken.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := extractToken(r); token != "" {
				if claims, err := identitytoken.Parse(token, cfg); err == nil {
					sess := Session{
						UserID:     claims.Subject,
						Email:      claims.Email,
						Role:       claims.Role,
						ClubID:     claims.ClubID,
						SuperAdmin: claims.SuperAdmin,
					}
					r = r.WithContext(context.WithValue(r.Context(), sessionContextKey, sess))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuth returns middleware that blocks unauthenticated requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(Session)
	return session, ok
}

// SetSessionCookie stores the identity token in the session cookie.
func SetSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   maxAge,
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// IsSuperAdminSession checks whether the session token carried the
// super_admin claim. Handlers still re-check against the stores for
// privileged writes; the token claim only gates UI affordances.
func IsSuperAdminSession(ctx context.Context) bool {
	session, ok := GetSessionFromContext(ctx)
	return ok && session.SuperAdmin
}

// IsClubAdminSession checks whether the session token carried an
// admin role bound to the given club.
func IsClubAdminSession(ctx context.Context, clubID string) bool {
	session, ok := GetSessionFromContext(ctx)
	if !ok {
		return false
	}
	if session.SuperAdmin {
		return true
	}
	return session.Role == identity.RoleAdmin && session.ClubID == clubID
}

// ContextWithSession returns a context with the given session set.
// Intended for use in tests.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}
