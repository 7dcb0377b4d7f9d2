package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const adminContextKey contextKey = "admin"

// AdminCredentials identifies the single directory administrator.
// An empty PasswordHash disables the admin API.
type AdminCredentials struct {
	User         string
	PasswordHash []byte // bcrypt
}

// Enabled reports whether admin requests can ever succeed.
func (c AdminCredentials) Enabled() bool {
	return c.User != "" && len(c.PasswordHash) > 0
}

// verify checks a Basic-auth pair against the credentials.
func (c AdminCredentials) verify(user, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(c.User)) == 1
	passOK := bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(password)) == nil
	return userOK && passOK
}

// RequireAdmin returns middleware that admits only requests carrying the
// administrator's HTTP Basic credentials.
func RequireAdmin(creds AdminCredentials) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !creds.Enabled() {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			user, password, ok := r.BasicAuth()
			if !ok || !creds.verify(user, password) {
				if ok {
					slog.Warn("admin_auth_failed", "user", user, "ip", clientIP(r))
				}
				w.Header().Set("WWW-Authenticate", `Basic realm="club-admin", charset="UTF-8"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminContextKey, user)))
		})
	}
}

// AdminFromContext returns the authenticated admin user name, if any.
func AdminFromContext(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(adminContextKey).(string)
	return user, ok
}

// HashPassword returns the bcrypt hash stored in admin_password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
