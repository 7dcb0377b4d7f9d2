package web

import (
	"context"
	"crypto/rand"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"shuttleclub/internal/adapters/email"
	"shuttleclub/internal/adapters/http/middleware"
	"shuttleclub/internal/adapters/metrics"
	memberStore "shuttleclub/internal/adapters/storage/member"
	"shuttleclub/internal/domain/member"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var embeddedStatic embed.FS

// Stores holds all storage dependencies.
type Stores struct {
	MemberStore memberStore.Store
}

// Config carries the HTTP surface settings resolved from configuration.
type Config struct {
	StaticDir          string // optional: empty serves the embedded assets
	ImageBaseURL       string
	CSRFKey            []byte // 32 bytes
	SecureCookies      bool
	TrustedOrigins     []string
	RateLimitPerSecond int
	SlowRequest        time.Duration
	Admin              middleware.AdminCredentials
	Mailer             email.Sender // optional
	NotifyTo           []string
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global settings (set by NewMux)
var appConfig Config

// Global metrics recorder (set by NewMux); nil records nothing
var recorder *metrics.Recorder

// registrationValidator is shared by every request; it holds no per-call state.
var registrationValidator = member.NewValidator()

// DecodeCSRFKey parses the hex-encoded CSRF secret. An empty value yields a
// random key unless production is true.
func DecodeCSRFKey(keyHex string, production bool) ([]byte, error) {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, errors.New("csrf_key must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if production {
		return nil, errors.New("csrf_key is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	slog.Warn("csrf_key_random", "detail", "forms issued before a restart will be rejected; set csrf_key for production")
	return key, nil
}

// NewMux wires HTTP handlers for the app. The rate limiter's sweeper stops
// when ctx is cancelled.
func NewMux(ctx context.Context, cfg Config, s *Stores, rec *metrics.Recorder) http.Handler {
	stores = s
	appConfig = cfg
	recorder = rec
	if appConfig.RateLimitPerSecond <= 0 {
		appConfig.RateLimitPerSecond = 10
	}

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(ctx, appConfig.RateLimitPerSecond, time.Second)

	// Apply middleware: RequestID -> Timing -> RateLimit -> SecurityHeaders -> CSRF -> Mux
	return middleware.Chain(mux,
		middleware.CSRF(cfg.CSRFKey, middleware.CSRFOptions{
			Secure:         cfg.SecureCookies,
			TrustedOrigins: cfg.TrustedOrigins,
			ErrorHandler:   http.HandlerFunc(handleCSRFFailure),
		}),
		middleware.SecurityHeaders,
		middleware.RateLimit(limiter),
		middleware.Timing(rec, cfg.SlowRequest, mux),
		middleware.RequestID,
	)
}

// staticFS returns the configured asset directory or the embedded assets.
func staticFS() fs.FS {
	if appConfig.StaticDir != "" {
		return os.DirFS(appConfig.StaticDir)
	}
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// registerRoutes binds every route to its handler.
func registerRoutes(mux *http.ServeMux) {
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS())))

	mux.HandleFunc("GET /{$}", handleHome)
	mux.HandleFunc("GET /search", handleSearch)
	mux.HandleFunc("GET /member/{id}", handleMember)
	mux.HandleFunc("GET /member-registration", handleRegistrationForm)
	mux.HandleFunc("POST /member-registration", handleRegistrationSubmit)

	mux.HandleFunc("POST /api/registration/validate", handleValidate)
	mux.HandleFunc("GET /api/members", handleAPIListMembers)
	mux.HandleFunc("GET /api/members/{id}", handleAPIGetMember)
	admin := middleware.RequireAdmin(appConfig.Admin)
	mux.Handle("PUT /api/members/{id}", admin(http.HandlerFunc(handleAPIUpdateMember)))
	mux.Handle("DELETE /api/members/{id}", admin(http.HandlerFunc(handleAPIDeleteMember)))

	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.Handle("GET /metrics", recorder.Handler())

	mux.HandleFunc("/", handleNotFound)
}
