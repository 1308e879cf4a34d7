// Package router sets up all HTTP routes and middleware chains for the
// otpgate server. Authentication and admin routes sit behind the shared
// application key; the auth flow is additionally rate limited per IP.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"otpgate/internal/handlers"
	"otpgate/internal/middleware"
)

// Options carries the perimeter configuration for the router.
type Options struct {
	SharedKey  string
	CORSOrigin string

	// AuthRateLimit is the max auth requests per IP per minute.
	// Zero disables rate limiting (tests).
	AuthRateLimit int
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(auth *handlers.Auth, admin *handlers.Admin, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(opts.CORSOrigin))

	// Health check — no shared key.
	r.Get("/health", healthHandler)

	// Authentication flow — shared key + per-IP rate limit.
	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.SharedKey(opts.SharedKey))
		if opts.AuthRateLimit > 0 {
			rl := middleware.NewRateLimiter(opts.AuthRateLimit, time.Minute)
			r.Use(rl.Middleware)
		}

		r.Post("/login", auth.Login)
		r.Post("/verify-otp", auth.VerifyOTP)
		r.Get("/cache-diagnosis", auth.CacheDiagnostics)
	})

	// Administrative user management — shared key only.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.SharedKey(opts.SharedKey))

		r.Get("/users", admin.UsersList)
		r.Post("/create-user", admin.UserCreate)
		r.Patch("/update-user/{email}", admin.UserUpdate)
		r.Delete("/delete-user/{email}", admin.UserDelete)
		r.Patch("/reset-user/{email}", admin.UserReset)
		r.Get("/logs", admin.LogsList)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
