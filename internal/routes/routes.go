package routes

import (
	"io/fs"
	"net/http"

	"github.com/theoryboard/theoryboard/assets"
	"github.com/theoryboard/theoryboard/internal/app"
	"github.com/theoryboard/theoryboard/internal/handler"
	"github.com/theoryboard/theoryboard/internal/metrics"
	"github.com/theoryboard/theoryboard/internal/middleware"
)

// SetupRoutes builds the handler tree. The returned stop func ends the rate
// limiters' cleanup goroutines.
func SetupRoutes(app *app.App) (http.Handler, func()) {
	// Handlers
	home := handler.NewHomeHandler()
	seo := handler.NewSEOHandler()
	auth := handler.NewAuthHandler(app.AuthService, app.Sessions, app.Cfg)
	feed := handler.NewFeedHandler(app.FeedService)
	theory := handler.NewTheoryHandler(app.SubmissionService, app.Cfg.UploadMaxBytes)
	profile := handler.NewProfileHandler(app.ProfileService, app.Fallback, app.Cfg.UploadMaxBytes)
	events := handler.NewEventsHandler(app.Sessions)

	authLimiter := middleware.NewAuthRateLimiter()
	uploadLimiter := middleware.NewUploadRateLimiter()
	stop := func() {
		authLimiter.Stop()
		uploadLimiter.Stop()
	}

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	// Static files
	sub, _ := fs.Sub(assets.AssetsFS, ".")
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(sub))))
	mux.HandleFunc("GET /default-avatar.png", home.DefaultAvatar)
	mux.HandleFunc("GET /robots.txt", seo.Robots)

	// Operations
	mux.HandleFunc("GET /healthz", home.Healthz)
	mux.Handle("GET /metrics", metrics.Handler(app.Registry))

	// Home
	mux.HandleFunc("GET /{$}", home.HomePage)

	// Auth (rate limited per IP)
	mux.HandleFunc("GET /login", middleware.RequireGuest(auth.LoginPage))
	mux.HandleFunc("POST /login", authLimiter.ByIP(middleware.RequireGuest(auth.Login)))
	mux.HandleFunc("POST /signup", authLimiter.ByIP(middleware.RequireGuest(auth.SignUp)))
	mux.HandleFunc("POST /logout", auth.Logout)

	// OAuth
	if app.Cfg.GoogleEnabled() {
		mux.HandleFunc("GET /auth/google", authLimiter.ByIP(middleware.RequireGuest(auth.GoogleAuth)))
		mux.HandleFunc("GET /auth/google/callback", authLimiter.ByIP(auth.GoogleCallback))
	}
	if app.Cfg.GitHubEnabled() {
		mux.HandleFunc("GET /auth/github", authLimiter.ByIP(middleware.RequireGuest(auth.GitHubAuth)))
		mux.HandleFunc("GET /auth/github/callback", authLimiter.ByIP(auth.GitHubCallback))
	}

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	mux.HandleFunc("GET /feed", middleware.RequireAuth(feed.FeedPage))
	mux.HandleFunc("GET /theories/new", middleware.RequireAuth(theory.NewTheoryPage))
	mux.HandleFunc("POST /theories", middleware.RequireAuth(uploadLimiter.ByUser(theory.Submit)))
	mux.HandleFunc("GET /profile", middleware.RequireAuth(profile.ProfilePage))
	mux.HandleFunc("POST /profile", middleware.RequireAuth(uploadLimiter.ByUser(profile.UpdateProfile)))
	mux.HandleFunc("GET /session/events", middleware.RequireAuth(events.SessionEvents))

	// Blob endpoint, only when this instance owns a bucket
	if app.FileService != nil {
		upload := handler.NewUploadHandler(app.FileService, app.Cfg.UploadMaxBytes, app.Cfg.UploadToken)
		mux.HandleFunc("POST /api/upload", uploadLimiter.ByUser(upload.Upload))
	}

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", home.NotFoundPage)

	// Global middleware - executed in order (top to bottom)
	h := middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (needed by SecurityHeaders for S3 endpoint)
		middleware.NonceMiddleware, // Must run before SecurityHeaders
		middleware.SecurityHeaders,
		middleware.RequestLogging,
		middleware.RequestMetrics(app.Metrics),
		middleware.CSRFProtection,
		middleware.AuthMiddleware(app.Sessions, app.ProfileService),
		middleware.WithURLPath,
	)

	return h, stop
}
