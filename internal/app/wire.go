package app

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/flipcoin/miniapp/internal/handler"
	"github.com/flipcoin/miniapp/internal/platform"
	"github.com/flipcoin/miniapp/internal/profile"
	"github.com/flipcoin/miniapp/internal/service"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Profile *profile.Manager
	Account *service.AccountService
	Games   *service.GameService
	Tasks   *service.TaskService
	Shop    *service.ShopService
	Logger  *slog.Logger

	ColorScheme    platform.ColorScheme
	AllowedOrigins []string
	HealthChecks   map[string]handler.HealthCheck
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger

	// Handlers
	profileHandler := handler.NewProfileHandler(deps.Profile, deps.Account)
	eventsHandler := handler.NewEventsHandler(deps.Profile, logger)
	gameHandler := handler.NewGameHandler(deps.Games)
	taskHandler := handler.NewTaskHandler(deps.Tasks)
	shopHandler := handler.NewShopHandler(deps.Shop)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORSWithOrigins(deps.AllowedOrigins...))
	r.Use(handler.JSONContentType)

	r.Get("/health", handler.HealthHandler(deps.HealthChecks))
	r.Get("/events", eventsHandler.Stream)
	r.Get("/theme", handler.ThemeHandler(deps.ColorScheme))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", profileHandler.Login)
		r.Post("/logout", profileHandler.Logout)
	})

	r.Route("/profile", func(r chi.Router) {
		r.Get("/", profileHandler.GetProfile)
		r.Patch("/", profileHandler.UpdateProfile)
		r.Post("/tokens", profileHandler.AddTokens)
		r.Post("/refresh", profileHandler.Refresh)
	})
	r.Post("/referral", profileHandler.ApplyReferral)

	r.Route("/games", func(r chi.Router) {
		r.Get("/limits", gameHandler.Limits)
		r.Get("/history", gameHandler.History)
		r.Post("/{game}/play", gameHandler.Play)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", taskHandler.List)
		r.Get("/completed", taskHandler.Completed)
		r.Post("/{id}/complete", taskHandler.Complete)
	})

	r.Route("/rewards", func(r chi.Router) {
		r.Get("/", shopHandler.Rewards)
		r.Get("/redeemed", shopHandler.Redeemed)
		r.Post("/{id}/redeem", shopHandler.Redeem)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Post("/", shopHandler.Purchase)
		r.Get("/packages", shopHandler.Packages)
		r.Get("/history", shopHandler.Payments)
	})

	return r
}
