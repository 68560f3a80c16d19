package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trustpoints/trustpoints-backend/api/controllers"
	"github.com/trustpoints/trustpoints-backend/api/middleware"
	"github.com/trustpoints/trustpoints-backend/internal/activity"
	"github.com/trustpoints/trustpoints-backend/internal/auth"
	"github.com/trustpoints/trustpoints-backend/internal/orders"
	"github.com/trustpoints/trustpoints-backend/internal/wallet"
	"github.com/trustpoints/trustpoints-backend/pkg/config"
	"github.com/trustpoints/trustpoints-backend/pkg/db"
	"github.com/trustpoints/trustpoints-backend/pkg/logger"
	"github.com/trustpoints/trustpoints-backend/pkg/metrics"
	"github.com/trustpoints/trustpoints-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis *redis.Client

	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler

	AuthService     auth.Service
	OrdersService   orders.Service
	WalletService   wallet.Service
	ActivityService activity.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	// a typed-nil *redis.Client must become an untyped nil interface, or the
	// middlewares would treat it as a live store
	var idemStore redis.IdempotencyStore
	var limiterStore middleware.RateLimiterStore
	if p.Redis != nil {
		idemStore = p.Redis
		limiterStore = p.Redis
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.MetricsHandler != nil {
		r.Handle("/metrics", p.MetricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiterStore, logg)).
			Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, limiterStore, logg),
			middleware.Idempotency(idemStore, logg),
		).Post("/register", controllers.AuthRegister(p.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(p.OrdersService, logg))
			r.Post("/estimate", controllers.OrderEstimate(p.OrdersService, logg))
			r.Get("/categories", controllers.ItemCategories())
			r.Get("/available", controllers.OrdersAvailable(p.OrdersService, logg))
			r.Get("/nearby", controllers.OrdersNearby(p.OrdersService, logg))
			r.Get("/mine", controllers.OrdersMine(p.OrdersService, logg))
			r.Get("/deliveries", controllers.OrdersDeliveries(p.OrdersService, logg))
			r.Get("/{orderID}", controllers.OrderDetail(p.OrdersService, logg))
			r.Put("/{orderID}/claim", controllers.OrderClaim(p.OrdersService, logg))
			r.Put("/{orderID}/pickup", controllers.OrderPickup(p.OrdersService, logg))
			r.Put("/{orderID}/deliver", controllers.OrderDeliver(p.OrdersService, logg))
			r.Put("/{orderID}/cancel", controllers.OrderCancel(p.OrdersService, logg))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/balance", controllers.WalletBalance(p.WalletService, logg))
			r.Get("/history", controllers.WalletHistory(p.WalletService, logg))
			r.Post("/transfer", controllers.WalletTransfer(p.WalletService, logg))
		})

		r.Get("/activity", controllers.ActivityFeed(p.ActivityService, logg))
	})

	return r
}
