package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freshoils/freshoils-backend/api/controllers"
	"github.com/freshoils/freshoils-backend/api/middleware"
	"github.com/freshoils/freshoils-backend/internal/accounts"
	"github.com/freshoils/freshoils-backend/internal/auth"
	"github.com/freshoils/freshoils-backend/internal/catalog"
	"github.com/freshoils/freshoils-backend/internal/orders"
	"github.com/freshoils/freshoils-backend/internal/otp"
	"github.com/freshoils/freshoils-backend/pkg/config"
	"github.com/freshoils/freshoils-backend/pkg/db"
	"github.com/freshoils/freshoils-backend/pkg/logger"
	"github.com/freshoils/freshoils-backend/pkg/metrics"
	"github.com/freshoils/freshoils-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface depends on.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              db.Pinger
	Redis           *redis.Client
	HTTPMetrics     *metrics.HTTPMetrics
	MetricsGatherer prometheus.Gatherer
	AuthService     auth.Service
	OTPService      otp.Service
	AccountsService accounts.Service
	CatalogService  catalog.Service
	OrdersService   orders.Service
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
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginPhoneLimit,
	)
	otpPolicy := middleware.NewAuthRateLimitPolicy(
		"otp",
		cfg.AuthRateLimit.OTPWindow,
		cfg.AuthRateLimit.OTPIPLimit,
		cfg.AuthRateLimit.OTPPhoneLimit,
	)

	var redisPinger db.Pinger
	if p.Redis != nil {
		redisPinger = p.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, redisPinger))
	})

	if p.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	// Public auth surface.
	r.Group(func(r chi.Router) {
		r.Post("/check-user", controllers.AuthCheckUser(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(otpPolicy, p.Redis, logg)).Post("/send-otp", controllers.SendOTP(p.OTPService, logg))
		r.With(middleware.AuthRateLimit(otpPolicy, p.Redis, logg)).Post("/verify-otp", controllers.VerifyOTP(p.OTPService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.AuthService, logg))
		r.Post("/token/refresh", controllers.AuthRefresh(p.AuthService, logg))
		r.Post("/reset-password", controllers.AuthResetPassword(p.AuthService, logg))
	})

	// Public catalog.
	r.Get("/products", controllers.ListProducts(p.CatalogService, logg))

	// Authenticated customer surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/profile", controllers.Profile(p.AccountsService, logg))
		r.Put("/profile", controllers.UpdateProfile(p.AccountsService, logg))
		r.Post("/change-password", controllers.ChangePassword(p.AccountsService, logg))

		r.Get("/orders", controllers.ListOrders(p.OrdersService, logg))
		r.Post("/orders", controllers.CreateOrder(p.OrdersService, logg))
	})

	// Back office.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireStaff(logg))

		r.Get("/analytics", controllers.AdminAnalytics(p.OrdersService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(p.OrdersService, logg))
			r.Patch("/{orderId}", controllers.AdminUpdateOrderStatus(p.OrdersService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(p.CatalogService, logg))
			r.Post("/", controllers.AdminCreateProduct(p.CatalogService, logg))
			r.Get("/{productId}", controllers.AdminGetProduct(p.CatalogService, logg))
			r.Put("/{productId}", controllers.AdminReplaceProduct(p.CatalogService, logg))
			r.Patch("/{productId}", controllers.AdminPatchProduct(p.CatalogService, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(p.CatalogService, logg))
		})
	})

	return r
}
