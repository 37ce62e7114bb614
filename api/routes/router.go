package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/localmart-app/localmart-backend/api/controllers"
	"github.com/localmart-app/localmart-backend/api/middleware"
	"github.com/localmart-app/localmart-backend/internal/auth"
	"github.com/localmart-app/localmart-backend/internal/chat"
	"github.com/localmart-app/localmart-backend/internal/discounts"
	"github.com/localmart-app/localmart-backend/internal/earnings"
	"github.com/localmart-app/localmart-backend/internal/orders"
	"github.com/localmart-app/localmart-backend/internal/products"
	"github.com/localmart-app/localmart-backend/internal/timings"
	"github.com/localmart-app/localmart-backend/internal/vendors"
	"github.com/localmart-app/localmart-backend/pkg/auth/session"
	"github.com/localmart-app/localmart-backend/pkg/config"
	"github.com/localmart-app/localmart-backend/pkg/db"
	"github.com/localmart-app/localmart-backend/pkg/enums"
	"github.com/localmart-app/localmart-backend/pkg/logger"
	"github.com/localmart-app/localmart-backend/pkg/metrics"
	"github.com/localmart-app/localmart-backend/pkg/redis"
)

const (
	apiRateLimit       = 120
	apiRateLimitWindow = time.Minute
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBPinger    db.Pinger
	RedisPinger redis.Pinger
	Sessions    session.AccessSessionChecker
	Limiter     rateLimiter
	Idempotency redis.IdempotencyStore
	Metrics     *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer

	Auth      auth.Service
	Orders    orders.Service
	Products  products.Service
	Discounts discounts.Service
	Timings   timings.Service
	Vendors   vendors.Service
	Earnings  earnings.Service
	Chat      chat.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg),
		middleware.Metrics(d.Metrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DBPinger, d.RedisPinger))
	})

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/otp", controllers.AuthRequestOTP(d.Auth, logg))
		r.Post("/verify", controllers.AuthVerifyOTP(d.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(d.Auth, logg))
	})

	// public storefront reads
	r.Route("/api/v1/shops", func(r chi.Router) {
		r.Get("/{vendorId}", controllers.PublicVendorProfile(d.Vendors, logg))
		r.Get("/{vendorId}/products", controllers.VendorProducts(d.Products, logg))
		r.Get("/{vendorId}/timings", controllers.VendorTimings(d.Timings, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.Idempotency(d.Idempotency, logg))
		r.Use(middleware.RateLimit(d.Limiter, apiRateLimit, apiRateLimitWindow, logg))

		r.Route("/v1/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(d.Orders, logg))
			r.Get("/", controllers.CustomerOrders(d.Orders, logg))
			r.Get("/{orderId}/status", controllers.OrderStatus(d.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(d.Orders, logg))
			r.Get("/{orderId}/messages", controllers.ListOrderMessages(d.Chat, logg))
			r.Post("/{orderId}/messages", controllers.SendOrderMessage(d.Chat, logg))
		})

		r.Post("/v1/vendors/register", controllers.RegisterVendor(d.Vendors, logg))

		r.Route("/v1/vendor", func(r chi.Router) {
			r.Use(middleware.RequireVendor(logg))

			r.Get("/profile", controllers.VendorProfile(d.Vendors, logg))
			r.Patch("/profile", controllers.VendorUpdateProfile(d.Vendors, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.VendorOrders(d.Orders, logg))
				r.Get("/{orderId}/status", controllers.OrderStatus(d.Orders, logg))
				r.Post("/{orderId}/accept", controllers.VendorAcceptOrder(d.Orders, logg))
				r.Post("/{orderId}/reject", controllers.VendorRejectOrder(d.Orders, logg))
				r.Post("/{orderId}/preparing", controllers.VendorMarkPreparing(d.Orders, logg))
				r.Post("/{orderId}/ready", controllers.VendorMarkReady(d.Orders, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.VendorCreateProduct(d.Products, logg))
				r.Patch("/{productId}", controllers.VendorUpdateProduct(d.Products, logg))
				r.Delete("/{productId}", controllers.VendorArchiveProduct(d.Products, logg))
			})

			r.Route("/discounts", func(r chi.Router) {
				r.Get("/", controllers.VendorDiscounts(d.Discounts, logg))
				r.Post("/", controllers.VendorCreateDiscount(d.Discounts, logg))
				r.Patch("/{discountId}", controllers.VendorUpdateDiscount(d.Discounts, logg))
				r.Delete("/{discountId}", controllers.VendorDeactivateDiscount(d.Discounts, logg))
			})

			r.Put("/timings", controllers.VendorSetTimings(d.Timings, logg))

			r.Route("/earnings", func(r chi.Router) {
				r.Get("/", controllers.VendorEarnings(d.Earnings, logg))
				r.Get("/summary", controllers.VendorEarningsSummary(d.Earnings, logg))
			})
		})

		r.Route("/v1/agent", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.ActorRoleAgent, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AgentOrders(d.Orders, logg))
				r.Get("/queue", controllers.AgentQueue(d.Orders, logg))
				r.Get("/{orderId}/status", controllers.OrderStatus(d.Orders, logg))
				r.Post("/{orderId}/claim", controllers.AgentClaimOrder(d.Orders, logg))
				r.Post("/{orderId}/pickup", controllers.AgentPickupOrder(d.Orders, logg))
				r.Post("/{orderId}/start-delivery", controllers.AgentStartDelivery(d.Orders, logg))
				r.Post("/{orderId}/deliver", controllers.AgentDeliverOrder(d.Orders, logg))
			})
		})
	})

	return r
}
