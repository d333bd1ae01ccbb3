package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harnoorlabs/aromas-backend/api/controllers"
	"github.com/harnoorlabs/aromas-backend/api/middleware"
	"github.com/harnoorlabs/aromas-backend/internal/cart"
	checkoutsvc "github.com/harnoorlabs/aromas-backend/internal/checkout"
	"github.com/harnoorlabs/aromas-backend/internal/invoices"
	"github.com/harnoorlabs/aromas-backend/internal/notifications"
	"github.com/harnoorlabs/aromas-backend/internal/orders"
	"github.com/harnoorlabs/aromas-backend/internal/payments"
	product "github.com/harnoorlabs/aromas-backend/internal/products"
	"github.com/harnoorlabs/aromas-backend/pkg/config"
	"github.com/harnoorlabs/aromas-backend/pkg/db"
	"github.com/harnoorlabs/aromas-backend/pkg/enums"
	"github.com/harnoorlabs/aromas-backend/pkg/logger"
	"github.com/harnoorlabs/aromas-backend/pkg/redis"
)

// Services groups everything the router mounts. Keeping it a struct keeps
// main readable as the service list grows.
type Services struct {
	Cart          cart.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	OrdersRepo    *orders.Repository
	Invoices      *invoices.Generator
	Payments      payments.Service
	Products      product.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	// The gateway posts here without a bearer token. Signature verification
	// happens in the payments service; the rate limit keeps the open route
	// from being hammered.
	callbackPolicy := middleware.RateLimitPolicy{
		Name:   "gateway-callback",
		Limit:  cfg.Gateway.CallbackRateLimit,
		Window: cfg.Gateway.CallbackRateWindow,
	}
	r.With(middleware.RateLimit(callbackPolicy, redisClient, logg)).
		Post("/api/v1/payments/gateway/callback", controllers.PaymentGatewayCallback(svcs.Payments, cfg.Gateway.Enabled, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(svcs.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(svcs.Cart, logg))
			r.Post("/items/{itemId}/decrement", controllers.CartDecrementItem(svcs.Cart, logg))
		})

		r.Post("/checkout", controllers.Checkout(svcs.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(svcs.Orders, logg))
			r.Get("/{orderId}/invoice", controllers.OrderInvoice(svcs.OrdersRepo, svcs.Invoices, logg))
		})

		r.Post("/payments/gateway/order", controllers.PaymentGatewayOrder(svcs.Payments, cfg.Gateway.Enabled, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Route("/seller", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleSeller.String(), logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.SellerListProducts(svcs.Products, logg))
				r.Get("/low-stock", controllers.SellerLowStockProducts(svcs.Products, logg))
				r.Post("/", controllers.SellerCreateProduct(svcs.Products, logg))
				r.Patch("/{productId}", controllers.SellerUpdateProduct(svcs.Products, logg))
				r.Delete("/{productId}", controllers.SellerDeleteProduct(svcs.Products, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.SellerListOrders(svcs.Orders, logg))
				r.Post("/{orderId}/status", controllers.SellerUpdateOrderStatus(svcs.Orders, logg))
			})
		})
	})

	return r
}
