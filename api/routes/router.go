package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shalom-garden/storefront-backend/api/controllers"
	webhookcontrollers "github.com/shalom-garden/storefront-backend/api/controllers/webhooks"
	"github.com/shalom-garden/storefront-backend/api/middleware"
	cartsvc "github.com/shalom-garden/storefront-backend/internal/cart"
	ordersvc "github.com/shalom-garden/storefront-backend/internal/orders"
	paymentsvc "github.com/shalom-garden/storefront-backend/internal/payments"
	webhooksvc "github.com/shalom-garden/storefront-backend/internal/webhooks"
	"github.com/shalom-garden/storefront-backend/pkg/auth"
	"github.com/shalom-garden/storefront-backend/pkg/config"
	"github.com/shalom-garden/storefront-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	registry *prometheus.Registry,
	cartService cartsvc.Service,
	ordersService ordersvc.Service,
	paymentsService paymentsvc.Service,
	webhookService webhooksvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/razorpay", webhookcontrollers.RazorpayWebhook(webhookService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Route("/items", func(r chi.Router) {
				r.Post("/", controllers.CartAddItem(cartService, logg))
				r.Patch("/{productId}", controllers.CartChangeQuantity(cartService, logg))
				r.Delete("/{productId}", controllers.CartRemoveItem(cartService, logg))
			})
		})

		r.Post("/checkout", controllers.Checkout(ordersService, logg))
		r.Post("/payments/confirm", controllers.PaymentConfirm(paymentsService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(ordersService, logg))
			r.Put("/{orderId}/address", controllers.OrderUpdateAddress(ordersService, logg))
		})

		r.Get("/products/{productId}/can-review", controllers.ProductCanReview(ordersService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(auth.RoleAdmin, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(ordersService, logg))
			r.Post("/{orderId}/status", controllers.AdminOrderUpdateStatus(ordersService, logg))
		})
	})

	return r
}
