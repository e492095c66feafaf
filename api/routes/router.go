package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shopfront/api/controllers"
	"github.com/angelmondragon/shopfront/api/middleware"
	"github.com/angelmondragon/shopfront/internal/cart"
	"github.com/angelmondragon/shopfront/internal/catalog"
	"github.com/angelmondragon/shopfront/internal/checkout"
	"github.com/angelmondragon/shopfront/internal/delivery"
	"github.com/angelmondragon/shopfront/internal/orders"
	"github.com/angelmondragon/shopfront/pkg/config"
	"github.com/angelmondragon/shopfront/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	pingers map[string]controllers.Pinger,
	gatherer prometheus.Gatherer,
	idempotencyStore middleware.IdempotencyStore,
	catalogService catalog.Service,
	cartService cart.Service,
	checkoutService checkout.Service,
	ordersService orders.Service,
	deliveryService delivery.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RouteSpan(),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))
		r.Use(middleware.Session(cfg.Cart.SessionTTL, cfg.App.IsProd(), logg))
		r.Use(middleware.Idempotency(idempotencyStore, cfg.HTTP.IdempotencyTTL, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(catalogService, logg))
			r.Get("/{productID}", controllers.ProductGet(catalogService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/items", controllers.CartAddLine(cartService, logg))
			r.Put("/items/{productID}", controllers.CartSetLine(cartService, logg))
			r.Delete("/items/{productID}", controllers.CartRemoveLine(cartService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(logg))

			r.Post("/checkout", controllers.CheckoutExecute(checkoutService, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersList(ordersService, logg))
				r.Get("/{orderID}", controllers.OrderGet(ordersService, logg))
				r.Post("/{orderID}/delivery", controllers.DeliveryCreate(deliveryService, ordersService, logg))
				r.Get("/{orderID}/deliveries", controllers.OrderDeliveries(deliveryService, ordersService, logg))
			})

			r.Route("/delivery", func(r chi.Router) {
				r.Get("/methods", controllers.DeliveryMethods(deliveryService, logg))
				r.Post("/quote", controllers.DeliveryQuote(deliveryService, ordersService, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, middleware.RoleAdmin))

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.AdminProductCreate(catalogService, logg))
				r.Patch("/{productID}", controllers.AdminProductUpdate(catalogService, logg))
				r.Delete("/{productID}", controllers.AdminProductDelete(catalogService, logg))
				r.Get("/{productID}/restock", controllers.AdminProductRestockPreview(catalogService, logg))
				r.Post("/{productID}/restock", controllers.AdminProductRestock(catalogService, logg))
			})

			r.Get("/orders/stats", controllers.AdminSalesStats(ordersService, logg))

			r.Route("/deliveries", func(r chi.Router) {
				r.Get("/", controllers.AdminDeliveryList(deliveryService, logg))
				r.Get("/{deliveryID}", controllers.AdminDeliveryGet(deliveryService, logg))
				r.Patch("/{deliveryID}/status", controllers.AdminDeliveryUpdateStatus(deliveryService, logg))
				r.Post("/{deliveryID}/courier", controllers.AdminDeliveryAssignCourier(deliveryService, logg))
			})
		})
	})

	return r
}
