package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmeister/storefront-backend/api/controllers"
	"github.com/dmeister/storefront-backend/api/controllers/webhooks"
	"github.com/dmeister/storefront-backend/api/middleware"
	"github.com/dmeister/storefront-backend/internal/catalog"
	"github.com/dmeister/storefront-backend/internal/checkout"
	"github.com/dmeister/storefront-backend/internal/orders"
	hotmartwebhook "github.com/dmeister/storefront-backend/internal/webhooks/hotmart"
	"github.com/dmeister/storefront-backend/pkg/config"
	"github.com/dmeister/storefront-backend/pkg/logger"
)

// Pinger is satisfied by the db and cache clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the HTTP surface to its services.
type Options struct {
	Config   *config.Config
	Logger   *logger.Logger
	Catalog  *catalog.Service
	Checkout *checkout.Service
	Orders   *orders.Service
	Hotmart  *hotmartwebhook.Service
	DB       Pinger
	Cache    Pinger
}

// New builds the router.
func New(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID(opts.Logger))
	r.Use(middleware.Logging(opts.Logger))
	r.Use(middleware.Recoverer(opts.Logger))
	if opts.Config != nil {
		r.Use(middleware.CORS(opts.Config.CORS))
	}

	r.Get("/health/live", controllers.Live())
	r.Get("/health/ready", controllers.Ready(opts.DB, opts.Cache, opts.Logger))
	r.Handle("/metrics", promhttp.Handler())

	var hottok string
	if opts.Config != nil {
		hottok = opts.Config.Hotmart.Hottok
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.Products(opts.Catalog, opts.Logger))
		r.Get("/products/{sku}", controllers.Product(opts.Catalog, opts.Logger))
		r.Post("/checkout/intent", controllers.CheckoutIntent(opts.Checkout, opts.Logger))
		r.Get("/orders/{referenceID}", controllers.Order(opts.Orders, opts.Logger))
		r.Post("/webhooks/hotmart", webhooks.Hotmart(opts.Hotmart, hottok, opts.Logger))
	})

	return r
}
