package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/cartsvc/internal/service"
	"github.com/utafrali/cartsvc/pkg/health"
	"github.com/utafrali/cartsvc/pkg/middleware"
)

// NewRouter creates a chi router with all cart service routes registered.
// httpMetrics may be nil, in which case request metrics are not recorded.
func NewRouter(
	cartService *service.CartService,
	healthHandler *health.Handler,
	httpMetrics *middleware.HTTPMetrics,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware)
	}
	r.Use(middleware.Tracing("cart"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Cart API endpoints
	cartHandler := NewCartHandler(cartService, logger)

	r.Route("/api/v1/carts", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", cartHandler.GetCart)
		r.Get("/{cartId}", cartHandler.GetCartByID)
		r.Delete("/{cartId}", cartHandler.DeleteCart)

		r.Post("/items", cartHandler.AddItem)
		r.Delete("/items", cartHandler.ClearCart)
		r.Patch("/items/{itemId}", cartHandler.UpdateItemQuantity)
		r.Delete("/items/{itemId}", cartHandler.RemoveItem)
	})

	return r
}
