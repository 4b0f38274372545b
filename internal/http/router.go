package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_market/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Cart     *CartHandler
	Wishlist *WishlistHandler
	Orders   *OrdersHandler
	Reviews  *ReviewHandler
	Products *ProductHandler
}

type RouterConfig struct {
	JWTSecret      []byte
	RequestTimeout time.Duration
}

func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondOK(w, "ok", map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.JWTSecret))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Post("/add", h.Cart.AddItem)
			r.Put("/update", h.Cart.UpdateQuantity)
			r.Delete("/remove", h.Cart.RemoveItem)
			r.Delete("/clear", h.Cart.ClearCart)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", h.Wishlist.Get)
			r.Post("/add", h.Wishlist.Add)
			r.Delete("/remove", h.Wishlist.Remove)
			r.Post("/toggle", h.Wishlist.Toggle)
			r.Get("/check/{productId}", h.Wishlist.Check)
			r.Delete("/clear", h.Wishlist.Clear)
			r.Post("/move-to-cart", h.Wishlist.MoveToCart)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.Orders.PlaceOrder)
			r.Get("/", h.Orders.ListOrders)
			r.Get("/{orderId}", h.Orders.GetOrder)
			r.Post("/{orderId}/cancel", h.Orders.CancelOrder)
			r.Post("/{orderId}/pay", h.Orders.MarkPaid)
		})

		r.Route("/seller/orders", func(r chi.Router) {
			r.Use(RequireRole(domain.RoleSeller))
			r.Get("/", h.Orders.ListSellerOrders)
			r.Put("/{orderId}/status", h.Orders.UpdateStatus)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", h.Reviews.Create)
			r.Post("/{reviewId}/helpful", h.Reviews.MarkHelpful)
			r.With(RequireRole(domain.RoleSeller)).Put("/{reviewId}/response", h.Reviews.Respond)
			r.With(RequireRole(domain.RoleAdmin)).Put("/{reviewId}/moderate", h.Reviews.Moderate)
			r.Delete("/{reviewId}", h.Reviews.Delete)
		})

		r.Route("/products/{productId}", func(r chi.Router) {
			r.Get("/", h.Products.Get)
			r.Get("/reviews", h.Reviews.ListForProduct)
		})
	})

	return r
}
