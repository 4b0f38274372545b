package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductReader interface {
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
}

type ProductHandler struct {
	products ProductReader
	timeout  time.Duration
}

func NewProductHandler(products ProductReader, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		products: products,
		timeout:  timeout,
	}
}

type ProductResponse struct {
	*domain.Product
	EffectivePrice float64 `json:"effective_price"`
	InStock        bool    `json:"in_stock"`
}

// GET /api/v1/products/{productId}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := pathObjectID(w, r, "productId")
	if !ok {
		return
	}

	p, err := h.products.Get(ctx, productID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !p.IsActive {
		handleServiceError(w, r, service.ErrProductUnavailable)
		return
	}
	respondOK(w, "product retrieved", ProductResponse{Product: p, EffectivePrice: p.EffectivePrice(), InStock: p.InStock()})
}
