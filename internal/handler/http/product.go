package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/febluxury/storefront/internal/domain"
	"github.com/febluxury/storefront/internal/service"
	"github.com/febluxury/storefront/pkg/httputil"
	"github.com/febluxury/storefront/pkg/middleware"
	"github.com/febluxury/storefront/pkg/validator"
)

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// StockRequest is the stock block of a product request.
type StockRequest struct {
	Status   string `json:"status" validate:"omitempty,oneof=in-stock out-of-stock pre-order"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

// DeliveryRequest is the delivery window of a product request.
type DeliveryRequest struct {
	MinDays int `json:"minDays" validate:"gte=0"`
	MaxDays int `json:"maxDays" validate:"gte=0,gtefield=MinDays"`
}

// CreateProductRequest is the JSON request body for creating a product.
type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Category    string           `json:"category" validate:"required"`
	Subcategory string           `json:"subcategory"`
	Description string           `json:"description" validate:"max=5000"`
	Price       float64          `json:"price" validate:"gte=0"`
	OldPrice    *float64         `json:"oldPrice" validate:"omitempty,gte=0"`
	Image       string           `json:"image"`
	Gallery     []string         `json:"gallery" validate:"max=20"`
	Stock       *StockRequest    `json:"stock"`
	Delivery    *DeliveryRequest `json:"delivery"`
}

// UpdateProductRequest is the JSON request body for updating a product.
// Rating fields are not accepted.
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Category    *string          `json:"category" validate:"omitempty,min=1"`
	Subcategory *string          `json:"subcategory"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Price       *float64         `json:"price" validate:"omitempty,gte=0"`
	OldPrice    *float64         `json:"oldPrice" validate:"omitempty,gte=0"`
	Image       *string          `json:"image"`
	Gallery     *[]string        `json:"gallery"`
	Stock       *StockRequest    `json:"stock"`
	Delivery    *DeliveryRequest `json:"delivery"`
}

func (r *UpdateProductRequest) patch() *domain.ProductPatch {
	p := &domain.ProductPatch{
		Name:        r.Name,
		Category:    r.Category,
		Subcategory: r.Subcategory,
		Description: r.Description,
		Price:       r.Price,
		OldPrice:    r.OldPrice,
		Image:       r.Image,
		Gallery:     r.Gallery,
	}
	if r.Stock != nil {
		p.Stock = &domain.Stock{Status: domain.StockStatus(r.Stock.Status), Quantity: r.Stock.Quantity}
	}
	if r.Delivery != nil {
		p.Delivery = &domain.Delivery{MinDays: r.Delivery.MinDays, MaxDays: r.Delivery.MaxDays}
	}
	return p
}

// --- Handlers ---

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListProducts(r.Context(), r.URL.Query())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{
		"products":      page.Items,
		"totalProducts": page.TotalCount,
		"totalPages":    page.TotalPages,
		"currentPage":   page.CurrentPage,
	})
}

// SearchProducts handles GET /api/products/search?q=
func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.SearchProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"products": products})
}

// GetProduct handles GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetProductDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{
		"product": detail.Product,
		"reviews": detail.Reviews,
	})
}

// GetRelated handles GET /api/products/related/{id}
func (h *ProductHandler) GetRelated(w http.ResponseWriter, r *http.Request) {
	related, err := h.service.FindRelated(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"products": related})
}

// CreateProduct handles POST /api/products/create-product
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.CreateProductInput{
		Name:        req.Name,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Description: req.Description,
		Price:       req.Price,
		OldPrice:    req.OldPrice,
		Image:       req.Image,
		Gallery:     req.Gallery,
	}
	if req.Stock != nil {
		input.Stock = domain.Stock{Status: domain.StockStatus(req.Stock.Status), Quantity: req.Stock.Quantity}
	}
	if req.Delivery != nil {
		input.Delivery = domain.Delivery{MinDays: req.Delivery.MinDays, MaxDays: req.Delivery.MaxDays}
	}
	if author := middleware.UserIDFromContext(r.Context()); author != "" {
		input.AuthorID = &author
	}

	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, httputil.Payload{"product": product})
}

// UpdateProduct handles PATCH /api/products/update-product/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req.patch())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{
		"message": "product updated successfully",
		"product": product,
	})
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"message": "product deleted successfully"})
}

// ListCategories handles GET /api/categories
func (h *ProductHandler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"categories": h.service.Categories()})
}
