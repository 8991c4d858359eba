package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/avelez/shopadmin-be/internal/services"
)

// ProductHandler handles HTTP requests for catalog management.
type ProductHandler struct {
	service services.ProductServiceProvider
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service services.ProductServiceProvider) *ProductHandler {
	return &ProductHandler{service: service}
}

// GetAll lists products, optionally narrowed by category, status, and a
// free-text search over name/description/sku.
func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	filter := services.ProductFilter{
		Category: r.URL.Query().Get("category"),
		Status:   r.URL.Query().Get("status"),
		Search:   r.URL.Query().Get("search"),
	}

	products, err := h.service.GetProducts(filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch products")
		respondError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	respondData(w, http.StatusOK, products)
}

// Get retrieves a single product by id.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	product, err := h.service.GetProduct(id)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Str("product_id", id).Msg("Failed to fetch product")
		respondError(w, http.StatusInternalServerError, "Failed to fetch product")
		return
	}
	respondData(w, http.StatusOK, product)
}

// Create inserts a new product.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.service.CreateProduct(input)
	if err != nil {
		h.respondServiceError(w, err, "Failed to create product")
		return
	}
	respondData(w, http.StatusCreated, product)
}

// Update overwrites the client-editable fields of an existing product.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var input services.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.service.UpdateProduct(id, input)
	if err != nil {
		h.respondServiceError(w, err, "Failed to update product")
		return
	}
	respondData(w, http.StatusOK, product)
}

// Delete removes a product from the catalog.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteProduct(id); err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Str("product_id", id).Msg("Failed to delete product")
		respondError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	respondMessage(w, http.StatusOK, "Product deleted")
}

// respondServiceError maps catalog service failures onto the response
// envelope without leaking internals.
func (h *ProductHandler) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, services.ErrDuplicateSKU):
		respondError(w, http.StatusBadRequest, "Product with this SKU already exists")
	case errors.Is(err, services.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "Product not found")
	default:
		log.Error().Err(err).Msg(fallback)
		respondError(w, http.StatusInternalServerError, fallback)
	}
}
