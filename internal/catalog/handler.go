// AngelaMos | 2026
// handler.go

package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/notify"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

// RegisterPublicRoutes mounts the read-only catalog shared by every role.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/products", h.ListProducts)
	r.Get("/products/featured", h.FeaturedProducts)
	r.Get("/products/{id}", h.GetProduct)
	r.Get("/categories", h.ListCategories)
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	h.RegisterPublicRoutes(r)

	r.Get("/products/low-stock", h.LowStock)
	r.Post("/products", h.AddProduct)
	r.Put("/products/{id}", h.UpdateProduct)
	r.Post("/products/{id}/featured", h.ToggleFeatured)
	r.Delete("/products/{id}", h.DeleteProduct)

	r.Post("/categories", h.AddCategory)
	r.Put("/categories/{id}", h.UpdateCategory)
	r.Delete("/categories/{id}", h.DeleteCategory)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	products, err := h.service.Search(r.Context(), q.Get("q"), q.Get("category"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.reply(w, r, http.StatusOK,
		ToProductResponseList(products, h.service.UncategorizedLabel()))
}

func (h *Handler) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	limit := 3
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			core.BadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	products, err := h.service.Featured(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.reply(w, r, http.StatusOK,
		ToProductResponseList(products, h.service.UncategorizedLabel()))
}

func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.LowStock(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.reply(w, r, http.StatusOK,
		ToProductResponseList(products, h.service.UncategorizedLabel()))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "product")
			return
		}
		h.fail(w, r, err)
		return
	}

	h.reply(w, r, http.StatusOK, ToProductResponse(p, h.service.UncategorizedLabel()))
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.reply(w, r, http.StatusOK, ToCategoryResponseList(categories))
}

func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.AddProduct(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.reply(w, r, http.StatusCreated, ToProductResponse(p, h.service.UncategorizedLabel()))
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.reply(w, r, http.StatusOK, ToProductResponse(p, h.service.UncategorizedLabel()))
}

func (h *Handler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.ToggleFeatured(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.reply(w, r, http.StatusOK, ToProductResponse(p, h.service.UncategorizedLabel()))
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}

	h.reply(w, r, http.StatusOK, nil)
}

func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.service.AddCategory(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.reply(w, r, http.StatusCreated, ToCategoryResponseList([]Category{*c})[0])
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.reply(w, r, http.StatusOK, ToCategoryResponseList([]Category{*c})[0])
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}

	h.reply(w, r, http.StatusOK, nil)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dest); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}
	return true
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request, status int, data any) {
	core.Reply(w, status, data, notify.Drain(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	core.Fail(w, PublicError(err), notify.Drain(r.Context()))
}

// PublicError renders catalog refusals as conflicts with a readable message.
func PublicError(err error) error {
	switch {
	case errors.Is(err, ErrCategoryInUse):
		return core.NewAppError(err, "category has associated products",
			http.StatusConflict, "CATEGORY_IN_USE")
	case errors.Is(err, ErrProductReferenced):
		return core.NewAppError(err, "product appears in existing orders",
			http.StatusConflict, "PRODUCT_REFERENCED")
	case errors.Is(err, ErrInsufficientStock):
		return core.NewAppError(err, "insufficient stock",
			http.StatusConflict, "INSUFFICIENT_STOCK")
	case errors.Is(err, core.ErrDuplicateKey):
		return core.DuplicateError("category name")
	}
	return err
}
