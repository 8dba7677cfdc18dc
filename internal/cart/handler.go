// AngelaMos | 2026
// handler.go

package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront/internal/catalog"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/storage"
)

type ProductLookup interface {
	Product(ctx context.Context, id string) (*catalog.Product, error)
}

type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type Response struct {
	Lines      []Line          `json:"lines"`
	TotalPrice decimal.Decimal `json:"total_price"`
	TotalItems int             `json:"total_items"`
}

func ToResponse(s *Store) Response {
	lines := s.Lines()
	if lines == nil {
		lines = []Line{}
	}
	return Response{
		Lines:      lines,
		TotalPrice: s.TotalPrice(),
		TotalItems: s.TotalItems(),
	}
}

type Handler struct {
	kv        storage.KV
	prefix    string
	products  ProductLookup
	validator *validator.Validate
}

func NewHandler(kv storage.KV, prefix string, products ProductLookup) *Handler {
	return &Handler{
		kv:        kv,
		prefix:    prefix,
		products:  products,
		validator: core.NewValidator(),
	}
}

// Open loads the caller's cart.
func (h *Handler) Open(ctx context.Context, userID string) (*Store, error) {
	s := NewStore(h.kv, h.prefix, userID, nil)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Clear)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productID}", h.UpdateQuantity)
		r.Delete("/items/{productID}", h.RemoveItem)
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r)
	if !ok {
		return
	}
	core.Reply(w, http.StatusOK, ToResponse(s), notify.Drain(r.Context()))
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	s, ok := h.open(w, r)
	if !ok {
		return
	}

	p, err := h.products.Product(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "product")
			return
		}
		core.Fail(w, err, notify.Drain(r.Context()))
		return
	}

	// Sold-out products never enter a cart.
	if p.Stock <= 0 {
		notify.RecorderFromContext(r.Context()).Notify(r.Context(),
			notify.Error("Out of stock", p.Name+" is sold out."))
		core.Fail(w, publicError(ErrInsufficientStock), notify.Drain(r.Context()))
		return
	}

	if err := s.AddToCart(r.Context(), *p); err != nil {
		core.Fail(w, publicError(err), notify.Drain(r.Context()))
		return
	}

	core.Reply(w, http.StatusOK, ToResponse(s), notify.Drain(r.Context()))
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	s, ok := h.open(w, r)
	if !ok {
		return
	}

	if err := s.UpdateQuantity(r.Context(), chi.URLParam(r, "productID"), req.Quantity); err != nil {
		core.Fail(w, err, notify.Drain(r.Context()))
		return
	}

	core.Reply(w, http.StatusOK, ToResponse(s), notify.Drain(r.Context()))
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r)
	if !ok {
		return
	}

	if err := s.RemoveFromCart(r.Context(), chi.URLParam(r, "productID")); err != nil {
		core.Fail(w, err, notify.Drain(r.Context()))
		return
	}

	core.Reply(w, http.StatusOK, ToResponse(s), notify.Drain(r.Context()))
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r)
	if !ok {
		return
	}

	if err := s.ClearCart(r.Context()); err != nil {
		core.Fail(w, err, notify.Drain(r.Context()))
		return
	}

	core.Reply(w, http.StatusOK, ToResponse(s), notify.Drain(r.Context()))
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) (*Store, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return nil, false
	}

	s, err := h.Open(r.Context(), userID)
	if err != nil {
		core.Fail(w, err, notify.Drain(r.Context()))
		return nil, false
	}
	return s, true
}

func publicError(err error) error {
	if errors.Is(err, ErrInsufficientStock) {
		return core.NewAppError(err, "no more units are available",
			http.StatusConflict, "INSUFFICIENT_STOCK")
	}
	return err
}
