// AngelaMos | 2026
// handler.go

package favorites

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/storage"
)

type Response struct {
	ProductIDs []string `json:"product_ids"`
}

type ToggleResponse struct {
	ProductID string `json:"product_id"`
	Favorite  bool   `json:"favorite"`
}

type Handler struct {
	kv     storage.KV
	prefix string
}

func NewHandler(kv storage.KV, prefix string) *Handler {
	return &Handler{kv: kv, prefix: prefix}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/favorites", h.List)
	r.Post("/favorites/{productID}", h.Toggle)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r)
	if !ok {
		return
	}

	ids := s.IDs()
	if ids == nil {
		ids = []string{}
	}
	core.Reply(w, http.StatusOK, Response{ProductIDs: ids}, notify.Drain(r.Context()))
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "productID")
	favorite, err := s.Toggle(r.Context(), productID)
	if err != nil {
		core.Fail(w, err, notify.Drain(r.Context()))
		return
	}

	core.Reply(w, http.StatusOK, ToggleResponse{
		ProductID: productID,
		Favorite:  favorite,
	}, notify.Drain(r.Context()))
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) (*Store, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return nil, false
	}

	s := NewStore(h.kv, h.prefix, userID, nil)
	if err := s.Load(r.Context()); err != nil {
		core.Fail(w, err, notify.Drain(r.Context()))
		return nil, false
	}
	return s, true
}
