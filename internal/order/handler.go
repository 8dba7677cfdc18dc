// AngelaMos | 2026
// handler.go

package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
	"github.com/carterperez-dev/storefront/internal/notify"
)

type Handler struct {
	workflow  *Workflow
	validator *validator.Validate
}

func NewHandler(workflow *Workflow) *Handler {
	return &Handler{
		workflow:  workflow,
		validator: core.NewValidator(),
	}
}

// RegisterClientRoutes mounts the caller's own order history. Checkout is
// mounted by the client application because it also drains the cart.
func (h *Handler) RegisterClientRoutes(r chi.Router) {
	r.Get("/orders", h.MyOrders)
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/orders", h.ListOrders)
	r.Put("/orders/{id}/status", h.UpdateStatus)
}

func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	orders, err := h.workflow.OrdersByCustomer(r.Context(), userID)
	if err != nil {
		core.Fail(w, err, notify.Drain(r.Context()))
		return
	}

	core.Reply(w, http.StatusOK, ToOrderResponseList(orders), notify.Drain(r.Context()))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.workflow.ListOrders(r.Context())
	if err != nil {
		core.Fail(w, err, notify.Drain(r.Context()))
		return
	}

	core.Reply(w, http.StatusOK, ToOrderResponseList(orders), notify.Drain(r.Context()))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	err := h.workflow.UpdateStatus(r.Context(), chi.URLParam(r, "id"), Status(req.Status))
	if err != nil {
		core.Fail(w, PublicError(err), notify.Drain(r.Context()))
		return
	}

	orders, err := h.workflow.ListOrders(r.Context())
	if err != nil {
		core.Fail(w, err, notify.Drain(r.Context()))
		return
	}

	core.Reply(w, http.StatusOK, ToOrderResponseList(orders), notify.Drain(r.Context()))
}

func PublicError(err error) error {
	switch {
	case errors.Is(err, ErrEmptyOrder):
		return core.ValidationError("order has no items")
	case errors.Is(err, ErrTotalMismatch):
		return core.ValidationError("order total does not match its items")
	case errors.Is(err, ErrInvalidStatus):
		return core.ValidationError("unknown order status")
	case errors.Is(err, ErrInvalidTransition):
		return core.NewAppError(err, "order cannot move to that status",
			http.StatusConflict, "INVALID_TRANSITION")
	case errors.Is(err, core.ErrConflict):
		return core.ConflictError("order was changed concurrently")
	}
	return err
}
