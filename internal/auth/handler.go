// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/session"
)

var errNoSession = errors.New("request has no session attached")

type Handler struct {
	service           *Service
	validator         *validator.Validate
	postLoginRedirect string
}

func NewHandler(service *Service, postLoginRedirect string) *Handler {
	return &Handler{
		service:           service,
		validator:         validator.New(validator.WithRequiredStructEnabled()),
		postLoginRedirect: postLoginRedirect,
	}
}

// RegisterRoutes mounts the auth endpoints. Every route expects the session
// store and auth client of the request on its context.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Get("/google", h.Google)
		r.Get("/google/callback", h.GoogleCallback)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)
		r.Get("/confirm", h.Confirm)
		r.Get("/session", h.Session)
	})
}

func fromRequest(r *http.Request) (*session.Store, *Client, error) {
	store, ok := session.FromContext(r.Context())
	if !ok {
		return nil, nil, errNoSession
	}
	client, ok := ClientFromContext(r.Context())
	if !ok {
		return nil, nil, errNoSession
	}
	return store, client, nil
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	store, client, err := fromRequest(r)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	if err := store.Login(r.Context(), req.Email, req.Password); err != nil {
		core.Fail(w, err, notify.Drain(r.Context()))
		return
	}

	core.Reply(w, http.StatusOK,
		toSessionResponse(store.State(), client.Tokens()),
		notify.Drain(r.Context()),
	)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	store, client, err := fromRequest(r)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	res, err := store.Register(r.Context(), session.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		core.Fail(w, err, notify.Drain(r.Context()))
		return
	}

	core.Reply(w, http.StatusCreated, RegisterResponse{
		SessionResponse:      toSessionResponse(store.State(), client.Tokens()),
		ConfirmationRequired: res.ConfirmationRequired,
	}, notify.Drain(r.Context()))
}

func (h *Handler) Google(w http.ResponseWriter, r *http.Request) {
	store, _, err := fromRequest(r)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	target, err := store.LoginWithGoogle(r.Context())
	if err != nil {
		core.Fail(w, err, notify.Drain(r.Context()))
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// GoogleCallback completes the code flow. With a post-login redirect
// configured the tokens travel in the URL fragment so they never reach
// server logs.
func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	store, client, err := fromRequest(r)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		core.Fail(w, core.UnauthorizedError("sign-in was cancelled"), nil)
		return
	}
	if q.Get("state") == "" || q.Get("code") == "" {
		core.BadRequest(w, "missing state or code")
		return
	}

	if _, err := client.CompleteProviderSignIn(r.Context(), q.Get("state"), q.Get("code")); err != nil {
		core.Fail(w, err, notify.Drain(r.Context()))
		return
	}

	tokens := client.Tokens()
	if h.postLoginRedirect != "" && tokens != nil {
		fragment := url.Values{}
		fragment.Set("access_token", tokens.AccessToken)
		fragment.Set("refresh_token", tokens.RefreshToken)
		fragment.Set("token_type", tokens.TokenType)
		http.Redirect(w, r, h.postLoginRedirect+"#"+fragment.Encode(), http.StatusFound)
		return
	}

	core.Reply(w, http.StatusOK,
		toSessionResponse(store.State(), tokens),
		notify.Drain(r.Context()),
	)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	store, client, err := fromRequest(r)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	if _, err := client.WithRefreshToken(req.RefreshToken).Refresh(r.Context()); err != nil {
		core.Fail(w, err, nil)
		return
	}

	core.Reply(w, http.StatusOK,
		toSessionResponse(store.State(), client.Tokens()),
		notify.Drain(r.Context()),
	)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			core.BadRequest(w, "invalid request body")
			return
		}
	}

	store, client, err := fromRequest(r)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	if !store.State().IsAuthenticated() && req.RefreshToken == "" {
		core.Unauthorized(w, "")
		return
	}

	client.WithRefreshToken(req.RefreshToken)
	if err := store.Logout(r.Context()); err != nil {
		core.Fail(w, err, notify.Drain(r.Context()))
		return
	}

	core.Reply(w, http.StatusOK,
		toSessionResponse(store.State(), nil),
		notify.Drain(r.Context()),
	)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		core.BadRequest(w, "token required")
		return
	}

	if err := h.service.ConfirmEmail(r.Context(), token); err != nil {
		core.Fail(w, PublicError(err), nil)
		return
	}

	core.Reply(w, http.StatusOK, map[string]bool{"confirmed": true}, []notify.Notification{
		notify.Success("Email confirmed", "You can sign in now."),
	})
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	store, _, err := fromRequest(r)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Reply(w, http.StatusOK,
		toSessionResponse(store.State(), nil),
		notify.Drain(r.Context()),
	)
}

// ClientInfoFromRequest captures what the refresh-token table records
// about the caller.
func ClientInfoFromRequest(r *http.Request) ClientInfo {
	return ClientInfo{
		UserAgent: r.UserAgent(),
		IPAddress: extractIPAddress(r),
	}
}

func extractIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}
