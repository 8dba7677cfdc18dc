// AngelaMos | 2026
// dispatcher.go

package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/session"
)

// AttachFunc builds the identity provider for one request. The returned
// context carries whatever the shared handlers need to reach it.
type AttachFunc func(ctx context.Context, r *http.Request) (context.Context, session.IdentityProvider)

// Subtree registers the routes of one application on r.
type Subtree func(r chi.Router)

type Config struct {
	Attach          AttachFunc
	Profiles        session.ProfileRepository
	Logger          *slog.Logger
	NamePlaceholder string
	// Base is the prefix the dispatcher is mounted under. Redirects are
	// issued relative to it.
	Base string

	// Shared routes are served in every session state, before role
	// resolution. Sign-in and sign-out live here.
	Shared Subtree
	Public Subtree
	Client Subtree
	Admin  Subtree
}

type Dispatcher struct {
	attach      AttachFunc
	profiles    session.ProfileRepository
	logger      *slog.Logger
	notes       notify.Notifier
	placeholder string
	base        string

	pages  *chi.Mux
	shared *chi.Mux
	public *chi.Mux
	client *chi.Mux
	admin  *chi.Mux
}

func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		attach:      cfg.Attach,
		profiles:    cfg.Profiles,
		logger:      logger,
		notes:       notify.Multi(notify.Context, notify.NewLogNotifier(logger)),
		placeholder: cfg.NamePlaceholder,
		base:        cfg.Base,
		pages:       subtree(registerPages),
		shared:      subtree(cfg.Shared),
		public:      subtree(cfg.Public),
	}

	d.client = subtree(func(r chi.Router) {
		r.Use(middleware.RequireClient)
		r.Route(ClientNamespace, func(r chi.Router) {
			if cfg.Client != nil {
				cfg.Client(r)
			}
		})
	})
	d.admin = subtree(func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Route(AdminNamespace, func(r chi.Router) {
			if cfg.Admin != nil {
				cfg.Admin(r)
			}
		})
	})

	return d
}

func subtree(register Subtree) *chi.Mux {
	m := chi.NewRouter()
	if register != nil {
		register(m)
	}
	m.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		core.NotFound(w, "route")
	})
	m.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		core.JSONError(w, core.NewAppError(nil, "method not allowed",
			http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"))
	})
	return m
}

// ServeHTTP resolves the caller's session once and hands the request to the
// subtree its role allows.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := routePath(r)

	if d.pages.Match(chi.NewRouteContext(), r.Method, path) {
		d.pages.ServeHTTP(w, r)
		return
	}

	ctx := notify.ContextWithRecorder(r.Context(), notify.NewRecorder())
	ctx, provider := d.attach(ctx, r)

	store := session.NewStore(session.Options{
		Provider:        provider,
		Profiles:        d.profiles,
		Notifier:        d.notes,
		Logger:          d.logger,
		NamePlaceholder: d.placeholder,
	})
	defer store.Close()

	ctx = session.NewContext(ctx, store)
	store.Initialize(ctx)

	st := store.State()
	userID := ""
	if st.Identity != nil {
		userID = st.Identity.ID
	}
	ctx = middleware.WithIdentity(ctx, userID, st.Role())
	r = r.WithContext(ctx)

	if d.shared.Match(chi.NewRouteContext(), r.Method, path) {
		d.shared.ServeHTTP(w, r)
		return
	}

	// A token was presented and rejected. Answer 401 so the caller refreshes
	// instead of silently browsing as a guest.
	if st.SessionErr != nil {
		core.Fail(w, st.SessionErr, notify.Drain(ctx))
		return
	}

	decision := Resolve(InputFromState(st, path))
	d.logger.DebugContext(ctx, "route resolved",
		"path", path,
		"decision", decision.Kind,
		"role", st.Role(),
	)

	switch decision.Kind {
	case KindLoading:
		renderLoading(w, notify.Drain(ctx))
	case KindRecovery:
		d.renderRecovery(w, r, notify.Drain(ctx))
	case KindRedirect:
		http.Redirect(w, r, d.base+decision.Location, http.StatusFound)
	case KindAdmin:
		d.admin.ServeHTTP(w, r)
	case KindClient:
		d.client.ServeHTTP(w, r)
	case KindPublic:
		if InNamespace(path) {
			core.Fail(w, core.UnauthorizedError("sign in to continue"), notify.Drain(ctx))
			return
		}
		d.public.ServeHTTP(w, r)
	}
}

func routePath(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePath != "" {
		return rctx.RoutePath
	}
	if r.URL.RawPath != "" {
		return r.URL.RawPath
	}
	return r.URL.Path
}
