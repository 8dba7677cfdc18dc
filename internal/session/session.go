// AngelaMos | 2026
// session.go

package session

import (
	"context"
	"strings"

	"github.com/carterperez-dev/storefront/internal/profile"
)

type Phase string

const (
	PhaseUninitialized  Phase = "uninitialized"
	PhaseAuthenticating Phase = "authenticating"
	PhaseReady          Phase = "ready"
)

// Action names a user-triggered operation that can be in flight.
type Action string

const (
	ActionLogin       Action = "login"
	ActionRegister    Action = "register"
	ActionGoogle      Action = "google"
	ActionLogout      Action = "logout"
	ActionLoadProfile Action = "load_profile"
	ActionCreateAdmin Action = "create_admin"
	ActionDeleteUser  Action = "delete_user"
)

type Metadata struct {
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Identity is the authenticated principal as reported by the identity
// provider. It carries no role.
type Identity struct {
	ID             string   `json:"id"`
	Email          string   `json:"email"`
	Provider       string   `json:"provider"`
	EmailConfirmed bool     `json:"email_confirmed"`
	Metadata       Metadata `json:"metadata"`
}

type EventType string

const (
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventTokenRefreshed EventType = "token_refreshed"
)

type Event struct {
	Type     EventType
	Identity *Identity
}

type SignUpParams struct {
	Email    string
	Password string
	FullName string
}

type SignUpResult struct {
	Identity             *Identity
	ConfirmationRequired bool
}

// IdentityProvider is the external authentication service. Implementations
// publish an Event to subscribers whenever the signed-in identity changes.
type IdentityProvider interface {
	// CurrentIdentity returns nil with no error when there is no session.
	CurrentIdentity(ctx context.Context) (*Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Identity, error)
	SignUp(ctx context.Context, params SignUpParams) (*SignUpResult, error)
	// SignInWithProvider starts a federated sign-in and returns the URL the
	// user agent must visit.
	SignInWithProvider(ctx context.Context, provider string) (string, error)
	SignOut(ctx context.Context) error
	// CreateIdentity registers an identity without switching the session.
	CreateIdentity(ctx context.Context, params SignUpParams) (*SignUpResult, error)
	Subscribe(fn func(ctx context.Context, e Event)) (unsubscribe func())
}

// IdentityRemover is implemented by providers that hold elevated
// privileges to delete identities outright.
type IdentityRemover interface {
	DeleteIdentity(ctx context.Context, identityID string) error
}

type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*profile.Profile, error)
	Create(ctx context.Context, p *profile.Profile) error
	Upsert(ctx context.Context, p *profile.Profile) error
	ListAll(ctx context.Context) ([]profile.Profile, error)
	Delete(ctx context.Context, id string) error
}

// State is a point-in-time copy of the store.
type State struct {
	Phase         Phase            `json:"phase"`
	Identity      *Identity        `json:"identity,omitempty"`
	Profile       *profile.Profile `json:"profile,omitempty"`
	ProfileLoaded bool             `json:"profile_loaded"`
	Pending       []Action         `json:"pending,omitempty"`
	SessionErr    error            `json:"-"`
}

// Initializing is true only until the first session check completes.
func (s State) Initializing() bool {
	return s.Phase != PhaseReady
}

func (s State) IsAuthenticated() bool {
	return s.Identity != nil
}

func (s State) IsAdmin() bool {
	return s.Profile != nil && s.Profile.IsAdmin()
}

func (s State) IsClient() bool {
	return s.Profile != nil && s.Profile.IsClient()
}

func (s State) IsPending(a Action) bool {
	for _, p := range s.Pending {
		if p == a {
			return true
		}
	}
	return false
}

// Role returns the profile role or empty when no profile is loaded.
func (s State) Role() string {
	if s.Profile == nil {
		return ""
	}
	return s.Profile.Role
}

// DeriveName picks a display name for a profile that was never created:
// provider metadata, then the email local part, then placeholder.
func DeriveName(id *Identity, placeholder string) string {
	if id == nil {
		return placeholder
	}
	if name := strings.TrimSpace(id.Metadata.FullName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(id.Email, "@"); ok && local != "" {
		return local
	}
	return placeholder
}

type ctxKey struct{}

func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Store)
	return s, ok && s != nil
}
