// AngelaMos | 2026
// store.go

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/profile"
)

const defaultNamePlaceholder = "Customer"

type Options struct {
	Provider        IdentityProvider
	Profiles        ProfileRepository
	Notifier        notify.Notifier
	Logger          *slog.Logger
	NamePlaceholder string
}

// Store tracks the identity and profile of one caller and reacts to the
// provider's auth events. Provider calls are made without holding mu since
// the provider publishes events synchronously.
type Store struct {
	provider    IdentityProvider
	profiles    ProfileRepository
	notifier    notify.Notifier
	logger      *slog.Logger
	placeholder string

	mu            sync.RWMutex
	phase         Phase
	identity      *Identity
	profile       *profile.Profile
	profileLoaded bool
	pending       map[Action]int
	sessionErr    error

	initOnce    sync.Once
	unsubscribe func()
}

func NewStore(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Discard
	}
	placeholder := opts.NamePlaceholder
	if placeholder == "" {
		placeholder = defaultNamePlaceholder
	}

	s := &Store{
		provider:    opts.Provider,
		profiles:    opts.Profiles,
		notifier:    notifier,
		logger:      logger,
		placeholder: placeholder,
		phase:       PhaseUninitialized,
		pending:     make(map[Action]int),
	}
	s.unsubscribe = opts.Provider.Subscribe(s.handleEvent)

	return s
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		Phase:         s.phase,
		Identity:      s.identity,
		Profile:       s.profile,
		ProfileLoaded: s.profileLoaded,
		SessionErr:    s.sessionErr,
	}
	for a, n := range s.pending {
		if n > 0 {
			st.Pending = append(st.Pending, a)
		}
	}
	return st
}

// Initialize resolves the existing session, if any, and loads its profile.
// The store reaches PhaseReady exactly once regardless of outcome.
func (s *Store) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		s.mu.Lock()
		s.phase = PhaseAuthenticating
		s.mu.Unlock()

		defer func() {
			s.mu.Lock()
			s.phase = PhaseReady
			s.mu.Unlock()
		}()

		id, err := s.provider.CurrentIdentity(ctx)
		if err != nil {
			s.logger.DebugContext(ctx, "no usable session", "error", err)
			s.mu.Lock()
			s.sessionErr = err
			s.mu.Unlock()
			return
		}
		if id == nil {
			return
		}

		s.setIdentity(id)
		s.LoadProfile(ctx, id.ID)
	})
}

// LoadProfile fetches the profile for identityID, creating it with the
// client role when none exists yet. Backend failures leave the profile nil
// but mark it loaded.
func (s *Store) LoadProfile(ctx context.Context, identityID string) *profile.Profile {
	if identityID == "" {
		s.setProfile(nil, false)
		return nil
	}

	done := s.begin(ActionLoadProfile)
	defer done()

	p, err := s.profiles.GetByID(ctx, identityID)
	if errors.Is(err, core.ErrNotFound) {
		p, err = s.synthesizeProfile(ctx, identityID)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "load profile failed",
			"identity_id", identityID,
			"error", err,
		)
		s.setProfile(nil, true)
		return nil
	}

	s.setProfile(p, true)
	return p
}

func (s *Store) synthesizeProfile(
	ctx context.Context,
	identityID string,
) (*profile.Profile, error) {
	s.mu.RLock()
	id := s.identity
	s.mu.RUnlock()

	if id == nil || id.ID != identityID {
		return nil, fmt.Errorf("synthesize profile: identity %s not current: %w",
			identityID, core.ErrNotFound)
	}

	p := &profile.Profile{
		ID:       id.ID,
		Email:    id.Email,
		FullName: DeriveName(id, s.placeholder),
		Role:     profile.RoleClient,
	}
	if err := s.profiles.Create(ctx, p); err != nil &&
		!errors.Is(err, core.ErrDuplicateKey) {
		return nil, fmt.Errorf("synthesize profile: %w", err)
	}

	s.logger.InfoContext(ctx, "profile synthesized",
		"identity_id", id.ID,
		"provider", id.Provider,
	)

	return s.profiles.GetByID(ctx, identityID)
}

func (s *Store) Login(ctx context.Context, email, password string) error {
	done := s.begin(ActionLogin)
	defer done()

	if _, err := s.provider.SignInWithPassword(ctx, email, password); err != nil {
		s.fail(ctx, "Login failed", err)
		return err
	}

	s.notifier.Notify(ctx, notify.Success("Welcome back", "You are signed in."))
	return nil
}

type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// Register creates a client account. The role is not caller-selectable; the
// profile is synthesized as client on first sign-in.
func (s *Store) Register(ctx context.Context, req RegisterRequest) (*SignUpResult, error) {
	done := s.begin(ActionRegister)
	defer done()

	res, err := s.provider.SignUp(ctx, SignUpParams{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.Name,
	})
	if err != nil {
		s.fail(ctx, "Registration failed", err)
		return nil, err
	}

	msg := "Your account is ready."
	if res.ConfirmationRequired {
		msg = "Check your email to confirm your account."
	}
	s.notifier.Notify(ctx, notify.Success("Registration successful", msg))

	return res, nil
}

// LoginWithGoogle returns the consent page URL. The session changes only
// when the callback completes.
func (s *Store) LoginWithGoogle(ctx context.Context) (string, error) {
	done := s.begin(ActionGoogle)
	defer done()

	url, err := s.provider.SignInWithProvider(ctx, "google")
	if err != nil {
		s.fail(ctx, "Google sign-in failed", err)
		return "", err
	}
	return url, nil
}

func (s *Store) Logout(ctx context.Context) error {
	done := s.begin(ActionLogout)
	defer done()

	if err := s.provider.SignOut(ctx); err != nil {
		s.fail(ctx, "Sign out failed", err)
		return err
	}
	return nil
}

type AdminRequest struct {
	Name     string
	Email    string
	Password string
}

// CreateAdmin registers a new identity and gives it an admin profile. The
// new admin may have to confirm their email before the first sign-in.
func (s *Store) CreateAdmin(ctx context.Context, req AdminRequest) (*profile.Profile, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	done := s.begin(ActionCreateAdmin)
	defer done()

	res, err := s.provider.CreateIdentity(ctx, SignUpParams{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.Name,
	})
	if err != nil {
		s.fail(ctx, "Could not create administrator", err)
		return nil, err
	}

	p := &profile.Profile{
		ID:       res.Identity.ID,
		Email:    res.Identity.Email,
		FullName: req.Name,
		Role:     profile.RoleAdmin,
	}
	if err := s.profiles.Upsert(ctx, p); err != nil {
		s.fail(ctx, "Could not create administrator", err)
		return nil, err
	}

	if res.ConfirmationRequired {
		s.notifier.Notify(ctx, notify.Info(
			"Administrator created",
			fmt.Sprintf("%s must confirm their email before signing in.", p.Email),
		))
	} else {
		s.notifier.Notify(ctx, notify.Success(
			"Administrator created",
			p.Email+" can now sign in.",
		))
	}

	return p, nil
}

func (s *Store) GetAllUsers(ctx context.Context) ([]profile.Profile, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	users, err := s.profiles.ListAll(ctx)
	if err != nil {
		s.fail(ctx, "Could not load users", err)
		return nil, err
	}
	return users, nil
}

// DeleteUser removes a profile and, when the provider can, its identity. It
// reports whether the identity is gone too. Removing oneself signs out.
func (s *Store) DeleteUser(ctx context.Context, userID string) (bool, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return false, err
	}

	done := s.begin(ActionDeleteUser)
	defer done()

	if err := s.profiles.Delete(ctx, userID); err != nil {
		s.fail(ctx, "Could not delete user", err)
		return false, err
	}

	identityDeleted := false
	if remover, ok := s.provider.(IdentityRemover); ok {
		if err := remover.DeleteIdentity(ctx, userID); err != nil {
			s.logger.WarnContext(ctx, "identity deletion failed",
				"user_id", userID,
				"error", err,
			)
		} else {
			identityDeleted = true
		}
	}

	if identityDeleted {
		s.notifier.Notify(ctx, notify.Success("User deleted", "The account was removed."))
	} else {
		s.notifier.Notify(ctx, notify.Warning(
			"Profile deleted",
			"The sign-in account could not be removed; full account deletion may be incomplete.",
		))
	}

	s.mu.RLock()
	self := s.identity != nil && s.identity.ID == userID
	s.mu.RUnlock()

	if self {
		_ = s.Logout(ctx) //nolint:errcheck // failure already notified
	}

	return identityDeleted, nil
}

// Close detaches the store from provider events.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *Store) handleEvent(ctx context.Context, e Event) {
	switch e.Type {
	case EventSignedIn:
		if e.Identity == nil {
			return
		}
		s.setIdentity(e.Identity)
		s.LoadProfile(ctx, e.Identity.ID)
	case EventTokenRefreshed:
		if e.Identity != nil {
			s.setIdentity(e.Identity)
		}
	case EventSignedOut:
		s.mu.Lock()
		s.identity = nil
		s.profile = nil
		s.profileLoaded = false
		s.mu.Unlock()
	}
}

func (s *Store) requireAdmin(ctx context.Context) error {
	if s.State().IsAdmin() {
		return nil
	}
	err := fmt.Errorf("admin only: %w", core.ErrForbidden)
	s.notifier.Notify(ctx, notify.Error("Not allowed", "Administrator access is required."))
	return err
}

func (s *Store) fail(ctx context.Context, title string, err error) {
	s.logger.WarnContext(ctx, title, "error", err)
	s.notifier.Notify(ctx, notify.Error(title, userMessage(err)))
}

func userMessage(err error) string {
	if appErr, ok := core.AsAppError(err); ok {
		return appErr.Message
	}
	return "Something went wrong, please try again."
}

func (s *Store) begin(a Action) func() {
	s.mu.Lock()
	s.pending[a]++
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.pending[a]--
		if s.pending[a] <= 0 {
			delete(s.pending, a)
		}
		s.mu.Unlock()
	}
}

func (s *Store) setIdentity(id *Identity) {
	s.mu.Lock()
	s.identity = id
	s.mu.Unlock()
}

func (s *Store) setProfile(p *profile.Profile, loaded bool) {
	s.mu.Lock()
	s.profile = p
	s.profileLoaded = loaded
	s.mu.Unlock()
}
