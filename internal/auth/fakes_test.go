// AngelaMos | 2026
// fakes_test.go

package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/oauth"
)

type memIdentities struct {
	mu   sync.Mutex
	rows map[string]*Identity
}

func newMemIdentities() *memIdentities {
	return &memIdentities{rows: map[string]*Identity{}}
}

func (m *memIdentities) Create(_ context.Context, identity *Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity.Email = strings.ToLower(identity.Email)
	for _, row := range m.rows {
		if row.Email == identity.Email {
			return core.ErrDuplicateKey
		}
	}
	identity.CreatedAt = time.Now()
	identity.UpdatedAt = identity.CreatedAt
	cp := *identity
	m.rows[identity.ID] = &cp
	return nil
}

func (m *memIdentities) find(match func(*Identity) bool) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if match(row) {
			cp := *row
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memIdentities) GetByID(_ context.Context, id string) (*Identity, error) {
	return m.find(func(i *Identity) bool { return i.ID == id })
}

func (m *memIdentities) GetByEmail(_ context.Context, email string) (*Identity, error) {
	email = strings.ToLower(email)
	return m.find(func(i *Identity) bool { return i.Email == email })
}

func (m *memIdentities) GetByProviderSubject(_ context.Context, provider, subject string) (*Identity, error) {
	return m.find(func(i *Identity) bool {
		return i.Provider == provider && i.ProviderSubject != nil && *i.ProviderSubject == subject
	})
}

func (m *memIdentities) update(id string, fn func(*Identity)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return core.ErrNotFound
	}
	fn(row)
	return nil
}

func (m *memIdentities) LinkProvider(_ context.Context, id, provider, subject string) error {
	return m.update(id, func(i *Identity) {
		i.Provider = provider
		i.ProviderSubject = &subject
		if i.EmailConfirmedAt == nil {
			now := time.Now()
			i.EmailConfirmedAt = &now
		}
	})
}

func (m *memIdentities) ConfirmEmail(_ context.Context, id string) error {
	return m.update(id, func(i *Identity) {
		now := time.Now()
		i.EmailConfirmedAt = &now
	})
}

func (m *memIdentities) UpdatePassword(_ context.Context, id, hash string) error {
	return m.update(id, func(i *Identity) { i.PasswordHash = &hash })
}

func (m *memIdentities) IncrementTokenVersion(_ context.Context, id string) error {
	return m.update(id, func(i *Identity) { i.TokenVersion++ })
}

func (m *memIdentities) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memTokens struct {
	mu   sync.Mutex
	rows map[string]*RefreshToken
}

func newMemTokens() *memTokens {
	return &memTokens{rows: map[string]*RefreshToken{}}
}

func (m *memTokens) Create(_ context.Context, token *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token.CreatedAt = time.Now()
	cp := *token
	m.rows[token.ID] = &cp
	return nil
}

func (m *memTokens) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.TokenHash == hash {
			cp := *row
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memTokens) MarkAsUsed(_ context.Context, id, replacedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.IsUsed {
		return core.ErrNotFound
	}
	now := time.Now()
	row.IsUsed = true
	row.UsedAt = &now
	row.ReplacedByID = &replacedBy
	return nil
}

func (m *memTokens) revokeWhere(match func(*RefreshToken) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	now := time.Now()
	for _, row := range m.rows {
		if match(row) && row.RevokedAt == nil {
			row.RevokedAt = &now
			n++
		}
	}
	return n
}

func (m *memTokens) RevokeByID(_ context.Context, id string) error {
	if m.revokeWhere(func(t *RefreshToken) bool { return t.ID == id }) == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (m *memTokens) RevokeByFamilyID(_ context.Context, familyID string) error {
	m.revokeWhere(func(t *RefreshToken) bool { return t.FamilyID == familyID })
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID string) error {
	m.revokeWhere(func(t *RefreshToken) bool { return t.UserID == userID })
	return nil
}

func (m *memTokens) DeleteExpired(_ context.Context, olderThan time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var n int64
	for id, row := range m.rows {
		if row.ExpiresAt.Before(cutoff) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

type stubProvider struct {
	claims       *oauth.Claims
	err          error
	lastVerifier string
}

func (s *stubProvider) Name() string { return "google" }

func (s *stubProvider) AuthCodeURL(state, verifier string) string {
	s.lastVerifier = verifier
	return "https://accounts.example/auth?state=" + state
}

func (s *stubProvider) Exchange(_ context.Context, _, verifier string) (*oauth.Claims, error) {
	if verifier != s.lastVerifier {
		return nil, oauth.ErrMissingIDToken
	}
	return s.claims, s.err
}

type capturedSender struct {
	tokens map[string]string
}

func (c *capturedSender) SendConfirmation(_ context.Context, email, token string) error {
	c.tokens[email] = token
	return nil
}

type fixture struct {
	svc        *Service
	identities *memIdentities
	tokens     *memTokens
	redis      *miniredis.Miniredis
	provider   *stubProvider
	sender     *capturedSender
}

func newFixture(t *testing.T, authCfg config.AuthConfig) *fixture {
	t.Helper()

	pem, err := GeneratePrivateKeyPEM()
	require.NoError(t, err)

	jwtManager, err := NewJWTManagerFromPEM(pem, config.JWTConfig{
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 24 * time.Hour,
		Issuer:             "storefront",
		Audience:           "storefront-api",
	})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	if authCfg.ConfirmationTTL == 0 {
		authCfg.ConfirmationTTL = time.Hour
	}
	if authCfg.OAuthStateTTL == 0 {
		authCfg.OAuthStateTTL = 10 * time.Minute
	}

	f := &fixture{
		identities: newMemIdentities(),
		tokens:     newMemTokens(),
		redis:      mr,
		provider:   &stubProvider{},
		sender:     &capturedSender{tokens: map[string]string{}},
	}
	f.svc = NewService(ServiceDeps{
		Identities: f.identities,
		Tokens:     f.tokens,
		JWT:        jwtManager,
		Redis:      rdb,
		Providers:  oauth.NewRegistry(f.provider),
		Sender:     f.sender,
		Config:     authCfg,
	})
	return f
}
