// AngelaMos | 2026
// client_test.go

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/profile"
	"github.com/carterperez-dev/storefront/internal/session"
)

type memProfiles struct {
	mu   sync.Mutex
	rows map[string]profile.Profile
}

func (m *memProfiles) GetByID(_ context.Context, id string) (*profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &p, nil
}

func (m *memProfiles) Create(_ context.Context, p *profile.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p.ID] = *p
	return nil
}

func (m *memProfiles) Upsert(ctx context.Context, p *profile.Profile) error {
	return m.Create(ctx, p)
}

func (m *memProfiles) ListAll(context.Context) ([]profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]profile.Profile, 0, len(m.rows))
	for _, p := range m.rows {
		out = append(out, p)
	}
	return out, nil
}

func (m *memProfiles) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

// attach wires a request the way the role dispatcher does.
func attach(f *fixture, profiles *memProfiles, r *http.Request) (*http.Request, *session.Store) {
	rec := notify.NewRecorder()
	client := f.svc.NewClient(extractBearer(r), ClientInfoFromRequest(r))
	store := session.NewStore(session.Options{
		Provider: client,
		Profiles: profiles,
		Notifier: rec,
	})
	ctx := notify.ContextWithRecorder(r.Context(), rec)
	ctx = NewContext(ctx, client)
	ctx = session.NewContext(ctx, store)
	store.Initialize(ctx)
	return r.WithContext(ctx), store
}

func extractBearer(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) {
		return h[len(prefix):]
	}
	return ""
}

func serve(
	t *testing.T,
	f *fixture,
	profiles *memProfiles,
	method, path string,
	body any,
	token string,
) (*httptest.ResponseRecorder, core.Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req, store := attach(f, profiles, req)
	defer store.Close()

	router := chi.NewRouter()
	NewHandler(f.svc, "").RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp core.Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func tokensFrom(t *testing.T, resp core.Response) TokenPair {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var out struct {
		Tokens TokenPair `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out.Tokens
}

func TestRegisterLoginSessionFlow(t *testing.T) {
	f := newFixture(t, config.AuthConfig{})
	profiles := &memProfiles{rows: map[string]profile.Profile{}}

	w, resp := serve(t, f, profiles, http.MethodPost, "/auth/register", RegisterRequest{
		Email: "flow@shop.test", Password: "password1", Name: "Flow User",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotEmpty(t, resp.Notifications)
	assert.Equal(t, notify.LevelSuccess, resp.Notifications[0].Level)

	tokens := tokensFrom(t, resp)
	require.NotEmpty(t, tokens.AccessToken)

	require.Len(t, profiles.rows, 1)
	for _, p := range profiles.rows {
		assert.Equal(t, profile.RoleClient, p.Role)
		assert.Equal(t, "Flow User", p.FullName)
	}

	w, resp = serve(t, f, profiles, http.MethodGet, "/auth/session", nil, tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["authenticated"])
	assert.Equal(t, "client", data["profile"].(map[string]any)["role"])

	w, _ = serve(t, f, profiles, http.MethodPost, "/auth/logout",
		LogoutRequest{RefreshToken: tokens.RefreshToken}, tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)

	_, resp = serve(t, f, profiles, http.MethodGet, "/auth/session", nil, tokens.AccessToken)
	data = resp.Data.(map[string]any)
	assert.Equal(t, false, data["authenticated"])
}

func TestLoginFailureCarriesNotification(t *testing.T) {
	f := newFixture(t, config.AuthConfig{})
	profiles := &memProfiles{rows: map[string]profile.Profile{}}

	w, resp := serve(t, f, profiles, http.MethodPost, "/auth/login", LoginRequest{
		Email: "nobody@shop.test", Password: "password1",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, notify.LevelError, resp.Notifications[0].Level)
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t, config.AuthConfig{})
	profiles := &memProfiles{rows: map[string]profile.Profile{}}

	w, _ := serve(t, f, profiles, http.MethodPost, "/auth/login", LoginRequest{
		Email: "not-an-email", Password: "short",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshEndpointRotates(t *testing.T) {
	f := newFixture(t, config.AuthConfig{})
	profiles := &memProfiles{rows: map[string]profile.Profile{}}

	res, err := f.svc.SignUp(context.Background(), "rot@shop.test", "password1", "Rot", testClient)
	require.NoError(t, err)

	w, resp := serve(t, f, profiles, http.MethodPost, "/auth/refresh",
		RefreshRequest{RefreshToken: res.Tokens.RefreshToken}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEqual(t, res.Tokens.RefreshToken, tokensFrom(t, resp).RefreshToken)

	w, resp = serve(t, f, profiles, http.MethodPost, "/auth/refresh",
		RefreshRequest{RefreshToken: res.Tokens.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "TOKEN_REUSE_DETECTED", resp.Error.Code)
}

func TestGoogleRedirect(t *testing.T) {
	f := newFixture(t, config.AuthConfig{})
	profiles := &memProfiles{rows: map[string]profile.Profile{}}

	w, resp := serve(t, f, profiles, http.MethodGet, "/auth/google", nil, "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Nil(t, resp.Error)
	assert.Contains(t, w.Header().Get("Location"), "https://accounts.example/auth?state=")
}

func TestExpiredSessionReportsError(t *testing.T) {
	f := newFixture(t, config.AuthConfig{})

	client := f.svc.NewClient("garbage", testClient)
	_, err := client.CurrentIdentity(context.Background())

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "TOKEN_INVALID", appErr.Code)
}
