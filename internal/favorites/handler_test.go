// AngelaMos | 2026
// handler_test.go

package favorites

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/middleware"
	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/storage"
)

func request(t *testing.T, h http.Handler, userID, method, path string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	ctx := notify.ContextWithRecorder(req.Context(), notify.NewRecorder())
	if userID != "" {
		ctx = middleware.WithIdentity(ctx, userID, "client")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req.WithContext(ctx))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestFavoriteEndpoints(t *testing.T) {
	kv := storage.NewMemoryKV()
	r := chi.NewRouter()
	NewHandler(kv, "fav:").RegisterRoutes(r)

	code, _ := request(t, r, "", http.MethodGet, "/favorites")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := request(t, r, "u1", http.MethodGet, "/favorites")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{}, body["data"].(map[string]any)["product_ids"])

	code, body = request(t, r, "u1", http.MethodPost, "/favorites/p1")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["data"].(map[string]any)["favorite"])

	stored := NewStore(kv, "fav:", "u1", nil)
	require.NoError(t, stored.Load(context.Background()))
	assert.True(t, stored.Contains("p1"))

	code, body = request(t, r, "u1", http.MethodPost, "/favorites/p1")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["data"].(map[string]any)["favorite"])

	_, body = request(t, r, "u2", http.MethodGet, "/favorites")
	assert.Equal(t, []any{}, body["data"].(map[string]any)["product_ids"])
}
