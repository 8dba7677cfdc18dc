// AngelaMos | 2026
// handler_test.go

package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/catalog"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/storage"
)

type lookup map[string]catalog.Product

func (l lookup) Product(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := l[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &p, nil
}

func call(t *testing.T, h http.Handler, userID, method, path, body string) (int, core.Response) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	ctx := notify.ContextWithRecorder(req.Context(), notify.NewRecorder())
	if userID != "" {
		ctx = middleware.WithIdentity(ctx, userID, "client")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req.WithContext(ctx))

	var resp core.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestCartEndpoints(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(storage.NewMemoryKV(), "cart:", lookup{
		"1": product("1", 1, 10),
	}).RegisterRoutes(r)

	code, _ := call(t, r, "", http.MethodGet, "/cart", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, resp := call(t, r, "u1", http.MethodPost, "/cart/items", `{"product_id":"1"}`)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, float64(1), resp.Data.(map[string]any)["total_items"])

	code, resp = call(t, r, "u1", http.MethodPost, "/cart/items", `{"product_id":"1"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INSUFFICIENT_STOCK", resp.Error.Code)

	code, _ = call(t, r, "u1", http.MethodPost, "/cart/items", `{"product_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = call(t, r, "u1", http.MethodPut, "/cart/items/1", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, resp.Data.(map[string]any)["lines"])
}

func TestSoldOutProductStaysOutOfCart(t *testing.T) {
	kv := storage.NewMemoryKV()
	r := chi.NewRouter()
	NewHandler(kv, "cart:", lookup{
		"gone": product("gone", 0, 10),
	}).RegisterRoutes(r)

	code, resp := call(t, r, "u1", http.MethodPost, "/cart/items", `{"product_id":"gone"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INSUFFICIENT_STOCK", resp.Error.Code)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "Out of stock", resp.Notifications[0].Title)

	code, resp = call(t, r, "u1", http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, resp.Data.(map[string]any)["lines"])
	assert.Equal(t, float64(0), resp.Data.(map[string]any)["total_items"])
}
