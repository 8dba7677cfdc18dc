// AngelaMos | 2026
// view.go

// Package client holds the client application pieces that span several
// stores: the remembered view and checkout.
package client

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/storage"
)

type View string

const (
	ViewProducts  View = "products"
	ViewOrders    View = "orders"
	ViewFavorites View = "favorites"
)

func (v View) Valid() bool {
	switch v {
	case ViewProducts, ViewOrders, ViewFavorites:
		return true
	}
	return false
}

// ViewStore remembers the last view a client had open.
type ViewStore struct {
	kv  storage.KV
	key string
}

func NewViewStore(kv storage.KV, prefix, userID string) *ViewStore {
	return &ViewStore{kv: kv, key: prefix + userID}
}

// Get falls back to the products view when nothing usable is stored.
func (s *ViewStore) Get(ctx context.Context) (View, error) {
	var v View
	found, err := storage.GetJSON(ctx, s.kv, s.key, &v)
	if err != nil {
		return ViewProducts, fmt.Errorf("load view: %w", err)
	}
	if !found || !v.Valid() {
		return ViewProducts, nil
	}
	return v, nil
}

func (s *ViewStore) Set(ctx context.Context, v View) error {
	if !v.Valid() {
		return fmt.Errorf("view %q: %w", v, core.ErrInvalidInput)
	}
	if err := storage.SetJSON(ctx, s.kv, s.key, v); err != nil {
		return fmt.Errorf("save view: %w", err)
	}
	return nil
}
