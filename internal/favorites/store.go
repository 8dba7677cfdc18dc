// AngelaMos | 2026
// store.go

package favorites

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/storage"
)

// Store is a user's set of favorite product ids, kept in insertion order.
type Store struct {
	mu       sync.Mutex
	kv       storage.KV
	key      string
	notifier notify.Notifier
	ids      []string
}

func NewStore(kv storage.KV, prefix, userID string, notifier notify.Notifier) *Store {
	if notifier == nil {
		notifier = notify.Context
	}
	return &Store{
		kv:       kv,
		key:      prefix + userID,
		notifier: notifier,
	}
}

func (s *Store) Load(ctx context.Context) error {
	var ids []string
	if _, err := storage.GetJSON(ctx, s.kv, s.key, &ids); err != nil {
		return fmt.Errorf("load favorites: %w", err)
	}

	s.mu.Lock()
	s.ids = ids
	s.mu.Unlock()
	return nil
}

func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ids)
}

func (s *Store) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.ids, productID)
}

// Toggle adds productID when absent and removes it when present. It reports
// whether the product is a favorite afterwards.
func (s *Store) Toggle(ctx context.Context, productID string) (bool, error) {
	s.mu.Lock()
	added := !slices.Contains(s.ids, productID)
	if added {
		s.ids = append(s.ids, productID)
	} else {
		s.ids = slices.DeleteFunc(s.ids, func(id string) bool { return id == productID })
	}

	ids := s.ids
	if ids == nil {
		ids = []string{}
	}
	err := storage.SetJSON(ctx, s.kv, s.key, ids)
	s.mu.Unlock()
	if err != nil {
		return added, fmt.Errorf("save favorites: %w", err)
	}

	if added {
		s.notifier.Notify(ctx, notify.Success("Added to favorites",
			"The product was added to your favorites."))
	} else {
		s.notifier.Notify(ctx, notify.Success("Removed from favorites",
			"The product was removed from your favorites."))
	}
	return added, nil
}
