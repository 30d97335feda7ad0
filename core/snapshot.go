package core

import (
	"context"
	"sync/atomic"

	"github.com/huangsam/perfhist/internal/contract"
)

// Holder keeps the current store for long-running readers.
// Reload builds a complete new store before swapping it in, so readers never see a
// partially built snapshot, and a failed reload leaves the previous one in place.
type Holder struct {
	current atomic.Pointer[Store]
	cfg     *contract.Config
	mgr     contract.CacheManager
}

// NewHolder creates a holder that loads with the given configuration. It holds no store until Reload.
func NewHolder(cfg *contract.Config, mgr contract.CacheManager) *Holder {
	return &Holder{cfg: cfg, mgr: mgr}
}

// Current returns the latest store, or nil before the first successful load.
func (h *Holder) Current() *Store {
	return h.current.Load()
}

// Reload loads a new store and swaps it in.
func (h *Holder) Reload(ctx context.Context) (*Store, error) {
	store, err := LoadStore(ctx, h.cfg, h.mgr)
	if err != nil {
		return nil, err
	}
	h.current.Store(store)
	return store, nil
}

// Set swaps in an already built store.
func (h *Holder) Set(store *Store) {
	h.current.Store(store)
}
