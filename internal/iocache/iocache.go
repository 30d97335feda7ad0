package iocache

import (
	"sync"

	"github.com/huangsam/perfhist/internal/contract"
)

// CacheStoreManager manages the parse cache and load history stores.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	parse        contract.CacheStore
	history      contract.HistoryStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetParseStore returns the parse cache store.
func (mgr *CacheStoreManager) GetParseStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.parse
}

// GetHistoryStore returns the load history store.
func (mgr *CacheStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
