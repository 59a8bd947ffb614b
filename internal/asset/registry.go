package asset

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is a thread-safe set of known assets for one chain.
type Registry struct {
	chainID uint64
	byID    map[AssetID]*Asset
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry for a chain.
func NewRegistry(chainID uint64) *Registry {
	return &Registry{chainID: chainID, byID: make(map[AssetID]*Asset)}
}

// ChainID returns the chain the registry serves.
func (r *Registry) ChainID() uint64 { return r.chainID }

// Register adds an asset, replacing a previous entry with the same id.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[a.ID()] = a
}

// Get retrieves an asset by id.
func (r *Registry) Get(id AssetID) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	return a, ok
}

// Token retrieves a token by contract address.
func (r *Registry) Token(addr common.Address) (*Asset, bool) {
	if addr == (common.Address{}) {
		return nil, false
	}
	return r.Get(NewTokenAssetID(r.chainID, addr))
}

// Has reports whether a token address is registered.
func (r *Registry) Has(addr common.Address) bool {
	_, ok := r.Token(addr)
	return ok
}

// Symbol returns the token symbol, or an abbreviated address for unknown tokens.
func (r *Registry) Symbol(addr common.Address) string {
	if a, ok := r.Token(addr); ok {
		return a.Symbol()
	}
	h := addr.Hex()
	return fmt.Sprintf("%s…%s", h[:6], h[len(h)-4:])
}

// All returns all registered assets.
func (r *Registry) All() []*Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Asset, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	return out
}

// Count returns the number of registered assets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
