// Package batch implements the bulk CV analysis pipeline: admission,
// contact prefetch, bounded-concurrency analysis, the deep second pass,
// and aggregation into hire-pipeline candidate records.
package batch

import (
	"sync"

	"github.com/reclutahub/recluta-cli/internal/model"
)

// Registry is the shared table of CV items for one batch, keyed by item id.
// It is mutated concurrently by the main pipeline, the contact prefetcher,
// and the deep-analysis pass, so every mutation goes through Update as an
// id-keyed functional patch. Whole-collection replacement is deliberately
// not offered: rebuilding the list from a stale snapshot loses updates when
// two callbacks resolve out of order.
type Registry struct {
	mu    sync.RWMutex
	items map[string]*model.CVItem
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]*model.CVItem)}
}

// Add inserts a new item. Items keep intake order for listing.
func (r *Registry) Add(item model.CVItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[item.ID]; exists {
		return
	}
	copied := item
	r.items[item.ID] = &copied
	r.order = append(r.order, item.ID)
}

// Get returns a copy of the item with the given id.
func (r *Registry) Get(id string) (model.CVItem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return model.CVItem{}, false
	}
	return *item, true
}

// Update applies a functional patch to the item with the given id. It is
// the single mutation entry point for pipeline callbacks. Returns false if
// the item no longer exists (e.g. removed by the user mid-run).
func (r *Registry) Update(id string, patch func(*model.CVItem)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return false
	}
	patch(item)
	return true
}

// Remove deletes an item.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return
	}
	delete(r.items, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Items returns copies of all items in intake order.
func (r *Registry) Items() []model.CVItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.CVItem, 0, len(r.order))
	for _, id := range r.order {
		if item, ok := r.items[id]; ok {
			out = append(out, *item)
		}
	}
	return out
}

// Len returns the number of queued items.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Clear removes every item.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[string]*model.CVItem)
	r.order = nil
}

// ResetToUpload rewinds every item to the upload step: status, progress,
// analysis, deep analysis and error are reset; contact data is kept so the
// user does not re-enter it.
func (r *Registry) ResetToUpload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		item.Status = model.StatusPending
		item.Progress = 0
		item.Analysis = nil
		item.Deep = nil
		item.RawText = ""
		item.Error = ""
	}
}
