package client

import (
	"context"
	"net/http"
	"net/url"
	"sync"
)

// Resource is the client-side view of one collection. Load replaces the local
// list with the server's; mutations call the API and then Load again instead
// of patching the list locally.
//
// Every Load takes a generation number when it starts. Its result is applied
// only if no later-started Load has been applied already, so overlapping
// refreshes can finish in any order and the list still ends up reflecting
// the newest one.
type Resource[T any] struct {
	c    *Client
	path string

	mu       sync.Mutex
	issued   uint64
	applied  uint64
	items    []T
	err      error
	loaded   bool
	onChange func([]T)
}

func NewResource[T any](c *Client, path string) *Resource[T] {
	return &Resource[T]{c: c, path: path}
}

// OnChange registers fn to run with a copy of the items after each applied load.
func (r *Resource[T]) OnChange(fn func([]T)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Load fetches the collection. A failure is kept in Err until a later load
// succeeds; the previous items stay in place.
func (r *Resource[T]) Load(ctx context.Context) error {
	r.mu.Lock()
	r.issued++
	gen := r.issued
	r.mu.Unlock()

	var items []T
	err := r.c.do(ctx, http.MethodGet, r.path, nil, &items)

	r.mu.Lock()
	if gen <= r.applied {
		r.mu.Unlock()
		return err
	}
	r.applied = gen
	r.err = err
	if err == nil {
		if items == nil {
			items = []T{}
		}
		r.items = items
		r.loaded = true
	}
	fn, snapshot := r.onChange, r.copyItems()
	r.mu.Unlock()

	if err == nil && fn != nil {
		fn(snapshot)
	}
	return err
}

// Items returns a copy of the last applied list.
func (r *Resource[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.copyItems()
}

func (r *Resource[T]) copyItems() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// Err is the error of the last applied load, if it failed.
func (r *Resource[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Loaded reports whether any load has succeeded.
func (r *Resource[T]) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

func (r *Resource[T]) itemPath(id string) string { return r.path + "/" + url.PathEscape(id) }

// Get fetches one document without touching the local list.
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := r.c.do(ctx, http.MethodGet, r.itemPath(id), nil, &out)
	return out, err
}

// Add creates doc and refreshes the list. A failed refresh is reported by Err,
// not by Add, since the document was created.
func (r *Resource[T]) Add(ctx context.Context, doc T) (T, error) {
	var out T
	if err := r.c.do(ctx, http.MethodPost, r.path, doc, &out); err != nil {
		return out, err
	}
	_ = r.Load(ctx)
	return out, nil
}

// Update replaces the document with id and refreshes the list.
func (r *Resource[T]) Update(ctx context.Context, id string, doc T) (T, error) {
	var out T
	if err := r.c.do(ctx, http.MethodPut, r.itemPath(id), doc, &out); err != nil {
		return out, err
	}
	_ = r.Load(ctx)
	return out, nil
}

// Remove deletes the document with id and refreshes the list.
func (r *Resource[T]) Remove(ctx context.Context, id string) error {
	if err := r.c.do(ctx, http.MethodDelete, r.itemPath(id), nil, nil); err != nil {
		return err
	}
	_ = r.Load(ctx)
	return nil
}
