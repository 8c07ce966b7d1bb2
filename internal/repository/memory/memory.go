// Package memory keeps every store in process memory. It backs
// STORE_DRIVER=memory and the end-to-end tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/portfolio-api/internal/model"
	"github.com/iliyamo/portfolio-api/internal/repository"
)

type entry[T any] struct {
	seq uint64
	doc T
}

// Collection is a DocumentStore over a map. Documents created within the same
// clock tick are ordered by insertion.
type Collection[T any, PT interface {
	*T
	model.Document
}] struct {
	mu   sync.RWMutex
	seq  uint64
	docs map[string]entry[T]
	now  func() time.Time
}

func NewCollection[T any, PT interface {
	*T
	model.Document
}]() *Collection[T, PT] {
	return &Collection[T, PT]{docs: map[string]entry[T]{}, now: time.Now}
}

func (c *Collection[T, PT]) List(_ context.Context) ([]T, error) {
	c.mu.RLock()
	entries := make([]entry[T], 0, len(c.docs))
	for _, e := range c.docs {
		entries = append(entries, e)
	}
	c.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		ci, cj := PT(&entries[i].doc).Base().CreatedAt, PT(&entries[j].doc).Base().CreatedAt
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return entries[i].seq > entries[j].seq
	})
	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.doc
	}
	return out, nil
}

func (c *Collection[T, PT]) GetByID(_ context.Context, id string) (*T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	doc := e.doc
	return &doc, nil
}

func (c *Collection[T, PT]) Create(_ context.Context, doc *T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now().UTC()
	meta := PT(doc).Base()
	meta.ID, meta.CreatedAt, meta.UpdatedAt = uuid.NewString(), now, now
	c.seq++
	c.docs[meta.ID] = entry[T]{seq: c.seq, doc: *doc}
	return nil
}

func (c *Collection[T, PT]) Update(_ context.Context, doc *T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	meta := PT(doc).Base()
	prev, ok := c.docs[meta.ID]
	if !ok {
		return repository.ErrNotFound
	}
	meta.CreatedAt = PT(&prev.doc).Base().CreatedAt
	meta.UpdatedAt = c.now().UTC()
	c.docs[meta.ID] = entry[T]{seq: prev.seq, doc: *doc}
	return nil
}

func (c *Collection[T, PT]) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	delete(c.docs, id)
	c.mu.Unlock()
	return nil
}

// Users is an in-memory UserStore keyed by username.
type Users struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewUsers() *Users { return &Users{users: map[string]model.User{}} }

func (s *Users) Create(_ context.Context, u *model.User) error {
	name := strings.TrimSpace(u.Username)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[name]; ok {
		return repository.ErrConflict
	}
	now := time.Now().UTC()
	u.ID, u.Username, u.CreatedAt, u.UpdatedAt = uuid.NewString(), name, now, now
	s.users[name] = *u
	return nil
}

func (s *Users) GetByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[strings.TrimSpace(username)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Users) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

// NewStores returns an empty set of in-memory stores.
func NewStores() repository.Stores {
	return repository.Stores{
		Users:      NewUsers(),
		Posts:      NewCollection[model.Post](),
		Education:  NewCollection[model.Education](),
		Experience: NewCollection[model.Experience](),
	}
}
