package repository

import (
	"context"

	"github.com/iliyamo/portfolio-api/internal/model"
)

// UserStore is the credential store. Create must report ErrConflict when the
// username already exists and must persist PasswordHash as given.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Count(ctx context.Context) (int64, error)
}

// DocumentStore persists one kind of CV document.
//
// List returns documents newest first. Create assigns ID, CreatedAt and
// UpdatedAt on doc. Update replaces mutable fields and refreshes UpdatedAt,
// returning ErrNotFound for an unknown id. Delete succeeds whether or not the
// id existed.
type DocumentStore[T any] interface {
	List(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, doc *T) error
	Update(ctx context.Context, doc *T) error
	Delete(ctx context.Context, id string) error
}

// Stores bundles every store the API needs; main builds it from the configured driver.
type Stores struct {
	Users      UserStore
	Posts      DocumentStore[model.Post]
	Education  DocumentStore[model.Education]
	Experience DocumentStore[model.Experience]
}
