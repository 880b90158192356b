package report

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	List(ctx context.Context, q *ListEntriesQuery) (*PagedEntries, error)
	// ListAll returns every entry in creation order for aggregate export.
	ListAll(ctx context.Context) ([]*Entry, error)
}
