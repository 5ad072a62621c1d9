// Package posts persists blog post records.
package posts

import (
	"context"

	"github.com/mkuzmin/blogd/internal/server/models"
)

// Filter narrows List and Count results. An empty Title means no filtering;
// otherwise it is matched as a case-insensitive substring of the post title.
type Filter struct {
	Title string
}

type Repository interface {
	// Create inserts a new post and returns it with id and timestamps set.
	Create(ctx context.Context, post *models.Post) (*models.Post, error)

	// GetByID returns the post with its author resolved best-effort, or
	// common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Post, error)

	// List returns posts matching the filter, newest first, with the author
	// resolved best-effort, paginated by offset/limit.
	List(ctx context.Context, filter Filter, offset, limit int) ([]*models.Post, error)

	// Count returns the number of posts matching the filter, ignoring
	// pagination.
	Count(ctx context.Context, filter Filter) (int64, error)

	// Update replaces all mutable fields of the post, including the author,
	// and bumps updated_at. A missing id yields common.ErrorNotFound.
	Update(ctx context.Context, post *models.Post) (*models.Post, error)

	// Delete removes the post and returns the deleted record, or
	// common.ErrorNotFound.
	Delete(ctx context.Context, id string) (*models.Post, error)
}
