package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/mkuzmin/blogd/internal/common"
	"github.com/mkuzmin/blogd/internal/server/config"
	"github.com/mkuzmin/blogd/internal/server/media"
	"github.com/mkuzmin/blogd/internal/server/models"
	"github.com/mkuzmin/blogd/internal/server/repositories/posts"
	"github.com/mkuzmin/blogd/internal/server/repositories/repomanager"
)

// PostInput carries the caller-supplied post fields.
type PostInput struct {
	Title   string
	Summary string
	Content string
	Cover   string
}

// ImageFile is an image payload destined for the media host.
type ImageFile struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// PostService implements post CRUD on top of the post store and the media
// uploader.
type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	uploader    media.Uploader
	config      *config.Config
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager, uploader media.Uploader, cfg *config.Config) *PostService {
	return &PostService{
		db:          db,
		repomanager: m,
		uploader:    uploader,
		config:      cfg,
	}
}

// Create uploads the image, then creates a post authored by authorID.
// The image is required; upload failures surface as ErrorUploadFailed.
func (s *PostService) Create(ctx context.Context, authorID string, in PostInput, image *ImageFile) (*models.Post, error) {
	if image == nil {
		return nil, common.ErrorValidation
	}

	cover, err := s.uploader.Upload(ctx, image.Filename, image.ContentType, image.Body)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Posts(s.db)
	post := &models.Post{
		Title:    in.Title,
		Summary:  in.Summary,
		Content:  in.Content,
		Cover:    cover,
		AuthorID: authorID,
	}

	post, err = repo.Create(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	return post, nil
}

// GetByID returns the post with its author resolved, or ErrorNotFound.
func (s *PostService) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	repo := s.repomanager.Posts(s.db)
	return repo.GetByID(ctx, id)
}

// List returns matching posts, newest first. Pages are 1-based; a page or
// limit below 1 is clamped so the computed offset is never negative. The
// fallback page size comes from configuration.
func (s *PostService) List(ctx context.Context, titleFilter string, page, limit int) ([]*models.Post, error) {
	if limit <= 0 {
		limit = s.config.DefaultPageSize
	}
	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}

	repo := s.repomanager.Posts(s.db)
	return repo.List(ctx, posts.Filter{Title: titleFilter}, offset, limit)
}

// Count returns the number of posts matching the same filter List uses,
// ignoring pagination.
func (s *PostService) Count(ctx context.Context, titleFilter string) (int64, error) {
	repo := s.repomanager.Posts(s.db)
	return repo.Count(ctx, posts.Filter{Title: titleFilter})
}

// Update replaces all fields of the post. A fresh image takes precedence
// over the supplied cover value; the author is reassigned to the caller.
func (s *PostService) Update(ctx context.Context, id, authorID string, in PostInput, image *ImageFile) (*models.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	cover := in.Cover
	if image != nil {
		uploaded, err := s.uploader.Upload(ctx, image.Filename, image.ContentType, image.Body)
		if err != nil {
			return nil, err
		}
		cover = uploaded
	}

	repo := s.repomanager.Posts(s.db)
	post := &models.Post{
		ID:       id,
		Title:    in.Title,
		Summary:  in.Summary,
		Content:  in.Content,
		Cover:    cover,
		AuthorID: authorID,
	}

	post, err := repo.Update(ctx, post)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error updating post: %w", err)
	}

	return post, nil
}

// Delete removes the post after checking that callerID matches the post's
// author. A missing post yields ErrorNotFound, a foreign post ErrorForbidden.
func (s *PostService) Delete(ctx context.Context, id, callerID string) (*models.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	repo := s.repomanager.Posts(s.db)

	post, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != callerID {
		return nil, common.ErrorForbidden
	}

	return repo.Delete(ctx, id)
}
