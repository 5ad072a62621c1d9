package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mkuzmin/blogd/internal/common"
	"github.com/mkuzmin/blogd/internal/dbx"
	"github.com/mkuzmin/blogd/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {

	query :=
		`INSERT INTO posts (title, summary, content, cover, author_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		post.Title, post.Summary, post.Content, post.Cover, nullID(post.AuthorID)).
		Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query :=
		`SELECT p.id, p.title, p.summary, p.content, p.cover, p.created_at, p.updated_at,
		        a.id, a.username
		 FROM posts p
		 LEFT JOIN accounts a ON a.id = p.author_id
		 WHERE p.id = $1
		 `

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter Filter, offset, limit int) ([]*models.Post, error) {
	query :=
		`SELECT p.id, p.title, p.summary, p.content, p.cover, p.created_at, p.updated_at,
		        a.id, a.username
		 FROM posts p
		 LEFT JOIN accounts a ON a.id = p.author_id
		 WHERE ($1 = '' OR p.title ILIKE '%' || $1 || '%' ESCAPE '\')
		 ORDER BY p.created_at DESC
		 OFFSET $2 LIMIT $3
		 `

	rows, err := r.db.QueryContext(ctx, query, escapeLike(filter.Title), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context, filter Filter) (int64, error) {
	query :=
		`SELECT count(*) FROM posts
		 WHERE ($1 = '' OR title ILIKE '%' || $1 || '%' ESCAPE '\')
		 `

	var n int64
	if err := r.db.QueryRowContext(ctx, query, escapeLike(filter.Title)).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}

func (r *PostgresRepository) Update(ctx context.Context, post *models.Post) (*models.Post, error) {
	query :=
		`UPDATE posts
		 SET title = $1, summary = $2, content = $3, cover = $4, author_id = $5, updated_at = now()
		 WHERE id = $6
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		post.Title, post.Summary, post.Content, post.Cover, nullID(post.AuthorID), post.ID).
		Scan(&post.CreatedAt, &post.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (*models.Post, error) {
	query :=
		`DELETE FROM posts
		 WHERE id = $1
		 RETURNING id, title, summary, content, cover, author_id, created_at, updated_at
		 `

	post := &models.Post{}
	var authorID sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&post.ID, &post.Title, &post.Summary, &post.Content, &post.Cover,
			&authorID, &post.CreatedAt, &post.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	post.AuthorID = authorID.String

	return post, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPost reads one joined post row. The author columns come from a LEFT
// JOIN, so a dangling author_id leaves Author nil.
func scanPost(row rowScanner) (*models.Post, error) {
	post := &models.Post{}
	var authorID, authorUsername sql.NullString

	err := row.Scan(&post.ID, &post.Title, &post.Summary, &post.Content, &post.Cover,
		&post.CreatedAt, &post.UpdatedAt, &authorID, &authorUsername)
	if err != nil {
		return nil, err
	}

	if authorID.Valid {
		post.AuthorID = authorID.String
		post.Author = &models.PostAuthor{ID: authorID.String, Username: authorUsername.String}
	}

	return post, nil
}

// nullID converts an empty id string to NULL so the uuid column accepts it.
func nullID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE metacharacters in a user-supplied filter so
// the pattern matches the literal substring.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
