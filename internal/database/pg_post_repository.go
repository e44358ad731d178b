package database

import (
	"context"
	"errors"
	"fmt"

	"blog-server/internal/interfaces"
	"blog-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var _ interfaces.PostRepository = (*pgPostRepository)(nil)

const postTitleConstraint = "posts_title_key"

const postSelect = `SELECT p.id, p.title, p.subtitle, p.body, p.image_url, p.author_id,
	u.username AS author_username, p.created_at, p.updated_at
	FROM posts p JOIN users u ON u.id = p.author_id`

type pgPostRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgPostRepository creates a new PostgreSQL-backed PostRepository.
func NewPgPostRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.PostRepository {
	return &pgPostRepository{
		db:     db,
		logger: logger.Named("PgPostRepo"),
	}
}

func isTitleViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == postTitleConstraint
}

// CreatePost inserts a post. AuthorUsername is left for the caller to fill.
func (r *pgPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	query := `INSERT INTO posts (title, subtitle, body, image_url, author_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	logFields := []zap.Field{zap.String("title", post.Title), zap.String("authorID", post.AuthorID.String())}
	r.logger.Debug("Executing query", append(logFields, zap.String("query", query))...)

	err := r.db.QueryRow(ctx, query, post.Title, post.Subtitle, post.Body, post.ImageURL, post.AuthorID).
		Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if isTitleViolation(err) {
			r.logger.Warn("Attempted to create post with duplicate title", logFields...)
			return models.ErrDuplicateTitle
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			r.logger.Warn("Attempted to create post for missing author", logFields...)
			return models.ErrUserNotFound
		}
		r.logger.Error("Failed to create post", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create post: %w", err)
	}
	r.logger.Info("Post created", zap.String("postID", post.ID.String()), zap.String("title", post.Title))
	return nil
}

// GetPostByID returns models.ErrPostNotFound when there is no such post.
func (r *pgPostRepository) GetPostByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	query := postSelect + ` WHERE p.id = $1`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("postID", id.String()))

	post := &models.Post{}
	if err := pgxscan.Get(ctx, r.db, post, query, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPostNotFound
		}
		r.logger.Error("Failed to get post", zap.String("postID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// UpdatePost rewrites the editable fields in one statement.
func (r *pgPostRepository) UpdatePost(ctx context.Context, id uuid.UUID, f models.PostFields) (*models.Post, error) {
	query := `WITH updated AS (
			UPDATE posts SET title = $1, subtitle = $2, body = $3, image_url = $4, updated_at = CURRENT_TIMESTAMP
			WHERE id = $5
			RETURNING id, title, subtitle, body, image_url, author_id, created_at, updated_at
		)
		SELECT p.id, p.title, p.subtitle, p.body, p.image_url, p.author_id,
			u.username AS author_username, p.created_at, p.updated_at
		FROM updated p JOIN users u ON u.id = p.author_id`
	logFields := []zap.Field{zap.String("postID", id.String()), zap.String("title", f.Title)}
	r.logger.Debug("Executing query", append(logFields, zap.String("query", query))...)

	post := &models.Post{}
	if err := pgxscan.Get(ctx, r.db, post, query, f.Title, f.Subtitle, f.Body, f.ImageURL, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPostNotFound
		}
		if isTitleViolation(err) {
			r.logger.Warn("Attempted to rename post to a taken title", logFields...)
			return nil, models.ErrDuplicateTitle
		}
		r.logger.Error("Failed to update post", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	r.logger.Info("Post updated", logFields...)
	return post, nil
}

// DeletePost removes the post; comments cascade.
func (r *pgPostRepository) DeletePost(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM posts WHERE id = $1`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("postID", id.String()))
	cmdTag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete post", zap.String("postID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrPostNotFound
	}
	r.logger.Info("Post deleted", zap.String("postID", id.String()))
	return nil
}

// ListPosts returns a page of posts, newest first.
func (r *pgPostRepository) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	query := postSelect + ` ORDER BY p.created_at DESC, p.id DESC LIMIT $1 OFFSET $2`
	r.logger.Debug("Executing query", zap.String("query", query), zap.Int("limit", limit), zap.Int("offset", offset))

	posts := make([]models.Post, 0, limit)
	if err := pgxscan.Select(ctx, r.db, &posts, query, limit, offset); err != nil {
		r.logger.Error("Failed to list posts", zap.Error(err))
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// CountPosts returns the total number of posts.
func (r *pgPostRepository) CountPosts(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM posts`
	r.logger.Debug("Executing query", zap.String("query", query))
	var count int64
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		r.logger.Error("Failed to count posts", zap.Error(err))
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}
