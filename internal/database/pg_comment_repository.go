package database

import (
	"context"
	"errors"
	"fmt"

	"blog-server/internal/interfaces"
	"blog-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var _ interfaces.CommentRepository = (*pgCommentRepository)(nil)

type pgCommentRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgCommentRepository creates a new PostgreSQL-backed CommentRepository.
func NewPgCommentRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.CommentRepository {
	return &pgCommentRepository{
		db:     db,
		logger: logger.Named("PgCommentRepo"),
	}
}

// CreateComment inserts a comment.
func (r *pgCommentRepository) CreateComment(ctx context.Context, c *models.Comment) error {
	query := `INSERT INTO comments (post_id, author_id, body) VALUES ($1, $2, $3) RETURNING id, created_at`
	logFields := []zap.Field{zap.String("postID", c.PostID.String())}
	r.logger.Debug("Executing query", append(logFields, zap.String("query", query))...)

	err := r.db.QueryRow(ctx, query, c.PostID, c.AuthorID, c.Body).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgForeignKeyViolation:
				// Пост мог быть удален между проверкой и вставкой
				r.logger.Warn("Comment references a missing post or author", append(logFields, zap.String("constraint", pgErr.ConstraintName))...)
				return models.ErrPostNotFound
			case pgCheckViolation:
				return models.ErrContentTooLong
			}
		}
		r.logger.Error("Failed to create comment", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create comment: %w", err)
	}
	r.logger.Info("Comment created", zap.String("commentID", c.ID.String()), zap.String("postID", c.PostID.String()))
	return nil
}

// ListCommentsByPost returns the post's comments oldest first.
func (r *pgCommentRepository) ListCommentsByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	query := `SELECT c.id, c.post_id, c.author_id, u.username AS author_username, c.body, c.created_at
		FROM comments c LEFT JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("postID", postID.String()))

	comments := make([]models.Comment, 0)
	if err := pgxscan.Select(ctx, r.db, &comments, query, postID); err != nil {
		r.logger.Error("Failed to list comments", zap.String("postID", postID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}
