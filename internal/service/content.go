package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"blog-server/internal/config"
	"blog-server/internal/interfaces"
	"blog-server/internal/models"
	"blog-server/internal/policy"
	"blog-server/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	PostsPerPage    = 15
	LatestPostCount = 3
)

// PostPage is one page of the post listing.
type PostPage struct {
	Posts []models.Post `json:"posts"`
	Page  utils.Page    `json:"page"`
}

// ContentService implements the post and comment lifecycle.
type ContentService interface {
	SubmitPost(ctx context.Context, actor models.Identity, fields models.PostFields) (*models.Post, error)
	// EditPost checks existence before permissions.
	EditPost(ctx context.Context, actor models.Identity, postID uuid.UUID, fields models.PostFields) (*models.Post, error)
	DeletePost(ctx context.Context, actor models.Identity, postID uuid.UUID) error
	AddComment(ctx context.Context, actor models.Identity, postID uuid.UUID, text string) (*models.Comment, error)

	GetPost(ctx context.Context, actor models.Identity, postID uuid.UUID) (*models.PostDetail, error)
	ListPosts(ctx context.Context, page int) (*PostPage, error)
	LatestPosts(ctx context.Context) ([]models.Post, error)
}

var _ ContentService = (*contentServiceImpl)(nil)

type contentServiceImpl struct {
	postRepo     interfaces.PostRepository
	commentRepo  interfaces.CommentRepository
	defaultImage string
	logger       *zap.Logger
}

func NewContentService(postRepo interfaces.PostRepository, commentRepo interfaces.CommentRepository, cfg *config.Config, logger *zap.Logger) ContentService {
	return &contentServiceImpl{
		postRepo:     postRepo,
		commentRepo:  commentRepo,
		defaultImage: cfg.DefaultPostImage,
		logger:       logger.Named("ContentService"),
	}
}

// accessError picks between "log in first" and "not allowed".
func accessError(actor models.Identity) error {
	if models.IsAuthenticated(actor) {
		return models.ErrForbidden
	}
	return models.ErrAuthRequired
}

// validatePostFields trims the fields, applies the default image and collects problems.
func validatePostFields(f models.PostFields, defaultImage string) (models.PostFields, error) {
	out := models.PostFields{
		Title:    strings.TrimSpace(f.Title),
		Subtitle: strings.TrimSpace(f.Subtitle),
		Body:     f.Body,
		ImageURL: strings.TrimSpace(f.ImageURL),
	}
	fe := models.FieldErrors{}

	switch n := utf8.RuneCountInString(out.Title); {
	case n == 0:
		fe.Add("title", "This field is required.")
	case n > models.MaxTitleLength:
		fe.Add("title", fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", models.MaxTitleLength, n))
	}
	if n := utf8.RuneCountInString(out.Subtitle); n > models.MaxSubtitleLength {
		fe.Add("subtitle", fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", models.MaxSubtitleLength, n))
	}
	if strings.TrimSpace(out.Body) == "" {
		fe.Add("body", "This field is required.")
	}

	if out.ImageURL == "" {
		out.ImageURL = defaultImage
	} else if !isValidImageURL(out.ImageURL) {
		fe.Add("imageUrl", "Enter a valid URL.")
	}
	return out, fe.Err()
}

// isValidImageURL accepts absolute http(s) URLs and site-relative paths.
func isValidImageURL(raw string) bool {
	if strings.HasPrefix(raw, "/") {
		return !strings.HasPrefix(raw, "//")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (s *contentServiceImpl) SubmitPost(ctx context.Context, actor models.Identity, fields models.PostFields) (*models.Post, error) {
	if !policy.Can(actor, policy.CreatePost, nil) {
		return nil, accessError(actor)
	}
	author, _ := models.UserOf(actor)

	clean, err := validatePostFields(fields, s.defaultImage)
	if err != nil {
		return nil, err
	}
	post := &models.Post{
		Title:    clean.Title,
		Subtitle: clean.Subtitle,
		Body:     clean.Body,
		ImageURL: clean.ImageURL,
		AuthorID: author.ID,
	}
	if err := s.postRepo.CreatePost(ctx, post); err != nil {
		if !errors.Is(err, models.ErrDuplicateTitle) {
			s.logger.Error("Failed to create post", zap.String("authorID", author.ID.String()), zap.Error(err))
		}
		return nil, err
	}
	post.AuthorUsername = author.Username
	s.logger.Info("Post submitted", zap.String("postID", post.ID.String()), zap.String("authorID", author.ID.String()))
	return post, nil
}

func (s *contentServiceImpl) EditPost(ctx context.Context, actor models.Identity, postID uuid.UUID, fields models.PostFields) (*models.Post, error) {
	if _, err := s.postRepo.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}
	if !policy.Can(actor, policy.EditPost, nil) {
		return nil, accessError(actor)
	}

	clean, err := validatePostFields(fields, s.defaultImage)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.UpdatePost(ctx, postID, clean)
	if err != nil {
		return nil, err
	}
	editor, _ := models.UserOf(actor)
	s.logger.Info("Post edited", zap.String("postID", postID.String()), zap.String("editorID", editor.ID.String()))
	return post, nil
}

func (s *contentServiceImpl) DeletePost(ctx context.Context, actor models.Identity, postID uuid.UUID) error {
	if _, err := s.postRepo.GetPostByID(ctx, postID); err != nil {
		return err
	}
	if !policy.Can(actor, policy.DeletePost, nil) {
		return accessError(actor)
	}
	if err := s.postRepo.DeletePost(ctx, postID); err != nil {
		return err
	}
	admin, _ := models.UserOf(actor)
	s.logger.Info("Post deleted", zap.String("postID", postID.String()), zap.String("actorID", admin.ID.String()))
	return nil
}

func (s *contentServiceImpl) AddComment(ctx context.Context, actor models.Identity, postID uuid.UUID, text string) (*models.Comment, error) {
	if !policy.Can(actor, policy.CreateComment, nil) {
		return nil, accessError(actor)
	}
	author, _ := models.UserOf(actor)

	if _, err := s.postRepo.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}

	body := strings.TrimSpace(text)
	if body == "" {
		return nil, models.ErrEmptyContent
	}
	if utf8.RuneCountInString(body) > models.MaxCommentLength {
		return nil, models.ErrContentTooLong
	}

	comment := &models.Comment{PostID: postID, AuthorID: &author.ID, Body: body}
	if err := s.commentRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	username := author.Username
	comment.AuthorUsername = &username
	return comment, nil
}

func (s *contentServiceImpl) GetPost(ctx context.Context, actor models.Identity, postID uuid.UUID) (*models.PostDetail, error) {
	if !policy.Can(actor, policy.ReadPost, nil) {
		return nil, accessError(actor)
	}
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListCommentsByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &models.PostDetail{Post: *post, Comments: comments}, nil
}

func (s *contentServiceImpl) ListPosts(ctx context.Context, page int) (*PostPage, error) {
	total, err := s.postRepo.CountPosts(ctx)
	if err != nil {
		return nil, err
	}
	p := utils.Paginate(total, page, PostsPerPage)
	posts, err := s.postRepo.ListPosts(ctx, p.PerPage, p.Offset)
	if err != nil {
		return nil, err
	}
	return &PostPage{Posts: posts, Page: p}, nil
}

func (s *contentServiceImpl) LatestPosts(ctx context.Context) ([]models.Post, error) {
	return s.postRepo.ListPosts(ctx, LatestPostCount, 0)
}
