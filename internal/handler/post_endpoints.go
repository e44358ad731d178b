package handler

import (
	"errors"
	"net/http"

	"blog-server/internal/models"
	"blog-server/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func postPath(id uuid.UUID) string {
	return "/posts/" + id.String()
}

// postIDParam reports a malformed id as a missing post.
func postIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		handleServiceError(c, models.ErrPostNotFound)
		return uuid.Nil, false
	}
	return id, true
}

// @Summary Список постов
// @Description 15 постов на страницу, новые первыми. Неверный номер страницы дает первую, слишком большой последнюю.
// @Tags posts
// @Produce json
// @Param page query int false "Номер страницы"
// @Success 200 {object} service.PostPage
// @Router /api/posts [get]
func (h *Handler) listPosts(c *gin.Context) {
	page, err := h.content.ListPosts(c.Request.Context(), utils.ParsePage(c.Query("page")))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary Главная страница
// @Tags posts
// @Produce json
// @Success 200 {object} homeResponse
// @Router /api/home [get]
func (h *Handler) getHome(c *gin.Context) {
	posts, err := h.content.LatestPosts(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, homeResponse{Posts: posts, Site: h.site.Info()})
}

// @Summary Пост с комментариями
// @Tags posts
// @Produce json
// @Param post_id path string true "ID поста"
// @Success 200 {object} postDetailResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/posts/{post_id} [get]
func (h *Handler) getPost(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	detail, err := h.content.GetPost(c.Request.Context(), identityFrom(c), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPostDetailResponse(detail))
}

// @Summary Новый пост
// @Tags posts
// @Accept json
// @Produce json
// @Param request body models.PostFields true "Поля поста"
// @Success 201 {object} models.StatusResponse
// @Failure 409 {object} models.ErrorResponse "Заголовок занят; в input возвращаются отправленные поля"
// @Security BearerAuth
// @Router /api/posts [post]
func (h *Handler) createPost(c *gin.Context) {
	var fields models.PostFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		bindError(c, err)
		return
	}

	post, err := h.content.SubmitPost(c.Request.Context(), identityFrom(c), fields)
	if err != nil {
		status, resp := errorResponse(err)
		if errors.Is(err, models.ErrDuplicateTitle) || errors.Is(err, models.ErrValidation) {
			resp.Input = fields
		}
		c.AbortWithStatusJSON(status, resp)
		return
	}

	postsCreatedTotal.Inc()
	c.JSON(http.StatusCreated, models.StatusResponse{Redirect: postPath(post.ID), Data: post})
}

// @Summary Редактирование поста
// @Tags posts
// @Accept json
// @Produce json
// @Param post_id path string true "ID поста"
// @Param request body models.PostFields true "Поля поста"
// @Success 200 {object} models.StatusResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/posts/{post_id} [put]
func (h *Handler) editPost(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	var fields models.PostFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		bindError(c, err)
		return
	}

	post, err := h.content.EditPost(c.Request.Context(), identityFrom(c), id, fields)
	if err != nil {
		status, resp := errorResponse(err)
		switch {
		case errors.Is(err, models.ErrDuplicateTitle):
			resp.Message = "Your new title is used by someone...Modify it!"
			resp.Input = fields
		case errors.Is(err, models.ErrValidation):
			resp.Input = fields
		}
		c.AbortWithStatusJSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{Redirect: postPath(post.ID), Data: post})
}

// @Summary Удаление поста
// @Tags posts
// @Produce json
// @Param post_id path string true "ID поста"
// @Success 200 {object} models.StatusResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/posts/{post_id} [delete]
func (h *Handler) deletePost(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	if err := h.content.DeletePost(c.Request.Context(), identityFrom(c), id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{Message: "Post deleted.", Redirect: "/"})
}

// @Summary Комментарий к посту
// @Description Анонимный запрос получает 401 и redirect на страницу входа
// @Tags posts
// @Accept json
// @Produce json
// @Param post_id path string true "ID поста"
// @Param request body commentRequest true "Текст комментария"
// @Success 201 {object} models.StatusResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/posts/{post_id}/comments [post]
func (h *Handler) addComment(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	actor := identityFrom(c)
	if !models.IsAuthenticated(actor) {
		commentError(c, id, models.ErrAuthRequired)
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	comment, err := h.content.AddComment(c.Request.Context(), actor, id, req.Body)
	if err != nil {
		commentError(c, id, err)
		return
	}

	commentsCreatedTotal.Inc()
	c.JSON(http.StatusCreated, models.StatusResponse{Redirect: postPath(id), Data: newCommentResponse(*comment)})
}

// commentError sends anonymous commenters to the login page and back to the post.
func commentError(c *gin.Context, postID uuid.UUID, err error) {
	status, resp := errorResponse(err)
	if errors.Is(err, models.ErrAuthentication) {
		resp.Message = "You need to login or register to comment."
		resp.Redirect = loginRedirect(postPath(postID))
	}
	c.AbortWithStatusJSON(status, resp)
}
