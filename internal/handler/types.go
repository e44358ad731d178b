package handler

import (
	"blog-server/internal/models"
)

type registerRequest struct {
	Username             string `json:"username" binding:"required"`
	Email                string `json:"email" binding:"required"`
	Password             string `json:"password" binding:"required"`
	PasswordConfirmation string `json:"passwordConfirmation" binding:"required"`
}

type loginRequest struct {
	// Username or email
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Next     string `json:"next"`
}

type loginResponse struct {
	User   *models.User         `json:"user"`
	Tokens *models.TokenDetails `json:"tokens"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type passwordResetRequest struct {
	Email string `json:"email" binding:"required"`
}

type passwordResetConfirmRequest struct {
	Token                string `json:"token" binding:"required"`
	Password             string `json:"password" binding:"required"`
	PasswordConfirmation string `json:"passwordConfirmation" binding:"required"`
}

type updateProfileRequest struct {
	Bio      string `json:"bio"`
	Location string `json:"location"`
}

type commentRequest struct {
	Body string `json:"body"`
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type setRolesRequest struct {
	UserIDs []string `json:"userIds" binding:"required,min=1,dive,uuid"`
	Role    string   `json:"role" binding:"required"`
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type homeResponse struct {
	Posts []models.Post   `json:"posts"`
	Site  models.SiteInfo `json:"site"`
}

type commentResponse struct {
	models.Comment
	AuthorName string `json:"authorName"`
}

func newCommentResponse(c models.Comment) commentResponse {
	return commentResponse{Comment: c, AuthorName: c.AuthorName()}
}

type postDetailResponse struct {
	Post     models.Post       `json:"post"`
	Comments []commentResponse `json:"comments"`
}

func newPostDetailResponse(d *models.PostDetail) postDetailResponse {
	comments := make([]commentResponse, 0, len(d.Comments))
	for _, c := range d.Comments {
		comments = append(comments, newCommentResponse(c))
	}
	return postDetailResponse{Post: d.Post, Comments: comments}
}
