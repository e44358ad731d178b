package handler

import (
	"blog-server/internal/service"

	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Auth    service.AuthService
	Content service.ContentService
	Admin   service.UserAdminService
	Reset   service.PasswordResetService
	Contact service.ContactService
	Site    service.SiteService
}

type Handler struct {
	auth    service.AuthService
	content service.ContentService
	admin   service.UserAdminService
	reset   service.PasswordResetService
	contact service.ContactService
	site    service.SiteService
}

func NewHandler(s Services) *Handler {
	return &Handler{
		auth:    s.Auth,
		content: s.Content,
		admin:   s.Admin,
		reset:   s.Reset,
		contact: s.Contact,
		site:    s.Site,
	}
}

// RegisterRoutes mounts every endpoint. rateLimit guards the credential
// endpoints (register, login, password reset).
func (h *Handler) RegisterRoutes(router *gin.Engine, rateLimit gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	authGroup.Use(h.IdentityMiddleware())
	{
		authGroup.POST("/register", rateLimit, h.register)
		authGroup.POST("/login", rateLimit, h.login)
		authGroup.POST("/logout", h.logout)
		authGroup.POST("/refresh", h.refresh)
		authGroup.POST("/password/reset", rateLimit, h.requestPasswordReset)
		authGroup.POST("/password/reset/confirm", rateLimit, h.confirmPasswordReset)
		authGroup.GET("/me", RequireAuth(), h.getMe)
		authGroup.PUT("/me/profile", RequireAuth(), h.updateProfile)
	}

	api := router.Group("/api")
	api.Use(h.IdentityMiddleware())
	{
		api.GET("/site", h.getSiteInfo)
		api.GET("/home", h.getHome)
		api.POST("/contact", h.sendContact)

		api.GET("/posts", h.listPosts)
		api.GET("/posts/:post_id", h.getPost)
		api.POST("/posts", h.createPost)
		api.PUT("/posts/:post_id", h.editPost)
		api.DELETE("/posts/:post_id", h.deletePost)
		api.POST("/posts/:post_id/comments", h.addComment)
	}

	admin := api.Group("/admin")
	admin.Use(RequireAuth())
	{
		admin.GET("/users", h.listUsers)
		admin.POST("/users/role", h.setRoles)
		admin.PUT("/users/:user_id/role", h.setRole)
		admin.PUT("/users/:user_id/active", h.setActive)
		admin.DELETE("/users/:user_id", h.deleteUser)
	}
}
