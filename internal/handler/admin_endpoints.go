package handler

import (
	"net/http"

	"blog-server/internal/models"
	"blog-server/internal/service"
	"blog-server/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func userIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		badRequest(c, "Invalid user ID format")
		return uuid.Nil, false
	}
	return id, true
}

func parseRole(c *gin.Context, raw string) (models.Role, bool) {
	role, err := models.ParseRole(raw)
	if err != nil {
		badRequest(c, "Unknown role: "+raw)
		return "", false
	}
	return role, true
}

// @Summary Список пользователей
// @Tags admin
// @Produce json
// @Param q query string false "Поиск по имени или email"
// @Param page query int false "Номер страницы"
// @Success 200 {object} service.UserPage
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/admin/users [get]
func (h *Handler) listUsers(c *gin.Context) {
	page, err := h.admin.ListUsers(c.Request.Context(), identityFrom(c), c.Query("q"), utils.ParsePage(c.Query("page")))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary Назначить или снять роль администратора
// @Tags admin
// @Accept json
// @Produce json
// @Param user_id path string true "ID пользователя"
// @Param request body setRoleRequest true "admin или regular"
// @Success 200 {object} models.StatusResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/admin/users/{user_id}/role [put]
func (h *Handler) setRole(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	role, ok := parseRole(c, req.Role)
	if !ok {
		return
	}

	changed, err := h.admin.SetRole(c.Request.Context(), identityFrom(c), id, role)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	var n int64
	if changed {
		n = 1
	}
	c.JSON(http.StatusOK, models.StatusResponse{Message: service.BatchRoleMessage(n, role), Data: gin.H{"changed": changed}})
}

// @Summary Пакетное изменение роли
// @Tags admin
// @Accept json
// @Produce json
// @Param request body setRolesRequest true "Пользователи и роль"
// @Success 200 {object} models.StatusResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/admin/users/role [post]
func (h *Handler) setRoles(c *gin.Context) {
	var req setRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	role, ok := parseRole(c, req.Role)
	if !ok {
		return
	}
	ids := make([]uuid.UUID, 0, len(req.UserIDs))
	for _, raw := range req.UserIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "Invalid user ID format: "+raw)
			return
		}
		ids = append(ids, id)
	}

	n, err := h.admin.SetRoles(c.Request.Context(), identityFrom(c), ids, role)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{Message: service.BatchRoleMessage(n, role), Data: gin.H{"changed": n}})
}

// @Summary Активировать или деактивировать пользователя
// @Tags admin
// @Accept json
// @Produce json
// @Param user_id path string true "ID пользователя"
// @Param request body setActiveRequest true "Флаг активности"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/admin/users/{user_id}/active [put]
func (h *Handler) setActive(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.admin.SetActive(c.Request.Context(), identityFrom(c), id, *req.Active); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Удалить пользователя
// @Description Только суперпользователь. Посты удаляются, комментарии остаются анонимными.
// @Tags admin
// @Param user_id path string true "ID пользователя"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/admin/users/{user_id} [delete]
func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	if err := h.admin.DeleteUser(c.Request.Context(), identityFrom(c), id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
