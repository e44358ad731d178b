package handler

import (
	"errors"
	"net/http"

	"blog-server/internal/models"
	"blog-server/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary Данные сайта (год, стаж, ссылки)
// @Tags site
// @Produce json
// @Success 200 {object} models.SiteInfo
// @Router /api/site [get]
func (h *Handler) getSiteInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.site.Info())
}

// @Summary Написать владельцу сайта
// @Tags site
// @Accept json
// @Produce json
// @Param request body service.ContactInput true "Форма обратной связи"
// @Success 200 {object} models.StatusResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/contact [post]
func (h *Handler) sendContact(c *gin.Context) {
	var in service.ContactInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}

	if err := h.contact.SendContact(c.Request.Context(), identityFrom(c), in); err != nil {
		status, resp := errorResponse(err)
		switch {
		case errors.Is(err, models.ErrTransport):
			mailsTotal.WithLabelValues("contact", "failure").Inc()
			resp.Message = "Unable to send your message right now. Try again later."
			resp.Input = in
		case errors.Is(err, models.ErrValidation):
			resp.Input = in
		}
		c.AbortWithStatusJSON(status, resp)
		return
	}

	mailsTotal.WithLabelValues("contact", "success").Inc()
	c.JSON(http.StatusOK, models.StatusResponse{Message: "Your message has been sent. Thank you!", Redirect: "/"})
}
