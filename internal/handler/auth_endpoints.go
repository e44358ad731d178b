package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"blog-server/internal/models"
	"blog-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// safeNext accepts only site-relative paths; anything else falls back to "/".
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}

func alreadySignedIn(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{Redirect: "/"})
}

// @Summary Регистрация нового пользователя
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "Данные для регистрации"
// @Success 201 {object} models.StatusResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (h *Handler) register(c *gin.Context) {
	if models.IsAuthenticated(identityFrom(c)) {
		alreadySignedIn(c)
		return
	}
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), identityFrom(c), service.RegisterInput{
		Username:             req.Username,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		if errors.Is(err, models.ErrAlreadyAuthenticated) {
			alreadySignedIn(c)
			return
		}
		handleServiceError(c, err)
		return
	}

	registrationsTotal.Inc()
	c.JSON(http.StatusCreated, models.StatusResponse{
		Message:  "Account created. You can now sign in.",
		Redirect: loginPath,
		Data:     user,
	})
}

// @Summary Вход в систему
// @Description Принимает имя пользователя или email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Данные для входа"
// @Success 200 {object} models.StatusResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (h *Handler) login(c *gin.Context) {
	if models.IsAuthenticated(identityFrom(c)) {
		alreadySignedIn(c)
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.auth.Login(c.Request.Context(), identityFrom(c), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyAuthenticated) {
			alreadySignedIn(c)
			return
		}
		loginsTotal.WithLabelValues("failure").Inc()
		handleServiceError(c, err)
		return
	}

	loginsTotal.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, models.StatusResponse{
		Message:  fmt.Sprintf("Welcome back, %s!", res.User.Username),
		Redirect: safeNext(req.Next),
		Data:     loginResponse{User: res.User, Tokens: res.Tokens},
	})
}

// @Summary Выход из системы
// @Description Всегда успешен; отзывает текущий access токен и, если передан, refresh токен
// @Tags auth
// @Accept json
// @Produce json
// @Param request body logoutRequest false "Refresh токен для отзыва"
// @Success 200 {object} models.StatusResponse
// @Router /auth/logout [post]
func (h *Handler) logout(c *gin.Context) {
	var req logoutRequest
	// Тело необязательно
	_ = c.ShouldBindJSON(&req)

	if claims := claimsFrom(c); claims != nil {
		_ = h.auth.Logout(c.Request.Context(), claims.UserID, claims.ID, req.RefreshToken)
	}
	c.JSON(http.StatusOK, models.StatusResponse{Message: "You have been logged out.", Redirect: "/"})
}

// @Summary Обновление токенов
// @Tags auth
// @Accept json
// @Produce json
// @Param request body refreshRequest true "Refresh токен"
// @Success 200 {object} models.TokenDetails
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/refresh [post]
func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tokens, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		tokenVerificationsTotal.WithLabelValues("refresh", "failure").Inc()
		handleServiceError(c, err)
		return
	}

	refreshesTotal.Inc()
	tokenVerificationsTotal.WithLabelValues("refresh", "success").Inc()
	c.JSON(http.StatusOK, tokens)
}

// @Summary Запрос ссылки для сброса пароля
// @Description Ответ не зависит от того, существует ли аккаунт
// @Tags auth
// @Accept json
// @Produce json
// @Param request body passwordResetRequest true "Email"
// @Success 200 {object} models.StatusResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /auth/password/reset [post]
func (h *Handler) requestPasswordReset(c *gin.Context) {
	var req passwordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.reset.RequestReset(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, models.ErrTransport) {
			mailsTotal.WithLabelValues("password_reset", "failure").Inc()
			status, resp := errorResponse(err)
			resp.Message = "Unable to send reset email right now. Try again later."
			c.AbortWithStatusJSON(status, resp)
			return
		}
		handleServiceError(c, err)
		return
	}

	mailsTotal.WithLabelValues("password_reset", "success").Inc()
	c.JSON(http.StatusOK, models.StatusResponse{
		Message: "If an account with that email exists, a password reset link was sent.",
	})
}

// @Summary Установка нового пароля по ссылке
// @Tags auth
// @Accept json
// @Produce json
// @Param request body passwordResetConfirmRequest true "Токен и новый пароль"
// @Success 200 {object} models.StatusResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/password/reset/confirm [post]
func (h *Handler) confirmPasswordReset(c *gin.Context) {
	var req passwordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.reset.ConfirmReset(c.Request.Context(), req.Token, req.Password, req.PasswordConfirmation); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{
		Message:  "Your password has been changed. You can now sign in.",
		Redirect: loginPath,
	})
}

// @Summary Текущий пользователь
// @Tags auth
// @Produce json
// @Success 200 {object} models.UserWithProfile
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (h *Handler) getMe(c *gin.Context) {
	me, err := h.auth.GetMe(c.Request.Context(), identityFrom(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, me)
}

// @Summary Обновление профиля
// @Tags auth
// @Accept json
// @Produce json
// @Param request body updateProfileRequest true "Био и город"
// @Success 200 {object} models.Profile
// @Security BearerAuth
// @Router /auth/me/profile [put]
func (h *Handler) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	profile, err := h.auth.UpdateProfile(c.Request.Context(), identityFrom(c), req.Bio, req.Location)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	zap.L().Debug("Profile updated", zap.String("userID", profile.UserID.String()))
	c.JSON(http.StatusOK, profile)
}
