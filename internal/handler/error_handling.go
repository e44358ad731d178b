package handler

import (
	"errors"
	"net/http"
	"strings"

	"blog-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgInternal        = "An unexpected error occurred. Try again later."
	msgMailUnavailable = "Unable to send email right now. Try again later."
	msgLoginRequired   = "Please log in to continue."
	msgForbidden       = "You do not have permission to do that."
	msgFixErrors       = "Please correct the errors below."
)

// errorResponse maps a service error to an HTTP status and body.
// Handlers tweak the body (Redirect, Input) before sending it.
func errorResponse(err error) (int, models.ErrorResponse) {
	var fe models.FieldErrors
	switch {
	case errors.As(err, &fe):
		return http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeValidation, Message: msgFixErrors, Fields: fe}

	// 400
	case errors.Is(err, models.ErrPasswordMismatch):
		return http.StatusBadRequest, models.ErrorResponse{
			Code:    models.ErrCodePasswordMismatch,
			Message: "The two password fields didn't match.",
			Fields:  models.FieldErrors{"passwordConfirmation": {"The two password fields didn't match."}},
		}
	case errors.Is(err, models.ErrWeakPassword):
		return http.StatusBadRequest, models.ErrorResponse{
			Code:    models.ErrCodeWeakPassword,
			Message: userMessage(err),
			Fields:  models.FieldErrors{"password": {userMessage(err)}},
		}
	case errors.Is(err, models.ErrResetTokenInvalid):
		return http.StatusBadRequest, models.ErrorResponse{
			Code:    models.ErrCodeResetTokenInvalid,
			Message: "The password reset link was invalid, possibly because it has already been used. Please request a new password reset.",
		}
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeValidation, Message: userMessage(err)}

	// 401
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, models.ErrorResponse{
			Code:    models.ErrCodeWrongCredentials,
			Message: "Please enter a correct username and password. Note that both fields may be case-sensitive.",
		}
	case errors.Is(err, models.ErrInactiveAccount):
		return http.StatusUnauthorized, models.ErrorResponse{Code: models.ErrCodeInactiveAccount, Message: "This account is inactive."}
	case errors.Is(err, models.ErrTokenExpired):
		return http.StatusUnauthorized, models.ErrorResponse{Code: models.ErrCodeTokenExpired, Message: "Token has expired"}
	case errors.Is(err, models.ErrTokenInvalid), errors.Is(err, models.ErrTokenMalformed), errors.Is(err, models.ErrTokenNotFound):
		return http.StatusUnauthorized, models.ErrorResponse{Code: models.ErrCodeTokenInvalid, Message: "Token is invalid or has been revoked"}
	case errors.Is(err, models.ErrAuthentication):
		return http.StatusUnauthorized, models.ErrorResponse{Code: models.ErrCodeLoginRequired, Message: msgLoginRequired, Redirect: loginPath}

	// 403
	case errors.Is(err, models.ErrAuthorization):
		return http.StatusForbidden, models.ErrorResponse{Code: models.ErrCodeForbidden, Message: msgForbidden}

	// 404
	case errors.Is(err, models.ErrPostNotFound):
		return http.StatusNotFound, models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Post not found"}
	case errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound, models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "User not found"}
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Not found"}

	// 409
	case errors.Is(err, models.ErrUsernameTaken):
		return http.StatusConflict, models.ErrorResponse{
			Code:    models.ErrCodeDuplicateIdentity,
			Message: msgFixErrors,
			Fields:  models.FieldErrors{"username": {"A user with that username already exists."}},
		}
	case errors.Is(err, models.ErrEmailTaken):
		return http.StatusConflict, models.ErrorResponse{
			Code:    models.ErrCodeDuplicateIdentity,
			Message: msgFixErrors,
			Fields:  models.FieldErrors{"email": {"A user with that email already exists."}},
		}
	case errors.Is(err, models.ErrDuplicateTitle):
		return http.StatusConflict, models.ErrorResponse{Code: models.ErrCodeDuplicateTitle, Message: "Post with this title already exists"}
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, models.ErrorResponse{Code: models.ErrCodeDuplicateIdentity, Message: userMessage(err)}

	// 503
	case errors.Is(err, models.ErrTransport):
		return http.StatusServiceUnavailable, models.ErrorResponse{Code: models.ErrCodeServiceUnavailable, Message: msgMailUnavailable}
	}

	zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
	return http.StatusInternalServerError, models.ErrorResponse{Code: models.ErrCodeInternal, Message: msgInternal}
}

func handleServiceError(c *gin.Context, err error) {
	status, resp := errorResponse(err)
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: message})
}

// userMessage drops the category prefix ("validation error: ...") and capitalizes the rest.
func userMessage(err error) string {
	msg := err.Error()
	for _, cat := range []error{models.ErrValidation, models.ErrConflict} {
		if rest, ok := strings.CutPrefix(msg, cat.Error()+": "); ok {
			msg = rest
			break
		}
	}
	if msg == "" {
		return msgInternal
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

const loginPath = "/auth/login"

// loginRedirect builds the login URL that returns the user to next afterwards.
// next is always a path built by this package.
func loginRedirect(next string) string {
	return loginPath + "?next=" + next
}
