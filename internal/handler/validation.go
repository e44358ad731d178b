package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"blog-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// Ошибки валидации называют поля так же, как они выглядят в JSON
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	}
}

// bindError answers a failed ShouldBindJSON. Struct tag failures become
// per-field messages; anything else (bad JSON, wrong types) is a plain 400.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	fe := models.FieldErrors{}
	for _, ve := range verrs {
		fe.Add(fieldPath(ve), fieldMessage(ve))
	}
	handleServiceError(c, fe)
}

// fieldPath drops the top-level struct name: "setRolesRequest.user_ids[1]" -> "user_ids[1]".
func fieldPath(ve validator.FieldError) string {
	ns := ve.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ve.Field()
}

func fieldMessage(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "uuid":
		return "Enter a valid ID."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s %s.", ve.Param(), unitOf(ve))
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s %s.", ve.Param(), unitOf(ve))
	case "oneof":
		return "Select one of: " + ve.Param() + "."
	default:
		return "Invalid value."
	}
}

func unitOf(ve validator.FieldError) string {
	if ve.Kind() == reflect.String {
		return "characters"
	}
	return "items"
}
