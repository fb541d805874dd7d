package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Status maps an error kind to its HTTP status.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as {"message": ...} and aborts the chain. Store
// failures are logged and reported to the client without internals.
func Respond(c *gin.Context, err error) {
	status := Status(err)
	message := "Internal server error"

	var appErr *Error
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	} else if errors.As(err, &appErr) {
		message = appErr.Message
	}

	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

// FromBinding converts a gin binding error into a validation error that
// names the first offending field by its JSON name.
func FromBinding(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fe := validationErrs[0]
		field := jsonFieldName(fe)

		switch fe.Tag() {
		case "required":
			return Validation("field '%s' is required", field)
		case "min":
			return Validation("field '%s' must be at least %s characters", field, fe.Param())
		case "max":
			return Validation("field '%s' must be at most %s characters", field, fe.Param())
		case "email":
			return Validation("field '%s' must be a valid email address", field)
		case "oneof":
			return Validation("field '%s' must be one of: %s", field, fe.Param())
		case "hexcolor":
			return Validation("field '%s' must be a hex color such as #3b82f6", field)
		default:
			return Validation("field '%s' failed validation: %s", field, fe.Tag())
		}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return Validation("field '%s' has the wrong type", typeErr.Field)
	}
	if errors.Is(err, io.EOF) {
		return Validation("request body is required")
	}

	return Validation("invalid request: %s", err.Error())
}

// jsonFieldName lower-cases the first letter of the struct field, which
// matches the camelCase json tags used by the request types.
func jsonFieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return name
	}
	switch {
	case strings.HasSuffix(name, "IDs"):
		name = strings.TrimSuffix(name, "IDs") + "Ids"
	case strings.HasSuffix(name, "ID"):
		name = strings.TrimSuffix(name, "ID") + "Id"
	}
	return fmt.Sprintf("%s%s", strings.ToLower(name[:1]), name[1:])
}
