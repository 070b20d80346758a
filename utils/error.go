package utils

import (
	"net/http"

	"reserva/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	Logger := GetLogger()
	Logger.Warn(message, zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// statusForKind maps the domain error taxonomy to HTTP status codes.
var statusForKind = map[models.ErrorKind]int{
	models.KindValidation:         http.StatusBadRequest,
	models.KindConflict:           http.StatusConflict,
	models.KindInvalidTransition:  http.StatusUnprocessableEntity,
	models.KindAuthorization:      http.StatusForbidden,
	models.KindExternalDependency: http.StatusBadGateway,
	models.KindExpired:            http.StatusGone,
	models.KindNotFound:           http.StatusNotFound,
}

// JSONDomainError maps a domain error to its HTTP status and renders it.
func JSONDomainError(c *gin.Context, err error) {
	status, ok := statusForKind[models.KindOf(err)]
	if !ok {
		status = http.StatusInternalServerError
	}
	JSONError(c, status, "request rejected", err.Error())
}
