package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"shareit/internal/domain/shared/apperr"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindPastDate:
		return http.StatusUnprocessableEntity
	case apperr.KindConflict, apperr.KindForbiddenTransition:
		return http.StatusConflict
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotAuthenticated:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	body := errorBody{Kind: string(kind), Message: apperr.ReasonOf(err)}
	if kind == "" {
		body = errorBody{Kind: "internal", Message: "internal error"}
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}

func badRequest(c *gin.Context, message string) {
	writeError(c, apperr.Validation(message))
}
