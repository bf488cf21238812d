package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/orgball2608/viralink-scheduler/pkg/errors"
)

const (
	codeBadRequest  = "bad_request"
	codeRateLimited = "rate_limited"
	codeInternal    = "internal_error"
)

func statusFor(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return http.StatusBadRequest
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case apperrors.IsInvalidTransition(err):
		return http.StatusConflict
	case apperrors.IsGateway(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	code := apperrors.GetCode(err)
	if code == "" {
		code = codeInternal
	}
	if status >= http.StatusInternalServerError {
		h.Logger.Error("Request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"error", err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: code, Message: apperrors.GetMessage(err)})
}

func (h *Handler) writeBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: codeBadRequest, Message: err.Error()})
}
