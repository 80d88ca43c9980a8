package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"authgate/internal/service"
	"authgate/internal/token"
)

// apiError is the body of every non-2xx response.
type apiError struct {
	Status  string   `json:"status"`
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

func newAPIError(code int, message string, errs ...string) apiError {
	if len(errs) == 0 {
		errs = []string{message}
	}
	return apiError{
		Status:  strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_")),
		Code:    code,
		Message: message,
		Errors:  errs,
	}
}

func malformedBody(err error) error {
	return &service.ValidationError{Fields: []service.FieldError{{Field: "body", Message: "malformed JSON: " + err.Error()}}}
}

// errorResponse maps a service or token error to its status and body. Token
// rejection reasons and store details never reach the client.
func errorResponse(err error) apiError {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return newAPIError(http.StatusBadRequest, "validation failed", verr.Messages()...)
	case errors.Is(err, service.ErrDuplicateCredential):
		return newAPIError(http.StatusConflict, service.ErrDuplicateCredential.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return newAPIError(http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
	case errors.Is(err, token.ErrRejected):
		return newAPIError(http.StatusUnauthorized, "unauthenticated")
	case errors.Is(err, service.ErrUserNotFound):
		return newAPIError(http.StatusNotFound, service.ErrUserNotFound.Error())
	default:
		return newAPIError(http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	resp := errorResponse(err)
	if resp.Code >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(resp.Code, resp)
}
