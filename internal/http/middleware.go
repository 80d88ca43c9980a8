package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"authgate/internal/domain"
	"authgate/internal/token"
)

const (
	ctxSubject = "subject"
	ctxRole    = "role"
)

var errMissingBearer = &token.RejectedError{Reason: token.ReasonMalformed}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
			"client":  c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request")
			return
		}
		entry.Info("request")
	}
}

// requireToken validates the bearer token and stores its subject and role in the context.
func (h *Handler) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			h.writeError(c, errMissingBearer)
			return
		}

		principal, err := h.tokens.Validate(raw, h.now())
		if err != nil {
			h.logger.WithField("reason", token.ReasonOf(err).String()).Debug("token rejected")
			h.writeError(c, err)
			return
		}

		c.Set(ctxSubject, principal.Subject)
		c.Set(ctxRole, principal.Role)
		c.Next()
	}
}

func requireRole(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		role, _ := c.Get(ctxRole)
		if r, ok := role.(domain.Role); !ok || !allowed[r] {
			c.AbortWithStatusJSON(http.StatusForbidden, newAPIError(http.StatusForbidden, "forbidden"))
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(prefix):])
	return raw, raw != ""
}
