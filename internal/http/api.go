package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"authgate/internal/domain"
	"authgate/internal/service"
	"authgate/internal/token"
)

// TokenValidator is satisfied by *token.Codec.
type TokenValidator interface {
	Validate(tokenText string, now time.Time) (token.Principal, error)
}

// Handler wires HTTP routes to the authentication service.
type Handler struct {
	auth   service.AuthService
	tokens TokenValidator
	logger logrus.FieldLogger
	now    func() time.Time
}

func NewHandler(auth service.AuthService, tokens TokenValidator, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		auth:   auth,
		tokens: tokens,
		logger: logger.WithField("component", "http"),
		now:    time.Now,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware())

	auth := router.Group("/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/authenticate", h.authenticate)
	}

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		protected := api.Group("", h.requireToken())
		protected.GET("/me", h.me)

		admin := protected.Group("/admin", requireRole(domain.RoleAdmin))
		admin.GET("/users/:email", h.getUser)
	}
}

type tokenResponse struct {
	Token string `json:"token"`
}

type UserResponse struct {
	ID        string      `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt string      `json:"createdAt"`
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, malformedBody(err))
		return
	}

	tok, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Token: tok.Value})
}

func (h *Handler) authenticate(c *gin.Context) {
	var req service.AuthenticateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, malformedBody(err))
		return
	}

	tok, err := h.auth.Authenticate(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Token: tok.Value})
}

func (h *Handler) me(c *gin.Context) {
	h.writeProfile(c, c.GetString(ctxSubject))
}

func (h *Handler) getUser(c *gin.Context) {
	h.writeProfile(c, c.Param("email"))
}

func (h *Handler) writeProfile(c *gin.Context, email string) {
	user, err := h.auth.Profile(c.Request.Context(), email)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}
