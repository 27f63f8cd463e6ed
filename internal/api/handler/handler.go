package handler

import (
	"net/http"
	"strings"

	"chatrelay/backend/internal/auth"
	"chatrelay/backend/internal/chathub"
	"chatrelay/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// Handler carries the dependencies of the HTTP layer.
type Handler struct {
	Storage    storage.Storage
	Auth       *auth.Verifier
	Registry   *chathub.Registry
	Dispatcher *chathub.Dispatcher
}

func NewHandler(s storage.Storage, verifier *auth.Verifier, registry *chathub.Registry, dispatcher *chathub.Dispatcher) *Handler {
	return &Handler{
		Storage:    s,
		Auth:       verifier,
		Registry:   registry,
		Dispatcher: dispatcher,
	}
}

// principalFromHeader extracts and verifies the bearer token.
func (h *Handler) principalFromHeader(c *gin.Context) (uint, error) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return 0, auth.ErrUnauthenticated
	}
	return h.Auth.VerifyToken(strings.TrimPrefix(header, "Bearer "))
}

// RequireAuth gates a route on a valid token and stores the principal id in
// the context under "userID".
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := h.principalFromHeader(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
			return
		}
		c.Set("userID", userID)
		c.Next()
	}
}

func principal(c *gin.Context) uint {
	return c.GetUint("userID")
}
