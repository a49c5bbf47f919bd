package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/internal/service/auth"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

const (
	ClientIDCtx    = "client_id"
	ClientRolesCtx = "client_roles"
)

type AuthService interface {
	Authenticate(ctx context.Context, accessToken string) (*models.CurrentUser, error)
}

type AuthMiddlewareProvider struct {
	log     logger.Log
	service AuthService
}

func NewAuthMiddlewareProvider(log logger.Log, s AuthService) *AuthMiddlewareProvider {
	return &AuthMiddlewareProvider{
		log:     log,
		service: s,
	}
}

// AuthMiddleware requires a bearer access token and puts the signed-in user
// on both the gin context and the request context.
func (h *AuthMiddlewareProvider) AuthMiddleware(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": app_errors.ErrNotAuthenticated.Error()})
		return
	}

	user, err := h.service.Authenticate(c.Request.Context(), token)
	if err != nil {
		h.log.Debug("failed to authenticate token", logger.Err(err))
		if errors.Is(err, app_errors.ErrTokenExpired) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": app_errors.ErrTokenExpired.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "cant parse token"})
		return
	}

	c.Set(ClientIDCtx, user.ID)
	c.Set(ClientRolesCtx, []string{user.Role})
	c.Request = c.Request.WithContext(auth.WithCurrentUser(c.Request.Context(), *user))
	c.Next()
}

// CurrentUser returns the user set by AuthMiddleware. When it is missing the
// request is answered with 401 and ok is false.
func CurrentUser(c *gin.Context) (models.CurrentUser, bool) {
	user, err := auth.CurrentUser(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return models.CurrentUser{}, false
	}
	return user, true
}
