package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kena741/zuluskills-admin/internal/delivery/http/controllers"
	"github.com/kena741/zuluskills-admin/internal/delivery/http/controllers/middleware"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

type AuthService interface {
	SignUp(ctx context.Context, email, password string) (*models.User, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SendEmailLink(ctx context.Context, email string) error
	SignInWithEmailLink(ctx context.Context, token string) (*models.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*models.Session, error)
	SignOut(ctx context.Context, user models.CurrentUser) error
	User(ctx context.Context, id models.ID) (*models.User, error)
}

type AuthHandler struct {
	AuthService AuthService
	log         logger.Log
}

func NewAuthHandler(l logger.Log, auth AuthService) *AuthHandler {
	return &AuthHandler{
		AuthService: auth,
		log:         l,
	}
}

type meResponse struct {
	UserID    models.ID `json:"userId"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *AuthHandler) Me(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		return
	}
	user, err := h.AuthService.User(c.Request.Context(), current.ID)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, meResponse{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      current.Role,
		CreatedAt: user.CreatedAt,
	})
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input credentialsRequest
	if !controllers.BindJSON(c, &input) {
		return
	}
	user, err := h.AuthService.SignUp(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "registration success", "userId": user.ID})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input credentialsRequest
	if !controllers.BindJSON(c, &input) {
		return
	}
	session, err := h.AuthService.SignInWithPassword(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type magicLinkRequest struct {
	Email string `json:"email" binding:"required"`
}

func (h *AuthHandler) MagicLink(c *gin.Context) {
	var input magicLinkRequest
	if !controllers.BindJSON(c, &input) {
		return
	}
	if err := h.AuthService.SendEmailLink(c.Request.Context(), input.Email); err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "sign-in link sent"})
}

type verifyRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *AuthHandler) VerifyMagicLink(c *gin.Context) {
	var input verifyRequest
	if !controllers.BindJSON(c, &input) {
		return
	}
	session, err := h.AuthService.SignInWithEmailLink(c.Request.Context(), input.Token)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type tokenRefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var input tokenRefreshRequest
	if !controllers.BindJSON(c, &input) {
		return
	}
	session, err := h.AuthService.Refresh(c.Request.Context(), input.RefreshToken)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		return
	}
	if err := h.AuthService.SignOut(c.Request.Context(), current); err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
