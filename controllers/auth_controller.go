package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kirill-Khudyakov/shotline/config"
	"github.com/Kirill-Khudyakov/shotline/middleware"
	"github.com/Kirill-Khudyakov/shotline/models"
	"github.com/Kirill-Khudyakov/shotline/serializers"
	"github.com/Kirill-Khudyakov/shotline/store"
	"github.com/Kirill-Khudyakov/shotline/utils"
)

// AuthController handles registration, login and session lifecycle.
type AuthController struct {
	store *store.Store
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(s *store.Store) *AuthController {
	return &AuthController{store: s}
}

// Register creates an account and issues a token.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=64"`
		Email    string `json:"email" binding:"omitempty,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	username := strings.TrimSpace(req.Username)
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		respondError(ctx, 50010, err)
		return
	}

	user := &models.User{
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
	}
	if err := a.store.CreateUser(ctx.Request.Context(), user); err != nil {
		respondError(ctx, 40910, err)
		return
	}

	token, err := a.issueToken(user)
	if err != nil {
		respondError(ctx, 50011, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{
		"token": token,
		"user":  serializers.User(user),
	})
}

// Login verifies credentials and issues a token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid request payload")
		return
	}

	user, err := a.store.UserByUsername(ctx.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		// Same answer for unknown user and bad password.
		utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid username or password")
		return
	}

	token, err := a.issueToken(user)
	if err != nil {
		respondError(ctx, 50012, err)
		return
	}
	utils.Success(ctx, gin.H{
		"token": token,
		"user":  serializers.User(user),
	})
}

// Logout revokes the presented token until its natural expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	if raw, exists := ctx.Get(middleware.ContextTokenKey); exists {
		if token, ok := raw.(string); ok && token != "" {
			if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
				utils.RevokeToken(token, claims.ExpiresAt.Time)
			}
		}
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current identity.
func (a *AuthController) Me(ctx *gin.Context) {
	subject := middleware.Subject(ctx)
	user, err := a.store.UserByID(ctx.Request.Context(), subject.UserID)
	if err != nil {
		respondError(ctx, 40440, err)
		return
	}
	utils.Success(ctx, gin.H{
		"user":         serializers.User(user),
		"is_superuser": user.IsSuperuser,
	})
}

func (a *AuthController) issueToken(user *models.User) (string, error) {
	ttl := time.Duration(config.Get().TokenTTLHours) * time.Hour
	return utils.GenerateToken(user.ID, user.Username, user.IsSuperuser, ttl)
}
