package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"precision-medicine-server/internal/config"
	"precision-medicine-server/internal/middleware"
	"precision-medicine-server/internal/models"
	"precision-medicine-server/internal/utils"
)

const refreshCookie = "refresh_token"

// SessionEnder discards a user's workflow state on logout.
type SessionEnder interface {
	EndSession(ctx context.Context, userID string) error
}

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Sessions SessionEnder
}

// NewAuthHandler creates a new AuthHandler. sessions may be nil.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, sessions SessionEnder) *AuthHandler {
	return &AuthHandler{DB: db, Cfg: cfg, Sessions: sessions}
}

// RegisterRequest represents the request body for user registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64,alphanum"`
	Email    string `json:"email" binding:"required,email,max=120"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register handles user registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var existing models.User
	err := h.DB.Where("username = ? OR email = ?", req.Username, req.Email).First(&existing).Error
	if err == nil {
		utils.BadRequest(c, "Username or email already registered")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondError(c, err)
		return
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.DB.Create(&user).Error; err != nil {
		utils.RespondError(c, utils.PersistenceError("Failed to create user", err))
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User registered")
	utils.Created(c, "User registered successfully", user.Sanitize())
}

// LoginRequest accepts either the username or the email as identifier.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the response body for successful login.
type LoginResponse struct {
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
	User         models.UserSanitized `json:"user"`
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var user models.User
	if err := h.DB.Where("username = ? OR email = ?", req.Username, req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Unauthorized(c, "Invalid username or password")
		} else {
			utils.RespondError(c, err)
		}
		return
	}

	if !user.CheckPassword(req.Password) {
		utils.Unauthorized(c, "Invalid username or password")
		return
	}

	accessToken, refreshToken, err := h.issueTokens(&user)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	h.setRefreshCookie(c, refreshToken, h.Cfg.JWTRefreshExpirationHours*60*60)

	utils.Success(c, "Login successful", LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Sanitize(),
	})
}

// RefreshTokenRequest represents the request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshTokenResponse represents the response body for successful token refresh.
type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken exchanges a refresh token for a new token pair and revokes the old one.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	// Prefer the HTTP-only cookie, fall back to the request body
	token, err := c.Cookie(refreshCookie)
	if err != nil || token == "" {
		var req RefreshTokenRequest
		if !utils.BindAndValidate(c, &req) {
			return
		}
		token = req.RefreshToken
	}

	claims, err := utils.ValidateToken(token, h.Cfg.JWTRefreshSecret)
	if err != nil {
		utils.Unauthorized(c, "Invalid refresh token")
		return
	}

	var stored models.RefreshToken
	if err := h.DB.Where("token = ? AND user_id = ?", token, claims.UserID).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Unauthorized(c, "Refresh token not found, expired, or revoked")
		} else {
			utils.RespondError(c, err)
		}
		return
	}
	if !stored.Usable(time.Now()) {
		utils.Unauthorized(c, "Refresh token not found, expired, or revoked")
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", claims.UserID).Error; err != nil {
		utils.RespondError(c, err)
		return
	}

	// Rotate: revoke the old token before issuing a new pair
	stored.IsRevoked = true
	if err := h.DB.Save(&stored).Error; err != nil {
		utils.RespondError(c, utils.PersistenceError("Failed to revoke refresh token", err))
		return
	}

	accessToken, refreshToken, err := h.issueTokens(&user)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	h.setRefreshCookie(c, refreshToken, h.Cfg.JWTRefreshExpirationHours*60*60)

	utils.Success(c, "Access token refreshed successfully", RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// LogoutRequest represents the request body for user logout.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Logout revokes the caller's refresh token, clears the cookie and drops the
// workflow session.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	token, _ := c.Cookie(refreshCookie)
	if token == "" {
		var req LogoutRequest
		_ = c.ShouldBindJSON(&req)
		token = req.RefreshToken
	}
	if token == "" {
		utils.BadRequest(c, "Refresh token is required")
		return
	}

	res := h.DB.Model(&models.RefreshToken{}).
		Where("token = ? AND user_id = ? AND is_revoked = ?", token, userID, false).
		Updates(map[string]interface{}{"is_revoked": true, "expires_at": time.Now()})
	if res.Error != nil {
		utils.RespondError(c, utils.PersistenceError("Failed to revoke refresh token", res.Error))
		return
	}

	if h.Sessions != nil {
		if err := h.Sessions.EndSession(c.Request.Context(), userID); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("failed to clear session on logout")
		}
	}

	h.setRefreshCookie(c, "", -1)
	utils.Success(c, "Logout successful", nil)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "User not found")
		} else {
			utils.RespondError(c, err)
		}
		return
	}

	utils.Success(c, "User fetched successfully", user.Sanitize())
}

func (h *AuthHandler) issueTokens(user *models.User) (string, string, error) {
	accessToken, refreshToken, err := utils.GenerateTokens(user, h.Cfg)
	if err != nil {
		return "", "", err
	}
	stored := models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: utils.RefreshExpiry(h.Cfg),
	}
	if err := h.DB.Create(&stored).Error; err != nil {
		return "", "", utils.PersistenceError("Failed to store refresh token", err)
	}
	return accessToken, refreshToken, nil
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetCookie(
		refreshCookie,
		value,
		maxAge,
		"/",
		"",
		h.Cfg.IsProduction(), // Secure
		true,                 // HttpOnly
	)
}
