package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rahul-biziquick/BiziQuick/internal/auth/service"
	"github.com/rahul-biziquick/BiziQuick/internal/devotp"
	sessiondomain "github.com/rahul-biziquick/BiziQuick/internal/session/domain"
)

// RefreshCookieName is the httpOnly cookie carrying the WEB refresh token.
const RefreshCookieName = "webRefreshToken"

// AuthHandler exposes the authentication endpoints over HTTP.
type AuthHandler struct {
	Auth   *service.AuthService
	DevOTP devotp.Store // nil disables the dev OTP lookup endpoint
}

// NewAuthHandler creates the handler set.
func NewAuthHandler(auth *service.AuthService, devOTP devotp.Store) *AuthHandler {
	return &AuthHandler{Auth: auth, DevOTP: devOTP}
}

// RegisterRoutes mounts the public auth endpoints on the router.
func (h *AuthHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/auth/register", h.Register)
	r.POST("/auth/verify-register-otp", h.VerifyRegisterOTP)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/verify-otp", h.VerifyLoginOTP)
	r.POST("/auth/refresh-token", h.Refresh)
	r.POST("/auth/logout", h.Logout)
	r.POST("/auth/forgot-password", h.ForgotPassword)
	r.POST("/auth/reset-password", h.ResetPassword)
	if h.DevOTP != nil {
		r.GET("/dev/auth/otp", h.DevOTPLookup)
	}
}

// platformFrom resolves the platform from the request body value, falling
// back to the X-Platform header.
func platformFrom(c *gin.Context, body string) sessiondomain.Platform {
	p := strings.TrimSpace(body)
	if p == "" {
		p = strings.TrimSpace(c.GetHeader("X-Platform"))
	}
	return sessiondomain.Platform(strings.ToUpper(p))
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrUnknownTenant),
		errors.Is(err, service.ErrInvalidPlatform),
		errors.Is(err, service.ErrInvalidOTP),
		errors.Is(err, service.ErrNoPendingLogin),
		errors.Is(err, service.ErrNotLoggedIn),
		errors.Is(err, service.ErrResetTokenInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrNotVerified):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrRefreshInvalid):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// Register creates an unverified account and sends the registration OTP.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role" binding:"required"`
		TenantID string `json:"tenantId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	userID, err := h.Auth.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Role, req.TenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"userId": userID, "message": "verification code sent"})
}

// VerifyRegisterOTP marks the account verified when the code matches.
func (h *AuthHandler) VerifyRegisterOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		OTP   string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.Auth.VerifyRegisterOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account verified"})
}

// Login checks credentials and opens a pending login awaiting OTP.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Platform string `json:"platform"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password, platformFrom(c, req.Platform))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pendingToken": res.PendingToken,
		"platform":     res.Platform,
		"message":      "verification code sent",
	})
}

// VerifyLoginOTP completes a pending login and issues the session tokens.
// WEB gets the refresh token as an httpOnly cookie; MOBILE gets it in the body.
func (h *AuthHandler) VerifyLoginOTP(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		OTP      string `json:"otp" binding:"required"`
		Platform string `json:"platform"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	platform := platformFrom(c, req.Platform)
	res, err := h.Auth.VerifyLoginOTP(c.Request.Context(), req.Email, req.OTP, platform)
	if err != nil {
		respondError(c, err)
		return
	}
	body := gin.H{
		"accessToken":    res.AccessToken,
		"expiresAt":      res.AccessExpiresAt.UTC().Format(time.RFC3339),
		"sessionVersion": res.SessionVersion,
		"user": gin.H{
			"id":       res.UserID,
			"role":     res.Role,
			"tenantId": res.TenantID,
		},
	}
	if platform == sessiondomain.PlatformWeb {
		setRefreshCookie(c, res.RefreshToken, res.RefreshExpiresAt)
	} else {
		body["refreshToken"] = res.RefreshToken
	}
	c.JSON(http.StatusOK, body)
}

// Refresh exchanges a valid refresh token for a new access token. WEB reads
// the token from the cookie, MOBILE from the body.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
		Platform     string `json:"platform"`
	}
	// body is optional for WEB, so binding errors are ignored
	_ = c.ShouldBindJSON(&req)

	platform := platformFrom(c, req.Platform)
	token := req.RefreshToken
	if platform == sessiondomain.PlatformWeb {
		if cookie, err := c.Cookie(RefreshCookieName); err == nil {
			token = cookie
		}
	}
	accessToken, expiresAt, err := h.Auth.Refresh(c.Request.Context(), token, platform)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken": accessToken,
		"expiresAt":   expiresAt.UTC().Format(time.RFC3339),
	})
}

// Logout clears the platform's stored refresh token and, for WEB, the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Platform string `json:"platform"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	platform := platformFrom(c, req.Platform)
	if err := h.Auth.Logout(c.Request.Context(), req.Email, platform); err != nil {
		respondError(c, err)
		return
	}
	if platform == sessiondomain.PlatformWeb {
		clearRefreshCookie(c)
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// ForgotPassword sends a password reset token to the account email.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.Auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password reset email sent"})
}

// ResetPassword sets a new password for the holder of an unexpired reset token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.Auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// DevOTPLookup returns the most recent OTP stored for an email. Only mounted
// when dev OTP mode is enabled.
func (h *AuthHandler) DevOTPLookup(c *gin.Context) {
	email := strings.TrimSpace(strings.ToLower(c.Query("email")))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter is required"})
		return
	}
	otp, ok := h.DevOTP.Get(c.Request.Context(), email)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active code for email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": email, "otp": otp})
}

func setRefreshCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookieName, token, maxAge, "/", "", false, true)
}

func clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookieName, "", -1, "/", "", false, true)
}
