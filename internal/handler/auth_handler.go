package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akshardoc/akshardoc/internal/middleware"
	"github.com/akshardoc/akshardoc/internal/pkg/response"
	"github.com/akshardoc/akshardoc/internal/service"
)

type AuthHandler struct {
	auth       *service.AuthService
	sessionTTL time.Duration
}

func NewAuthHandler(auth *service.AuthService, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, sessionTTL: sessionTTL}
}

type otpRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		response.Error(c, http.StatusBadRequest, "invalid", "email is required")
		return
	}
	if err := h.auth.RequestOTP(c.Request.Context(), req.Email); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"sent": true})
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Code) == "" {
		response.Error(c, http.StatusBadRequest, "invalid", "email and code are required")
		return
	}
	token, err := h.auth.VerifyOTP(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		handleError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(h.sessionTTL/time.Second), "/", "", false, true)
	response.Success(c, gin.H{"authenticated": true})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(middleware.SessionCookie)
	if token != "" {
		if err := h.auth.Logout(c.Request.Context(), token); err != nil {
			handleError(c, err)
			return
		}
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	response.Success(c, gin.H{"ok": true})
}
