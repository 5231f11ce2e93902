package user

import (
	"net/http"
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/apperror"
	"github.com/gin-gonic/gin"
)

// --- API 请求/响应模型 ---

type signupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Handler struct {
	svc          *Service
	cookieName   string
	secureCookie bool
}

func NewHandler(svc *Service, cookieName string, secureCookie bool) *Handler {
	return &Handler{svc: svc, cookieName: cookieName, secureCookie: secureCookie}
}

func (h *Handler) setSessionCookie(c *gin.Context, s *Session) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, s.Token, maxAge, "/", "", h.secureCookie, true)
}

// Signup 处理 POST /api/auth/signup，注册成功后直接登录
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.Respond(c, apperror.Validation("Email and password are required"))
		return
	}

	u, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	session, err := h.svc.IssueSession(u.ID)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	h.setSessionCookie(c, session)
	c.JSON(http.StatusCreated, sessionResponse{User: u, Token: session.Token, ExpiresAt: session.ExpiresAt})
}

// Login 处理 POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.Respond(c, apperror.Validation("Email and password are required"))
		return
	}

	u, session, err := h.svc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	h.setSessionCookie(c, session)
	c.JSON(http.StatusOK, sessionResponse{User: u, Token: session.Token, ExpiresAt: session.ExpiresAt})
}

// Logout 处理 POST /api/auth/logout，需要已登录
func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), currentClaims(c)); err != nil {
		apperror.Respond(c, err)
		return
	}
	c.SetCookie(h.cookieName, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me 处理 GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	userID, err := CurrentUserID(c)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	u, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
