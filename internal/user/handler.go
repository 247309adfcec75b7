package user

import (
	"errors"
	"net/http"
	"time"

	"github.com/SlpAus/anon-voting-backend/pkg/token"
	"github.com/gin-gonic/gin"
)

// Handler 持有用户相关API所需的依赖。
type Handler struct {
	svc      *Service
	tokenTTL time.Duration
}

// NewHandler 创建一个用户API处理器。
func NewHandler(svc *Service, tokenTTL time.Duration) *Handler {
	return &Handler{svc: svc, tokenTTL: tokenTTL}
}

// RegisterRequestBody 定义了注册请求体的JSON结构
type RegisterRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

// LoginRequestBody 定义了登录请求体的JSON结构
type LoginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// issueToken 为用户签发一个会话令牌。
func (h *Handler) issueToken(u *User) (string, error) {
	return token.IssueSessionToken(token.SessionClaims{
		UserID:    u.ID,
		Role:      string(u.Role),
		ExpiresAt: time.Now().Add(h.tokenTTL).Unix(),
	})
}

// Register 处理 POST /api/register
func (h *Handler) Register(c *gin.Context) {
	var body RegisterRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error(), "code": "VALIDATION_FAILED"})
		return
	}

	newUser, err := h.svc.Register(RegisterInput{
		Email:    body.Email,
		Password: body.Password,
		FullName: body.FullName,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "EMAIL_TAKEN"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "注册失败: " + err.Error()})
		return
	}

	tokenStr, err := h.issueToken(newUser)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法签发会话令牌"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "用户注册成功",
		"user":    newUser,
		"token":   tokenStr,
	})
}

// Login 处理 POST /api/login
func (h *Handler) Login(c *gin.Context) {
	var body LoginRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error(), "code": "VALIDATION_FAILED"})
		return
	}

	u, err := h.svc.Authenticate(body.Email, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "INVALID_CREDENTIALS"})
		case errors.Is(err, ErrUserInactive):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "USER_INACTIVE"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "登录失败: " + err.Error()})
		}
		return
	}

	tokenStr, err := h.issueToken(u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法签发会话令牌"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "登录成功",
		"user":    u,
		"token":   tokenStr,
	})
}

// Profile 处理 GET /api/profile
func (h *Handler) Profile(c *gin.Context) {
	userID := c.GetString(UserIDKey)

	u, err := h.svc.GetByID(userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "USER_NOT_FOUND"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询用户信息失败"})
		return
	}

	c.JSON(http.StatusOK, u)
}
