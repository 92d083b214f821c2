package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/wattgazer/internal/api/devicesvc"
	"github.com/langchou/wattgazer/internal/middleware"
	"github.com/langchou/wattgazer/internal/models"
	"github.com/langchou/wattgazer/internal/repository"
	"github.com/langchou/wattgazer/internal/service"
)

// AuthHandler 认证服务处理器
type AuthHandler struct {
	logger      *zap.Logger
	userRepo    *repository.UserRepository
	authService *service.AuthService
	limiter     *middleware.RateLimiter
	deviceSvc   *devicesvc.Client
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(
	logger *zap.Logger,
	userRepo *repository.UserRepository,
	authService *service.AuthService,
	limiter *middleware.RateLimiter,
	deviceSvc *devicesvc.Client,
) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		userRepo:    userRepo,
		authService: authService,
		limiter:     limiter,
		deviceSvc:   deviceSvc,
	}
}

// RegisterRoutes 注册路由
func (h *AuthHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/auth", h.Status)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
}

// Status 服务状态
func (h *AuthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "Auth Service is running"})
}

// UserCreate 注册请求
type UserCreate struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register 注册新用户，成功后初始化默认设备
func (h *AuthHandler) Register(c *gin.Context) {
	var req UserCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("Invalid request body", http.StatusBadRequest))
		return
	}

	// 按注册邮箱限流
	if !h.limiter.Allow(req.Email) {
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse("Too many attempts. Try again later.", http.StatusTooManyRequests))
		return
	}

	exists, err := h.userRepo.ExistsByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("Failed to check existing user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}
	if exists {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("Email already registered.", http.StatusBadRequest))
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("Failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}

	user := &models.User{Email: req.Email, PasswordHash: hash}
	if err := h.userRepo.Create(c.Request.Context(), user); err != nil {
		h.logger.Error("Failed to create user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}

	// 请求遥测服务初始化默认设备，失败不阻断注册
	devicesCreated := h.deviceSvc.CreateDefaults(c.Request.Context(), user.ID)

	h.logger.Info("User registered", zap.Int64("user_id", user.ID))
	c.JSON(http.StatusCreated, models.SuccessResponse(gin.H{
		"user_id":         user.ID,
		"devices_created": devicesCreated,
	}, "User registered successfully"))
}

// Token 登录响应
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login 登录，返回 Bearer 令牌
// 表单字段沿用 OAuth2 password flow 的 username/password
func (h *AuthHandler) Login(c *gin.Context) {
	email := c.PostForm("username")
	password := c.PostForm("password")
	if email == "" || password == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("username and password are required", http.StatusBadRequest))
		return
	}

	// 按登录邮箱限流
	if !h.limiter.Allow(email) {
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse("Too many attempts. Try again later.", http.StatusTooManyRequests))
		return
	}

	user, err := h.userRepo.GetByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse("User not found.", http.StatusNotFound))
			return
		}
		h.logger.Error("Failed to load user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}

	if !h.authService.VerifyPassword(password, user.PasswordHash) {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, models.ErrorResponse("Incorrect password", http.StatusUnauthorized))
		return
	}

	token, err := h.authService.GenerateToken(user.ID, user.Email)
	if err != nil {
		h.logger.Error("Failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, Token{AccessToken: token, TokenType: "bearer"})
}
