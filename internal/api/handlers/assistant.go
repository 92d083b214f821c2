package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/wattgazer/internal/api/openrouter"
	"github.com/langchou/wattgazer/internal/middleware"
	"github.com/langchou/wattgazer/internal/models"
	"github.com/langchou/wattgazer/internal/projector"
	"github.com/langchou/wattgazer/internal/repository"
	"github.com/langchou/wattgazer/internal/service"
)

// AssistantHandler AI 助手服务处理器
type AssistantHandler struct {
	logger      *zap.Logger
	deviceRepo  *repository.DeviceRepository
	assistant   *service.AssistantService
	proj        *projector.Projector
	llm         *openrouter.Client
	authService *service.AuthService
	limiter     *middleware.RateLimiter
}

// NewAssistantHandler 创建助手处理器
func NewAssistantHandler(
	logger *zap.Logger,
	deviceRepo *repository.DeviceRepository,
	assistant *service.AssistantService,
	proj *projector.Projector,
	llm *openrouter.Client,
	authService *service.AuthService,
	limiter *middleware.RateLimiter,
) *AssistantHandler {
	return &AssistantHandler{
		logger:      logger,
		deviceRepo:  deviceRepo,
		assistant:   assistant,
		proj:        proj,
		llm:         llm,
		authService: authService,
		limiter:     limiter,
	}
}

// RegisterRoutes 注册路由
func (h *AssistantHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ai", h.Status)

	authed := r.Group("/ai", middleware.JWTAuth(h.authService, h.logger))
	{
		authed.GET("/devices", h.ListDevices)
		authed.GET("/dashboard", h.Dashboard)
		authed.GET("/consumption-timeline", h.ConsumptionTimeline)
		authed.POST("/query", middleware.RateLimit(h.limiter), h.Query)
	}
}

// Status 服务状态
func (h *AssistantHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":             "AI Service is running",
		"api_key_configured": h.llm.Configured(),
	})
}

// QueryRequest 自然语言查询请求
type QueryRequest struct {
	Question string `json:"question" binding:"required"`
}

// Query 自然语言能耗问答
func (h *AssistantHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("question is required", http.StatusBadRequest))
		return
	}

	answer, err := h.assistant.Answer(c.Request.Context(), middleware.UserID(c), req.Question)
	if err != nil {
		h.logger.Error("Failed to answer query", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, answer)
}

// ListDevices 设备列表（含月度预测）
func (h *AssistantHandler) ListDevices(c *gin.Context) {
	userID := middleware.UserID(c)

	devices, err := h.deviceRepo.ListByUserID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list devices", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}

	result := make([]gin.H, 0, len(devices))
	for _, d := range devices {
		projection, err := h.proj.MonthlyProjection(c.Request.Context(), d.ID)
		if err != nil {
			h.logger.Error("Failed to project device usage", zap.Error(err), zap.Int64("device_id", d.ID))
			c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
			return
		}
		result = append(result, gin.H{
			"id":                      d.ID,
			"name":                    d.Name,
			"type":                    d.Type,
			"room":                    d.Room,
			"power_rating":            d.PowerRating,
			"projected_monthly_usage": projection,
			"projected_monthly_cost":  h.proj.Cost(projection),
		})
	}

	c.JSON(http.StatusOK, gin.H{"devices": result})
}

// Dashboard 能耗看板汇总
func (h *AssistantHandler) Dashboard(c *gin.Context) {
	summary, err := h.proj.DashboardSummary(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.logger.Error("Failed to build dashboard summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ConsumptionTimeline 历史+预测时间线
// view 取值 daily/weekly/monthly，缺省 daily
func (h *AssistantHandler) ConsumptionTimeline(c *gin.Context) {
	view, err := projector.ParseView(c.Query("view"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("view must be daily, weekly or monthly", http.StatusBadRequest))
		return
	}

	timeline, err := h.proj.ConsumptionTimeline(c.Request.Context(), middleware.UserID(c), view, time.Now())
	if err != nil {
		h.logger.Error("Failed to build consumption timeline", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, timeline)
}
