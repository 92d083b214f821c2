package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/wattgazer/internal/middleware"
	"github.com/langchou/wattgazer/internal/models"
	"github.com/langchou/wattgazer/internal/repository"
	"github.com/langchou/wattgazer/internal/service"
	"github.com/langchou/wattgazer/pkg/ws"
)

// TelemetryHandler 设备与遥测服务处理器
type TelemetryHandler struct {
	logger        *zap.Logger
	deviceRepo    *repository.DeviceRepository
	scheduleRepo  *repository.ScheduleRepository
	telemetryRepo *repository.TelemetryRepository
	authService   *service.AuthService
	seeder        *service.SeederService
	limiter       *middleware.RateLimiter
	wsHub         *ws.Hub
	upgrader      websocket.Upgrader
}

// NewTelemetryHandler 创建遥测处理器
func NewTelemetryHandler(
	logger *zap.Logger,
	deviceRepo *repository.DeviceRepository,
	scheduleRepo *repository.ScheduleRepository,
	telemetryRepo *repository.TelemetryRepository,
	authService *service.AuthService,
	seeder *service.SeederService,
	limiter *middleware.RateLimiter,
	wsHub *ws.Hub,
) *TelemetryHandler {
	return &TelemetryHandler{
		logger:        logger,
		deviceRepo:    deviceRepo,
		scheduleRepo:  scheduleRepo,
		telemetryRepo: telemetryRepo,
		authService:   authService,
		seeder:        seeder,
		limiter:       limiter,
		wsHub:         wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// RegisterRoutes 注册路由
func (h *TelemetryHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Status)

	// 设备端上报，不走用户认证
	r.POST("/telemetry", h.RecordTelemetry)

	// 服务间调用
	r.POST("/devices/create-defaults", middleware.InternalOnly(), h.CreateDefaults)

	// 用户接口
	authed := r.Group("/", middleware.JWTAuth(h.authService, h.logger))
	{
		authed.GET("/devices", h.ListDevices)
		authed.GET("/devices/:id/schedule", h.GetSchedule)

		// 写操作按用户限流
		limited := authed.Group("/", middleware.RateLimit(h.limiter))
		{
			limited.POST("/devices", h.CreateDevice)
			limited.PUT("/devices/:id", h.UpdateDevice)
			limited.DELETE("/devices/:id", h.DeleteDevice)
			limited.POST("/devices/:id/schedule", h.SetSchedule)
		}
	}

	// WebSocket（令牌通过查询参数传递）
	r.GET("/ws", h.HandleWebSocket)
}

// Status 服务状态
func (h *TelemetryHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "Telemetry Service is running"})
}

// CreateDevice 注册设备
func (h *TelemetryHandler) CreateDevice(c *gin.Context) {
	var req models.DeviceCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("Invalid request body", http.StatusBadRequest))
		return
	}

	device := &models.Device{
		UserID:      middleware.UserID(c),
		Name:        req.Name,
		Type:        req.Type,
		Room:        req.Room,
		PowerRating: req.PowerRating,
	}

	if err := h.deviceRepo.Create(c.Request.Context(), device); err != nil {
		h.logger.Error("Failed to create device", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}

	h.logger.Info("Device created",
		zap.Int64("device_id", device.ID),
		zap.Int64("user_id", device.UserID),
	)
	c.JSON(http.StatusCreated, models.SuccessResponse(gin.H{"id": device.ID}, "Device created successfully"))
}

// ListDevices 获取用户设备列表
func (h *TelemetryHandler) ListDevices(c *gin.Context) {
	devices, err := h.deviceRepo.ListByUserID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.logger.Error("Failed to list devices", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"devices": devices}, ""))
}

// UpdateDevice 设备部分更新
func (h *TelemetryHandler) UpdateDevice(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("Invalid device ID", http.StatusBadRequest))
		return
	}

	var patch models.DevicePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("Invalid request body", http.StatusBadRequest))
		return
	}

	if patch.IsEmpty() {
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Device updated successfully"))
		return
	}

	updated, err := h.deviceRepo.Update(c.Request.Context(), id, middleware.UserID(c), &patch)
	if err != nil {
		h.logger.Error("Failed to update device", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, models.ErrorResponse("Device not found", http.StatusNotFound))
		return
	}

	h.logger.Info("Device updated", zap.Int64("device_id", id))
	c.JSON(http.StatusOK, models.SuccessResponse(nil, "Device updated successfully"))
}

// DeleteDevice 删除设备
func (h *TelemetryHandler) DeleteDevice(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("Invalid device ID", http.StatusBadRequest))
		return
	}

	deleted, err := h.deviceRepo.Delete(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		h.logger.Error("Failed to delete device", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, models.ErrorResponse("Device not found", http.StatusNotFound))
		return
	}

	h.logger.Info("Device deleted", zap.Int64("device_id", id))
	c.JSON(http.StatusOK, models.SuccessResponse(nil, "Device deleted successfully"))
}

// SetSchedule 原子替换设备排程
func (h *TelemetryHandler) SetSchedule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("Invalid device ID", http.StatusBadRequest))
		return
	}

	var blocks []models.ScheduleBlock
	if err := c.ShouldBindJSON(&blocks); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("Invalid request body", http.StatusBadRequest))
		return
	}

	owned, err := h.deviceRepo.ExistsForUser(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		h.logger.Error("Failed to check device owner", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}
	if !owned {
		c.JSON(http.StatusNotFound, models.ErrorResponse("Device not found", http.StatusNotFound))
		return
	}

	if err := h.scheduleRepo.Replace(c.Request.Context(), id, blocks); err != nil {
		h.logger.Error("Failed to replace schedule", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}

	h.logger.Info("Schedule updated", zap.Int64("device_id", id), zap.Int("blocks", len(blocks)))
	c.JSON(http.StatusOK, models.SuccessResponse(nil, "Schedule updated successfully"))
}

// GetSchedule 获取设备排程
func (h *TelemetryHandler) GetSchedule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("Invalid device ID", http.StatusBadRequest))
		return
	}

	owned, err := h.deviceRepo.ExistsForUser(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		h.logger.Error("Failed to check device owner", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}
	if !owned {
		c.JSON(http.StatusNotFound, models.ErrorResponse("Device not found", http.StatusNotFound))
		return
	}

	blocks, err := h.scheduleRepo.ListByDeviceID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to list schedule", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}
	if blocks == nil {
		blocks = []models.ScheduleBlock{}
	}

	c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"schedule": blocks}, ""))
}

// RecordTelemetry 追加遥测读数并广播
// 时间戳由服务端分配；energy_usage 不校验符号（允许净计量负值）
func (h *TelemetryHandler) RecordTelemetry(c *gin.Context) {
	var req models.TelemetryData
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("Invalid request body", http.StatusBadRequest))
		return
	}

	reading, err := h.telemetryRepo.Insert(c.Request.Context(), req.DeviceID, req.EnergyUsage)
	if err != nil {
		h.logger.Error("Failed to insert telemetry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}

	// 推送给设备归属用户的在线连接
	if ownerID, err := h.deviceRepo.OwnerOf(c.Request.Context(), req.DeviceID); err == nil {
		h.wsHub.BroadcastTelemetry(ownerID, reading)
	}

	c.JSON(http.StatusCreated, models.SuccessResponse(req, "Telemetry data recorded successfully"))
}

// CreateDefaults 为新注册用户初始化默认设备（服务间调用）
func (h *TelemetryHandler) CreateDefaults(c *gin.Context) {
	var req struct {
		UserID int64 `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("Invalid request body", http.StatusBadRequest))
		return
	}

	created, err := h.seeder.SeedDefaults(c.Request.Context(), req.UserID)
	if err != nil {
		h.logger.Error("Failed to seed default devices", zap.Error(err), zap.Int64("user_id", req.UserID))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error", http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse(gin.H{"devices_created": created}, "Default devices created"))
}

// HandleWebSocket 实时遥测推送
// 浏览器 WebSocket 无法带自定义头，令牌从查询参数读取
func (h *TelemetryHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	claims, err := h.authService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse("Invalid token", http.StatusUnauthorized))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn, claims.UserID)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}
