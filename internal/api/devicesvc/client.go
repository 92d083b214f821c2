package devicesvc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client 遥测服务的内部调用客户端
// 注册成功后由认证服务调用，为新用户初始化默认设备
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient 创建内部客户端
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// CreateDefaults 请求遥测服务为用户创建默认设备
// 失败不阻断注册流程，返回 0
func (c *Client) CreateDefaults(ctx context.Context, userID int64) int {
	payload, err := json.Marshal(map[string]int64{"user_id": userID})
	if err != nil {
		return 0
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/devices/create-defaults", bytes.NewReader(payload))
	if err != nil {
		c.logger.Warn("Failed to build create-defaults request", zap.Error(err))
		return 0
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-Request", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Failed to reach telemetry service for defaults", zap.Error(err))
		return 0
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Warn("Create-defaults returned non-success status", zap.Int("status", resp.StatusCode))
		return 0
	}

	var result struct {
		Data struct {
			DevicesCreated int `json:"devices_created"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.Warn("Failed to decode create-defaults response", zap.Error(err))
		return 0
	}

	return result.Data.DevicesCreated
}
