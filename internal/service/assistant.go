package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/wattgazer/internal/api/openrouter"
	"github.com/langchou/wattgazer/internal/models"
	"github.com/langchou/wattgazer/internal/projector"
	"github.com/langchou/wattgazer/internal/repository"
)

// 意图类型
const (
	IntentDataQuery     = "DATA_QUERY"
	IntentGeneralAdvice = "GENERAL_ADVICE"
)

// 数据查询类型
const (
	QuerySum         = "SUM"
	QueryAvg         = "AVG"
	QueryListDevices = "LIST_DEVICES"
	QueryTimeSeries  = "TIME_SERIES"
)

const assistantTitle = "Wat - Your Energy Assistant"

// LLMParams 数据查询参数
type LLMParams struct {
	DeviceName *string `json:"device_name"`
	TimeStart  *string `json:"time_start"`
	TimeEnd    *string `json:"time_end"`
}

// DataQuery 结构化数据查询意图
type DataQuery struct {
	QueryType string    `json:"query_type"`
	Params    LLMParams `json:"params"`
}

// GeneralResponse 通用回答意图
type GeneralResponse struct {
	ResponseType string `json:"response_type"`
	Content      string `json:"content"`
}

// LLMResponse 意图分类结果
type LLMResponse struct {
	IntentType      string           `json:"intent_type"`
	DataQuery       *DataQuery       `json:"data_query,omitempty"`
	GeneralResponse *GeneralResponse `json:"general_response,omitempty"`
}

// AssistantService AI 查询助手
// 通过 LLM 做意图分类，数据查询在本地执行，LLM 不直接接触数据库
type AssistantService struct {
	logger        *zap.Logger
	llm           *openrouter.Client
	deviceRepo    *repository.DeviceRepository
	telemetryRepo *repository.TelemetryRepository
	proj          *projector.Projector
}

// NewAssistantService 创建助手服务
func NewAssistantService(
	logger *zap.Logger,
	llm *openrouter.Client,
	deviceRepo *repository.DeviceRepository,
	telemetryRepo *repository.TelemetryRepository,
	proj *projector.Projector,
) *AssistantService {
	return &AssistantService{
		logger:        logger,
		llm:           llm,
		deviceRepo:    deviceRepo,
		telemetryRepo: telemetryRepo,
		proj:          proj,
	}
}

// Answer 处理用户提问
func (s *AssistantService) Answer(ctx context.Context, userID int64, question string) (map[string]interface{}, error) {
	devices, err := s.deviceRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	intent := s.classify(ctx, devices, question)

	if intent.IntentType == IntentGeneralAdvice && intent.GeneralResponse != nil {
		return map[string]interface{}{
			"summary": assistantTitle,
			"content": intent.GeneralResponse.Content,
		}, nil
	}

	if intent.IntentType == IntentDataQuery && intent.DataQuery != nil {
		return s.executeQuery(ctx, userID, devices, intent.DataQuery)
	}

	return map[string]interface{}{"detail": "Query type not implemented"}, nil
}

// classify 意图分类：LLM 输出 JSON，失败时回落到关键词启发式
func (s *AssistantService) classify(ctx context.Context, devices []*models.Device, question string) *LLMResponse {
	prompt := buildSystemPrompt(devices)

	output, err := s.llm.Complete(ctx, prompt, question, true, 800)
	if err != nil {
		s.logger.Warn("LLM completion failed, falling back", zap.Error(err))
		return fallbackIntent(question)
	}

	intent, err := ParseLLMResponse(output)
	if err != nil {
		s.logger.Warn("LLM output parse failed, falling back",
			zap.Error(err),
			zap.String("output", output),
		)
		return fallbackIntent(question)
	}

	return intent
}

// ParseLLMResponse 解析并校验 LLM 的意图 JSON
func ParseLLMResponse(output string) (*LLMResponse, error) {
	var resp LLMResponse
	if err := json.Unmarshal([]byte(output), &resp); err != nil {
		return nil, fmt.Errorf("unmarshal intent: %w", err)
	}

	switch resp.IntentType {
	case IntentDataQuery:
		if resp.DataQuery == nil {
			return nil, fmt.Errorf("data query intent missing data_query")
		}
	case IntentGeneralAdvice:
		if resp.GeneralResponse == nil {
			return nil, fmt.Errorf("general advice intent missing general_response")
		}
	default:
		return nil, fmt.Errorf("unknown intent type %q", resp.IntentType)
	}

	return &resp, nil
}

// fallbackIntent LLM 不可用时的关键词分类
func fallbackIntent(question string) *LLMResponse {
	lower := strings.ToLower(question)
	if strings.Contains(lower, "monthly") || strings.Contains(lower, "forecast") || strings.Contains(lower, "bill") {
		return &LLMResponse{
			IntentType: IntentDataQuery,
			DataQuery: &DataQuery{
				QueryType: QuerySum,
				Params:    LLMParams{},
			},
		}
	}

	return &LLMResponse{
		IntentType: IntentGeneralAdvice,
		GeneralResponse: &GeneralResponse{
			ResponseType: "GENERAL",
			Content: "Hi there! I'm Wat, your friendly energy assistant! ⚡️ I'm here to help you understand and optimize your home's energy usage. You can ask me about:\n\n" +
				"• Your current energy consumption\n• Monthly cost projections\n• Device-specific usage patterns\n• Energy-saving tips and tricks\n• Smart home automation ideas\n• Peak hours and rate optimization\n\n" +
				"What would you like to know about your energy usage today?",
		},
	}
}

// buildSystemPrompt 按用户实际设备生成分类提示词
func buildSystemPrompt(devices []*models.Device) string {
	var deviceInfo strings.Builder
	if len(devices) == 0 {
		deviceInfo.WriteString("- No devices configured yet")
	} else {
		for i, d := range devices {
			if i > 0 {
				deviceInfo.WriteString("\n")
			}
			room := strings.ReplaceAll(d.Room, "_", " ")
			fmt.Fprintf(&deviceInfo, "- %s: %s in %s", d.Name, d.Type, room)
		}
	}

	return fmt.Sprintf(`You are Wat, a friendly and knowledgeable AI energy assistant for a smart home monitoring system. Your personality is warm, helpful, and enthusiastic about helping users understand and optimize their energy usage.

IMPORTANT: You have access to the user's actual device data, historical usage, and schedules.

The user has the following devices:
%s

When responding to users:
1. Always introduce yourself as Wat if it's a greeting or first interaction
2. Be conversational and friendly while staying focused on energy-related topics
3. For general conversation, energy questions, tips, or advice, use GENERAL_ADVICE
4. Only use DATA_QUERY when the user specifically asks about their devices, usage, or costs

Response formats:

For monthly forecasts, projections, cost estimates, or anything about "monthly" consumption/costs:
{"intent_type": "DATA_QUERY", "data_query": {"query_type": "SUM", "params": {"device_name": null, "time_start": null, "time_end": null}}}

For data queries about specific devices, use their exact name from above:
{"intent_type": "DATA_QUERY", "data_query": {"query_type": "SUM" | "AVG" | "LIST_DEVICES" | "TIME_SERIES", "params": {"device_name": "Exact Device Name" | null, "time_start": null, "time_end": null}}}

For greetings, general energy conversation, tips, advice, or any non-specific queries:
{"intent_type": "GENERAL_ADVICE", "general_response": {"response_type": "GENERAL", "content": "Your friendly, conversational response here"}}

Remember:
- Greet users warmly and introduce yourself as Wat
- Always be helpful and encouraging about energy savings
- Use emojis sparingly to be friendly (⚡️ 💡 🌱 ♻️)
- If users ask non-energy questions, gently redirect to energy topics
- For ANY question about monthly costs, forecasts, or projections, use DATA_QUERY
- Match device names exactly as shown above`, deviceInfo.String())
}

// executeQuery 执行结构化数据查询
func (s *AssistantService) executeQuery(ctx context.Context, userID int64, devices []*models.Device, query *DataQuery) (map[string]interface{}, error) {
	if query.QueryType == QueryListDevices {
		list := make([]map[string]interface{}, 0, len(devices))
		for _, d := range devices {
			list = append(list, map[string]interface{}{
				"name": d.Name,
				"id":   d.ID,
				"type": d.Type,
				"room": d.Room,
			})
		}
		return map[string]interface{}{
			"summary": "Your Smart Home Devices",
			"data":    list,
		}, nil
	}

	if query.Params.DeviceName == nil || *query.Params.DeviceName == "" {
		if query.QueryType == QuerySum {
			return s.totalForecast(ctx, userID, devices)
		}
		return map[string]interface{}{
			"summary": "Please specify a device",
			"content": "I need to know which device you're asking about. You have: " + deviceNames(devices) + ".",
		}, nil
	}

	device, err := s.deviceRepo.GetByName(ctx, *query.Params.DeviceName, userID)
	if err != nil {
		return map[string]interface{}{
			"summary": "Device not found",
			"content": fmt.Sprintf("I couldn't find '%s' in your devices. Your available devices are: %s.", *query.Params.DeviceName, deviceNames(devices)),
		}, nil
	}

	switch query.QueryType {
	case QuerySum:
		return s.deviceSum(ctx, device)
	case QueryAvg:
		return s.deviceAvg(ctx, device)
	case QueryTimeSeries:
		return s.deviceTimeSeries(ctx, device)
	}

	return map[string]interface{}{"detail": "Query type not implemented"}, nil
}

// totalForecast 全部设备的月度预测
func (s *AssistantService) totalForecast(ctx context.Context, userID int64, devices []*models.Device) (map[string]interface{}, error) {
	var totalProjection, totalCurrent float64

	for _, device := range devices {
		current, err := s.telemetryRepo.MonthToDateByDevice(ctx, device.ID)
		if err != nil {
			return nil, err
		}
		totalCurrent += current

		projection, err := s.proj.MonthlyProjection(ctx, device.ID)
		if err != nil {
			return nil, err
		}
		totalProjection += projection
	}

	currentCost := s.proj.Cost(totalCurrent)
	projectedCost := s.proj.Cost(totalProjection)
	daysRemaining := 30 - time.Now().Day()

	return map[string]interface{}{
		"summary": "Monthly Energy Forecast",
		"content": fmt.Sprintf(
			"Based on your device schedules, your projected monthly usage is %.2f kWh ($%.2f). So far this month, you've used %.2f kWh ($%.2f) with %d days remaining.",
			totalProjection, projectedCost, totalCurrent, currentCost, daysRemaining,
		),
		"value":           totalProjection,
		"unit":            "kWh",
		"cost":            fmt.Sprintf("$%.2f", projectedCost),
		"current_usage":   fmt.Sprintf("%.2f kWh", totalCurrent),
		"current_cost":    fmt.Sprintf("$%.2f", currentCost),
		"additional_info": "This projection is based on your configured device schedules. Actual usage may vary.",
	}, nil
}

// deviceSum 单台设备的用电总量与月度投影
func (s *AssistantService) deviceSum(ctx context.Context, device *models.Device) (map[string]interface{}, error) {
	total, _, first, last, err := s.telemetryRepo.SumStats(ctx, device.ID)
	if err != nil {
		return nil, err
	}

	projection, err := s.proj.MonthlyProjection(ctx, device.ID)
	if err != nil {
		return nil, err
	}

	actualCost := s.proj.Cost(total)
	projectedCost := s.proj.Cost(projection)

	var daysTracked int
	if first != nil && last != nil {
		daysTracked = int(last.Sub(*first).Hours()/24) + 1
	}

	return map[string]interface{}{
		"summary":            fmt.Sprintf("Energy usage for %s", device.Name),
		"value":              total,
		"unit":               "kWh",
		"cost":               fmt.Sprintf("$%.2f", actualCost),
		"monthly_projection": fmt.Sprintf("$%.2f", projectedCost),
		"additional_info": fmt.Sprintf(
			"Actual usage: %.2f kWh over %d days ($%.2f). Projected monthly: %.2f kWh ($%.2f)",
			total, daysTracked, actualCost, projection, projectedCost,
		),
	}, nil
}

// deviceAvg 单台设备的平均用电与月度估算
func (s *AssistantService) deviceAvg(ctx context.Context, device *models.Device) (map[string]interface{}, error) {
	avg, daysTracked, err := s.telemetryRepo.AvgStats(ctx, device.ID)
	if err != nil {
		return nil, err
	}

	monthlyEstimate := s.proj.Cost(projector.MonthlyFromAverage(avg))

	return map[string]interface{}{
		"summary":          fmt.Sprintf("Average energy usage for %s", device.Name),
		"value":            avg,
		"unit":             "kW",
		"monthly_estimate": fmt.Sprintf("$%.2f", monthlyEstimate),
		"additional_info":  fmt.Sprintf("Based on %d days of data, estimated monthly cost: $%.2f", daysTracked, monthlyEstimate),
	}, nil
}

// deviceTimeSeries 单台设备近 24 小时用电曲线
func (s *AssistantService) deviceTimeSeries(ctx context.Context, device *models.Device) (map[string]interface{}, error) {
	readings, err := s.telemetryRepo.ListLast24h(ctx, device.ID)
	if err != nil {
		return nil, err
	}

	var total24h float64
	data := make([]map[string]interface{}, 0, len(readings))
	for _, reading := range readings {
		total24h += reading.EnergyUsage
		data = append(data, map[string]interface{}{
			"timestamp": reading.Timestamp.Format(time.RFC3339),
			"usage":     reading.EnergyUsage,
		})
	}

	dailyCost := s.proj.Cost(total24h)

	return map[string]interface{}{
		"summary":         fmt.Sprintf("24-hour usage pattern for %s", device.Name),
		"data":            data,
		"daily_total":     fmt.Sprintf("%.2f kWh", total24h),
		"daily_cost":      fmt.Sprintf("$%.2f", dailyCost),
		"additional_info": fmt.Sprintf("Yesterday's cost: $%.2f ($%.2f/year at this rate)", dailyCost, dailyCost*365),
	}, nil
}

// deviceNames 逗号分隔的设备名列表
func deviceNames(devices []*models.Device) string {
	names := make([]string, 0, len(devices))
	for _, d := range devices {
		names = append(names, d.Name)
	}
	return strings.Join(names, ", ")
}
