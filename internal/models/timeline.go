package models

import "time"

// TimelineEntry 消耗时间线上的一个点
// 历史点来自计量数据聚合，预测点来自排程模拟，两个序列各自有序、互不合并
type TimelineEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Usage      float64   `json:"usage"`
	IsForecast bool      `json:"is_forecast"`
}

// Timeline 消耗时间线响应
type Timeline struct {
	Historical []TimelineEntry `json:"historical"`
	Forecast   []TimelineEntry `json:"forecast"`
	View       string          `json:"view"`
}

// DashboardSummary 仪表盘汇总
type DashboardSummary struct {
	CurrentUsage         []DeviceUsage `json:"current_usage"`
	TodayTotal           float64       `json:"today_total"`
	MonthTotal           float64       `json:"month_total"`
	EstimatedMonthlyCost float64       `json:"estimated_monthly_cost"`
}
