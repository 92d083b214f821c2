package projector

import (
	"context"
	"fmt"
	"time"

	"github.com/langchou/wattgazer/internal/models"
	"github.com/langchou/wattgazer/internal/repository"
)

// 月均周数
const WeeksPerMonth = 4.33

// View 时间线视图
type View string

const (
	ViewDaily   View = "daily"
	ViewWeekly  View = "weekly"
	ViewMonthly View = "monthly"
)

// ParseView 解析视图参数，空值回落到 daily
func ParseView(s string) (View, error) {
	switch s {
	case "", string(ViewDaily):
		return ViewDaily, nil
	case string(ViewWeekly):
		return ViewWeekly, nil
	case string(ViewMonthly):
		return ViewMonthly, nil
	}
	return "", fmt.Errorf("invalid view %q", s)
}

// 各视图的历史桶宽与回看窗口
var viewSpecs = map[View]struct {
	bucket   string
	lookback string
}{
	ViewDaily:   {bucket: "hour", lookback: "30 days"},
	ViewWeekly:  {bucket: "day", lookback: "12 weeks"},
	ViewMonthly: {bucket: "day", lookback: "12 months"},
}

// ScheduleDay 时间戳对应的排程星期序号（0=周日）
// time.Weekday 本身以周日为 0，与排程约定一致
func ScheduleDay(t time.Time) int {
	return int(t.Weekday())
}

// WeeklyKWh 排程块的每周总电量：Σ 有效小时数 × 功率
func WeeklyKWh(blocks []models.ScheduleBlock) float64 {
	var total float64
	for _, b := range blocks {
		total += b.ActiveHours() * b.PowerConsumption
	}
	return total
}

// MonthlyFromSchedule 按排程推算的月电量
func MonthlyFromSchedule(blocks []models.ScheduleBlock) float64 {
	return WeeklyKWh(blocks) * WeeksPerMonth
}

// MonthlyFromAverage 按历史小时均值推算的月电量
func MonthlyFromAverage(avgHourly float64) float64 {
	return avgHourly * 24 * 30
}

// DailyKWh 某个星期序号当天的排程总电量
func DailyKWh(blocks []models.ScheduleBlock, day int) float64 {
	var total float64
	for _, b := range blocks {
		if b.DayOfWeek == day {
			total += b.ActiveHours() * b.PowerConsumption
		}
	}
	return total
}

// HourlyPower 某个星期序号、某个整点的排程总功率
func HourlyPower(blocks []models.ScheduleBlock, day, hour int) float64 {
	var total float64
	for _, b := range blocks {
		if b.DayOfWeek == day && b.StartHour <= hour && hour < b.EndHour {
			total += b.PowerConsumption
		}
	}
	return total
}

// ForecastSeries 基于排程模拟的前瞻序列
// daily: 未来 7 天逐小时；weekly: 未来 4 周，每周为 7 天模拟的日均值；
// monthly: 未来 3 个月（30 天步长），每月为 30 天模拟的日均值。
// 所有时间戳不早于 now；相同输入产出逐字节相同的结果
func ForecastSeries(blocks []models.ScheduleBlock, view View, now time.Time) []models.TimelineEntry {
	var forecast []models.TimelineEntry

	switch view {
	case ViewDaily:
		for daysAhead := 0; daysAhead < 7; daysAhead++ {
			for hour := 0; hour < 24; hour++ {
				future := now.Add(time.Duration(daysAhead)*24*time.Hour + time.Duration(hour)*time.Hour)
				day := ScheduleDay(future)

				if daysAhead > 0 || hour > now.Hour() {
					forecast = append(forecast, models.TimelineEntry{
						Timestamp:  future,
						Usage:      HourlyPower(blocks, day, hour),
						IsForecast: true,
					})
				}
			}
		}

	case ViewWeekly:
		for weeksAhead := 1; weeksAhead <= 4; weeksAhead++ {
			future := now.Add(time.Duration(weeksAhead) * 7 * 24 * time.Hour)

			var weekUsage float64
			for day := 0; day < 7; day++ {
				d := ScheduleDay(future.Add(time.Duration(day) * 24 * time.Hour))
				weekUsage += DailyKWh(blocks, d)
			}

			forecast = append(forecast, models.TimelineEntry{
				Timestamp:  future,
				Usage:      weekUsage / 7,
				IsForecast: true,
			})
		}

	case ViewMonthly:
		for monthsAhead := 1; monthsAhead <= 3; monthsAhead++ {
			future := now.Add(time.Duration(monthsAhead) * 30 * 24 * time.Hour)

			var monthUsage float64
			for day := 0; day < 30; day++ {
				d := ScheduleDay(future.Add(time.Duration(day) * 24 * time.Hour))
				monthUsage += DailyKWh(blocks, d)
			}

			forecast = append(forecast, models.TimelineEntry{
				Timestamp:  future,
				Usage:      monthUsage / 30,
				IsForecast: true,
			})
		}
	}

	return forecast
}

// Projector 用电投影器
// 全部操作为无状态的只读计算，每次请求重新计算，不做缓存
type Projector struct {
	scheduleRepo  *repository.ScheduleRepository
	telemetryRepo *repository.TelemetryRepository
	rate          float64 // 电价（美元/kWh）
}

// New 创建投影器
func New(
	scheduleRepo *repository.ScheduleRepository,
	telemetryRepo *repository.TelemetryRepository,
	rate float64,
) *Projector {
	return &Projector{
		scheduleRepo:  scheduleRepo,
		telemetryRepo: telemetryRepo,
		rate:          rate,
	}
}

// Cost 电量对应的电费
func (p *Projector) Cost(kwh float64) float64 {
	return kwh * p.rate
}

// MonthlyProjection 设备的月电量投影（kWh）
// 有排程按排程推算，否则回落到近 30 天历史均值；缺数据时降级为 0，不报错
func (p *Projector) MonthlyProjection(ctx context.Context, deviceID int64) (float64, error) {
	blocks, err := p.scheduleRepo.ListByDeviceID(ctx, deviceID)
	if err != nil {
		return 0, err
	}

	if len(blocks) > 0 {
		return MonthlyFromSchedule(blocks), nil
	}

	avg, err := p.telemetryRepo.AvgHourlyLast30Days(ctx, deviceID)
	if err != nil {
		return 0, err
	}
	return MonthlyFromAverage(avg), nil
}

// ConsumptionTimeline 用户的消耗时间线：历史聚合 + 排程预测
// 历史与预测是两个独立有序序列，按 is_forecast 区分，不交叉合并
func (p *Projector) ConsumptionTimeline(ctx context.Context, userID int64, view View, now time.Time) (*models.Timeline, error) {
	spec := viewSpecs[view]

	totals, err := p.telemetryRepo.BucketTotals(ctx, userID, spec.bucket, spec.lookback)
	if err != nil {
		return nil, err
	}

	historical := make([]models.TimelineEntry, 0, len(totals))
	for _, bt := range totals {
		historical = append(historical, models.TimelineEntry{
			Timestamp:  bt.Bucket,
			Usage:      bt.Usage,
			IsForecast: false,
		})
	}

	blocks, err := p.scheduleRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.Timeline{
		Historical: historical,
		Forecast:   ForecastSeries(blocks, view, now),
		View:       string(view),
	}, nil
}

// DashboardSummary 仪表盘汇总：各设备最近读数 + 今日/本月总量 + 预估月电费
func (p *Projector) DashboardSummary(ctx context.Context, userID int64) (*models.DashboardSummary, error) {
	usages, err := p.telemetryRepo.LatestPerDevice(ctx, userID)
	if err != nil {
		return nil, err
	}

	todayTotal, err := p.telemetryRepo.TodayTotal(ctx, userID)
	if err != nil {
		return nil, err
	}

	monthTotal, err := p.telemetryRepo.MonthToDateTotal(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.DashboardSummary{
		CurrentUsage:         usages,
		TodayTotal:           todayTotal,
		MonthTotal:           monthTotal,
		EstimatedMonthlyCost: p.Cost(monthTotal),
	}, nil
}
