package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/langchou/wattgazer/internal/models"
)

// TelemetryRepository 遥测数据仓库
type TelemetryRepository struct {
	db *DB
}

// NewTelemetryRepository 创建遥测仓库
func NewTelemetryRepository(db *DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

// Insert 追加一条读数，时间戳由数据库分配
func (r *TelemetryRepository) Insert(ctx context.Context, deviceID int64, energyUsage float64) (*models.TelemetryReading, error) {
	query := `
		INSERT INTO telemetry (device_id, energy_usage)
		VALUES ($1, $2)
		RETURNING id, timestamp
	`
	reading := &models.TelemetryReading{
		DeviceID:    deviceID,
		EnergyUsage: energyUsage,
	}
	err := r.db.Pool.QueryRow(ctx, query, deviceID, energyUsage).Scan(&reading.ID, &reading.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("insert telemetry: %w", err)
	}
	return reading, nil
}

// LatestPerDevice 每台设备的最近一次读数
// 左连接：没有任何读数的设备报 0，不缺行
func (r *TelemetryRepository) LatestPerDevice(ctx context.Context, userID int64) ([]models.DeviceUsage, error) {
	query := `
		SELECT d.name, d.type, d.room, COALESCE(t.energy_usage, 0) AS usage
		FROM devices d
		LEFT JOIN LATERAL (
			SELECT energy_usage
			FROM telemetry
			WHERE device_id = d.id
			ORDER BY timestamp DESC
			LIMIT 1
		) t ON true
		WHERE d.user_id = $1
		ORDER BY d.room, d.name
	`
	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("latest per device: %w", err)
	}
	defer rows.Close()

	var usages []models.DeviceUsage
	for rows.Next() {
		var u models.DeviceUsage
		if err := rows.Scan(&u.Name, &u.Type, &u.Room, &u.Usage); err != nil {
			return nil, fmt.Errorf("scan device usage: %w", err)
		}
		usages = append(usages, u)
	}

	return usages, nil
}

// TodayTotal 自然日边界内的用户总用电量
func (r *TelemetryRepository) TodayTotal(ctx context.Context, userID int64) (float64, error) {
	query := `
		SELECT COALESCE(SUM(t.energy_usage), 0)
		FROM telemetry t
		JOIN devices d ON t.device_id = d.id
		WHERE d.user_id = $1 AND t.timestamp >= CURRENT_DATE
	`
	var total float64
	if err := r.db.Pool.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("today total: %w", err)
	}
	return total, nil
}

// MonthToDateTotal 自然月边界内的用户总用电量
func (r *TelemetryRepository) MonthToDateTotal(ctx context.Context, userID int64) (float64, error) {
	query := `
		SELECT COALESCE(SUM(t.energy_usage), 0)
		FROM telemetry t
		JOIN devices d ON t.device_id = d.id
		WHERE d.user_id = $1 AND t.timestamp >= DATE_TRUNC('month', CURRENT_DATE)
	`
	var total float64
	if err := r.db.Pool.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("month to date total: %w", err)
	}
	return total, nil
}

// MonthToDateByDevice 单台设备的自然月用电量
func (r *TelemetryRepository) MonthToDateByDevice(ctx context.Context, deviceID int64) (float64, error) {
	query := `
		SELECT COALESCE(SUM(energy_usage), 0)
		FROM telemetry
		WHERE device_id = $1 AND timestamp >= DATE_TRUNC('month', CURRENT_DATE)
	`
	var total float64
	if err := r.db.Pool.QueryRow(ctx, query, deviceID).Scan(&total); err != nil {
		return 0, fmt.Errorf("month to date by device: %w", err)
	}
	return total, nil
}

// BucketTotals 按时间桶聚合用户的历史用电量
// bucket 传给 date_trunc，lookback 为 Postgres interval 字面量，均为参数绑定；
// 没有读数的桶不产出行（稀疏序列，不补零）
func (r *TelemetryRepository) BucketTotals(ctx context.Context, userID int64, bucket, lookback string) ([]models.BucketTotal, error) {
	query := `
		SELECT DATE_TRUNC($2, t.timestamp) AS time_bucket,
		       SUM(t.energy_usage) AS total_usage
		FROM telemetry t
		JOIN devices d ON t.device_id = d.id
		WHERE d.user_id = $1
		  AND t.timestamp >= NOW() - $3::interval
		GROUP BY time_bucket
		ORDER BY time_bucket
	`
	rows, err := r.db.Pool.Query(ctx, query, userID, bucket, lookback)
	if err != nil {
		return nil, fmt.Errorf("bucket totals: %w", err)
	}
	defer rows.Close()

	var totals []models.BucketTotal
	for rows.Next() {
		var bt models.BucketTotal
		if err := rows.Scan(&bt.Bucket, &bt.Usage); err != nil {
			return nil, fmt.Errorf("scan bucket total: %w", err)
		}
		totals = append(totals, bt)
	}

	return totals, nil
}

// AvgHourlyLast30Days 设备近 30 天读数的平均值（无数据时 0）
func (r *TelemetryRepository) AvgHourlyLast30Days(ctx context.Context, deviceID int64) (float64, error) {
	query := `
		SELECT COALESCE(AVG(energy_usage), 0)
		FROM telemetry
		WHERE device_id = $1 AND timestamp >= NOW() - INTERVAL '30 days'
	`
	var avg float64
	if err := r.db.Pool.QueryRow(ctx, query, deviceID).Scan(&avg); err != nil {
		return 0, fmt.Errorf("avg hourly last 30 days: %w", err)
	}
	return avg, nil
}

// SumStats 设备读数总量统计
func (r *TelemetryRepository) SumStats(ctx context.Context, deviceID int64) (total float64, count int64, first, last *time.Time, err error) {
	query := `
		SELECT COALESCE(SUM(energy_usage), 0),
		       COUNT(*),
		       MIN(timestamp),
		       MAX(timestamp)
		FROM telemetry
		WHERE device_id = $1
	`
	err = r.db.Pool.QueryRow(ctx, query, deviceID).Scan(&total, &count, &first, &last)
	if err != nil {
		err = fmt.Errorf("sum stats: %w", err)
	}
	return
}

// AvgStats 设备读数平均值统计
func (r *TelemetryRepository) AvgStats(ctx context.Context, deviceID int64) (avg float64, daysTracked int64, err error) {
	query := `
		SELECT COALESCE(AVG(energy_usage), 0),
		       COUNT(DISTINCT DATE_TRUNC('day', timestamp))
		FROM telemetry
		WHERE device_id = $1
	`
	err = r.db.Pool.QueryRow(ctx, query, deviceID).Scan(&avg, &daysTracked)
	if err != nil {
		err = fmt.Errorf("avg stats: %w", err)
	}
	return
}

// ListLast24h 设备近 24 小时的读数，按时间倒序
func (r *TelemetryRepository) ListLast24h(ctx context.Context, deviceID int64) ([]models.TelemetryReading, error) {
	query := `
		SELECT id, device_id, timestamp, energy_usage
		FROM telemetry
		WHERE device_id = $1 AND timestamp > NOW() - INTERVAL '24 hours'
		ORDER BY timestamp DESC
		LIMIT 24
	`
	rows, err := r.db.Pool.Query(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("list last 24h: %w", err)
	}
	defer rows.Close()

	var readings []models.TelemetryReading
	for rows.Next() {
		var t models.TelemetryReading
		if err := rows.Scan(&t.ID, &t.DeviceID, &t.Timestamp, &t.EnergyUsage); err != nil {
			return nil, fmt.Errorf("scan telemetry: %w", err)
		}
		readings = append(readings, t)
	}

	return readings, nil
}
