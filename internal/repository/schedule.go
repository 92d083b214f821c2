package repository

import (
	"context"
	"fmt"

	"github.com/langchou/wattgazer/internal/models"
)

// ScheduleRepository 设备排程仓库
type ScheduleRepository struct {
	db *DB
}

// NewScheduleRepository 创建排程仓库
func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Replace 原子替换设备的全部排程块
// 单个事务内先全删后全插，读方不会观察到半替换状态
func (r *ScheduleRepository) Replace(ctx context.Context, deviceID int64, blocks []models.ScheduleBlock) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM device_schedules WHERE device_id = $1`, deviceID); err != nil {
		return fmt.Errorf("delete schedules: %w", err)
	}

	for _, block := range blocks {
		_, err := tx.Exec(ctx, `
			INSERT INTO device_schedules (device_id, day_of_week, start_hour, end_hour, power_consumption)
			VALUES ($1, $2, $3, $4, $5)
		`,
			deviceID,
			block.DayOfWeek,
			block.StartHour,
			block.EndHour,
			block.PowerConsumption,
		)
		if err != nil {
			return fmt.Errorf("insert schedule block: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListByDeviceID 获取设备的排程块
func (r *ScheduleRepository) ListByDeviceID(ctx context.Context, deviceID int64) ([]models.ScheduleBlock, error) {
	query := `
		SELECT day_of_week, start_hour, end_hour, power_consumption
		FROM device_schedules WHERE device_id = $1
		ORDER BY day_of_week, start_hour
	`
	rows, err := r.db.Pool.Query(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var blocks []models.ScheduleBlock
	for rows.Next() {
		var block models.ScheduleBlock
		err := rows.Scan(
			&block.DayOfWeek,
			&block.StartHour,
			&block.EndHour,
			&block.PowerConsumption,
		)
		if err != nil {
			return nil, fmt.Errorf("scan schedule block: %w", err)
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}

// ListByUserID 获取用户全部设备的排程块
func (r *ScheduleRepository) ListByUserID(ctx context.Context, userID int64) ([]models.ScheduleBlock, error) {
	query := `
		SELECT ds.day_of_week, ds.start_hour, ds.end_hour, ds.power_consumption
		FROM device_schedules ds
		JOIN devices d ON ds.device_id = d.id
		WHERE d.user_id = $1
	`
	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user schedules: %w", err)
	}
	defer rows.Close()

	var blocks []models.ScheduleBlock
	for rows.Next() {
		var block models.ScheduleBlock
		err := rows.Scan(
			&block.DayOfWeek,
			&block.StartHour,
			&block.EndHour,
			&block.PowerConsumption,
		)
		if err != nil {
			return nil, fmt.Errorf("scan schedule block: %w", err)
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}
