package repository

import (
	"context"
	"fmt"

	"github.com/langchou/wattgazer/internal/models"
)

// DeviceRepository 设备数据仓库
type DeviceRepository struct {
	db *DB
}

// NewDeviceRepository 创建设备仓库
func NewDeviceRepository(db *DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Create 创建设备，并写入一条初始遥测记录
func (r *DeviceRepository) Create(ctx context.Context, device *models.Device) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO devices (user_id, name, type, room, power_rating)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err = tx.QueryRow(ctx, query,
		device.UserID,
		device.Name,
		device.Type,
		device.Room,
		device.PowerRating,
	).Scan(&device.ID, &device.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert device: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO telemetry (device_id, energy_usage)
		VALUES ($1, 0)
	`, device.ID)
	if err != nil {
		return fmt.Errorf("insert initial telemetry: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByName 按名称获取用户名下的设备
func (r *DeviceRepository) GetByName(ctx context.Context, name string, userID int64) (*models.Device, error) {
	query := `
		SELECT id, user_id, name, type, room, power_rating, created_at
		FROM devices WHERE name = $1 AND user_id = $2
	`
	device := &models.Device{}
	err := r.db.Pool.QueryRow(ctx, query, name, userID).Scan(
		&device.ID,
		&device.UserID,
		&device.Name,
		&device.Type,
		&device.Room,
		&device.PowerRating,
		&device.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return device, nil
}

// ListByUserID 获取用户的设备列表
func (r *DeviceRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Device, error) {
	query := `
		SELECT id, user_id, name, type, room, power_rating, created_at
		FROM devices WHERE user_id = $1 ORDER BY room, name
	`
	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		device := &models.Device{}
		err := rows.Scan(
			&device.ID,
			&device.UserID,
			&device.Name,
			&device.Type,
			&device.Room,
			&device.PowerRating,
			&device.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, device)
	}

	return devices, nil
}

// Update 应用部分更新
// 固定的参数化 UPDATE：nil 字段保持原值，不拼接 SQL
func (r *DeviceRepository) Update(ctx context.Context, id, userID int64, patch *models.DevicePatch) (bool, error) {
	query := `
		UPDATE devices SET
			name = COALESCE($3, name),
			power_rating = COALESCE($4, power_rating)
		WHERE id = $1 AND user_id = $2
	`
	tag, err := r.db.Pool.Exec(ctx, query, id, userID, patch.Name, patch.PowerRating)
	if err != nil {
		return false, fmt.Errorf("update device: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete 删除设备（排程和遥测级联删除）
func (r *DeviceRepository) Delete(ctx context.Context, id, userID int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM devices WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete device: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// OwnerOf 返回设备归属的用户 ID
func (r *DeviceRepository) OwnerOf(ctx context.Context, id int64) (int64, error) {
	var userID int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT user_id FROM devices WHERE id = $1`, id,
	).Scan(&userID)
	if err != nil {
		return 0, fmt.Errorf("get device owner: %w", err)
	}
	return userID, nil
}

// ExistsForUser 设备是否属于该用户
func (r *DeviceRepository) ExistsForUser(ctx context.Context, id, userID int64) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM devices WHERE id = $1 AND user_id = $2)`,
		id, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check device owner: %w", err)
	}
	return exists, nil
}
