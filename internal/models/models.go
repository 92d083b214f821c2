package models

import "time"

// User 用户账户
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Device 家庭设备
type Device struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Type        string    `json:"type" db:"type"`
	Room        string    `json:"room" db:"room"`
	PowerRating float64   `json:"power_rating" db:"power_rating"` // 额定功率 (kW)
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// DeviceCreate 设备注册请求
type DeviceCreate struct {
	Name        string  `json:"name" binding:"required,min=1,max=100"`
	Type        string  `json:"type" binding:"required"`
	Room        string  `json:"room" binding:"required"`
	PowerRating float64 `json:"power_rating" binding:"required,gt=0,lte=50"` // 最大 50kW
}

// DevicePatch 设备部分更新
// 只更新非 nil 字段，通过固定的参数化 UPDATE 应用
type DevicePatch struct {
	Name        *string  `json:"name" binding:"omitempty,min=1,max=100"`
	PowerRating *float64 `json:"power_rating" binding:"omitempty,gt=0,lte=50"`
}

// IsEmpty 是否没有任何待更新字段
func (p *DevicePatch) IsEmpty() bool {
	return p.Name == nil && p.PowerRating == nil
}
