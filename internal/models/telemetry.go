package models

import "time"

// TelemetryReading 计量读数，追加写入，时间戳由服务端分配
// energy_usage 不做符号校验：光伏上网等场景允许负值
type TelemetryReading struct {
	ID          int64     `json:"id" db:"id"`
	DeviceID    int64     `json:"device_id" db:"device_id"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	EnergyUsage float64   `json:"energy_usage" db:"energy_usage"` // kWh
}

// TelemetryData 遥测上报请求
type TelemetryData struct {
	DeviceID    int64   `json:"device_id" binding:"required"`
	EnergyUsage float64 `json:"energy_usage"`
}

// BucketTotal 按时间桶聚合的用电量
type BucketTotal struct {
	Bucket time.Time `json:"bucket"`
	Usage  float64   `json:"usage"`
}

// DeviceUsage 设备最近一次读数（无读数时为 0）
type DeviceUsage struct {
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Room  string  `json:"room"`
	Usage float64 `json:"usage"`
}
