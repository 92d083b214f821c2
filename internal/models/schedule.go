package models

// ScheduleBlock 每周重复的设备运行区间
// day_of_week: 0=周日 ... 6=周六；[start_hour, end_hour) 半开区间，
// end <= start 的块贡献 0 时长
type ScheduleBlock struct {
	ID               int64   `json:"id,omitempty" db:"id"`
	DeviceID         int64   `json:"device_id,omitempty" db:"device_id"`
	DayOfWeek        int     `json:"day_of_week" binding:"min=0,max=6" db:"day_of_week"`
	StartHour        int     `json:"start_hour" binding:"min=0,max=23" db:"start_hour"`
	EndHour          int     `json:"end_hour" binding:"min=0,max=23" db:"end_hour"`
	PowerConsumption float64 `json:"power_consumption" binding:"required,gt=0" db:"power_consumption"` // 运行功率 (kW)
}

// ActiveHours 块的有效运行小时数
func (b ScheduleBlock) ActiveHours() float64 {
	if b.EndHour <= b.StartHour {
		return 0
	}
	return float64(b.EndHour - b.StartHour)
}
