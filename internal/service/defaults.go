package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/langchou/wattgazer/internal/models"
	"github.com/langchou/wattgazer/internal/repository"
)

// defaultDevice 新账户的预置设备及排程
type defaultDevice struct {
	device models.Device
	blocks []models.ScheduleBlock
}

// 排程星期序号：0=周日 ... 6=周六
func defaultDevices() []defaultDevice {
	weekdays := []int{1, 2, 3, 4, 5}
	weekend := []int{0, 6}
	allDays := []int{0, 1, 2, 3, 4, 5, 6}

	repeat := func(days []int, start, end int, power float64) []models.ScheduleBlock {
		blocks := make([]models.ScheduleBlock, 0, len(days))
		for _, day := range days {
			blocks = append(blocks, models.ScheduleBlock{
				DayOfWeek:        day,
				StartHour:        start,
				EndHour:          end,
				PowerConsumption: power,
			})
		}
		return blocks
	}

	return []defaultDevice{
		{
			device: models.Device{Name: "Living Room AC", Type: "air_conditioner", Room: "living_room", PowerRating: 3.5},
			blocks: append(
				repeat(weekdays, 18, 22, 3.5),
				repeat(weekend, 12, 23, 3.5)...,
			),
		},
		{
			device: models.Device{Name: "Kitchen Refrigerator", Type: "refrigerator", Room: "kitchen", PowerRating: 0.5},
			blocks: repeat(allDays, 0, 23, 0.5),
		},
		{
			device: models.Device{Name: "Master Bedroom Light", Type: "light", Room: "master_bedroom", PowerRating: 0.06},
			blocks: repeat(allDays, 20, 23, 0.06),
		},
		{
			device: models.Device{Name: "Smart Thermostat", Type: "thermostat", Room: "hallway", PowerRating: 2.0},
			blocks: append(
				repeat(allDays, 6, 9, 2.0),
				repeat(allDays, 17, 22, 2.0)...,
			),
		},
		{
			device: models.Device{Name: "Home Office Outlet", Type: "smart_plug", Room: "home_office", PowerRating: 0.3},
			blocks: repeat(weekdays, 9, 17, 0.3),
		},
		{
			device: models.Device{Name: "Washing Machine", Type: "appliance", Room: "laundry", PowerRating: 2.0},
			blocks: repeat([]int{2, 5}, 10, 12, 2.0),
		},
	}
}

// SeederService 新用户默认设备初始化
type SeederService struct {
	logger       *zap.Logger
	deviceRepo   *repository.DeviceRepository
	scheduleRepo *repository.ScheduleRepository
}

// NewSeederService 创建初始化服务
func NewSeederService(logger *zap.Logger, deviceRepo *repository.DeviceRepository, scheduleRepo *repository.ScheduleRepository) *SeederService {
	return &SeederService{
		logger:       logger,
		deviceRepo:   deviceRepo,
		scheduleRepo: scheduleRepo,
	}
}

// SeedDefaults 为用户创建默认设备与排程，返回创建数量
func (s *SeederService) SeedDefaults(ctx context.Context, userID int64) (int, error) {
	created := 0
	for _, dd := range defaultDevices() {
		device := dd.device
		device.UserID = userID

		if err := s.deviceRepo.Create(ctx, &device); err != nil {
			return created, err
		}
		if err := s.scheduleRepo.Replace(ctx, device.ID, dd.blocks); err != nil {
			return created, err
		}
		created++
	}

	s.logger.Info("Seeded default devices",
		zap.Int64("user_id", userID),
		zap.Int("devices_created", created),
	)
	return created, nil
}
