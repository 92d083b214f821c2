package projector

import (
	"math"
	"testing"
	"time"

	"github.com/langchou/wattgazer/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestWeeklyKWhSingleBlock(t *testing.T) {
	blocks := []models.ScheduleBlock{
		{DayOfWeek: 1, StartHour: 18, EndHour: 22, PowerConsumption: 3.5},
	}

	weekly := WeeklyKWh(blocks)
	if !almostEqual(weekly, 14.0) {
		t.Errorf("expected weekly 14.0, got %v", weekly)
	}

	monthly := MonthlyFromSchedule(blocks)
	if math.Abs(monthly-60.62) > 0.01 {
		t.Errorf("expected monthly ~60.62, got %v", monthly)
	}
}

func TestZeroDurationBlockContributesNothing(t *testing.T) {
	blocks := []models.ScheduleBlock{
		{DayOfWeek: 2, StartHour: 10, EndHour: 10, PowerConsumption: 5.0},
		{DayOfWeek: 3, StartHour: 20, EndHour: 6, PowerConsumption: 2.0},
	}

	if got := WeeklyKWh(blocks); got != 0 {
		t.Errorf("expected 0 for end <= start blocks, got %v", got)
	}
	if got := DailyKWh(blocks, 3); got != 0 {
		t.Errorf("expected 0 daily kWh for inverted block, got %v", got)
	}
}

func TestEmptyScheduleYieldsZero(t *testing.T) {
	if got := MonthlyFromSchedule(nil); got != 0 {
		t.Errorf("expected 0 for empty schedule, got %v", got)
	}
	if got := MonthlyFromAverage(0); got != 0 {
		t.Errorf("expected 0 for zero average, got %v", got)
	}
}

func TestProjectionMonotonicInPowerAndSpan(t *testing.T) {
	base := []models.ScheduleBlock{
		{DayOfWeek: 1, StartHour: 18, EndHour: 22, PowerConsumption: 3.5},
		{DayOfWeek: 4, StartHour: 8, EndHour: 12, PowerConsumption: 1.0},
	}
	baseline := MonthlyFromSchedule(base)

	morePower := []models.ScheduleBlock{base[0], base[1]}
	morePower[0].PowerConsumption = 4.0
	if MonthlyFromSchedule(morePower) < baseline {
		t.Error("projection decreased after raising block power")
	}

	longerSpan := []models.ScheduleBlock{base[0], base[1]}
	longerSpan[1].EndHour = 14
	if MonthlyFromSchedule(longerSpan) < baseline {
		t.Error("projection decreased after widening block span")
	}
}

func TestAverageReprojectsThirtyDayTotal(t *testing.T) {
	// 30 天内每小时一条读数，总计 15 kWh：均值 × 24 × 30 还原 30 天总量
	avg := 15.0 / (30 * 24)
	if got := MonthlyFromAverage(avg); !almostEqual(got, 15.0) {
		t.Errorf("expected 15.0, got %v", got)
	}
}

func TestScheduleDayIsSundayBased(t *testing.T) {
	// 2024-01-07 是周日
	sunday := time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC)
	if got := ScheduleDay(sunday); got != 0 {
		t.Errorf("expected 0 for Sunday, got %d", got)
	}
	monday := sunday.Add(24 * time.Hour)
	if got := ScheduleDay(monday); got != 1 {
		t.Errorf("expected 1 for Monday, got %d", got)
	}
}

func TestHourlyPowerHalfOpenInterval(t *testing.T) {
	blocks := []models.ScheduleBlock{
		{DayOfWeek: 1, StartHour: 18, EndHour: 22, PowerConsumption: 3.5},
	}

	if got := HourlyPower(blocks, 1, 18); !almostEqual(got, 3.5) {
		t.Errorf("expected 3.5 at start hour, got %v", got)
	}
	if got := HourlyPower(blocks, 1, 21); !almostEqual(got, 3.5) {
		t.Errorf("expected 3.5 at last active hour, got %v", got)
	}
	if got := HourlyPower(blocks, 1, 22); got != 0 {
		t.Errorf("expected 0 at end hour, got %v", got)
	}
	if got := HourlyPower(blocks, 2, 18); got != 0 {
		t.Errorf("expected 0 on other day, got %v", got)
	}
}

func TestDailyForecastNeverBeforeNow(t *testing.T) {
	blocks := []models.ScheduleBlock{
		{DayOfWeek: 1, StartHour: 18, EndHour: 22, PowerConsumption: 3.5},
	}
	now := time.Date(2024, 1, 7, 9, 30, 0, 0, time.UTC)

	forecast := ForecastSeries(blocks, ViewDaily, now)
	if len(forecast) == 0 {
		t.Fatal("expected non-empty daily forecast")
	}

	for _, entry := range forecast {
		if entry.Timestamp.Before(now) {
			t.Errorf("forecast entry %v is before now %v", entry.Timestamp, now)
		}
		if !entry.IsForecast {
			t.Error("forecast entry not marked is_forecast")
		}
	}
}

func TestWeeklyForecastAveragesDailyTotals(t *testing.T) {
	// 单块每周 14 kWh，每个周条目应为日均 2.0
	blocks := []models.ScheduleBlock{
		{DayOfWeek: 1, StartHour: 18, EndHour: 22, PowerConsumption: 3.5},
	}
	now := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)

	forecast := ForecastSeries(blocks, ViewWeekly, now)
	if len(forecast) != 4 {
		t.Fatalf("expected 4 weekly entries, got %d", len(forecast))
	}

	for _, entry := range forecast {
		if !almostEqual(entry.Usage, 2.0) {
			t.Errorf("expected weekly average 2.0, got %v", entry.Usage)
		}
		if !entry.Timestamp.After(now) {
			t.Errorf("weekly forecast entry %v not after now", entry.Timestamp)
		}
	}
}

func TestMonthlyForecastEntryCount(t *testing.T) {
	now := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	forecast := ForecastSeries(nil, ViewMonthly, now)
	if len(forecast) != 3 {
		t.Fatalf("expected 3 monthly entries, got %d", len(forecast))
	}
	for _, entry := range forecast {
		if entry.Usage != 0 {
			t.Errorf("expected 0 usage with no schedules, got %v", entry.Usage)
		}
	}
}

func TestForecastDeterministic(t *testing.T) {
	blocks := []models.ScheduleBlock{
		{DayOfWeek: 0, StartHour: 0, EndHour: 23, PowerConsumption: 0.5},
		{DayOfWeek: 5, StartHour: 9, EndHour: 17, PowerConsumption: 0.3},
	}
	now := time.Date(2024, 3, 1, 13, 45, 0, 0, time.UTC)

	for _, view := range []View{ViewDaily, ViewWeekly, ViewMonthly} {
		first := ForecastSeries(blocks, view, now)
		second := ForecastSeries(blocks, view, now)

		if len(first) != len(second) {
			t.Fatalf("view %s: lengths differ: %d vs %d", view, len(first), len(second))
		}
		for i := range first {
			if first[i] != second[i] {
				t.Errorf("view %s: entry %d differs: %+v vs %+v", view, i, first[i], second[i])
			}
		}
	}
}

func TestParseView(t *testing.T) {
	cases := map[string]View{
		"":        ViewDaily,
		"daily":   ViewDaily,
		"weekly":  ViewWeekly,
		"monthly": ViewMonthly,
	}
	for input, want := range cases {
		got, err := ParseView(input)
		if err != nil {
			t.Errorf("ParseView(%q): unexpected error %v", input, err)
		}
		if got != want {
			t.Errorf("ParseView(%q) = %s, want %s", input, got, want)
		}
	}

	if _, err := ParseView("yearly"); err == nil {
		t.Error("expected error for invalid view")
	}
}
