package service

import "testing"

func TestDefaultDeviceSet(t *testing.T) {
	defaults := defaultDevices()
	if len(defaults) != 6 {
		t.Fatalf("expected 6 default devices, got %d", len(defaults))
	}

	seen := make(map[string]bool)
	for _, dd := range defaults {
		if seen[dd.device.Name] {
			t.Errorf("duplicate default device name %q", dd.device.Name)
		}
		seen[dd.device.Name] = true

		if dd.device.PowerRating <= 0 {
			t.Errorf("device %q has non-positive power rating", dd.device.Name)
		}
		if len(dd.blocks) == 0 {
			t.Errorf("device %q has no schedule blocks", dd.device.Name)
		}

		for _, b := range dd.blocks {
			if b.DayOfWeek < 0 || b.DayOfWeek > 6 {
				t.Errorf("device %q: day_of_week %d out of range", dd.device.Name, b.DayOfWeek)
			}
			if b.StartHour < 0 || b.StartHour > 23 || b.EndHour < 0 || b.EndHour > 23 {
				t.Errorf("device %q: hours %d-%d out of range", dd.device.Name, b.StartHour, b.EndHour)
			}
			if b.ActiveHours() == 0 {
				t.Errorf("device %q: block %d-%d contributes no hours", dd.device.Name, b.StartHour, b.EndHour)
			}
			if b.PowerConsumption <= 0 {
				t.Errorf("device %q: non-positive block power", dd.device.Name)
			}
		}
	}
}
