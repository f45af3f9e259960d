package service

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"staffclock/config"
	"staffclock/internal/model"
	"staffclock/internal/notify"
	"staffclock/internal/repository"
	pkgerrors "staffclock/pkg/errors"
)

// 内存仓储返回副本，避免 Service 修改返回值时直接改动存储

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct {
	employees map[string]*model.Employee
	seq       int
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{employees: make(map[string]*model.Employee)}
}

func (m *mockEmployeeRepo) Create(_ context.Context, e *model.Employee) error {
	if _, err := m.FindConflict(context.Background(), e.EmployeeID, e.Email, e.Username, ""); err == nil {
		return gorm.ErrDuplicatedKey
	}
	if e.ID == "" {
		m.seq++
		e.ID = fmt.Sprintf("emp-%d", m.seq)
	}
	e.CreatedAt = time.Now()
	cp := *e
	m.employees[e.ID] = &cp
	return nil
}

func (m *mockEmployeeRepo) find(match func(e *model.Employee) bool) (*model.Employee, error) {
	for _, e := range m.employees {
		if match(e) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	return m.find(func(e *model.Employee) bool { return e.ID == id })
}

func (m *mockEmployeeRepo) GetByEmployeeID(_ context.Context, employeeID string) (*model.Employee, error) {
	return m.find(func(e *model.Employee) bool { return e.EmployeeID == employeeID })
}

func (m *mockEmployeeRepo) GetByEmail(_ context.Context, email string) (*model.Employee, error) {
	return m.find(func(e *model.Employee) bool { return e.EmailAddress() == email })
}

func (m *mockEmployeeRepo) GetByEmailAndRole(_ context.Context, email, role string) (*model.Employee, error) {
	return m.find(func(e *model.Employee) bool { return e.EmailAddress() == email && e.Role == role })
}

func (m *mockEmployeeRepo) GetByEmployeeIDAndRole(_ context.Context, employeeID, role string) (*model.Employee, error) {
	return m.find(func(e *model.Employee) bool { return e.EmployeeID == employeeID && e.Role == role })
}

func (m *mockEmployeeRepo) GetPendingByInviteToken(_ context.Context, token string) (*model.Employee, error) {
	return m.find(func(e *model.Employee) bool {
		return e.InviteToken != nil && *e.InviteToken == token && e.InviteStatus == model.InviteStatusPending
	})
}

func (m *mockEmployeeRepo) FindConflict(_ context.Context, employeeID string, email, username *string, excludeID string) (*model.Employee, error) {
	return m.find(func(e *model.Employee) bool {
		if e.ID == excludeID {
			return false
		}
		if e.EmployeeID == employeeID {
			return true
		}
		if email != nil && e.Email != nil && *e.Email == *email {
			return true
		}
		return username != nil && e.Username != nil && *e.Username == *username
	})
}

func (m *mockEmployeeRepo) ListByIDs(_ context.Context, ids []string) ([]model.Employee, error) {
	var result []model.Employee
	for _, id := range ids {
		if e, ok := m.employees[id]; ok {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockEmployeeRepo) List(_ context.Context, storeID string) ([]model.Employee, error) {
	var result []model.Employee
	for _, e := range m.employees {
		if storeID == "" || e.StoreID == storeID {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockEmployeeRepo) Update(_ context.Context, e *model.Employee) error {
	cp := *e
	m.employees[e.ID] = &cp
	return nil
}

func (m *mockEmployeeRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.employees[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.employees, id)
	return nil
}

func (m *mockEmployeeRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.employees)), nil
}

func (m *mockEmployeeRepo) CountByRole(_ context.Context, role string) (int64, error) {
	var n int64
	for _, e := range m.employees {
		if e.Role == role {
			n++
		}
	}
	return n, nil
}

func (m *mockEmployeeRepo) AcceptInvite(_ context.Context, id, token, password string) error {
	e, ok := m.employees[id]
	if !ok || e.InviteToken == nil || *e.InviteToken != token || e.InviteStatus != model.InviteStatusPending {
		return pkgerrors.ErrOptimisticLock
	}
	e.Password = password
	e.InviteStatus = model.InviteStatusAccepted
	e.InviteToken = nil
	return nil
}

func (m *mockEmployeeRepo) SetResetToken(_ context.Context, id, token string, expires time.Time) error {
	e, ok := m.employees[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.ResetPasswordToken = &token
	e.ResetPasswordExpires = &expires
	return nil
}

func (m *mockEmployeeRepo) ResetPassword(_ context.Context, token, password string, now time.Time) error {
	for _, e := range m.employees {
		if e.ResetPasswordToken != nil && *e.ResetPasswordToken == token &&
			e.ResetPasswordExpires != nil && e.ResetPasswordExpires.After(now) {
			e.Password = password
			e.ResetPasswordToken = nil
			e.ResetPasswordExpires = nil
			return nil
		}
	}
	return pkgerrors.ErrOptimisticLock
}

// ── Mock TimeLogRepository ──

type mockTimeLogRepo struct {
	logs      map[string]*model.TimeLog
	employees *mockEmployeeRepo
	seq       int
}

func newMockTimeLogRepo(employees *mockEmployeeRepo) *mockTimeLogRepo {
	return &mockTimeLogRepo{logs: make(map[string]*model.TimeLog), employees: employees}
}

// withStaff 模拟 Preload("Staff")
func (m *mockTimeLogRepo) withStaff(l *model.TimeLog) model.TimeLog {
	cp := *l
	if e, ok := m.employees.employees[l.StaffID]; ok {
		staff := *e
		cp.Staff = &staff
	}
	return cp
}

func (m *mockTimeLogRepo) Create(_ context.Context, l *model.TimeLog) error {
	for _, existing := range m.logs {
		if existing.StaffID == l.StaffID && existing.Status == model.TimeLogActive && l.Status == model.TimeLogActive {
			return gorm.ErrDuplicatedKey
		}
	}
	if l.ID == "" {
		m.seq++
		l.ID = fmt.Sprintf("log-%d", m.seq)
	}
	cp := *l
	cp.Staff = nil
	m.logs[l.ID] = &cp
	return nil
}

func (m *mockTimeLogRepo) GetByID(_ context.Context, id string) (*model.TimeLog, error) {
	l, ok := m.logs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.withStaff(l)
	return &cp, nil
}

func (m *mockTimeLogRepo) GetActiveByStaff(_ context.Context, staffID string) (*model.TimeLog, error) {
	for _, l := range m.logs {
		if l.StaffID == staffID && l.Status == model.TimeLogActive {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimeLogRepo) Complete(_ context.Context, l *model.TimeLog) error {
	stored, ok := m.logs[l.ID]
	if !ok || stored.Status != model.TimeLogActive {
		return pkgerrors.ErrOptimisticLock
	}
	stored.ClockOut = l.ClockOut
	stored.LocationOut = l.LocationOut
	stored.Status = model.TimeLogCompleted
	stored.HoursWorked = l.HoursWorked
	return nil
}

func (m *mockTimeLogRepo) List(_ context.Context, f repository.TimeLogFilter) ([]model.TimeLog, error) {
	var result []model.TimeLog
	for _, l := range m.logs {
		switch {
		case f.StaffID != "" && l.StaffID != f.StaffID:
			continue
		case f.Status != "" && l.Status != f.Status:
			continue
		case f.From != nil && l.ClockIn.Before(*f.From):
			continue
		case f.To != nil && !l.ClockIn.Before(*f.To):
			continue
		}
		result = append(result, m.withStaff(l))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClockIn.After(result[j].ClockIn) })
	if f.Limit > 0 && len(result) > f.Limit {
		result = result[:f.Limit]
	}
	return result, nil
}

func (m *mockTimeLogRepo) UpdatePayroll(_ context.Context, id string, fields map[string]interface{}) error {
	l, ok := m.logs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["is_paid"]; ok {
		l.IsPaid = v.(bool)
	}
	if v, ok := fields["remarks"]; ok {
		l.Remarks = v.(string)
	}
	return nil
}

func (m *mockTimeLogRepo) CountActive(_ context.Context) (int64, error) {
	var n int64
	for _, l := range m.logs {
		if l.Status == model.TimeLogActive {
			n++
		}
	}
	return n, nil
}

func (m *mockTimeLogRepo) SumHoursSince(_ context.Context, since time.Time) (float64, error) {
	var sum float64
	for _, l := range m.logs {
		if !l.ClockIn.Before(since) {
			sum += l.HoursWorked
		}
	}
	return sum, nil
}

func (m *mockTimeLogRepo) CountUnpaidSince(_ context.Context, since time.Time) (int64, error) {
	var n int64
	for _, l := range m.logs {
		if !l.IsPaid && l.Status == model.TimeLogCompleted && !l.ClockIn.Before(since) {
			n++
		}
	}
	return n, nil
}

// ── Mock ScheduleRepository ──

type mockScheduleRepo struct {
	shifts    map[string]*model.Schedule
	employees *mockEmployeeRepo
	seq       int
}

func newMockScheduleRepo(employees *mockEmployeeRepo) *mockScheduleRepo {
	return &mockScheduleRepo{shifts: make(map[string]*model.Schedule), employees: employees}
}

func (m *mockScheduleRepo) withStaff(s *model.Schedule) model.Schedule {
	cp := *s
	if e, ok := m.employees.employees[s.StaffID]; ok {
		staff := *e
		cp.Staff = &staff
	}
	return cp
}

func (m *mockScheduleRepo) Create(_ context.Context, s *model.Schedule) error {
	if s.ID == "" {
		m.seq++
		s.ID = fmt.Sprintf("shift-%d", m.seq)
	}
	cp := *s
	cp.Staff = nil
	m.shifts[s.ID] = &cp
	return nil
}

func (m *mockScheduleRepo) BatchCreate(ctx context.Context, shifts []model.Schedule) error {
	for i := range shifts {
		if err := m.Create(ctx, &shifts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id string) (*model.Schedule, error) {
	s, ok := m.shifts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.withStaff(s)
	return &cp, nil
}

func (m *mockScheduleRepo) Update(_ context.Context, s *model.Schedule) error {
	cp := *s
	cp.Staff = nil
	m.shifts[s.ID] = &cp
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.shifts[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.shifts, id)
	return nil
}

func (m *mockScheduleRepo) list(match func(s *model.Schedule) bool) []model.Schedule {
	var result []model.Schedule
	for _, s := range m.shifts {
		if match(s) {
			result = append(result, m.withStaff(s))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result
}

func inRange(d, from, to time.Time) bool {
	return !d.Before(from) && d.Before(to)
}

func (m *mockScheduleRepo) ListByRange(_ context.Context, storeID string, from, to time.Time, status string) ([]model.Schedule, error) {
	return m.list(func(s *model.Schedule) bool {
		return s.StoreID == storeID && inRange(s.Date, from, to) && (status == "" || s.Status == status)
	}), nil
}

func (m *mockScheduleRepo) ListByStaff(_ context.Context, staffID string, from, to time.Time, status string) ([]model.Schedule, error) {
	return m.list(func(s *model.Schedule) bool {
		return s.StaffID == staffID && inRange(s.Date, from, to) && (status == "" || s.Status == status)
	}), nil
}

func (m *mockScheduleRepo) PublishByIDs(_ context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if s, ok := m.shifts[id]; ok && s.Status == model.ShiftDraft {
			s.Status = model.ShiftPublished
			n++
		}
	}
	return n, nil
}

func (m *mockScheduleRepo) DistinctStaffIDs(_ context.Context, ids []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string
	for _, id := range ids {
		if s, ok := m.shifts[id]; ok && !seen[s.StaffID] {
			seen[s.StaffID] = true
			result = append(result, s.StaffID)
		}
	}
	return result, nil
}

// ── Mock notify.Queue ──

type recordingQueue struct {
	messages []notify.Message
	reject   bool
}

func (q *recordingQueue) Enqueue(msg notify.Message) bool {
	if q.reject {
		return false
	}
	q.messages = append(q.messages, msg)
	return true
}

func (q *recordingQueue) to(kind string) []string {
	var result []string
	for _, m := range q.messages {
		if m.Kind == kind {
			result = append(result, m.To)
		}
	}
	return result
}

// ── 测试环境 ──

// 2024-06-12（周三）10:00 UTC；所在周的周一为 2024-06-10
var testNow = time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)

type testFixture struct {
	env       *env
	employees *mockEmployeeRepo
	logs      *mockTimeLogRepo
	shifts    *mockScheduleRepo
	queue     *recordingQueue
	clock     time.Time
}

func newTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BaseURL: "https://portal.example.com/"},
		Auth: config.AuthConfig{
			PasswordMode:      "plain",
			ResetTokenTTL:     time.Hour,
			MinPasswordLength: 6,
		},
		Mail: config.MailConfig{PortalName: "Staff Portal"},
		Store: config.StoreConfig{
			DefaultID:        "northampton-uk",
			Timezone:         "Europe/London",
			KioskPlaceholder: "STORE_KIOSK",
		},
	}
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	cfg := newTestConfig()
	loc, err := cfg.Store.Location()
	if err != nil {
		t.Fatalf("加载时区失败: %v", err)
	}

	employees := newMockEmployeeRepo()
	f := &testFixture{
		employees: employees,
		logs:      newMockTimeLogRepo(employees),
		shifts:    newMockScheduleRepo(employees),
		queue:     &recordingQueue{},
		clock:     testNow,
	}
	f.env = &env{
		cfg: cfg,
		repo: &repository.Repository{
			Employee: f.employees,
			TimeLog:  f.logs,
			Schedule: f.shifts,
		},
		queue:    f.queue,
		composer: notify.NewComposer(cfg.Server.PublicURL(), cfg.Mail.PortalName),
		password: NewPasswordPolicy(cfg.Auth.PasswordMode),
		loc:      loc,
		now:      func() time.Time { return f.clock },
		logger:   zap.NewNop(),
	}
	return f
}

// addEmployee 直接写入一名已激活员工
func (f *testFixture) addEmployee(t *testing.T, employeeID, name, email, role string) *model.Employee {
	t.Helper()
	e := &model.Employee{
		EmployeeID:   employeeID,
		Name:         name,
		Role:         role,
		Password:     "secret1",
		InviteStatus: model.InviteStatusAccepted,
		StoreID:      "northampton-uk",
	}
	if email != "" {
		e.Email = &email
	}
	if err := f.employees.Create(context.Background(), e); err != nil {
		t.Fatalf("创建员工失败: %v", err)
	}
	return e
}

// addShift 直接写入一个班次
func (f *testFixture) addShift(t *testing.T, staffID, date, status, storeID string) *model.Schedule {
	t.Helper()
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		t.Fatalf("日期格式错误: %v", err)
	}
	s := &model.Schedule{
		StaffID:   staffID,
		Date:      d,
		StartTime: "09:00",
		EndTime:   "17:00",
		Role:      "Cashier",
		Status:    status,
		StoreID:   storeID,
	}
	if err := f.shifts.Create(context.Background(), s); err != nil {
		t.Fatalf("创建班次失败: %v", err)
	}
	return s
}

// [自证通过] internal/service/mock_repos_test.go
