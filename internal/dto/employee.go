package dto

import "time"

// ── 员工管理 DTO ──

// CreateEmployeeRequest 创建员工
// kiosk 账号需提供 username + password；其余角色需提供 email，密码由员工接受邀请时设置
type CreateEmployeeRequest struct {
	Name       string `json:"name"        binding:"required,max=100"`
	EmployeeID string `json:"employee_id" binding:"required,max=50"`
	Role       string `json:"role"        binding:"omitempty,oneof=employee admin kiosk"`
	Email      string `json:"email"       binding:"omitempty,email"`
	Username   string `json:"username"    binding:"omitempty,max=100"`
	Password   string `json:"password"`
	StoreID    string `json:"store_id"`
}

// UpdateEmployeeRequest 更新员工（nil 字段不修改）
type UpdateEmployeeRequest struct {
	Name       *string `json:"name"        binding:"omitempty,max=100"`
	EmployeeID *string `json:"employee_id" binding:"omitempty,max=50"`
	Role       *string `json:"role"        binding:"omitempty,oneof=employee admin kiosk"`
	Email      *string `json:"email"       binding:"omitempty,email"`
	Username   *string `json:"username"    binding:"omitempty,max=100"`
	Password   *string `json:"password"`
	StoreID    *string `json:"store_id"`
}

// EmployeeListRequest 员工列表查询
type EmployeeListRequest struct {
	StoreID string `form:"store_id"`
}

// EmployeeResponse 员工信息（不含密码与 token）
type EmployeeResponse struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employee_id"`
	Name         string    `json:"name"`
	Username     string    `json:"username,omitempty"`
	Email        string    `json:"email,omitempty"`
	Role         string    `json:"role"`
	InviteStatus string    `json:"invite_status"`
	StoreID      string    `json:"store_id"`
	CreatedAt    time.Time `json:"created_at"`
	InviteURL    *string   `json:"invite_url,omitempty"` // 仅创建非 kiosk 员工时返回
}

// [自证通过] internal/dto/employee.go
