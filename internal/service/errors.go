package service

import apperr "staffclock/pkg/errors"

// ── 业务错误 ──
// 响应码：前三位与 HTTP 状态码一致，后两位为模块内序号

var (
	// 400
	ErrInvalidIdentity       = apperr.New(apperr.KindBadRequest, 40001, "Provide exactly one of employee_id or email")
	ErrInvalidAction         = apperr.New(apperr.KindBadRequest, 40002, "Invalid action")
	ErrInvalidDate           = apperr.New(apperr.KindBadRequest, 40003, "Invalid date, expected YYYY-MM-DD")
	ErrInvalidShiftTime      = apperr.New(apperr.KindBadRequest, 40004, "start_time and end_time must be HH:mm")
	ErrEmptySourceWeek       = apperr.New(apperr.KindBadRequest, 40005, "No shifts found in source week to copy")
	ErrSameWeek              = apperr.New(apperr.KindBadRequest, 40006, "Source and target week must differ")
	ErrPasswordTooShort      = apperr.New(apperr.KindBadRequest, 40007, "Password is too short")
	ErrPasswordMismatch      = apperr.New(apperr.KindBadRequest, 40008, "Passwords do not match")
	ErrInvalidResetToken     = apperr.New(apperr.KindBadRequest, 40009, "Invalid or expired reset token")
	ErrInviteAlreadyAccepted = apperr.New(apperr.KindBadRequest, 40010, "Invitation already accepted")
	ErrEmployeeNoEmail       = apperr.New(apperr.KindBadRequest, 40011, "Employee has no email address")
	ErrNothingToUpdate       = apperr.New(apperr.KindBadRequest, 40012, "Nothing to update")
	ErrInvalidDateRange      = apperr.New(apperr.KindBadRequest, 40013, "Invalid date range")

	// 401
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthorized, 40100, "Invalid credentials")

	// 404
	ErrEmployeeNotFound = apperr.New(apperr.KindNotFound, 40400, "Employee not found")
	ErrInviteNotFound   = apperr.New(apperr.KindNotFound, 40401, "Invalid or expired invitation token")
	ErrShiftNotFound    = apperr.New(apperr.KindNotFound, 40402, "Shift not found")
	ErrTimeLogNotFound  = apperr.New(apperr.KindNotFound, 40403, "Time log not found")

	// 409
	ErrAlreadyClockedIn = apperr.New(apperr.KindConflict, 40900, "Already clocked in")
	ErrNotClockedIn     = apperr.New(apperr.KindConflict, 40901, "Not clocked in")
	ErrEmployeeExists   = apperr.New(apperr.KindConflict, 40902, "ID, Email or Username already exists")
)

// invalidEmployee 员工字段校验失败（角色与 email / username 组合等）
func invalidEmployee(message string) error {
	return apperr.New(apperr.KindBadRequest, 40020, message)
}

// [自证通过] internal/service/errors.go
