package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"staffclock/config"
)

// ── 测试用 Sender ──

type recordingSender struct {
	mu    sync.Mutex
	sent  []string
	fail  map[string]bool
	block chan struct{}
}

func (s *recordingSender) Send(_ context.Context, to, _, _ string) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[to] {
		return errors.New("smtp: 550 mailbox unavailable")
	}
	s.sent = append(s.sent, to)
	return nil
}

func (s *recordingSender) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func TestDispatcher_DeliversAndIsolatesFailures(t *testing.T) {
	sender := &recordingSender{fail: map[string]bool{"bad@example.com": true}}
	d := NewDispatcher(sender, config.NotifyConfig{QueueSize: 10, Workers: 2, SendTimeout: time.Second}, zap.NewNop())
	d.Start()

	for _, to := range []string{"a@example.com", "bad@example.com", "b@example.com"} {
		if !d.Enqueue(Message{Kind: KindRosterPublished, To: to, Subject: "s", HTML: "h"}) {
			t.Fatalf("入队失败: %s", to)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatalf("Close 失败: %v", err)
	}

	got := sender.recipients()
	if len(got) != 2 {
		t.Errorf("期望成功投递 2 封，实际 %d: %v", len(got), got)
	}
}

func TestDispatcher_FullQueueDropsWithoutBlocking(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	d := NewDispatcher(sender, config.NotifyConfig{QueueSize: 1, Workers: 1, SendTimeout: time.Second}, zap.NewNop())

	// 未启动 worker，队列容量 1
	if !d.Enqueue(Message{To: "a@example.com"}) {
		t.Fatal("第一封应入队成功")
	}
	if d.Enqueue(Message{To: "b@example.com"}) {
		t.Error("队列已满时应丢弃")
	}
	if d.Enqueue(Message{}) {
		t.Error("空收件人不应入队")
	}

	close(sender.block)
	d.Start()
	_ = d.Close(context.Background())

	if d.Enqueue(Message{To: "c@example.com"}) {
		t.Error("关闭后不应再接收邮件")
	}
}

func TestComposer_Links(t *testing.T) {
	c := NewComposer("https://portal.example.com/", "Staff Portal")

	if got := c.InviteURL("abc123"); got != "https://portal.example.com/accept-invite/abc123" {
		t.Errorf("邀请链接不符: %s", got)
	}
	if got := c.ResetURL("f00d"); got != "https://portal.example.com/auth/reset-password?token=f00d" {
		t.Errorf("重置链接不符: %s", got)
	}
}

func TestComposer_RendersAndEscapes(t *testing.T) {
	c := NewComposer("http://localhost:3000", "Staff Portal")

	msg, err := c.Invite("jo@example.com", "<script>Jo</script>", "tok")
	if err != nil {
		t.Fatalf("渲染邀请邮件失败: %v", err)
	}
	if msg.Subject != "Invitation to join Staff Portal" {
		t.Errorf("邀请邮件标题不符: %s", msg.Subject)
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Error("员工姓名应被转义")
	}
	if !strings.Contains(msg.HTML, "http://localhost:3000/accept-invite/tok") {
		t.Error("邀请邮件应包含邀请链接")
	}

	msg, err = c.RosterPublished("jo@example.com", "Jo", "2025-06-02")
	if err != nil {
		t.Fatalf("渲染发布邮件失败: %v", err)
	}
	if msg.Subject != "New Roster Published - Week of 2025-06-02" || msg.Kind != KindRosterPublished {
		t.Errorf("发布邮件不符: %+v", msg)
	}

	msg, err = c.ShiftChanged("jo@example.com", "Jo", ShiftChange{
		Change: ChangeRemoved, Date: "Mon 02 Jun 2025", StartTime: "09:00", EndTime: "17:00",
	})
	if err != nil {
		t.Fatalf("渲染变更邮件失败: %v", err)
	}
	if !strings.Contains(msg.HTML, "Shift removed") || !strings.Contains(msg.HTML, "09:00 - 17:00") {
		t.Errorf("变更邮件内容不符: %s", msg.HTML)
	}

	if _, err := c.PasswordReset("jo@example.com", "Jo", "tok"); err != nil {
		t.Fatalf("渲染重置邮件失败: %v", err)
	}
}
