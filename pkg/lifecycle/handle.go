package lifecycle

import (
	"context"
	"time"
)

// Handle 是分发给单个后台服务的生命周期句柄。
// 服务在自己的循环中使用它来休眠和感知停机信号，
// 并在退出前调用Close向管理器报告。
type Handle struct {
	ctx context.Context

	// Close 在服务退出时必须被调用（通常以defer的形式），
	// 以便管理器将其从等待列表中移除。
	Close func()
}

// Ctx 返回与停机信号关联的上下文，可直接传递给数据库等阻塞操作。
func (h *Handle) Ctx() context.Context {
	return h.ctx
}

// Done 返回一个在停机信号广播后关闭的通道。
func (h *Handle) Done() <-chan struct{} {
	return h.ctx.Done()
}

// Err 在停机信号广播后返回非nil。
func (h *Handle) Err() error {
	return h.ctx.Err()
}

// Sleep 进行一次可中断的休眠。
// 如果在休眠期间收到停机信号，立刻返回上下文的错误；正常睡满则返回nil。
func (h *Handle) Sleep(duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-h.ctx.Done():
		return h.ctx.Err()
	}
}
