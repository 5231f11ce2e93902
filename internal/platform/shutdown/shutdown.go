package shutdown

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SlpAus/macro-tracker-backend/pkg/lifecycle"
)

const (
	httpTimeout     = 15 * time.Second
	gracefulTimeout = 30 * time.Second
	forcefulTimeout = 1 * time.Second
)

// Closer 是停机最后阶段需要释放的资源
type Closer struct {
	Name  string
	Close func() error
}

// Coordinator 负责编排应用程序的优雅停机流程。
// 它接收外部创建的生命周期管理器，并使用它们来协调停机。
type Coordinator struct {
	GracefulManager *lifecycle.Manager
	ForcefulManager *lifecycle.Manager
	closers         []Closer
}

// NewCoordinator 创建一个新的停机协调器。
func NewCoordinator(gracefulMgr, forcefulMgr *lifecycle.Manager) *Coordinator {
	return &Coordinator{
		GracefulManager: gracefulMgr,
		ForcefulManager: forcefulMgr,
	}
}

// OnClose 注册一个在所有后台服务退出后才关闭的资源，按注册的逆序关闭
func (c *Coordinator) OnClose(name string, fn func() error) {
	c.closers = append(c.closers, Closer{Name: name, Close: fn})
}

// ListenForSignalsAndShutdown 阻塞直到收到 SIGINT/SIGTERM 或 serveErr 传来监听错误，然后执行停机。
// 返回监听错误；因信号停机时返回 nil。
func (c *Coordinator) ListenForSignalsAndShutdown(server *http.Server, serveErr <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		slog.Info("收到关闭信号，开始优雅停机")
		c.Shutdown(server)
		return nil
	case err := <-serveErr:
		slog.Error("HTTP服务器异常退出，开始停机", "error", err)
		c.Shutdown(nil)
		return err
	}
}

// Shutdown 依次关闭HTTP服务器、后台服务和底层资源
func (c *Coordinator) Shutdown(server *http.Server) {
	// 关闭HTTP服务器，允许正在进行的请求完成
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("HTTP服务器关闭错误", "error", err)
		} else {
			slog.Info("HTTP服务器已关闭")
		}
	}

	// --- 阶段一: 优雅停机 ---
	slog.Info("第一阶段停机：等待后台任务完成", "timeout", gracefulTimeout)
	c.GracefulManager.Shutdown()
	remaining := c.GracefulManager.WaitWithTimeout(gracefulTimeout)
	if len(remaining) > 0 {
		// --- 阶段二: 强制停机 ---
		slog.Warn("第一阶段超时，发送强制停机信号", "remaining", remaining, "timeout", forcefulTimeout)
		c.ForcefulManager.Shutdown()
		c.ForcefulManager.WaitWithTimeout(forcefulTimeout)
	} else {
		slog.Info("所有服务已在第一阶段优雅关闭")
	}

	// --- 最终步骤 ---
	for i := len(c.closers) - 1; i >= 0; i-- {
		closer := c.closers[i]
		if err := closer.Close(); err != nil {
			slog.Error("资源关闭失败", "resource", closer.Name, "error", err)
		} else {
			slog.Info("资源已关闭", "resource", closer.Name)
		}
	}
	slog.Info("优雅停机完成")
}
