package health

import (
	"log/slog"
	"sync"
	"time"
)

// State 定义了系统健康状态的枚举类型
type State int

const (
	StateHealthy State = iota
	StateDegraded
	StateDown
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	default:
		return "down"
	}
}

// Status 是一次检查的结果快照
type Status struct {
	State     State
	Database  error
	Redis     error
	RedisUsed bool
	CheckedAt time.Time
}

// statusManager 负责线程安全地保存最近一次检查结果，并在状态变化时输出日志
type statusManager struct {
	mu      sync.RWMutex
	current Status
}

func (sm *statusManager) get() Status {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// assess 根据探测结果计算新状态。数据库不可用为 down，仅Redis不可用为 degraded。
func (sm *statusManager) assess(dbErr, redisErr error, redisUsed bool, at time.Time) Status {
	next := Status{Database: dbErr, Redis: redisErr, RedisUsed: redisUsed, CheckedAt: at}
	switch {
	case dbErr != nil:
		next.State = StateDown
	case redisUsed && redisErr != nil:
		next.State = StateDegraded
	default:
		next.State = StateHealthy
	}

	sm.mu.Lock()
	prev := sm.current.State
	sm.current = next
	sm.mu.Unlock()

	if prev != next.State {
		slog.Warn("健康检查: 系统状态变化", "from", prev.String(), "to", next.State.String(),
			"database", errString(dbErr), "redis", errString(redisErr))
	}
	return next
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
