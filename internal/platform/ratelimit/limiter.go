// Package ratelimit 限制每个键（通常是用户ID）在时间窗口内的请求次数。
// 获取到的名额可以在业务失败时退回，使失败的请求不计入限额。
package ratelimit

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLimited 表示已超出限额
var ErrLimited = errors.New("超出请求频率限制")

// Limiter 为一个键获取一次请求名额
type Limiter interface {
	Acquire(ctx context.Context, key string) (*Permit, error)
}

// Permit 是一次已获取的名额。
// 业务成功后调用 Commit；通过 defer 调用 RollbackUnlessCommitted 在失败时退回名额。
type Permit struct {
	rollback  func()
	committed bool
}

// Commit 标记业务已成功，阻止后续的回滚
func (p *Permit) Commit() {
	if p != nil {
		p.committed = true
	}
}

// RollbackUnlessCommitted 在没有 Commit 时退回名额
func (p *Permit) RollbackUnlessCommitted() {
	if p == nil || p.committed || p.rollback == nil {
		return
	}
	p.rollback()
}

// Unlimited 不做任何限制
type Unlimited struct{}

func (Unlimited) Acquire(context.Context, string) (*Permit, error) {
	return &Permit{}, nil
}

// --- Redis 滑动窗口 ---

// KeyPrefix 是Redis中有序集合的键名前缀
// Key: ratelimit:<name>:<key>
// Score: 请求时间 (微秒)
// Member: 16字节唯一ID
const KeyPrefix = "ratelimit:"

// RedisLimiter 用有序集合实现的滑动窗口，多实例之间共享计数
type RedisLimiter struct {
	rdb    *redis.Client
	name   string
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(rdb *redis.Client, name string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, name: name, limit: limit, window: window, now: time.Now}
}

// generateUniqueID 生成 [8字节纳秒时间戳 | 8字节随机数] 的URL安全Base64字符串
func generateUniqueID(t time.Time) (string, error) {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], uint64(t.UnixNano()))
	if _, err := rand.Read(b[8:16]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (l *RedisLimiter) Acquire(ctx context.Context, key string) (*Permit, error) {
	redisKey := KeyPrefix + l.name + ":" + key
	now := l.now()
	minTimestamp := float64(now.Add(-l.window).UnixMicro())

	member, err := generateUniqueID(now)
	if err != nil {
		return nil, fmt.Errorf("生成 memberID 失败: %w", err)
	}

	// 在一个事务里：清理窗口外的记录、加入本次记录、刷新过期时间、取计数
	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("(%f", minTimestamp))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixMicro()), Member: member})
	pipe.Expire(ctx, redisKey, l.window+time.Minute)
	countCmd := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("执行频率计数事务失败: %w", err)
	}

	remove := func() {
		// 使用独立的ctx，请求被取消时也要完成补偿
		cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = l.rdb.ZRem(cctx, redisKey, member).Err()
	}

	if countCmd.Val() > int64(l.limit) {
		remove()
		return nil, ErrLimited
	}
	return &Permit{rollback: remove}, nil
}

// --- 进程内滑动窗口 ---

// MemoryLimiter 是未配置Redis时的实现，语义与 RedisLimiter 相同，只在本进程内计数
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string][]*entry
	limit   int
	window  time.Duration
	now     func() time.Time
}

type entry struct {
	at time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string][]*entry),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Acquire(_ context.Context, key string) (*Permit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	kept := l.windows[key][:0]
	for _, e := range l.windows[key] {
		if !e.at.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	if len(kept) >= l.limit {
		l.windows[key] = kept
		return nil, ErrLimited
	}

	e := &entry{at: now}
	l.windows[key] = append(kept, e)
	return &Permit{rollback: func() { l.remove(key, e) }}, nil
}

func (l *MemoryLimiter) remove(key string, target *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := l.windows[key]
	for i, e := range entries {
		if e == target {
			l.windows[key] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(l.windows[key]) == 0 {
		delete(l.windows, key)
	}
}

// New 根据是否有Redis选择实现，limit 为0时不做限制
func New(rdb *redis.Client, name string, limit int, window time.Duration) Limiter {
	switch {
	case limit <= 0 || window <= 0:
		return Unlimited{}
	case rdb != nil:
		return NewRedisLimiter(rdb, name, limit, window)
	default:
		return NewMemoryLimiter(limit, window)
	}
}
