/*
 * @module service/rate_limiter/redis_rate_limiter
 * @description 分析请求限流服务，支持全局与客户端两层固定窗口限流，Redis 不可用时使用进程内计数
 * @architecture 工具层 - 提供分布式限流能力
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 检查限流规则 -> 窗口计数 -> 判断是否超限
 * @rules 使用Redis Lua脚本保证检查与计数的原子性；任一层超限即拒绝且不计入任何一层
 * @dependencies github.com/go-redis/redis/v8
 * @refs api/middleware/rate_limit.go, service/init.go
 */

package rate_limiter

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	LimitTypeGlobal = "global"
	LimitTypeClient = "client"

	keyPrefix = "dataquality:rate_limit"
)

// RateLimitResult 限流检查结果
type RateLimitResult struct {
	Allowed       bool   `json:"allowed"`    // 是否允许请求
	Limit         int    `json:"limit"`      // 限制数量
	Remaining     int    `json:"remaining"`  // 剩余数量
	ResetAt       int64  `json:"reset_at"`   // 重置时间（Unix时间戳）
	RateLimitType string `json:"limit_type"` // 限流类型：global/client
	Message       string `json:"message"`    // 提示信息
}

// RateLimitRule 限流规则
type RateLimitRule struct {
	Type        string        // global/client
	TargetID    string        // 客户端标识，全局时为空
	TimeWindow  time.Duration // 时间窗口
	MaxRequests int           // 最大请求数
}

// window 一层限流对应的计数窗口
type window struct {
	key    string
	max    int
	period time.Duration
}

// windowState 窗口当前计数与剩余有效期
type windowState struct {
	count int
	ttl   time.Duration
}

// windowCounter 固定窗口计数器：先检查全部窗口，全部未超限时才同时计数加一
type windowCounter interface {
	acquire(ctx context.Context, windows []window) (allowed bool, states []windowState, err error)
}

// RateLimiter 限流器
type RateLimiter struct {
	counter windowCounter
	now     func() time.Time
}

// NewRedisRateLimiter 基于已连接的 Redis 客户端创建限流器
func NewRedisRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{counter: &redisCounter{client: client}, now: time.Now}
}

// NewMemoryRateLimiter 创建进程内限流器，只在单实例部署下准确
func NewMemoryRateLimiter() *RateLimiter {
	return &RateLimiter{counter: newMemoryCounter(time.Now), now: time.Now}
}

// CheckRateLimit 检查是否超过限流（按优先级检查：客户端 -> 全局）
func (r *RateLimiter) CheckRateLimit(ctx context.Context, rules []RateLimitRule) (*RateLimitResult, error) {
	if len(rules) == 0 {
		return &RateLimitResult{
			Allowed:       true,
			Limit:         -1,
			Remaining:     -1,
			RateLimitType: "none",
			Message:       "无限流规则",
		}, nil
	}

	return r.check(ctx, sortRulesByPriority(rules))
}

// checkSingleRule 检查单个限流规则
func (r *RateLimiter) checkSingleRule(ctx context.Context, rule RateLimitRule) (*RateLimitResult, error) {
	return r.check(ctx, []RateLimitRule{rule})
}

// check 原子地检查所有层，被拒绝的请求不占用任何一层的配额
func (r *RateLimiter) check(ctx context.Context, rules []RateLimitRule) (*RateLimitResult, error) {
	windows := make([]window, len(rules))
	for i, rule := range rules {
		if rule.MaxRequests <= 0 || rule.TimeWindow <= 0 {
			return nil, fmt.Errorf("限流规则无效: max=%d window=%s", rule.MaxRequests, rule.TimeWindow)
		}
		windows[i] = window{key: r.buildRateLimitKey(rule), max: rule.MaxRequests, period: rule.TimeWindow}
	}

	allowed, states, err := r.counter.acquire(ctx, windows)
	if err != nil {
		return nil, fmt.Errorf("限流检查失败: %w", err)
	}
	if len(states) != len(rules) {
		return nil, fmt.Errorf("限流检查失败: 窗口数 %d 与规则数 %d 不一致", len(states), len(rules))
	}

	if !allowed {
		// 按优先级返回第一个已满的层
		for i, rule := range rules {
			if states[i].count >= rule.MaxRequests {
				return r.buildResult(rule, states[i], false), nil
			}
		}
		return r.buildResult(rules[0], states[0], false), nil
	}
	last := len(rules) - 1
	return r.buildResult(rules[last], states[last], true), nil
}

func (r *RateLimiter) buildResult(rule RateLimitRule, state windowState, allowed bool) *RateLimitResult {
	remaining := rule.MaxRequests - state.count
	if remaining < 0 {
		remaining = 0
	}

	message := "允许请求"
	if !allowed {
		message = fmt.Sprintf("超过%s限流限制", getRateLimitTypeName(rule.Type))
	}

	return &RateLimitResult{
		Allowed:       allowed,
		Limit:         rule.MaxRequests,
		Remaining:     remaining,
		ResetAt:       r.now().Add(state.ttl).Unix(),
		RateLimitType: rule.Type,
		Message:       message,
	}
}

// buildRateLimitKey 构造限流Key，窗口编号使 key 随窗口自然过期
func (r *RateLimiter) buildRateLimitKey(rule RateLimitRule) string {
	currentWindow := r.now().UnixNano() / int64(rule.TimeWindow)

	if rule.Type == LimitTypeGlobal {
		return fmt.Sprintf("%s:%s:%d", keyPrefix, rule.Type, currentWindow)
	}
	return fmt.Sprintf("%s:%s:%s:%d", keyPrefix, rule.Type, rule.TargetID, currentWindow)
}

// sortRulesByPriority 按优先级排序规则：client > global
func sortRulesByPriority(rules []RateLimitRule) []RateLimitRule {
	priorityMap := map[string]int{
		LimitTypeClient: 2,
		LimitTypeGlobal: 1,
	}

	sorted := make([]RateLimitRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return priorityMap[sorted[i].Type] > priorityMap[sorted[j].Type]
	})
	return sorted
}

// getRateLimitTypeName 获取限流类型名称
func getRateLimitTypeName(limitType string) string {
	switch limitType {
	case LimitTypeGlobal:
		return "全局"
	case LimitTypeClient:
		return "客户端"
	default:
		return "未知"
	}
}

// redisCounter 使用Lua脚本实现原子性限流检查
type redisCounter struct {
	client *redis.Client
}

// KEYS[i] 对应 ARGV[2i-1]=上限、ARGV[2i]=窗口毫秒；返回 {allowed, count1, ttl1, count2, ttl2, ...}
var limitScript = redis.NewScript(`
	local n = #KEYS
	local counts = {}
	local blocked = 0

	for i = 1, n do
		counts[i] = tonumber(redis.call('GET', KEYS[i]) or '0')
		if counts[i] >= tonumber(ARGV[2 * i - 1]) then
			blocked = 1
		end
	end

	if blocked == 0 then
		for i = 1, n do
			counts[i] = redis.call('INCR', KEYS[i])
			if counts[i] == 1 then
				redis.call('PEXPIRE', KEYS[i], tonumber(ARGV[2 * i]))
			end
		end
	end

	local result = {1 - blocked}
	for i = 1, n do
		local ttl = redis.call('PTTL', KEYS[i])
		if ttl < 0 then
			ttl = tonumber(ARGV[2 * i])
		end
		table.insert(result, counts[i])
		table.insert(result, ttl)
	end
	return result
`)

func (c *redisCounter) acquire(ctx context.Context, windows []window) (bool, []windowState, error) {
	keys := make([]string, len(windows))
	args := make([]interface{}, 0, 2*len(windows))
	for i, w := range windows {
		keys[i] = w.key
		args = append(args, w.max, w.period.Milliseconds())
	}

	result, err := limitScript.Run(ctx, c.client, keys, args...).Result()
	if err != nil {
		return false, nil, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 1+2*len(windows) {
		return false, nil, fmt.Errorf("限流脚本返回值格式错误: %v", result)
	}
	allowed, _ := values[0].(int64)
	states := make([]windowState, len(windows))
	for i := range windows {
		count, _ := values[1+2*i].(int64)
		ttl, _ := values[2+2*i].(int64)
		states[i] = windowState{count: int(count), ttl: time.Duration(ttl) * time.Millisecond}
	}
	return allowed == 1, states, nil
}

// memoryCounter 进程内固定窗口计数
type memoryCounter struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	count     int
	expiresAt time.Time
}

func newMemoryCounter(now func() time.Time) *memoryCounter {
	return &memoryCounter{now: now, entries: make(map[string]*memoryEntry)}
}

func (c *memoryCounter) acquire(_ context.Context, windows []window) (bool, []windowState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}

	entries := make([]*memoryEntry, len(windows))
	allowed := true
	for i, w := range windows {
		entry, ok := c.entries[w.key]
		if !ok {
			entry = &memoryEntry{expiresAt: now.Add(w.period)}
		}
		entries[i] = entry
		if entry.count >= w.max {
			allowed = false
		}
	}

	states := make([]windowState, len(windows))
	for i, w := range windows {
		entry := entries[i]
		if allowed {
			entry.count++
			c.entries[w.key] = entry
		}
		states[i] = windowState{count: entry.count, ttl: entry.expiresAt.Sub(now)}
	}
	return allowed, states, nil
}
