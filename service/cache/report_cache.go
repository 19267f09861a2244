/*
 * @module service/cache/report_cache
 * @description 质量报告缓存：按输入摘要缓存完整报告，相同输入直接返回上次结果
 * @architecture 工具层 - 缓存
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 输入 -> sha256 摘要 -> Redis GET 命中返回 / 未命中分析后 SET(带 TTL)
 * @rules 只缓存 complete=true 的报告；分析是幂等的，相同摘要的报告可以复用
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/governance/analysis_service.go
 */

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dataquality-service/service/quality"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "dataquality:report:"

// ReportCache 报告缓存接口
type ReportCache interface {
	Get(ctx context.Context, key string) (*quality.QualityReport, bool, error)
	Set(ctx context.Context, key string, report *quality.QualityReport) error
}

// RedisOptions Redis 连接配置
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisReportCache 基于 Redis 的报告缓存
type RedisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisReportCache 创建 Redis 报告缓存并测试连接
func NewRedisReportCache(opts RedisOptions) (*RedisReportCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis连接失败: %w", err)
	}

	slog.Info("Redis报告缓存初始化成功", "redis_addr", opts.Addr, "ttl", opts.TTL.String())
	return &RedisReportCache{client: client, ttl: opts.TTL}, nil
}

// Get 读取缓存报告
func (c *RedisReportCache) Get(ctx context.Context, key string) (*quality.QualityReport, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("读取报告缓存失败: %w", err)
	}

	var report quality.QualityReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false, fmt.Errorf("解析报告缓存失败: %w", err)
	}
	return &report, true, nil
}

// Set 写入缓存，不完整的报告直接忽略
func (c *RedisReportCache) Set(ctx context.Context, key string, report *quality.QualityReport) error {
	if report == nil || !report.Complete {
		return nil
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("写入报告缓存失败: %w", err)
	}
	return nil
}

// Client 底层 Redis 客户端，供限流等组件复用连接
func (c *RedisReportCache) Client() *redis.Client {
	return c.client
}

// Close 关闭连接
func (c *RedisReportCache) Close() error {
	return c.client.Close()
}

// MemoryReportCache 进程内报告缓存，未配置 Redis 时使用
type MemoryReportCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryReportCache 创建进程内报告缓存
func NewMemoryReportCache() *MemoryReportCache {
	return &MemoryReportCache{entries: make(map[string][]byte)}
}

// Get 读取缓存报告，返回副本
func (c *MemoryReportCache) Get(ctx context.Context, key string) (*quality.QualityReport, bool, error) {
	c.mu.RLock()
	data, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	var report quality.QualityReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false, fmt.Errorf("解析报告缓存失败: %w", err)
	}
	return &report, true, nil
}

// Set 写入缓存，不完整的报告直接忽略
func (c *MemoryReportCache) Set(ctx context.Context, key string, report *quality.QualityReport) error {
	if report == nil || !report.Complete {
		return nil
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}
	c.mu.Lock()
	c.entries[key] = data
	c.mu.Unlock()
	return nil
}

// DigestKey 计算任意输入的 JSON 摘要，作为缓存键
func DigestKey(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("计算输入摘要失败: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
