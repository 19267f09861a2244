/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、报告缓存、指标注册与业务服务组装
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 应用启动 -> 连接数据库 -> 确认schema -> 迁移 -> 连接缓存 -> 限流器 -> 组装服务
 * @rules 确保所有依赖服务正常启动后才提供API服务；Redis 不可用时退回进程内缓存
 * @dependencies gorm.io/gorm, github.com/prometheus/client_golang
 * @refs service/governance, service/cache, service/quality, service/rate_limiter
 */

package service

import (
	"fmt"
	"log/slog"

	"dataquality-service/service/cache"
	"dataquality-service/service/config"
	"dataquality-service/service/database"
	"dataquality-service/service/governance"
	"dataquality-service/service/quality"
	"dataquality-service/service/rate_limiter"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

var (
	DB                    *gorm.DB
	GlobalRuleService     *governance.RuleService
	GlobalHistoryService  *governance.HistoryService
	GlobalAnalysisService *governance.AnalysisService
	GlobalReportCache     cache.ReportCache
	GlobalRateLimiter     *rate_limiter.RateLimiter
)

// Init 初始化数据库与全部业务服务，reg 为 nil 时不注册指标
func Init(cfg *config.AppConfig, reg prometheus.Registerer) error {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		if err := database.EnsureSchema(db, cfg.Database.Schema); err != nil {
			return err
		}
	}
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	DB = db

	GlobalReportCache = initReportCache(cfg.Redis)
	if cfg.Server.RateLimit.Enabled() {
		GlobalRateLimiter = initRateLimiter(GlobalReportCache)
	}
	return initServices(db, GlobalReportCache, cfg.Engine, reg)
}

// initRateLimiter 有 Redis 时复用报告缓存的连接，多实例共享计数
func initRateLimiter(reportCache cache.ReportCache) *rate_limiter.RateLimiter {
	if redisCache, ok := reportCache.(*cache.RedisReportCache); ok {
		slog.Info("分析接口限流使用 Redis 计数")
		return rate_limiter.NewRedisRateLimiter(redisCache.Client())
	}
	slog.Info("分析接口限流使用进程内计数")
	return rate_limiter.NewMemoryRateLimiter()
}

// initReportCache 初始化报告缓存
func initReportCache(cfg config.RedisConfig) cache.ReportCache {
	if !cfg.Enabled() {
		slog.Info("未配置 Redis，使用进程内报告缓存")
		return cache.NewMemoryReportCache()
	}

	redisCache, err := cache.NewRedisReportCache(cache.RedisOptions{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		TTL:      cfg.TTL,
	})
	if err != nil {
		slog.Warn("Redis 报告缓存不可用，使用进程内缓存", "error", err)
		return cache.NewMemoryReportCache()
	}
	return redisCache
}

// initServices 组装业务服务
func initServices(db *gorm.DB, reportCache cache.ReportCache, engineCfg config.EngineConfig, reg prometheus.Registerer) error {
	defaults, err := engineCfg.ToQualityConfig()
	if err != nil {
		return err
	}

	engine := quality.NewEngine(
		quality.WithLogger(slog.Default()),
		quality.WithMetrics(quality.NewMetrics(reg)),
	)

	GlobalRuleService = governance.NewRuleService(db)
	GlobalHistoryService = governance.NewHistoryService(db)
	GlobalAnalysisService = governance.NewAnalysisService(engine, GlobalRuleService, GlobalHistoryService, reportCache, defaults)

	slog.Info("服务初始化完成")
	return nil
}
