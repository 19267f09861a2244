/*
 * @module service/config/config_manager
 * @description 配置管理器，负责配置加载、环境变量覆盖和配置验证
 * @architecture 分层架构 - 基础设施层
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 默认配置 -> 配置文件(YAML/JSON) -> 环境变量覆盖 -> 配置验证
 * @rules 环境变量优先级最高；配置文件可选；验证失败时拒绝启动
 * @dependencies gopkg.in/yaml.v3, github.com/spf13/cast
 * @refs main.go, service/init.go
 */

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"dataquality-service/service/quality"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Database DatabaseConfig `json:"database" yaml:"database"`
	Redis    RedisConfig    `json:"redis" yaml:"redis"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
	Engine   EngineConfig   `json:"engine" yaml:"engine"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int             `json:"port" yaml:"port"`
	BaseContext string          `json:"base_context" yaml:"base_context"`
	CORS        CORSConfig      `json:"cors" yaml:"cors"`
	RateLimit   RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
}

// RateLimitConfig 分析接口限流配置，请求数为 0 表示该层不限流
type RateLimitConfig struct {
	Window            time.Duration `json:"window" yaml:"window"`
	GlobalMaxRequests int           `json:"global_max_requests" yaml:"global_max_requests"`
	ClientMaxRequests int           `json:"client_max_requests" yaml:"client_max_requests"`
}

// Enabled 是否启用限流
func (r RateLimitConfig) Enabled() bool {
	return r.Window > 0 && (r.GlobalMaxRequests > 0 || r.ClientMaxRequests > 0)
}

// CORSConfig CORS配置
type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers" yaml:"allowed_headers"`
}

// DatabaseConfig 数据库配置，URL 非空时优先使用
type DatabaseConfig struct {
	URL          string `json:"url" yaml:"url"`
	Host         string `json:"host" yaml:"host"`
	Port         int    `json:"port" yaml:"port"`
	Database     string `json:"database" yaml:"database"`
	Username     string `json:"username" yaml:"username"`
	Password     string `json:"password" yaml:"password"`
	SSLMode      string `json:"ssl_mode" yaml:"ssl_mode"`
	Schema       string `json:"schema" yaml:"schema"`
	MaxOpenConns int    `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns" yaml:"max_idle_conns"`
}

// DSN 生成 postgres 连接串
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=Asia/Shanghai",
		d.Host, d.Port, d.Username, d.Password, d.Database, d.SSLMode, d.Schema)
}

// RedisConfig 报告缓存配置，Addr 为空时使用进程内缓存
type RedisConfig struct {
	Addr     string        `json:"addr" yaml:"addr"`
	Password string        `json:"password" yaml:"password"`
	DB       int           `json:"db" yaml:"db"`
	TTL      time.Duration `json:"ttl" yaml:"ttl"`
}

// Enabled 是否配置了 Redis
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
}

// EngineConfig 分析引擎配置
type EngineConfig struct {
	MaxConcurrency              int               `json:"max_concurrency" yaml:"max_concurrency"`
	RangeEscalationMultiplier   float64           `json:"range_escalation_multiplier" yaml:"range_escalation_multiplier"`
	Deadline                    time.Duration     `json:"deadline" yaml:"deadline"`
	CriticalFields              []string          `json:"critical_fields" yaml:"critical_fields"`
	StructuralPriorityOverrides map[string]string `json:"structural_priority_overrides" yaml:"structural_priority_overrides"`
}

var structuralKinds = map[quality.IssueKind]bool{
	quality.IssueMissingRequired: true,
	quality.IssueBranchingLogic:  true,
	quality.IssueTypeMismatch:    true,
	quality.IssueRangeViolation:  true,
}

// ToQualityConfig 转换为引擎配置，优先级名称按引擎规则规范化
func (e EngineConfig) ToQualityConfig() (quality.Config, error) {
	cfg := quality.Config{
		RangeEscalationMultiplier: e.RangeEscalationMultiplier,
		CriticalFields:            e.CriticalFields,
		MaxConcurrency:            e.MaxConcurrency,
		Deadline:                  e.Deadline,
	}
	if len(e.StructuralPriorityOverrides) == 0 {
		return cfg, nil
	}

	cfg.StructuralPriorityOverrides = make(map[quality.IssueKind]quality.Priority, len(e.StructuralPriorityOverrides))
	for kind, name := range e.StructuralPriorityOverrides {
		k := quality.IssueKind(kind)
		if !structuralKinds[k] {
			return quality.Config{}, fmt.Errorf("未知的结构性问题类型: %s", kind)
		}
		p, err := quality.ParsePriority(name)
		if err != nil {
			return quality.Config{}, fmt.Errorf("问题类型 %s 的优先级无效: %w", kind, err)
		}
		cfg.StructuralPriorityOverrides[k] = p
	}
	return cfg, nil
}

// ConfigManager 配置管理器
type ConfigManager struct {
	config     *AppConfig
	configLock sync.RWMutex

	configFilePath string
	lookupEnv      func(string) (string, bool)
}

// NewConfigManager 创建配置管理器实例，configFilePath 可为空
func NewConfigManager(configFilePath string) *ConfigManager {
	return &ConfigManager{
		configFilePath: configFilePath,
		lookupEnv:      os.LookupEnv,
	}
}

// LoadConfig 加载配置
func (c *ConfigManager) LoadConfig() error {
	c.configLock.Lock()
	defer c.configLock.Unlock()

	// 1. 默认配置
	config := DefaultConfig()

	// 2. 配置文件覆盖默认值
	if c.configFilePath != "" {
		if err := c.loadConfigFromFile(config); err != nil {
			return err
		}
	}

	// 3. 应用环境变量覆盖
	if err := c.applyEnvironmentOverrides(config); err != nil {
		return fmt.Errorf("环境变量解析失败: %w", err)
	}

	// 4. 验证配置
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	c.config = config
	return nil
}

// GetConfig 获取完整配置
func (c *ConfigManager) GetConfig() *AppConfig {
	c.configLock.RLock()
	defer c.configLock.RUnlock()
	return c.config
}

// Load 读取 CONFIG_FILE 指定的配置文件并应用环境变量
func Load() (*AppConfig, error) {
	manager := NewConfigManager(os.Getenv("CONFIG_FILE"))
	if err := manager.LoadConfig(); err != nil {
		return nil, err
	}
	return manager.GetConfig(), nil
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port: 80,
			CORS: CORSConfig{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
			},
			RateLimit: RateLimitConfig{
				Window: time.Minute,
			},
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "postgres",
			Username:     "postgres",
			SSLMode:      "disable",
			Schema:       "public",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Redis: RedisConfig{
			TTL: time.Hour,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Engine: EngineConfig{
			RangeEscalationMultiplier: quality.DefaultRangeEscalationMultiplier,
		},
	}
}

// 从文件加载配置
func (c *ConfigManager) loadConfigFromFile(config *AppConfig) error {
	configData, err := os.ReadFile(c.configFilePath)
	if err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 根据文件扩展名决定解析方式
	ext := strings.ToLower(filepath.Ext(c.configFilePath))
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(configData, config)
	case ".json":
		err = json.Unmarshal(configData, config)
	default:
		return fmt.Errorf("不支持的配置文件格式: %s", ext)
	}

	if err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}
	return nil
}

// 应用环境变量覆盖
func (c *ConfigManager) applyEnvironmentOverrides(config *AppConfig) error {
	setters := []struct {
		key   string
		apply func(string) error
	}{
		{"LISTEN_PORT", func(v string) (err error) { config.Server.Port, err = cast.ToIntE(v); return }},
		{"BASE_CONTEXT", func(v string) error { config.Server.BaseContext = v; return nil }},
		{"ANALYZE_RATE_WINDOW", func(v string) (err error) { config.Server.RateLimit.Window, err = cast.ToDurationE(v); return }},
		{"ANALYZE_RATE_LIMIT_GLOBAL", func(v string) (err error) { config.Server.RateLimit.GlobalMaxRequests, err = cast.ToIntE(v); return }},
		{"ANALYZE_RATE_LIMIT_CLIENT", func(v string) (err error) { config.Server.RateLimit.ClientMaxRequests, err = cast.ToIntE(v); return }},
		{"DATABASE_URL", func(v string) error { config.Database.URL = v; return nil }},
		{"DB_HOST", func(v string) error { config.Database.Host = v; return nil }},
		{"DB_PORT", func(v string) (err error) { config.Database.Port, err = cast.ToIntE(v); return }},
		{"DB_USER", func(v string) error { config.Database.Username = v; return nil }},
		{"DB_PASSWORD", func(v string) error { config.Database.Password = v; return nil }},
		{"DB_NAME", func(v string) error { config.Database.Database = v; return nil }},
		{"DB_SSLMODE", func(v string) error { config.Database.SSLMode = v; return nil }},
		{"DB_SCHEMA", func(v string) error { config.Database.Schema = v; return nil }},
		{"REDIS_ADDR", func(v string) error { config.Redis.Addr = v; return nil }},
		{"REDIS_PASSWORD", func(v string) error { config.Redis.Password = v; return nil }},
		{"REDIS_DB", func(v string) (err error) { config.Redis.DB, err = cast.ToIntE(v); return }},
		{"REPORT_CACHE_TTL", func(v string) (err error) { config.Redis.TTL, err = cast.ToDurationE(v); return }},
		{"LOG_LEVEL", func(v string) error { config.Logging.Level = v; return nil }},
		{"ENGINE_MAX_CONCURRENCY", func(v string) (err error) { config.Engine.MaxConcurrency, err = cast.ToIntE(v); return }},
		{"ENGINE_RANGE_MULTIPLIER", func(v string) (err error) { config.Engine.RangeEscalationMultiplier, err = cast.ToFloat64E(v); return }},
		{"ENGINE_DEADLINE", func(v string) (err error) { config.Engine.Deadline, err = cast.ToDurationE(v); return }},
	}

	for _, s := range setters {
		v, ok := c.lookupEnv(s.key)
		if !ok || v == "" {
			continue
		}
		if err := s.apply(v); err != nil {
			return fmt.Errorf("%s=%q: %w", s.key, v, err)
		}
	}
	return nil
}

// 验证配置
func validateConfig(config *AppConfig) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("服务器端口无效")
	}
	if config.Database.URL == "" {
		if config.Database.Host == "" {
			return fmt.Errorf("数据库主机不能为空")
		}
		if config.Database.Port <= 0 || config.Database.Port > 65535 {
			return fmt.Errorf("数据库端口无效")
		}
	}
	if config.Server.BaseContext != "" && !strings.HasPrefix(config.Server.BaseContext, "/") {
		return fmt.Errorf("BASE_CONTEXT 必须以 / 开头")
	}
	if config.Server.RateLimit.GlobalMaxRequests < 0 || config.Server.RateLimit.ClientMaxRequests < 0 {
		return fmt.Errorf("限流请求数不能为负数")
	}
	if config.Engine.MaxConcurrency < 0 {
		return fmt.Errorf("引擎并发数不能为负数")
	}
	if config.Engine.RangeEscalationMultiplier < 0 {
		return fmt.Errorf("越界升级倍数不能为负数")
	}
	if config.Engine.Deadline < 0 {
		return fmt.Errorf("分析截止时间不能为负数")
	}
	if _, err := config.Engine.ToQualityConfig(); err != nil {
		return err
	}
	return nil
}
