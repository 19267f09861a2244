/*
 * @module service/governance/analysis_service
 * @description 数据质量分析服务：组装规则集、查询报告缓存、调用分析引擎、保存历史
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 请求 -> 合并内联规则与可见存储规则 -> 计算摘要查缓存 -> 引擎分析 -> 保存历史 -> 写缓存
 * @rules 规则集在每次调用时显式传入引擎；缓存只保存完整报告；输入不合法属于调用方错误
 * @dependencies dataquality-service/service/quality, dataquality-service/service/cache
 * @refs service/governance/rule_service.go, service/governance/history_service.go
 */

package governance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dataquality-service/service/cache"
	"dataquality-service/service/quality"
)

// ErrInvalidInput 目录或记录不合法，分析无法进行
var ErrInvalidInput = errors.New("分析输入不合法")

const defaultProjectID = "default"

// AnalysisRequest 分析请求
type AnalysisRequest struct {
	ProjectID string           `json:"project_id" example:"study-001"`
	OwnerID   string           `json:"owner_id,omitempty" example:"user-1"`
	Catalog   quality.Catalog  `json:"catalog"`
	Records   []quality.Record `json:"records"`
	Rules     []quality.Rule   `json:"rules,omitempty"`
	Config    *quality.Config  `json:"config,omitempty"`
}

// AnalysisResult 分析结果
type AnalysisResult struct {
	RunID     string                 `json:"run_id,omitempty"`
	FromCache bool                   `json:"from_cache"`
	Report    *quality.QualityReport `json:"report"`
}

// AnalysisService 数据质量分析服务
type AnalysisService struct {
	engine   *quality.Engine
	rules    *RuleService
	history  *HistoryService
	cache    cache.ReportCache
	defaults quality.Config
}

// NewAnalysisService 创建分析服务实例；rules、history、reportCache 均可为 nil
func NewAnalysisService(engine *quality.Engine, rules *RuleService, history *HistoryService, reportCache cache.ReportCache, defaults quality.Config) *AnalysisService {
	return &AnalysisService{
		engine:   engine,
		rules:    rules,
		history:  history,
		cache:    reportCache,
		defaults: defaults,
	}
}

// Run 执行一次分析
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	if req.ProjectID == "" {
		req.ProjectID = defaultProjectID
	}

	rules, err := s.resolveRules(req)
	if err != nil {
		return nil, err
	}
	cfg := s.mergeConfig(req.Config)
	input := quality.Input{Catalog: req.Catalog, Records: req.Records, Rules: rules}

	digest, err := cache.DigestKey(digestPayload(input, cfg))
	if err != nil {
		return nil, err
	}

	result := &AnalysisResult{}
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, digest)
		if err != nil {
			slog.Warn("读取报告缓存失败", "error", err)
		}
		if ok {
			result.Report = cached
			result.FromCache = true
		}
	}

	if result.Report == nil {
		report, err := s.engine.Analyze(ctx, input, cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		result.Report = report
	}

	if s.history != nil {
		run, err := s.history.SaveReport(RunMeta{
			ProjectID:   req.ProjectID,
			OwnerID:     req.OwnerID,
			InputDigest: digest,
			FromCache:   result.FromCache,
		}, result.Report)
		if err != nil {
			return nil, err
		}
		result.RunID = run.ID
	}

	if s.cache != nil && !result.FromCache {
		if err := s.cache.Set(ctx, digest, result.Report); err != nil {
			slog.Warn("写入报告缓存失败", "error", err)
		}
	}

	slog.Info("数据质量分析请求完成",
		"project_id", req.ProjectID,
		"run_id", result.RunID,
		"from_cache", result.FromCache,
		"complete", result.Report.Complete,
		"issues", len(result.Report.Issues))
	return result, nil
}

// resolveRules 合并请求内联规则与调用方可见的存储规则，ID 相同时内联规则优先
func (s *AnalysisService) resolveRules(req AnalysisRequest) ([]quality.Rule, error) {
	rules := make([]quality.Rule, 0, len(req.Rules))
	seen := make(map[string]bool, len(req.Rules))
	for _, r := range req.Rules {
		rules = append(rules, r)
		if r.ID != "" {
			seen[r.ID] = true
		}
	}
	if s.rules == nil {
		return rules, nil
	}

	stored, err := s.rules.GetVisibleRules(req.OwnerID)
	if err != nil {
		return nil, err
	}
	for _, r := range stored {
		if !seen[r.ID] {
			rules = append(rules, r)
		}
	}
	return rules, nil
}

// mergeConfig 请求配置中未设置的项使用服务默认值
func (s *AnalysisService) mergeConfig(override *quality.Config) quality.Config {
	cfg := s.defaults
	if override == nil {
		return cfg
	}
	if override.RangeEscalationMultiplier > 0 {
		cfg.RangeEscalationMultiplier = override.RangeEscalationMultiplier
	}
	if len(override.StructuralPriorityOverrides) > 0 {
		cfg.StructuralPriorityOverrides = override.StructuralPriorityOverrides
	}
	if len(override.CriticalFields) > 0 {
		cfg.CriticalFields = override.CriticalFields
	}
	if override.MaxConcurrency > 0 {
		cfg.MaxConcurrency = override.MaxConcurrency
	}
	if override.Deadline > 0 {
		cfg.Deadline = override.Deadline
	}
	return cfg
}

// digestPayload 缓存键只包含影响报告内容的输入；并发数与截止时间不影响完整报告
func digestPayload(input quality.Input, cfg quality.Config) interface{} {
	cfg.MaxConcurrency = 0
	cfg.Deadline = 0
	return struct {
		Input  quality.Input  `json:"input"`
		Config quality.Config `json:"config"`
	}{input, cfg}
}
