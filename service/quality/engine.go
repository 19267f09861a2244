/*
 * @module service/quality/engine
 * @description 数据质量分析引擎入口：校验目录与记录、加载规则、并行执行结构性检查与自定义规则、汇总报告
 * @architecture 扇出/扇入 - 有界 worker 池
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 目录校验 -> 规则加载 -> worker 按记录求值(私有缓冲区) -> 汇总排序 -> 报告
 * @rules 引擎无跨调用状态；worker 仅在记录之间检查取消信号；取消时返回 complete=false 的部分报告
 * @dependencies log/slog, golang.org/x/sync/errgroup
 * @refs structural_analyzer.go, rule_engine.go, aggregator.go
 */

package quality

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"dataquality-service/service/quality/expression"

	"golang.org/x/sync/errgroup"
)

// Engine 数据质量分析引擎。不持有任何规则或目录状态，可被并发调用
type Engine struct {
	logger  *slog.Logger
	metrics *Metrics
}

// Option 引擎选项
type Option func(*Engine)

// WithLogger 指定日志记录器
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics 指定指标采集器
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine 创建分析引擎
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze 对一次输入执行完整分析。
// 返回 error 表示致命错误（目录为空或不合法、记录与目录不一致），此时不产生报告；
// ctx 被取消或超过 cfg.Deadline 时返回 Complete=false 的部分报告。
func (e *Engine) Analyze(ctx context.Context, in Input, cfg Config) (*QualityReport, error) {
	start := time.Now()
	cfg = cfg.withDefaults()
	cache := expression.NewCache()

	catalog, err := buildCatalog(in.Catalog, cache)
	if err != nil {
		e.logger.Error("字段目录校验失败", "error", err)
		e.metrics.observe("failed", nil, time.Since(start).Seconds())
		return nil, err
	}
	if err := validateRecords(catalog, in.Records); err != nil {
		e.logger.Error("记录校验失败", "error", err)
		e.metrics.observe("failed", nil, time.Since(start).Seconds())
		return nil, err
	}

	rules, rejected := loadRules(catalog, in.Rules, cache)
	for _, r := range rejected {
		e.logger.Warn("规则被拒绝", "rule_id", r.RuleID, "reason", r.Reason)
	}

	if cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Deadline)
		defer cancel()
	}

	classifier := newPriorityClassifier(cfg)
	structural := &structuralAnalyzer{catalog: catalog, classifier: classifier}
	custom := &ruleEngine{rules: rules, classifier: classifier}
	index := buildSubjectIndex(in.Records)

	e.logger.Info("开始数据质量分析",
		"fields", len(catalog.fields),
		"records", len(in.Records),
		"rules", len(rules),
		"rejected_rules", len(rejected),
		"workers", cfg.MaxConcurrency)

	results := evaluateRecords(ctx, in.Records, cfg.MaxConcurrency, func(rec *Record) *collector {
		out := newCollector()
		scope := recordScope{rec: rec, index: index}
		structural.analyze(scope, out)
		custom.evaluate(scope, out)
		return out
	})

	report := aggregate(in.Records, results)
	report.Complete = report.TotalRecords == len(in.Records)
	report.Rejected = rejected
	report.Elapsed = time.Since(start)

	for _, w := range report.Warnings {
		e.logger.Debug("求值警告", "warning", w.String())
	}

	status := "complete"
	if !report.Complete {
		status = "cancelled"
		e.logger.Warn("分析被取消，报告不完整",
			"processed", report.TotalRecords,
			"total", len(in.Records),
			"error", ctx.Err())
	}
	e.logger.Info("数据质量分析完成",
		"issues", len(report.Issues),
		"high", report.Counts.High,
		"medium", report.Counts.Medium,
		"low", report.Counts.Low,
		"warnings", len(report.Warnings),
		"elapsed", report.Elapsed.String())
	e.metrics.observe(status, report, report.Elapsed.Seconds())

	return report, nil
}

// evaluateRecords 有界 worker 池。每条记录的结果写入 results 中对应下标，
// 未处理的记录保持为 nil；worker 只在两条记录之间检查 ctx
func evaluateRecords(ctx context.Context, records []Record, workers int, eval func(*Record) *collector) []*collector {
	results := make([]*collector, len(records))
	if len(records) == 0 {
		return results
	}
	if workers > len(records) {
		workers = len(records)
	}

	var next atomic.Int64
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				if ctx.Err() != nil {
					return nil
				}
				i := int(next.Add(1) - 1)
				if i >= len(records) {
					return nil
				}
				results[i] = eval(&records[i])
			}
		})
	}
	_ = g.Wait()
	return results
}
