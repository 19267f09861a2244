/*
 * @module service/quality/query_builder
 * @description 问题构建与优先级分类：结构性问题默认优先级表、范围越界升级规则、问题去重合并
 * @architecture 分层架构 - 领域服务层
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 违规 -> 优先级分类 -> 按 (受试者, 事件, 字段, 类型) 去重 -> 问题列表
 * @rules 自定义规则以声明优先级为准；重复问题取最高优先级并拼接说明
 * @dependencies math, strings
 * @refs aggregator.go
 */

package quality

import (
	"math"
	"strings"
)

// 结构性问题的默认优先级表，range_violation 由升级规则决定
var defaultStructuralPriority = map[IssueKind]Priority{
	IssueBranchingLogic: PriorityMedium,
	IssueTypeMismatch:   PriorityHigh,
}

// priorityClassifier 优先级分类器
type priorityClassifier struct {
	overrides  map[IssueKind]Priority
	critical   map[string]bool
	multiplier float64
}

func newPriorityClassifier(cfg Config) *priorityClassifier {
	overrides := make(map[IssueKind]Priority, len(cfg.StructuralPriorityOverrides))
	for kind, p := range cfg.StructuralPriorityOverrides {
		if p.Valid() {
			overrides[kind] = p
		}
	}
	return &priorityClassifier{
		overrides:  overrides,
		critical:   cfg.criticalSet(),
		multiplier: cfg.RangeEscalationMultiplier,
	}
}

// structural 结构性问题优先级
func (c *priorityClassifier) structural(kind IssueKind, field string) Priority {
	if p, ok := c.overrides[kind]; ok {
		return p
	}
	if kind == IssueMissingRequired {
		if c.critical[field] {
			return PriorityHigh
		}
		return PriorityMedium
	}
	if p, ok := defaultStructuralPriority[kind]; ok {
		return p
	}
	return PriorityMedium
}

// structuralRange 结构性范围越界优先级，可被覆盖配置替换
func (c *priorityClassifier) structuralRange(value float64, min, max *float64) Priority {
	if p, ok := c.overrides[IssueRangeViolation]; ok {
		return p
	}
	return c.escalate(value, min, max)
}

// escalate 越界幅度超过 倍数×区间跨度 时为 High，否则为 Medium
func (c *priorityClassifier) escalate(value float64, min, max *float64) Priority {
	var excess float64
	switch {
	case min != nil && value < *min:
		excess = *min - value
	case max != nil && value > *max:
		excess = value - *max
	default:
		return PriorityMedium
	}
	if excess > c.multiplier*rangeSpan(min, max) {
		return PriorityHigh
	}
	return PriorityMedium
}

// rangeSpan 区间跨度；只有一个边界时取其绝对值，为 0 时取 1
func rangeSpan(min, max *float64) float64 {
	var span float64
	switch {
	case min != nil && max != nil:
		span = *max - *min
	case min != nil:
		span = math.Abs(*min)
	case max != nil:
		span = math.Abs(*max)
	}
	if span == 0 {
		span = 1
	}
	return span
}

// custom 自定义规则优先级：声明优先级为准，未声明时使用 fallback
func (c *priorityClassifier) custom(rule *compiledRule, fallback Priority) Priority {
	if rule.priority.Valid() {
		return rule.priority
	}
	return fallback
}

// collector 单条记录（或合并阶段）的问题与警告收集器，不加锁，只由一个 goroutine 使用
type collector struct {
	issues   []Issue
	index    map[IssueKey]int
	warnings []EvaluationWarning
}

func newCollector() *collector {
	return &collector{index: make(map[IssueKey]int)}
}

// add 添加问题，已存在相同键时合并
func (c *collector) add(issue Issue) {
	key := issue.Key()
	if pos, ok := c.index[key]; ok {
		mergeIssue(&c.issues[pos], issue)
		return
	}
	issue.RuleIDs = append([]string(nil), issue.RuleIDs...)
	c.index[key] = len(c.issues)
	c.issues = append(c.issues, issue)
}

func (c *collector) warn(w EvaluationWarning) {
	c.warnings = append(c.warnings, w)
}

// mergeIssue 合并重复问题：取最高优先级，拼接不同的说明，累加规则ID
func mergeIssue(dst *Issue, src Issue) {
	dst.Priority = maxPriority(dst.Priority, src.Priority)

	if src.Description != "" && !containsPart(dst.Description, src.Description) {
		if dst.Description == "" {
			dst.Description = src.Description
		} else {
			dst.Description += "; " + src.Description
		}
	}
	for _, id := range src.RuleIDs {
		if !containsString(dst.RuleIDs, id) {
			dst.RuleIDs = append(dst.RuleIDs, id)
		}
	}
	if dst.Form == "" {
		dst.Form = src.Form
	}
}

func containsPart(joined, part string) bool {
	for _, p := range strings.Split(joined, "; ") {
		if p == part {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
