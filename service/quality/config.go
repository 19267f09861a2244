package quality

import (
	"runtime"
	"time"
)

// DefaultRangeEscalationMultiplier 范围越界升级为 High 的默认倍数
const DefaultRangeEscalationMultiplier = 1.5

// Config 单次分析的配置
type Config struct {
	// RangeEscalationMultiplier 越界幅度超过 倍数×区间跨度 时升级为 High
	RangeEscalationMultiplier float64 `json:"range_escalation_multiplier,omitempty"`
	// StructuralPriorityOverrides 按问题类型覆盖结构性检查的默认优先级
	StructuralPriorityOverrides map[IssueKind]Priority `json:"structural_priority_overrides,omitempty"`
	// CriticalFields 缺失时按 High 处理的关键字段
	CriticalFields []string      `json:"critical_fields,omitempty"`
	MaxConcurrency int           `json:"max_concurrency,omitempty"`
	Deadline       time.Duration `json:"deadline,omitempty"`
}

func (c Config) withDefaults() Config {
	if c.RangeEscalationMultiplier <= 0 {
		c.RangeEscalationMultiplier = DefaultRangeEscalationMultiplier
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = runtime.NumCPU()
	}
	return c
}

func (c Config) criticalSet() map[string]bool {
	set := make(map[string]bool, len(c.CriticalFields))
	for _, f := range c.CriticalFields {
		set[f] = true
	}
	return set
}
