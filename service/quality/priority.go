package quality

import (
	"fmt"
	"strings"
)

// Priority 问题优先级
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// rank 数值越小越严重，用于排序
func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// Valid 是否为合法优先级
func (p Priority) Valid() bool {
	return p.rank() < 3
}

// maxPriority 返回更严重的优先级
func maxPriority(a, b Priority) Priority {
	if b.rank() < a.rank() {
		return b
	}
	return a
}

var priorityAliases = map[string]Priority{
	"high":   PriorityHigh,
	"alta":   PriorityHigh,
	"medium": PriorityMedium,
	"média":  PriorityMedium,
	"media":  PriorityMedium,
	"low":    PriorityLow,
	"baixa":  PriorityLow,
}

// ParsePriority 解析优先级，兼容旧数据中的葡萄牙语取值
func ParsePriority(s string) (Priority, error) {
	if p, ok := priorityAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p, nil
	}
	return "", fmt.Errorf("未知的优先级: %q", s)
}
