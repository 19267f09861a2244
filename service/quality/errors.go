/*
 * @module service/quality/errors
 * @description 分析引擎错误模型：规则配置错误、求值警告与致命错误
 * @architecture 分层架构 - 领域模型层
 * @rules 配置错误只拒绝单条规则；求值警告不产生问题；致命错误中止整次分析
 * @dependencies errors, fmt
 */

package quality

import (
	"errors"
	"fmt"
)

// 致命错误，分析中止且不产生报告
var (
	ErrEmptyCatalog         = errors.New("字段目录为空")
	ErrDuplicateField       = errors.New("字段目录中存在重复字段")
	ErrInvalidField         = errors.New("字段定义不合法")
	ErrInvalidApplicability = errors.New("字段分支逻辑不合法")
	ErrUnknownEvent         = errors.New("记录引用了目录中不存在的事件")
	ErrInvalidRecord        = errors.New("记录不合法")
)

// ConfigurationError 规则配置错误，在加载期检测，规则被拒绝且不参与求值
type ConfigurationError struct {
	RuleID string
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("规则 %s 配置错误: %s", e.RuleID, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// RejectedRule 被拒绝的规则及原因，随报告返回给调用方
type RejectedRule struct {
	RuleID string `json:"rule_id"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// EvaluationWarning 求值警告：依赖字段缺失导致表达式不确定、比较操作数缺失等
type EvaluationWarning struct {
	Subject string `json:"subject"`
	Event   string `json:"event"`
	Field   string `json:"field"`
	RuleID  string `json:"rule_id,omitempty"`
	Reason  string `json:"reason"`
}

func (w EvaluationWarning) String() string {
	if w.RuleID != "" {
		return fmt.Sprintf("%s/%s/%s 规则 %s: %s", w.Subject, w.Event, w.Field, w.RuleID, w.Reason)
	}
	return fmt.Sprintf("%s/%s/%s: %s", w.Subject, w.Event, w.Field, w.Reason)
}
