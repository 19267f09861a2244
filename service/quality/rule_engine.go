/*
 * @module service/quality/rule_engine
 * @description 自定义规则引擎，按规则类型分派到 comparison/range/regex/cross_field/condition 五种求值函数
 * @architecture 策略模式 - 封闭变体单点分派
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow (记录, 已编译规则) -> 事件过滤 -> 按类型求值 -> 违规问题 / 求值警告
 * @rules 规则之间、记录之间相互独立，执行顺序不影响结果集
 * @dependencies dataquality-service/service/quality/expression
 * @refs rule_loader.go, cross_form.go, query_builder.go
 */

package quality

import (
	"fmt"
	"strings"

	"dataquality-service/service/quality/expression"
)

// ruleEngine 自定义规则引擎
type ruleEngine struct {
	rules      []*compiledRule
	classifier *priorityClassifier
}

// evaluate 对单条记录执行全部自定义规则
func (e *ruleEngine) evaluate(scope recordScope, out *collector) {
	for _, rule := range e.rules {
		if !rule.appliesTo(scope.rec) {
			continue
		}
		switch rule.kind {
		case RuleKindComparison:
			e.evalComparison(scope, rule, out)
		case RuleKindRange:
			e.evalRange(scope, rule, out)
		case RuleKindRegex:
			e.evalRegex(scope, rule, out)
		case RuleKindCrossField:
			e.evalCrossField(scope, rule, out)
		case RuleKindCondition:
			e.evalCondition(scope, rule, out)
		}
	}
}

// appliesTo 规则是否作用于该记录所在事件
func (r *compiledRule) appliesTo(rec *Record) bool {
	if r.rule.Event1 != "" && r.rule.Event1 != rec.Event {
		return false
	}
	return r.target.appliesToEvent(rec.Event)
}

func (e *ruleEngine) evalComparison(scope recordScope, rule *compiledRule, out *collector) {
	rec := scope.rec
	raw, present := rec.Values[rule.target.def.Name]
	blank := !present || expression.IsBlank(raw)
	spec := rule.comparison

	var holds bool
	switch spec.operator {
	case OpEmpty:
		holds = blank
	case OpNotEmpty:
		holds = !blank
	case OpContains:
		if blank {
			e.warnMissingOperand(rec, rule, rule.target.def.Name, out)
			return
		}
		holds = strings.Contains(expression.ToText(raw), expression.ToText(spec.literal))
	default:
		if blank {
			e.warnMissingOperand(rec, rule, rule.target.def.Name, out)
			return
		}
		cmp, ordered := compareOperands(raw, spec.literal)
		if !ordered && isOrderingOperator(spec.operator) {
			out.warn(e.warning(rec, rule, fmt.Sprintf("值 %q 与 %q 无法按大小比较", expression.ToText(raw), expression.ToText(spec.literal))))
			return
		}
		holds = operatorHolds(spec.operator, cmp)
	}
	if holds {
		return
	}

	out.add(e.issue(rec, rule, IssueComparison, raw, e.classifier.custom(rule, PriorityMedium),
		fmt.Sprintf("字段 '%s' 的值 %q 不满足 %s %s", rule.target.def.DisplayName(), expression.ToText(raw), spec.operator, expression.ToText(spec.literal))))
}

func (e *ruleEngine) evalRange(scope recordScope, rule *compiledRule, out *collector) {
	rec := scope.rec
	raw := rec.Values[rule.target.def.Name]
	if expression.IsBlank(raw) {
		return
	}
	n, ok := expression.ToNumber(raw)
	if !ok {
		out.warn(e.warning(rec, rule, fmt.Sprintf("值 %q 不是数值，无法执行范围检查", expression.ToText(raw))))
		return
	}

	b := rule.bounds
	if (b.low == nil || n >= *b.low) && (b.high == nil || n <= *b.high) {
		return
	}

	out.add(e.issue(rec, rule, IssueRangeViolation, raw,
		e.classifier.custom(rule, e.classifier.escalate(n, b.low, b.high)),
		fmt.Sprintf("字段 '%s' 的值 %s 超出范围 [%s, %s]", rule.target.def.DisplayName(), formatBound(n), boundText(b.low), boundText(b.high))))
}

func (e *ruleEngine) evalRegex(scope recordScope, rule *compiledRule, out *collector) {
	rec := scope.rec
	raw := rec.Values[rule.target.def.Name]
	if expression.IsBlank(raw) {
		return
	}
	text := expression.ToText(raw)
	matched := rule.regex.pattern.MatchString(text)
	if matched != rule.regex.negate {
		return
	}

	verb := "不匹配"
	if rule.regex.negate {
		verb = "不应匹配"
	}
	out.add(e.issue(rec, rule, IssueRegex, raw, e.classifier.custom(rule, PriorityMedium),
		fmt.Sprintf("字段 '%s' 的值 %q %s格式 %s", rule.target.def.DisplayName(), text, verb, rule.regex.pattern.String())))
}

func (e *ruleEngine) evalCrossField(scope recordScope, rule *compiledRule, out *collector) {
	rec := scope.rec
	primary, ok := scope.lookup("", rule.target.def.Name)
	if !ok || expression.IsBlank(primary) {
		e.warnMissingOperand(rec, rule, rule.target.def.Name, out)
		return
	}
	sec := rule.cross.secondary
	secondary, ok := scope.lookup(sec.eventFor(rec), sec.field.def.Name)
	if !ok || expression.IsBlank(secondary) {
		e.warnMissingOperand(rec, rule, secondaryLabel(sec, rec), out)
		return
	}

	cmp, ordered := compareOperands(primary, secondary)
	if !ordered && isOrderingOperator(rule.cross.operator) {
		out.warn(e.warning(rec, rule, fmt.Sprintf("值 %q 与 %q 无法按大小比较", expression.ToText(primary), expression.ToText(secondary))))
		return
	}
	if operatorHolds(rule.cross.operator, cmp) {
		return
	}

	out.add(e.issue(rec, rule, IssueCrossField, primary, e.classifier.custom(rule, PriorityMedium),
		fmt.Sprintf("字段 '%s' (%s) 与 '%s' (%s) 不满足 %s", rule.target.def.DisplayName(), expression.ToText(primary),
			sec.field.def.DisplayName(), expression.ToText(secondary), rule.cross.operator)))
}

func (e *ruleEngine) evalCondition(scope recordScope, rule *compiledRule, out *collector) {
	rec := scope.rec
	cond := rule.condition
	switch cond.antecedent.Eval(scope) {
	case expression.False:
		return
	case expression.Indeterminate:
		out.warn(e.warning(rec, rule, fmt.Sprintf("前件依赖的字段缺失或无法比较，无法判断: %s", cond.antecedent.Source())))
		return
	}
	// 前件成立时，后件为假或不确定都视为违规
	if cond.consequent.Eval(scope) == expression.True {
		return
	}

	raw := rec.Values[rule.target.def.Name]
	out.add(e.issue(rec, rule, IssueConditionViolation, raw, e.classifier.custom(rule, PriorityMedium),
		fmt.Sprintf("条件 %s 成立时应满足 %s", cond.antecedent.Source(), cond.consequent.Source())))
}

// issue 构建自定义规则问题，规则声明了提示信息时优先使用
func (e *ruleEngine) issue(rec *Record, rule *compiledRule, kind IssueKind, raw interface{}, p Priority, desc string) Issue {
	if rule.rule.Message != "" {
		desc = rule.rule.Message
	}
	return Issue{
		Subject:     rec.Subject,
		Event:       rec.Event,
		Form:        rule.target.def.Form,
		Field:       rule.target.def.Name,
		Priority:    p,
		Kind:        kind,
		Description: desc,
		Value:       raw,
		RuleIDs:     []string{rule.rule.ID},
	}
}

func (e *ruleEngine) warning(rec *Record, rule *compiledRule, reason string) EvaluationWarning {
	return EvaluationWarning{
		Subject: rec.Subject,
		Event:   rec.Event,
		Field:   rule.target.def.Name,
		RuleID:  rule.rule.ID,
		Reason:  reason,
	}
}

func (e *ruleEngine) warnMissingOperand(rec *Record, rule *compiledRule, field string, out *collector) {
	out.warn(e.warning(rec, rule, fmt.Sprintf("操作数 %s 缺失，无法比较", field)))
}

func secondaryLabel(sec secondaryRef, rec *Record) string {
	if sec.event != "" && sec.event != rec.Event {
		return "[" + sec.event + "][" + sec.field.def.Name + "]"
	}
	return sec.field.def.Name
}

func boundText(b *float64) string {
	if b == nil {
		return "-"
	}
	return formatBound(*b)
}
