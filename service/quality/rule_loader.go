/*
 * @module service/quality/rule_loader
 * @description 规则加载与校验：将用户规则编译为封闭的规则变体，拒绝配置错误的规则
 * @architecture 分层架构 - 领域服务层
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 规则列表 -> 逐条校验 -> 已编译规则 + 被拒绝规则列表
 * @rules 未知字段、非法正则、非法表达式、缺少边界或字面量的规则在加载期拒绝，其余规则照常执行
 * @dependencies regexp, dataquality-service/service/quality/expression
 * @refs rule_engine.go, cross_form.go
 */

package quality

import (
	"fmt"
	"regexp"
	"strings"

	"dataquality-service/service/quality/expression"
)

// compiledRule 已通过校验的规则。kind 决定哪个变体字段有效
type compiledRule struct {
	rule     Rule
	kind     RuleKind
	priority Priority
	target   *compiledField

	comparison comparisonSpec
	bounds     rangeSpec
	regex      regexSpec
	cross      crossSpec
	condition  conditionSpec
}

type comparisonSpec struct {
	operator string
	literal  interface{}
}

type rangeSpec struct {
	low, high *float64
}

type regexSpec struct {
	pattern *regexp.Regexp
	negate  bool
}

type crossSpec struct {
	operator  string
	secondary secondaryRef
}

type conditionSpec struct {
	antecedent *expression.Expression
	consequent *expression.Expression
}

var comparisonOperators = map[string]bool{
	OpEq: true, OpNe: true, OpLt: true, OpGt: true, OpLe: true, OpGe: true,
	OpEmpty: true, OpNotEmpty: true, OpContains: true,
}

var crossFieldOperators = map[string]bool{
	OpEq: true, OpNe: true, OpLt: true, OpGt: true, OpLe: true, OpGe: true,
}

// loadRules 校验并编译规则；未激活的规则直接跳过
func loadRules(c *catalogIndex, rules []Rule, cache *expression.Cache) ([]*compiledRule, []RejectedRule) {
	var (
		compiled []*compiledRule
		rejected []RejectedRule
	)
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		cr, err := compileRule(c, rule, cache)
		if err != nil {
			rejected = append(rejected, RejectedRule{RuleID: rule.ID, Name: rule.Name, Reason: err.Error()})
			continue
		}
		compiled = append(compiled, cr)
	}
	return compiled, rejected
}

func compileRule(c *catalogIndex, rule Rule, cache *expression.Cache) (*compiledRule, error) {
	reject := func(reason string, err error) error {
		return &ConfigurationError{RuleID: rule.ID, Field: rule.Field, Reason: reason, Err: err}
	}

	if strings.TrimSpace(rule.ID) == "" {
		return nil, reject("规则缺少ID", nil)
	}
	target, ok := c.field(rule.Field)
	if !ok {
		return nil, reject(fmt.Sprintf("字段 %q 不在字段目录中", rule.Field), nil)
	}
	var priority Priority
	if rule.Priority != "" {
		p, err := ParsePriority(string(rule.Priority))
		if err != nil {
			return nil, reject(fmt.Sprintf("优先级 %q 不合法", rule.Priority), err)
		}
		priority = p
	}
	if rule.Event1 != "" {
		if !c.longitudinal() || !c.events[rule.Event1] {
			return nil, reject(fmt.Sprintf("主字段事件 %q 不在事件列表中", rule.Event1), nil)
		}
	}

	cr := &compiledRule{rule: rule, kind: rule.Kind, priority: priority, target: target}
	op := strings.TrimSpace(rule.Operator)

	switch rule.Kind {
	case RuleKindComparison:
		if !comparisonOperators[op] {
			return nil, reject(fmt.Sprintf("比较运算符 %q 不支持", rule.Operator), nil)
		}
		if op != OpEmpty && op != OpNotEmpty && expression.IsBlank(rule.Value) {
			return nil, reject("比较规则缺少比较值", nil)
		}
		cr.comparison = comparisonSpec{operator: op, literal: rule.Value}

	case RuleKindRange:
		if rule.Low == nil && rule.High == nil {
			return nil, reject("范围规则至少需要一个边界", nil)
		}
		if rule.Low != nil && rule.High != nil && *rule.Low > *rule.High {
			return nil, reject("范围规则下限大于上限", nil)
		}
		cr.bounds = rangeSpec{low: rule.Low, high: rule.High}

	case RuleKindRegex:
		if op == "" {
			op = OpMatches
		}
		if op != OpMatches && op != OpNotMatches {
			return nil, reject(fmt.Sprintf("正则运算符 %q 不支持", rule.Operator), nil)
		}
		pattern := rule.Pattern
		if pattern == "" {
			if s, ok := rule.Value.(string); ok {
				pattern = s
			}
		}
		if pattern == "" {
			return nil, reject("正则规则缺少表达式", nil)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, reject("正则表达式不合法", err)
		}
		cr.regex = regexSpec{pattern: re, negate: op == OpNotMatches}

	case RuleKindCrossField:
		if !crossFieldOperators[op] {
			return nil, reject(fmt.Sprintf("跨字段运算符 %q 不支持", rule.Operator), nil)
		}
		if rule.Field2 == "" {
			return nil, reject("跨字段规则缺少第二字段", nil)
		}
		secondary, err := resolveSecondary(c, rule)
		if err != nil {
			return nil, reject("第二字段无法解析", err)
		}
		cr.cross = crossSpec{operator: op, secondary: secondary}

	case RuleKindCondition:
		antecedent, err := compileExpression(c, cache, rule.Antecedent)
		if err != nil {
			return nil, reject("前件表达式不合法", err)
		}
		consequent, err := compileExpression(c, cache, rule.Consequent)
		if err != nil {
			return nil, reject("后件表达式不合法", err)
		}
		cr.condition = conditionSpec{antecedent: antecedent, consequent: consequent}

	default:
		return nil, reject(fmt.Sprintf("规则类型 %q 未知", rule.Kind), nil)
	}

	return cr, nil
}

func compileExpression(c *catalogIndex, cache *expression.Cache, src string) (*expression.Expression, error) {
	expr, err := cache.Parse(src)
	if err != nil {
		return nil, err
	}
	if err := c.checkRefs(expr); err != nil {
		return nil, err
	}
	return expr, nil
}
