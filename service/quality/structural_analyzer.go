/*
 * @module service/quality/structural_analyzer
 * @description 结构性分析器：必填字段缺失、分支逻辑违规、类型不匹配、数值范围越界
 * @architecture 策略模式 - 内置检查
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow (记录, 字段定义) -> 分支逻辑求值 -> 必填/分支检查 -> 类型转换 -> 范围检查
 * @rules 分支逻辑不确定时同时抑制必填与分支违规并记录求值警告
 * @dependencies dataquality-service/service/quality/expression
 * @refs catalog.go, query_builder.go
 */

package quality

import (
	"fmt"
	"strconv"

	"dataquality-service/service/quality/expression"
)

// structuralAnalyzer 结构性分析器
type structuralAnalyzer struct {
	catalog    *catalogIndex
	classifier *priorityClassifier
}

// analyze 对单条记录执行全部结构性检查
func (a *structuralAnalyzer) analyze(scope recordScope, out *collector) {
	rec := scope.rec
	for _, field := range a.catalog.fields {
		if !field.appliesToEvent(rec.Event) {
			continue
		}

		def := &field.def
		raw := rec.Values[def.Name]
		hasValue := !expression.IsBlank(raw)

		applicable := expression.True
		if field.applicability != nil {
			applicable = field.applicability.Eval(scope)
		}

		switch applicable {
		case expression.Indeterminate:
			out.warn(EvaluationWarning{
				Subject: rec.Subject,
				Event:   rec.Event,
				Field:   def.Name,
				Reason:  fmt.Sprintf("分支逻辑依赖的字段缺失或无法比较，无法判断: %s", field.applicability.Source()),
			})
		case expression.True:
			if def.Required && !hasValue {
				out.add(a.issue(rec, field, IssueMissingRequired, raw,
					a.classifier.structural(IssueMissingRequired, def.Name),
					fmt.Sprintf("字段 '%s' 为必填项但未填写", def.DisplayName())))
			}
		case expression.False:
			if hasValue {
				out.add(a.issue(rec, field, IssueBranchingLogic, raw,
					a.classifier.structural(IssueBranchingLogic, def.Name),
					fmt.Sprintf("字段 '%s' 已填写，但按分支逻辑不应出现: %s", def.DisplayName(), field.applicability.Source())))
			}
		}

		if !hasValue {
			continue
		}

		value, err := coerceValue(field, raw)
		if err != nil {
			out.add(a.issue(rec, field, IssueTypeMismatch, raw,
				a.classifier.structural(IssueTypeMismatch, def.Name),
				fmt.Sprintf("字段 '%s' 的值与声明类型 %s 不符: %v", def.DisplayName(), def.Type, err)))
			continue
		}

		if value.isNumber && def.Type.numeric() {
			a.checkBounds(rec, field, raw, value.number, out)
		}
	}
}

func (a *structuralAnalyzer) checkBounds(rec *Record, field *compiledField, raw interface{}, n float64, out *collector) {
	def := &field.def
	var violation string
	switch {
	case def.Min != nil && n < *def.Min:
		violation = fmt.Sprintf("小于允许的最小值 %s", formatBound(*def.Min))
	case def.Max != nil && n > *def.Max:
		violation = fmt.Sprintf("大于允许的最大值 %s", formatBound(*def.Max))
	default:
		return
	}

	out.add(a.issue(rec, field, IssueRangeViolation, raw,
		a.classifier.structuralRange(n, def.Min, def.Max),
		fmt.Sprintf("字段 '%s' 的值 %s %s", def.DisplayName(), expression.ToText(raw), violation)))
}

func (a *structuralAnalyzer) issue(rec *Record, field *compiledField, kind IssueKind, raw interface{}, p Priority, desc string) Issue {
	return Issue{
		Subject:     rec.Subject,
		Event:       rec.Event,
		Form:        field.def.Form,
		Field:       field.def.Name,
		Priority:    p,
		Kind:        kind,
		Description: desc,
		Value:       raw,
	}
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
