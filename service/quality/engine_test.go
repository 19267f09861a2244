/*
 * @module service/quality/engine_test
 * @description 分析引擎端到端测试：幂等性、并发确定性、各规则类型的典型场景、去重、规则拒绝、取消与致命错误
 * @architecture 测试层 - 纯内存输入，无外部依赖
 * @stateFlow 构造目录/记录/规则 -> Analyze -> 验证报告
 * @dependencies testing, testify
 * @refs engine.go
 */

package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"dataquality-service/service/quality/expression"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func runAnalyze(t *testing.T, in Input, cfg Config) *QualityReport {
	t.Helper()
	report, err := NewEngine().Analyze(context.Background(), in, cfg)
	require.NoError(t, err)
	require.NotNil(t, report)
	return report
}

func issuesOfKind(report *QualityReport, kind IssueKind) []Issue {
	var out []Issue
	for _, issue := range report.Issues {
		if issue.Kind == kind {
			out = append(out, issue)
		}
	}
	return out
}

// sampleInput 覆盖结构性检查与五种规则类型的综合输入
func sampleInput() Input {
	catalog := Catalog{Fields: []FieldDefinition{
		{Name: "age", Form: "demographics", Type: FieldTypeInteger, Required: true, Min: fptr(0), Max: fptr(120)},
		{Name: "sex", Form: "demographics", Type: FieldTypeCategorical, Choices: []Choice{{Code: "1"}, {Code: "2"}}},
		{Name: "pregnant", Form: "demographics", Type: FieldTypeCategorical, Required: true, Applicability: "[sex] = '2'",
			Choices: []Choice{{Code: "0"}, {Code: "1"}}},
		{Name: "temperature", Form: "vitals", Type: FieldTypeNumber},
		{Name: "email", Form: "contact", Type: FieldTypeText},
		{Name: "systolic", Form: "vitals", Type: FieldTypeNumber},
		{Name: "diastolic", Form: "vitals", Type: FieldTypeNumber},
		{Name: "consent_minor_form", Form: "consent", Type: FieldTypeText},
	}}

	records := make([]Record, 0, 40)
	for i := 0; i < 40; i++ {
		values := map[string]interface{}{
			"age":                fmt.Sprintf("%d", 20+i%50),
			"sex":                "1",
			"temperature":        37.0,
			"email":              fmt.Sprintf("p%d@site.org", i),
			"systolic":           120,
			"diastolic":          80,
			"consent_minor_form": "not_applicable",
		}
		switch i % 7 {
		case 1:
			values["temperature"] = "41.5"
		case 2:
			values["email"] = "not-an-email"
		case 3:
			values["pregnant"] = "1"
		case 4:
			values["age"] = "abc"
		case 5:
			values["diastolic"] = 130
		case 6:
			values["age"] = "15"
			values["consent_minor_form"] = "signed"
		}
		records = append(records, Record{Subject: fmt.Sprintf("S%03d", i), Event: "baseline", Values: values})
	}

	rules := []Rule{
		{ID: "r-temp", Kind: RuleKindRange, Field: "temperature", Low: fptr(36), High: fptr(40), Priority: PriorityHigh, Active: true},
		{ID: "r-email", Kind: RuleKindRegex, Field: "email", Pattern: `^[^@]+@[^@]+\.[^@]+$`, Priority: PriorityLow, Active: true},
		{ID: "r-bp", Kind: RuleKindCrossField, Field: "systolic", Operator: OpGt, Field2: "diastolic", Priority: PriorityMedium, Active: true},
		{ID: "r-minor", Kind: RuleKindCondition, Field: "consent_minor_form", Antecedent: "[age] < 18",
			Consequent: "[consent_minor_form] = 'not_applicable'", Priority: PriorityHigh, Active: true},
		{ID: "r-age", Kind: RuleKindComparison, Field: "age", Operator: OpLe, Value: 65, Priority: PriorityLow, Active: true},
	}
	return Input{Catalog: catalog, Records: records, Rules: rules}
}

func stripElapsed(t *testing.T, r *QualityReport) []byte {
	t.Helper()
	clone := *r
	clone.Elapsed = 0
	data, err := json.Marshal(clone)
	require.NoError(t, err)
	return data
}

func TestAnalyzeIdempotent(t *testing.T) {
	in := sampleInput()
	first := runAnalyze(t, in, Config{})
	second := runAnalyze(t, in, Config{})

	assert.NotEmpty(t, first.Issues)
	assert.Equal(t, string(stripElapsed(t, first)), string(stripElapsed(t, second)))
}

func TestAnalyzeDeterministicAcrossConcurrency(t *testing.T) {
	in := sampleInput()
	baseline := stripElapsed(t, runAnalyze(t, in, Config{MaxConcurrency: 1}))

	for _, workers := range []int{2, 3, 8, 64} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			report := runAnalyze(t, in, Config{MaxConcurrency: workers})
			assert.True(t, report.Complete)
			assert.Equal(t, string(baseline), string(stripElapsed(t, report)))
		})
	}
}

func TestMissingRequiredOnlyWhenRequiredAndApplicable(t *testing.T) {
	in := sampleInput()
	// 部分记录清空必填字段，部分记录让分支逻辑成立
	for i := range in.Records {
		if i%3 == 0 {
			delete(in.Records[i].Values, "age")
		}
		if i%4 == 0 {
			in.Records[i].Values["sex"] = "2"
			delete(in.Records[i].Values, "pregnant")
		}
	}
	report := runAnalyze(t, in, Config{})

	defs := make(map[string]FieldDefinition)
	for _, f := range in.Catalog.Fields {
		defs[f.Name] = f
	}
	records := make(map[string]Record)
	for _, rec := range in.Records {
		records[rec.Subject] = rec
	}

	missing := issuesOfKind(report, IssueMissingRequired)
	require.NotEmpty(t, missing)
	for _, issue := range missing {
		def := defs[issue.Field]
		assert.True(t, def.Required, "字段 %s 不是必填", issue.Field)
		if def.Applicability != "" {
			expr, err := expression.Parse(def.Applicability)
			require.NoError(t, err)
			assert.Equal(t, expression.True, expr.Eval(expression.MapResolver(records[issue.Subject].Values)))
		}
	}
}

func TestRangeRule(t *testing.T) {
	catalog := Catalog{Fields: []FieldDefinition{{Name: "temperature", Form: "vitals", Type: FieldTypeNumber}}}

	testCases := []struct {
		name     string
		value    interface{}
		priority Priority
		expected Priority // 为空表示不应产生问题
	}{
		{name: "超出上限使用声明优先级", value: 41.5, priority: PriorityHigh, expected: PriorityHigh},
		{name: "区间内无问题", value: 38.0, priority: PriorityHigh},
		{name: "边界值包含在内", value: "40", priority: PriorityHigh},
		// 越界 1.5 未超过 1.5×区间跨度 4，未声明优先级时为 Medium
		{name: "未声明优先级轻微越界", value: 41.5, expected: PriorityMedium},
		{name: "未声明优先级严重越界", value: 47, expected: PriorityHigh},
		{name: "未声明优先级低于下限", value: "29", expected: PriorityHigh},
		{name: "空值跳过", value: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			report := runAnalyze(t, Input{
				Catalog: catalog,
				Records: []Record{{Subject: "S1", Event: "e", Values: map[string]interface{}{"temperature": tc.value}}},
				Rules: []Rule{{ID: "r1", Kind: RuleKindRange, Field: "temperature", Low: fptr(36), High: fptr(40),
					Priority: tc.priority, Active: true}},
			}, Config{})

			if tc.expected == "" {
				assert.Empty(t, report.Issues)
				return
			}
			require.Len(t, report.Issues, 1)
			assert.Equal(t, IssueRangeViolation, report.Issues[0].Kind)
			assert.Equal(t, tc.expected, report.Issues[0].Priority)
			assert.Equal(t, []string{"r1"}, report.Issues[0].RuleIDs)
		})
	}
}

func TestRangeRuleNonNumericValueWarns(t *testing.T) {
	report := runAnalyze(t, Input{
		Catalog: Catalog{Fields: []FieldDefinition{{Name: "temperature", Type: FieldTypeText}}},
		Records: []Record{{Subject: "S1", Values: map[string]interface{}{"temperature": "febril"}}},
		Rules:   []Rule{{ID: "r1", Kind: RuleKindRange, Field: "temperature", Low: fptr(36), High: fptr(40), Active: true}},
	}, Config{})

	assert.Empty(t, report.Issues)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "r1", report.Warnings[0].RuleID)
}

func TestCrossFieldRule(t *testing.T) {
	catalog := Catalog{Fields: []FieldDefinition{
		{Name: "field", Form: "a", Type: FieldTypeNumber},
		{Name: "field2", Form: "b", Type: FieldTypeNumber},
	}}
	records := []Record{{Subject: "S1", Event: "e", Values: map[string]interface{}{"field": 10, "field2": 5}}}

	testCases := []struct {
		name     string
		operator string
		expected int
	}{
		{name: "大于成立", operator: OpGt, expected: 0},
		{name: "小于不成立", operator: OpLt, expected: 1},
		{name: "不等于成立", operator: OpNe, expected: 0},
		{name: "等于不成立", operator: OpEq, expected: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			report := runAnalyze(t, Input{
				Catalog: catalog,
				Records: records,
				Rules:   []Rule{{ID: "x", Kind: RuleKindCrossField, Field: "field", Operator: tc.operator, Field2: "field2", Form2: "b", Active: true}},
			}, Config{})

			require.Len(t, report.Issues, tc.expected)
			if tc.expected > 0 {
				assert.Equal(t, IssueCrossField, report.Issues[0].Kind)
				assert.Equal(t, "field", report.Issues[0].Field)
			}
		})
	}
}

func TestCrossEventRule(t *testing.T) {
	in := Input{
		Catalog: Catalog{
			Events: []string{"baseline", "followup"},
			Fields: []FieldDefinition{{Name: "visit_date", Form: "visit", Type: FieldTypeDate}},
		},
		Records: []Record{
			{Subject: "S1", Event: "baseline", Values: map[string]interface{}{"visit_date": "2024-01-10"}},
			{Subject: "S1", Event: "followup", Values: map[string]interface{}{"visit_date": "2024-01-05"}},
			{Subject: "S2", Event: "baseline", Values: map[string]interface{}{"visit_date": "2024-01-10"}},
			{Subject: "S2", Event: "followup", Values: map[string]interface{}{"visit_date": "2024-02-10"}},
			{Subject: "S3", Event: "followup", Values: map[string]interface{}{"visit_date": "2024-02-10"}},
		},
		Rules: []Rule{{ID: "order", Kind: RuleKindCrossField, Field: "visit_date", Event1: "followup", Operator: OpGt,
			Field2: "visit_date", Event2: "baseline", Priority: PriorityHigh, Active: true}},
	}
	report := runAnalyze(t, in, Config{})

	require.Len(t, report.Issues, 1)
	issue := report.Issues[0]
	assert.Equal(t, "S1", issue.Subject)
	assert.Equal(t, "followup", issue.Event)
	assert.Equal(t, PriorityHigh, issue.Priority)

	// S3 缺少基线记录，只产生警告
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "S3", report.Warnings[0].Subject)
	assert.Equal(t, 3, report.TotalSubjects)
}

func TestRegexRule(t *testing.T) {
	testCases := []struct {
		name     string
		value    string
		operator string
		expected int
	}{
		{name: "非法邮箱", value: "not-an-email", expected: 1},
		{name: "合法邮箱", value: "a@b.com", expected: 0},
		{name: "not_matches 命中", value: "a@b.com", operator: OpNotMatches, expected: 1},
		{name: "not_matches 未命中", value: "not-an-email", operator: OpNotMatches, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			report := runAnalyze(t, Input{
				Catalog: Catalog{Fields: []FieldDefinition{{Name: "email", Type: FieldTypeText}}},
				Records: []Record{{Subject: "S1", Values: map[string]interface{}{"email": tc.value}}},
				Rules: []Rule{{ID: "mail", Kind: RuleKindRegex, Field: "email", Operator: tc.operator,
					Pattern: `^[^@]+@[^@]+\.[^@]+$`, Active: true}},
			}, Config{})

			require.Len(t, report.Issues, tc.expected)
			if tc.expected > 0 {
				assert.Equal(t, IssueRegex, report.Issues[0].Kind)
			}
		})
	}
}

func TestComparisonRule(t *testing.T) {
	testCases := []struct {
		name     string
		value    interface{}
		operator string
		literal  interface{}
		issues   int
		warnings int
	}{
		{name: "数值比较成立", value: "15", operator: OpLt, literal: 18},
		{name: "数值比较不成立", value: "25", operator: OpLt, literal: 18, issues: 1},
		{name: "日期比较", value: "2024-05-01", operator: OpGe, literal: "2024-01-01"},
		{name: "字符串相等", value: "yes", operator: OpEq, literal: "yes"},
		{name: "字符串不等", value: "no", operator: OpEq, literal: "yes", issues: 1},
		{name: "字符串无法比较大小", value: "abc", operator: OpGt, literal: "abd", warnings: 1},
		{name: "缺失值产生警告", value: nil, operator: OpEq, literal: "yes", warnings: 1},
		{name: "not_empty 缺失值", value: nil, operator: OpNotEmpty, issues: 1},
		{name: "empty 成立", value: " ", operator: OpEmpty},
		{name: "contains 成立", value: "headache, fever", operator: OpContains, literal: "fever"},
		{name: "contains 不成立", value: "headache", operator: OpContains, literal: "fever", issues: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			values := map[string]interface{}{}
			if tc.value != nil {
				values["f"] = tc.value
			}
			report := runAnalyze(t, Input{
				Catalog: Catalog{Fields: []FieldDefinition{{Name: "f", Type: FieldTypeText}}},
				Records: []Record{{Subject: "S1", Values: values}},
				Rules:   []Rule{{ID: "c", Kind: RuleKindComparison, Field: "f", Operator: tc.operator, Value: tc.literal, Active: true}},
			}, Config{})

			assert.Len(t, issuesOfKind(report, IssueComparison), tc.issues)
			assert.Len(t, report.Warnings, tc.warnings)
		})
	}
}

func TestDeduplicationTakesMaxPriority(t *testing.T) {
	report := runAnalyze(t, Input{
		Catalog: Catalog{Events: []string{"E1"}, Fields: []FieldDefinition{{Name: "F1", Type: FieldTypeText}}},
		Records: []Record{{Subject: "S1", Event: "E1", Values: map[string]interface{}{"F1": "x"}}},
		Rules: []Rule{
			{ID: "a", Kind: RuleKindComparison, Field: "F1", Operator: OpNe, Value: "x", Priority: PriorityMedium, Message: "不应为 x", Active: true},
			{ID: "b", Kind: RuleKindComparison, Field: "F1", Operator: OpContains, Value: "y", Priority: PriorityHigh, Message: "应包含 y", Active: true},
		},
	}, Config{})

	require.Len(t, report.Issues, 1)
	issue := report.Issues[0]
	assert.Equal(t, PriorityHigh, issue.Priority)
	assert.Equal(t, "不应为 x; 应包含 y", issue.Description)
	assert.ElementsMatch(t, []string{"a", "b"}, issue.RuleIDs)
	assert.Equal(t, PriorityCounts{High: 1}, report.Counts)
}

func TestInvalidRuleRejectedOthersRun(t *testing.T) {
	report := runAnalyze(t, Input{
		Catalog: Catalog{Fields: []FieldDefinition{{Name: "email", Type: FieldTypeText}}},
		Records: []Record{{Subject: "S1", Values: map[string]interface{}{"email": "bad", "ghost": "1"}}},
		Rules: []Rule{
			{ID: "unknown", Kind: RuleKindComparison, Field: "ghost", Operator: OpEq, Value: "2", Active: true},
			{ID: "bad-regex", Kind: RuleKindRegex, Field: "email", Pattern: "([", Active: true},
			{ID: "mail", Kind: RuleKindRegex, Field: "email", Pattern: `^[^@]+@[^@]+\.[^@]+$`, Active: true},
		},
	}, Config{})

	require.Len(t, report.Rejected, 2)
	assert.Equal(t, "unknown", report.Rejected[0].RuleID)
	assert.Contains(t, report.Rejected[0].Reason, "ghost")
	assert.Equal(t, "bad-regex", report.Rejected[1].RuleID)

	require.Len(t, report.Issues, 1)
	assert.Equal(t, []string{"mail"}, report.Issues[0].RuleIDs)
}

func TestConditionRuleScenario(t *testing.T) {
	catalog := Catalog{Fields: []FieldDefinition{
		{Name: "age", Form: "demographics", Type: FieldTypeInteger},
		{Name: "consent_minor_form", Form: "consent", Type: FieldTypeText},
	}}
	records := make([]Record, 100)
	for i := range records {
		values := map[string]interface{}{"age": 30, "consent_minor_form": "signed"}
		switch i {
		case 0:
			values = map[string]interface{}{"age": 15, "consent_minor_form": "signed"}
		case 1:
			values = map[string]interface{}{"age": 15, "consent_minor_form": "not_applicable"}
		}
		records[i] = Record{Subject: fmt.Sprintf("S%03d", i), Event: "baseline", Values: values}
	}
	rule := Rule{ID: "minor", Kind: RuleKindCondition, Field: "consent_minor_form",
		Antecedent: "[age] < 18", Consequent: "[consent_minor_form] = 'not_applicable'",
		Priority: PriorityLow, Active: true}

	report := runAnalyze(t, Input{Catalog: catalog, Records: records, Rules: []Rule{rule}}, Config{MaxConcurrency: 4})

	require.Len(t, report.Issues, 1)
	issue := report.Issues[0]
	assert.Equal(t, "S000", issue.Subject)
	assert.Equal(t, IssueConditionViolation, issue.Kind)
	assert.Equal(t, PriorityLow, issue.Priority)
	assert.Equal(t, "signed", issue.Value)
	assert.Equal(t, 100, report.TotalRecords)
	assert.True(t, report.Complete)
}

func TestConditionIndeterminateAntecedentWarns(t *testing.T) {
	report := runAnalyze(t, Input{
		Catalog: Catalog{Fields: []FieldDefinition{{Name: "age"}, {Name: "consent"}}},
		Records: []Record{{Subject: "S1", Values: map[string]interface{}{"consent": "signed"}}},
		Rules: []Rule{{ID: "minor", Kind: RuleKindCondition, Field: "consent",
			Antecedent: "[age] < 18", Consequent: "[consent] = 'na'", Active: true}},
	}, Config{})

	assert.Empty(t, report.Issues)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "minor", report.Warnings[0].RuleID)
}

func TestBlankOrNonNumericOperandNotOrdered(t *testing.T) {
	catalog := Catalog{Fields: []FieldDefinition{
		{Name: "age", Form: "demographics", Type: FieldTypeText},
		{Name: "consent_minor_form", Form: "consent", Type: FieldTypeText},
		{Name: "guardian", Form: "consent", Type: FieldTypeText, Required: true, Applicability: "[age] < 18"},
	}}
	rule := Rule{ID: "minor", Kind: RuleKindCondition, Field: "consent_minor_form",
		Antecedent: "[age] < 18", Consequent: "[consent_minor_form] = 'not_applicable'",
		Priority: PriorityHigh, Active: true}

	testCases := []struct {
		name string
		age  interface{}
	}{
		{"年龄为空串", ""},
		{"年龄为空白", "   "},
		{"年龄为nil", nil},
		{"年龄非数值", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			report := runAnalyze(t, Input{
				Catalog: catalog,
				Records: []Record{{Subject: "S1", Values: map[string]interface{}{
					"age": tc.age, "consent_minor_form": "signed", "guardian": "",
				}}},
				Rules: []Rule{rule},
			}, Config{})

			assert.Empty(t, report.Issues)
			require.Len(t, report.Warnings, 2)
			var ruleWarned, branchWarned bool
			for _, w := range report.Warnings {
				ruleWarned = ruleWarned || w.RuleID == "minor"
				branchWarned = branchWarned || (w.RuleID == "" && w.Field == "guardian")
			}
			assert.True(t, ruleWarned, "条件规则前件无法判断时应产生警告")
			assert.True(t, branchWarned, "分支逻辑无法判断时应产生警告")
		})
	}
}

func TestInactiveRulesSkipped(t *testing.T) {
	report := runAnalyze(t, Input{
		Catalog: Catalog{Fields: []FieldDefinition{{Name: "f"}}},
		Records: []Record{{Subject: "S1", Values: map[string]interface{}{"f": "x"}}},
		Rules:   []Rule{{ID: "off", Kind: RuleKindComparison, Field: "f", Operator: OpEq, Value: "y"}},
	}, Config{})

	assert.Empty(t, report.Issues)
	assert.Empty(t, report.Rejected)
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewEngine().Analyze(ctx, sampleInput(), Config{MaxConcurrency: 4})
	require.NoError(t, err)
	assert.False(t, report.Complete)
	assert.Equal(t, 0, report.TotalRecords)
	assert.NotNil(t, report.Issues)
	assert.Empty(t, report.Issues)
}

func TestAnalyzeFatalErrors(t *testing.T) {
	testCases := []struct {
		name     string
		input    Input
		expected error
	}{
		{
			name:     "空目录",
			input:    Input{Records: []Record{{Subject: "S1"}}},
			expected: ErrEmptyCatalog,
		},
		{
			name:     "重复字段",
			input:    Input{Catalog: Catalog{Fields: []FieldDefinition{{Name: "a"}, {Name: "a"}}}},
			expected: ErrDuplicateField,
		},
		{
			name:     "分支逻辑语法错误",
			input:    Input{Catalog: Catalog{Fields: []FieldDefinition{{Name: "a", Applicability: "[b] ="}}}},
			expected: ErrInvalidApplicability,
		},
		{
			name:     "分支逻辑引用未知字段",
			input:    Input{Catalog: Catalog{Fields: []FieldDefinition{{Name: "a", Applicability: "[zzz] = 1"}}}},
			expected: ErrInvalidApplicability,
		},
		{
			name:     "记录引用未知事件",
			input: Input{
				Catalog: Catalog{Events: []string{"baseline"}, Fields: []FieldDefinition{{Name: "a"}}},
				Records: []Record{{Subject: "S1", Event: "week_52"}},
			},
			expected: ErrUnknownEvent,
		},
		{
			name:     "记录缺少受试者",
			input: Input{
				Catalog: Catalog{Fields: []FieldDefinition{{Name: "a"}}},
				Records: []Record{{Subject: " "}},
			},
			expected: ErrInvalidRecord,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			report, err := NewEngine().Analyze(context.Background(), tc.input, Config{})
			assert.Nil(t, report)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestAnalyzeEmptyRecords(t *testing.T) {
	report := runAnalyze(t, Input{Catalog: Catalog{Fields: []FieldDefinition{{Name: "a", Required: true}}}}, Config{})

	assert.True(t, report.Complete)
	assert.Equal(t, 0, report.TotalRecords)
	assert.Empty(t, report.Issues)
}
