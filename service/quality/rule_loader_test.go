/*
 * @module service/quality/rule_loader_test
 * @description 规则加载期校验测试：每类配置错误都应被拒绝并给出原因
 * @architecture 测试层
 * @dependencies testing, testify
 * @refs rule_loader.go
 */

package quality

import (
	"errors"
	"testing"

	"dataquality-service/service/quality/expression"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loaderCatalog(t *testing.T) *catalogIndex {
	t.Helper()
	idx, err := buildCatalog(Catalog{
		Events: []string{"baseline", "followup"},
		Fields: []FieldDefinition{
			{Name: "age", Form: "demo", Type: FieldTypeInteger},
			{Name: "weight", Form: "vitals", Type: FieldTypeNumber},
			{Name: "ae_term", Form: "ae", Event: "followup"},
		},
	}, expression.NewCache())
	require.NoError(t, err)
	return idx
}

func TestLoadRulesRejectsInvalid(t *testing.T) {
	testCases := []struct {
		name   string
		rule   Rule
		reason string
	}{
		{name: "缺少ID", rule: Rule{Kind: RuleKindRange, Field: "age", Low: fptr(1)}, reason: "缺少ID"},
		{name: "未知字段", rule: Rule{ID: "r", Kind: RuleKindRange, Field: "height", Low: fptr(1)}, reason: "height"},
		{name: "未知类型", rule: Rule{ID: "r", Kind: "uniqueness", Field: "age"}, reason: "uniqueness"},
		{name: "非法优先级", rule: Rule{ID: "r", Kind: RuleKindRange, Field: "age", Low: fptr(1), Priority: "Urgent"}, reason: "Urgent"},
		{name: "未知主字段事件", rule: Rule{ID: "r", Kind: RuleKindRange, Field: "age", Low: fptr(1), Event1: "week_9"}, reason: "week_9"},
		{name: "比较运算符不支持", rule: Rule{ID: "r", Kind: RuleKindComparison, Field: "age", Operator: "~", Value: 1}, reason: "~"},
		{name: "比较缺少字面量", rule: Rule{ID: "r", Kind: RuleKindComparison, Field: "age", Operator: OpEq}, reason: "比较值"},
		{name: "范围缺少边界", rule: Rule{ID: "r", Kind: RuleKindRange, Field: "age"}, reason: "边界"},
		{name: "范围上下限颠倒", rule: Rule{ID: "r", Kind: RuleKindRange, Field: "age", Low: fptr(10), High: fptr(1)}, reason: "下限"},
		{name: "正则不合法", rule: Rule{ID: "r", Kind: RuleKindRegex, Field: "age", Pattern: "(?<"}, reason: "正则"},
		{name: "正则为空", rule: Rule{ID: "r", Kind: RuleKindRegex, Field: "age"}, reason: "正则"},
		{name: "第二字段缺失", rule: Rule{ID: "r", Kind: RuleKindCrossField, Field: "age", Operator: OpGt}, reason: "第二字段"},
		{name: "第二字段未知", rule: Rule{ID: "r", Kind: RuleKindCrossField, Field: "age", Operator: OpGt, Field2: "bmi"}, reason: "bmi"},
		{name: "第二字段表单不符", rule: Rule{ID: "r", Kind: RuleKindCrossField, Field: "age", Operator: OpGt, Field2: "weight", Form2: "demo"}, reason: "vitals"},
		{name: "第二字段事件未采集", rule: Rule{ID: "r", Kind: RuleKindCrossField, Field: "age", Operator: OpGt, Field2: "ae_term", Event2: "baseline"}, reason: "ae_term"},
		{name: "跨字段运算符不支持", rule: Rule{ID: "r", Kind: RuleKindCrossField, Field: "age", Operator: OpContains, Field2: "weight"}, reason: "contains"},
		{name: "前件语法错误", rule: Rule{ID: "r", Kind: RuleKindCondition, Field: "age", Antecedent: "[age] <", Consequent: "[weight] > 1"}, reason: "前件"},
		{name: "后件引用未知字段", rule: Rule{ID: "r", Kind: RuleKindCondition, Field: "age", Antecedent: "[age] < 18", Consequent: "[guardian] = 1"}, reason: "guardian"},
	}

	idx := loaderCatalog(t)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.rule.Active = true
			compiled, rejected := loadRules(idx, []Rule{tc.rule}, expression.NewCache())
			assert.Empty(t, compiled)
			require.Len(t, rejected, 1)
			assert.Contains(t, rejected[0].Reason, tc.reason)

			_, err := compileRule(idx, tc.rule, expression.NewCache())
			var cfgErr *ConfigurationError
			assert.True(t, errors.As(err, &cfgErr))
		})
	}
}

func TestLoadRulesAcceptsValid(t *testing.T) {
	rules := []Rule{
		{ID: "cmp", Kind: RuleKindComparison, Field: "age", Operator: OpGe, Value: 18, Active: true},
		{ID: "empty", Kind: RuleKindComparison, Field: "age", Operator: OpNotEmpty, Active: true},
		{ID: "rng", Kind: RuleKindRange, Field: "weight", High: fptr(250), Priority: PriorityLow, Active: true},
		{ID: "re", Kind: RuleKindRegex, Field: "age", Value: `^\d+$`, Active: true},
		{ID: "xf", Kind: RuleKindCrossField, Field: "weight", Operator: OpLe, Field2: "weight", Event1: "followup", Event2: "baseline", Active: true},
		{ID: "cond", Kind: RuleKindCondition, Field: "ae_term", Antecedent: "[followup][weight] > 100", Consequent: "[ae_term] <> ''", Active: true},
		{ID: "off", Kind: RuleKindRange, Field: "nope", Active: false},
	}

	compiled, rejected := loadRules(loaderCatalog(t), rules, expression.NewCache())
	assert.Empty(t, rejected)
	require.Len(t, compiled, 6)

	assert.Equal(t, "re", compiled[3].rule.ID)
	assert.False(t, compiled[3].regex.negate)
	assert.Equal(t, "baseline", compiled[4].cross.secondary.event)
	assert.Equal(t, Priority(""), compiled[0].priority)
}

func TestLoadRulesNormalizesPriority(t *testing.T) {
	testCases := []struct {
		name     string
		priority Priority
		expected Priority
	}{
		{"英文", "High", PriorityHigh},
		{"小写", "medium", PriorityMedium},
		{"葡萄牙语高", "Alta", PriorityHigh},
		{"葡萄牙语中", "Média", PriorityMedium},
		{"葡萄牙语低", "baixa", PriorityLow},
		{"未声明", "", ""},
	}

	idx := loaderCatalog(t)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rule := Rule{ID: "r", Kind: RuleKindRange, Field: "age", Low: fptr(1), Priority: tc.priority, Active: true}
			compiled, rejected := loadRules(idx, []Rule{rule}, expression.NewCache())
			assert.Empty(t, rejected)
			require.Len(t, compiled, 1)
			assert.Equal(t, tc.expected, compiled[0].priority)
		})
	}
}
