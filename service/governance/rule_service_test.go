/*
 * @module service/governance/rule_service_test
 * @description 规则管理服务测试：增删改查、软删除、可见范围过滤
 * @architecture 测试层 - 内存 SQLite
 * @dependencies testing, testify, gorm, sqlite
 * @refs rule_service.go
 */

package governance

import (
	"testing"

	"dataquality-service/service/models"
	"dataquality-service/service/quality"
	"dataquality-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleServiceCRUD(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	svc := NewRuleService(tdb.DB)

	rule := &models.QualityRuleDefinition{
		Name:     "邮箱格式",
		Kind:     string(quality.RuleKindRegex),
		Field:    "email",
		Pattern:  `^[^@]+@[^@]+\.[^@]+$`,
		Priority: "alta",
	}
	require.NoError(t, svc.CreateRule(rule))
	require.NotEmpty(t, rule.ID)
	assert.Equal(t, "High", rule.Priority, "优先级应规范化")
	assert.Equal(t, "global", rule.Scope)
	assert.True(t, rule.Active())

	got, err := svc.GetRule(rule.ID)
	require.NoError(t, err)
	assert.Equal(t, rule.Pattern, got.Pattern)

	inactive := false
	updated, err := svc.UpdateRule(rule.ID, &models.QualityRuleDefinition{
		Name:     "邮箱格式(停用)",
		Kind:     string(quality.RuleKindRegex),
		Field:    "email",
		Pattern:  `@`,
		Priority: "Low",
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "邮箱格式(停用)", updated.Name)
	assert.Equal(t, "Low", updated.Priority)
	assert.False(t, updated.Active())

	require.NoError(t, svc.DeleteRule(rule.ID))
	_, err = svc.GetRule(rule.ID)
	assert.ErrorIs(t, err, ErrRuleNotFound)
	assert.ErrorIs(t, svc.DeleteRule(rule.ID), ErrRuleNotFound)

	// 软删除：记录仍在表中
	var count int64
	tdb.DB.Unscoped().Model(&models.QualityRuleDefinition{}).Where("id = ?", rule.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRuleServiceValidation(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	svc := NewRuleService(tdb.DB)

	testCases := []struct {
		name string
		rule models.QualityRuleDefinition
	}{
		{name: "缺少名称", rule: models.QualityRuleDefinition{Kind: "range", Field: "x"}},
		{name: "缺少字段", rule: models.QualityRuleDefinition{Name: "r", Kind: "range"}},
		{name: "未知类型", rule: models.QualityRuleDefinition{Name: "r", Kind: "uniqueness", Field: "x"}},
		{name: "未知优先级", rule: models.QualityRuleDefinition{Name: "r", Kind: "range", Field: "x", Priority: "Urgent"}},
		{name: "私有规则缺少所有者", rule: models.QualityRuleDefinition{Name: "r", Kind: "range", Field: "x", Scope: "owner"}},
		{name: "未知范围", rule: models.QualityRuleDefinition{Name: "r", Kind: "range", Field: "x", Scope: "team"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rule := tc.rule
			assert.ErrorIs(t, svc.CreateRule(&rule), ErrInvalidRule)
		})
	}

	_, err := svc.UpdateRule("00000000-0000-0000-0000-000000000000", &models.QualityRuleDefinition{Name: "r", Kind: "range", Field: "x"})
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestGetVisibleRules(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	svc := NewRuleService(tdb.DB)
	factory := testutil.NewTestDataFactory(tdb.DB)

	global := factory.CreateRule()
	mine := factory.CreateRule(testutil.WithOwner("alice"))
	factory.CreateRule(testutil.WithOwner("bob"))
	factory.CreateRule(testutil.WithInactive())
	deleted := factory.CreateRule()
	require.NoError(t, svc.DeleteRule(deleted.ID))

	ids := func(rules []quality.Rule) []string {
		out := make([]string, 0, len(rules))
		for _, r := range rules {
			out = append(out, r.ID)
		}
		return out
	}

	rules, err := svc.GetVisibleRules("alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{global.ID, mine.ID}, ids(rules))
	for _, r := range rules {
		assert.True(t, r.Active)
		assert.Equal(t, quality.RuleKindRange, r.Kind)
		require.NotNil(t, r.Low)
		assert.Equal(t, 36.0, *r.Low)
	}

	rules, err = svc.GetVisibleRules("")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{global.ID}, ids(rules))

	listed, total, err := svc.ListRules("alice", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "全局(含停用) + 自己的规则")
	assert.Len(t, listed, 3)
}

func TestToQualityRuleKeepsLiteral(t *testing.T) {
	m := &models.QualityRuleDefinition{
		ID:       "r1",
		Kind:     "comparison",
		Field:    "age",
		Operator: ">=",
		Value:    models.JSONValue{V: 18.0},
		Priority: "Medium",
	}
	r := ToQualityRule(m)
	assert.Equal(t, 18.0, r.Value)
	assert.Equal(t, quality.PriorityMedium, r.Priority)
	assert.True(t, r.Active, "未设置启用状态视为启用")
}
