/*
 * @module service/governance/rule_service
 * @description 自定义质量规则管理服务：规则增删改查，以及按调用方可见范围解析出引擎可用的规则集
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 规则创建 -> 更新/停用 -> 软删除；分析前按所有者解析可见规则
 * @rules 可见规则 = 启用 且 未删除 且 (全局 或 属于调用方)；引擎本身不做权限判断
 * @dependencies dataquality-service/service/models, dataquality-service/service/quality, gorm.io/gorm
 * @refs service/governance/analysis_service.go, api/controllers/rule_controller.go
 */

package governance

import (
	"errors"
	"fmt"
	"strings"

	"dataquality-service/service/models"
	"dataquality-service/service/quality"

	"gorm.io/gorm"
)

var (
	ErrRuleNotFound = errors.New("规则不存在")
	ErrInvalidRule  = errors.New("规则参数不合法")
)

var validRuleKinds = map[quality.RuleKind]bool{
	quality.RuleKindComparison: true,
	quality.RuleKindRange:      true,
	quality.RuleKindRegex:      true,
	quality.RuleKindCrossField: true,
	quality.RuleKindCondition:  true,
}

// RuleService 规则管理服务
type RuleService struct {
	db *gorm.DB
}

// NewRuleService 创建规则管理服务实例
func NewRuleService(db *gorm.DB) *RuleService {
	return &RuleService{db: db}
}

// CreateRule 创建规则
func (s *RuleService) CreateRule(rule *models.QualityRuleDefinition) error {
	if err := normalizeRule(rule); err != nil {
		return err
	}
	return s.db.Create(rule).Error
}

// GetRule 根据ID获取规则
func (s *RuleService) GetRule(id string) (*models.QualityRuleDefinition, error) {
	var rule models.QualityRuleDefinition
	if err := s.db.First(&rule, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// UpdateRule 整体更新规则的可编辑字段
func (s *RuleService) UpdateRule(id string, input *models.QualityRuleDefinition) (*models.QualityRuleDefinition, error) {
	existing, err := s.GetRule(id)
	if err != nil {
		return nil, err
	}

	input.ID = existing.ID
	input.CreatedAt = existing.CreatedAt
	input.CreatedBy = existing.CreatedBy
	if input.IsActive == nil {
		input.IsActive = existing.IsActive
	}
	if err := normalizeRule(input); err != nil {
		return nil, err
	}
	if err := s.db.Save(input).Error; err != nil {
		return nil, err
	}
	return s.GetRule(id)
}

// DeleteRule 软删除规则
func (s *RuleService) DeleteRule(id string) error {
	result := s.db.Delete(&models.QualityRuleDefinition{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// ListRules 分页获取规则列表；ownerID 非空时只返回该用户可见的规则
func (s *RuleService) ListRules(ownerID string, page, pageSize int) ([]models.QualityRuleDefinition, int64, error) {
	var rules []models.QualityRuleDefinition
	var total int64

	query := s.db.Model(&models.QualityRuleDefinition{})
	if ownerID != "" {
		query = query.Where("scope = ? OR owner_id = ?", string(quality.ScopeGlobal), ownerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Order("id").Find(&rules).Error; err != nil {
		return nil, 0, err
	}
	return rules, total, nil
}

// GetVisibleRules 解析调用方可见的启用规则，转换为引擎规则
func (s *RuleService) GetVisibleRules(ownerID string) ([]quality.Rule, error) {
	var rows []models.QualityRuleDefinition
	query := s.db.Where("is_active = ?", true)
	if ownerID != "" {
		query = query.Where("scope = ? OR (scope = ? AND owner_id = ?)",
			string(quality.ScopeGlobal), string(quality.ScopeOwner), ownerID)
	} else {
		query = query.Where("scope = ?", string(quality.ScopeGlobal))
	}
	if err := query.Order("created_at").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询可见规则失败: %w", err)
	}

	rules := make([]quality.Rule, 0, len(rows))
	for i := range rows {
		rules = append(rules, ToQualityRule(&rows[i]))
	}
	return rules, nil
}

// ToQualityRule 数据库规则转换为引擎规则
func ToQualityRule(m *models.QualityRuleDefinition) quality.Rule {
	return quality.Rule{
		ID:         m.ID,
		Name:       m.Name,
		Kind:       quality.RuleKind(m.Kind),
		Field:      m.Field,
		Operator:   m.Operator,
		Value:      m.Value.V,
		Low:        m.Low,
		High:       m.High,
		Pattern:    m.Pattern,
		Field2:     m.Field2,
		Event1:     m.Event1,
		Event2:     m.Event2,
		Form2:      m.Form2,
		Antecedent: m.Antecedent,
		Consequent: m.Consequent,
		Priority:   quality.Priority(m.Priority),
		Message:    m.Message,
		Active:     m.Active(),
		Scope:      quality.RuleScope(m.Scope),
		OwnerID:    m.OwnerID,
	}
}

// normalizeRule 校验规则的基本字段并规范化优先级与范围。
// 字段是否存在等与目录相关的校验在分析时由引擎完成
func normalizeRule(rule *models.QualityRuleDefinition) error {
	rule.Name = strings.TrimSpace(rule.Name)
	rule.Field = strings.TrimSpace(rule.Field)
	if rule.Name == "" {
		return fmt.Errorf("%w: 规则名称不能为空", ErrInvalidRule)
	}
	if rule.Field == "" {
		return fmt.Errorf("%w: 目标字段不能为空", ErrInvalidRule)
	}
	if !validRuleKinds[quality.RuleKind(rule.Kind)] {
		return fmt.Errorf("%w: 无效的规则类型 %q", ErrInvalidRule, rule.Kind)
	}
	if rule.Priority != "" {
		p, err := quality.ParsePriority(rule.Priority)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		rule.Priority = string(p)
	}

	switch quality.RuleScope(rule.Scope) {
	case "", quality.ScopeGlobal:
		rule.Scope = string(quality.ScopeGlobal)
	case quality.ScopeOwner:
		if rule.OwnerID == "" {
			return fmt.Errorf("%w: 私有规则必须指定所有者", ErrInvalidRule)
		}
	default:
		return fmt.Errorf("%w: 无效的规则范围 %q", ErrInvalidRule, rule.Scope)
	}
	return nil
}
