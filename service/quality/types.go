/*
 * @module service/quality/types
 * @description 数据质量分析引擎的类型定义：字段目录、记录、规则、问题与质量报告
 * @architecture 分层架构 - 领域模型层
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 单次分析调用内创建，报告返回后丢弃
 * @rules 优先级只能是 High/Medium/Low；同一 (受试者, 事件, 字段, 问题类型) 在报告中只出现一次
 * @dependencies time
 * @refs engine.go
 */

package quality

import (
	"time"
)

// FieldType 字段声明类型
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeInteger     FieldType = "integer"
	FieldTypeNumber      FieldType = "number"
	FieldTypeDate        FieldType = "date"
	FieldTypeCategorical FieldType = "categorical"
)

func (t FieldType) valid() bool {
	switch t {
	case FieldTypeText, FieldTypeInteger, FieldTypeNumber, FieldTypeDate, FieldTypeCategorical:
		return true
	}
	return false
}

func (t FieldType) numeric() bool {
	return t == FieldTypeInteger || t == FieldTypeNumber
}

// Choice 分类字段的可选项
type Choice struct {
	Code  string `json:"code"`
	Label string `json:"label,omitempty"`
}

// FieldDefinition 字段定义，分析期间不可变
type FieldDefinition struct {
	Name          string    `json:"name"`
	Form          string    `json:"form"`
	Event         string    `json:"event,omitempty"` // 为空表示所有事件均采集该字段
	Label         string    `json:"label,omitempty"`
	Type          FieldType `json:"type"`
	Min           *float64  `json:"min,omitempty"`
	Max           *float64  `json:"max,omitempty"`
	Required      bool      `json:"required"`
	Applicability string    `json:"applicability,omitempty"` // 分支逻辑表达式
	Choices       []Choice  `json:"choices,omitempty"`
}

// DisplayName 字段展示名称
func (f FieldDefinition) DisplayName() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Catalog 字段目录快照。Events 非空时为纵向研究设计
type Catalog struct {
	Fields []FieldDefinition `json:"fields"`
	Events []string          `json:"events,omitempty"`
}

// Longitudinal 是否为纵向研究设计
func (c Catalog) Longitudinal() bool {
	return len(c.Events) > 0
}

// Record 受试者在某个事件下的一条记录
type Record struct {
	Subject string                 `json:"subject"`
	Event   string                 `json:"event"`
	Values  map[string]interface{} `json:"values"`
}

// RuleKind 自定义规则类型（封闭集合）
type RuleKind string

const (
	RuleKindComparison RuleKind = "comparison"
	RuleKindRange      RuleKind = "range"
	RuleKindRegex      RuleKind = "regex"
	RuleKindCrossField RuleKind = "cross_field"
	RuleKindCondition  RuleKind = "condition"
)

// RuleScope 规则可见范围
type RuleScope string

const (
	ScopeGlobal RuleScope = "global"
	ScopeOwner  RuleScope = "owner"
)

// 规则运算符
const (
	OpEq         = "="
	OpNe         = "!="
	OpLt         = "<"
	OpGt         = ">"
	OpLe         = "<="
	OpGe         = ">="
	OpEmpty      = "empty"
	OpNotEmpty   = "not_empty"
	OpContains   = "contains"
	OpMatches    = "matches"
	OpNotMatches = "not_matches"
)

// Rule 用户自定义校验规则
type Rule struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Kind       RuleKind    `json:"kind"`
	Field      string      `json:"field"`
	Operator   string      `json:"operator,omitempty"`
	Value      interface{} `json:"value,omitempty"` // comparison 的比较字面量
	Low        *float64    `json:"low,omitempty"`
	High       *float64    `json:"high,omitempty"`
	Pattern    string      `json:"pattern,omitempty"`
	Field2     string      `json:"field2,omitempty"`
	Event1     string      `json:"event1,omitempty"` // 限定主字段所在事件
	Event2     string      `json:"event2,omitempty"` // 限定第二字段所在事件
	Form2      string      `json:"form2,omitempty"`
	Antecedent string      `json:"antecedent,omitempty"`
	Consequent string      `json:"consequent,omitempty"`
	Priority   Priority    `json:"priority,omitempty"`
	Message    string      `json:"message,omitempty"`
	Active     bool        `json:"active"`
	Scope      RuleScope   `json:"scope,omitempty"`
	OwnerID    string      `json:"owner_id,omitempty"`
}

// DisplayName 规则展示名称
func (r Rule) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// IssueKind 问题类型
type IssueKind string

const (
	IssueMissingRequired    IssueKind = "missing_required"
	IssueBranchingLogic     IssueKind = "branching_logic_violation"
	IssueTypeMismatch       IssueKind = "type_mismatch"
	IssueRangeViolation     IssueKind = "range_violation"
	IssueComparison         IssueKind = "comparison_violation"
	IssueRegex              IssueKind = "regex_violation"
	IssueCrossField         IssueKind = "cross_field_violation"
	IssueConditionViolation IssueKind = "condition_violation"
)

// Issue 一条数据质量问题（业务上称为 query）
type Issue struct {
	Subject     string      `json:"subject"`
	Event       string      `json:"event"`
	Form        string      `json:"form,omitempty"`
	Field       string      `json:"field"`
	Priority    Priority    `json:"priority"`
	Kind        IssueKind   `json:"kind"`
	Description string      `json:"description"`
	Value       interface{} `json:"value"`
	RuleIDs     []string    `json:"rule_ids,omitempty"`
}

// IssueKey 去重键
type IssueKey struct {
	Subject string
	Event   string
	Field   string
	Kind    IssueKind
}

// Key 返回问题的去重键
func (i Issue) Key() IssueKey {
	return IssueKey{Subject: i.Subject, Event: i.Event, Field: i.Field, Kind: i.Kind}
}

// PriorityCounts 各优先级的问题数量
type PriorityCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Total 问题总数
func (c PriorityCounts) Total() int {
	return c.High + c.Medium + c.Low
}

// RankedCount 摘要中的计数项
type RankedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ReportSummary 报告摘要：最常见的问题类型与问题最多的字段
type ReportSummary struct {
	TopKinds  []RankedCount `json:"top_kinds"`
	TopFields []RankedCount `json:"top_fields"`
}

// QualityReport 质量报告。Complete=false 表示分析被取消，结果不完整
type QualityReport struct {
	Issues        []Issue             `json:"issues"`
	Counts        PriorityCounts      `json:"counts"`
	TotalRecords  int                 `json:"total_records"`
	TotalSubjects int                 `json:"total_subjects"`
	Elapsed       time.Duration       `json:"elapsed"`
	Complete      bool                `json:"complete"`
	Rejected      []RejectedRule      `json:"rejected,omitempty"`
	Warnings      []EvaluationWarning `json:"warnings,omitempty"`
	Summary       ReportSummary       `json:"summary"`
}

// Input 单次分析的输入
type Input struct {
	Catalog Catalog  `json:"catalog"`
	Records []Record `json:"records"`
	Rules   []Rule   `json:"rules"`
}
