/*
 * @module service/models/quality
 * @description 数据质量分析相关模型：自定义规则定义、分析运行记录、质量问题(query)明细
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 规则: 创建 -> 更新/停用 -> 软删除；运行记录与问题明细一次写入，只读
 * @rules 规则ID为UUID；规则删除为软删除；问题明细按报告顺序保存 position
 * @dependencies gorm.io/gorm, github.com/google/uuid, github.com/lib/pq
 * @refs service/governance/rule_service.go, service/governance/history_service.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// QualityRuleDefinition 用户自定义数据质量规则
type QualityRuleDefinition struct {
	ID         string         `gorm:"type:uuid;primary_key" json:"id"`
	Name       string         `gorm:"not null;size:200" json:"name"`
	Kind       string         `gorm:"not null;size:32;index" json:"kind" example:"range"` // comparison/range/regex/cross_field/condition
	Field      string         `gorm:"not null;size:200" json:"field"`
	Operator   string         `gorm:"size:32" json:"operator,omitempty"`
	Value      JSONValue      `gorm:"type:jsonb" json:"value,omitempty" swaggertype:"object"`
	Low        *float64       `json:"low,omitempty"`
	High       *float64       `json:"high,omitempty"`
	Pattern    string         `gorm:"type:text" json:"pattern,omitempty"`
	Field2     string         `gorm:"size:200" json:"field2,omitempty"`
	Event1     string         `gorm:"size:200" json:"event1,omitempty"`
	Event2     string         `gorm:"size:200" json:"event2,omitempty"`
	Form2      string         `gorm:"size:200" json:"form2,omitempty"`
	Antecedent string         `gorm:"type:text" json:"antecedent,omitempty"`
	Consequent string         `gorm:"type:text" json:"consequent,omitempty"`
	Priority   string         `gorm:"size:16" json:"priority,omitempty" example:"High"`
	Message    string         `gorm:"type:text" json:"message,omitempty"`
	IsActive   *bool          `gorm:"not null;default:true" json:"is_active"`
	Scope      string         `gorm:"not null;size:16;default:'global';index" json:"scope" example:"global"` // global/owner
	OwnerID    string         `gorm:"size:100;index" json:"owner_id,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy  string         `gorm:"not null;default:'system';size:100" json:"created_by"`
	UpdatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy  string         `gorm:"not null;default:'system';size:100" json:"updated_by"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-" swaggerignore:"true"`
}

// Active 规则是否启用，未设置视为启用
func (q *QualityRuleDefinition) Active() bool {
	return q.IsActive == nil || *q.IsActive
}

// BeforeCreate 创建前钩子
func (q *QualityRuleDefinition) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.IsActive == nil {
		active := true
		q.IsActive = &active
	}
	if q.Scope == "" {
		q.Scope = "global"
	}
	if q.CreatedBy == "" {
		q.CreatedBy = "system"
	}
	if q.UpdatedBy == "" {
		q.UpdatedBy = "system"
	}
	return nil
}

// BeforeUpdate 更新前钩子
func (q *QualityRuleDefinition) BeforeUpdate(tx *gorm.DB) error {
	if q.UpdatedBy == "" {
		q.UpdatedBy = "system"
	}
	return nil
}

// AnalysisRun 一次数据质量分析的运行记录
type AnalysisRun struct {
	ID              string         `gorm:"type:uuid;primary_key" json:"id"`
	ProjectID       string         `gorm:"not null;size:100;index" json:"project_id"`
	OwnerID         string         `gorm:"size:100;index" json:"owner_id,omitempty"`
	InputDigest     string         `gorm:"size:64;index" json:"input_digest"`
	TotalRecords    int            `gorm:"not null;default:0" json:"total_records"`
	TotalSubjects   int            `gorm:"not null;default:0" json:"total_subjects"`
	HighCount       int            `gorm:"not null;default:0" json:"high_count"`
	MediumCount     int            `gorm:"not null;default:0" json:"medium_count"`
	LowCount        int            `gorm:"not null;default:0" json:"low_count"`
	WarningCount    int            `gorm:"not null;default:0" json:"warning_count"`
	Complete        bool           `gorm:"not null" json:"complete"`
	FromCache       bool           `gorm:"not null;default:false" json:"from_cache"`
	ElapsedMs       int64          `gorm:"not null;default:0" json:"elapsed_ms"`
	RejectedRuleIDs pq.StringArray `gorm:"type:text" json:"rejected_rule_ids" swaggertype:"array,string"`
	Summary         JSONB          `gorm:"type:jsonb" json:"summary,omitempty" swaggertype:"object"`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy       string         `gorm:"not null;default:'system';size:100" json:"created_by"`
}

// BeforeCreate 创建前钩子
func (a *AnalysisRun) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedBy == "" {
		a.CreatedBy = "system"
	}
	return nil
}

// QualityQuery 运行记录下的一条质量问题
type QualityQuery struct {
	ID          string         `gorm:"type:uuid;primary_key" json:"id"`
	RunID       string         `gorm:"type:uuid;not null;index" json:"run_id"`
	Position    int            `gorm:"not null" json:"position"`
	Subject     string         `gorm:"not null;size:100;index" json:"subject"`
	Event       string         `gorm:"size:200" json:"event"`
	Form        string         `gorm:"size:200" json:"form,omitempty"`
	Field       string         `gorm:"not null;size:200" json:"field"`
	Priority    string         `gorm:"not null;size:16;index" json:"priority"`
	Kind        string         `gorm:"not null;size:64" json:"kind"`
	Description string         `gorm:"type:text" json:"description"`
	Value       JSONValue      `gorm:"type:jsonb" json:"value" swaggertype:"object"`
	RuleIDs     pq.StringArray `gorm:"type:text" json:"rule_ids" swaggertype:"array,string"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// BeforeCreate 创建前钩子
func (q *QualityQuery) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	return nil
}
