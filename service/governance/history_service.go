/*
 * @module service/governance/history_service
 * @description 分析历史服务：保存运行记录与问题明细，分页查询历史运行
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 报告 -> 事务内写入运行记录 + 问题明细 -> 按项目分页查询
 * @rules 运行记录与问题明细在同一事务中写入；问题明细保持报告中的顺序
 * @dependencies dataquality-service/service/models, gorm.io/gorm, github.com/lib/pq
 * @refs service/governance/analysis_service.go
 */

package governance

import (
	"errors"
	"fmt"

	"dataquality-service/service/models"
	"dataquality-service/service/quality"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var ErrRunNotFound = errors.New("分析记录不存在")

const queryBatchSize = 200

// RunMeta 运行记录的上下文信息
type RunMeta struct {
	ProjectID   string
	OwnerID     string
	InputDigest string
	FromCache   bool
}

// HistoryService 分析历史服务
type HistoryService struct {
	db *gorm.DB
}

// NewHistoryService 创建分析历史服务实例
func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// SaveReport 保存一次分析的报告
func (s *HistoryService) SaveReport(meta RunMeta, report *quality.QualityReport) (*models.AnalysisRun, error) {
	rejected := make(pq.StringArray, 0, len(report.Rejected))
	for _, r := range report.Rejected {
		rejected = append(rejected, r.RuleID)
	}

	run := &models.AnalysisRun{
		ProjectID:       meta.ProjectID,
		OwnerID:         meta.OwnerID,
		InputDigest:     meta.InputDigest,
		TotalRecords:    report.TotalRecords,
		TotalSubjects:   report.TotalSubjects,
		HighCount:       report.Counts.High,
		MediumCount:     report.Counts.Medium,
		LowCount:        report.Counts.Low,
		WarningCount:    len(report.Warnings),
		Complete:        report.Complete,
		FromCache:       meta.FromCache,
		ElapsedMs:       report.Elapsed.Milliseconds(),
		RejectedRuleIDs: rejected,
		Summary: models.JSONB{
			"top_kinds":  report.Summary.TopKinds,
			"top_fields": report.Summary.TopFields,
		},
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("保存运行记录失败: %w", err)
		}
		if len(report.Issues) == 0 {
			return nil
		}

		queries := make([]models.QualityQuery, 0, len(report.Issues))
		for i, issue := range report.Issues {
			queries = append(queries, models.QualityQuery{
				RunID:       run.ID,
				Position:    i,
				Subject:     issue.Subject,
				Event:       issue.Event,
				Form:        issue.Form,
				Field:       issue.Field,
				Priority:    string(issue.Priority),
				Kind:        string(issue.Kind),
				Description: issue.Description,
				Value:       models.JSONValue{V: issue.Value},
				RuleIDs:     pq.StringArray(issue.RuleIDs),
			})
		}
		if err := tx.CreateInBatches(queries, queryBatchSize).Error; err != nil {
			return fmt.Errorf("保存问题明细失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns 分页获取项目的分析记录
func (s *HistoryService) ListRuns(projectID string, page, pageSize int) ([]models.AnalysisRun, int64, error) {
	var runs []models.AnalysisRun
	var total int64

	query := s.db.Model(&models.AnalysisRun{})
	if projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Order("id").Find(&runs).Error; err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// GetRun 根据ID获取分析记录
func (s *HistoryService) GetRun(id string) (*models.AnalysisRun, error) {
	var run models.AnalysisRun
	if err := s.db.First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

// GetRunQueries 获取分析记录下的全部问题明细，按报告顺序返回
func (s *HistoryService) GetRunQueries(runID string) ([]models.QualityQuery, error) {
	if _, err := s.GetRun(runID); err != nil {
		return nil, err
	}
	var queries []models.QualityQuery
	if err := s.db.Where("run_id = ?", runID).Order("position").Find(&queries).Error; err != nil {
		return nil, err
	}
	return queries, nil
}
