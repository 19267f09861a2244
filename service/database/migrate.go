/*
 * @module service/database/migrate
 * @description 数据库连接与迁移模块，负责建立连接、创建和更新数据质量相关表结构
 * @architecture 数据访问层 - 迁移管理
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 应用启动时建立连接 -> 迁移表结构 -> 创建组合索引
 * @rules 确保数据库结构与模型定义保持一致；索引创建可重复执行
 * @dependencies dataquality-service/service/models, gorm.io/gorm, gorm.io/driver/postgres
 * @refs service/models/quality.go
 */

package database

import (
	"fmt"
	"log/slog"

	"dataquality-service/service/config"
	"dataquality-service/service/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open 建立 postgres 连接并设置连接池
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库连接池失败: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	slog.Info("数据库连接成功", "host", cfg.Host, "database", cfg.Database)
	return db, nil
}

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	slog.Info("开始数据库迁移...")

	// 规则定义与分析历史
	err := db.AutoMigrate(
		&models.QualityRuleDefinition{},
		&models.AnalysisRun{},
		&models.QualityQuery{},
	)
	if err != nil {
		return fmt.Errorf("迁移数据质量表失败: %w", err)
	}

	if err := createQualityIndexes(db); err != nil {
		return err
	}

	slog.Info("数据库表结构迁移完成")
	return nil
}

// createQualityIndexes 创建分页与明细查询使用的组合索引
func createQualityIndexes(db *gorm.DB) error {
	indexQueries := []string{
		"CREATE INDEX IF NOT EXISTS idx_analysis_run_project_created ON analysis_runs(project_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_quality_query_run_position ON quality_queries(run_id, position)",
		"CREATE INDEX IF NOT EXISTS idx_quality_rule_scope_owner ON quality_rule_definitions(scope, owner_id)",
	}

	for _, query := range indexQueries {
		if err := db.Exec(query).Error; err != nil {
			return fmt.Errorf("创建数据质量索引失败: %w", err)
		}
	}
	return nil
}
