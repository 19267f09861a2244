package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

func CheckSchemaExists(db *gorm.DB, schemaName string) bool {
	var count int64
	db.Raw("SELECT COUNT(*) FROM information_schema.schemata WHERE schema_name = ?", schemaName).Scan(&count)
	return count > 0
}

// EnsureSchema 连接串中的 search_path 指向非 public schema 时，迁移前先建好该 schema
func EnsureSchema(db *gorm.DB, schemaName string) error {
	if schemaName == "" || schemaName == "public" || db.Dialector.Name() != "postgres" {
		return nil
	}
	if CheckSchemaExists(db, schemaName) {
		return nil
	}

	slog.Info("开始创建 schema", "schema", schemaName)
	// 使用双引号避免保留关键字问题
	createSchemaSQL := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS \"%s\";", schemaName)
	if err := db.Exec(createSchemaSQL).Error; err != nil {
		return fmt.Errorf("创建 schema %s 失败: %w", schemaName, err)
	}
	return nil
}
