package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestAutoMigrate(t *testing.T) {
	db := openSQLite(t)

	require.NoError(t, AutoMigrate(db))
	// 重复迁移不报错
	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"quality_rule_definitions", "analysis_runs", "quality_queries"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	indexes := []struct {
		table string
		name  string
	}{
		{"analysis_runs", "idx_analysis_run_project_created"},
		{"quality_queries", "idx_quality_query_run_position"},
		{"quality_rule_definitions", "idx_quality_rule_scope_owner"},
	}
	for _, idx := range indexes {
		assert.True(t, db.Migrator().HasIndex(idx.table, idx.name), idx.name)
	}
}

func TestEnsureSchemaSkipped(t *testing.T) {
	db := openSQLite(t)

	testCases := []struct {
		name   string
		schema string
	}{
		{"未配置schema", ""},
		{"public", "public"},
		{"非postgres方言", "dq"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NoError(t, EnsureSchema(db, tc.schema))
		})
	}
}
