/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models, service/database
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dataquality-service/service/database"
	"dataquality-service/service/models"
	"dataquality-service/service/quality"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 内存库每个连接是独立的数据库，限制为单连接
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	// 自动迁移所有模型
	if err := database.AutoMigrate(db); err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	tables := []string{
		"quality_rule_definitions",
		"analysis_runs",
		"quality_queries",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// RuleOption 规则选项函数类型
type RuleOption func(*models.QualityRuleDefinition)

// WithOwner 私有规则
func WithOwner(ownerID string) RuleOption {
	return func(r *models.QualityRuleDefinition) {
		r.Scope = string(quality.ScopeOwner)
		r.OwnerID = ownerID
	}
}

// WithInactive 停用规则
func WithInactive() RuleOption {
	return func(r *models.QualityRuleDefinition) {
		active := false
		r.IsActive = &active
	}
}

// CreateRule 创建测试规则，默认为全局范围规则 temperature ∈ [36, 40]
func (f *TestDataFactory) CreateRule(opts ...RuleOption) *models.QualityRuleDefinition {
	low, high := 36.0, 40.0
	rule := &models.QualityRuleDefinition{
		Name:      "体温范围_" + generateSuffix(),
		Kind:      string(quality.RuleKindRange),
		Field:     "temperature",
		Low:       &low,
		High:      &high,
		Priority:  string(quality.PriorityHigh),
		CreatedBy: "test",
		UpdatedBy: "test",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	// 应用选项
	for _, opt := range opts {
		opt(rule)
	}

	err := f.DB.Create(rule).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test rule: %v", err))
	}

	return rule
}

// SampleInput 体温示例输入：S1 体温 41.5，S2 体温 37.0
func SampleInput() quality.Input {
	return quality.Input{
		Catalog: quality.Catalog{Fields: []quality.FieldDefinition{
			{Name: "temperature", Form: "vitals", Type: quality.FieldTypeNumber},
			{Name: "consent", Form: "consent", Required: true},
		}},
		Records: []quality.Record{
			{Subject: "S1", Event: "baseline", Values: map[string]interface{}{"temperature": 41.5, "consent": "signed"}},
			{Subject: "S2", Event: "baseline", Values: map[string]interface{}{"temperature": 37.0, "consent": "signed"}},
		},
	}
}

func generateSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%100000)
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// DecodeResponse 解析统一响应结构中的 data 字段
func (h *HTTPTestHelper) DecodeResponse(t *testing.T, w *httptest.ResponseRecorder, data interface{}) int {
	var resp struct {
		Status int             `json:"status"`
		Msg    string          `json:"msg"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp.Status
}

// AssertJSONResponse 断言JSON响应
func (h *HTTPTestHelper) AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedBody interface{}) {
	assert.Equal(t, expectedStatus, w.Code)

	if expectedBody != nil {
		var actualBody interface{}
		err := json.Unmarshal(w.Body.Bytes(), &actualBody)
		assert.NoError(t, err)

		expectedJSON, _ := json.Marshal(expectedBody)
		actualJSON, _ := json.Marshal(actualBody)

		assert.JSONEq(t, string(expectedJSON), string(actualJSON))
	}
}
