package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"dataquality-service/service/cache"
	"dataquality-service/service/config"
	"dataquality-service/service/governance"
	"dataquality-service/service/quality"
	"dataquality-service/service/rate_limiter"
	"dataquality-service/testutil"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestInitRoute(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()

	rules := governance.NewRuleService(tdb.DB)
	history := governance.NewHistoryService(tdb.DB)
	mux := chi.NewRouter()
	InitRoute(mux, Services{
		DB:       tdb.DB,
		Rules:    rules,
		History:  history,
		Analysis: governance.NewAnalysisService(quality.NewEngine(), rules, history, cache.NewMemoryReportCache(), quality.Config{}),
	}, config.DefaultConfig().Server)

	testCases := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"健康检查", http.MethodGet, "/health", http.StatusOK},
		{"就绪检查", http.MethodGet, "/ready", http.StatusOK},
		{"规则列表", http.MethodGet, "/quality/rules", http.StatusOK},
		{"分析历史", http.MethodGet, "/quality/runs", http.StatusOK},
		{"未知路由", http.MethodGet, "/quality/unknown", http.StatusNotFound},
		{"方法不允许", http.MethodDelete, "/quality/analyze", http.StatusMethodNotAllowed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestInitRouteRateLimitedAnalyze(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()

	rules := governance.NewRuleService(tdb.DB)
	history := governance.NewHistoryService(tdb.DB)
	serverCfg := config.DefaultConfig().Server
	serverCfg.RateLimit.ClientMaxRequests = 1

	mux := chi.NewRouter()
	InitRoute(mux, Services{
		DB:          tdb.DB,
		Rules:       rules,
		History:     history,
		Analysis:    governance.NewAnalysisService(quality.NewEngine(), rules, history, nil, quality.Config{}),
		RateLimiter: rate_limiter.NewMemoryRateLimiter(),
	}, serverCfg)

	helper := testutil.NewHTTPTestHelper()
	in := testutil.SampleInput()
	body := map[string]interface{}{"catalog": in.Catalog, "records": in.Records}

	req, err := helper.CreateJSONRequest(http.MethodPost, "/quality/analyze", body)
	assert.NoError(t, err)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req, _ = helper.CreateJSONRequest(http.MethodPost, "/quality/analyze", body)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// 其他接口不受限流影响
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quality/runs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
