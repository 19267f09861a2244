/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers, api/middleware
 */

package api

import (
	"dataquality-service/api/controllers"
	apimiddleware "dataquality-service/api/middleware"
	"dataquality-service/service/config"
	"dataquality-service/service/governance"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"gorm.io/gorm"
)

// Services 路由依赖的业务服务
type Services struct {
	DB       *gorm.DB
	Rules    *governance.RuleService
	History  *governance.HistoryService
	Analysis *governance.AnalysisService

	// RateLimiter 为 nil 时分析接口不限流
	RateLimiter apimiddleware.RateLimitChecker
}

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux, svc Services, serverCfg config.ServerConfig) {
	corsCfg := serverCfg.CORS

	// 基础中间件
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsCfg.AllowedOrigins,
		AllowedMethods:   corsCfg.AllowedMethods,
		AllowedHeaders:   corsCfg.AllowedHeaders,
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController(svc.DB)
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 数据质量
	r.Route("/quality", func(r chi.Router) {
		analysisController := controllers.NewAnalysisController(svc.Analysis, svc.History)
		if svc.RateLimiter != nil {
			limit := serverCfg.RateLimit
			r.With(apimiddleware.RateLimit(svc.RateLimiter, apimiddleware.RateLimitOptions{
				Window:            limit.Window,
				GlobalMaxRequests: limit.GlobalMaxRequests,
				ClientMaxRequests: limit.ClientMaxRequests,
			})).Post("/analyze", analysisController.Analyze)
		} else {
			r.Post("/analyze", analysisController.Analyze)
		}
		r.Get("/runs", analysisController.GetRuns)
		r.Get("/runs/{id}/queries", analysisController.GetRunQueries)

		ruleController := controllers.NewRuleController(svc.Rules)
		r.Route("/rules", func(r chi.Router) {
			r.Post("/", ruleController.CreateRule)
			r.Get("/", ruleController.GetRules)
			r.Get("/{id}", ruleController.GetRule)
			r.Put("/{id}", ruleController.UpdateRule)
			r.Delete("/{id}", ruleController.DeleteRule)
		})
	})
}
