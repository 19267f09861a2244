package main

import (
	"log"
	"log/slog"
	"net/http"
	"strconv"

	"dataquality-service/api"
	_ "dataquality-service/docs"
	"dataquality-service/logger"
	"dataquality-service/service"
	"dataquality-service/service/config"

	daprd "github.com/dapr/go-sdk/service/http"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title 临床数据质量分析服务 API
// @version 1.0
// @description 临床研究数据质量分析与规则评估服务，提供结构性检查、自定义规则检查、问题去重分级和分析历史
// @BasePath /swagger/dataquality-service
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	logger.InitLogger(cfg.Logging.Level)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if err := service.Init(cfg, registry); err != nil {
		log.Fatalf("服务初始化失败: %v", err)
	}

	services := api.Services{
		DB:       service.DB,
		Rules:    service.GlobalRuleService,
		History:  service.GlobalHistoryService,
		Analysis: service.GlobalAnalysisService,
	}
	if service.GlobalRateLimiter != nil {
		services.RateLimiter = service.GlobalRateLimiter
	}
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	mux := chi.NewRouter()

	// 如果有BASE_CONTEXT，则在该路径下挂载所有路由
	if cfg.Server.BaseContext != "" {
		mux.Route(cfg.Server.BaseContext, func(r chi.Router) {
			// 创建子路由器并初始化路由
			subMux := r.(*chi.Mux)
			api.InitRoute(subMux, services, cfg.Server)
			r.Handle("/metrics", metricsHandler)
			r.Handle("/swagger*", httpSwagger.WrapHandler)
		})
	} else {
		api.InitRoute(mux, services, cfg.Server)
		mux.Handle("/metrics", metricsHandler)
		mux.Handle("/swagger*", httpSwagger.WrapHandler)
	}

	slog.Info("服务启动", "port", cfg.Server.Port, "base_context", cfg.Server.BaseContext)
	s := daprd.NewServiceWithMux(":"+strconv.Itoa(cfg.Server.Port), mux)
	if err := s.Start(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("error: %v", err)
	}
}
