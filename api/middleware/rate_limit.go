/*
 * @module api/middleware/rate_limit
 * @description 分析请求限流中间件，按客户端地址与全局两层限制请求频率
 * @architecture 中间件模式 - HTTP请求拦截
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 提取客户端标识 -> 限流检查 -> 放行或返回 429
 * @rules 限流服务出错时放行请求并记录日志
 * @dependencies dataquality-service/service/rate_limiter, github.com/go-chi/render
 * @refs api/routes.go
 */

package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"dataquality-service/service/rate_limiter"

	"github.com/go-chi/render"
)

// RateLimitChecker 限流检查接口
type RateLimitChecker interface {
	CheckRateLimit(ctx context.Context, rules []rate_limiter.RateLimitRule) (*rate_limiter.RateLimitResult, error)
}

// RateLimitOptions 限流参数，MaxRequests 为 0 的层不启用
type RateLimitOptions struct {
	Window            time.Duration
	GlobalMaxRequests int
	ClientMaxRequests int
}

type errorResponse struct {
	Status int         `json:"status"`
	Msg    string      `json:"msg"`
	Data   interface{} `json:"data,omitempty"`
}

// RateLimit 创建限流中间件
func RateLimit(checker RateLimitChecker, opts RateLimitOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rules := buildRules(opts, clientID(r))
			if len(rules) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			result, err := checker.CheckRateLimit(r.Context(), rules)
			if err != nil {
				slog.Error("限流检查失败，放行请求", "path", r.URL.Path, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

			if !result.Allowed {
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, errorResponse{
					Status: http.StatusTooManyRequests,
					Msg:    result.Message,
					Data:   result,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func buildRules(opts RateLimitOptions, client string) []rate_limiter.RateLimitRule {
	if opts.Window <= 0 {
		return nil
	}
	var rules []rate_limiter.RateLimitRule
	if opts.GlobalMaxRequests > 0 {
		rules = append(rules, rate_limiter.RateLimitRule{
			Type:        rate_limiter.LimitTypeGlobal,
			TimeWindow:  opts.Window,
			MaxRequests: opts.GlobalMaxRequests,
		})
	}
	if opts.ClientMaxRequests > 0 {
		rules = append(rules, rate_limiter.RateLimitRule{
			Type:        rate_limiter.LimitTypeClient,
			TargetID:    client,
			TimeWindow:  opts.Window,
			MaxRequests: opts.ClientMaxRequests,
		})
	}
	return rules
}

// clientID 客户端地址，RealIP 中间件已处理代理头
func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
