package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dataquality-service/service/rate_limiter"

	"github.com/stretchr/testify/assert"
)

type failingChecker struct{}

func (failingChecker) CheckRateLimit(context.Context, []rate_limiter.RateLimitRule) (*rate_limiter.RateLimitResult, error) {
	return nil, errors.New("redis down")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/quality/analyze", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimit(rate_limiter.NewMemoryRateLimiter(), RateLimitOptions{
		Window:            time.Hour,
		ClientMaxRequests: 2,
	})(okHandler())

	assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1234").Code)
	w := serve(h, "10.0.0.1:5678")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = serve(h, "10.0.0.1:9999")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "客户端")

	// 其他客户端不受影响
	assert.Equal(t, http.StatusOK, serve(h, "10.0.0.2:1234").Code)
}

func TestRateLimitMiddlewareDisabledOrFailing(t *testing.T) {
	disabled := RateLimit(failingChecker{}, RateLimitOptions{})(okHandler())
	assert.Equal(t, http.StatusOK, serve(disabled, "10.0.0.1:1").Code)

	failing := RateLimit(failingChecker{}, RateLimitOptions{Window: time.Minute, GlobalMaxRequests: 1})(okHandler())
	assert.Equal(t, http.StatusOK, serve(failing, "10.0.0.1:1").Code, "限流服务出错时放行")
}
