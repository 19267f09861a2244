package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"dataquality-service/service/governance"

	"github.com/go-chi/render"
)

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data,omitempty"`
}

// PaginatedResponse 分页响应结构
type PaginatedResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data"`
	Total  int64       `json:"total" example:"100"`
	Page   int         `json:"page" example:"1"`
	Size   int         `json:"size" example:"10"`
}

const maxPageSize = 100

// renderError 输出错误响应，HTTP 状态码与响应体 status 一致
func renderError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	if err != nil {
		if status >= http.StatusInternalServerError {
			slog.Error(msg, "path", r.URL.Path, "error", err)
		}
		msg = msg + ": " + err.Error()
	}
	render.Status(r, status)
	render.JSON(w, r, APIResponse{
		Status: status,
		Msg:    msg,
	})
}

// errorStatus 按业务错误类型映射 HTTP 状态码
func errorStatus(err error) int {
	switch {
	case errors.Is(err, governance.ErrRuleNotFound), errors.Is(err, governance.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, governance.ErrInvalidRule), errors.Is(err, governance.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// pagination 解析分页参数
func pagination(r *http.Request) (page, size int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	size, _ = strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = 10
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}
