/*
 * @module api/controllers/analysis_controller
 * @description 数据质量分析控制器，提供分析执行、历史运行查询和问题明细查询接口
 * @architecture 分层架构 - 控制器层
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 请求解析 -> 分析服务 -> 报告返回
 * @rules 目录或记录不合法返回 400；被拒绝的规则随报告返回，不视为请求错误
 * @dependencies dataquality-service/service/governance, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/governance/analysis_service.go, service/governance/history_service.go
 */

package controllers

import (
	"net/http"

	"dataquality-service/service/governance"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// AnalysisController 数据质量分析控制器
type AnalysisController struct {
	analysisService *governance.AnalysisService
	historyService  *governance.HistoryService
}

// NewAnalysisController 创建分析控制器实例
func NewAnalysisController(analysisService *governance.AnalysisService, historyService *governance.HistoryService) *AnalysisController {
	return &AnalysisController{
		analysisService: analysisService,
		historyService:  historyService,
	}
}

// Analyze 执行数据质量分析
// @Summary 执行数据质量分析
// @Description 对提交的字段目录与记录执行结构性检查和自定义规则检查，返回排序、去重后的问题报告
// @Tags 质量分析
// @Accept json
// @Produce json
// @Param request body governance.AnalysisRequest true "分析请求"
// @Success 200 {object} APIResponse{data=governance.AnalysisResult} "分析完成"
// @Failure 400 {object} APIResponse "目录或记录不合法"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /quality/analyze [post]
func (c *AnalysisController) Analyze(w http.ResponseWriter, r *http.Request) {
	var req governance.AnalysisRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, "请求参数格式错误", nil)
		return
	}

	result, err := c.analysisService.Run(r.Context(), req)
	if err != nil {
		renderError(w, r, errorStatus(err), "数据质量分析失败", err)
		return
	}

	msg := "数据质量分析完成"
	if !result.Report.Complete {
		msg = "数据质量分析已取消，返回部分结果"
	}
	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    msg,
		Data:   result,
	})
}

// GetRuns 获取分析历史
// @Summary 获取分析历史
// @Description 分页获取项目的分析运行记录，按时间倒序
// @Tags 质量分析
// @Produce json
// @Param project_id query string false "项目ID"
// @Param page query int false "页码" default(1)
// @Param size query int false "每页数量" default(10)
// @Success 200 {object} PaginatedResponse{data=[]models.AnalysisRun} "获取成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /quality/runs [get]
func (c *AnalysisController) GetRuns(w http.ResponseWriter, r *http.Request) {
	page, size := pagination(r)
	projectID := r.URL.Query().Get("project_id")

	runs, total, err := c.historyService.ListRuns(projectID, page, size)
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, "获取分析历史失败", err)
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: http.StatusOK,
		Msg:    "获取分析历史成功",
		Data:   runs,
		Total:  total,
		Page:   page,
		Size:   size,
	})
}

// GetRunQueries 获取运行的问题明细
// @Summary 获取运行的问题明细
// @Description 按报告顺序返回一次分析运行产生的全部问题
// @Tags 质量分析
// @Produce json
// @Param id path string true "运行ID"
// @Success 200 {object} APIResponse{data=[]models.QualityQuery} "获取成功"
// @Failure 404 {object} APIResponse "运行记录不存在"
// @Router /quality/runs/{id}/queries [get]
func (c *AnalysisController) GetRunQueries(w http.ResponseWriter, r *http.Request) {
	queries, err := c.historyService.GetRunQueries(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, errorStatus(err), "获取问题明细失败", err)
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "获取问题明细成功",
		Data:   queries,
	})
}
