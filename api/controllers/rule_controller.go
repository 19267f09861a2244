/*
 * @module api/controllers/rule_controller
 * @description 数据质量规则控制器，提供自定义规则的增删改查接口
 * @architecture 分层架构 - 控制器层
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow HTTP请求处理流程
 * @rules 统一的错误处理和响应格式；规则校验失败返回 400，规则不存在返回 404
 * @dependencies dataquality-service/service/governance, github.com/go-chi/chi/v5
 * @refs service/governance/rule_service.go
 */

package controllers

import (
	"net/http"

	"dataquality-service/service/governance"
	"dataquality-service/service/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// RuleController 数据质量规则控制器
type RuleController struct {
	ruleService *governance.RuleService
}

// NewRuleController 创建规则控制器实例
func NewRuleController(ruleService *governance.RuleService) *RuleController {
	return &RuleController{
		ruleService: ruleService,
	}
}

// CreateRule 创建数据质量规则
// @Summary 创建数据质量规则
// @Description 创建新的自定义数据质量规则（comparison/range/regex/cross_field/condition）
// @Tags 质量规则
// @Accept json
// @Produce json
// @Param rule body models.QualityRuleDefinition true "规则信息"
// @Success 201 {object} APIResponse{data=models.QualityRuleDefinition} "创建成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /quality/rules [post]
func (c *RuleController) CreateRule(w http.ResponseWriter, r *http.Request) {
	var rule models.QualityRuleDefinition
	if err := render.DecodeJSON(r.Body, &rule); err != nil {
		renderError(w, r, http.StatusBadRequest, "请求参数格式错误", nil)
		return
	}

	if err := c.ruleService.CreateRule(&rule); err != nil {
		renderError(w, r, errorStatus(err), "创建数据质量规则失败", err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, APIResponse{
		Status: http.StatusCreated,
		Msg:    "创建数据质量规则成功",
		Data:   rule,
	})
}

// GetRules 获取数据质量规则列表
// @Summary 获取数据质量规则列表
// @Description 分页获取全局规则以及指定所有者的私有规则
// @Tags 质量规则
// @Produce json
// @Param owner_id query string false "所有者ID"
// @Param page query int false "页码" default(1)
// @Param size query int false "每页数量" default(10)
// @Success 200 {object} PaginatedResponse{data=[]models.QualityRuleDefinition} "获取成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /quality/rules [get]
func (c *RuleController) GetRules(w http.ResponseWriter, r *http.Request) {
	page, size := pagination(r)
	ownerID := r.URL.Query().Get("owner_id")

	rules, total, err := c.ruleService.ListRules(ownerID, page, size)
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, "获取数据质量规则列表失败", err)
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: http.StatusOK,
		Msg:    "获取数据质量规则列表成功",
		Data:   rules,
		Total:  total,
		Page:   page,
		Size:   size,
	})
}

// GetRule 根据ID获取数据质量规则
// @Summary 根据ID获取数据质量规则
// @Tags 质量规则
// @Produce json
// @Param id path string true "规则ID"
// @Success 200 {object} APIResponse{data=models.QualityRuleDefinition} "获取成功"
// @Failure 404 {object} APIResponse "规则不存在"
// @Router /quality/rules/{id} [get]
func (c *RuleController) GetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := c.ruleService.GetRule(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, errorStatus(err), "获取数据质量规则失败", err)
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "获取数据质量规则成功",
		Data:   rule,
	})
}

// UpdateRule 更新数据质量规则
// @Summary 更新数据质量规则
// @Description 整体替换规则定义，未提供启用状态时保持原值
// @Tags 质量规则
// @Accept json
// @Produce json
// @Param id path string true "规则ID"
// @Param rule body models.QualityRuleDefinition true "规则信息"
// @Success 200 {object} APIResponse{data=models.QualityRuleDefinition} "更新成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 404 {object} APIResponse "规则不存在"
// @Router /quality/rules/{id} [put]
func (c *RuleController) UpdateRule(w http.ResponseWriter, r *http.Request) {
	var input models.QualityRuleDefinition
	if err := render.DecodeJSON(r.Body, &input); err != nil {
		renderError(w, r, http.StatusBadRequest, "请求参数格式错误", nil)
		return
	}

	rule, err := c.ruleService.UpdateRule(chi.URLParam(r, "id"), &input)
	if err != nil {
		renderError(w, r, errorStatus(err), "更新数据质量规则失败", err)
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "更新数据质量规则成功",
		Data:   rule,
	})
}

// DeleteRule 删除数据质量规则
// @Summary 删除数据质量规则
// @Description 软删除规则，已删除的规则不再参与分析
// @Tags 质量规则
// @Produce json
// @Param id path string true "规则ID"
// @Success 200 {object} APIResponse "删除成功"
// @Failure 404 {object} APIResponse "规则不存在"
// @Router /quality/rules/{id} [delete]
func (c *RuleController) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := c.ruleService.DeleteRule(chi.URLParam(r, "id")); err != nil {
		renderError(w, r, errorStatus(err), "删除数据质量规则失败", err)
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "删除数据质量规则成功",
	})
}
