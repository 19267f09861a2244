/*
 * @module service/quality/cross_form
 * @description 跨表单/跨事件字段解析器：为 cross_field 规则和事件限定引用定位第二字段
 * @architecture 分层架构 - 领域服务层
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 加载期解析第二字段定义 -> 运行期按 (受试者, 事件) 只读查找
 * @rules 只读取同一受试者的其他事件记录；第二字段在目录中不存在属于加载期配置错误
 * @dependencies dataquality-service/service/quality/expression
 * @refs rule_loader.go, rule_engine.go
 */

package quality

import (
	"fmt"

	"dataquality-service/service/quality/expression"
)

// subjectIndex 受试者 -> 事件 -> 记录，分析开始前构建，之后只读
type subjectIndex map[string]map[string]*Record

// buildSubjectIndex 构建记录索引，同一 (受试者, 事件) 出现多次时以首条为准
func buildSubjectIndex(records []Record) subjectIndex {
	idx := make(subjectIndex)
	for i := range records {
		rec := &records[i]
		events, ok := idx[rec.Subject]
		if !ok {
			events = make(map[string]*Record)
			idx[rec.Subject] = events
		}
		if _, exists := events[rec.Event]; !exists {
			events[rec.Event] = rec
		}
	}
	return idx
}

// recordScope 记录作用域，实现表达式求值所需的变量解析
type recordScope struct {
	rec   *Record
	index subjectIndex
}

// lookup 查找同一受试者在指定事件下的字段值，event 为空表示当前事件
func (s recordScope) lookup(event, field string) (interface{}, bool) {
	values := s.rec.Values
	if event != "" && event != s.rec.Event {
		other, ok := s.index[s.rec.Subject][event]
		if !ok {
			return nil, false
		}
		values = other.Values
	}
	v, ok := values[field]
	return v, ok
}

// Resolve 实现 expression.Resolver
func (s recordScope) Resolve(ref expression.Ref) (interface{}, bool) {
	return s.lookup(ref.Event, ref.Field)
}

// secondaryRef 已解析的第二字段位置
type secondaryRef struct {
	field *compiledField
	event string // 为空表示与主字段记录同一事件
}

// resolveSecondary 在加载期解析 cross_field 规则的第二字段
func resolveSecondary(c *catalogIndex, rule Rule) (secondaryRef, error) {
	f2, ok := c.field(rule.Field2)
	if !ok {
		return secondaryRef{}, fmt.Errorf("第二字段 %s 不在字段目录中", rule.Field2)
	}
	if rule.Form2 != "" && rule.Form2 != f2.def.Form {
		return secondaryRef{}, fmt.Errorf("第二字段 %s 属于表单 %s 而非 %s", rule.Field2, f2.def.Form, rule.Form2)
	}

	ref := secondaryRef{field: f2}
	if rule.Event2 != "" {
		if !c.longitudinal() {
			return secondaryRef{}, fmt.Errorf("非纵向设计不能指定第二字段事件 %s", rule.Event2)
		}
		if !c.events[rule.Event2] {
			return secondaryRef{}, fmt.Errorf("第二字段事件 %s 不在事件列表中", rule.Event2)
		}
		if !f2.appliesToEvent(rule.Event2) {
			return secondaryRef{}, fmt.Errorf("第二字段 %s 不在事件 %s 中采集", rule.Field2, rule.Event2)
		}
		ref.event = rule.Event2
	}
	return ref, nil
}

// eventFor 返回第二字段在当前记录上下文中的事件
func (r secondaryRef) eventFor(rec *Record) string {
	if r.event != "" {
		return r.event
	}
	return rec.Event
}
