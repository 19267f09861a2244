/*
 * @module service/quality/catalog
 * @description 字段目录索引：校验字段定义、预解析分支逻辑、校验记录与目录的一致性
 * @architecture 分层架构 - 领域服务层
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 目录快照 -> 校验 -> 只读索引
 * @rules 目录为空、字段重复、分支逻辑不合法、记录引用未知事件均为致命错误
 * @dependencies dataquality-service/service/quality/expression
 * @refs structural_analyzer.go, rule_loader.go
 */

package quality

import (
	"fmt"
	"strings"

	"dataquality-service/service/quality/expression"
)

// compiledField 预处理后的字段定义
type compiledField struct {
	def           FieldDefinition
	applicability *expression.Expression
	choices       map[string]bool
}

// catalogIndex 只读字段目录索引，可被多个 worker 并发读取
type catalogIndex struct {
	fields []*compiledField
	byName map[string]*compiledField
	events map[string]bool
}

func (c *catalogIndex) longitudinal() bool {
	return len(c.events) > 0
}

func (c *catalogIndex) field(name string) (*compiledField, bool) {
	f, ok := c.byName[name]
	return f, ok
}

// knowsField 判断字段名是否可被引用，复选框展开字段 name___code 视为已知
func (c *catalogIndex) knowsField(name string) bool {
	if _, ok := c.byName[name]; ok {
		return true
	}
	if base, code, ok := strings.Cut(name, "___"); ok {
		if f, ok := c.byName[base]; ok {
			return len(f.choices) == 0 || f.choices[code]
		}
	}
	return false
}

// appliesToEvent 字段是否在该事件中采集
func (f *compiledField) appliesToEvent(event string) bool {
	return f.def.Event == "" || f.def.Event == event
}

// buildCatalog 校验字段目录并构建索引
func buildCatalog(catalog Catalog, cache *expression.Cache) (*catalogIndex, error) {
	if len(catalog.Fields) == 0 {
		return nil, ErrEmptyCatalog
	}

	idx := &catalogIndex{
		byName: make(map[string]*compiledField, len(catalog.Fields)),
		events: make(map[string]bool, len(catalog.Events)),
	}
	for _, ev := range catalog.Events {
		if strings.TrimSpace(ev) == "" {
			return nil, fmt.Errorf("%w: 事件名为空", ErrInvalidField)
		}
		idx.events[ev] = true
	}

	for i := range catalog.Fields {
		def := catalog.Fields[i]
		if strings.TrimSpace(def.Name) == "" {
			return nil, fmt.Errorf("%w: 第 %d 个字段缺少名称", ErrInvalidField, i+1)
		}
		if _, dup := idx.byName[def.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateField, def.Name)
		}
		if def.Type == "" {
			def.Type = FieldTypeText
		}
		if !def.Type.valid() {
			return nil, fmt.Errorf("%w: 字段 %s 的类型 %q 未知", ErrInvalidField, def.Name, def.Type)
		}
		if def.Min != nil && def.Max != nil && *def.Min > *def.Max {
			return nil, fmt.Errorf("%w: 字段 %s 的下限大于上限", ErrInvalidField, def.Name)
		}
		if def.Event != "" && !idx.events[def.Event] {
			return nil, fmt.Errorf("%w: 字段 %s 所属事件 %s 不在事件列表中", ErrInvalidField, def.Name, def.Event)
		}

		cf := &compiledField{def: def}
		if len(def.Choices) > 0 {
			cf.choices = make(map[string]bool, len(def.Choices))
			for _, ch := range def.Choices {
				cf.choices[strings.TrimSpace(ch.Code)] = true
			}
		}
		idx.fields = append(idx.fields, cf)
		idx.byName[def.Name] = cf
	}

	// 分支逻辑在全部字段登记后解析，允许引用目录中后出现的字段
	for _, cf := range idx.fields {
		if strings.TrimSpace(cf.def.Applicability) == "" {
			continue
		}
		expr, err := cache.Parse(cf.def.Applicability)
		if err != nil {
			return nil, fmt.Errorf("%w: 字段 %s: %w", ErrInvalidApplicability, cf.def.Name, err)
		}
		if err := idx.checkRefs(expr); err != nil {
			return nil, fmt.Errorf("%w: 字段 %s: %w", ErrInvalidApplicability, cf.def.Name, err)
		}
		cf.applicability = expr
	}

	return idx, nil
}

// checkRefs 校验表达式中的字段与事件引用
func (c *catalogIndex) checkRefs(expr *expression.Expression) error {
	for _, ref := range expr.Refs() {
		if !c.knowsField(ref.Field) {
			return fmt.Errorf("引用了未知字段 %s", ref.Field)
		}
		if ref.Event != "" && !c.events[ref.Event] {
			return fmt.Errorf("引用了未知事件 %s", ref.Event)
		}
	}
	return nil
}

// validateRecords 校验记录与目录在结构上的一致性
func validateRecords(c *catalogIndex, records []Record) error {
	for i := range records {
		rec := &records[i]
		if strings.TrimSpace(rec.Subject) == "" {
			return fmt.Errorf("%w: 第 %d 条记录缺少受试者标识", ErrInvalidRecord, i+1)
		}
		if c.longitudinal() && !c.events[rec.Event] {
			return fmt.Errorf("%w: 受试者 %s 的事件 %q", ErrUnknownEvent, rec.Subject, rec.Event)
		}
	}
	return nil
}
