/*
 * @module service/quality/coerce
 * @description 字段值类型转换：整数、数值、日期、分类编码
 * @architecture 分层架构 - 工具层
 * @documentReference ai_docs/data_quality_engine.md
 * @rules 转换失败返回错误，由结构性分析器生成 type_mismatch 问题
 * @dependencies github.com/spf13/cast
 * @refs structural_analyzer.go, rule_engine.go
 */

package quality

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"dataquality-service/service/quality/expression"

	"github.com/spf13/cast"
)

var integerPattern = regexp.MustCompile(`^[-+]?\d+$`)

// 日期格式按优先级尝试，日/月/年 优先于 月/日/年
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// coerced 转换后的字段值
type coerced struct {
	number    float64
	isNumber  bool
	timestamp time.Time
	isDate    bool
}

// coerceValue 将原始值转换为字段声明类型
func coerceValue(field *compiledField, raw interface{}) (coerced, error) {
	text := expression.ToText(raw)

	switch field.def.Type {
	case FieldTypeInteger:
		if !integerPattern.MatchString(text) {
			if n, ok := raw.(float64); ok && n == float64(int64(n)) {
				return coerced{number: n, isNumber: true}, nil
			}
			return coerced{}, fmt.Errorf("%q 不是整数", text)
		}
		n, err := strconv.ParseInt(strings.TrimPrefix(text, "+"), 10, 64)
		if err != nil {
			return coerced{}, fmt.Errorf("%q 不是整数: %w", text, err)
		}
		return coerced{number: float64(n), isNumber: true}, nil

	case FieldTypeNumber:
		n, ok := expression.ToNumber(raw)
		if !ok {
			return coerced{}, fmt.Errorf("%q 不是数值", text)
		}
		return coerced{number: n, isNumber: true}, nil

	case FieldTypeDate:
		t, ok := parseDate(text)
		if !ok {
			return coerced{}, fmt.Errorf("%q 不是有效日期", text)
		}
		return coerced{timestamp: t, isDate: true}, nil

	case FieldTypeCategorical:
		if len(field.choices) > 0 && !field.choices[text] {
			return coerced{}, fmt.Errorf("%q 不在可选项中", text)
		}
		return coerced{}, nil
	}
	return coerced{}, nil
}

// parseDate 按已知格式解析日期，最后回退到 cast 的通用解析
func parseDate(text string) (time.Time, bool) {
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	// 纯数字不按时间戳解释
	if _, isNum := expression.ToNumber(text); isNum {
		return time.Time{}, false
	}
	t, err := cast.ToTimeInDefaultLocationE(text, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// compareOperands 比较两个原始值：数值优先，其次日期，最后字符串。
// ordered=false 表示只能判断相等性（字符串比较）
func compareOperands(a, b interface{}) (cmp int, ordered bool) {
	if x, ok := expression.ToNumber(a); ok {
		if y, ok := expression.ToNumber(b); ok {
			return compareFloat(x, y), true
		}
	}
	ta, tb := expression.ToText(a), expression.ToText(b)
	if x, ok := parseDate(ta); ok {
		if y, ok := parseDate(tb); ok {
			return x.Compare(y), true
		}
	}
	return strings.Compare(ta, tb), false
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// operatorHolds 判断比较结果是否满足运算符
func operatorHolds(op string, cmp int) bool {
	switch op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpGt:
		return cmp > 0
	case OpLe:
		return cmp <= 0
	case OpGe:
		return cmp >= 0
	}
	return false
}

func isOrderingOperator(op string) bool {
	return op == OpLt || op == OpGt || op == OpLe || op == OpGe
}
