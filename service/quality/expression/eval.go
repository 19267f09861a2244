/*
 * @module service/quality/expression/eval
 * @description 条件表达式求值器，基于三值逻辑（真/假/不确定）对单条记录求值
 * @architecture 解释器模式 - 求值层
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 语法树 + 记录变量解析器 -> 求值结果
 * @rules 引用字段缺失时结果为不确定，由调用方决定如何处理；求值过程无副作用
 * @dependencies github.com/spf13/cast, golang.org/x/text/unicode/norm
 * @refs parser.go
 */

package expression

import (
	"math"
	"regexp"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/unicode/norm"
)

// Result 三值逻辑求值结果
type Result int

const (
	False Result = iota
	True
	Indeterminate
)

func (r Result) String() string {
	switch r {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "indeterminate"
	}
}

// Resolver 记录作用域的变量解析器。present=false 表示字段在记录中不存在
type Resolver interface {
	Resolve(ref Ref) (raw interface{}, present bool)
}

// MapResolver 基于字段映射的简单解析器，忽略事件限定
type MapResolver map[string]interface{}

func (m MapResolver) Resolve(ref Ref) (interface{}, bool) {
	v, ok := m[ref.Field]
	return v, ok
}

type valueKind int

const (
	kindUnknown valueKind = iota
	kindString
	kindNumber
	kindBool
)

type value struct {
	kind valueKind
	str  string
	num  float64
	b    bool
}

var unknown = value{kind: kindUnknown}

func stringValue(s string) value  { return value{kind: kindString, str: s} }
func numberValue(n float64) value { return value{kind: kindNumber, num: n} }
func boolValue(b bool) value      { return value{kind: kindBool, b: b} }

var numberPattern = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)

// ToText 将原始值转换为去除首尾空白、NFC 规范化后的字符串，nil 视为空串
func ToText(raw interface{}) string {
	if raw == nil {
		return ""
	}
	return norm.NFC.String(strings.TrimSpace(cast.ToString(raw)))
}

// IsBlank 判断原始值是否为空（nil 或仅包含空白的字符串）
func IsBlank(raw interface{}) bool {
	if raw == nil {
		return true
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// ToNumber 将原始值解析为十进制数，支持逗号小数点；拒绝 NaN、Inf 与十六进制写法
func ToNumber(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case bool:
		return 0, false
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
		if !numberPattern.MatchString(s) {
			return 0, false
		}
		f, err := cast.ToFloat64E(s)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		f, err := cast.ToFloat64E(v)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
}

func fromRaw(raw interface{}) value {
	switch v := raw.(type) {
	case bool:
		return boolValue(v)
	case string:
		return stringValue(v)
	case nil:
		return stringValue("")
	}
	if n, ok := ToNumber(raw); ok {
		return numberValue(n)
	}
	return stringValue(cast.ToString(raw))
}

func (v value) number() (float64, bool) {
	switch v.kind {
	case kindNumber:
		return v.num, true
	case kindString:
		return ToNumber(v.str)
	case kindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (v value) text() string {
	switch v.kind {
	case kindNumber:
		return cast.ToString(v.num)
	case kindBool:
		if v.b {
			return "1"
		}
		return "0"
	}
	return norm.NFC.String(strings.TrimSpace(v.str))
}

// Eval 对记录求值
func (e *Expression) Eval(r Resolver) Result {
	v := eval(e.root, r)
	if v.kind != kindBool {
		return Indeterminate
	}
	if v.b {
		return True
	}
	return False
}

func eval(n node, r Resolver) value {
	switch t := n.(type) {
	case *literalNode:
		return t.val
	case *refNode:
		raw, ok := r.Resolve(t.ref)
		if !ok {
			return unknown
		}
		return fromRaw(raw)
	case *negNode:
		v := eval(t.operand, r)
		num, ok := v.number()
		if v.kind == kindUnknown || !ok {
			return unknown
		}
		return numberValue(-num)
	case *notNode:
		v := eval(t.operand, r)
		if v.kind != kindBool {
			return unknown
		}
		return boolValue(!v.b)
	case *arithNode:
		return evalArith(t, r)
	case *compareNode:
		return evalCompare(t.op, eval(t.left, r), eval(t.right, r))
	case *logicalNode:
		return evalLogical(t, r)
	case *inNode:
		v := eval(t.operand, r)
		if v.kind == kindUnknown {
			return unknown
		}
		found := false
		for _, member := range t.set {
			if c := evalCompare(tokEq, v, member); c.kind == kindBool && c.b {
				found = true
				break
			}
		}
		return boolValue(found != t.negate)
	}
	return unknown
}

func evalArith(n *arithNode, r Resolver) value {
	l := eval(n.left, r)
	rv := eval(n.right, r)
	a, okA := l.number()
	b, okB := rv.number()
	if l.kind == kindUnknown || rv.kind == kindUnknown || !okA || !okB {
		return unknown
	}
	switch n.op {
	case tokPlus:
		return numberValue(a + b)
	case tokMinus:
		return numberValue(a - b)
	case tokStar:
		return numberValue(a * b)
	case tokSlash:
		if b == 0 {
			return unknown
		}
		return numberValue(a / b)
	}
	return unknown
}

func evalLogical(n *logicalNode, r Resolver) value {
	l := eval(n.left, r)
	if n.op == tokAnd {
		if l.kind == kindBool && !l.b {
			return boolValue(false)
		}
		rv := eval(n.right, r)
		if rv.kind == kindBool && !rv.b {
			return boolValue(false)
		}
		if l.kind != kindBool || rv.kind != kindBool {
			return unknown
		}
		return boolValue(true)
	}

	if l.kind == kindBool && l.b {
		return boolValue(true)
	}
	rv := eval(n.right, r)
	if rv.kind == kindBool && rv.b {
		return boolValue(true)
	}
	if l.kind != kindBool || rv.kind != kindBool {
		return unknown
	}
	return boolValue(false)
}

func evalCompare(op tokenKind, l, r value) value {
	if l.kind == kindUnknown || r.kind == kindUnknown {
		return unknown
	}

	var cmp int
	a, okA := l.number()
	b, okB := r.number()
	if okA && okB {
		cmp = compareFloat(a, b)
	} else {
		lt, rt := l.text(), r.text()
		// 大小比较只在两侧都是数值，或都是非空非数值字符串（如 ISO 日期）时成立
		if isOrdering(op) && (okA || okB || lt == "" || rt == "") {
			return unknown
		}
		cmp = strings.Compare(lt, rt)
	}

	switch op {
	case tokEq:
		return boolValue(cmp == 0)
	case tokNe:
		return boolValue(cmp != 0)
	case tokLt:
		return boolValue(cmp < 0)
	case tokGt:
		return boolValue(cmp > 0)
	case tokLe:
		return boolValue(cmp <= 0)
	case tokGe:
		return boolValue(cmp >= 0)
	}
	return unknown
}

func isOrdering(op tokenKind) bool {
	switch op {
	case tokLt, tokGt, tokLe, tokGe:
		return true
	}
	return false
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
