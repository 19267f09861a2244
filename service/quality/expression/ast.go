package expression

import "strings"

// Ref 字段引用。Event 非空时为跨事件引用 [event][field]
type Ref struct {
	Event string `json:"event,omitempty"`
	Field string `json:"field"`
}

func (r Ref) String() string {
	if r.Event != "" {
		return "[" + r.Event + "][" + r.Field + "]"
	}
	return "[" + r.Field + "]"
}

// node 抽象语法树节点，节点类型为封闭集合
type node interface {
	boolean() bool
}

type literalNode struct {
	val value
}

type refNode struct {
	ref Ref
}

// negNode 一元负号
type negNode struct {
	operand node
}

type notNode struct {
	operand node
}

type arithNode struct {
	op          tokenKind
	left, right node
}

type compareNode struct {
	op          tokenKind
	left, right node
}

type logicalNode struct {
	op          tokenKind // tokAnd / tokOr
	left, right node
}

type inNode struct {
	operand node
	set     []value
	negate  bool
}

func (n *literalNode) boolean() bool { return n.val.kind == kindBool }
func (n *refNode) boolean() bool     { return false }
func (n *negNode) boolean() bool     { return false }
func (n *notNode) boolean() bool     { return true }
func (n *arithNode) boolean() bool   { return false }
func (n *compareNode) boolean() bool { return true }
func (n *logicalNode) boolean() bool { return true }
func (n *inNode) boolean() bool      { return true }

// checkboxField 将 [field(code)] 转换为导出数据中的字段名 field___code
func checkboxField(name, code string) string {
	return name + "___" + strings.TrimSpace(code)
}

func collectRefs(n node, seen map[Ref]bool, out []Ref) []Ref {
	switch t := n.(type) {
	case *refNode:
		if !seen[t.ref] {
			seen[t.ref] = true
			out = append(out, t.ref)
		}
	case *negNode:
		out = collectRefs(t.operand, seen, out)
	case *notNode:
		out = collectRefs(t.operand, seen, out)
	case *arithNode:
		out = collectRefs(t.left, seen, out)
		out = collectRefs(t.right, seen, out)
	case *compareNode:
		out = collectRefs(t.left, seen, out)
		out = collectRefs(t.right, seen, out)
	case *logicalNode:
		out = collectRefs(t.left, seen, out)
		out = collectRefs(t.right, seen, out)
	case *inNode:
		out = collectRefs(t.operand, seen, out)
	}
	return out
}
