/*
 * @module service/quality/expression/parser
 * @description 条件逻辑表达式递归下降解析器，生成抽象语法树
 * @architecture 解释器模式 - 语法层
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 词法单元序列 -> 语法树 -> Expression
 * @rules 语法错误与非布尔顶层表达式在解析期返回 SyntaxError
 * @dependencies regexp, strings
 * @refs lexer.go, eval.go
 */

package expression

import (
	"regexp"
	"strings"
)

var (
	fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	checkboxPattern  = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\(\s*([A-Za-z0-9_\-]+)\s*\)$`)
)

// Expression 已解析的条件表达式，可在多个 goroutine 中并发求值
type Expression struct {
	source string
	root   node
	refs   []Ref
}

// Source 返回原始表达式文本
func (e *Expression) Source() string { return e.source }

// Refs 返回表达式引用的所有字段（去重，按出现顺序）
func (e *Expression) Refs() []Ref {
	out := make([]Ref, len(e.refs))
	copy(out, e.refs)
	return out
}

// Parse 解析表达式，顶层必须是布尔条件
func Parse(src string) (*Expression, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return nil, &SyntaxError{Source: src, Msg: "表达式为空"}
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}

	p := &parser{src: trimmed, tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok, "多余的内容 %q", tok.text)
	}
	if !root.boolean() {
		return nil, &SyntaxError{Source: trimmed, Msg: "表达式结果不是布尔条件"}
	}

	return &Expression{
		source: trimmed,
		root:   root,
		refs:   collectRefs(root, map[Ref]bool{}, nil),
	}, nil
}

type parser struct {
	src    string
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(tok token, msg string, args ...interface{}) error {
	lx := &lexer{src: p.src}
	return lx.errorf(tok.pos, msg, args...)
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	tok := p.advance()
	if tok.kind != kind {
		return tok, p.errorf(tok, "期望 %s", what)
	}
	return tok, nil
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		tok := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		if !left.boolean() || !right.boolean() {
			return nil, p.errorf(tok, "or 两侧必须是条件")
		}
		left = &logicalNode{op: tokOr, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		tok := p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		if !left.boolean() || !right.boolean() {
			return nil, p.errorf(tok, "and 两侧必须是条件")
		}
		left = &logicalNode{op: tokAnd, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (node, error) {
	if p.peek().kind == tokNot {
		tok := p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		if !operand.boolean() {
			return nil, p.errorf(tok, "not 之后必须是条件")
		}
		return &notNode{operand: operand}, nil
	}
	return p.parseCompare()
}

func (p *parser) parseCompare() (node, error) {
	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	switch tok.kind {
	case tokEq, tokNe, tokLt, tokGt, tokLe, tokGe:
		p.advance()
		right, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		return &compareNode{op: tok.kind, left: left, right: right}, nil
	case tokIn:
		p.advance()
		return p.parseInList(left, false)
	case tokNot:
		// "x not in (...)"
		if p.tokens[p.pos+1].kind == tokIn {
			p.advance()
			p.advance()
			return p.parseInList(left, true)
		}
	}
	return left, nil
}

func (p *parser) parseInList(operand node, negate bool) (node, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	var set []value
	for {
		tok := p.advance()
		lit, ok := literalFromToken(tok)
		if !ok {
			// 允许负数字面量
			if tok.kind == tokMinus && p.peek().kind == tokNumber {
				num, _ := literalFromToken(p.advance())
				lit = numberValue(-num.num)
			} else {
				return nil, p.errorf(tok, "in 列表只能包含字面量")
			}
		}
		set = append(set, lit)

		next := p.advance()
		if next.kind == tokRParen {
			break
		}
		if next.kind != tokComma {
			return nil, p.errorf(next, "期望 ',' 或 ')'")
		}
	}
	return &inNode{operand: operand, set: set, negate: negate}, nil
}

func (p *parser) parseSum() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for k := p.peek().kind; k == tokPlus || k == tokMinus; k = p.peek().kind {
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &arithNode{op: k, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for k := p.peek().kind; k == tokStar || k == tokSlash; k = p.peek().kind {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &arithNode{op: k, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.peek().kind == tokMinus {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &negNode{operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.advance()

	if lit, ok := literalFromToken(tok); ok {
		return &literalNode{val: lit}, nil
	}

	switch tok.kind {
	case tokRef:
		ref, err := p.refFromText(tok)
		if err != nil {
			return nil, err
		}
		// [event][field]
		if p.peek().kind == tokRef {
			fieldTok := p.advance()
			inner, err := p.refFromText(fieldTok)
			if err != nil {
				return nil, err
			}
			if !fieldNamePattern.MatchString(tok.text) {
				return nil, p.errorf(tok, "非法的事件名 %q", tok.text)
			}
			return &refNode{ref: Ref{Event: tok.text, Field: inner.Field}}, nil
		}
		return &refNode{ref: ref}, nil
	case tokIdent:
		return &refNode{ref: Ref{Field: tok.text}}, nil
	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokEOF:
		return nil, p.errorf(tok, "表达式意外结束")
	}
	return nil, p.errorf(tok, "意外的符号 %q", tok.text)
}

func (p *parser) refFromText(tok token) (Ref, error) {
	if fieldNamePattern.MatchString(tok.text) {
		return Ref{Field: tok.text}, nil
	}
	if m := checkboxPattern.FindStringSubmatch(tok.text); m != nil {
		return Ref{Field: checkboxField(m[1], m[2])}, nil
	}
	return Ref{}, p.errorf(tok, "非法的字段引用 %q", tok.text)
}

func literalFromToken(tok token) (value, bool) {
	switch tok.kind {
	case tokNumber:
		num, ok := ToNumber(tok.text)
		if !ok {
			return value{}, false
		}
		return numberValue(num), true
	case tokString:
		return stringValue(tok.text), true
	case tokTrue:
		return boolValue(true), true
	case tokFalse:
		return boolValue(false), true
	}
	return value{}, false
}
