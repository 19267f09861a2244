/*
 * @module service/quality/expression/lexer
 * @description 条件逻辑表达式词法分析器，支持字段引用、字面量、比较运算符、逻辑连接词与集合成员判断
 * @architecture 解释器模式 - 词法层
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 表达式源文本 -> 词法单元序列
 * @rules 非法字符与未闭合的字符串/字段引用在解析期报错，不进入求值阶段
 * @dependencies fmt, strings, unicode
 * @refs parser.go
 */

package expression

import (
	"fmt"
	"strings"
	"unicode"
)

// tokenKind 词法单元类型
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokRef   // [field] / [field(code)]
	tokIdent // 裸标识符
	tokAnd
	tokOr
	tokNot
	tokIn
	tokTrue
	tokFalse
	tokEq
	tokNe
	tokLt
	tokGt
	tokLe
	tokGe
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
	tokComma
)

var keywords = map[string]tokenKind{
	"and":   tokAnd,
	"or":    tokOr,
	"not":   tokNot,
	"in":    tokIn,
	"true":  tokTrue,
	"false": tokFalse,
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

// SyntaxError 表达式语法错误，解析期返回
type SyntaxError struct {
	Source string
	Pos    int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("表达式语法错误(位置 %d): %s: %q", e.Pos, e.Msg, e.Source)
}

type lexer struct {
	src string
	pos int
}

func tokenize(src string) ([]token, error) {
	lx := &lexer{src: src}
	var tokens []token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokEOF {
			return tokens, nil
		}
	}
}

func (lx *lexer) errorf(pos int, format string, args ...interface{}) error {
	return &SyntaxError{Source: lx.src, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (lx *lexer) next() (token, error) {
	for lx.pos < len(lx.src) && unicode.IsSpace(rune(lx.src[lx.pos])) {
		lx.pos++
	}
	if lx.pos >= len(lx.src) {
		return token{kind: tokEOF, pos: lx.pos}, nil
	}

	start := lx.pos
	c := lx.src[lx.pos]

	switch {
	case c == '[':
		end := strings.IndexByte(lx.src[start:], ']')
		if end < 0 {
			return token{}, lx.errorf(start, "字段引用缺少 ']'")
		}
		inner := strings.TrimSpace(lx.src[start+1 : start+end])
		if inner == "" {
			return token{}, lx.errorf(start, "字段引用为空")
		}
		lx.pos = start + end + 1
		return token{kind: tokRef, text: inner, pos: start}, nil

	case c == '\'' || c == '"':
		end := strings.IndexByte(lx.src[start+1:], c)
		if end < 0 {
			return token{}, lx.errorf(start, "字符串未闭合")
		}
		lx.pos = start + 1 + end + 1
		return token{kind: tokString, text: lx.src[start+1 : start+1+end], pos: start}, nil

	case isDigit(c) || (c == '.' && lx.pos+1 < len(lx.src) && isDigit(lx.src[lx.pos+1])):
		seenDot := false
		for lx.pos < len(lx.src) {
			ch := lx.src[lx.pos]
			if ch == '.' && !seenDot {
				seenDot = true
			} else if !isDigit(ch) {
				break
			}
			lx.pos++
		}
		return token{kind: tokNumber, text: lx.src[start:lx.pos], pos: start}, nil

	case isIdentStart(c):
		for lx.pos < len(lx.src) && isIdentPart(lx.src[lx.pos]) {
			lx.pos++
		}
		word := lx.src[start:lx.pos]
		if kind, ok := keywords[strings.ToLower(word)]; ok {
			return token{kind: kind, text: word, pos: start}, nil
		}
		return token{kind: tokIdent, text: word, pos: start}, nil
	}

	lx.pos++
	switch c {
	case '=':
		if lx.peek() == '=' {
			lx.pos++
		}
		return token{kind: tokEq, text: "=", pos: start}, nil
	case '!':
		if lx.peek() == '=' {
			lx.pos++
			return token{kind: tokNe, text: "!=", pos: start}, nil
		}
		return token{}, lx.errorf(start, "未知运算符 '!'")
	case '<':
		switch lx.peek() {
		case '=':
			lx.pos++
			return token{kind: tokLe, text: "<=", pos: start}, nil
		case '>':
			lx.pos++
			return token{kind: tokNe, text: "<>", pos: start}, nil
		}
		return token{kind: tokLt, text: "<", pos: start}, nil
	case '>':
		if lx.peek() == '=' {
			lx.pos++
			return token{kind: tokGe, text: ">=", pos: start}, nil
		}
		return token{kind: tokGt, text: ">", pos: start}, nil
	case '+':
		return token{kind: tokPlus, text: "+", pos: start}, nil
	case '-':
		return token{kind: tokMinus, text: "-", pos: start}, nil
	case '*':
		return token{kind: tokStar, text: "*", pos: start}, nil
	case '/':
		return token{kind: tokSlash, text: "/", pos: start}, nil
	case '(':
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case ')':
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case ',':
		return token{kind: tokComma, text: ",", pos: start}, nil
	}
	return token{}, lx.errorf(start, "非法字符 %q", c)
}

func (lx *lexer) peek() byte {
	if lx.pos < len(lx.src) {
		return lx.src[lx.pos]
	}
	return 0
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
