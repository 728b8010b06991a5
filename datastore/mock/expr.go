/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/itemstore/codec"
)

// Item is an attribute map.
type Item = map[string]types.AttributeValue

// condition is a parsed condition or key condition expression.
type condition interface {
	eval(item Item) bool
}

// operand yields nil when the path does not resolve.
type operand interface {
	value(item Item) types.AttributeValue
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokComma
	tokDot
	tokLBracket
	tokRBracket
	tokCompare
	tokName
	tokValue
	tokIdent
	tokNumber
)

type token struct {
	kind tokenKind
	text string
}

func isWordChar(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func tokenize(s string) ([]token, error) {
	var out []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case strings.IndexByte("(),.[]", c) >= 0:
			kind := map[byte]tokenKind{'(': tokLParen, ')': tokRParen, ',': tokComma, '.': tokDot, '[': tokLBracket, ']': tokRBracket}[c]
			out = append(out, token{kind, string(c)})
			i++
		case c == '=':
			out = append(out, token{tokCompare, "="})
			i++
		case c == '<' || c == '>':
			op := string(c)
			if i+1 < len(s) && (s[i+1] == '=' || c == '<' && s[i+1] == '>') {
				op += string(s[i+1])
			}
			out = append(out, token{tokCompare, op})
			i += len(op)
		case c == '#' || c == ':':
			j := i + 1
			for j < len(s) && isWordChar(s[j]) {
				j++
			}
			if j == i+1 {
				return nil, fmt.Errorf("empty placeholder at offset %d", i)
			}
			kind := tokName
			if c == ':' {
				kind = tokValue
			}
			out = append(out, token{kind, s[i:j]})
			i = j
		case c >= '0' && c <= '9':
			j := i
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			out = append(out, token{tokNumber, s[i:j]})
			i = j
		case isWordChar(c):
			j := i
			for j < len(s) && isWordChar(s[j]) {
				j++
			}
			out = append(out, token{tokIdent, s[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected %q at offset %d", c, i)
		}
	}
	return append(out, token{kind: tokEOF}), nil
}

type parser struct {
	toks   []token
	pos    int
	names  map[string]string
	values map[string]types.AttributeValue
}

// parseCondition parses expr with the given placeholder maps.
func parseCondition(expr string, names map[string]string, values map[string]types.AttributeValue) (condition, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, names: names, values: values}
	c, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q after expression", p.peek().text)
	}
	return c, nil
}

// parseProjection parses a comma separated list of paths and returns the
// top level attribute of each.
func parseProjection(expr string, names map[string]string) ([]string, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, names: names}
	var attrs []string
	for {
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, path.steps[0].name)
		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q in projection", p.peek().text)
	}
	return attrs, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return token{kind: tokEOF}
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) error {
	if t := p.next(); t.kind != kind {
		return fmt.Errorf("expected %s, got %q", what, t.text)
	}
	return nil
}

func (p *parser) keyword(word string) bool {
	t := p.peek()
	return t.kind == tokIdent && strings.EqualFold(t.text, word)
}

func (p *parser) parseOr() (condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("OR") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orCond{left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (condition, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.keyword("AND") {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = andCond{left, right}
	}
	return left, nil
}

func (p *parser) parseNot() (condition, error) {
	if p.keyword("NOT") {
		p.next()
		c, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return notCond{c}, nil
	}
	return p.parseComparison()
}

var conditionFuncs = map[string]int{
	"attribute_exists":     1,
	"attribute_not_exists": 1,
	"attribute_type":       2,
	"begins_with":          2,
	"contains":             2,
}

func (p *parser) parseComparison() (condition, error) {
	if p.peek().kind == tokLParen {
		p.next()
		c, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return c, nil
	}

	if t := p.peek(); t.kind == tokIdent && p.peekAt(1).kind == tokLParen {
		if arity, ok := conditionFuncs[t.text]; ok {
			p.next()
			p.next()
			args := make([]operand, 0, arity)
			for i := 0; i < arity; i++ {
				if i > 0 {
					if err := p.expect(tokComma, ","); err != nil {
						return nil, err
					}
				}
				arg, err := p.parseOperand()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
			}
			if err := p.expect(tokRParen, ")"); err != nil {
				return nil, err
			}
			return funcCond{name: t.text, args: args}, nil
		}
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	switch {
	case p.peek().kind == tokCompare:
		op := p.next().text
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return compareCond{op: op, left: left, right: right}, nil
	case p.keyword("BETWEEN"):
		p.next()
		lo, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if !p.keyword("AND") {
			return nil, fmt.Errorf("expected AND in BETWEEN, got %q", p.peek().text)
		}
		p.next()
		hi, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return betweenCond{v: left, lo: lo, hi: hi}, nil
	case p.keyword("IN"):
		p.next()
		if err := p.expect(tokLParen, "("); err != nil {
			return nil, err
		}
		var list []operand
		for {
			o, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			list = append(list, o)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return inCond{v: left, list: list}, nil
	}
	return nil, fmt.Errorf("expected comparator, got %q", p.peek().text)
}

func (p *parser) parseOperand() (operand, error) {
	t := p.peek()
	switch {
	case t.kind == tokValue:
		p.next()
		av, ok := p.values[t.text]
		if !ok {
			return nil, fmt.Errorf("value placeholder %s is not defined", t.text)
		}
		return literal{av}, nil
	case t.kind == tokIdent && t.text == "size" && p.peekAt(1).kind == tokLParen:
		p.next()
		p.next()
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return sizeOf{path}, nil
	}
	return p.parsePath()
}

func (p *parser) parseName() (string, error) {
	t := p.next()
	switch t.kind {
	case tokName:
		name, ok := p.names[t.text]
		if !ok {
			return "", fmt.Errorf("name placeholder %s is not defined", t.text)
		}
		return name, nil
	case tokIdent:
		return t.text, nil
	}
	return "", fmt.Errorf("expected attribute name, got %q", t.text)
}

func (p *parser) parsePath() (path, error) {
	first, err := p.parseName()
	if err != nil {
		return path{}, err
	}
	out := path{steps: []step{{name: first}}}
	for {
		switch p.peek().kind {
		case tokDot:
			p.next()
			name, err := p.parseName()
			if err != nil {
				return path{}, err
			}
			out.steps = append(out.steps, step{name: name})
		case tokLBracket:
			p.next()
			t := p.next()
			if t.kind != tokNumber {
				return path{}, fmt.Errorf("expected list index, got %q", t.text)
			}
			n, err := strconv.Atoi(t.text)
			if err != nil {
				return path{}, err
			}
			if err := p.expect(tokRBracket, "]"); err != nil {
				return path{}, err
			}
			out.steps = append(out.steps, step{index: n, isIndex: true})
		default:
			return out, nil
		}
	}
}

type step struct {
	name    string
	index   int
	isIndex bool
}

type path struct {
	steps []step
}

func (p path) value(item Item) types.AttributeValue {
	var cur types.AttributeValue = &types.AttributeValueMemberM{Value: item}
	for _, s := range p.steps {
		switch v := cur.(type) {
		case *types.AttributeValueMemberM:
			if s.isIndex {
				return nil
			}
			cur = v.Value[s.name]
		case *types.AttributeValueMemberL:
			if !s.isIndex || s.index >= len(v.Value) {
				return nil
			}
			cur = v.Value[s.index]
		default:
			return nil
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

type literal struct {
	av types.AttributeValue
}

func (l literal) value(Item) types.AttributeValue { return l.av }

type sizeOf struct {
	p path
}

func (s sizeOf) value(item Item) types.AttributeValue {
	var n int
	switch v := s.p.value(item).(type) {
	case *types.AttributeValueMemberS:
		n = utf8.RuneCountInString(v.Value)
	case *types.AttributeValueMemberB:
		n = len(v.Value)
	case *types.AttributeValueMemberSS:
		n = len(v.Value)
	case *types.AttributeValueMemberNS:
		n = len(v.Value)
	case *types.AttributeValueMemberBS:
		n = len(v.Value)
	case *types.AttributeValueMemberL:
		n = len(v.Value)
	case *types.AttributeValueMemberM:
		n = len(v.Value)
	default:
		return nil
	}
	return &types.AttributeValueMemberN{Value: strconv.Itoa(n)}
}

type andCond struct{ left, right condition }

func (c andCond) eval(item Item) bool { return c.left.eval(item) && c.right.eval(item) }

type orCond struct{ left, right condition }

func (c orCond) eval(item Item) bool { return c.left.eval(item) || c.right.eval(item) }

type notCond struct{ c condition }

func (c notCond) eval(item Item) bool { return !c.c.eval(item) }

type compareCond struct {
	op          string
	left, right operand
}

func (c compareCond) eval(item Item) bool {
	a, b := c.left.value(item), c.right.value(item)
	if a == nil || b == nil {
		return false
	}
	switch c.op {
	case "=":
		return equal(a, b)
	case "<>":
		return !equal(a, b)
	}
	n, ok := compare(a, b)
	if !ok {
		return false
	}
	switch c.op {
	case "<":
		return n < 0
	case "<=":
		return n <= 0
	case ">":
		return n > 0
	case ">=":
		return n >= 0
	}
	return false
}

type betweenCond struct {
	v, lo, hi operand
}

func (c betweenCond) eval(item Item) bool {
	v, lo, hi := c.v.value(item), c.lo.value(item), c.hi.value(item)
	if v == nil || lo == nil || hi == nil {
		return false
	}
	a, ok1 := compare(v, lo)
	b, ok2 := compare(v, hi)
	return ok1 && ok2 && a >= 0 && b <= 0
}

type inCond struct {
	v    operand
	list []operand
}

func (c inCond) eval(item Item) bool {
	v := c.v.value(item)
	if v == nil {
		return false
	}
	for _, o := range c.list {
		if w := o.value(item); w != nil && equal(v, w) {
			return true
		}
	}
	return false
}

type funcCond struct {
	name string
	args []operand
}

func (c funcCond) eval(item Item) bool {
	v := c.args[0].value(item)
	switch c.name {
	case "attribute_exists":
		return v != nil
	case "attribute_not_exists":
		return v == nil
	}
	if v == nil {
		return false
	}
	arg := c.args[1].value(item)
	if arg == nil {
		return false
	}
	switch c.name {
	case "attribute_type":
		t, ok := arg.(*types.AttributeValueMemberS)
		return ok && codec.Variant(v) == t.Value
	case "begins_with":
		switch x := v.(type) {
		case *types.AttributeValueMemberS:
			p, ok := arg.(*types.AttributeValueMemberS)
			return ok && strings.HasPrefix(x.Value, p.Value)
		case *types.AttributeValueMemberB:
			p, ok := arg.(*types.AttributeValueMemberB)
			return ok && bytes.HasPrefix(x.Value, p.Value)
		}
	case "contains":
		return contains(v, arg)
	}
	return false
}

func contains(v, arg types.AttributeValue) bool {
	switch x := v.(type) {
	case *types.AttributeValueMemberS:
		s, ok := arg.(*types.AttributeValueMemberS)
		return ok && strings.Contains(x.Value, s.Value)
	case *types.AttributeValueMemberB:
		b, ok := arg.(*types.AttributeValueMemberB)
		return ok && bytes.Contains(x.Value, b.Value)
	case *types.AttributeValueMemberSS:
		s, ok := arg.(*types.AttributeValueMemberS)
		return ok && indexOf(len(x.Value), func(i int) bool { return x.Value[i] == s.Value }) >= 0
	case *types.AttributeValueMemberNS:
		n, ok := arg.(*types.AttributeValueMemberN)
		return ok && indexOf(len(x.Value), func(i int) bool { return numEqual(x.Value[i], n.Value) }) >= 0
	case *types.AttributeValueMemberBS:
		b, ok := arg.(*types.AttributeValueMemberB)
		return ok && indexOf(len(x.Value), func(i int) bool { return bytes.Equal(x.Value[i], b.Value) }) >= 0
	case *types.AttributeValueMemberL:
		return indexOf(len(x.Value), func(i int) bool { return equal(x.Value[i], arg) }) >= 0
	}
	return false
}

func indexOf(n int, match func(int) bool) int {
	for i := 0; i < n; i++ {
		if match(i) {
			return i
		}
	}
	return -1
}

// compare orders two scalars of the same kind.
func compare(a, b types.AttributeValue) (int, bool) {
	switch x := a.(type) {
	case *types.AttributeValueMemberS:
		if y, ok := b.(*types.AttributeValueMemberS); ok {
			return strings.Compare(x.Value, y.Value), true
		}
	case *types.AttributeValueMemberN:
		if y, ok := b.(*types.AttributeValueMemberN); ok {
			return numCompare(x.Value, y.Value)
		}
	case *types.AttributeValueMemberB:
		if y, ok := b.(*types.AttributeValueMemberB); ok {
			return bytes.Compare(x.Value, y.Value), true
		}
	}
	return 0, false
}

func numCompare(a, b string) (int, bool) {
	da, err := codec.ParseDecimal(a)
	if err != nil {
		return 0, false
	}
	db, err := codec.ParseDecimal(b)
	if err != nil {
		return 0, false
	}
	return da.Cmp(db), true
}

func numEqual(a, b string) bool {
	n, ok := numCompare(a, b)
	return ok && n == 0
}

// equal compares values structurally; sets compare without order.
func equal(a, b types.AttributeValue) bool {
	switch x := a.(type) {
	case *types.AttributeValueMemberS, *types.AttributeValueMemberB:
		n, ok := compare(a, b)
		return ok && n == 0
	case *types.AttributeValueMemberN:
		y, ok := b.(*types.AttributeValueMemberN)
		return ok && numEqual(x.Value, y.Value)
	case *types.AttributeValueMemberBOOL:
		y, ok := b.(*types.AttributeValueMemberBOOL)
		return ok && x.Value == y.Value
	case *types.AttributeValueMemberNULL:
		_, ok := b.(*types.AttributeValueMemberNULL)
		return ok
	case *types.AttributeValueMemberL:
		y, ok := b.(*types.AttributeValueMemberL)
		if !ok || len(x.Value) != len(y.Value) {
			return false
		}
		for i := range x.Value {
			if !equal(x.Value[i], y.Value[i]) {
				return false
			}
		}
		return true
	case *types.AttributeValueMemberM:
		y, ok := b.(*types.AttributeValueMemberM)
		if !ok || len(x.Value) != len(y.Value) {
			return false
		}
		for k, v := range x.Value {
			w, ok := y.Value[k]
			if !ok || !equal(v, w) {
				return false
			}
		}
		return true
	case *types.AttributeValueMemberSS:
		y, ok := b.(*types.AttributeValueMemberSS)
		return ok && sameSet(len(x.Value), len(y.Value), func(i, j int) bool { return x.Value[i] == y.Value[j] })
	case *types.AttributeValueMemberNS:
		y, ok := b.(*types.AttributeValueMemberNS)
		return ok && sameSet(len(x.Value), len(y.Value), func(i, j int) bool { return numEqual(x.Value[i], y.Value[j]) })
	case *types.AttributeValueMemberBS:
		y, ok := b.(*types.AttributeValueMemberBS)
		return ok && sameSet(len(x.Value), len(y.Value), func(i, j int) bool { return bytes.Equal(x.Value[i], y.Value[j]) })
	}
	return false
}

func sameSet(n, m int, eq func(i, j int) bool) bool {
	if n != m {
		return false
	}
	for i := 0; i < n; i++ {
		if indexOf(m, func(j int) bool { return eq(i, j) }) < 0 {
			return false
		}
	}
	return true
}
