// Package prereq turns free text prerequisites into a PrereqTree and checks
// the resulting module graph for cycles.
package prereq

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"nusmods-scraper/internal/model"
)

type TokenType int

const (
	TokenCode TokenType = iota
	TokenLParen
	TokenRParen
	TokenAnd
	TokenOr
	TokenEnd
)

type Token struct {
	Type  TokenType
	Value string
}

var (
	lexRegex  = regexp.MustCompile(`[A-Z]{2,3}\d{4}[A-Z]{0,2}|\(|\)|\bAND\b|\bOR\b|&|/`)
	codeRegex = regexp.MustCompile(`^[A-Z]{2,3}\d{4}[A-Z]{0,2}$`)
)

// Tokenize extracts module codes, parentheses and boolean operators from
// text. Every other word is ignored.
func Tokenize(text string) []Token {
	var tokens []Token
	for _, match := range lexRegex.FindAllString(strings.ToUpper(text), -1) {
		switch {
		case match == "(":
			tokens = append(tokens, Token{Type: TokenLParen, Value: match})
		case match == ")":
			tokens = append(tokens, Token{Type: TokenRParen, Value: match})
		case match == "AND" || match == "&":
			tokens = append(tokens, Token{Type: TokenAnd, Value: match})
		case match == "OR" || match == "/":
			tokens = append(tokens, Token{Type: TokenOr, Value: match})
		case codeRegex.MatchString(match):
			tokens = append(tokens, Token{Type: TokenCode, Value: match})
		}
	}
	return append(clean(tokens), Token{Type: TokenEnd, Value: "$"})
}

func isOperand(t TokenType) bool {
	return t == TokenCode || t == TokenRParen
}

func isOperator(t TokenType) bool {
	return t == TokenAnd || t == TokenOr
}

// clean drops what the grammar cannot use: unbalanced or empty
// parentheses and operators that lack an operand on either side. Adjacent
// operands are joined with an implicit AND.
func clean(tokens []Token) []Token {
	var balanced []Token
	depth := 0
	for _, token := range tokens {
		switch token.Type {
		case TokenLParen:
			depth++
		case TokenRParen:
			if depth == 0 {
				continue
			}
			depth--
		}
		balanced = append(balanced, token)
	}
	for ; depth > 0; depth-- {
		balanced = append(balanced, Token{Type: TokenRParen, Value: ")"})
	}

	for changed := true; changed; {
		changed = false
		var out []Token
		for i, token := range balanced {
			var prev, next TokenType = TokenEnd, TokenEnd
			if len(out) > 0 {
				prev = out[len(out)-1].Type
			}
			if i+1 < len(balanced) {
				next = balanced[i+1].Type
			}

			switch {
			case isOperator(token.Type) && (!isOperand(prev) || next == TokenRParen || next == TokenEnd || isOperator(next)):
				changed = true
				continue
			case token.Type == TokenRParen && prev == TokenLParen:
				out = out[:len(out)-1]
				changed = true
				continue
			case (token.Type == TokenCode || token.Type == TokenLParen) && isOperand(prev):
				out = append(out, Token{Type: TokenAnd, Value: "&"})
			}
			out = append(out, token)
		}
		balanced = out
	}
	return balanced
}

type parser struct {
	tokens []Token
}

func (p *parser) peek() TokenType {
	return p.tokens[0].Type
}

func (p *parser) eat(t TokenType) (string, error) {
	if p.tokens[0].Type != t {
		return "", fmt.Errorf("invalid token %q", p.tokens[0].Value)
	}
	token := p.tokens[0]
	if token.Type != TokenEnd {
		p.tokens = p.tokens[1:]
	}
	return token.Value, nil
}

// Parse returns nil when text mentions no module codes.
func Parse(text string) (*model.PrereqTree, error) {
	p := &parser{tokens: Tokenize(text)}
	if p.peek() == TokenEnd {
		return nil, nil
	}

	tree, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(TokenEnd); err != nil {
		return nil, err
	}
	return &tree, nil
}

// expression := term (OR term)*
func (p *parser) expression() (model.PrereqTree, error) {
	head, err := p.term()
	if err != nil {
		return model.PrereqTree{}, err
	}
	terms := []model.PrereqTree{head}
	for p.peek() == TokenOr {
		p.eat(TokenOr)
		term, err := p.term()
		if err != nil {
			return model.PrereqTree{}, err
		}
		terms = append(terms, term)
	}
	return combine(terms, false), nil
}

// term := factor (AND factor)*
func (p *parser) term() (model.PrereqTree, error) {
	head, err := p.factor()
	if err != nil {
		return model.PrereqTree{}, err
	}
	factors := []model.PrereqTree{head}
	for p.peek() == TokenAnd {
		p.eat(TokenAnd)
		factor, err := p.factor()
		if err != nil {
			return model.PrereqTree{}, err
		}
		factors = append(factors, factor)
	}
	return combine(factors, true), nil
}

// factor := CODE | "(" expression ")"
func (p *parser) factor() (model.PrereqTree, error) {
	switch p.peek() {
	case TokenCode:
		code, _ := p.eat(TokenCode)
		return model.PrereqTree{Module: code}, nil
	case TokenLParen:
		p.eat(TokenLParen)
		inner, err := p.expression()
		if err != nil {
			return model.PrereqTree{}, err
		}
		if _, err := p.eat(TokenRParen); err != nil {
			return model.PrereqTree{}, err
		}
		return inner, nil
	}
	return model.PrereqTree{}, errors.New("expected module code or '('")
}

// combine flattens children of the same operator, drops duplicates and
// collapses single child nodes.
func combine(children []model.PrereqTree, and bool) model.PrereqTree {
	var flat []model.PrereqTree
	for _, child := range children {
		switch {
		case and && len(child.And) > 0:
			flat = append(flat, child.And...)
		case !and && len(child.Or) > 0:
			flat = append(flat, child.Or...)
		default:
			flat = append(flat, child)
		}
	}

	var unique []model.PrereqTree
	seen := map[string]bool{}
	for _, child := range flat {
		k := key(child)
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, child)
	}

	if len(unique) == 1 {
		return unique[0]
	}
	if and {
		return model.PrereqTree{And: unique}
	}
	return model.PrereqTree{Or: unique}
}

func key(tree model.PrereqTree) string {
	if tree.Module != "" {
		return tree.Module
	}
	op, children := "or", tree.Or
	if len(tree.And) > 0 {
		op, children = "and", tree.And
	}
	parts := make([]string, len(children))
	for i, child := range children {
		parts[i] = key(child)
	}
	return op + "(" + strings.Join(parts, ",") + ")"
}

// FindCycles returns every group of modules whose prerequisite trees
// reference each other, including a module that requires itself. Each
// cycle is sorted and the result is ordered by its first code.
func FindCycles(trees map[string]*model.PrereqTree) [][]string {
	edges := map[string][]string{}
	for code, tree := range trees {
		if tree == nil {
			continue
		}
		edges[code] = tree.Modules()
	}

	// tarjan's strongly connected components
	index := 0
	indices := map[string]int{}
	lowlink := map[string]int{}
	onStack := map[string]bool{}
	var stack []string
	var cycles [][]string

	var visit func(code string)
	visit = func(code string) {
		indices[code] = index
		lowlink[code] = index
		index++
		stack = append(stack, code)
		onStack[code] = true

		for _, next := range edges[code] {
			if _, visited := indices[next]; !visited {
				visit(next)
				lowlink[code] = min(lowlink[code], lowlink[next])
			} else if onStack[next] {
				lowlink[code] = min(lowlink[code], indices[next])
			}
		}

		if lowlink[code] != indices[code] {
			return
		}
		var component []string
		for {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[top] = false
			component = append(component, top)
			if top == code {
				break
			}
		}
		if len(component) > 1 || slices.Contains(edges[code], code) {
			slices.Sort(component)
			cycles = append(cycles, component)
		}
	}

	codes := make([]string, 0, len(edges))
	for code := range edges {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		if _, visited := indices[code]; !visited {
			visit(code)
		}
	}

	slices.SortFunc(cycles, func(a, b []string) int {
		return strings.Compare(a[0], b[0])
	})
	return cycles
}
