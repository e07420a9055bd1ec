package examgrammar

import (
	"fmt"
	"strings"
	"unicode"

	"nusmods-scraper/internal/model"
)

// SyntaxError reports the first token that did not fit the grammar.
type SyntaxError struct {
	Expected string
	Got      Token
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("expected %s at token %d, got %s", e.Expected, e.Got.Pos, e.Got)
}

type parser struct {
	tokens []Token
}

func (p *parser) peek() Token {
	return p.tokens[0]
}

func (p *parser) advance() Token {
	token := p.tokens[0]
	if token.Type != TokenEnd {
		p.tokens = p.tokens[1:]
	}
	return token
}

func (p *parser) eat(t TokenType) (Token, error) {
	token := p.peek()
	if token.Type != t {
		return token, &SyntaxError{Expected: t.String(), Got: token}
	}
	return p.advance(), nil
}

func (p *parser) skipDelims() {
	for p.peek().Type == TokenDelim {
		p.advance()
	}
}

func hasLower(s string) bool {
	for _, r := range s {
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}

// parseRecord implements
//
//	record := DATE any* TIME CODE title faculty
//	title  := (word without lowercase letters)+ up to the column boundary
//	faculty := the next column, starting with an upper case letter
func parseRecord(tokens []Token) (model.ExamRecord, error) {
	p := &parser{tokens: tokens}

	date, err := p.eat(TokenDate)
	if err != nil {
		return model.ExamRecord{}, err
	}

	for p.peek().Type != TokenTime {
		if p.peek().Type == TokenEnd {
			return model.ExamRecord{}, &SyntaxError{Expected: TokenTime.String(), Got: p.peek()}
		}
		p.advance()
	}
	examTime := p.advance()

	p.skipDelims()
	code, err := p.eat(TokenCode)
	if err != nil {
		return model.ExamRecord{}, err
	}

	p.skipDelims()
	var title []string
	for {
		token := p.peek()
		if token.Type == TokenDelim || token.Type == TokenEnd || hasLower(token.Value) {
			break
		}
		title = append(title, p.advance().Value)
	}
	if len(title) == 0 {
		return model.ExamRecord{}, &SyntaxError{Expected: "TITLE", Got: p.peek()}
	}

	p.skipDelims()
	var faculty []string
	for p.peek().Type != TokenDelim && p.peek().Type != TokenEnd {
		faculty = append(faculty, p.advance().Value)
	}
	if len(faculty) == 0 || !unicode.IsUpper([]rune(faculty[0])[0]) {
		got := p.peek()
		if len(faculty) > 0 {
			got = Token{Type: TokenWord, Value: faculty[0]}
		}
		return model.ExamRecord{}, &SyntaxError{Expected: "FACULTY", Got: got}
	}

	return model.ExamRecord{
		Date:       date.Value,
		Time:       examTime.Value,
		ModuleCode: code.Value,
		Title:      strings.Join(title, " "),
		Faculty:    strings.Join(faculty, " "),
	}, nil
}
