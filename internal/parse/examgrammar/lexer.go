package examgrammar

import (
	"fmt"
	"regexp"
	"strings"
)

type TokenType int

const (
	TokenDate TokenType = iota
	TokenTime
	TokenCode
	TokenWord
	// TokenDelim marks a boundary between two whitespace separated columns
	// of the extracted text.
	TokenDelim
	TokenEnd
)

func (t TokenType) String() string {
	switch t {
	case TokenDate:
		return "DATE"
	case TokenTime:
		return "TIME"
	case TokenCode:
		return "CODE"
	case TokenWord:
		return "WORD"
	case TokenDelim:
		return "DELIM"
	case TokenEnd:
		return "END"
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

type Token struct {
	Type  TokenType
	Value string
	// Pos is the index of the token in the chunk's token stream.
	Pos int
}

func (t Token) String() string {
	if t.Type == TokenEnd || t.Type == TokenDelim {
		return t.Type.String()
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Value)
}

var (
	// dd/mm/yyyy or d/m/yy with any non-word separator
	dateRegex     = regexp.MustCompile(`\d{1,2}\W\d{1,2}\W[20]{0,2}\d{2}`)
	dateWordRegex = regexp.MustCompile(`^\d{1,2}\W\d{1,2}\W(?:\d{4}|\d{2})$`)
	// 0900AM, 900PM, 9:00PM
	timeWordRegex = regexp.MustCompile(`^(?:[01]?\d|2[0-3])\W?[0-5]\d(?:AM|PM)$`)
	// 9:00 followed by a separate AM or PM word
	clockWordRegex = regexp.MustCompile(`^(?:[01]?\d|2[0-3])\W?[0-5]\d$`)
	// 2 or 3 capitals, 4 digits and an optional suffix letter or letter + R
	codeWordRegex = regexp.MustCompile(`^[A-Z]{2,3}\d{4}(?:[A-Z]R?)?$`)
)

func classify(word string) TokenType {
	switch {
	case dateWordRegex.MatchString(word):
		return TokenDate
	case timeWordRegex.MatchString(word):
		return TokenTime
	case codeWordRegex.MatchString(word):
		return TokenCode
	}
	return TokenWord
}

// Tokenize turns the segments of one chunk into a token stream. Segments
// are separated by TokenDelim and the stream always ends with TokenEnd.
func Tokenize(segments []string) []Token {
	var tokens []Token
	push := func(t TokenType, value string) {
		tokens = append(tokens, Token{Type: t, Value: value, Pos: len(tokens)})
	}

	for i, segment := range segments {
		if i > 0 {
			push(TokenDelim, "")
		}
		words := strings.Fields(segment)
		for j := 0; j < len(words); j++ {
			word := words[j]
			if clockWordRegex.MatchString(word) && j+1 < len(words) {
				meridiem := strings.ToUpper(words[j+1])
				if meridiem == "AM" || meridiem == "PM" {
					push(TokenTime, word+meridiem)
					j++
					continue
				}
			}
			push(classify(word), word)
		}
	}
	push(TokenEnd, "")
	return tokens
}
