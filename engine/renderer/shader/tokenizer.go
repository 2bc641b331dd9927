package shader

import (
	"fmt"
	"strings"
)

// TokenType classifies a token of C-like shader source.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenName
	TokenNumberInt
	TokenNumberFloat
	TokenString
	TokenComment
	TokenSpace
	TokenTab
	TokenNewline
	TokenBracketLeft
	TokenBracketRight
	TokenSquaredBracketLeft
	TokenSquaredBracketRight
	TokenBraceLeft
	TokenBraceRight
	TokenComma
	TokenColon
	TokenSemicolon
	TokenOther
)

// Token is one lexical element. Concatenating the Str of all tokens reproduces the source.
type Token struct {
	Type   TokenType
	Str    string
	Row    int
	Column int
}

// Position returns the row and column as "row:column".
func (t Token) Position() string {
	return fmt.Sprintf("%d:%d", t.Row, t.Column)
}

// IsWhiteSpace reports whether the token is a space or tab run.
func (t Token) IsWhiteSpace() bool {
	return t.Type == TokenSpace || t.Type == TokenTab
}

var punctuation = map[byte]TokenType{
	'(': TokenBracketLeft,
	')': TokenBracketRight,
	'[': TokenSquaredBracketLeft,
	']': TokenSquaredBracketRight,
	'{': TokenBraceLeft,
	'}': TokenBraceRight,
	',': TokenComma,
	':': TokenColon,
	';': TokenSemicolon,
}

func isLetter(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Tokenize splits source into tokens with ANSI C comments. Whitespace, newlines and comments are
// kept as tokens.
//
// Parameters:
//   - source: the shader source
//
// Returns:
//   - []Token: the tokens in source order, without a trailing EOF token
func Tokenize(source string) []Token {
	var tokens []Token
	row, col := 1, 1
	i := 0
	emit := func(t TokenType, end int) {
		str := source[i:end]
		tokens = append(tokens, Token{Type: t, Str: str, Row: row, Column: col})
		if n := strings.Count(str, "\n"); n > 0 {
			row += n
			col = len(str) - strings.LastIndexByte(str, '\n')
		} else {
			col += len(str)
		}
		i = end
	}

	for i < len(source) {
		c := source[i]
		j := i + 1
		switch {
		case c == '\n':
			emit(TokenNewline, j)
		case c == '\r':
			if j < len(source) && source[j] == '\n' {
				emit(TokenNewline, j+1)
			} else {
				emit(TokenSpace, j)
			}
		case c == '\t':
			emit(TokenTab, j)
		case c == ' ':
			for j < len(source) && source[j] == ' ' {
				j++
			}
			emit(TokenSpace, j)
		case c == '/' && j < len(source) && source[j] == '/':
			for j < len(source) && source[j] != '\n' && source[j] != '\r' {
				j++
			}
			emit(TokenComment, j)
		case c == '/' && j < len(source) && source[j] == '*':
			end := strings.Index(source[j+1:], "*/")
			if end < 0 {
				j = len(source)
			} else {
				j += 1 + end + 2
			}
			emit(TokenComment, j)
		case isLetter(c):
			for j < len(source) && (isLetter(source[j]) || isDigit(source[j])) {
				j++
			}
			emit(TokenName, j)
		case isDigit(c) || (c == '.' && j < len(source) && isDigit(source[j])):
			emit(scanNumber(source, i))
		case c == '"':
			for j < len(source) && source[j] != '"' && source[j] != '\n' {
				if source[j] == '\\' {
					j++
				}
				j++
			}
			emit(TokenString, min(j+1, len(source)))
		default:
			t, ok := punctuation[c]
			if !ok {
				t = TokenOther
			}
			emit(t, j)
		}
	}
	return tokens
}

// scanNumber scans an integer or floating point literal with an optional type suffix.
func scanNumber(source string, i int) (TokenType, int) {
	j := i
	if strings.HasPrefix(source[i:], "0x") || strings.HasPrefix(source[i:], "0X") {
		j += 2
		for j < len(source) && strings.IndexByte("0123456789abcdefABCDEF", source[j]) >= 0 {
			j++
		}
		for j < len(source) && strings.IndexByte("uUlL", source[j]) >= 0 {
			j++
		}
		return TokenNumberInt, j
	}
	t := TokenNumberInt
	for j < len(source) && isDigit(source[j]) {
		j++
	}
	if j < len(source) && source[j] == '.' {
		t = TokenNumberFloat
		j++
		for j < len(source) && isDigit(source[j]) {
			j++
		}
	}
	if j < len(source) && (source[j] == 'e' || source[j] == 'E') {
		k := j + 1
		if k < len(source) && (source[k] == '+' || source[k] == '-') {
			k++
		}
		if k < len(source) && isDigit(source[k]) {
			t = TokenNumberFloat
			j = k
			for j < len(source) && isDigit(source[j]) {
				j++
			}
		}
	}
	suffixes := "uUlL"
	if t == TokenNumberFloat {
		suffixes = "fFhHlL"
	}
	for j < len(source) && strings.IndexByte(suffixes, source[j]) >= 0 {
		j++
	}
	return t, j
}

// BracketError describes the first bracket mismatch of a token list.
type BracketError struct {
	// Token is the unexpected closing bracket. It is the zero Token for unclosed brackets.
	Token    Token
	Unclosed bool
}

func (e *BracketError) Error() string {
	if e.Unclosed {
		return "unclosed brackets"
	}
	return "unexpected bracket token at " + e.Token.Position()
}

var closing = map[TokenType]TokenType{
	TokenBracketLeft:        TokenBracketRight,
	TokenSquaredBracketLeft: TokenSquaredBracketRight,
	TokenBraceLeft:          TokenBraceRight,
}

// ValidateBrackets checks that round, squared and curly brackets are balanced and properly nested.
//
// Parameters:
//   - tokens: the tokens to check
//
// Returns:
//   - error: a *BracketError, or nil
func ValidateBrackets(tokens []Token) error {
	var stack []TokenType
	for _, t := range tokens {
		switch t.Type {
		case TokenBracketLeft, TokenSquaredBracketLeft, TokenBraceLeft:
			stack = append(stack, closing[t.Type])
		case TokenBracketRight, TokenSquaredBracketRight, TokenBraceRight:
			if len(stack) == 0 || stack[len(stack)-1] != t.Type {
				return &BracketError{Token: t}
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return &BracketError{Unclosed: true}
	}
	return nil
}
