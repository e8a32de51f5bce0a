// Package lexer tokenizes CAPL source text.
//
// CAPL is line-oriented: newlines terminate declarations, condition lines,
// and action lines, so the lexer emits newline tokens instead of folding
// them into whitespace. Indentation carries no meaning and is skipped.
package lexer

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenKeyword      TokenType = iota // VAR, IF, ELSE, END, STATE, OR, NOT, REQUIRE, BLOCK, ALLOW, SESSION
	TokenIdent                         // unquoted word: user, platform, iOS, BYOD_Users
	TokenString                        // "quoted string"
	TokenBracketIdent                  // [bracketed identifier]
	TokenNumber                        // unsigned integer
	TokenComment                       // # to end of line
	TokenEquals                        // =
	TokenNewline                       // end of a logical line
	TokenEOF
	TokenError
)

func (t TokenType) String() string {
	switch t {
	case TokenKeyword:
		return "keyword"
	case TokenIdent:
		return "identifier"
	case TokenString:
		return "string"
	case TokenBracketIdent:
		return "bracket-identifier"
	case TokenNumber:
		return "number"
	case TokenComment:
		return "comment"
	case TokenEquals:
		return "'='"
	case TokenNewline:
		return "newline"
	case TokenEOF:
		return "EOF"
	case TokenError:
		return "error"
	default:
		return "unknown"
	}
}

// Keywords is the closed, case-sensitive CAPL keyword set.
var Keywords = map[string]bool{
	"VAR":     true,
	"IF":      true,
	"ELSE":    true,
	"END":     true,
	"STATE":   true,
	"OR":      true,
	"NOT":     true,
	"REQUIRE": true,
	"BLOCK":   true,
	"ALLOW":   true,
	"SESSION": true,
}

// KeywordList returns the keywords in a stable order for suggestions.
func KeywordList() []string {
	return []string{"VAR", "IF", "ELSE", "END", "STATE", "OR", "NOT", "REQUIRE", "BLOCK", "ALLOW", "SESSION"}
}

// Token is a single lexer token.
type Token struct {
	Type   TokenType
	Value  string
	Line   int
	Column int
}

func (t Token) String() string {
	if t.Type == TokenIdent || t.Type == TokenString || t.Type == TokenBracketIdent || t.Type == TokenKeyword {
		return fmt.Sprintf("%s(%q)", t.Type, t.Value)
	}
	return t.Type.String()
}

// Is reports whether the token is the given keyword.
func (t Token) Is(keyword string) bool {
	return t.Type == TokenKeyword && t.Value == keyword
}

// Lexer tokenizes CAPL source text.
type Lexer struct {
	input  string
	pos    int
	line   int
	column int
}

// New creates a new Lexer for the given input string.
func New(input string) *Lexer {
	return &Lexer{
		input:  input,
		line:   1,
		column: 1,
	}
}

// Next returns the next token, advancing the position. Comments are emitted
// as tokens so callers can choose to preserve or drop them.
func (l *Lexer) Next() Token {
	l.skipSpaces()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Line: l.line, Column: l.column}
	}

	ch := l.input[l.pos]
	line, col := l.line, l.column

	switch {
	case ch == '\n':
		l.advance()
		return Token{Type: TokenNewline, Value: "\n", Line: line, Column: col}
	case ch == '#':
		return l.readComment(line, col)
	case ch == '=':
		l.advance()
		return Token{Type: TokenEquals, Value: "=", Line: line, Column: col}
	case ch == '"':
		return l.readString(line, col)
	case ch == '[':
		return l.readBracketIdent(line, col)
	case ch >= '0' && ch <= '9':
		return l.readNumber(line, col)
	case isIdentChar(ch):
		return l.readWord(line, col)
	default:
		l.advance()
		return Token{
			Type:   TokenError,
			Value:  fmt.Sprintf("unrecognized character %q", string(ch)),
			Line:   line,
			Column: col,
		}
	}
}

// Peek returns the next token without advancing.
func (l *Lexer) Peek() Token {
	savedPos := l.pos
	savedLine := l.line
	savedCol := l.column
	tok := l.Next()
	l.pos = savedPos
	l.line = savedLine
	l.column = savedCol
	return tok
}

// Tokens scans the whole input and returns every token including the
// terminating EOF. Useful for tests and diagnostics.
func (l *Lexer) Tokens() []Token {
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			return toks
		}
	}
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.pos++
	}
}

// skipSpaces skips horizontal whitespace only; newlines are tokens.
func (l *Lexer) skipSpaces() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == ' ' || ch == '\t' || ch == '\r' {
			l.advance()
			continue
		}
		break
	}
}

func (l *Lexer) readComment(line, col int) Token {
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.advance()
	}
	text := strings.TrimRight(l.input[start:l.pos], "\r")
	return Token{Type: TokenComment, Value: text, Line: line, Column: col}
}

func (l *Lexer) readString(line, col int) Token {
	l.advance() // opening quote
	var b strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '\\' && l.pos+1 < len(l.input) {
			l.advance()
			switch l.input[l.pos] {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte('\\')
				b.WriteByte(l.input[l.pos])
			}
			l.advance()
			continue
		}
		if ch == '\n' {
			return Token{Type: TokenError, Value: "unterminated string", Line: line, Column: col}
		}
		if ch == '"' {
			l.advance()
			return Token{Type: TokenString, Value: b.String(), Line: line, Column: col}
		}
		b.WriteByte(ch)
		l.advance()
	}
	return Token{Type: TokenError, Value: "unterminated string", Line: line, Column: col}
}

func (l *Lexer) readBracketIdent(line, col int) Token {
	l.advance() // [
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != ']' && l.input[l.pos] != '\n' {
		l.advance()
	}
	if l.pos >= len(l.input) || l.input[l.pos] != ']' {
		return Token{Type: TokenError, Value: "unterminated bracket identifier", Line: line, Column: col}
	}
	value := strings.TrimSpace(l.input[start:l.pos])
	l.advance() // ]
	return Token{Type: TokenBracketIdent, Value: value, Line: line, Column: col}
}

func (l *Lexer) readNumber(line, col int) Token {
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
		l.pos++
		l.column++
	}
	// A digit run followed by identifier characters is a word (e.g. 1Password)
	if l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
			l.pos++
			l.column++
		}
		return Token{Type: TokenIdent, Value: l.input[start:l.pos], Line: line, Column: col}
	}
	return Token{Type: TokenNumber, Value: l.input[start:l.pos], Line: line, Column: col}
}

func (l *Lexer) readWord(line, col int) Token {
	start := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
		l.column++
	}
	word := l.input[start:l.pos]
	if Keywords[word] {
		return Token{Type: TokenKeyword, Value: word, Line: line, Column: col}
	}
	return Token{Type: TokenIdent, Value: word, Line: line, Column: col}
}

// isIdentChar returns true if ch is valid in a CAPL identifier. Identifiers
// cover category names (signin-risk), state values (report-only), and
// declared names (BYOD_Users, Office365).
func isIdentChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' || ch == '_' || ch == '.'
}
