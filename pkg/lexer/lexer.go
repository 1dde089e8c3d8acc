// Package lexer implements the s-expression tokenizer.
package lexer

import (
	"fmt"
	"strconv"

	"github.com/thomasrohde/memoscheme/pkg/ast"
	"github.com/thomasrohde/memoscheme/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	TokLParen TokenType = iota // (
	TokRParen                  // )

	// Literals
	TokIntLit
	TokFloatLit

	TokSymbol

	// Special
	TokEOF
)

func (t TokenType) String() string {
	switch t {
	case TokLParen:
		return "'('"
	case TokRParen:
		return "')'"
	case TokIntLit:
		return "integer"
	case TokFloatLit:
		return "float"
	case TokSymbol:
		return "symbol"
	case TokEOF:
		return "end of input"
	}
	return "unknown"
}

// Token represents a single lexer token.
type Token struct {
	Type  TokenType
	Value string
	Span  ast.Span
}

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

func (s *scanner) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func (s *scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		ch := s.peek()
		if isSpace(ch) {
			s.advance()
		} else if ch == ';' {
			// Skip comment to end of line
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		} else {
			break
		}
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// isDelimiter reports whether ch ends an atom.
func isDelimiter(ch byte) bool {
	return isSpace(ch) || ch == '(' || ch == ')' || ch == ';'
}

// looksNumeric reports whether the atom starting at the scanner position is a number:
// a digit, or a sign or dot followed by a digit.
func (s *scanner) looksNumeric() bool {
	ch := s.peek()
	if isDigit(ch) {
		return true
	}
	if ch == '+' || ch == '-' {
		next := s.peekAt(1)
		return isDigit(next) || (next == '.' && isDigit(s.peekAt(2)))
	}
	return ch == '.' && isDigit(s.peekAt(1))
}

func (s *scanner) scanNumber() (Token, error) {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	isFloat := false

	for !s.atEnd() && !isDelimiter(s.peek()) {
		ch := s.advance()
		switch {
		case isDigit(ch), ch == '+', ch == '-':
		case ch == '.', ch == 'e', ch == 'E':
			isFloat = true
		default:
			return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("invalid numeric literal '%s'", s.source[startPos:s.pos]))
		}
	}

	text := s.source[startPos:s.pos]
	if isFloat {
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("invalid numeric literal '%s'", text))
		}
		return Token{Type: TokFloatLit, Value: text, Span: s.span(startLine, startCol)}, nil
	}
	// Integers beyond int64 are valid; the parser reads them as big integers.
	if _, err := strconv.ParseInt(text, 10, 64); err != nil {
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("invalid numeric literal '%s'", text))
		}
	}
	return Token{Type: TokIntLit, Value: text, Span: s.span(startLine, startCol)}, nil
}

func (s *scanner) scanSymbol() (Token, error) {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && !isDelimiter(s.peek()) {
		ch := s.peek()
		switch ch {
		case '"':
			return Token{}, s.lexError(s.line, s.col, "string literals are not supported")
		case '\'', '`', ',':
			return Token{}, s.lexError(s.line, s.col, fmt.Sprintf("unexpected character '%c'", ch))
		}
		if ch < 0x20 || ch == 0x7f {
			return Token{}, s.lexError(s.line, s.col, fmt.Sprintf("unexpected control character 0x%02x", ch))
		}
		s.advance()
	}

	return Token{
		Type:  TokSymbol,
		Value: s.source[startPos:s.pos],
		Span:  s.span(startLine, startCol),
	}, nil
}

func (s *scanner) lexError(line, col int, msg string) error {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	)
	return &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

func (s *scanner) nextToken() (Token, error) {
	s.skipWhitespaceAndComments()

	if s.atEnd() {
		return Token{
			Type:  TokEOF,
			Value: "",
			Span:  s.span(s.line, s.col),
		}, nil
	}

	ch := s.peek()
	startLine, startCol := s.line, s.col

	switch ch {
	case '(':
		s.advance()
		return Token{Type: TokLParen, Value: "(", Span: s.span(startLine, startCol)}, nil
	case ')':
		s.advance()
		return Token{Type: TokRParen, Value: ")", Span: s.span(startLine, startCol)}, nil
	}

	if s.looksNumeric() {
		return s.scanNumber()
	}
	return s.scanSymbol()
}

// Tokenize breaks source code into a slice of tokens ending with TokEOF.
func Tokenize(source, filename string) ([]Token, error) {
	s := newScanner(source, filename)
	var tokens []Token

	for {
		tok, err := s.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, nil
}
